package api

import (
	"encoding/json"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/lendwise/loanflow/pkg/models"
	"github.com/lendwise/loanflow/pkg/orchestrator"
)

// ndjsonContentType selects the streaming response mode on POST /api/chat.
const ndjsonContentType = "application/x-ndjson"

// chatHandler handles POST /api/chat: one conversational turn, and when the
// turn triggers the assessment pipeline, its stage events too.
//
// Clients that send "Accept: application/x-ndjson" get the reply and each
// pipeline event as separate NDJSON lines, flushed as stages finish. All
// other clients get a single JSON body with the events collected into
// workflow_events.
func (s *Server) chatHandler(c *echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_message is required")
	}
	if len(req.UserMessage) > MaxUserMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "user_message exceeds maximum length")
	}

	result := s.orchestrator.HandleTurn(c.Request().Context(), req.SessionID, req.UserMessage, req.CurrentData)
	resp := chatResponseFrom(result)

	if result.Events == nil {
		return c.JSON(http.StatusOK, resp)
	}

	if strings.Contains(c.Request().Header.Get("Accept"), ndjsonContentType) {
		return s.streamChat(c, resp, result)
	}

	for ev := range result.Events {
		resp.WorkflowEvents = append(resp.WorkflowEvents, ev)
	}
	if n := len(resp.WorkflowEvents); n > 0 {
		last := resp.WorkflowEvents[n-1]
		switch last.Phase {
		case models.PhaseComplete:
			resp.Action = models.ActionCompleted
			resp.CompletionPercentage = 100
			// The completed session holds the final recommendation.
			if snap, err := s.orchestrator.InspectSession(result.SessionID); err == nil {
				resp.CollectedData = snap.CollectedData
			}
		case models.PhaseError:
			resp.Action = models.ActionError
			resp.Message = last.Message
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// streamChat writes the coordinator reply, then one line per pipeline event,
// flushing after each so the client sees stage progress live.
func (s *Server) streamChat(c *echo.Context, resp *ChatResponse, result *orchestrator.TurnResult) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, ndjsonContentType)
	res.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(res)
	enc := json.NewEncoder(res)
	if err := enc.Encode(resp); err != nil {
		return err
	}
	_ = rc.Flush()

	for ev := range result.Events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		_ = rc.Flush()
	}
	return nil
}

func chatResponseFrom(result *orchestrator.TurnResult) *ChatResponse {
	r := result.Reply
	return &ChatResponse{
		SessionID:            result.SessionID,
		AgentName:            r.AgentName,
		Message:              r.Message,
		Action:               r.Action,
		CollectedData:        r.CollectedData,
		CompletionPercentage: r.CompletionPercentage,
		NextStep:             r.NextStep,
		QuickReplies:         r.QuickReplies,
	}
}
