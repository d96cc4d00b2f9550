package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lendwise/loanflow/pkg/models"
)

// coordinatorRaw is the decoded, schema-validated model reply before the
// deterministic pass derives completion and quick replies.
type coordinatorRaw struct {
	Message       string         `json:"message"`
	Action        models.Action  `json:"action"`
	CollectedData map[string]any `json:"collected_data"`
	NextStep      string         `json:"next_step"`
}

// RunCoordinator executes one coordinator turn. The model extracts values
// from the user's utterance and writes the conversational message; this
// layer owns everything a client can act on: the merged collected data, the
// completion fraction, the action invariant, and the quick replies.
//
// Invalid extracted field values are not an error: the turn degrades to
// need_clarification and the session data stays untouched. A structurally
// invalid model payload is an error and surfaces as a SchemaError.
func RunCoordinator(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, collected map[string]any) (*models.CoordinatorReply, error) {
	messages := append([]ConversationMessage{}, thread...)
	messages = append(messages, ConversationMessage{
		Role:    RoleUser,
		Content: coordinatorContext(collected),
	})

	resp, err := a.Run(ctx, llm, messages, nil)
	if err != nil {
		return nil, err
	}

	var raw coordinatorRaw
	if err := decodeValidated(a.Name, a.schema, resp.Content, &raw); err != nil {
		return nil, err
	}

	merged := models.MergeCollected(collected, normalizeCollected(raw.CollectedData, collected))

	if err := models.ValidateCollected(merged); err != nil {
		return clarificationReply(collected, fmt.Sprintf("That doesn't look right: %s. %s", err, raw.NextStep)), nil
	}

	completion := models.CompletionFor(merged)

	action := raw.Action
	switch {
	case models.IsComplete(merged):
		action = models.ActionReadyForProcessing
	case action == models.ActionReadyForProcessing:
		// The model jumped the gun; data is still incomplete.
		action = models.ActionCollectInfo
	case action == models.ActionNeedClarification:
		return clarificationReply(collected, raw.Message), nil
	}

	reply := &models.CoordinatorReply{
		AgentName:            models.AgentCoordinator,
		Message:              raw.Message,
		Action:               action,
		CollectedData:        merged,
		CompletionPercentage: completion,
		NextStep:             raw.NextStep,
		QuickReplies:         quickRepliesFor(completion),
	}
	if err := reply.Validate(); err != nil {
		return nil, &SchemaError{Agent: a.Name, Err: err}
	}
	return reply, nil
}

// clarificationReply repeats the current step without mutating data.
func clarificationReply(collected map[string]any, message string) *models.CoordinatorReply {
	completion := models.CompletionFor(collected)
	return &models.CoordinatorReply{
		AgentName:            models.AgentCoordinator,
		Message:              message,
		Action:               models.ActionNeedClarification,
		CollectedData:        collected,
		CompletionPercentage: completion,
		QuickReplies:         quickRepliesFor(completion),
	}
}

// ErrorReply shapes a coordinator failure for the client. The session keeps
// its data; the client may retry.
func ErrorReply(collected map[string]any, detail string) *models.CoordinatorReply {
	return &models.CoordinatorReply{
		AgentName:            models.AgentCoordinator,
		Message:              "Something went wrong while processing your request. Please try again.",
		Action:               models.ActionError,
		CollectedData:        collected,
		CompletionPercentage: models.CompletionFor(collected),
		NextStep:             detail,
	}
}

// normalizeCollected reshapes model-extracted values before the merge.
// Today that is one rule: a down_payment_percent paired with a known loan
// amount becomes an absolute down_payment.
func normalizeCollected(patch, existing map[string]any) map[string]any {
	if patch == nil {
		return nil
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		out[k] = v
	}

	pct, havePct := asPercent(out["down_payment_percent"])
	if havePct {
		delete(out, "down_payment_percent")
		if _, haveAbs := out[models.FieldDownPayment]; !haveAbs {
			if loan, ok := numberFrom(out, existing, models.FieldLoanAmount); ok {
				out[models.FieldDownPayment] = loan * pct / 100
			}
		}
	}
	return out
}

func asPercent(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func numberFrom(patch, existing map[string]any, key string) (float64, bool) {
	if n, ok := asPercent(patch[key]); ok {
		return n, true
	}
	return asPercent(existing[key])
}

// coordinatorContext renders the state block appended after the user's
// message so the model knows what is already collected.
func coordinatorContext(collected map[string]any) string {
	data, err := json.Marshal(collected)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("Current collected application data: %s\nRespond with a single JSON object.", data)
}

// quickRepliesFor returns the tappable options for the step the applicant is
// on. Step 4 is form-driven and gets none.
func quickRepliesFor(completion int) []models.QuickReply {
	switch completion {
	case 0:
		return []models.QuickReply{
			{Label: "$200,000", Value: "200000", Icon: "🏠"},
			{Label: "$300,000", Value: "300000", Icon: "🏠"},
			{Label: "$500,000", Value: "500000", Icon: "🏡"},
			{Label: "$750,000", Value: "750000", Icon: "🏡"},
			{Label: "$1,000,000", Value: "1000000", Icon: "🏰"},
		}
	case 25:
		return []models.QuickReply{
			{Label: "5%", Value: "5"},
			{Label: "10%", Value: "10"},
			{Label: "15%", Value: "15"},
			{Label: "20%", Value: "20"},
			{Label: "25%", Value: "25"},
		}
	case 50:
		return []models.QuickReply{
			{Label: "Under $75k", Value: "60000"},
			{Label: "$75k-$100k", Value: "90000"},
			{Label: "$100k-$150k", Value: "125000"},
			{Label: "Over $150k", Value: "175000"},
		}
	default:
		return nil
	}
}
