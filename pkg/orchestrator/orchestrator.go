// Package orchestrator owns the session store, the coordinator turn loop,
// and the sequential assessment pipeline. The transport calls HandleTurn and
// consumes the reply plus, when assessment runs, an ordered stream of
// pipeline events.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/lendwise/loanflow/pkg/agent"
	"github.com/lendwise/loanflow/pkg/config"
	"github.com/lendwise/loanflow/pkg/mcp"
	"github.com/lendwise/loanflow/pkg/models"
	"github.com/lendwise/loanflow/pkg/session"
)

// Orchestrator wires the coordinator and the four specialists over a shared
// session store.
type Orchestrator struct {
	store      *session.Manager
	llm        agent.LLMClient
	mcpFactory *mcp.ClientFactory // nil disables tools

	coordinator *agent.Agent
	intake      *agent.Agent
	credit      *agent.Agent
	income      *agent.Agent
	risk        *agent.Agent

	logger *slog.Logger
}

// New builds an orchestrator. A nil mcpFactory runs every agent without
// tools, which keeps the service usable when no tool servers are deployed.
func New(store *session.Manager, llm agent.LLMClient, personas *config.PersonaSet, mcpFactory *mcp.ClientFactory, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:       store,
		llm:         llm,
		mcpFactory:  mcpFactory,
		coordinator: agent.NewCoordinator(personas.MustGet(config.PersonaCoordinator)),
		intake:      agent.NewIntakeAgent(personas.MustGet(config.PersonaIntake)),
		credit:      agent.NewCreditAgent(personas.MustGet(config.PersonaCredit)),
		income:      agent.NewIncomeAgent(personas.MustGet(config.PersonaIncome)),
		risk:        agent.NewRiskAgent(personas.MustGet(config.PersonaRisk)),
		logger:      logger.With("component", "orchestrator"),
	}
}

// Store exposes the session store for the admin endpoints and the cleanup
// service.
func (o *Orchestrator) Store() *session.Manager { return o.store }

// TurnResult is one turn's outcome. Events is non-nil only when this turn
// triggered the assessment pipeline; the caller must then drain it (the
// channel closes when the pipeline finishes or fails).
type TurnResult struct {
	SessionID string
	Reply     *models.CoordinatorReply
	Events    <-chan models.PipelineEvent
}

// HandleTurn runs one conversational turn. Turns on the same session are
// serialized by the per-session lock, held across the coordinator call and,
// when triggered, the whole pipeline.
//
// A coordinator failure (model error, schema violation, timeout) moves the
// session to error and returns an error-shaped reply; the session survives
// for a retry. There is never a synthesized "best effort" reply from an
// unparseable model response.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userMessage string, currentData map[string]any) *TurnResult {
	sess := o.store.GetOrCreate(sessionID)
	sess.BeginTurn()

	// The turn lock is held across the coordinator call and, when a pipeline
	// starts, handed off to the pipeline goroutine, which releases it when
	// the run ends.
	var released, handedOff bool
	release := func() {
		if !released {
			released = true
			sess.EndTurn()
		}
	}
	defer func() {
		if !handedOff {
			release()
		}
	}()

	collected := sess.CollectedData()
	if len(currentData) > 0 {
		collected = models.MergeCollected(collected, currentData)
	}

	sess.AddMessage(session.RoleUser, userMessage)

	// A session already holding a complete application proceeds straight to
	// assessment: the client is requesting execution, not another question.
	if sess.Status() == models.StatusReady {
		reply := &models.CoordinatorReply{
			AgentName:            models.AgentCoordinator,
			Message:              "Your application is complete. Starting the assessment now.",
			Action:               models.ActionReadyForProcessing,
			CollectedData:        collected,
			CompletionPercentage: 100,
		}
		events := o.runPipeline(ctx, sess, release)
		handedOff = true
		return &TurnResult{SessionID: sess.ID, Reply: reply, Events: events}
	}

	reply, err := agent.RunCoordinator(ctx, o.llm, o.coordinator, toAgentThread(sess.Thread()), collected)
	if err != nil {
		o.logger.Error("Coordinator turn failed", "session_id", sess.ID, "error", err)
		sess.SetError(err.Error())
		return &TurnResult{SessionID: sess.ID, Reply: agent.ErrorReply(collected, err.Error())}
	}

	sess.AddMessage(session.RoleAssistant, reply.Message)
	sess.SetCollected(reply.CollectedData, reply.CompletionPercentage)

	if reply.Action != models.ActionReadyForProcessing {
		if sess.Status() == models.StatusError {
			// A retried turn that succeeds leaves the error state.
			sess.SetStatus(models.StatusCollecting)
		}
		return &TurnResult{SessionID: sess.ID, Reply: reply}
	}

	sess.SetStatus(models.StatusReady)
	events := o.runPipeline(ctx, sess, release)
	handedOff = true
	return &TurnResult{SessionID: sess.ID, Reply: reply, Events: events}
}

// InspectSession returns an unmasked snapshot; masking is the transport's
// concern.
func (o *Orchestrator) InspectSession(id string) (session.Snapshot, error) {
	sess, err := o.store.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

func toAgentThread(msgs []session.Message) []agent.ConversationMessage {
	out := make([]agent.ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, agent.ConversationMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
