package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lendwise/loanflow/pkg/agent"
	"github.com/lendwise/loanflow/pkg/models"
	"github.com/lendwise/loanflow/pkg/session"
)

// cancelledDetail is the session error detail recorded when the caller
// abandons a running pipeline.
const cancelledDetail = "cancelled"

// stage describes one pipeline step: which agent runs, which shared-state
// key it writes, and the event envelope it emits.
type stage struct {
	agent      *agent.Agent
	key        string
	phase      models.Phase
	completion int
	message    string
	run        func(ctx context.Context, o *Orchestrator, a *agent.Agent, thread []agent.ConversationMessage, state *SharedState, exec agent.ToolExecutor) (*models.SpecialistAssessment, error)
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{
			agent: o.intake, key: models.StageIntake,
			phase: models.PhaseValidating, completion: 25,
			message: "Validating your application details",
			run: func(ctx context.Context, o *Orchestrator, a *agent.Agent, thread []agent.ConversationMessage, state *SharedState, exec agent.ToolExecutor) (*models.SpecialistAssessment, error) {
				return agent.RunIntake(ctx, o.llm, a, thread, state.Application, exec)
			},
		},
		{
			agent: o.credit, key: models.StageCredit,
			phase: models.PhaseCredit, completion: 50,
			message: "Estimating your creditworthiness",
			run: func(ctx context.Context, o *Orchestrator, a *agent.Agent, thread []agent.ConversationMessage, state *SharedState, exec agent.ToolExecutor) (*models.SpecialistAssessment, error) {
				return agent.RunCredit(ctx, o.llm, a, thread, state.Application, state.Assessments, exec)
			},
		},
		{
			agent: o.income, key: models.StageIncome,
			phase: models.PhaseIncome, completion: 75,
			message: "Reviewing income and affordability",
			run: func(ctx context.Context, o *Orchestrator, a *agent.Agent, thread []agent.ConversationMessage, state *SharedState, exec agent.ToolExecutor) (*models.SpecialistAssessment, error) {
				return agent.RunIncome(ctx, o.llm, a, thread, state.Application, state.Assessments, exec)
			},
		},
		{
			agent: o.risk, key: models.StageRisk,
			phase: models.PhaseDeciding, completion: 100,
			message: "Making the final recommendation",
			run: func(ctx context.Context, o *Orchestrator, a *agent.Agent, thread []agent.ConversationMessage, state *SharedState, exec agent.ToolExecutor) (*models.SpecialistAssessment, error) {
				return agent.RunRisk(ctx, o.llm, a, thread, state.Application, state.Assessments, exec)
			},
		},
	}
}

// runPipeline executes the four assessment stages sequentially, emitting one
// event per stage boundary on the returned channel. Emission is lazy: the
// producer blocks until the consumer takes each event, so a slow or
// departed consumer stops execution at the next boundary. The release
// callback frees the session's turn lock when the run ends on any path.
func (o *Orchestrator) runPipeline(ctx context.Context, sess *session.Session, release func()) <-chan models.PipelineEvent {
	events := make(chan models.PipelineEvent)

	app, err := models.ApplicationFromData(sess.CollectedData(), uuid.New().String(), uuid.New().String())
	if err != nil {
		// Should be unreachable: ready implies complete data.
		go func() {
			defer close(events)
			defer release()
			detail := fmt.Sprintf("application assembly failed: %v", err)
			sess.SetError(detail)
			o.emit(ctx, events, errorEvent(models.AgentIntake, detail, 25))
		}()
		return events
	}

	sess.SetStatus(models.StatusProcessing)
	state := NewSharedState(app)
	thread := toAgentThread(sess.Thread())

	go func() {
		defer close(events)
		defer release()

		for _, st := range o.stages() {
			if ctx.Err() != nil {
				sess.SetError(cancelledDetail)
				return
			}

			assessment, err := o.runStage(ctx, st, thread, state)
			if err != nil {
				if ctx.Err() != nil {
					sess.SetError(cancelledDetail)
					return
				}
				detail := fmt.Sprintf("stage %s failed: %v", st.key, err)
				o.logger.Error("Pipeline stage failed",
					"session_id", sess.ID, "stage", st.key, "error", err)
				sess.SetError(detail)
				o.emit(ctx, events, errorEvent(st.agent.Name, detail, st.completion))
				return
			}

			state.Record(st.key, st.phase, assessment)

			event := models.NewPipelineEvent(st.agent.Name, st.message, st.phase, st.completion)
			event.Assessment = assessment
			if !o.emit(ctx, events, event) {
				sess.SetError(cancelledDetail)
				return
			}
		}

		decision := state.Assessments[models.StageRisk].Risk
		collected := models.MergeCollected(sess.CollectedData(), map[string]any{
			models.FieldFinalRecommendation: string(decision.Recommendation),
		})
		sess.SetCollected(collected, 100)
		sess.SetStatus(models.StatusCompleted)

		final := models.NewPipelineEvent(models.AgentRisk,
			fmt.Sprintf("Assessment complete: %s", decision.Recommendation),
			models.PhaseComplete, 100)
		final.Assessment = state.Assessments[models.StageRisk]
		final.Action = models.ActionCompleted
		if !o.emit(ctx, events, final) {
			sess.SetError(cancelledDetail)
		}
	}()

	return events
}

// runStage opens the stage's tool connections, runs the agent, and closes
// the connections on every exit path.
func (o *Orchestrator) runStage(ctx context.Context, st stage, thread []agent.ConversationMessage, state *SharedState) (*models.SpecialistAssessment, error) {
	var exec agent.ToolExecutor
	if o.mcpFactory != nil && len(st.agent.ToolServers) > 0 {
		toolExec, err := o.mcpFactory.CreateToolExecutor(ctx, st.agent.ToolServers)
		if err != nil {
			return nil, err
		}
		defer func() { _ = toolExec.Close() }()
		exec = toolExec
	}
	return st.run(ctx, o, st.agent, thread, state, exec)
}

// emit delivers an event unless the consumer is gone. Returns false on
// cancellation.
func (o *Orchestrator) emit(ctx context.Context, events chan<- models.PipelineEvent, event models.PipelineEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func errorEvent(agentName, detail string, completion int) models.PipelineEvent {
	event := models.NewPipelineEvent(agentName, detail, models.PhaseError, completion)
	event.Action = models.ActionError
	return event
}
