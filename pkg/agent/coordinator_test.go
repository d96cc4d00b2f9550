package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/loanflow/pkg/models"
)

func userTurn(content string) []ConversationMessage {
	return []ConversationMessage{{Role: RoleUser, Content: content}}
}

func TestRunCoordinatorFirstStep(t *testing.T) {
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"Great, a $300,000 loan. How much can you put down?",
		"collect_info",
		map[string]any{"loan_amount": 300000.0},
	))
	a := NewCoordinator("You are Maya, a loan intake coordinator.")

	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("300000"), map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, models.AgentCoordinator, reply.AgentName)
	assert.Equal(t, models.ActionCollectInfo, reply.Action)
	assert.Equal(t, 25, reply.CompletionPercentage)
	assert.Equal(t, 300000.0, reply.CollectedData["loan_amount"])
	assert.Len(t, reply.QuickReplies, 5, "down payment step offers five options")
}

func TestRunCoordinatorDownPaymentPercent(t *testing.T) {
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"20% it is. What is your annual income?",
		"collect_info",
		map[string]any{"down_payment_percent": 20.0},
	))
	a := NewCoordinator("persona")

	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("20"),
		map[string]any{"loan_amount": 500000.0})
	require.NoError(t, err)

	assert.Equal(t, 100000.0, reply.CollectedData["down_payment"])
	assert.NotContains(t, reply.CollectedData, "down_payment_percent")
	assert.Equal(t, 50, reply.CompletionPercentage)
	assert.Len(t, reply.QuickReplies, 4, "income step offers four options")
}

func TestRunCoordinatorCompletionDerivedNotTrusted(t *testing.T) {
	// the model claims ready_for_processing with data still missing
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"All set!",
		"ready_for_processing",
		map[string]any{"loan_amount": 300000.0},
	))
	a := NewCoordinator("persona")

	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("300000"), map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, models.ActionCollectInfo, reply.Action)
	assert.Equal(t, 25, reply.CompletionPercentage)
}

func TestRunCoordinatorReadyOnCompleteData(t *testing.T) {
	collected := map[string]any{
		"loan_amount":   500000.0,
		"down_payment":  100000.0,
		"annual_income": 175000.0,
	}
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"Thanks Tony, submitting your application now.",
		"collect_info", // the deterministic layer upgrades this
		map[string]any{"name": "Tony Stark", "email": "tony@stark.com", "id_last4": "1234"},
	))
	a := NewCoordinator("persona")

	reply, err := RunCoordinator(context.Background(), llm, a,
		userTurn(`{"name":"Tony Stark","email":"tony@stark.com","idLast4":"1234"}`), collected)
	require.NoError(t, err)

	assert.Equal(t, models.ActionReadyForProcessing, reply.Action)
	assert.Equal(t, 100, reply.CompletionPercentage)
	assert.Empty(t, reply.QuickReplies, "form step carries no quick replies")
	assert.True(t, models.IsComplete(reply.CollectedData))
}

func TestRunCoordinatorClarificationKeepsData(t *testing.T) {
	collected := map[string]any{"loan_amount": 300000.0}
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"I can only help with loan applications. How much would you like to put down?",
		"need_clarification",
		nil,
	))
	a := NewCoordinator("persona")

	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("I want to buy jungle book"), collected)
	require.NoError(t, err)

	assert.Equal(t, models.ActionNeedClarification, reply.Action)
	assert.Equal(t, 25, reply.CompletionPercentage, "completion does not advance")
	assert.Equal(t, collected, reply.CollectedData)
}

func TestRunCoordinatorInvalidFieldDegradesToClarification(t *testing.T) {
	llm := NewMockLLM().Respond(CoordinatorJSON(
		"Got it.",
		"collect_info",
		map[string]any{"email": "not-an-email", "name": "Tony Stark", "id_last4": "1234"},
	))
	a := NewCoordinator("persona")

	collected := map[string]any{
		"loan_amount":   500000.0,
		"down_payment":  100000.0,
		"annual_income": 175000.0,
	}
	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("bad form input"), collected)
	require.NoError(t, err)

	assert.Equal(t, models.ActionNeedClarification, reply.Action)
	assert.NotContains(t, reply.CollectedData, "email", "invalid extraction is not merged")
	assert.Equal(t, 75, reply.CompletionPercentage)
}

func TestRunCoordinatorMalformedPayloadIsSchemaError(t *testing.T) {
	llm := NewMockLLM().Respond(`{"no_message_field": true}`)
	a := NewCoordinator("persona")

	_, err := RunCoordinator(context.Background(), llm, a, userTurn("300000"), map[string]any{})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, models.AgentCoordinator, schemaErr.Agent)
}

func TestRunCoordinatorFencedJSONAccepted(t *testing.T) {
	llm := NewMockLLM().Respond("```json\n" + CoordinatorJSON("ok", "collect_info",
		map[string]any{"loan_amount": 250000.0}) + "\n```")
	a := NewCoordinator("persona")

	reply, err := RunCoordinator(context.Background(), llm, a, userTurn("250000"), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, 25, reply.CompletionPercentage)
}

func TestRunCoordinatorLLMFailurePropagates(t *testing.T) {
	llm := NewMockLLM().Fail(errors.New("upstream unavailable"))
	a := NewCoordinator("persona")

	_, err := RunCoordinator(context.Background(), llm, a, userTurn("300000"), map[string]any{})
	assert.Error(t, err)
}
