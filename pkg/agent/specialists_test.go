package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/loanflow/pkg/models"
)

func TestRunIntake(t *testing.T) {
	llm := NewMockLLM().Respond(SpecialistJSON("all six fields present and well-formed"))
	a := NewIntakeAgent("persona")

	assessment, err := RunIntake(context.Background(), llm, a, nil, app(500_000, 100_000, 175_000), nil)
	require.NoError(t, err)

	assert.Equal(t, models.AgentIntake, assessment.AgentName)
	assert.Equal(t, string(models.ValidationComplete), assessment.Category)
	require.NotNil(t, assessment.Intake)
	assert.Equal(t, models.TierFastTrack, assessment.Intake.RoutingTier)
	assert.NoError(t, assessment.Validate())
}

func TestRunIntakeRejectsInvalidApplication(t *testing.T) {
	a := NewIntakeAgent("persona")
	bad := app(500_000, 100_000, 175_000)
	bad.Email = "nope"

	_, err := RunIntake(context.Background(), NewMockLLM(), a, nil, bad, nil)
	assert.ErrorContains(t, err, "validation rejected")
}

func TestRunCredit(t *testing.T) {
	llm := NewMockLLM().Respond(SpecialistJSON("moderate leverage, solid down payment"))
	a := NewCreditAgent("persona")

	assessment, err := RunCredit(context.Background(), llm, a, nil, app(500_000, 100_000, 175_000), nil, nil)
	require.NoError(t, err)

	require.NotNil(t, assessment.Credit)
	// income/loan = 0.35, 20% down → weakest band
	assert.Equal(t, 580, assessment.Credit.EstimatedScoreLow)
	assert.Equal(t, 620, assessment.Credit.EstimatedScoreHigh)
	assert.NotEmpty(t, assessment.Credit.EstimationMethod)
	assert.NoError(t, assessment.Validate())
}

func TestRunIncome(t *testing.T) {
	llm := NewMockLLM().Respond(SpecialistJSON("payment comfortably inside income"))
	a := NewIncomeAgent("persona")

	assessment, err := RunIncome(context.Background(), llm, a, nil, app(500_000, 100_000, 175_000), nil, nil)
	require.NoError(t, err)

	require.NotNil(t, assessment.Income)
	assert.InDelta(t, 37.5, assessment.Income.EstimatedDTI, 0.5)
	assert.Equal(t, models.DTIModerate, assessment.Income.DTIBand)
	assert.Contains(t, assessment.Income.Note, "stated")
	assert.NoError(t, assessment.Validate())
}

func TestRunRiskApprove(t *testing.T) {
	llm := NewMockLLM().Respond(SpecialistJSON("ratios clear every approval gate"))
	a := NewRiskAgent("persona")
	application := app(500_000, 100_000, 175_000)

	prior := map[string]*models.SpecialistAssessment{
		models.StageIncome: {
			AgentName: models.AgentIncome,
			Score:     0.6,
			Category:  string(models.DTIModerate),
			Income:    &models.IncomeDetail{EstimatedDTI: 37.5, DTIBand: models.DTIModerate},
		},
	}

	assessment, err := RunRisk(context.Background(), llm, a, nil, application, prior, nil)
	require.NoError(t, err)

	require.NotNil(t, assessment.Risk)
	assert.Equal(t, models.RecommendationApprove, assessment.Risk.Recommendation)
	assert.Equal(t, 400_000.0, assessment.Risk.ApprovedAmount)
	assert.Equal(t, models.DefaultTermMonths, assessment.Risk.RecommendedTermMonths)
	assert.Contains(t, assessment.Risk.DataLimitations, "stated")
}

func TestRunRiskManualReviewOverride(t *testing.T) {
	llm := NewMockLLM().Respond(SpecialistJSON("loan size requires a human decision"))
	a := NewRiskAgent("persona")

	assessment, err := RunRisk(context.Background(), llm, a, nil, app(1_500_000, 300_000, 200_000), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RecommendationManual, assessment.Risk.Recommendation)
	assert.Zero(t, assessment.Risk.ApprovedAmount)
}

func TestRunSpecialistSchemaFailureHalts(t *testing.T) {
	llm := NewMockLLM().Respond(`{"not_reasoning": true}`)
	a := NewCreditAgent("persona")

	_, err := RunCredit(context.Background(), llm, a, nil, app(500_000, 100_000, 175_000), nil, nil)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, models.AgentCredit, schemaErr.Agent)
}
