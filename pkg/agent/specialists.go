package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lendwise/loanflow/pkg/models"
)

// The four stage runners. Each invokes its agent for narrative (reasoning,
// factor lists), computes the stage's figures from the deterministic policy,
// and assembles the SpecialistAssessment. A runner never mutates the
// session; the pipeline merges its output into shared state.

// RunIntake validates the assembled application and assigns a routing tier.
func RunIntake(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, app *models.LoanApplication, executor ToolExecutor) (*models.SpecialistAssessment, error) {
	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("validation rejected: %w", err)
	}

	narrative, err := runNarrative(ctx, llm, a, thread, app, nil,
		"Validate the application's basic parameters and note anything a processor should know.", executor)
	if err != nil {
		return nil, err
	}

	tier := RoutingTierFor(app.AnnualIncome)
	return &models.SpecialistAssessment{
		AgentName:       a.Name,
		Score:           1.0,
		Category:        string(models.ValidationComplete),
		Reasoning:       narrative.Reasoning,
		PositiveFactors: narrative.PositiveFactors,
		NegativeFactors: narrative.NegativeFactors,
		Intake: &models.IntakeDetail{
			ValidationStatus: models.ValidationComplete,
			RoutingTier:      tier,
		},
	}, nil
}

// RunCredit estimates a creditworthiness band. No bureau is consulted.
func RunCredit(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, app *models.LoanApplication, prior map[string]*models.SpecialistAssessment, executor ToolExecutor) (*models.SpecialistAssessment, error) {
	band := CreditBandFor(app)

	narrative, err := runNarrative(ctx, llm, a, thread, app, prior,
		fmt.Sprintf("The estimated creditworthiness band is %s. Explain the drivers behind this estimate.", describeBand(band)), executor)
	if err != nil {
		return nil, err
	}

	// Midpoint of the band mapped onto [0,1] over the 300-850 score range.
	mid := float64(band.Low+band.High) / 2
	score := (mid - 300) / 550

	return &models.SpecialistAssessment{
		AgentName:       a.Name,
		Score:           score,
		Category:        describeBand(band),
		Reasoning:       narrative.Reasoning,
		PositiveFactors: narrative.PositiveFactors,
		NegativeFactors: narrative.NegativeFactors,
		Credit: &models.CreditDetail{
			EstimatedScoreLow:  band.Low,
			EstimatedScoreHigh: band.High,
			EstimationMethod:   EstimationMethod(),
		},
	}, nil
}

// RunIncome computes the stated-income affordability estimate.
func RunIncome(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, app *models.LoanApplication, prior map[string]*models.SpecialistAssessment, executor ToolExecutor) (*models.SpecialistAssessment, error) {
	analysis := AnalyzeIncome(app)

	narrative, err := runNarrative(ctx, llm, a, thread, app, prior,
		fmt.Sprintf("The estimated DTI is %.1f%% (%s). Summarize the affordability picture.", analysis.DTI, analysis.Band), executor)
	if err != nil {
		return nil, err
	}

	score := 1 - min(analysis.DTI, 100)/100

	return &models.SpecialistAssessment{
		AgentName:       a.Name,
		Score:           score,
		Category:        string(analysis.Band),
		Reasoning:       narrative.Reasoning,
		PositiveFactors: narrative.PositiveFactors,
		NegativeFactors: narrative.NegativeFactors,
		Income: &models.IncomeDetail{
			EstimatedDTI:       analysis.DTI,
			DTIBand:            analysis.Band,
			MonthlyPayment:     analysis.MonthlyPayment,
			MonthlyObligations: analysis.MonthlyObligations,
			PropertyCosts:      analysis.PropertyCosts,
			Note:               statedIncomeNote,
		},
	}, nil
}

// riskScores maps a recommendation to an indicative confidence score.
var riskScores = map[models.Recommendation]float64{
	models.RecommendationApprove:     0.9,
	models.RecommendationConditional: 0.6,
	models.RecommendationManual:      0.5,
	models.RecommendationDeny:        0.2,
}

// RunRisk produces the final recommendation from the application and every
// prior assessment.
func RunRisk(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, app *models.LoanApplication, prior map[string]*models.SpecialistAssessment, executor ToolExecutor) (*models.SpecialistAssessment, error) {
	analysis := AnalyzeIncome(app)
	if income, ok := prior[models.StageIncome]; ok && income.Income != nil {
		analysis.DTI = income.Income.EstimatedDTI
		analysis.Band = income.Income.DTIBand
	}
	rec := Decide(app, analysis)

	narrative, err := runNarrative(ctx, llm, a, thread, app, prior,
		fmt.Sprintf("The recommendation is %s. Explain the decision. Judge only the six collected fields; never count missing address or full government id against the applicant.", rec), executor)
	if err != nil {
		return nil, err
	}

	return &models.SpecialistAssessment{
		AgentName:       a.Name,
		Score:           riskScores[rec],
		Category:        string(rec),
		Reasoning:       narrative.Reasoning,
		PositiveFactors: narrative.PositiveFactors,
		NegativeFactors: narrative.NegativeFactors,
		Risk: &models.RiskDecision{
			Recommendation:        rec,
			ApprovedAmount:        ApprovedAmount(app, rec),
			RecommendedRateAPR:    RecommendedRate(rec),
			RecommendedTermMonths: app.TermMonths,
			Conditions:            narrative.Conditions,
			DataLimitations:       statedIncomeNote,
		},
	}, nil
}

// runNarrative performs the shared LLM step of a stage: thread + application
// + prior assessments + stage instruction in, schema-validated narrative out.
func runNarrative(ctx context.Context, llm LLMClient, a *Agent, thread []ConversationMessage, app *models.LoanApplication, prior map[string]*models.SpecialistAssessment, instruction string, executor ToolExecutor) (*specialistNarrative, error) {
	messages := append([]ConversationMessage{}, thread...)
	messages = append(messages, ConversationMessage{
		Role:    RoleUser,
		Content: stageContext(app, prior, instruction),
	})

	resp, err := a.Run(ctx, llm, messages, executor)
	if err != nil {
		return nil, err
	}

	var narrative specialistNarrative
	if err := decodeValidated(a.Name, a.schema, resp.Content, &narrative); err != nil {
		return nil, err
	}
	return &narrative, nil
}

func stageContext(app *models.LoanApplication, prior map[string]*models.SpecialistAssessment, instruction string) string {
	appJSON, _ := json.Marshal(app)
	out := fmt.Sprintf("Application under assessment: %s\n", appJSON)
	for _, stage := range []string{models.StageIntake, models.StageCredit, models.StageIncome} {
		if assessment, ok := prior[stage]; ok {
			assessmentJSON, _ := json.Marshal(assessment)
			out += fmt.Sprintf("Prior %s: %s\n", stage, assessmentJSON)
		}
	}
	return out + instruction + "\nRespond with a single JSON object."
}
