package models

import "fmt"

// Stage names used as shared-state keys. Stable strings; callers key prior
// assessments by these.
const (
	StageIntake = "intake_validation"
	StageCredit = "credit_assessment"
	StageIncome = "income_verification"
	StageRisk   = "risk_decision"
)

// Agent labels carried on replies and pipeline events.
const (
	AgentCoordinator = "loan_coordinator"
	AgentIntake      = "intake_validator"
	AgentCredit      = "credit_estimator"
	AgentIncome      = "income_assessor"
	AgentRisk        = "risk_decider"
)

// SpecialistAssessment is the structured output of one pipeline stage.
// Score is a confidence/risk fraction in [0,1]; Category comes from the
// stage-specific closed set. Exactly one of the stage detail records is
// populated, matching the stage that produced the assessment.
type SpecialistAssessment struct {
	AgentName       string   `json:"agent_name"`
	Score           float64  `json:"score"`
	Category        string   `json:"category"`
	Reasoning       string   `json:"reasoning"`
	PositiveFactors []string `json:"positive_factors,omitempty"`
	NegativeFactors []string `json:"negative_factors,omitempty"`

	Intake *IntakeDetail `json:"intake,omitempty"`
	Credit *CreditDetail `json:"credit,omitempty"`
	Income *IncomeDetail `json:"income,omitempty"`
	Risk   *RiskDecision `json:"risk,omitempty"`
}

// Validate checks the assessment's own invariants.
func (a *SpecialistAssessment) Validate() error {
	if a.Score < 0 || a.Score > 1 {
		return fmt.Errorf("score %.3f outside [0,1]", a.Score)
	}
	if a.Category == "" {
		return fmt.Errorf("category is required")
	}
	return nil
}

// IntakeDetail extends the intake validator's assessment.
type IntakeDetail struct {
	ValidationStatus ValidationStatus `json:"validation_status"`
	RoutingTier      RoutingTier      `json:"routing_tier"`
}

// CreditDetail extends the credit estimator's assessment. No bureau is
// consulted; the range is an estimate from income-to-loan ratio and
// down-payment percentage.
type CreditDetail struct {
	EstimatedScoreLow  int    `json:"estimated_score_low"`
	EstimatedScoreHigh int    `json:"estimated_score_high"`
	EstimationMethod   string `json:"estimation_method"`
}

// IncomeDetail extends the income assessor's assessment. All figures are
// monthly. Income is stated by the applicant and unverified.
type IncomeDetail struct {
	EstimatedDTI       float64 `json:"estimated_dti"`
	DTIBand            DTIBand `json:"dti_band"`
	MonthlyPayment     float64 `json:"monthly_payment"`
	MonthlyObligations float64 `json:"monthly_obligations"`
	PropertyCosts      float64 `json:"property_costs"`
	Note               string  `json:"note"`
}

// RiskDecision extends the risk decider's assessment with the final verdict.
type RiskDecision struct {
	Recommendation        Recommendation `json:"recommendation"`
	ApprovedAmount        float64        `json:"approved_amount"`
	RecommendedRateAPR    float64        `json:"recommended_rate_apr"`
	RecommendedTermMonths int            `json:"recommended_term_months"`
	Conditions            []string       `json:"conditions,omitempty"`
	DataLimitations       string         `json:"data_limitations"`
}
