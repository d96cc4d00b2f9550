package agent

import (
	"fmt"

	"github.com/lendwise/loanflow/pkg/models"
)

// Deterministic lending policy. Every number a client sees (routing tier,
// credit band, DTI, recommendation) comes from these functions; the model
// contributes narrative only. All thresholds are indicative, not lending
// policy of record.

// Indicative assumptions for the stated-income estimate.
const (
	IndicativeAnnualRate = 0.07

	// OtherDebtFraction estimates existing monthly obligations as a share
	// of monthly income.
	OtherDebtFraction = 0.15

	// PropertyCostFraction estimates monthly taxes and insurance as a share
	// of the loan amount.
	PropertyCostFraction = 0.00125

	// ManualReviewLoanCeiling: larger loans always escalate to a human.
	ManualReviewLoanCeiling = 1_000_000
)

// RoutingTierFor classifies an application by stated annual income.
func RoutingTierFor(annualIncome float64) models.RoutingTier {
	switch {
	case annualIncome > 150_000:
		return models.TierFastTrack
	case annualIncome >= 75_000:
		return models.TierStandard
	default:
		return models.TierEnhanced
	}
}

// CreditBand is an estimated creditworthiness range. No bureau is consulted.
type CreditBand struct {
	Low   int
	High  int
	Label string
}

// CreditBandFor estimates a creditworthiness band from the income-to-loan
// ratio and down-payment percentage.
func CreditBandFor(app *models.LoanApplication) CreditBand {
	ratio := app.IncomeToLoan()
	downPct := app.DownPaymentPercent()

	switch {
	case ratio >= 4 && downPct >= 25:
		return CreditBand{Low: 740, High: 780, Label: "Very Good"}
	case ratio >= 3 && downPct >= 20:
		return CreditBand{Low: 680, High: 740, Label: "Good"}
	case ratio >= 2 && downPct >= 15:
		return CreditBand{Low: 620, High: 680, Label: "Fair"}
	default:
		return CreditBand{Low: 580, High: 620, Label: "Below Average"}
	}
}

// IncomeAnalysis is the stated-income affordability estimate, all figures
// monthly.
type IncomeAnalysis struct {
	MonthlyIncome      float64
	MonthlyPayment     float64
	MonthlyObligations float64
	PropertyCosts      float64
	DTI                float64 // percent
	Band               models.DTIBand
}

// AnalyzeIncome computes the estimated debt-to-income position: amortized
// payment on the financed principal, other debts at a fixed fraction of
// income, property costs at a fixed fraction of the loan amount.
func AnalyzeIncome(app *models.LoanApplication) IncomeAnalysis {
	monthlyIncome := app.AnnualIncome / 12
	payment := app.MonthlyPayment(IndicativeAnnualRate)
	obligations := monthlyIncome * OtherDebtFraction
	propertyCosts := app.LoanAmount * PropertyCostFraction

	dti := 0.0
	if monthlyIncome > 0 {
		dti = (payment + obligations + propertyCosts) / monthlyIncome * 100
	}

	return IncomeAnalysis{
		MonthlyIncome:      monthlyIncome,
		MonthlyPayment:     payment,
		MonthlyObligations: obligations,
		PropertyCosts:      propertyCosts,
		DTI:                dti,
		Band:               models.DTIBandFor(dti),
	}
}

// Decide produces the final recommendation from the application and the
// income analysis. The large-loan escalation overrides every ratio rule.
func Decide(app *models.LoanApplication, income IncomeAnalysis) models.Recommendation {
	if app.LoanAmount > ManualReviewLoanCeiling {
		return models.RecommendationManual
	}

	annualPayment := app.MonthlyPayment(IndicativeAnnualRate) * 12
	paymentRatio := 0.0
	if annualPayment > 0 {
		paymentRatio = app.AnnualIncome / annualPayment
	}
	downPct := app.DownPaymentPercent()

	switch {
	case paymentRatio >= 3 && downPct >= 20 && income.DTI <= 40:
		return models.RecommendationApprove
	case paymentRatio < 2 || downPct < 10 || income.DTI > 50:
		return models.RecommendationDeny
	case paymentRatio >= 2 && downPct >= 10 && income.DTI <= 45:
		return models.RecommendationConditional
	default:
		return models.RecommendationManual
	}
}

// RecommendedRate returns the indicative APR quoted with a decision. A
// conditional approval carries a small premium.
func RecommendedRate(rec models.Recommendation) float64 {
	if rec == models.RecommendationConditional {
		return IndicativeAnnualRate + 0.005
	}
	return IndicativeAnnualRate
}

// ApprovedAmount returns the financed amount a positive decision covers.
// Negative and escalated decisions carry zero.
func ApprovedAmount(app *models.LoanApplication, rec models.Recommendation) float64 {
	switch rec {
	case models.RecommendationApprove, models.RecommendationConditional:
		return app.FinancedPrincipal()
	default:
		return 0
	}
}

// EstimationMethod describes how the credit band was derived, for the
// assessment's audit trail.
func EstimationMethod() string {
	return "income-to-loan ratio and down-payment percentage, no bureau inquiry"
}

// statedIncomeNote is attached to income and risk assessments.
const statedIncomeNote = "income is stated by the applicant and has not been verified"

// describeBand renders the band for use as an assessment category.
func describeBand(b CreditBand) string {
	return fmt.Sprintf("%d-%d (%s)", b.Low, b.High, b.Label)
}
