// Package models defines the typed records exchanged between the coordinator,
// the assessment pipeline, and API callers. Pure data — no I/O. Validation
// happens at construction; derived quantities are recomputed on demand and
// never stored.
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"
)

// Collected-data keys. The coordinator accumulates a partial application as a
// map under these keys; ApplicationFromData assembles and validates the full
// record once all required fields are present.
const (
	FieldName         = "name"
	FieldEmail        = "email"
	FieldIDLast4      = "id_last4"
	FieldLoanAmount   = "loan_amount"
	FieldDownPayment  = "down_payment"
	FieldAnnualIncome = "annual_income"
	FieldLoanPurpose  = "loan_purpose"
	FieldTermMonths   = "term_months"

	// FieldFinalRecommendation is the well-known collected_data key under
	// which the terminal chat response embeds the risk decider's verdict.
	FieldFinalRecommendation = "final_recommendation"
)

// DefaultTermMonths is the loan term assumed when the application does not
// override it (30-year fixed).
const DefaultTermMonths = 360

// requiredFields are the six fields that make an application complete.
var requiredFields = []string{
	FieldName, FieldEmail, FieldIDLast4,
	FieldLoanAmount, FieldDownPayment, FieldAnnualIncome,
}

var idLast4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

// LoanApplication is the canonical structured application. The full government
// identifier is never collected or stored — only its last four digits, kept as
// a string because leading zeros are significant.
type LoanApplication struct {
	ApplicationID string      `json:"application_id"`
	ApplicantID   string      `json:"applicant_id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	IDLast4       string      `json:"id_last4"`
	LoanAmount    float64     `json:"loan_amount"`
	DownPayment   float64     `json:"down_payment"`
	AnnualIncome  float64     `json:"annual_income"`
	LoanPurpose   LoanPurpose `json:"loan_purpose"`
	TermMonths    int         `json:"term_months"`
}

// Validate checks every field against its construction rules.
func (a *LoanApplication) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return &FieldError{Field: FieldName, Reason: "name is required"}
	}
	if err := ValidateEmail(a.Email); err != nil {
		return err
	}
	if err := ValidateIDLast4(a.IDLast4); err != nil {
		return err
	}
	if a.LoanAmount <= 0 {
		return &FieldError{Field: FieldLoanAmount, Reason: "loan amount must be positive"}
	}
	if a.DownPayment < 0 {
		return &FieldError{Field: FieldDownPayment, Reason: "down payment must be non-negative"}
	}
	if a.DownPayment >= a.LoanAmount {
		return &FieldError{Field: FieldDownPayment, Reason: "down payment must be less than loan amount"}
	}
	if a.AnnualIncome <= 0 {
		return &FieldError{Field: FieldAnnualIncome, Reason: "annual income must be positive"}
	}
	if a.LoanPurpose != "" && !a.LoanPurpose.IsValid() {
		return &FieldError{Field: FieldLoanPurpose, Reason: fmt.Sprintf("unknown loan purpose %q", a.LoanPurpose)}
	}
	if a.TermMonths <= 0 {
		return &FieldError{Field: FieldTermMonths, Reason: "term must be positive"}
	}
	return nil
}

// DownPaymentPercent returns the down payment as a percentage of the loan
// amount. Derived — never stored.
func (a *LoanApplication) DownPaymentPercent() float64 {
	if a.LoanAmount == 0 {
		return 0
	}
	return a.DownPayment / a.LoanAmount * 100
}

// FinancedPrincipal is the amount actually borrowed after the down payment.
func (a *LoanApplication) FinancedPrincipal() float64 {
	return a.LoanAmount - a.DownPayment
}

// MonthlyPayment computes the standard amortized payment on the financed
// principal at the given annual rate over the application's term.
func (a *LoanApplication) MonthlyPayment(annualRate float64) float64 {
	return AmortizedPayment(a.FinancedPrincipal(), annualRate, a.TermMonths)
}

// IncomeToLoan returns annual income divided by the loan amount. Higher is
// stronger: 4 means the applicant earns the loan amount four times over in a
// year.
func (a *LoanApplication) IncomeToLoan() float64 {
	if a.LoanAmount == 0 {
		return 0
	}
	return a.AnnualIncome / a.LoanAmount
}

// AmortizedPayment is the fixed monthly payment for a principal amortized at
// annualRate (e.g. 0.07) over months.
func AmortizedPayment(principal, annualRate float64, months int) float64 {
	if principal <= 0 || months <= 0 {
		return 0
	}
	if annualRate == 0 {
		return principal / float64(months)
	}
	r := annualRate / 12
	f := math.Pow(1+r, float64(months))
	return principal * r * f / (f - 1)
}

// FieldError reports a collected-data value that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateEmail checks RFC-5322 form and requires a dotted domain.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &FieldError{Field: FieldEmail, Reason: "not a valid email address"}
	}
	at := strings.LastIndex(email, "@")
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return &FieldError{Field: FieldEmail, Reason: "email domain must contain a dot"}
	}
	return nil
}

// ValidateIDLast4 checks for exactly four ASCII decimal digits.
func ValidateIDLast4(last4 string) error {
	if !idLast4Pattern.MatchString(last4) {
		return &FieldError{Field: FieldIDLast4, Reason: "must be exactly four digits"}
	}
	return nil
}

// ValidateField checks a single collected-data value against the rules for its
// key. Unknown keys pass — the coordinator may carry auxiliary context the
// model layer does not govern.
func ValidateField(key string, value any) error {
	switch key {
	case FieldName:
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return &FieldError{Field: key, Reason: "name must be a non-empty string"}
		}
	case FieldEmail:
		s, ok := value.(string)
		if !ok {
			return &FieldError{Field: key, Reason: "email must be a string"}
		}
		return ValidateEmail(s)
	case FieldIDLast4:
		s, ok := value.(string)
		if !ok {
			return &FieldError{Field: key, Reason: "id last-4 must be a string (leading zeros matter)"}
		}
		return ValidateIDLast4(s)
	case FieldLoanAmount, FieldAnnualIncome:
		n, ok := asNumber(value)
		if !ok || n <= 0 {
			return &FieldError{Field: key, Reason: "must be a positive number"}
		}
	case FieldDownPayment:
		n, ok := asNumber(value)
		if !ok || n < 0 {
			return &FieldError{Field: key, Reason: "must be a non-negative number"}
		}
	case FieldLoanPurpose:
		s, ok := value.(string)
		if !ok || !LoanPurpose(s).IsValid() {
			return &FieldError{Field: key, Reason: "unknown loan purpose"}
		}
	case FieldTermMonths:
		n, ok := asNumber(value)
		if !ok || n <= 0 || n != math.Trunc(n) {
			return &FieldError{Field: key, Reason: "must be a positive whole number of months"}
		}
	}
	return nil
}

// ValidateCollected validates every known field in a collected-data mapping.
func ValidateCollected(data map[string]any) error {
	for k, v := range data {
		if err := ValidateField(k, v); err != nil {
			return err
		}
	}
	// cross-field rule: down payment below loan amount, once both are present
	loan, haveLoan := asNumber(data[FieldLoanAmount])
	down, haveDown := asNumber(data[FieldDownPayment])
	if haveLoan && haveDown && down >= loan {
		return &FieldError{Field: FieldDownPayment, Reason: "down payment must be less than loan amount"}
	}
	return nil
}

// IsComplete reports whether all six required fields are present and valid.
func IsComplete(data map[string]any) bool {
	for _, f := range requiredFields {
		v, ok := data[f]
		if !ok || v == nil {
			return false
		}
		if ValidateField(f, v) != nil {
			return false
		}
	}
	return ValidateCollected(data) == nil
}

// ApplicationFromData assembles a validated LoanApplication from a complete
// collected-data mapping. ids are supplied by the caller (server-generated).
func ApplicationFromData(data map[string]any, applicationID, applicantID string) (*LoanApplication, error) {
	if !IsComplete(data) {
		return nil, fmt.Errorf("collected data is not a complete application")
	}
	loan, _ := asNumber(data[FieldLoanAmount])
	down, _ := asNumber(data[FieldDownPayment])
	income, _ := asNumber(data[FieldAnnualIncome])

	app := &LoanApplication{
		ApplicationID: applicationID,
		ApplicantID:   applicantID,
		Name:          data[FieldName].(string),
		Email:         data[FieldEmail].(string),
		IDLast4:       data[FieldIDLast4].(string),
		LoanAmount:    loan,
		DownPayment:   down,
		AnnualIncome:  income,
		LoanPurpose:   PurposeHomePurchase,
		TermMonths:    DefaultTermMonths,
	}
	if s, ok := data[FieldLoanPurpose].(string); ok {
		app.LoanPurpose = LoanPurpose(s)
	}
	if n, ok := asNumber(data[FieldTermMonths]); ok {
		app.TermMonths = int(n)
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// asNumber accepts the numeric shapes JSON decoding and user code produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
