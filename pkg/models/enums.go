package models

import (
	"encoding/json"
	"fmt"
)

// Action is the coordinator's per-turn action signal.
type Action string

const (
	ActionCollectInfo        Action = "collect_info"
	ActionReadyForProcessing Action = "ready_for_processing"
	ActionNeedClarification  Action = "need_clarification"
	ActionCompleted          Action = "completed"
	ActionError              Action = "error"
)

// IsValid reports whether the action is a known value.
func (a Action) IsValid() bool {
	switch a {
	case ActionCollectInfo, ActionReadyForProcessing, ActionNeedClarification,
		ActionCompleted, ActionError:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown action discriminants.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Action(s)
	if !v.IsValid() {
		return fmt.Errorf("unknown action %q", s)
	}
	*a = v
	return nil
}

// Phase tags a pipeline event with the stage that produced it.
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseCredit     Phase = "credit"
	PhaseIncome     Phase = "income"
	PhaseDeciding   Phase = "deciding"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// IsValid reports whether the phase is a known value.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseValidating, PhaseCredit, PhaseIncome, PhaseDeciding,
		PhaseComplete, PhaseError:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown phase discriminants.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Phase(s)
	if !v.IsValid() {
		return fmt.Errorf("unknown phase %q", s)
	}
	*p = v
	return nil
}

// SessionStatus is a session's lifecycle state.
type SessionStatus string

const (
	StatusCollecting SessionStatus = "collecting"
	StatusReady      SessionStatus = "ready"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusError      SessionStatus = "error"
)

// IsValid reports whether the status is a known value.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusCollecting, StatusReady, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Recommendation is the risk decider's final verdict.
type Recommendation string

const (
	RecommendationApprove     Recommendation = "APPROVE"
	RecommendationConditional Recommendation = "CONDITIONAL_APPROVAL"
	RecommendationDeny        Recommendation = "DENY"
	RecommendationManual      Recommendation = "MANUAL_REVIEW"
)

// IsValid reports whether the recommendation is a known value.
func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendationApprove, RecommendationConditional,
		RecommendationDeny, RecommendationManual:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown recommendation discriminants.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := Recommendation(s)
	if !v.IsValid() {
		return fmt.Errorf("unknown recommendation %q", s)
	}
	*r = v
	return nil
}

// LoanPurpose is the declared purpose of the loan. Only home_purchase is
// offered today; the other values are reserved for future products.
type LoanPurpose string

const (
	PurposeHomePurchase LoanPurpose = "home_purchase"
	PurposeRefinance    LoanPurpose = "refinance"
	PurposeInvestment   LoanPurpose = "investment"
)

// IsValid reports whether the purpose is a known value.
func (p LoanPurpose) IsValid() bool {
	switch p {
	case PurposeHomePurchase, PurposeRefinance, PurposeInvestment:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown loan purposes.
func (p *LoanPurpose) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := LoanPurpose(s)
	if !v.IsValid() {
		return fmt.Errorf("unknown loan purpose %q", s)
	}
	*p = v
	return nil
}

// ValidationStatus is the intake validator's category.
type ValidationStatus string

const (
	ValidationComplete   ValidationStatus = "COMPLETE"
	ValidationIncomplete ValidationStatus = "INCOMPLETE"
	ValidationInvalid    ValidationStatus = "INVALID"
)

// RoutingTier is the processing track assigned by the intake validator.
type RoutingTier string

const (
	TierFastTrack RoutingTier = "FAST_TRACK"
	TierStandard  RoutingTier = "STANDARD"
	TierEnhanced  RoutingTier = "ENHANCED"
)

// DTIBand classifies an estimated debt-to-income ratio.
type DTIBand string

const (
	DTILow      DTIBand = "LOW"      // <= 30%
	DTIModerate DTIBand = "MODERATE" // 30-40%
	DTIHigher   DTIBand = "HIGHER"   // 40-50%
	DTIHigh     DTIBand = "HIGH"     // > 50%
)

// DTIBandFor classifies a DTI percentage.
func DTIBandFor(dtiPercent float64) DTIBand {
	switch {
	case dtiPercent <= 30:
		return DTILow
	case dtiPercent <= 40:
		return DTIModerate
	case dtiPercent <= 50:
		return DTIHigher
	default:
		return DTIHigh
	}
}
