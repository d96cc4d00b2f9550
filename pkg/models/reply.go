package models

import "fmt"

// completionSteps are the only legal completion percentages.
var completionSteps = map[int]bool{0: true, 25: true, 50: true, 75: true, 100: true}

// QuickReply is one tappable option offered alongside a coordinator question.
type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Icon  string `json:"icon,omitempty"`
}

// CoordinatorReply is the coordinator agent's structured per-turn output.
type CoordinatorReply struct {
	AgentName            string         `json:"agent_name"`
	Message              string         `json:"message"`
	Action               Action         `json:"action"`
	CollectedData        map[string]any `json:"collected_data"`
	CompletionPercentage int            `json:"completion_percentage"`
	NextStep             string         `json:"next_step,omitempty"`
	QuickReplies         []QuickReply   `json:"quick_replies,omitempty"`
}

// Validate enforces the reply invariants:
//   - completion is one of {0,25,50,75,100}
//   - ready_for_processing implies completion 100 and complete collected data
//   - collect_info implies completion < 100
func (r *CoordinatorReply) Validate() error {
	if !r.Action.IsValid() {
		return fmt.Errorf("unknown action %q", r.Action)
	}
	if !completionSteps[r.CompletionPercentage] {
		return fmt.Errorf("completion_percentage %d is not a step value", r.CompletionPercentage)
	}
	switch r.Action {
	case ActionReadyForProcessing:
		if r.CompletionPercentage != 100 {
			return fmt.Errorf("ready_for_processing requires completion 100, got %d", r.CompletionPercentage)
		}
		if !IsComplete(r.CollectedData) {
			return fmt.Errorf("ready_for_processing requires a complete application")
		}
	case ActionCollectInfo:
		if r.CompletionPercentage >= 100 {
			return fmt.Errorf("collect_info requires completion < 100, got %d", r.CompletionPercentage)
		}
	}
	return nil
}

// CompletionFor derives the intake completion fraction from the collected
// data, following the four-step script: loan amount, down payment, annual
// income, then the contact block (name + email + id last-4).
func CompletionFor(data map[string]any) int {
	has := func(key string) bool {
		v, ok := data[key]
		return ok && v != nil && ValidateField(key, v) == nil
	}
	switch {
	case !has(FieldLoanAmount):
		return 0
	case !has(FieldDownPayment):
		return 25
	case !has(FieldAnnualIncome):
		return 50
	case !has(FieldName) || !has(FieldEmail) || !has(FieldIDLast4):
		return 75
	}
	return 100
}
