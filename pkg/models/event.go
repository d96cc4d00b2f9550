package models

import "time"

// PipelineEvent is emitted at each pipeline stage boundary. Within one
// pipeline run, phases arrive in stage order and completion fractions are
// monotone non-decreasing.
type PipelineEvent struct {
	AgentName            string                `json:"agent_name"`
	Message              string                `json:"message"`
	Phase                Phase                 `json:"phase"`
	CompletionPercentage int                   `json:"completion_percentage"`
	Assessment           *SpecialistAssessment `json:"assessment,omitempty"`
	Action               Action                `json:"action,omitempty"`
	Timestamp            string                `json:"timestamp"`
}

// NewPipelineEvent stamps an event with the current time (RFC3339Nano, UTC).
func NewPipelineEvent(agentName, message string, phase Phase, completion int) PipelineEvent {
	return PipelineEvent{
		AgentName:            agentName,
		Message:              message,
		Phase:                phase,
		CompletionPercentage: completion,
		Timestamp:            time.Now().UTC().Format(time.RFC3339Nano),
	}
}
