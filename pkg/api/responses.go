package api

import (
	"github.com/lendwise/loanflow/pkg/models"
	"github.com/lendwise/loanflow/pkg/session"
)

// ChatResponse is the POST /api/chat reply. WorkflowEvents is present only
// when the turn triggered the assessment pipeline and the client did not
// request a streaming transport.
type ChatResponse struct {
	SessionID            string                 `json:"session_id"`
	AgentName            string                 `json:"agent_name"`
	Message              string                 `json:"message"`
	Action               models.Action          `json:"action"`
	CollectedData        map[string]any         `json:"collected_data"`
	CompletionPercentage int                    `json:"completion_percentage"`
	NextStep             string                 `json:"next_step,omitempty"`
	QuickReplies         []models.QuickReply    `json:"quick_replies,omitempty"`
	WorkflowEvents       []models.PipelineEvent `json:"workflow_events,omitempty"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string          `json:"status"`
	Services  ServiceStatuses `json:"services"`
	Timestamp string          `json:"timestamp"`
}

// ServiceStatuses reports per-component liveness.
type ServiceStatuses struct {
	Workflow       bool `json:"workflow"`
	SessionManager bool `json:"session_manager"`
	Framework      bool `json:"framework"`
}

// SessionListResponse is the GET /api/sessions body.
type SessionListResponse struct {
	Sessions []session.Snapshot `json:"sessions"`
	Count    int                `json:"count"`
}

// CleanupResponse is the POST /api/sessions/cleanup body.
type CleanupResponse struct {
	Removed     int `json:"removed"`
	MaxAgeHours int `json:"max_age_hours"`
}
