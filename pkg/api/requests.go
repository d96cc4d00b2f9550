package api

// MaxUserMessageLength bounds one chat message. Larger payloads are
// rejected before any model call.
const MaxUserMessageLength = 100_000

// ChatRequest is the POST /api/chat body.
type ChatRequest struct {
	UserMessage string         `json:"user_message"`
	SessionID   string         `json:"session_id"`
	CurrentData map[string]any `json:"current_data"`
}

// CleanupRequest is the POST /api/sessions/cleanup body.
type CleanupRequest struct {
	MaxAgeHours int `json:"max_age_hours"`
}
