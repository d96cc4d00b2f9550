package session

import (
	"sync"
	"time"

	"github.com/lendwise/loanflow/pkg/models"
)

// MessageRole is the role of a conversation message sender.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry in a session's conversation thread. Threads live as
// long as the session and are never serialized outside the process.
type Message struct {
	Role    MessageRole
	Content string
}

// Session is per-user conversational state. The Manager owns all Session
// values; callers interact through methods or Snapshot copies.
//
// Two locks with distinct jobs:
//   - turnMu serializes turns: at most one HandleTurn per session at a time,
//     intentionally held across the agent calls of that turn.
//   - mu protects field access and is never held across blocking operations.
type Session struct {
	ID string

	mu           sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
	status       models.SessionStatus
	collected    map[string]any
	completion   int
	errDetail    string
	messages     []Message

	turnMu sync.Mutex
}

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID            string         `json:"session_id"`
	CreatedAt     time.Time      `json:"created_at"`
	LastActivity  time.Time      `json:"last_activity"`
	Status        models.SessionStatus `json:"status"`
	CollectedData map[string]any `json:"collected_data"`
	Completion    int            `json:"completion_percentage"`
	Error         string         `json:"error,omitempty"`
	MessageCount  int            `json:"message_count"`
}

// BeginTurn acquires the per-session turn lock.
func (s *Session) BeginTurn() { s.turnMu.Lock() }

// EndTurn releases the per-session turn lock.
func (s *Session) EndTurn() { s.turnMu.Unlock() }

// AddMessage appends to the thread and refreshes last activity.
func (s *Session) AddMessage(role MessageRole, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content})
	s.lastActivity = time.Now()
}

// Thread returns a copy of the conversation thread in delivery order.
func (s *Session) Thread() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return msgs
}

// Status returns the lifecycle status.
func (s *Session) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus updates the lifecycle status. Error detail is cleared on any
// transition away from the error state.
func (s *Session) SetStatus(status models.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if status != models.StatusError {
		s.errDetail = ""
	}
	s.lastActivity = time.Now()
}

// SetError moves the session to the error state and records the detail.
func (s *Session) SetError(detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = models.StatusError
	s.errDetail = detail
	s.lastActivity = time.Now()
}

// CollectedData returns a copy of the collected-data mapping.
func (s *Session) CollectedData() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := make(map[string]any, len(s.collected))
	for k, v := range s.collected {
		data[k] = v
	}
	return data
}

// SetCollected replaces the collected-data mapping and completion fraction.
func (s *Session) SetCollected(data map[string]any, completion int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected = data
	s.completion = completion
	s.lastActivity = time.Now()
}

// Completion returns the completion fraction.
func (s *Session) Completion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completion
}

// LastActivity returns the last-activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SetLastActivity overrides the activity timestamp. Intended for tests and
// the cleanup sweep's deterministic cutoff checks.
func (s *Session) SetLastActivity(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = t
}

// Snapshot returns a safe copy for reading.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := make(map[string]any, len(s.collected))
	for k, v := range s.collected {
		data[k] = v
	}
	return Snapshot{
		ID:            s.ID,
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
		Status:        s.status,
		CollectedData: data,
		Completion:    s.completion,
		Error:         s.errDetail,
		MessageCount:  len(s.messages),
	}
}
