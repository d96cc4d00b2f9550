// Package session provides the in-memory conversation store. Sessions hold
// the dialogue thread, collected application data, and pipeline status for
// one applicant. Nothing here is durable: a restart empties the store and
// clients begin new conversations.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lendwise/loanflow/pkg/models"
)

// ErrNotFound is returned when a session id is not in the store.
var ErrNotFound = fmt.Errorf("session not found")

// Manager is the in-memory session store. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewManager creates an empty session store.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger.With("component", "session_manager"),
	}
}

// GetOrCreate returns the session for id, creating it if absent. An empty id
// creates a session under a fresh UUID. A present-but-unknown id creates a
// session under that id, so clients may mint their own identifiers.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	} else {
		id = uuid.New().String()
	}

	now := time.Now()
	s := &Session{
		ID:           id,
		createdAt:    now,
		lastActivity: now,
		status:       models.StatusCollecting,
		collected:    make(map[string]any),
	}
	m.sessions[id] = s
	m.logger.Info("Session created", "session_id", id)
	return s
}

// Get returns the session for id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes the session for id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Info("Session deleted", "session_id", id)
	return nil
}

// List returns snapshots of every session, unordered.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Snapshot, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup evicts every session whose last activity is older than maxAge
// before now, and returns how many were removed. The cutoff is an age, not a
// calendar boundary: a session idle for longer than maxAge is evicted
// regardless of when it was created.
//
// Expired ids are snapshotted under the read lock first, then deleted under
// the write lock, so an active turn never contends with the scan. A session
// touched between the two phases is re-checked and kept.
func (m *Manager) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	removed := 0
	for _, id := range expired {
		s, ok := m.sessions[id]
		if !ok || !s.LastActivity().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Info("Expired sessions evicted", "removed", removed, "remaining", remaining)
	}
	return removed
}
