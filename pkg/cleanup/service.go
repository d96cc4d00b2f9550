// Package cleanup evicts idle sessions on a schedule.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/lendwise/loanflow/pkg/session"
)

// Service periodically sweeps the session store and removes sessions that
// have been idle longer than the configured timeout. Eviction is by idle
// age, so the sweep is idempotent and the interval only bounds how stale a
// dead session can get before removal.
type Service struct {
	store    *session.Manager
	maxAge   time.Duration
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service over store.
func NewService(store *session.Manager, maxAge, interval time.Duration) *Service {
	return &Service{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Start launches the background sweep loop. The first sweep runs immediately.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started",
		"session_max_age", s.maxAge,
		"interval", s.interval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	removed := s.store.Cleanup(s.maxAge)
	if removed > 0 {
		slog.Info("Idle sessions evicted", "count", removed)
	}
}
