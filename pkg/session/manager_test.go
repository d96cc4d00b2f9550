package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/loanflow/pkg/models"
)

func TestGetOrCreate(t *testing.T) {
	m := NewManager(nil)

	s1 := m.GetOrCreate("")
	require.NotEmpty(t, s1.ID)
	assert.Equal(t, models.StatusCollecting, s1.Status())

	// same id returns the same session
	s2 := m.GetOrCreate(s1.ID)
	assert.Same(t, s1, s2)

	// a client-minted id is honored
	s3 := m.GetOrCreate("client-chosen-id")
	assert.Equal(t, "client-chosen-id", s3.ID)
	assert.Equal(t, 2, m.Count())
}

func TestGetAndDelete(t *testing.T) {
	m := NewManager(nil)
	s := m.GetOrCreate("")

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestCleanupEvictsByIdleAge(t *testing.T) {
	m := NewManager(nil)

	stale := m.GetOrCreate("stale")
	stale.SetLastActivity(time.Now().Add(-25 * time.Hour))

	fresh := m.GetOrCreate("fresh")
	fresh.SetLastActivity(time.Now().Add(-1 * time.Hour))

	removed := m.Cleanup(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, err := m.Get("stale")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get("fresh")
	assert.NoError(t, err)
}

func TestCleanupAgeNotCalendarDay(t *testing.T) {
	m := NewManager(nil)

	// active 30 minutes ago: must survive any maxAge above 30 minutes even
	// if that activity fell before midnight
	s := m.GetOrCreate("recent")
	s.SetLastActivity(time.Now().Add(-30 * time.Minute))

	removed := m.Cleanup(1 * time.Hour)
	assert.Zero(t, removed)
	_, err := m.Get("recent")
	assert.NoError(t, err)
}

func TestCleanupConcurrentWithActiveTurns(t *testing.T) {
	m := NewManager(nil)

	for i := 0; i < 50; i++ {
		s := m.GetOrCreate("")
		s.SetLastActivity(time.Now().Add(-48 * time.Hour))
	}
	active := m.GetOrCreate("active")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			active.AddMessage(RoleUser, "still here")
			_ = m.List()
		}
	}()

	removed := m.Cleanup(24 * time.Hour)
	<-done

	assert.Equal(t, 50, removed)
	_, err := m.Get("active")
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Count())
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewManager(nil)
	s := m.GetOrCreate("")
	s.SetCollected(map[string]any{"loan_amount": 500000.0}, 25)
	s.AddMessage(RoleUser, "I want a loan")

	snap := s.Snapshot()
	snap.CollectedData["loan_amount"] = 1.0

	assert.Equal(t, 500000.0, s.CollectedData()["loan_amount"])
	assert.Equal(t, 1, snap.MessageCount)
	assert.Equal(t, 25, snap.Completion)
}

func TestSetStatusClearsErrorDetail(t *testing.T) {
	m := NewManager(nil)
	s := m.GetOrCreate("")

	s.SetError("credit assessment failed")
	assert.Equal(t, models.StatusError, s.Status())
	assert.Equal(t, "credit assessment failed", s.Snapshot().Error)

	s.SetStatus(models.StatusCollecting)
	assert.Empty(t, s.Snapshot().Error)
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager(nil)
	s := m.GetOrCreate("shared")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddMessage(RoleUser, "hello")
			_ = s.Thread()
			_ = m.List()
			m.GetOrCreate("shared")
		}()
	}
	wg.Wait()

	assert.Len(t, s.Thread(), 16)
	assert.Equal(t, 1, m.Count())
}

func TestTurnLockSerializesTurns(t *testing.T) {
	m := NewManager(nil)
	s := m.GetOrCreate("")

	s.BeginTurn()
	entered := make(chan struct{})
	go func() {
		s.BeginTurn()
		close(entered)
		s.EndTurn()
	}()

	select {
	case <-entered:
		t.Fatal("second turn entered while first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	s.EndTurn()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("second turn never entered after release")
	}
}
