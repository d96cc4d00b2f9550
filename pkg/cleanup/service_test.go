package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/loanflow/pkg/session"
)

func TestServiceSweepsOnStart(t *testing.T) {
	store := session.NewManager(nil)
	stale := store.GetOrCreate("stale")
	stale.SetLastActivity(time.Now().Add(-48 * time.Hour))
	store.GetOrCreate("fresh")

	svc := NewService(store, 24*time.Hour, time.Hour)
	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		return store.Count() == 1
	}, time.Second, 10*time.Millisecond)

	_, err := store.Get("fresh")
	assert.NoError(t, err)
}

func TestStopIsIdempotentAndWaits(t *testing.T) {
	store := session.NewManager(nil)
	svc := NewService(store, 24*time.Hour, time.Hour)

	svc.Stop() // never started

	svc.Start(context.Background())
	svc.Start(context.Background()) // second start is a no-op
	svc.Stop()
	svc.Stop()
}
