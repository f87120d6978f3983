package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	metrics := NewMetricsService()
	store := NewSessionStore[string]("test", time.Minute, metrics, nil)
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	keep := store.Put("keep")
	drop := store.Put("drop")
	assert.NotEqual(t, keep, drop)
	assert.Equal(t, int64(2), metrics.Snapshot().ActiveSessions)

	now = now.Add(45 * time.Second)
	v, err := store.Get(keep)
	require.NoError(t, err)
	assert.Equal(t, "keep", v)

	now = now.Add(30 * time.Second)
	_, err = store.Get(drop)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, int64(1), metrics.Snapshot().ActiveSessions)

	assert.True(t, store.Delete(keep))
	assert.False(t, store.Delete(keep))
	assert.Zero(t, metrics.Snapshot().ActiveSessions)
}

func TestSessionStoreRunStopsWithContext(t *testing.T) {
	store := NewSessionStore[int]("test", time.Millisecond, nil, nil)
	store.Put(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
