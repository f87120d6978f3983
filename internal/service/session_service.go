package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

// ErrSessionNotFound is returned for unknown or expired view sessions.
var ErrSessionNotFound = appErrors.Clone(appErrors.ErrNotFound, "view session not found or expired")

type sessionEntry[T any] struct {
	value   T
	touched time.Time
}

// SessionStore keeps per-screen state in memory. Entries idle for longer than the TTL are
// dropped by Sweep. Values are handed out as is, so T should carry its own locking.
type SessionStore[T any] struct {
	kind    string
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*sessionEntry[T]
}

// NewSessionStore constructs a session store for one kind of view.
func NewSessionStore[T any](kind string, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *SessionStore[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore[T]{
		kind:    kind,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		items:   make(map[string]*sessionEntry[T]),
	}
}

// Put stores value under a fresh id.
func (s *SessionStore[T]) Put(value T) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.items[id] = &sessionEntry[T]{value: value, touched: s.now()}
	s.mu.Unlock()
	s.metrics.SessionOpened(s.kind)
	s.logger.Debug("view session opened", zap.String("kind", s.kind), zap.String("session", id))
	return id
}

// Get returns the session and refreshes its idle timer.
func (s *SessionStore[T]) Get(id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok || s.expired(entry) {
		var zero T
		return zero, ErrSessionNotFound
	}
	entry.touched = s.now()
	return entry.value, nil
}

// Delete drops a session. It reports whether the session existed.
func (s *SessionStore[T]) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if ok {
		s.metrics.SessionClosed(s.kind)
	}
	return ok
}

// Len counts live sessions, expired ones included until the next sweep.
func (s *SessionStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *SessionStore[T]) Sweep() int {
	s.mu.Lock()
	removed := 0
	for id, entry := range s.items {
		if s.expired(entry) {
			delete(s.items, id)
			removed++
		}
	}
	s.mu.Unlock()
	for i := 0; i < removed; i++ {
		s.metrics.SessionClosed(s.kind)
	}
	if removed > 0 {
		s.logger.Debug("expired view sessions swept", zap.String("kind", s.kind), zap.Int("removed", removed))
	}
	return removed
}

// Run sweeps on every interval until ctx is done.
func (s *SessionStore[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *SessionStore[T]) expired(entry *sessionEntry[T]) bool {
	return s.now().Sub(entry.touched) > s.ttl
}
