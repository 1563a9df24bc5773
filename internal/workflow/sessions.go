package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gleansync/ns-glean-sync/internal/telemetry"
)

// DefaultSessionTTL is how long an idle session is kept
const DefaultSessionTTL = time.Hour

// CoordinatorFactory creates the Coordinator for a new session
type CoordinatorFactory func(sessionID string) *Coordinator

type sessionEntry struct {
	coordinator *Coordinator
	lastSeen    time.Time
}

// Sessions keeps one WorkflowRun per session. Runs live in memory only and
// are dropped once idle for longer than the TTL.
type Sessions struct {
	factory CoordinatorFactory
	ttl     time.Duration
	metrics *telemetry.SessionMetrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// SessionOption configures Sessions
type SessionOption func(*Sessions)

// WithSessionTTL sets the idle timeout
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSessionMetrics sets the session metrics
func WithSessionMetrics(m *telemetry.SessionMetrics) SessionOption {
	return func(s *Sessions) {
		s.metrics = m
	}
}

// NewSessions creates an empty session registry
func NewSessions(factory CoordinatorFactory, opts ...SessionOption) *Sessions {
	s := &Sessions{
		factory:  factory,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session and returns its id
func (s *Sessions) Create(ctx context.Context) (string, *Coordinator) {
	id := uuid.NewString()
	coord := s.factory(id)

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{coordinator: coord, lastSeen: s.now()}
	s.mu.Unlock()

	s.metrics.SessionStarted(ctx)
	slog.DebugContext(ctx, "Session created", "session_id", id)
	return id, coord
}

// Get returns the session's Coordinator and marks the session as active
func (s *Sessions) Get(id string) (*Coordinator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.now()
	return entry.coordinator, true
}

// Delete discards a session. A stage already running finishes on its own.
func (s *Sessions) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.metrics.SessionEnded(ctx)
		slog.DebugContext(ctx, "Session discarded", "session_id", id)
	}
	return ok
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops sessions idle for longer than the TTL. Sessions with a stage
// in flight are kept.
func (s *Sessions) Evict(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var evicted []string
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) && !entry.coordinator.Busy() {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()

	for range evicted {
		s.metrics.SessionEnded(ctx)
	}
	if len(evicted) > 0 {
		slog.InfoContext(ctx, "Evicted idle sessions", "count", len(evicted))
	}
	return len(evicted)
}

// Run evicts idle sessions periodically until ctx is cancelled
func (s *Sessions) Run(ctx context.Context) {
	interval := max(s.ttl/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Evict(ctx)
		case <-ctx.Done():
			return
		}
	}
}
