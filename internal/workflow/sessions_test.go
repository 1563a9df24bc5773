package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
)

// blockingHandlers holds IndexUsers until release is closed
type blockingHandlers struct {
	started chan struct{}
	release chan struct{}
}

func (blockingHandlers) StoreCredentials(context.Context, credentials.CredentialSet) StageResult {
	return Succeeded("Credentials saved", &Payload{CredentialID: "cred-1"})
}

func (h blockingHandlers) IndexUsers(context.Context, string) StageResult {
	close(h.started)
	<-h.release
	return Succeeded("Indexed 0 users", &Payload{UsersIndexed: IntPtr(0)})
}

func (blockingHandlers) FetchRecords(context.Context, string) StageResult {
	return Succeeded("Fetched 0 records", &Payload{})
}

func (blockingHandlers) BulkIndexDocuments(context.Context, string, []glean.Document) StageResult {
	return Succeeded("No documents to index", &Payload{})
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSessions(h Handlers, clock *fakeClock) *Sessions {
	s := NewSessions(func(id string) *Coordinator {
		return NewCoordinator(h, WithSessionID(id))
	}, WithSessionTTL(time.Hour))
	s.now = clock.Now
	return s
}

func TestSessions_CreateGetDelete(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestSessions(blockingHandlers{}, clock)
	ctx := context.Background()

	id, coord := s.Create(ctx)
	require.NotEmpty(t, id)
	require.NotNil(t, coord)
	assert.Equal(t, id, coord.Snapshot().SessionID)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, coord, got)

	other, _ := s.Create(ctx)
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Delete(ctx, id))
	assert.False(t, s.Delete(ctx, id))
	_, ok = s.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSessions_RunsAreIndependent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	s := newTestSessions(blockingHandlers{}, clock)
	ctx := context.Background()

	_, a := s.Create(ctx)
	_, b := s.Create(ctx)

	require.True(t, a.SubmitCredentials(ctx, credentials.CredentialSet{}).OK)
	assert.Equal(t, IndexingUsers, a.Snapshot().CurrentStage)
	assert.Equal(t, CollectingCredentials, b.Snapshot().CurrentStage)
}

func TestSessions_Evict(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestSessions(blockingHandlers{}, clock)
	ctx := context.Background()

	stale, _ := s.Create(ctx)
	clock.Advance(40 * time.Minute)
	fresh, _ := s.Create(ctx)
	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, s.Evict(ctx))
	_, ok := s.Get(stale)
	assert.False(t, ok)
	_, ok = s.Get(fresh)
	assert.True(t, ok)
}

func TestSessions_GetKeepsSessionAlive(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestSessions(blockingHandlers{}, clock)
	ctx := context.Background()

	id, _ := s.Create(ctx)
	clock.Advance(50 * time.Minute)
	_, ok := s.Get(id)
	require.True(t, ok)
	clock.Advance(50 * time.Minute)

	assert.Zero(t, s.Evict(ctx))
	assert.Equal(t, 1, s.Len())
}

func TestSessions_EvictSkipsBusyRuns(t *testing.T) {
	t.Parallel()

	h := blockingHandlers{started: make(chan struct{}), release: make(chan struct{})}
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestSessions(h, clock)
	ctx := context.Background()

	id, coord := s.Create(ctx)
	require.True(t, coord.SubmitCredentials(ctx, credentials.CredentialSet{}).OK)

	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.RunIndexUsers(ctx)
	}()
	<-h.started

	clock.Advance(2 * time.Hour)
	assert.Zero(t, s.Evict(ctx))

	close(h.release)
	<-done

	assert.Equal(t, 1, s.Evict(ctx))
	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestSessions_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := NewSessions(func(id string) *Coordinator {
		return NewCoordinator(blockingHandlers{}, WithSessionID(id))
	}, WithSessionTTL(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
