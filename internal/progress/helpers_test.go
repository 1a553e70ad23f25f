package progress

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/cloudverse/internal/store"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory store.ProgressRepo that counts writes and can be
// told to fail.
type memRepo struct {
	mu     sync.Mutex
	user   json.RawMessage
	topics map[string]json.RawMessage
	daily  map[string]json.RawMessage

	userWrites  int
	topicWrites int
	dailyWrites int

	loadErr  error
	writeErr error
	clearErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		topics: make(map[string]json.RawMessage),
		daily:  make(map[string]json.RawMessage),
	}
}

func (r *memRepo) GetUser(_ context.Context) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.user, nil
}

func (r *memRepo) PutUser(_ context.Context, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userWrites++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.user = data
	return nil
}

func (r *memRepo) ListTopics(_ context.Context) ([]store.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedRecords(r.topics), nil
}

func (r *memRepo) PutTopic(_ context.Context, id string, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topicWrites++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.topics[id] = data
	return nil
}

func (r *memRepo) GetDaily(_ context.Context, date string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.daily[date], nil
}

func (r *memRepo) PutDaily(_ context.Context, date string, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dailyWrites++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.daily[date] = data
	return nil
}

func (r *memRepo) ListDaily(_ context.Context) ([]store.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedRecords(r.daily), nil
}

func (r *memRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clearErr != nil {
		return r.clearErr
	}
	r.user = nil
	r.topics = make(map[string]json.RawMessage)
	r.daily = make(map[string]json.RawMessage)
	return nil
}

func (r *memRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userWrites + r.topicWrites + r.dailyWrites
}

func sortedRecords(m map[string]json.RawMessage) []store.Record {
	out := make([]store.Record, 0, len(m))
	for k, v := range m {
		out = append(out, store.Record{Key: k, Data: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var errBoom = errors.New("boom")

// testClock is a settable clock. Times sit at local noon so AddDate never
// crosses a day boundary on DST changes.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) AddDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}

func loadedStore(t *testing.T, repo store.ProgressRepo, clock *testClock) *Store {
	t.Helper()
	s := New(repo, WithClock(clock.Now))
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, StatusReady, s.Status())
	return s
}
