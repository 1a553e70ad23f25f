// Package progress owns the learner's durable study state: per-topic
// progress, the aggregate user record and the daily activity window.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/store"
)

// Status is the load state of a Store.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome reports what happened to a mutation.
type Outcome int

const (
	// Applied means the mutation ran and its persistence was awaited.
	Applied Outcome = iota
	// Deferred means the store was still loading; the mutation is queued
	// and runs in submission order once loading finishes.
	Deferred
	// Dropped means the mutation was rejected and will never run.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Deferred:
		return "deferred"
	case Dropped:
		return "dropped"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type pendingOp struct {
	name string
	ctx  context.Context
	fn   func(context.Context) error
}

// Store is the single writer of progress state. All methods are safe for
// concurrent use; mutations are serialized and each one awaits its own
// writes before returning.
type Store struct {
	repo store.ProgressRepo
	log  *logging.Logger
	now  func() time.Time

	loadOnce sync.Once
	ready    chan struct{}

	mu      sync.Mutex
	status  Status
	loadErr error
	pending []pendingOp

	user   UserProgress
	topics map[string]*TopicProgress
	daily  []DailyActivity
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock. Day boundaries follow the location
// of the returned times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates a Store over repo. The store starts in StatusLoading; call
// Load or Start before expecting mutations to apply.
func New(repo store.ProgressRepo, opts ...Option) *Store {
	if repo == nil {
		panic("progress: New called with nil repo")
	}
	s := &Store{
		repo:   repo,
		log:    logging.Nop(),
		now:    time.Now,
		ready:  make(chan struct{}),
		topics: make(map[string]*TopicProgress),
	}
	for _, o := range opts {
		o(s)
	}
	s.user = DefaultUser(s.now())
	return s
}

// Start loads the store in the background.
func (s *Store) Start(ctx context.Context) {
	go func() { _ = s.Load(ctx) }()
}

// Load reads all persisted state, reconciles the streak and flushes queued
// mutations. Only the first call does any work; later calls return the
// first call's result.
func (s *Store) Load(ctx context.Context) error {
	s.loadOnce.Do(func() { s.load(ctx) })
	<-s.ready
	return s.LoadErr()
}

// WaitReady blocks until loading has finished or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.LoadErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) load(ctx context.Context) {
	defer close(s.ready)

	user, topics, daily, err := s.readAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	s.pending = nil

	if err != nil {
		s.status = StatusFailed
		s.loadErr = err
		s.log.Error("progress load failed", "error", err)
		for _, p := range pending {
			s.log.Warn("progress mutation dropped", "op", p.name, "error", err)
		}
		return
	}

	s.user = user
	s.topics = topics
	s.daily = daily

	s.reconcileLocked(ctx)
	s.status = StatusReady

	for _, p := range pending {
		if err := p.fn(p.ctx); err != nil {
			s.log.Warn("deferred progress mutation failed", "op", p.name, "error", err)
		}
	}
}

func (s *Store) readAll(ctx context.Context) (UserProgress, map[string]*TopicProgress, []DailyActivity, error) {
	user := DefaultUser(s.now())
	raw, err := s.repo.GetUser(ctx)
	if err != nil {
		return user, nil, nil, fmt.Errorf("load user progress: %w", err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &user); err != nil {
			return user, nil, nil, fmt.Errorf("decode user progress: %w", err)
		}
		user.ID = UserID
	}

	recs, err := s.repo.ListTopics(ctx)
	if err != nil {
		return user, nil, nil, fmt.Errorf("load topic progress: %w", err)
	}
	topics := make(map[string]*TopicProgress, len(recs))
	for _, r := range recs {
		var tp TopicProgress
		if err := json.Unmarshal(r.Data, &tp); err != nil {
			return user, nil, nil, fmt.Errorf("decode topic %q: %w", r.Key, err)
		}
		tp.TopicID = r.Key
		if tp.QuizScores == nil {
			tp.QuizScores = []QuizScore{}
		}
		topics[r.Key] = &tp
	}

	days, err := s.repo.ListDaily(ctx)
	if err != nil {
		return user, nil, nil, fmt.Errorf("load daily activity: %w", err)
	}
	daily := make([]DailyActivity, 0, len(days))
	for _, r := range days {
		var d DailyActivity
		if err := json.Unmarshal(r.Data, &d); err != nil {
			return user, nil, nil, fmt.Errorf("decode daily %q: %w", r.Key, err)
		}
		d.Date = r.Key
		daily = append(daily, d)
	}

	return user, topics, trimWindow(daily), nil
}

// trimWindow sorts by date and keeps the newest WindowDays entries.
func trimWindow(daily []DailyActivity) []DailyActivity {
	sort.SliceStable(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })
	if len(daily) > WindowDays {
		daily = append([]DailyActivity(nil), daily[len(daily)-WindowDays:]...)
	}
	return daily
}

// Status returns the current load state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ready reports whether the store has loaded successfully.
func (s *Store) Ready() bool {
	return s.Status() == StatusReady
}

// LoadErr returns why loading failed, or nil.
func (s *Store) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// submit runs fn now when ready, queues it while loading and drops it
// after a failed load.
func (s *Store) submit(ctx context.Context, name string, fn func(context.Context) error) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusReady:
		return Applied, fn(ctx)
	case StatusFailed:
		s.log.Warn("progress mutation dropped", "op", name, "error", s.loadErr)
		return Dropped, nil
	default:
		s.pending = append(s.pending, pendingOp{
			name: name,
			ctx:  context.WithoutCancel(ctx),
			fn:   fn,
		})
		return Deferred, nil
	}
}

// UpdateTopic merges u onto the topic's record, creating it if needed.
// Flipping Completed moves the aggregate completion count with it.
func (s *Store) UpdateTopic(ctx context.Context, topicID string, u TopicUpdate) (Outcome, error) {
	if topicID == "" {
		return Dropped, ErrInvalidTopic
	}
	return s.submit(ctx, "update_topic", func(ctx context.Context) error {
		was := s.completedLocked(topicID)
		s.updateTopicLocked(ctx, topicID, u.apply)
		s.syncCompletedLocked(ctx, "update_topic", was, s.completedLocked(topicID))
		return nil
	})
}

// MarkComplete marks a topic completed with mastery 100. The aggregate
// completion count only moves when the topic was not already complete.
func (s *Store) MarkComplete(ctx context.Context, topicID string) (Outcome, error) {
	if topicID == "" {
		return Dropped, ErrInvalidTopic
	}
	return s.submit(ctx, "mark_complete", func(ctx context.Context) error {
		was := s.completedLocked(topicID)
		s.updateTopicLocked(ctx, topicID, func(tp *TopicProgress) {
			tp.Completed = true
			tp.MasteryLevel = 100
		})
		s.syncCompletedLocked(ctx, "mark_complete", was, true)
		return nil
	})
}

// AddQuizScore appends a quiz result to the topic, rederives its mastery and
// folds the result into the aggregate average.
func (s *Store) AddQuizScore(ctx context.Context, topicID string, score QuizScore) (Outcome, error) {
	if topicID == "" {
		return Dropped, ErrInvalidTopic
	}
	if err := score.validate(); err != nil {
		return Dropped, err
	}
	return s.submit(ctx, "add_quiz_score", func(ctx context.Context) error {
		s.updateTopicLocked(ctx, topicID, func(tp *TopicProgress) {
			tp.QuizScores = append(tp.QuizScores, score)
			tp.MasteryLevel = masteryFromScores(tp.QuizScores)
		})

		s.user.AverageQuizScore = runningAverage(s.user.AverageQuizScore, s.user.QuizzesTaken, score.Percent())
		s.user.QuizzesTaken++
		s.persistUserLocked(ctx, "add_quiz_score")
		return nil
	})
}

// RecordTimeSpent adds seconds to the topic and to the aggregate total.
func (s *Store) RecordTimeSpent(ctx context.Context, topicID string, seconds int) (Outcome, error) {
	if topicID == "" {
		return Dropped, ErrInvalidTopic
	}
	if seconds < 0 {
		return Dropped, ErrNegativeDuration
	}
	return s.submit(ctx, "record_time", func(ctx context.Context) error {
		s.updateTopicLocked(ctx, topicID, func(tp *TopicProgress) {
			tp.TimeSpent += seconds
		})
		s.user.TotalTimeSpent += seconds
		s.persistUserLocked(ctx, "record_time")
		return nil
	})
}

// ToggleBookmark flips the topic's bookmark flag.
func (s *Store) ToggleBookmark(ctx context.Context, topicID string) (Outcome, error) {
	if topicID == "" {
		return Dropped, ErrInvalidTopic
	}
	return s.submit(ctx, "toggle_bookmark", func(ctx context.Context) error {
		s.updateTopicLocked(ctx, topicID, func(tp *TopicProgress) {
			tp.Bookmarked = !tp.Bookmarked
		})
		return nil
	})
}

// SetNotes replaces the topic's free-text notes.
func (s *Store) SetNotes(ctx context.Context, topicID, notes string) (Outcome, error) {
	return s.UpdateTopic(ctx, topicID, TopicUpdate{Notes: &notes})
}

// RecordDailyActivity adds a to today's activity record.
func (s *Store) RecordDailyActivity(ctx context.Context, a Activity) (Outcome, error) {
	if err := a.validate(); err != nil {
		return Dropped, err
	}
	return s.submit(ctx, "record_daily", func(ctx context.Context) error {
		s.recordDailyLocked(ctx, a)
		return nil
	})
}

// Reconcile reruns streak reconciliation against the current clock. It
// reports whether the aggregate changed; a second call on the same day never
// does. It is a no-op unless the store is ready.
func (s *Store) Reconcile(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusReady {
		return false
	}
	return s.reconcileLocked(ctx)
}

// Reset deletes all persisted progress and restores defaults in memory.
// The in-memory reset happens even when the delete fails.
func (s *Store) Reset(ctx context.Context) (Outcome, error) {
	return s.submit(ctx, "reset", func(ctx context.Context) error {
		err := s.repo.Clear(ctx)
		if err != nil {
			s.log.Warn("progress reset failed", "op", "reset", "error", err)
		}
		s.user = DefaultUser(s.now())
		s.topics = make(map[string]*TopicProgress)
		s.daily = nil
		if err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		return nil
	})
}

func (s *Store) reconcileLocked(ctx context.Context) bool {
	u, changed := ReconcileStreak(s.user, s.now())
	if !changed {
		return false
	}
	s.user = u
	s.persistUserLocked(ctx, "reconcile_streak")
	return true
}

// updateTopicLocked applies mutate to a copy of the topic record (or a fresh
// default), stamps lastAccessed, persists and installs the copy.
func (s *Store) updateTopicLocked(ctx context.Context, topicID string, mutate func(*TopicProgress)) {
	var tp TopicProgress
	if existing, ok := s.topics[topicID]; ok {
		tp = existing.clone()
	} else {
		tp = TopicProgress{TopicID: topicID, QuizScores: []QuizScore{}}
	}

	mutate(&tp)
	tp.LastAccessed = s.now()

	if data, err := json.Marshal(tp); err != nil {
		s.log.Warn("progress encode failed", "op", "put_topic", "topic_id", topicID, "error", err)
	} else if err := s.repo.PutTopic(ctx, topicID, data); err != nil {
		s.log.Warn("progress persist failed", "op", "put_topic", "topic_id", topicID, "error", err)
	}

	s.topics[topicID] = &tp
}

func (s *Store) completedLocked(topicID string) bool {
	tp, ok := s.topics[topicID]
	return ok && tp.Completed
}

// syncCompletedLocked keeps TopicsCompleted equal to the number of completed
// topics and persists the aggregate when a topic changed state.
func (s *Store) syncCompletedLocked(ctx context.Context, op string, was, now bool) {
	switch {
	case !was && now:
		s.user.TopicsCompleted++
	case was && !now:
		s.user.TopicsCompleted = max(s.user.TopicsCompleted-1, 0)
	default:
		return
	}
	s.persistUserLocked(ctx, op)
}

func (s *Store) persistUserLocked(ctx context.Context, op string) {
	s.user.ID = UserID
	data, err := json.Marshal(s.user)
	if err != nil {
		s.log.Warn("progress encode failed", "op", op, "error", err)
		return
	}
	if err := s.repo.PutUser(ctx, data); err != nil {
		s.log.Warn("progress persist failed", "op", op, "error", err)
	}
}

func (s *Store) recordDailyLocked(ctx context.Context, a Activity) {
	today := DayKey(s.now())

	idx := -1
	for i := range s.daily {
		if s.daily[i].Date == today {
			idx = i
			break
		}
	}

	var day DailyActivity
	if idx >= 0 {
		day = s.daily[idx]
	} else {
		day = DailyActivity{Date: today}
		// Today can be missing from the window while still on disk when
		// the window holds later dates.
		if raw, err := s.repo.GetDaily(ctx, today); err != nil {
			s.log.Warn("progress read failed", "op", "get_daily", "date", today, "error", err)
		} else if raw != nil {
			if err := json.Unmarshal(raw, &day); err != nil {
				s.log.Warn("progress decode failed", "op", "get_daily", "date", today, "error", err)
			}
			day.Date = today
		}
	}

	day = day.add(a)

	if data, err := json.Marshal(day); err != nil {
		s.log.Warn("progress encode failed", "op", "put_daily", "date", today, "error", err)
	} else if err := s.repo.PutDaily(ctx, today, data); err != nil {
		s.log.Warn("progress persist failed", "op", "put_daily", "date", today, "error", err)
	}

	window := make([]DailyActivity, 0, len(s.daily)+1)
	for _, d := range s.daily {
		if d.Date != today {
			window = append(window, d)
		}
	}
	s.daily = trimWindow(append(window, day))
}

// User returns a copy of the aggregate record.
func (s *Store) User() UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Topic returns a copy of one topic record.
func (s *Store) Topic(topicID string) (TopicProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tp, ok := s.topics[topicID]
	if !ok {
		return TopicProgress{}, false
	}
	return tp.clone(), true
}

// Topics returns a copy of every topic record keyed by topic ID.
func (s *Store) Topics() map[string]TopicProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topicsLocked()
}

func (s *Store) topicsLocked() map[string]TopicProgress {
	out := make(map[string]TopicProgress, len(s.topics))
	for id, tp := range s.topics {
		out[id] = tp.clone()
	}
	return out
}

// Daily returns the in-memory activity window, oldest first.
func (s *Store) Daily() []DailyActivity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DailyActivity(nil), s.daily...)
}

// Snapshot is a consistent copy of all progress state.
type Snapshot struct {
	User   UserProgress
	Topics map[string]TopicProgress
	Daily  []DailyActivity
	Taken  time.Time
}

// Snapshot copies all state under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		User:   s.user,
		Topics: s.topicsLocked(),
		Daily:  append([]DailyActivity(nil), s.daily...),
		Taken:  s.now(),
	}
}
