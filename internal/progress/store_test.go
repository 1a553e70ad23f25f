package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/cloudverse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRepoPanics(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestLoad_FreshInstallDefaults(t *testing.T) {
	repo := newMemRepo()
	clock := newTestClock()
	s := loadedStore(t, repo, clock)

	u := s.User()
	assert.Equal(t, DefaultUser(clock.Now()), u)
	assert.Zero(t, u.CurrentStreak)
	assert.Empty(t, s.Topics())
	assert.Empty(t, s.Daily())
	// Defaults put lastActiveDate at today, so nothing is written on load.
	assert.Zero(t, repo.writes())
}

func TestLoad_ReconcilesPersistedStreak(t *testing.T) {
	repo := newMemRepo()
	clock := newTestClock()
	repo.user = mustJSON(t, UserProgress{
		ID: UserID, CurrentStreak: 5, LongestStreak: 5,
		LastActiveDate: clock.Now().AddDate(0, 0, -1),
	})

	s := loadedStore(t, repo, clock)
	u := s.User()
	assert.Equal(t, 6, u.CurrentStreak)
	assert.Equal(t, 6, u.LongestStreak)
	assert.Equal(t, 1, repo.userWrites)

	// Same-day reconcile changes nothing and writes nothing.
	clock.t = clock.t.Add(3 * time.Hour)
	assert.False(t, s.Reconcile(context.Background()))
	assert.Equal(t, 6, s.User().CurrentStreak)
	assert.Equal(t, 1, repo.userWrites)
}

func TestLoad_StreakResetAfterGap(t *testing.T) {
	repo := newMemRepo()
	clock := newTestClock()
	repo.user = mustJSON(t, UserProgress{
		ID: UserID, CurrentStreak: 10, LongestStreak: 10,
		LastActiveDate: clock.Now().AddDate(0, 0, -3),
	})

	s := loadedStore(t, repo, clock)
	assert.Equal(t, 1, s.User().CurrentStreak)
	assert.Equal(t, 10, s.User().LongestStreak)
}

func TestReconcile_NextDay(t *testing.T) {
	clock := newTestClock()
	s := loadedStore(t, newMemRepo(), clock)

	clock.AddDays(1)
	assert.True(t, s.Reconcile(context.Background()))
	assert.Equal(t, 1, s.User().CurrentStreak)
	assert.False(t, s.Reconcile(context.Background()))
}

func TestAddQuizScore_MasteryAndAverage(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())

	out, err := s.AddQuizScore(ctx, "aws-s3", QuizScore{Score: 7, TotalQuestions: 10, Difficulty: "easy"})
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	_, err = s.AddQuizScore(ctx, "aws-s3", QuizScore{Score: 9, TotalQuestions: 10, Difficulty: "easy"})
	require.NoError(t, err)

	tp, ok := s.Topic("aws-s3")
	require.True(t, ok)
	assert.Equal(t, 80, tp.MasteryLevel)
	assert.Len(t, tp.QuizScores, 2)
	assert.Equal(t, 7, tp.QuizScores[0].Score, "scores keep insertion order")

	u := s.User()
	assert.Equal(t, 2, u.QuizzesTaken)
	assert.InDelta(t, 80.0, u.AverageQuizScore, 1e-9)
}

func TestAddQuizScore_RunningAverageAcrossTopics(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())

	steps := []struct {
		topic string
		score QuizScore
		want  float64
	}{
		{"iaas", QuizScore{Score: 4, TotalQuestions: 4}, 100},
		{"paas", QuizScore{Score: 1, TotalQuestions: 2}, 75},
		{"saas", QuizScore{Score: 3, TotalQuestions: 4}, 75},
	}
	for _, st := range steps {
		_, err := s.AddQuizScore(ctx, st.topic, st.score)
		require.NoError(t, err)
		assert.InDelta(t, st.want, s.User().AverageQuizScore, 1e-9)
	}
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := loadedStore(t, repo, newTestClock())

	tests := []struct {
		name string
		call func() (Outcome, error)
		want error
	}{
		{"empty topic update", func() (Outcome, error) { return s.UpdateTopic(ctx, "", TopicUpdate{}) }, ErrInvalidTopic},
		{"empty topic complete", func() (Outcome, error) { return s.MarkComplete(ctx, "") }, ErrInvalidTopic},
		{"zero total", func() (Outcome, error) { return s.AddQuizScore(ctx, "x", QuizScore{Score: 0, TotalQuestions: 0}) }, ErrInvalidScore},
		{"score above total", func() (Outcome, error) { return s.AddQuizScore(ctx, "x", QuizScore{Score: 6, TotalQuestions: 5}) }, ErrInvalidScore},
		{"negative score", func() (Outcome, error) { return s.AddQuizScore(ctx, "x", QuizScore{Score: -1, TotalQuestions: 5}) }, ErrInvalidScore},
		{"negative seconds", func() (Outcome, error) { return s.RecordTimeSpent(ctx, "x", -5) }, ErrNegativeDuration},
		{"negative activity", func() (Outcome, error) { return s.RecordDailyActivity(ctx, Activity{QuestionsAnswered: -1}) }, ErrInvalidActivity},
		{"empty bookmark", func() (Outcome, error) { return s.ToggleBookmark(ctx, "") }, ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.call()
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, Dropped, out)
		})
	}
	assert.Zero(t, repo.writes())
	assert.Empty(t, s.Topics())
}

func TestMarkComplete_CountsOnce(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())

	_, err := s.AddQuizScore(ctx, "iaas", QuizScore{Score: 1, TotalQuestions: 4})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := s.MarkComplete(ctx, "iaas")
		require.NoError(t, err)
		assert.Equal(t, Applied, out)
	}

	tp, _ := s.Topic("iaas")
	assert.True(t, tp.Completed)
	assert.Equal(t, 100, tp.MasteryLevel)
	assert.Equal(t, 1, s.User().TopicsCompleted)

	// Un-completing gives the count back; completing again takes it once.
	f := false
	_, err = s.UpdateTopic(ctx, "iaas", TopicUpdate{Completed: &f})
	require.NoError(t, err)
	assert.Zero(t, s.User().TopicsCompleted)
	_, err = s.MarkComplete(ctx, "iaas")
	require.NoError(t, err)
	assert.Equal(t, 1, s.User().TopicsCompleted)
}

func TestTopicsCompleted_FollowsUpdates(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	clock := newTestClock()
	s := loadedStore(t, repo, clock)
	yes, no := true, false

	steps := []struct {
		name string
		call func() (Outcome, error)
	}{
		{"complete via update", func() (Outcome, error) { return s.UpdateTopic(ctx, "aws-s3", TopicUpdate{Completed: &yes}) }},
		{"mark already complete", func() (Outcome, error) { return s.MarkComplete(ctx, "aws-s3") }},
		{"repeat completed update", func() (Outcome, error) { return s.UpdateTopic(ctx, "aws-s3", TopicUpdate{Completed: &yes}) }},
		{"mark another", func() (Outcome, error) { return s.MarkComplete(ctx, "aws-iam") }},
		{"uncomplete untouched topic", func() (Outcome, error) { return s.UpdateTopic(ctx, "aws-vpc", TopicUpdate{Completed: &no}) }},
		{"uncomplete iam", func() (Outcome, error) { return s.UpdateTopic(ctx, "aws-iam", TopicUpdate{Completed: &no}) }},
		{"uncomplete iam again", func() (Outcome, error) { return s.UpdateTopic(ctx, "aws-iam", TopicUpdate{Completed: &no}) }},
		{"notes leave state alone", func() (Outcome, error) { return s.SetNotes(ctx, "aws-s3", "versioning") }},
	}

	completed := func(s *Store) int {
		n := 0
		for _, tp := range s.Topics() {
			if tp.Completed {
				n++
			}
		}
		return n
	}

	for _, st := range steps {
		out, err := st.call()
		require.NoError(t, err, st.name)
		assert.Equal(t, Applied, out, st.name)
		assert.Equal(t, completed(s), s.User().TopicsCompleted, st.name)
	}
	assert.Equal(t, 1, s.User().TopicsCompleted)

	// The aggregate is persisted, so a reload agrees.
	reloaded := loadedStore(t, repo, clock)
	assert.Equal(t, 1, reloaded.User().TopicsCompleted)
	assert.Equal(t, completed(reloaded), reloaded.User().TopicsCompleted)
}

func TestUpdateTopic_KeepsStudyTime(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())

	_, err := s.RecordTimeSpent(ctx, "aws-s3", 300)
	require.NoError(t, err)

	mastery, yes := 40, true
	_, err = s.UpdateTopic(ctx, "aws-s3", TopicUpdate{MasteryLevel: &mastery, Bookmarked: &yes})
	require.NoError(t, err)
	_, err = s.SetNotes(ctx, "aws-s3", "lifecycle rules")
	require.NoError(t, err)

	tp, ok := s.Topic("aws-s3")
	require.True(t, ok)
	assert.Equal(t, 300, tp.TimeSpent)
	assert.Equal(t, 300, s.User().TotalTimeSpent)
	assert.Equal(t, 40, tp.MasteryLevel)
	assert.True(t, tp.Bookmarked)
}

func TestUpdateTopic_MergesAndStampsAccess(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	s := loadedStore(t, newMemRepo(), clock)

	_, err := s.SetNotes(ctx, "vpc", "subnets are per AZ")
	require.NoError(t, err)
	clock.t = clock.t.Add(time.Minute)
	_, err = s.ToggleBookmark(ctx, "vpc")
	require.NoError(t, err)

	tp, ok := s.Topic("vpc")
	require.True(t, ok)
	assert.Equal(t, "subnets are per AZ", tp.Notes)
	assert.True(t, tp.Bookmarked)
	assert.False(t, tp.Completed)
	assert.Equal(t, clock.Now(), tp.LastAccessed)

	_, err = s.ToggleBookmark(ctx, "vpc")
	require.NoError(t, err)
	tp, _ = s.Topic("vpc")
	assert.False(t, tp.Bookmarked)
}

func TestRecordTimeSpent(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())

	for _, sec := range []int{30, 45, 0} {
		_, err := s.RecordTimeSpent(ctx, "aws-ec2", sec)
		require.NoError(t, err)
	}
	_, err := s.RecordTimeSpent(ctx, "aws-s3", 10)
	require.NoError(t, err)

	tp, _ := s.Topic("aws-ec2")
	assert.Equal(t, 75, tp.TimeSpent)
	assert.Equal(t, 85, s.User().TotalTimeSpent)
}

func TestRecordDailyActivity_Additive(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repo := newMemRepo()
	s := loadedStore(t, repo, clock)

	for i := 0; i < 2; i++ {
		_, err := s.RecordDailyActivity(ctx, Activity{QuestionsAnswered: 5})
		require.NoError(t, err)
	}
	_, err := s.RecordDailyActivity(ctx, Activity{TimeSpent: 120, CorrectAnswers: 3, QuizzesTaken: 1})
	require.NoError(t, err)

	daily := s.Daily()
	require.Len(t, daily, 1)
	d := daily[0]
	assert.Equal(t, DayKey(clock.Now()), d.Date)
	assert.Equal(t, 10, d.QuestionsAnswered)
	assert.Equal(t, 3, d.CorrectAnswers)
	assert.Equal(t, 120, d.TimeSpent)
	assert.Equal(t, 1, d.QuizzesTaken)

	var stored DailyActivity
	require.NoError(t, json.Unmarshal(repo.daily[d.Date], &stored))
	assert.Equal(t, d, stored)
}

func TestRecordDailyActivity_WindowTrim(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repo := newMemRepo()
	s := loadedStore(t, repo, clock)

	first := clock.Now()
	for i := 0; i < 95; i++ {
		_, err := s.RecordDailyActivity(ctx, Activity{TopicsViewed: 1})
		require.NoError(t, err)
		clock.AddDays(1)
	}

	daily := s.Daily()
	require.Len(t, daily, WindowDays)
	assert.Equal(t, DayKey(first.AddDate(0, 0, 5)), daily[0].Date)
	assert.Equal(t, DayKey(first.AddDate(0, 0, 94)), daily[WindowDays-1].Date)
	for i := 1; i < len(daily); i++ {
		assert.Less(t, daily[i-1].Date, daily[i].Date)
	}

	// The durable table is never trimmed.
	assert.Len(t, repo.daily, 95)

	// A fresh load applies the same window.
	reloaded := loadedStore(t, repo, clock)
	assert.Equal(t, daily, reloaded.Daily())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repo := newMemRepo()
	s := loadedStore(t, repo, clock)

	topics := []string{"iaas", "paas", "saas"}
	for _, id := range topics {
		_, _ = s.AddQuizScore(ctx, id, QuizScore{Score: 1, TotalQuestions: 2})
		_, _ = s.MarkComplete(ctx, id)
		_, _ = s.RecordTimeSpent(ctx, id, 60)
	}
	_, _ = s.RecordDailyActivity(ctx, Activity{QuizzesTaken: 1})

	out, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)

	for _, id := range topics {
		_, ok := s.Topic(id)
		assert.False(t, ok, "topic %s survived reset", id)
	}
	assert.Equal(t, DefaultUser(clock.Now()), s.User())
	assert.Empty(t, s.Daily())
	assert.Nil(t, repo.user)
	assert.Empty(t, repo.topics)
	assert.Empty(t, repo.daily)
}

func TestReset_ClearFailureStillResetsMemory(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := loadedStore(t, repo, newTestClock())
	_, _ = s.ToggleBookmark(ctx, "iaas")

	repo.clearErr = errBoom
	out, err := s.Reset(ctx)
	assert.Equal(t, Applied, out)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, s.Topics())
}

func TestPersistenceErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s := loadedStore(t, repo, newTestClock())
	repo.writeErr = errBoom

	out, err := s.AddQuizScore(ctx, "aws-iam", QuizScore{Score: 2, TotalQuestions: 2})
	require.NoError(t, err)
	assert.Equal(t, Applied, out)

	tp, ok := s.Topic("aws-iam")
	require.True(t, ok)
	assert.Equal(t, 100, tp.MasteryLevel)
	assert.Equal(t, 1, s.User().QuizzesTaken)
	assert.Empty(t, repo.topics)
}

func TestDeferredMutationsFlushInOrder(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repo := newMemRepo()
	s := New(repo, WithClock(clock.Now))

	assert.Equal(t, StatusLoading, s.Status())
	assert.False(t, s.Ready())

	outcomes := []func() (Outcome, error){
		func() (Outcome, error) { return s.ToggleBookmark(ctx, "aws-s3") },
		func() (Outcome, error) { return s.ToggleBookmark(ctx, "aws-s3") },
		func() (Outcome, error) { return s.ToggleBookmark(ctx, "aws-s3") },
		func() (Outcome, error) { return s.RecordTimeSpent(ctx, "aws-s3", 30) },
		func() (Outcome, error) { return s.RecordDailyActivity(ctx, Activity{TopicsViewed: 1}) },
	}
	for i, call := range outcomes {
		out, err := call()
		require.NoError(t, err)
		assert.Equal(t, Deferred, out, "call %d", i)
	}
	assert.Empty(t, s.Topics(), "deferred mutations must not apply before load")
	assert.Zero(t, repo.writes())

	require.NoError(t, s.Load(ctx))

	tp, ok := s.Topic("aws-s3")
	require.True(t, ok)
	assert.True(t, tp.Bookmarked, "three toggles in order leave the bookmark on")
	assert.Equal(t, 30, tp.TimeSpent)
	assert.Equal(t, 30, s.User().TotalTimeSpent)
	require.Len(t, s.Daily(), 1)
	assert.Equal(t, 1, s.Daily()[0].TopicsViewed)

	out, err := s.ToggleBookmark(ctx, "aws-s3")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
}

func TestDeferredMutationSurvivesCallerCancel(t *testing.T) {
	repo := newMemRepo()
	s := New(repo, WithClock(newTestClock().Now))

	ctx, cancel := context.WithCancel(context.Background())
	out, err := s.RecordTimeSpent(ctx, "iaas", 5)
	require.NoError(t, err)
	require.Equal(t, Deferred, out)
	cancel()

	require.NoError(t, s.Load(context.Background()))
	tp, ok := s.Topic("iaas")
	require.True(t, ok)
	assert.Equal(t, 5, tp.TimeSpent)
}

func TestLoadFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	repo.loadErr = errBoom
	s := New(repo, WithClock(newTestClock().Now))

	deferred, err := s.ToggleBookmark(ctx, "iaas")
	require.NoError(t, err)
	assert.Equal(t, Deferred, deferred)

	err = s.Load(ctx)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StatusFailed, s.Status())
	assert.ErrorIs(t, s.LoadErr(), errBoom)

	out, err := s.ToggleBookmark(ctx, "iaas")
	require.NoError(t, err)
	assert.Equal(t, Dropped, out)
	assert.Empty(t, s.Topics())
	assert.Zero(t, repo.writes())
	assert.False(t, s.Reconcile(ctx))
}

func TestStartAndWaitReady(t *testing.T) {
	s := New(newMemRepo(), WithClock(newTestClock().Now))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Start(ctx)
	require.NoError(t, s.WaitReady(ctx))
	assert.True(t, s.Ready())

	// Load after Start returns the same result without reloading.
	require.NoError(t, s.Load(ctx))
}

func TestWaitReady_ContextDone(t *testing.T) {
	s := New(newMemRepo())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.WaitReady(ctx), context.Canceled)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())
	_, _ = s.AddQuizScore(ctx, "iaas", QuizScore{Score: 1, TotalQuestions: 1})

	snap := s.Snapshot()
	tp := snap.Topics["iaas"]
	tp.QuizScores[0].Score = 0
	snap.Topics["iaas"] = tp

	fresh, _ := s.Topic("iaas")
	assert.Equal(t, 1, fresh.QuizScores[0].Score)
}

var sqliteCounter atomic.Int64

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(fmt.Sprintf("file:progresstest%d?mode=memory&cache=shared", sqliteCounter.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := newTestClock()
	s := loadedStore(t, st.ProgressRepo(), clock)

	_, err = s.AddQuizScore(ctx, "aws-lambda", QuizScore{Date: clock.Now(), Score: 3, TotalQuestions: 4, Difficulty: "medium", TimeSpent: 40})
	require.NoError(t, err)
	_, err = s.MarkComplete(ctx, "aws-rds")
	require.NoError(t, err)
	_, err = s.SetNotes(ctx, "aws-rds", "multi-AZ is for HA, read replicas for scale")
	require.NoError(t, err)
	_, err = s.RecordDailyActivity(ctx, Activity{QuizzesTaken: 1, QuestionsAnswered: 4, CorrectAnswers: 3})
	require.NoError(t, err)

	clock.AddDays(1)
	reloaded := loadedStore(t, st.ProgressRepo(), clock)

	lambda, ok := reloaded.Topic("aws-lambda")
	require.True(t, ok)
	assert.Equal(t, 75, lambda.MasteryLevel)
	require.Len(t, lambda.QuizScores, 1)
	assert.Equal(t, "medium", lambda.QuizScores[0].Difficulty)
	assert.True(t, lambda.QuizScores[0].Date.Equal(clock.Now().AddDate(0, 0, -1)))

	rds, ok := reloaded.Topic("aws-rds")
	require.True(t, ok)
	assert.True(t, rds.Completed)
	assert.Equal(t, "multi-AZ is for HA, read replicas for scale", rds.Notes)

	u := reloaded.User()
	assert.Equal(t, 1, u.TopicsCompleted)
	assert.Equal(t, 1, u.QuizzesTaken)
	assert.InDelta(t, 75.0, u.AverageQuizScore, 1e-9)
	// The first load left the default streak at 0; yesterday's activity
	// extends it on the next day.
	assert.Equal(t, 1, u.CurrentStreak)

	require.Len(t, reloaded.Daily(), 1)
	assert.Equal(t, 3, reloaded.Daily()[0].CorrectAnswers)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
