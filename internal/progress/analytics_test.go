package progress

import (
	"context"
	"testing"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneProgress(t *testing.T) {
	ctx := context.Background()
	cat := catalog.MustDefault()
	s := loadedStore(t, newMemRepo(), newTestClock())

	a := cat.TopicsByZone(catalog.ZoneA)
	b := cat.TopicsByZone(catalog.ZoneB)
	for _, tp := range a[:3] {
		_, err := s.MarkComplete(ctx, tp.ID)
		require.NoError(t, err)
	}
	_, err := s.MarkComplete(ctx, b[0].ID)
	require.NoError(t, err)
	// Topics outside the catalog do not count.
	_, err = s.MarkComplete(ctx, "not-in-catalog")
	require.NoError(t, err)

	stats := s.Snapshot().ZoneProgress(cat)
	require.Len(t, stats, 2)
	assert.Equal(t, ZoneStat{Zone: catalog.ZoneA, Completed: 3, Total: len(a), Percent: 10}, stats[0])
	assert.Equal(t, ZoneStat{Zone: catalog.ZoneB, Completed: 1, Total: len(b), Percent: 14}, stats[1])
}

func TestWeakTopics(t *testing.T) {
	ctx := context.Background()
	cat := catalog.MustDefault()
	s := loadedStore(t, newMemRepo(), newTestClock())

	scores := map[string][2]int{
		"aws-ec2": {1, 4}, // 25
		"aws-s3":  {2, 4}, // 50
		"aws-iam": {3, 4}, // 75, not weak
		"iaas":    {0, 4}, // 0
		"paas":    {6, 10},
		"saas":    {13, 20},
		"faas":    {1, 2},
	}
	for id, sc := range scores {
		_, err := s.AddQuizScore(ctx, id, QuizScore{Score: sc[0], TotalQuestions: sc[1]})
		require.NoError(t, err)
	}
	// History-free topics are never weak.
	_, _ = s.ToggleBookmark(ctx, "aws-lambda")

	weak := s.Snapshot().WeakTopics(cat, 0)
	require.Len(t, weak, DefaultWeakLimit)

	var ids []string
	for _, w := range weak {
		ids = append(ids, w.TopicID)
	}
	assert.Equal(t, []string{"iaas", "aws-ec2", "aws-s3", "faas", "paas"}, ids)
	assert.Equal(t, 1, weak[0].Attempts)
	ec2, _ := cat.Topic("aws-ec2")
	assert.Equal(t, ec2.Title, weak[1].Title)

	assert.Len(t, s.Snapshot().WeakTopics(nil, 10), 6)
}

func TestActivitySeries(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	s := loadedStore(t, newMemRepo(), clock)

	_, _ = s.RecordDailyActivity(ctx, Activity{TimeSpent: 600, QuestionsAnswered: 10, CorrectAnswers: 7})
	clock.AddDays(2)
	_, _ = s.RecordDailyActivity(ctx, Activity{TimeSpent: 90, QuestionsAnswered: 5})

	series := s.Snapshot().ActivitySeries(30)
	require.Len(t, series, 30)

	last := series[29]
	assert.Equal(t, DayKey(clock.Now()), last.Date)
	assert.Equal(t, 2, last.Minutes)
	assert.Equal(t, 5, last.QuestionsAnswered)

	assert.Equal(t, 0, series[28].QuestionsAnswered)
	assert.Equal(t, 10, series[27].Minutes)
	assert.Equal(t, 7, series[27].CorrectAnswers)

	assert.Nil(t, s.Snapshot().ActivitySeries(0))
}

func TestOverallMastery(t *testing.T) {
	ctx := context.Background()
	cat := catalog.MustDefault()
	s := loadedStore(t, newMemRepo(), newTestClock())

	assert.Equal(t, 0, s.Snapshot().OverallMastery(cat))

	topics := cat.Topics()
	for _, tp := range topics[:19] {
		_, err := s.MarkComplete(ctx, tp.ID)
		require.NoError(t, err)
	}
	// 19 of 38 topics at 100.
	assert.Equal(t, 50, s.Snapshot().OverallMastery(cat))
}

func TestBookmarked(t *testing.T) {
	ctx := context.Background()
	s := loadedStore(t, newMemRepo(), newTestClock())
	_, _ = s.ToggleBookmark(ctx, "saas")
	_, _ = s.ToggleBookmark(ctx, "iaas")
	_, _ = s.ToggleBookmark(ctx, "paas")
	_, _ = s.ToggleBookmark(ctx, "paas")

	assert.Equal(t, []string{"iaas", "saas"}, s.Snapshot().Bookmarked())
}
