package progress

import (
	"math"
	"sort"

	"github.com/abhisek/cloudverse/internal/catalog"
)

// WeakThreshold is the average quiz percentage below which a topic is weak.
const WeakThreshold = 70.0

// DefaultWeakLimit caps WeakTopics when no limit is given.
const DefaultWeakLimit = 5

// ZoneStat is completion progress for one catalog zone.
type ZoneStat struct {
	Zone      catalog.Zone
	Completed int
	Total     int
	Percent   int
}

// WeakTopic is a topic whose quiz average is below WeakThreshold.
type WeakTopic struct {
	TopicID  string
	Title    string
	AvgScore float64
	Attempts int
}

// DaySample is one point of the activity series.
type DaySample struct {
	Date              string
	Minutes           int
	QuestionsAnswered int
	CorrectAnswers    int
}

// ZoneProgress counts completed catalog topics per zone, zone A first.
func (s Snapshot) ZoneProgress(cat *catalog.Catalog) []ZoneStat {
	stats := []ZoneStat{{Zone: catalog.ZoneA}, {Zone: catalog.ZoneB}}
	for _, t := range cat.Topics() {
		i := 0
		if t.Zone == catalog.ZoneB {
			i = 1
		}
		stats[i].Total++
		if tp, ok := s.Topics[t.ID]; ok && tp.Completed {
			stats[i].Completed++
		}
	}
	for i := range stats {
		if stats[i].Total > 0 {
			stats[i].Percent = int(math.Round(float64(stats[i].Completed) / float64(stats[i].Total) * 100))
		}
	}
	return stats
}

// WeakTopics returns topics with quiz history averaging below WeakThreshold,
// weakest first. limit <= 0 means DefaultWeakLimit. Titles come from cat
// when it knows the topic.
func (s Snapshot) WeakTopics(cat *catalog.Catalog, limit int) []WeakTopic {
	if limit <= 0 {
		limit = DefaultWeakLimit
	}

	var out []WeakTopic
	for id, tp := range s.Topics {
		avg, ok := tp.AverageScore()
		if !ok || avg >= WeakThreshold {
			continue
		}
		title := id
		if cat != nil {
			if t, ok := cat.Topic(id); ok {
				title = t.Title
			}
		}
		out = append(out, WeakTopic{TopicID: id, Title: title, AvgScore: avg, Attempts: len(tp.QuizScores)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgScore != out[j].AvgScore {
			return out[i].AvgScore < out[j].AvgScore
		}
		return out[i].TopicID < out[j].TopicID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ActivitySeries returns one sample per day for the last days days ending
// today, oldest first. Days without activity are zero.
func (s Snapshot) ActivitySeries(days int) []DaySample {
	if days <= 0 {
		return nil
	}
	byDate := make(map[string]DailyActivity, len(s.Daily))
	for _, d := range s.Daily {
		byDate[d.Date] = d
	}

	out := make([]DaySample, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := DayKey(s.Taken.AddDate(0, 0, -i))
		d := byDate[key]
		out = append(out, DaySample{
			Date:              key,
			Minutes:           int(math.Round(float64(d.TimeSpent) / 60)),
			QuestionsAnswered: d.QuestionsAnswered,
			CorrectAnswers:    d.CorrectAnswers,
		})
	}
	return out
}

// OverallMastery is the mean mastery level over every catalog topic,
// counting untouched topics as 0.
func (s Snapshot) OverallMastery(cat *catalog.Catalog) int {
	topics := cat.Topics()
	if len(topics) == 0 {
		return 0
	}
	var sum int
	for _, t := range topics {
		sum += s.Topics[t.ID].MasteryLevel
	}
	return int(math.Round(float64(sum) / float64(len(topics))))
}

// Bookmarked returns bookmarked topic IDs in ascending order.
func (s Snapshot) Bookmarked() []string {
	var ids []string
	for id, tp := range s.Topics {
		if tp.Bookmarked {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
