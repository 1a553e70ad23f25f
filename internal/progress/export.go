package progress

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ExportFilename is the suggested file name for an export taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("cloudverse-progress-%s.json", t.UTC().Format(dayLayout))
}

type exportDoc struct {
	UserProgress    UserProgress    `json:"userProgress"`
	TopicProgress   []topicEntry    `json:"topicProgress"`
	DailyActivities []DailyActivity `json:"dailyActivities"`
	ExportDate      string          `json:"exportDate"`
}

// topicEntry encodes as a two-element [topicId, record] array.
type topicEntry struct {
	ID     string
	Record TopicProgress
}

func (e topicEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.ID, e.Record})
}

// Export serializes the snapshot as indented JSON. Topics are ordered by ID.
func (s Snapshot) Export() ([]byte, error) {
	ids := make([]string, 0, len(s.Topics))
	for id := range s.Topics {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	doc := exportDoc{
		UserProgress:    s.User,
		TopicProgress:   make([]topicEntry, 0, len(ids)),
		DailyActivities: s.Daily,
		ExportDate:      s.Taken.UTC().Format(time.RFC3339),
	}
	doc.UserProgress.ID = UserID
	for _, id := range ids {
		doc.TopicProgress = append(doc.TopicProgress, topicEntry{ID: id, Record: s.Topics[id]})
	}
	if doc.DailyActivities == nil {
		doc.DailyActivities = []DailyActivity{}
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Export serializes the current state. It has no side effects.
func (s *Store) Export() ([]byte, error) {
	return s.Snapshot().Export()
}
