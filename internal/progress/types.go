package progress

import (
	"errors"
	"time"
)

// UserID is the fixed key of the singleton UserProgress record.
const UserID = "main"

// WindowDays is how many daily activity records are kept in memory.
const WindowDays = 90

var (
	ErrInvalidTopic     = errors.New("progress: empty topic id")
	ErrInvalidScore     = errors.New("progress: quiz score out of range")
	ErrNegativeDuration = errors.New("progress: negative duration")
	ErrInvalidActivity  = errors.New("progress: negative activity count")
)

// QuizScore is one quiz result for one topic. Immutable once recorded.
type QuizScore struct {
	Date           time.Time `json:"date"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Difficulty     string    `json:"difficulty"`
	TimeSpent      int       `json:"timeSpent"`
}

// Percent returns the score as a percentage of total questions.
func (q QuizScore) Percent() float64 {
	if q.TotalQuestions <= 0 {
		return 0
	}
	return float64(q.Score) / float64(q.TotalQuestions) * 100
}

func (q QuizScore) validate() error {
	if q.TotalQuestions <= 0 || q.Score < 0 || q.Score > q.TotalQuestions {
		return ErrInvalidScore
	}
	if q.TimeSpent < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// TopicProgress is the learner's state for one topic.
type TopicProgress struct {
	TopicID      string      `json:"topicId"`
	Completed    bool        `json:"completed"`
	MasteryLevel int         `json:"masteryLevel"`
	LastAccessed time.Time   `json:"lastAccessed"`
	TimeSpent    int         `json:"timeSpent"`
	QuizScores   []QuizScore `json:"quizScores"`
	Bookmarked   bool        `json:"bookmarked"`
	Notes        string      `json:"notes"`
}

func (t TopicProgress) clone() TopicProgress {
	c := t
	c.QuizScores = append([]QuizScore(nil), t.QuizScores...)
	if c.QuizScores == nil {
		c.QuizScores = []QuizScore{}
	}
	return c
}

// AverageScore returns the mean quiz percentage for the topic, or 0 with
// ok=false when there is no quiz history.
func (t TopicProgress) AverageScore() (avg float64, ok bool) {
	if len(t.QuizScores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range t.QuizScores {
		sum += s.Percent()
	}
	return sum / float64(len(t.QuizScores)), true
}

// TopicUpdate is a partial update. Nil fields are left unchanged. Study
// time has no field here; it only grows through RecordTimeSpent.
type TopicUpdate struct {
	Completed    *bool
	MasteryLevel *int
	Bookmarked   *bool
	Notes        *string
}

func (u TopicUpdate) apply(t *TopicProgress) {
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.MasteryLevel != nil {
		t.MasteryLevel = clampPercent(*u.MasteryLevel)
	}
	if u.Bookmarked != nil {
		t.Bookmarked = *u.Bookmarked
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
}


// UserProgress is the installation-wide aggregate.
type UserProgress struct {
	ID               string    `json:"id"`
	CurrentStreak    int       `json:"currentStreak"`
	LongestStreak    int       `json:"longestStreak"`
	LastActiveDate   time.Time `json:"lastActiveDate"`
	TotalTimeSpent   int       `json:"totalTimeSpent"`
	TopicsCompleted  int       `json:"topicsCompleted"`
	QuizzesTaken     int       `json:"quizzesTaken"`
	AverageQuizScore float64   `json:"averageQuizScore"`
}

// DefaultUser returns the zero-valued aggregate with LastActiveDate set to now.
func DefaultUser(now time.Time) UserProgress {
	return UserProgress{ID: UserID, LastActiveDate: now}
}

// DailyActivity accumulates one calendar day of study.
type DailyActivity struct {
	Date              string `json:"date"`
	TimeSpent         int    `json:"timeSpent"`
	TopicsViewed      int    `json:"topicsViewed"`
	QuizzesTaken      int    `json:"quizzesTaken"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	CorrectAnswers    int    `json:"correctAnswers"`
}

// Activity is an additive delta for today's DailyActivity.
type Activity struct {
	TimeSpent         int
	TopicsViewed      int
	QuizzesTaken      int
	QuestionsAnswered int
	CorrectAnswers    int
}

func (a Activity) validate() error {
	if a.TimeSpent < 0 {
		return ErrNegativeDuration
	}
	if a.TopicsViewed < 0 || a.QuizzesTaken < 0 || a.QuestionsAnswered < 0 || a.CorrectAnswers < 0 {
		return ErrInvalidActivity
	}
	return nil
}

func (d DailyActivity) add(a Activity) DailyActivity {
	d.TimeSpent += a.TimeSpent
	d.TopicsViewed += a.TopicsViewed
	d.QuizzesTaken += a.QuizzesTaken
	d.QuestionsAnswered += a.QuestionsAnswered
	d.CorrectAnswers += a.CorrectAnswers
	return d
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
