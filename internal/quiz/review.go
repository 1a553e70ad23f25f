package quiz

import (
	"context"
	"math"
	"time"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/progress"
)

// Row is one question of a finished session.
type Row struct {
	Question catalog.Question
	Answer   int // NoAnswer when skipped or timed out
	Correct  bool
}

// Answered reports whether the learner picked an option.
func (r Row) Answered() bool { return r.Answer != NoAnswer }

// TopicResult is the per-topic share of a session and what the recorder
// did with it.
type TopicResult struct {
	TopicID    string
	TopicTitle string
	Correct    int
	Total      int
	Outcome    progress.Outcome
	Err        error
}

// Review is the scored result of a session.
type Review struct {
	SessionID  string
	Settings   Settings
	Score      int
	Total      int
	Rows       []Row
	Topics     []TopicResult
	Elapsed    time.Duration
	StartedAt  time.Time
	FinishedAt time.Time

	// DailyOutcome is what happened to the one daily activity record.
	DailyOutcome progress.Outcome
	DailyErr     error
}

// Percent is the rounded score percentage.
func (r *Review) Percent() int {
	if r.Total == 0 {
		return 0
	}
	return int(math.Round(float64(r.Score) / float64(r.Total) * 100))
}

// Unanswered counts skipped and timed-out questions.
func (r *Review) Unanswered() int {
	n := 0
	for _, row := range r.Rows {
		if !row.Answered() {
			n++
		}
	}
	return n
}

// finish scores the session, enters Review and hands results to the
// recorder. Recorder failures are logged; the review stands regardless.
func (e *Engine) finish(ctx context.Context) {
	finished := e.now()
	elapsed := finished.Sub(e.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	r := &Review{
		SessionID:  e.sessionID,
		Settings:   e.settings,
		Total:      len(e.questions),
		Rows:       make([]Row, len(e.questions)),
		Elapsed:    elapsed.Truncate(time.Second),
		StartedAt:  e.startedAt,
		FinishedAt: finished,
	}

	index := make(map[string]int)
	for i, q := range e.questions {
		correct := e.answers[i] == q.Answer
		r.Rows[i] = Row{Question: q, Answer: e.answers[i], Correct: correct}
		if correct {
			r.Score++
		}

		ti, ok := index[q.TopicID]
		if !ok {
			ti = len(r.Topics)
			index[q.TopicID] = ti
			r.Topics = append(r.Topics, TopicResult{TopicID: q.TopicID, TopicTitle: q.TopicTitle})
		}
		r.Topics[ti].Total++
		if correct {
			r.Topics[ti].Correct++
		}
	}

	e.state = StateReview
	e.review = r
	e.remaining = 0

	e.handoff(ctx, r)

	e.log.Info("quiz finished", "session_id", r.SessionID, "score", r.Score,
		"total", r.Total, "topics", len(r.Topics), "elapsed_s", int(r.Elapsed.Seconds()))
}

// handoff records one quiz score per topic group, in first-appearance order,
// then one daily activity increment for the whole session. Per-topic time is
// an even split of the session time across questions.
func (e *Engine) handoff(ctx context.Context, r *Review) {
	perQuestion := int(r.Elapsed.Seconds()) / r.Total

	for i := range r.Topics {
		t := &r.Topics[i]
		t.Outcome, t.Err = e.recorder.AddQuizScore(ctx, t.TopicID, progress.QuizScore{
			Date:           r.FinishedAt,
			Score:          t.Correct,
			TotalQuestions: t.Total,
			Difficulty:     r.Settings.RecordedDifficulty(),
			TimeSpent:      perQuestion * t.Total,
		})
		if t.Err != nil {
			e.log.Warn("quiz score not recorded", "session_id", r.SessionID,
				"topic_id", t.TopicID, "error", t.Err)
		}
	}

	r.DailyOutcome, r.DailyErr = e.recorder.RecordDailyActivity(ctx, progress.Activity{
		QuizzesTaken:      1,
		QuestionsAnswered: r.Total,
		CorrectAnswers:    r.Score,
	})
	if r.DailyErr != nil {
		e.log.Warn("quiz activity not recorded", "session_id", r.SessionID, "error", r.DailyErr)
	}
}
