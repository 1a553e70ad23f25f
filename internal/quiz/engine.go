// Package quiz runs one multiple-choice quiz session at a time: setup,
// sequential (optionally timed) questions, scoring and the hand-off of
// results to progress tracking.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/progress"
)

// State is the engine's phase.
type State int

const (
	StateSetup State = iota
	StatePlaying
	StateReview
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StatePlaying:
		return "playing"
	case StateReview:
		return "review"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// NoAnswer marks a question that was skipped or timed out.
const NoAnswer = -1

var (
	ErrNoQuestions   = errors.New("quiz: no questions match the selected filters")
	ErrWrongState    = errors.New("quiz: operation not allowed in current state")
	ErrInvalidOption = errors.New("quiz: option out of range")
)

// Sampler draws questions from the content catalog.
type Sampler interface {
	Sample(count int, f catalog.Filter, rng *rand.Rand) []catalog.Question
}

// Recorder receives session results. *progress.Store implements it.
type Recorder interface {
	AddQuizScore(ctx context.Context, topicID string, score progress.QuizScore) (progress.Outcome, error)
	RecordDailyActivity(ctx context.Context, a progress.Activity) (progress.Outcome, error)
}

// Engine is the quiz state machine. It is driven from a single goroutine
// (the UI loop) and is not safe for concurrent use.
type Engine struct {
	sampler  Sampler
	recorder Recorder
	log      *logging.Logger
	now      func() time.Time
	rng      *rand.Rand

	settings Settings
	state    State

	sessionID string
	questions []catalog.Question
	answers   []int
	index     int
	remaining int
	startedAt time.Time
	review    *Review
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand fixes the sampling source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine in Setup with default settings.
func NewEngine(sampler Sampler, recorder Recorder, opts ...Option) *Engine {
	if sampler == nil || recorder == nil {
		panic("quiz: NewEngine requires a sampler and a recorder")
	}
	e := &Engine{
		sampler:  sampler,
		recorder: recorder,
		log:      logging.Nop(),
		now:      time.Now,
		settings: DefaultSettings(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) State() State       { return e.state }
func (e *Engine) Settings() Settings { return e.settings }
func (e *Engine) SessionID() string  { return e.sessionID }

// Configure replaces the settings. Only allowed in Setup.
func (e *Engine) Configure(s Settings) error {
	if e.state != StateSetup {
		return ErrWrongState
	}
	e.settings = s.Normalize()
	return nil
}

// Start samples questions with the current settings and begins playing.
// When nothing matches it returns ErrNoQuestions and stays in Setup. A
// sample shorter than the requested count is played as is.
func (e *Engine) Start(ctx context.Context) error {
	if e.state != StateSetup {
		return ErrWrongState
	}
	qs := e.sampler.Sample(e.settings.Count, e.settings.Filter(), e.rng)
	if len(qs) == 0 {
		e.log.Info("quiz start rejected", "reason", "no questions",
			"zone", e.settings.ZoneLabel(), "difficulty", e.settings.DifficultyLabel())
		return ErrNoQuestions
	}
	e.begin(qs)
	return nil
}

// StartWith begins playing a caller-supplied question list, such as
// generated questions.
func (e *Engine) StartWith(questions []catalog.Question) error {
	if e.state != StateSetup {
		return ErrWrongState
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	e.begin(append([]catalog.Question(nil), questions...))
	return nil
}

func (e *Engine) begin(qs []catalog.Question) {
	e.sessionID = uuid.NewString()
	e.questions = qs
	e.answers = make([]int, len(qs))
	for i := range e.answers {
		e.answers[i] = NoAnswer
	}
	e.index = 0
	e.review = nil
	e.startedAt = e.now()
	e.resetCountdown()
	e.state = StatePlaying
	e.log.Debug("quiz started", "session_id", e.sessionID, "questions", len(qs),
		"timed", e.settings.Timed)
}

func (e *Engine) resetCountdown() {
	if e.settings.Timed {
		e.remaining = e.settings.TimePerQuestion
	} else {
		e.remaining = 0
	}
}

// Current returns the question being asked.
func (e *Engine) Current() (catalog.Question, bool) {
	if e.state != StatePlaying {
		return catalog.Question{}, false
	}
	return e.questions[e.index], true
}

// Index is the zero-based position of the current question.
func (e *Engine) Index() int { return e.index }

// Len is the number of questions in the session.
func (e *Engine) Len() int { return len(e.questions) }

// Remaining is the countdown for the current question in seconds. It is
// zero when the session is untimed.
func (e *Engine) Remaining() int { return e.remaining }

// Answer records option for the current question and advances.
func (e *Engine) Answer(ctx context.Context, option int) error {
	if e.state != StatePlaying {
		return ErrWrongState
	}
	if option < 0 || option >= catalog.OptionCount {
		return ErrInvalidOption
	}
	e.advance(ctx, option)
	return nil
}

// Skip records no answer for the current question and advances.
func (e *Engine) Skip(ctx context.Context) error {
	if e.state != StatePlaying {
		return ErrWrongState
	}
	e.advance(ctx, NoAnswer)
	return nil
}

// Tick is one elapsed second of the countdown. When the countdown reaches
// zero the question is recorded unanswered and the engine advances. It
// reports whether it advanced. Untimed sessions ignore ticks.
func (e *Engine) Tick(ctx context.Context) bool {
	if e.state != StatePlaying || !e.settings.Timed {
		return false
	}
	if e.remaining > 0 {
		e.remaining--
	}
	if e.remaining > 0 {
		return false
	}
	e.advance(ctx, NoAnswer)
	return true
}

func (e *Engine) advance(ctx context.Context, answer int) {
	e.answers[e.index] = answer
	if e.index < len(e.questions)-1 {
		e.index++
		e.resetCountdown()
		return
	}
	e.finish(ctx)
}

// Review returns the result of a finished session.
func (e *Engine) Review() (*Review, error) {
	if e.state != StateReview {
		return nil, ErrWrongState
	}
	return e.review, nil
}

// Reset abandons or closes the session and returns to Setup. Settings are
// kept. Abandoned sessions record nothing.
func (e *Engine) Reset() {
	if e.state == StatePlaying {
		e.log.Debug("quiz abandoned", "session_id", e.sessionID, "index", e.index)
	}
	e.state = StateSetup
	e.sessionID = ""
	e.questions = nil
	e.answers = nil
	e.index = 0
	e.remaining = 0
	e.review = nil
}
