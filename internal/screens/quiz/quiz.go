// Package quiz is the quiz screen: setup form, timed play and review.
package quiz

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cloudverse/internal/catalog"
	qz "github.com/abhisek/cloudverse/internal/quiz"
	"github.com/abhisek/cloudverse/internal/quizgen"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/ui/layout"
)

// QuizScreen drives a qz.Engine from key presses and countdown ticks.
type QuizScreen struct {
	svc    *screen.Services
	engine *qz.Engine
	form   setupForm

	cursor int
	tickID int

	review       *qz.Review
	reviewScroll int

	// topic is set for AI-generated quizzes about one topic.
	topic      *catalog.Topic
	generating bool

	errMsg string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a quiz screen that starts at the setup form.
func New(svc *screen.Services) *QuizScreen {
	engine := qz.NewEngine(svc.Catalog, svc.Progress,
		qz.WithClock(svc.Clock),
		qz.WithLogger(svc.Log()))
	return &QuizScreen{
		svc:    svc,
		engine: engine,
		form:   newSetupForm(svc.Catalog, engine.Settings()),
	}
}

// NewGenerated creates a quiz screen that asks the generator for fresh
// questions about topic and plays them untimed.
func NewGenerated(svc *screen.Services, topic catalog.Topic) *QuizScreen {
	s := New(svc)
	s.topic = &topic
	s.generating = true
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.generating {
		return s.generate()
	}
	return nil
}

func (s *QuizScreen) Title() string {
	if s.topic != nil {
		return "AI Quiz: " + s.topic.Title
	}
	return "Quiz"
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.generating:
		return []layout.KeyHint{{Key: "Esc", Description: "Cancel"}}
	case s.engine.State() == qz.StateSetup:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Field"},
			{Key: "←→", Description: "Change"},
			{Key: "Enter", Description: "Start"},
			{Key: "Esc", Description: "Back"},
		}
	case s.engine.State() == qz.StatePlaying:
		return []layout.KeyHint{
			{Key: "1-4", Description: "Answer"},
			{Key: "↑↓ Enter", Description: "Pick"},
			{Key: "S", Description: "Skip"},
			{Key: "Esc", Description: "Abandon"},
		}
	default:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Scroll"},
			{Key: "R", Description: "Retake"},
			{Key: "N", Description: "New quiz"},
			{Key: "Esc", Description: "Back"},
		}
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s, s.handleTick(msg)
	case generatedMsg:
		return s, s.handleGenerated(msg)
	case tea.KeyPressMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if s.generating {
		return nil
	}
	switch s.engine.State() {
	case qz.StateSetup:
		return s.handleSetupKey(msg.String())
	case qz.StatePlaying:
		return s.handlePlayingKey(msg.String())
	case qz.StateReview:
		return s.handleReviewKey(msg.String())
	}
	return nil
}

func (s *QuizScreen) handleSetupKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		s.form.move(-1)
	case "down", "j", "tab":
		s.form.move(1)
	case "left", "h":
		s.form.change(-1)
	case "right", "l", "space":
		s.form.change(1)
	case "enter":
		if s.form.row != fieldStart {
			s.form.move(1)
			return nil
		}
		return s.start()
	}
	return nil
}

func (s *QuizScreen) handlePlayingKey(key string) tea.Cmd {
	ctx := context.Background()
	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return nil
	case "down", "j":
		if s.cursor < catalog.OptionCount-1 {
			s.cursor++
		}
		return nil
	case "enter":
		return s.afterMove(s.engine.Answer(ctx, s.cursor))
	case "1", "2", "3", "4":
		return s.afterMove(s.engine.Answer(ctx, int(key[0]-'1')))
	case "a", "b", "c", "d":
		return s.afterMove(s.engine.Answer(ctx, int(key[0]-'a')))
	case "s":
		return s.afterMove(s.engine.Skip(ctx))
	}
	return nil
}

func (s *QuizScreen) handleReviewKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if s.reviewScroll > 0 {
			s.reviewScroll--
		}
	case "down", "j":
		s.reviewScroll++
	case "r":
		s.engine.Reset()
		s.review = nil
		if s.topic != nil {
			s.generating = true
			return s.generate()
		}
		return s.start()
	case "n":
		s.engine.Reset()
		s.review = nil
		s.topic = nil
		s.form = newSetupForm(s.svc.Catalog, s.engine.Settings())
	}
	return nil
}

// start applies the form and begins a catalog quiz.
func (s *QuizScreen) start() tea.Cmd {
	s.errMsg = ""
	if err := s.engine.Configure(s.form.settings); err != nil {
		s.errMsg = err.Error()
		return nil
	}
	if err := s.engine.Start(context.Background()); err != nil {
		if errors.Is(err, qz.ErrNoQuestions) {
			s.errMsg = "No questions match these filters. Try widening them."
		} else {
			s.errMsg = err.Error()
		}
		return nil
	}
	return s.beginQuestion()
}

// afterMove runs after the engine advanced past a question.
func (s *QuizScreen) afterMove(err error) tea.Cmd {
	if err != nil {
		s.svc.Log().Warn("quiz input rejected", "error", err)
		return nil
	}
	if s.engine.State() == qz.StateReview {
		s.loadReview()
		return nil
	}
	return s.beginQuestion()
}

// beginQuestion resets the cursor and starts a fresh countdown chain.
func (s *QuizScreen) beginQuestion() tea.Cmd {
	s.cursor = 0
	s.tickID++
	if !s.engine.Settings().Timed {
		return nil
	}
	return tickCmd(s.tickID)
}

func (s *QuizScreen) handleTick(msg timerTickMsg) tea.Cmd {
	if msg.id != s.tickID || s.engine.State() != qz.StatePlaying {
		return nil
	}
	if s.engine.Tick(context.Background()) {
		return s.afterMove(nil)
	}
	return tickCmd(s.tickID)
}

func (s *QuizScreen) loadReview() {
	r, err := s.engine.Review()
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.review = r
	s.reviewScroll = 0
}

// generate asks the generator for questions about s.topic.
func (s *QuizScreen) generate() tea.Cmd {
	gen := s.svc.Generator
	topic := *s.topic
	count := s.engine.Settings().Count
	return func() tea.Msg {
		if gen == nil {
			return generatedMsg{Err: quizgen.ErrNotConfigured}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		qs, err := gen.Generate(ctx, quizgen.Input{
			Topic:          topic,
			Count:          count,
			PriorQuestions: quizgen.CatalogPrior(topic),
		})
		return generatedMsg{Questions: qs, Err: err}
	}
}

func (s *QuizScreen) handleGenerated(msg generatedMsg) tea.Cmd {
	if !s.generating {
		return nil
	}
	s.generating = false
	if msg.Err != nil {
		s.svc.Log().Warn("quiz generation failed", "topic_id", s.topic.ID, "error", msg.Err)
		s.errMsg = "Could not generate questions: " + msg.Err.Error()
		s.topic = nil
		return nil
	}
	if err := s.engine.StartWith(msg.Questions); err != nil {
		s.errMsg = err.Error()
		s.topic = nil
		return nil
	}
	return s.beginQuestion()
}

// tickCmd returns a 1-second tick command for countdown chain id.
func tickCmd(id int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{id: id}
	})
}
