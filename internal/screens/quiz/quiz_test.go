package quiz

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/progress"
	qz "github.com/abhisek/cloudverse/internal/quiz"
	"github.com/abhisek/cloudverse/internal/quizgen"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/store"
)

var dbCounter atomic.Int64

func testServices(t *testing.T) *screen.Services {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:quizscreen%d?mode=memory&cache=shared", dbCounter.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ps := progress.New(st.ProgressRepo())
	require.NoError(t, ps.Load(context.Background()))

	return &screen.Services{Catalog: catalog.MustDefault(), Progress: ps}
}

func key(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func press(s *QuizScreen, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = s.Update(key(k))
	}
	return cmd
}

type stubGenerator struct {
	questions []catalog.Question
	err       error
	inputs    []quizgen.Input
}

func (g *stubGenerator) Generate(_ context.Context, in quizgen.Input) ([]catalog.Question, error) {
	g.inputs = append(g.inputs, in)
	return g.questions, g.err
}

func TestQuizScreen_PlayThroughToReview(t *testing.T) {
	svc := testServices(t)
	s := New(svc)
	assert.Equal(t, "Quiz", s.Title())
	assert.Equal(t, qz.StateSetup, s.engine.State())
	assert.NotEmpty(t, s.View(100, 30))

	cmd := press(s, "enter")
	assert.Nil(t, cmd, "untimed quiz schedules no ticks")
	require.Equal(t, qz.StatePlaying, s.engine.State())
	require.Equal(t, qz.DefaultCount, s.engine.Len())
	assert.Contains(t, s.View(100, 30), "Question 1 of 10")

	for i := 0; i < qz.DefaultCount; i++ {
		press(s, "1")
	}

	require.Equal(t, qz.StateReview, s.engine.State())
	require.NotNil(t, s.review)
	assert.Equal(t, qz.DefaultCount, s.review.Total)
	assert.Contains(t, s.View(100, 30), "correct")
	assert.Positive(t, svc.Progress.User().QuizzesTaken)

	press(s, "r")
	assert.Equal(t, qz.StatePlaying, s.engine.State())
	assert.Nil(t, s.review)

	press(s, "s")
	assert.Equal(t, 1, s.engine.Index())
}

func TestQuizScreen_CursorAnswer(t *testing.T) {
	s := New(testServices(t))
	press(s, "enter")

	q, ok := s.engine.Current()
	require.True(t, ok)
	for i := 0; i < q.Answer; i++ {
		press(s, "down")
	}
	assert.Equal(t, q.Answer, s.cursor)
	press(s, "enter")
	assert.Equal(t, 1, s.engine.Index())
	assert.Equal(t, 0, s.cursor)
}

func TestQuizScreen_TimedCountdown(t *testing.T) {
	s := New(testServices(t))

	// Start row → Timed row (Seconds is hidden while untimed), toggle on.
	press(s, "up", "right")
	require.True(t, s.form.settings.Timed)
	press(s, "down", "down")
	require.Equal(t, fieldStart, s.form.row)

	cmd := press(s, "enter")
	require.NotNil(t, cmd)
	require.Equal(t, qz.StatePlaying, s.engine.State())
	assert.Equal(t, qz.DefaultTimePerQuestion, s.engine.Remaining())

	// Ticks from an older chain are ignored.
	_, stale := s.Update(timerTickMsg{id: s.tickID - 1})
	assert.Nil(t, stale)
	assert.Equal(t, qz.DefaultTimePerQuestion, s.engine.Remaining())

	for i := 0; i < qz.DefaultTimePerQuestion-1; i++ {
		_, next := s.Update(timerTickMsg{id: s.tickID})
		require.NotNil(t, next)
	}
	assert.Equal(t, 0, s.engine.Index())
	assert.Equal(t, 1, s.engine.Remaining())

	_, _ = s.Update(timerTickMsg{id: s.tickID})
	assert.Equal(t, 1, s.engine.Index(), "timeout advances")
	assert.Equal(t, qz.DefaultTimePerQuestion, s.engine.Remaining())
}

func TestQuizScreen_NoMatchingQuestions(t *testing.T) {
	s := New(testServices(t))
	s.form.settings.Zone = catalog.ZoneB
	s.form.settings.Difficulty = catalog.DifficultyHard

	press(s, "enter")
	assert.Equal(t, qz.StateSetup, s.engine.State())
	assert.Contains(t, s.errMsg, "No questions")
}

func TestQuizScreen_Generated(t *testing.T) {
	svc := testServices(t)
	topic := svc.Catalog.Topics()[0]
	gen := &stubGenerator{}
	for _, mcq := range topic.Questions {
		gen.questions = append(gen.questions, catalog.Question{MCQ: mcq, TopicID: topic.ID, TopicTitle: topic.Title})
	}
	svc.Generator = gen

	s := NewGenerated(svc, topic)
	assert.Contains(t, s.Title(), topic.Title)

	cmd := s.Init()
	require.NotNil(t, cmd)
	assert.Contains(t, s.View(100, 30), "Generating")

	s.Update(cmd())
	require.Len(t, gen.inputs, 1)
	assert.Equal(t, topic.ID, gen.inputs[0].Topic.ID)
	assert.Len(t, gen.inputs[0].PriorQuestions, len(topic.Questions), "built-in questions are passed as prior")
	require.Equal(t, qz.StatePlaying, s.engine.State())
	assert.Equal(t, len(gen.questions), s.engine.Len())
}

func TestQuizScreen_GeneratedWithoutProvider(t *testing.T) {
	svc := testServices(t)
	s := NewGenerated(svc, svc.Catalog.Topics()[0])

	s.Update(s.Init()())
	assert.Equal(t, qz.StateSetup, s.engine.State())
	assert.Contains(t, s.errMsg, "Could not generate")
	assert.Equal(t, "Quiz", s.Title())
}
