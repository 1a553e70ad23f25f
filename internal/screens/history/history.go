// Package history lists past quiz results across all topics.
package history

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/ui/layout"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

// entry is one recorded topic result of a quiz.
type entry struct {
	TopicID string
	Title   string
	Score   progress.QuizScore
}

// HistoryScreen displays quiz results newest first.
type HistoryScreen struct {
	svc      *screen.Services
	entries  []entry
	selected int
	expanded map[int]bool
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen from the current progress snapshot.
func New(svc *screen.Services) *HistoryScreen {
	return &HistoryScreen{
		svc:      svc,
		entries:  collect(svc),
		expanded: make(map[int]bool),
	}
}

func collect(svc *screen.Services) []entry {
	var out []entry
	for id, tp := range svc.Progress.Topics() {
		title := id
		if t, ok := svc.Catalog.Topic(id); ok {
			title = t.Title
		}
		for _, qs := range tp.QuizScores {
			out = append(out, entry{TopicID: id, Title: title, Score: qs})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Score.Date.Equal(out[j].Score.Date) {
			return out[i].Score.Date.After(out[j].Score.Date)
		}
		return out[i].TopicID < out[j].TopicID
	})
	return out
}

func (s *HistoryScreen) Init() tea.Cmd {
	return nil
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	switch k.String() {
	case "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.entries)-1 {
			s.selected++
		}
	case "enter":
		s.expanded[s.selected] = !s.expanded[s.selected]
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if len(s.entries) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No quizzes yet. Take one from the home screen!")
	}

	var lines []string
	selectedLine := 0
	for i, e := range s.entries {
		pct := int(math.Round(e.Score.Percent()))
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
			selectedLine = len(lines)
		}

		title := layout.Truncate(e.Title, 34)
		line := fmt.Sprintf("%s%s  %-34s  %2d/%-2d  ",
			prefix, e.Score.Date.Local().Format("Jan 02 15:04"), title, e.Score.Score, e.Score.TotalQuestions)
		lines = append(lines, style.Render(line)+theme.ScoreStyle(pct).Render(fmt.Sprintf("%3d%%", pct)))

		if s.expanded[i] {
			lines = append(lines, s.details(e)...)
		}
	}

	// Keep the selected row visible.
	start := 0
	if height > 0 && selectedLine >= height {
		start = selectedLine - height + 1
	}
	end := len(lines)
	if height > 0 {
		end = min(start+height, len(lines))
	}

	block := strings.Join(lines[start:end], "\n")
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}

func (s *HistoryScreen) details(e entry) []string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	out := []string{dim.Render(fmt.Sprintf("      difficulty %s · %ds", e.Score.Difficulty, e.Score.TimeSpent))}
	if tp, ok := s.svc.Progress.Topic(e.TopicID); ok {
		line := fmt.Sprintf("      mastery %d%%", tp.MasteryLevel)
		if avg, ok := tp.AverageScore(); ok {
			line += fmt.Sprintf(" · average %.0f%% over %d attempt(s)", avg, len(tp.QuizScores))
		}
		out = append(out, dim.Render(line))
	}
	return out
}
