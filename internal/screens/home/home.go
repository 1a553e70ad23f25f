package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/screens/history"
	quizscreen "github.com/abhisek/cloudverse/internal/screens/quiz"
	"github.com/abhisek/cloudverse/internal/screens/stats"
	"github.com/abhisek/cloudverse/internal/screens/topics"
	"github.com/abhisek/cloudverse/internal/ui/components"
	"github.com/abhisek/cloudverse/internal/ui/layout"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

const titleFull = `  ☁  C L O U D V E R S E  ☁`

const tagline = "Cloud computing, one topic at a time"

// HomeScreen is the main menu.
type HomeScreen struct {
	svc  *screen.Services
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc *screen.Services) *HomeScreen {
	push := func(build func() screen.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: build()} }
		}
	}

	items := []components.MenuItem{
		{Label: "START QUIZ", Action: push(func() screen.Screen { return quizscreen.New(svc) })},
		{Label: "TOPICS", Action: push(func() screen.Screen { return topics.New(svc) })},
		{Label: "STATS", Action: push(func() screen.Screen { return stats.New(svc) })},
		{Label: "HISTORY", Action: push(func() screen.Screen { return history.New(svc) })},
		{Label: "EXIT", Action: func() tea.Cmd { return tea.Quit }},
	}

	return &HomeScreen{svc: svc, menu: components.NewMenu(items)}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == "q" {
		return h, tea.Quit
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width, 56)
	compact := layout.IsCompact(width, height)

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(titleFull))
	if !compact {
		sections = append(sections, theme.Subtitle.Width(cw).Render(tagline))
	}
	sections = append(sections, h.renderStats(cw))
	sections = append(sections, h.menu.View(cw-4, compact))

	sep := "\n\n"
	if compact {
		sep = "\n"
	}
	return components.Center(strings.Join(sections, sep), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// renderStats shows streak, completion and mastery in one card.
func (h *HomeScreen) renderStats(cw int) string {
	snap := h.svc.Progress.Snapshot()
	cat := h.svc.Catalog
	total := len(cat.Topics())

	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	value := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)

	cell := func(v, l string) string {
		return lipgloss.JoinVertical(lipgloss.Center, value.Render(v), label.Render(l))
	}

	cols := []string{
		cell(fmt.Sprintf("%d", snap.User.CurrentStreak), "day streak"),
		cell(fmt.Sprintf("%d/%d", snap.User.TopicsCompleted, total), "topics done"),
		cell(fmt.Sprintf("%d%%", snap.OverallMastery(cat)), "mastery"),
		cell(fmt.Sprintf("%d", snap.User.QuizzesTaken), "quizzes"),
	}

	colWidth := (cw - 6) / len(cols)
	for i, c := range cols {
		cols[i] = lipgloss.NewStyle().Width(colWidth).Align(lipgloss.Center).Render(c)
	}
	return components.Card(lipgloss.JoinHorizontal(lipgloss.Top, cols...), cw)
}
