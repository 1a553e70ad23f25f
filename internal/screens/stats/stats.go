// Package stats renders the learner's progress dashboard.
package stats

import (
	"fmt"
	"math"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/ui/components"
	"github.com/abhisek/cloudverse/internal/ui/layout"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

// ActivityDays is how many days the activity chart covers.
const ActivityDays = 14

// StatsScreen shows streaks, completion per zone, weak topics, recent
// activity and bookmarks.
type StatsScreen struct {
	svc *screen.Services
	vp  viewport.Model
}

var _ screen.Screen = (*StatsScreen)(nil)

// New creates a StatsScreen.
func New(svc *screen.Services) *StatsScreen {
	return &StatsScreen{svc: svc, vp: viewport.New()}
}

func (s *StatsScreen) Init() tea.Cmd {
	return nil
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == "q" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return s, cmd
}

func (s *StatsScreen) View(width, height int) string {
	cw := components.ContentWidth(width, 72)
	s.vp.SetWidth(cw + 2)
	s.vp.SetHeight(max(height, 3))
	s.vp.SetContent(s.render(cw))
	return lipgloss.NewStyle().PaddingLeft(max((width-cw)/2, 0)).Render(s.vp.View())
}

func (s *StatsScreen) Title() string {
	return "Stats"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

// render builds every dashboard section for a frame of width cw.
func (s *StatsScreen) render(cw int) string {
	snap := s.svc.Progress.Snapshot()
	inner := cw - 6

	sections := []string{
		components.Card(s.renderSummary(snap, inner), cw),
		section("Completion by zone", s.renderZones(snap, inner)),
		section("Needs work", s.renderWeak(snap)),
		section(fmt.Sprintf("Last %d days", ActivityDays), renderActivity(snap.ActivitySeries(ActivityDays), inner)),
		section("Bookmarks", s.renderBookmarks(snap)),
	}
	return strings.Join(sections, "\n\n")
}

func section(title, body string) string {
	return theme.Section.Render(title) + "\n" + body
}

func (s *StatsScreen) renderSummary(snap progress.Snapshot, inner int) string {
	u := snap.User
	label := lipgloss.NewStyle().Foreground(theme.TextDim)
	value := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	cell := func(v, l string) string {
		return lipgloss.JoinVertical(lipgloss.Center, value.Render(v), label.Render(l))
	}

	avg := "—"
	if u.QuizzesTaken > 0 {
		avg = theme.ScoreStyle(int(math.Round(u.AverageQuizScore))).Render(fmt.Sprintf("%.0f%%", u.AverageQuizScore))
	}

	cols := []string{
		cell(fmt.Sprintf("🔥 %d", u.CurrentStreak), "streak"),
		cell(fmt.Sprintf("%d", u.LongestStreak), "best streak"),
		cell(formatStudyTime(u.TotalTimeSpent), "studied"),
		cell(fmt.Sprintf("%d", u.QuizzesTaken), "quizzes"),
		cell(avg, "avg score"),
		cell(fmt.Sprintf("%d%%", snap.OverallMastery(s.svc.Catalog)), "mastery"),
	}
	colWidth := max(inner/len(cols), 8)
	for i, c := range cols {
		cols[i] = lipgloss.NewStyle().Width(colWidth).Align(lipgloss.Center).Render(c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (s *StatsScreen) renderZones(snap progress.Snapshot, inner int) string {
	var lines []string
	for _, z := range snap.ZoneProgress(s.svc.Catalog) {
		label := fmt.Sprintf("Zone %s %2d/%-2d", z.Zone, z.Completed, z.Total)
		lines = append(lines, components.NewProgressBar(label, float64(z.Percent)/100, true, inner).View())
	}
	return strings.Join(lines, "\n")
}

func (s *StatsScreen) renderWeak(snap progress.Snapshot) string {
	weak := snap.WeakTopics(s.svc.Catalog, 0)
	if len(weak) == 0 {
		return theme.Hint.Render("  Nothing below 70% yet.")
	}
	var lines []string
	for _, w := range weak {
		pct := int(math.Round(w.AvgScore))
		lines = append(lines, fmt.Sprintf("  %s  %s %s",
			theme.ScoreStyle(pct).Render(fmt.Sprintf("%3d%%", pct)),
			theme.Body.Render(w.Title),
			theme.Hint.Render(fmt.Sprintf("(%d attempts)", w.Attempts))))
	}
	return strings.Join(lines, "\n")
}

// renderActivity draws one bar per day scaled to the busiest day.
func renderActivity(days []progress.DaySample, inner int) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Minutes)
	}
	if peak == 0 {
		return theme.Hint.Render("  No study time recorded yet.")
	}

	barWidth := max(inner-24, 10)
	bar := lipgloss.NewStyle().Foreground(theme.Primary)
	var lines []string
	for _, d := range days {
		n := d.Minutes * barWidth / peak
		if d.Minutes > 0 && n == 0 {
			n = 1
		}
		detail := fmt.Sprintf("%3dm", d.Minutes)
		if d.QuestionsAnswered > 0 {
			detail += fmt.Sprintf(" %d/%d", d.CorrectAnswers, d.QuestionsAnswered)
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			theme.Hint.Render(d.Date[5:]),
			bar.Render(strings.Repeat("█", n))+strings.Repeat(" ", barWidth-n),
			theme.Hint.Render(detail)))
	}
	return strings.Join(lines, "\n")
}

func (s *StatsScreen) renderBookmarks(snap progress.Snapshot) string {
	ids := snap.Bookmarked()
	if len(ids) == 0 {
		return theme.Hint.Render("  Press b in a topic to bookmark it.")
	}
	var lines []string
	for _, id := range ids {
		title := id
		if t, ok := s.svc.Catalog.Topic(id); ok {
			title = t.Title
		}
		lines = append(lines, "  ★ "+title)
	}
	return strings.Join(lines, "\n")
}

func formatStudyTime(secs int) string {
	if secs < 3600 {
		return fmt.Sprintf("%dm", secs/60)
	}
	return fmt.Sprintf("%dh%02dm", secs/3600, secs%3600/60)
}
