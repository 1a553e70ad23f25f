package quiz

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	qz "github.com/abhisek/cloudverse/internal/quiz"
	"github.com/abhisek/cloudverse/internal/ui/components"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	cw := components.ContentWidth(width, 90)

	if s.generating {
		msg := theme.Title.Render("Generating questions…") + "\n\n" +
			theme.Hint.Render("Asking the model about "+s.topic.Title)
		return components.Center(msg, width, height)
	}

	var body string
	switch s.engine.State() {
	case qz.StateSetup:
		body = s.form.view(cw, s.errMsg)
	case qz.StatePlaying:
		body = s.renderQuestion(cw)
	case qz.StateReview:
		body = s.renderReview(cw, height)
	}
	return lipgloss.NewStyle().Width(width).Padding(1, 0).Align(lipgloss.Center).Render(
		lipgloss.NewStyle().Width(cw).Align(lipgloss.Left).Render(body))
}

func (s *QuizScreen) renderQuestion(cw int) string {
	q, ok := s.engine.Current()
	if !ok {
		return ""
	}

	var b strings.Builder

	status := fmt.Sprintf("Question %d of %d", s.engine.Index()+1, s.engine.Len())
	right := theme.Hint.Render(q.TopicTitle)
	if s.engine.Settings().Timed {
		right = countdownStyle(s.engine.Remaining()).Render(fmt.Sprintf("⏱ %ds", s.engine.Remaining()))
	}
	gap := max(cw-lipgloss.Width(status)-lipgloss.Width(right), 1)
	b.WriteString(theme.Section.Render(status) + strings.Repeat(" ", gap) + right + "\n")

	bar := components.NewProgressBar("", float64(s.engine.Index())/float64(s.engine.Len()), false, cw)
	b.WriteString(bar.View() + "\n\n")

	b.WriteString(lipgloss.NewStyle().Width(cw).Foreground(theme.Text).Bold(true).Render(q.Question))
	b.WriteString("\n\n")

	opts := components.OptionList{Options: q.Options, Cursor: s.cursor, Width: cw}
	b.WriteString(opts.View())

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("%s · %s", q.Difficulty, q.TopicTitle)))
	return b.String()
}

func countdownStyle(remaining int) lipgloss.Style {
	switch {
	case remaining <= 5:
		return theme.Incorrect
	case remaining <= 10:
		return theme.Warning
	default:
		return theme.Correct
	}
}

// renderReview shows the score card followed by every question; height
// bounds the scrollable part.
func (s *QuizScreen) renderReview(cw, height int) string {
	r := s.review
	if r == nil {
		return theme.Incorrect.Render(s.errMsg)
	}

	var head strings.Builder
	pct := r.Percent()
	head.WriteString(theme.Title.Width(cw).Render(fmt.Sprintf("%d / %d correct", r.Score, r.Total)))
	head.WriteString("\n")
	head.WriteString(theme.ScoreStyle(pct).Width(cw).Align(lipgloss.Center).Render(fmt.Sprintf("%d%%  %s", pct, verdict(pct))))
	head.WriteString("\n")
	meta := fmt.Sprintf("Time %s · %s · %s", formatElapsed(r.Elapsed), r.Settings.DifficultyLabel(), zoneText(r.Settings))
	if n := r.Unanswered(); n > 0 {
		meta += fmt.Sprintf(" · %d unanswered", n)
	}
	head.WriteString(theme.Subtitle.Width(cw).Render(meta))
	head.WriteString("\n\n")

	for _, t := range r.Topics {
		line := fmt.Sprintf("%-40s %d/%d", t.TopicTitle, t.Correct, t.Total)
		if t.Err != nil {
			line += "  (not saved)"
		}
		head.WriteString(theme.Body.Render(line) + "\n")
	}
	if r.DailyErr != nil {
		head.WriteString(theme.Hint.Render("Daily activity could not be saved.") + "\n")
	}

	var rows []string
	for i, row := range r.Rows {
		rows = append(rows, renderRow(i, row, cw)...)
	}

	avail := max(height-lipgloss.Height(head.String())-3, 3)
	maxScroll := max(len(rows)-avail, 0)
	if s.reviewScroll > maxScroll {
		s.reviewScroll = maxScroll
	}
	end := min(s.reviewScroll+avail, len(rows))

	return head.String() + "\n" + strings.Join(rows[s.reviewScroll:end], "\n")
}

func renderRow(i int, row qz.Row, cw int) []string {
	mark := theme.Correct.Render("✓")
	if !row.Correct {
		mark = theme.Incorrect.Render("✗")
	}
	q := row.Question
	lines := []string{mark + " " + theme.Body.Bold(true).Render(fmt.Sprintf("%d. %s", i+1, q.Question))}

	correct := components.OptionLabels[q.Answer] + ") " + q.Options[q.Answer]
	switch {
	case !row.Answered():
		lines = append(lines, "   "+theme.Hint.Render("No answer")+"  ·  correct: "+theme.Correct.Render(correct))
	case !row.Correct:
		yours := components.OptionLabels[row.Answer] + ") " + q.Options[row.Answer]
		lines = append(lines, "   "+theme.Incorrect.Render("you: "+yours)+"  ·  correct: "+theme.Correct.Render(correct))
	}
	if q.Explanation != "" {
		wrapped := lipgloss.NewStyle().Width(cw - 3).Foreground(theme.TextDim).Render(q.Explanation)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, "   "+l)
		}
	}
	return append(lines, "")
}

func verdict(pct int) string {
	switch {
	case pct >= 90:
		return "Excellent!"
	case pct >= 70:
		return "Good job"
	case pct >= 50:
		return "Keep practicing"
	default:
		return "Review this material"
	}
}

func zoneText(s qz.Settings) string {
	if s.Category != "" {
		return s.Category
	}
	return "zone " + s.ZoneLabel()
}

func formatElapsed(d time.Duration) string {
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, sec)
}
