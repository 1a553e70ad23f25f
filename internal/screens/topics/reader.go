package topics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	quizscreen "github.com/abhisek/cloudverse/internal/screens/quiz"
	"github.com/abhisek/cloudverse/internal/ui/components"
	"github.com/abhisek/cloudverse/internal/ui/layout"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

const maxReaderWidth = 96

// ReaderScreen shows one topic's lesson content. Time between opening and
// leaving the reader is recorded against the topic and today's activity.
type ReaderScreen struct {
	svc    *screen.Services
	topic  catalog.Topic
	level  catalog.Level
	opened bool

	vp            viewport.Model
	width, height int
	dirty         bool

	editing bool
	notes   components.TextInput

	startedAt time.Time
	flash     string
}

var _ screen.Screen = (*ReaderScreen)(nil)
var _ screen.Leaver = (*ReaderScreen)(nil)
var _ screen.InputCapturer = (*ReaderScreen)(nil)

// NewReader creates a reader for topic at beginner level.
func NewReader(svc *screen.Services, topic catalog.Topic) *ReaderScreen {
	return &ReaderScreen{
		svc:   svc,
		topic: topic,
		level: catalog.LevelBeginner,
		vp:    viewport.New(),
		dirty: true,
	}
}

// Init stamps the topic as accessed and starts the reading clock.
func (r *ReaderScreen) Init() tea.Cmd {
	r.startedAt = r.svc.Clock()
	r.opened = true
	if _, err := r.svc.Progress.UpdateTopic(context.Background(), r.topic.ID, progress.TopicUpdate{}); err != nil {
		r.svc.Log().Warn("failed to stamp topic access", "topic_id", r.topic.ID, "error", err)
	}
	return nil
}

// OnLeave records the reading time. Opening a reader that was never
// initialized records nothing.
func (r *ReaderScreen) OnLeave() tea.Cmd {
	if !r.opened {
		return nil
	}
	r.opened = false

	secs := int(r.svc.Clock().Sub(r.startedAt).Seconds())
	if secs <= 0 {
		return nil
	}

	ctx := context.Background()
	if _, err := r.svc.Progress.RecordTimeSpent(ctx, r.topic.ID, secs); err != nil {
		r.svc.Log().Warn("failed to record reading time", "topic_id", r.topic.ID, "error", err)
	}
	if _, err := r.svc.Progress.RecordDailyActivity(ctx, progress.Activity{TimeSpent: secs, TopicsViewed: 1}); err != nil {
		r.svc.Log().Warn("failed to record daily activity", "topic_id", r.topic.ID, "error", err)
	}
	return nil
}

func (r *ReaderScreen) CapturingInput() bool {
	return r.editing
}

func (r *ReaderScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if r.editing {
		if ok {
			switch kmsg.String() {
			case "enter":
				r.saveNotes()
				return r, nil
			case "esc":
				r.editing = false
				r.flash = ""
				return r, nil
			}
		}
		var cmd tea.Cmd
		r.notes, cmd = r.notes.Update(msg)
		return r, cmd
	}
	if !ok {
		var cmd tea.Cmd
		r.vp, cmd = r.vp.Update(msg)
		return r, cmd
	}

	r.flash = ""
	switch kmsg.String() {
	case "tab":
		r.setLevel(nextLevel(r.level))
	case "1":
		r.setLevel(catalog.LevelBeginner)
	case "2":
		r.setLevel(catalog.LevelIntermediate)
	case "3":
		r.setLevel(catalog.LevelAdvanced)
	case "c":
		r.markComplete()
	case "b":
		r.toggleBookmark()
	case "n":
		tp, _ := r.svc.Progress.Topic(r.topic.ID)
		r.editing = true
		r.notes = components.NewTextInput("notes for this topic…", tp.Notes, 500)
		r.notes.SetWidth(max(r.contentWidth()-4, 20))
		return r, r.notes.Init()
	case "g":
		if !r.svc.CanGenerate() {
			r.flash = "AI quizzes need an LLM provider (see `cloudverse llm`)."
			return r, nil
		}
		s := quizscreen.NewGenerated(r.svc, r.topic)
		return r, func() tea.Msg { return router.PushScreenMsg{Screen: s} }
	case "q":
		return r, func() tea.Msg { return router.PopScreenMsg{} }
	default:
		var cmd tea.Cmd
		r.vp, cmd = r.vp.Update(msg)
		return r, cmd
	}
	return r, nil
}

func (r *ReaderScreen) setLevel(l catalog.Level) {
	if l == r.level {
		return
	}
	r.level = l
	r.dirty = true
}

func (r *ReaderScreen) markComplete() {
	if _, err := r.svc.Progress.MarkComplete(context.Background(), r.topic.ID); err != nil {
		r.flash = "Could not mark complete: " + err.Error()
		return
	}
	r.flash = "Marked complete."
	r.dirty = true
}

func (r *ReaderScreen) toggleBookmark() {
	if _, err := r.svc.Progress.ToggleBookmark(context.Background(), r.topic.ID); err != nil {
		r.flash = "Could not toggle bookmark: " + err.Error()
		return
	}
	tp, _ := r.svc.Progress.Topic(r.topic.ID)
	if tp.Bookmarked {
		r.flash = "Bookmarked."
	} else {
		r.flash = "Bookmark removed."
	}
	r.dirty = true
}

func (r *ReaderScreen) saveNotes() {
	r.editing = false
	notes := strings.TrimSpace(r.notes.Value())
	if _, err := r.svc.Progress.SetNotes(context.Background(), r.topic.ID, notes); err != nil {
		r.flash = "Could not save notes: " + err.Error()
		return
	}
	r.flash = "Notes saved."
	r.dirty = true
}

func (r *ReaderScreen) contentWidth() int {
	if r.width == 0 {
		return maxReaderWidth
	}
	return min(r.width-4, maxReaderWidth)
}

func (r *ReaderScreen) View(width, height int) string {
	vpHeight := max(height-4, 3)
	if r.editing {
		vpHeight = max(vpHeight-3, 3)
	}
	if width != r.width || vpHeight != r.height {
		r.width, r.height = width, vpHeight
		r.vp.SetWidth(r.contentWidth())
		r.vp.SetHeight(vpHeight)
		r.dirty = true
	}
	if r.dirty {
		r.vp.SetContent(r.render(r.contentWidth()))
		r.dirty = false
	}

	var b strings.Builder
	b.WriteString(r.statusLine())
	b.WriteString("\n\n")
	b.WriteString(r.vp.View())

	if r.editing {
		b.WriteString("\n\n")
		b.WriteString(theme.Section.Render("Notes ") + r.notes.View())
	} else if r.flash != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(r.flash))
	}

	return lipgloss.NewStyle().PaddingLeft(2).Render(b.String())
}

func (r *ReaderScreen) statusLine() string {
	tp, _ := r.svc.Progress.Topic(r.topic.ID)

	var tabs []string
	for _, l := range catalog.Levels {
		label := " " + strings.ToUpper(string(l[:1])) + string(l[1:]) + " "
		if l == r.level {
			tabs = append(tabs, theme.Selected.Render("["+label+"]"))
		} else {
			tabs = append(tabs, theme.Unselected.Render(" "+label+" "))
		}
	}

	parts := []string{strings.Join(tabs, "")}
	if tp.Completed {
		parts = append(parts, theme.Correct.Render("✓ complete"))
	}
	if tp.Bookmarked {
		parts = append(parts, theme.Warning.Render("★ bookmarked"))
	}
	if tp.MasteryLevel > 0 {
		parts = append(parts, theme.Hint.Render(fmt.Sprintf("mastery %d%%", tp.MasteryLevel)))
	}
	return strings.Join(parts, "  ")
}

// render builds the full scrollable body for the current level.
func (r *ReaderScreen) render(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	t := r.topic

	var b strings.Builder
	b.WriteString(theme.Title.Align(lipgloss.Left).Render(t.Title))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("Zone %s · %s · ~%d min", t.Zone, t.Category, t.EstimatedMinutes)))
	b.WriteString("\n\n")
	if t.Description != "" {
		b.WriteString(wrap.Render(theme.Subtitle.Render(t.Description)))
		b.WriteString("\n\n")
	}

	body := strings.TrimSpace(t.Content.ForLevel(r.level))
	if body == "" {
		body = "No content at this level yet."
	}
	b.WriteString(wrap.Render(theme.Body.Render(body)))
	b.WriteString("\n")

	writeList(&b, wrap, "Key points", "•", t.KeyPoints)
	writeList(&b, wrap, "Common mistakes", "✗", t.CommonMistakes)
	if t.Summary != "" {
		b.WriteString("\n" + theme.Section.Render("Summary") + "\n")
		b.WriteString(wrap.Render(t.Summary))
		b.WriteString("\n")
	}
	writeList(&b, wrap, "Cheatsheet", "›", t.Cheatsheet)

	if len(t.RelatedTopics) > 0 {
		var titles []string
		for _, id := range t.RelatedTopics {
			if rt, ok := r.svc.Catalog.Topic(id); ok {
				titles = append(titles, rt.Title)
			}
		}
		writeList(&b, wrap, "Related topics", "→", titles)
	}

	if tp, ok := r.svc.Progress.Topic(r.topic.ID); ok && tp.Notes != "" {
		b.WriteString("\n" + theme.Section.Render("Your notes") + "\n")
		b.WriteString(wrap.Render(tp.Notes))
		b.WriteString("\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, wrap lipgloss.Style, heading, bullet string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + theme.Section.Render(heading) + "\n")
	for _, it := range items {
		b.WriteString(wrap.Render(fmt.Sprintf("  %s %s", bullet, it)))
		b.WriteString("\n")
	}
}

func nextLevel(l catalog.Level) catalog.Level {
	for i, lv := range catalog.Levels {
		if lv == l {
			return catalog.Levels[(i+1)%len(catalog.Levels)]
		}
	}
	return catalog.LevelBeginner
}

func (r *ReaderScreen) Title() string {
	return r.topic.Title
}

func (r *ReaderScreen) KeyHints() []layout.KeyHint {
	if r.editing {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save notes"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Tab", Description: "Level"},
		{Key: "c", Description: "Complete"},
		{Key: "b", Description: "Bookmark"},
		{Key: "n", Description: "Notes"},
	}
	if r.svc.CanGenerate() {
		hints = append(hints, layout.KeyHint{Key: "g", Description: "AI quiz"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}
