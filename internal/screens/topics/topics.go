// Package topics lists the catalog topics and opens the topic reader.
package topics

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/ui/components"
	"github.com/abhisek/cloudverse/internal/ui/layout"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

type rowKind int

const (
	rowZoneHeader rowKind = iota
	rowCategoryHeader
	rowTopic
)

type row struct {
	kind     rowKind
	zone     catalog.Zone
	category string
	topic    *catalog.Topic
}

// ListScreen shows every topic grouped by zone and category.
type ListScreen struct {
	svc          *screen.Services
	rows         []row
	cursor       int
	scrollOffset int

	searching bool
	search    components.TextInput
	query     string
}

var _ screen.Screen = (*ListScreen)(nil)
var _ screen.InputCapturer = (*ListScreen)(nil)

// New creates a ListScreen over the whole catalog.
func New(svc *screen.Services) *ListScreen {
	s := &ListScreen{svc: svc}
	s.rebuild()
	return s
}

// rebuild lays out rows for the current query and puts the cursor on the
// first topic.
func (s *ListScreen) rebuild() {
	var topics []catalog.Topic
	if s.query == "" {
		topics = s.svc.Catalog.Topics()
	} else {
		topics = s.svc.Catalog.Search(s.query)
	}

	s.rows = s.rows[:0]
	var zone catalog.Zone
	var category string
	for i := range topics {
		t := &topics[i]
		if t.Zone != zone {
			zone = t.Zone
			category = ""
			s.rows = append(s.rows, row{kind: rowZoneHeader, zone: zone})
		}
		if t.Category != category {
			category = t.Category
			s.rows = append(s.rows, row{kind: rowCategoryHeader, zone: zone, category: category})
		}
		s.rows = append(s.rows, row{kind: rowTopic, zone: zone, category: category, topic: t})
	}

	s.cursor = 0
	s.scrollOffset = 0
	if len(s.rows) > 0 && s.rows[0].kind != rowTopic {
		s.moveCursor(1)
	}
}

func (s *ListScreen) Init() tea.Cmd {
	return nil
}

func (s *ListScreen) CapturingInput() bool {
	return s.searching
}

func (s *ListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		if s.searching {
			var cmd tea.Cmd
			s.search, cmd = s.search.Update(msg)
			return s, cmd
		}
		return s, nil
	}

	if s.searching {
		return s, s.handleSearchKey(kmsg)
	}

	switch kmsg.String() {
	case "up", "k":
		s.moveCursor(-1)
	case "down", "j":
		s.moveCursor(1)
	case "tab":
		s.jumpCategory(1)
	case "shift+tab":
		s.jumpCategory(-1)
	case "/":
		s.searching = true
		s.search = components.NewTextInput("search topics…", s.query, 60)
		return s, s.search.Init()
	case "enter":
		return s, s.open()
	case "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return s, nil
}

func (s *ListScreen) handleSearchKey(k tea.KeyPressMsg) tea.Cmd {
	switch k.String() {
	case "esc":
		s.searching = false
		s.query = ""
		s.rebuild()
		return nil
	case "enter":
		s.searching = false
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(k)
	if q := strings.TrimSpace(s.search.Value()); q != s.query {
		s.query = q
		s.rebuild()
	}
	return cmd
}

func (s *ListScreen) open() tea.Cmd {
	if s.cursor >= len(s.rows) || s.rows[s.cursor].kind != rowTopic {
		return nil
	}
	reader := NewReader(s.svc, *s.rows[s.cursor].topic)
	return func() tea.Msg { return router.PushScreenMsg{Screen: reader} }
}

// moveCursor moves the cursor by delta, skipping headers.
func (s *ListScreen) moveCursor(delta int) {
	next := s.cursor + delta
	for next >= 0 && next < len(s.rows) {
		if s.rows[next].kind == rowTopic {
			s.cursor = next
			return
		}
		next += delta
	}
}

// jumpCategory moves to the first topic of the next or previous category.
func (s *ListScreen) jumpCategory(dir int) {
	if len(s.rows) == 0 {
		return
	}
	current := s.rows[s.cursor].category
	for i := s.cursor + dir; i >= 0 && i < len(s.rows); i += dir {
		r := s.rows[i]
		if r.kind != rowTopic || r.category == current {
			continue
		}
		// Walk back to the first topic of that category.
		for i-1 >= 0 && s.rows[i-1].kind == rowTopic && s.rows[i-1].category == r.category {
			i--
		}
		s.cursor = i
		return
	}
}

func (s *ListScreen) View(width, height int) string {
	var header string
	if s.searching {
		header = theme.Section.Render("  / ") + s.search.View()
	} else if s.query != "" {
		header = theme.Hint.Render(fmt.Sprintf("  results for %q (/ to change)", s.query))
	}

	listHeight := height
	if header != "" {
		listHeight -= 2
	}
	if len(s.rows) == 0 {
		return header + "\n\n" + theme.Hint.Render("  No topics match.")
	}

	s.adjustScroll(listHeight)
	progressByTopic := s.svc.Progress.Topics()

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < listHeight; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowZoneHeader:
			lines = append(lines, theme.Title.Align(lipgloss.Left).Render(zoneTitle(r.zone)))
		case rowCategoryHeader:
			lines = append(lines, theme.Section.Render("  "+strings.ToUpper(r.category)))
		case rowTopic:
			tp := progressByTopic[r.topic.ID]
			lines = append(lines, renderTopicRow(r.topic, tp, i == s.cursor, width))
		}
	}

	body := strings.Join(lines, "\n")
	if header != "" {
		return header + "\n\n" + body
	}
	return body
}

func (s *ListScreen) Title() string {
	return "Topics"
}

func (s *ListScreen) KeyHints() []layout.KeyHint {
	if s.searching {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Keep results"},
			{Key: "Esc", Description: "Clear"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Category"},
		{Key: "/", Description: "Search"},
		{Key: "Enter", Description: "Read"},
		{Key: "Esc", Description: "Back"},
	}
}

// adjustScroll keeps the cursor and its headers inside the window.
func (s *ListScreen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	headerRow := s.cursor
	for headerRow > 0 && s.rows[headerRow-1].kind != rowTopic {
		headerRow--
	}
	if headerRow < s.scrollOffset {
		s.scrollOffset = headerRow
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func zoneTitle(z catalog.Zone) string {
	switch z {
	case catalog.ZoneA:
		return "Zone A · Exam fundamentals"
	case catalog.ZoneB:
		return "Zone B · Professional"
	}
	return "Zone " + string(z)
}

func renderTopicRow(t *catalog.Topic, tp progress.TopicProgress, selected bool, width int) string {
	mark := "○"
	markStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	if tp.Completed {
		mark = "✓"
		markStyle = theme.Correct
	}
	star := " "
	if tp.Bookmarked {
		star = theme.Warning.Render("★")
	}

	meta := fmt.Sprintf("%3d min", t.EstimatedMinutes)
	if tp.MasteryLevel > 0 {
		meta = fmt.Sprintf("%3d%%  ", tp.MasteryLevel) + meta
	}

	nameWidth := max(width-lipgloss.Width(meta)-14, 10)
	name := fmt.Sprintf("%-*s", nameWidth, layout.Truncate(t.Title, nameWidth))

	cursor := "  "
	nameStyle := theme.Unselected
	if selected {
		cursor = "▸ "
		nameStyle = theme.Selected
	}

	return fmt.Sprintf("    %s%s %s %s  %s",
		cursor,
		markStyle.Render(mark),
		star,
		nameStyle.Render(name),
		theme.Hint.Render(meta))
}
