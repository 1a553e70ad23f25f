package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/catalog"
	qz "github.com/abhisek/cloudverse/internal/quiz"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

type field int

const (
	fieldZone field = iota
	fieldCategory
	fieldDifficulty
	fieldCount
	fieldTimed
	fieldSeconds
	fieldStart
	numFields
)

var zoneChoices = []catalog.Zone{"", catalog.ZoneA, catalog.ZoneB}

var difficultyChoices = []catalog.Difficulty{"", catalog.DifficultyEasy, catalog.DifficultyMedium, catalog.DifficultyHard}

const secondsStep = 5

// setupForm edits quiz settings with up/down to pick a row and
// left/right to change its value.
type setupForm struct {
	cat      *catalog.Catalog
	settings qz.Settings
	row      field
}

func newSetupForm(cat *catalog.Catalog, s qz.Settings) setupForm {
	return setupForm{cat: cat, settings: s.Normalize(), row: fieldStart}
}

// categories lists the category IDs available for the chosen zone, led by
// the "all" choice.
func (f *setupForm) categories() []string {
	out := []string{""}
	for _, c := range f.cat.Categories() {
		if f.settings.Zone == "" || c.Zone == f.settings.Zone {
			out = append(out, c.ID)
		}
	}
	return out
}

func (f *setupForm) move(delta int) {
	next := int(f.row) + delta
	if next < 0 || next >= int(numFields) {
		return
	}
	f.row = field(next)
	if f.row == fieldSeconds && !f.settings.Timed {
		f.move(delta)
	}
}

// change steps the value of the focused row by delta.
func (f *setupForm) change(delta int) {
	s := &f.settings
	switch f.row {
	case fieldZone:
		s.Zone = zoneChoices[cycle(indexOf(zoneChoices, s.Zone), delta, len(zoneChoices))]
		if !contains(f.categories(), s.Category) {
			s.Category = ""
		}
	case fieldCategory:
		cats := f.categories()
		s.Category = cats[cycle(indexOf(cats, s.Category), delta, len(cats))]
	case fieldDifficulty:
		s.Difficulty = difficultyChoices[cycle(indexOf(difficultyChoices, s.Difficulty), delta, len(difficultyChoices))]
	case fieldCount:
		s.Count = min(max(s.Count+delta, qz.MinCount), qz.MaxCount)
	case fieldTimed:
		s.Timed = !s.Timed
	case fieldSeconds:
		s.TimePerQuestion = min(max(s.TimePerQuestion+delta*secondsStep, qz.MinTimePerQuestion), qz.MaxTimePerQuestion)
	}
}

func (f *setupForm) view(width int, errMsg string) string {
	s := f.settings
	category := "all"
	if s.Category != "" {
		category = s.Category
	}
	timed := "off"
	if s.Timed {
		timed = "on"
	}

	rows := []struct {
		f     field
		label string
		value string
	}{
		{fieldZone, "Zone", s.ZoneLabel()},
		{fieldCategory, "Category", category},
		{fieldDifficulty, "Difficulty", s.DifficultyLabel()},
		{fieldCount, "Questions", fmt.Sprintf("%d", s.Count)},
		{fieldTimed, "Timed", timed},
	}
	if s.Timed {
		rows = append(rows, struct {
			f     field
			label string
			value string
		}{fieldSeconds, "Seconds each", fmt.Sprintf("%d", s.TimePerQuestion)})
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Quiz setup"))
	b.WriteString("\n\n")

	for _, r := range rows {
		label := lipgloss.NewStyle().Width(14).Foreground(theme.TextDim).Render(r.label)
		value := "  " + r.value + "  "
		if r.f == f.row {
			value = theme.Selected.Render("◂ " + r.value + " ▸")
		} else {
			value = theme.Body.Render(value)
		}
		b.WriteString(label + value + "\n")
	}

	b.WriteString("\n")
	start := "  Start quiz  "
	if f.row == fieldStart {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.BgDark).Background(theme.Primary).Padding(0, 1).Render("▸ Start quiz"))
	} else {
		b.WriteString(theme.Body.Render(start))
	}
	b.WriteString("\n")

	if available := len(f.cat.Sample(qz.MaxCount, s.Filter(), nil)); available < s.Count {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Only %d questions match these filters.", available)))
	}
	if errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.Incorrect.Render(errMsg))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func cycle(i, delta, n int) int {
	return ((i+delta)%n + n) % n
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return 0
}

func contains[T comparable](xs []T, v T) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
