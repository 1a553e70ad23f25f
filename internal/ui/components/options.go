package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/ui/theme"
)

// OptionLabels are the letters shown in front of the four options.
var OptionLabels = []string{"A", "B", "C", "D"}

// OptionList renders the answer options of a multiple-choice question.
// When Revealed is set the correct option is green and a wrong Chosen
// option is red; otherwise Cursor is highlighted.
type OptionList struct {
	Options  []string
	Cursor   int
	Correct  int
	Chosen   int
	Revealed bool
	Width    int
}

// View renders one line per option.
func (o OptionList) View() string {
	var b strings.Builder
	for i, opt := range o.Options {
		label := "?"
		if i < len(OptionLabels) {
			label = OptionLabels[i]
		}
		prefix := "  "
		if !o.Revealed && i == o.Cursor {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%s)  %s", prefix, label, opt)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if o.Width > 0 {
			style = style.Width(o.Width)
		}

		switch {
		case o.Revealed && i == o.Correct:
			style = style.Foreground(theme.Success).Bold(true)
			line += "  ✓"
		case o.Revealed && i == o.Chosen:
			style = style.Foreground(theme.Error).Bold(true)
			line += "  ✗"
		case o.Revealed:
			style = style.Foreground(theme.TextDim)
		case i == o.Cursor:
			style = style.Foreground(theme.Primary).Bold(true)
		}

		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
