package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/ui/theme"
)

// ContentWidth returns the uniform inner width used for card sections,
// capped so wide terminals do not stretch them.
func ContentWidth(frameWidth, capWidth int) int {
	w := frameWidth - 6
	if w > capWidth {
		w = capWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border box of the given outer width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw - 2).
		Padding(0, 2).
		Render(content)
}

// Center places content in the middle of a width x height area.
func Center(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
