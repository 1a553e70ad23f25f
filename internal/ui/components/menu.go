package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/ui/theme"
)

// MenuItem represents a single item in a navigation menu.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical navigation menu.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a new menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}

	return m, nil
}

// View renders the menu as a column of buttons of the given width. Compact
// drops the button borders so the menu fits short terminals.
func (m Menu) View(width int, compact bool) string {
	rows := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		style := lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Padding(0, 1)
		if !compact {
			style = style.Border(lipgloss.RoundedBorder())
		}
		label := item.Label
		switch {
		case item.Disabled:
			style = style.Foreground(theme.TextDim).BorderForeground(theme.Border)
		case i == m.Selected:
			style = style.Bold(true).Foreground(theme.BgDark).Background(theme.Primary).BorderForeground(theme.Primary)
			label = "▸ " + label
		default:
			style = style.Foreground(theme.Text).BorderForeground(theme.Border)
		}
		rows = append(rows, style.Render(label))
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}
