package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/screens/home"
	"github.com/abhisek/cloudverse/internal/screens/welcome"
	"github.com/abhisek/cloudverse/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	svc    *screen.Services
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel that opens on the splash screen.
func newAppModel(svc *screen.Services) AppModel {
	splash := welcome.New(func() screen.Screen { return home.New(svc) }, svc.Progress.Status)
	return AppModel{
		svc:    svc,
		router: router.New(splash),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if c, ok := m.router.Active().(screen.InputCapturer); ok && c.CapturingInput() {
			break
		}
		if msg.String() == "esc" {
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// quit unwinds the stack so reading time on an open topic is still
// recorded, then exits.
func (m AppModel) quit() tea.Cmd {
	var cmds []tea.Cmd
	for m.router.Depth() > 1 {
		if cmd := m.router.Pop(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Sequence(tea.Batch(cmds...), tea.Quit)
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}
	// Untitled screens (the splash) own the whole terminal.
	if title == "" {
		v.SetContent(m.router.View(m.width, m.height))
		return v
	}

	user := m.svc.Progress.User()
	header := layout.RenderHeader(title, user.CurrentStreak, user.QuizzesTaken, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	}
	if footerHints == nil {
		if m.router.Depth() > 1 {
			footerHints = []layout.KeyHint{
				{Key: "Esc", Description: "Back"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		} else {
			footerHints = []layout.KeyHint{
				{Key: "↑↓", Description: "Navigate"},
				{Key: "Enter", Description: "Select"},
				{Key: "Ctrl+C", Description: "Quit"},
			}
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(svc *screen.Services) error {
	p := tea.NewProgram(newAppModel(svc))
	if _, err := p.Run(); err != nil {
		svc.Log().Error("tui exited with error", "error", err)
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
