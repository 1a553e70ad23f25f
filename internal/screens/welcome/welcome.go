// Package welcome shows the splash screen while saved progress loads.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/router"
	"github.com/abhisek/cloudverse/internal/screen"
	"github.com/abhisek/cloudverse/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 300 * time.Millisecond
	totalDur     = 1200 * time.Millisecond
)

const cloudArt = `     .--.    .-.
  .-(    ).-(   ).
 (___.__)__(___.__)`

// drift frames slide a small cloud under the art.
var driftFrames = []string{"☁      ", " ☁     ", "  ☁    ", "   ☁   ", "    ☁  ", "     ☁ ", "      ☁"}

type tickMsg time.Time

// WelcomeScreen animates a splash and then replaces itself with the home
// screen once the user presses a key and progress has finished loading.
type WelcomeScreen struct {
	homeFactory  func() screen.Screen
	status       func() progress.Status
	elapsed      time.Duration
	tickCount    int
	wantsHome    bool
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen. status reports the progress store's load
// state; nil means always ready.
func New(homeFactory func() screen.Screen, status func() progress.Status) *WelcomeScreen {
	if status == nil {
		status = func() progress.Status { return progress.StatusReady }
	}
	return &WelcomeScreen{
		homeFactory: homeFactory,
		status:      status,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.transitioned {
			return w, nil
		}
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		if w.wantsHome && w.loaded() {
			return w, w.transition()
		}
		return w, tick()

	case tea.KeyPressMsg:
		// A key skips the animation, but home waits for progress.
		w.wantsHome = true
		w.elapsed = totalDur
		if w.loaded() {
			return w, w.transition()
		}
		return w, nil
	}

	return w, nil
}

func (w *WelcomeScreen) loaded() bool {
	return w.status() != progress.StatusLoading
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	homeScreen := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: homeScreen}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	sections = append(sections, lipgloss.NewStyle().Foreground(theme.Text).Render(cloudArt))
	if w.elapsed >= phase1End {
		frame := driftFrames[w.tickCount%len(driftFrames)]
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Secondary).Render(frame))
	}

	if w.elapsed >= totalDur {
		sections = append(sections, "", RenderBanner(width), "")
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Cloud computing, one topic at a time"))
		sections = append(sections, "", w.statusLine())
	}

	content := strings.Join(sections, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (w *WelcomeScreen) statusLine() string {
	hint := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
	switch w.status() {
	case progress.StatusLoading:
		return hint.Render("loading your progress…")
	case progress.StatusFailed:
		return theme.Warning.Render("Saved progress could not be loaded; changes this session will not be saved.") +
			"\n" + hint.Render("press any key to continue")
	}
	return hint.Render("press any key to continue")
}
