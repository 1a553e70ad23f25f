package screen

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/logging"
	"github.com/abhisek/cloudverse/internal/progress"
	"github.com/abhisek/cloudverse/internal/quizgen"
	"github.com/abhisek/cloudverse/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that sometimes need every key,
// Esc included, e.g. while a text field is focused.
type InputCapturer interface {
	CapturingInput() bool
}

// Leaver is implemented by screens that must run something when they are
// popped off the stack.
type Leaver interface {
	OnLeave() tea.Cmd
}

// Services are the long-lived dependencies shared by all screens.
type Services struct {
	Catalog  *catalog.Catalog
	Progress *progress.Store
	// Generator is nil when no LLM provider is configured.
	Generator quizgen.Generator
	Logger    *logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Clock returns Now or time.Now.
func (s *Services) Clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Log returns Logger or a no-op logger.
func (s *Services) Log() *logging.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.Nop()
}

// CanGenerate reports whether AI quiz generation is available.
func (s *Services) CanGenerate() bool {
	return s.Generator != nil
}
