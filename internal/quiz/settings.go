package quiz

import (
	"fmt"
	"strings"

	"github.com/abhisek/cloudverse/internal/catalog"
)

// Bounds and defaults for quiz settings.
const (
	MinCount     = 5
	MaxCount     = 30
	DefaultCount = 10

	MinTimePerQuestion     = 10
	MaxTimePerQuestion     = 120
	DefaultTimePerQuestion = 30
)

// MixedDifficulty is recorded for sessions that draw from every difficulty.
const MixedDifficulty = "mixed"

// Settings configures one quiz session. A zero Zone means all zones and a
// zero Difficulty means mixed.
type Settings struct {
	Zone            catalog.Zone
	Category        string
	Difficulty      catalog.Difficulty
	Count           int
	Timed           bool
	TimePerQuestion int // seconds
}

// DefaultSettings returns the initial setup values.
func DefaultSettings() Settings {
	return Settings{
		Count:           DefaultCount,
		TimePerQuestion: DefaultTimePerQuestion,
	}
}

// Normalize clamps Count and TimePerQuestion into range. Zero values take
// the defaults.
func (s Settings) Normalize() Settings {
	if s.Count == 0 {
		s.Count = DefaultCount
	}
	s.Count = clamp(s.Count, MinCount, MaxCount)

	if s.TimePerQuestion == 0 {
		s.TimePerQuestion = DefaultTimePerQuestion
	}
	s.TimePerQuestion = clamp(s.TimePerQuestion, MinTimePerQuestion, MaxTimePerQuestion)
	return s
}

// Filter converts the settings to a catalog sampling filter.
func (s Settings) Filter() catalog.Filter {
	return catalog.Filter{Zone: s.Zone, Category: s.Category, Difficulty: s.Difficulty}
}

// RecordedDifficulty is the difficulty stored with quiz scores: the chosen
// difficulty, or medium for mixed sessions.
func (s Settings) RecordedDifficulty() string {
	if s.Difficulty == "" {
		return string(catalog.DifficultyMedium)
	}
	return string(s.Difficulty)
}

// ZoneLabel renders the zone filter for display.
func (s Settings) ZoneLabel() string {
	if s.Zone == "" {
		return "all"
	}
	return string(s.Zone)
}

// DifficultyLabel renders the difficulty filter for display.
func (s Settings) DifficultyLabel() string {
	if s.Difficulty == "" {
		return MixedDifficulty
	}
	return string(s.Difficulty)
}

// ParseZone accepts A, B or all (case-insensitive).
func ParseZone(v string) (catalog.Zone, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "ALL":
		return "", nil
	case "A":
		return catalog.ZoneA, nil
	case "B":
		return catalog.ZoneB, nil
	}
	return "", fmt.Errorf("unknown zone %q (want A, B or all)", v)
}

// ParseDifficulty accepts easy, medium, hard or mixed.
func ParseDifficulty(v string) (catalog.Difficulty, error) {
	d := catalog.Difficulty(strings.ToLower(strings.TrimSpace(v)))
	if d == "" || d == MixedDifficulty {
		return "", nil
	}
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q (want easy, medium, hard or mixed)", v)
	}
	return d, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
