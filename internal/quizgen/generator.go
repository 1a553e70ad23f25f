// Package quizgen produces fresh multiple-choice questions about a cloud
// topic using an LLM provider.
package quizgen

import (
	"context"
	"errors"

	"github.com/abhisek/cloudverse/internal/catalog"
)

// ErrNotConfigured is returned when no LLM provider is available.
var ErrNotConfigured = errors.New("quizgen: no LLM provider configured")

// Generator produces a batch of validated questions for one topic.
type Generator interface {
	Generate(ctx context.Context, input Input) ([]catalog.Question, error)
}

// Input holds the context needed to generate a batch.
type Input struct {
	// Topic is the subject. Only ID, Title, Description and KeyPoints are
	// used in the prompt, so an ad-hoc topic with just a Title works too.
	Topic catalog.Topic

	// Difficulty of the requested questions. Empty means medium.
	Difficulty catalog.Difficulty

	// Count is the number of questions wanted. Clamped to 1..Config.MaxCount.
	Count int

	// PriorQuestions are question texts the learner has already seen.
	// They are listed in the prompt and rejected if repeated.
	PriorQuestions []string
}

// CatalogPrior returns the texts of the topic's built-in questions so a
// generated batch does not repeat them.
func CatalogPrior(t catalog.Topic) []string {
	out := make([]string, 0, len(t.Questions))
	for _, q := range t.Questions {
		out = append(out, q.Question)
	}
	return out
}
