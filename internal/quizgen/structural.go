package quizgen

import (
	"strings"

	"github.com/abhisek/cloudverse/internal/catalog"
)

const (
	maxQuestionLen    = 500
	maxExplanationLen = 1000
	maxOptionLen      = 300
)

// StructuralValidator checks required text fields and length limits.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *catalog.MCQ, _ Input) *ValidationError {
	switch {
	case strings.TrimSpace(q.Question) == "":
		return &ValidationError{Validator: v.Name(), Message: "question is empty"}
	case len(q.Question) > maxQuestionLen:
		return &ValidationError{Validator: v.Name(), Message: "question exceeds 500 characters"}
	case strings.TrimSpace(q.Explanation) == "":
		return &ValidationError{Validator: v.Name(), Message: "explanation is empty"}
	case len(q.Explanation) > maxExplanationLen:
		return &ValidationError{Validator: v.Name(), Message: "explanation exceeds 1000 characters"}
	}
	return nil
}

// OptionsValidator checks the option list and the answer index.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *catalog.MCQ, _ Input) *ValidationError {
	if len(q.Options) != catalog.OptionCount {
		return &ValidationError{Validator: v.Name(), Message: "must have exactly 4 options"}
	}
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return &ValidationError{Validator: v.Name(), Message: "correctAnswer must be between 0 and 3"}
	}

	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		key := normalize(o)
		if key == "" {
			return &ValidationError{Validator: v.Name(), Message: "option is empty"}
		}
		if len(o) > maxOptionLen {
			return &ValidationError{Validator: v.Name(), Message: "option exceeds 300 characters"}
		}
		if seen[key] {
			return &ValidationError{Validator: v.Name(), Message: "duplicate option " + o}
		}
		seen[key] = true
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
