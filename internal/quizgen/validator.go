package quizgen

import (
	"fmt"

	"github.com/abhisek/cloudverse/internal/catalog"
)

// Validator checks one generated question.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(q *catalog.MCQ, input Input) *ValidationError
}

// ValidationError describes why a generated question was rejected.
type ValidationError struct {
	Validator string
	Index     int // position in the batch, -1 for batch-level failures
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
	}
	return fmt.Sprintf("validator %q: question %d: %s", e.Validator, e.Index+1, e.Message)
}
