package quizgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run on every generated question in order; the first
	// failure rejects the batch.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxCount caps Input.Count.
	MaxCount int

	// MaxPriorQuestions is how many prior questions go into the prompt.
	MaxPriorQuestions int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
		},
		MaxTokens:         2048,
		Temperature:       0.7,
		MaxCount:          30,
		MaxPriorQuestions: 10,
	}
}
