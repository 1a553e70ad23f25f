package quizgen

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/cloudverse/internal/catalog"
	"github.com/abhisek/cloudverse/internal/llm"
)

// IDPrefix marks question IDs that did not come from the catalog.
const IDPrefix = "gen-"

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator. A nil provider yields a generator whose
// Generate returns ErrNotConfigured.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// Configured reports whether a provider is attached.
func (g *LLMGenerator) Configured() bool {
	return g != nil && g.provider != nil
}

// mcqOutput is one raw question before validation.
type mcqOutput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type batchOutput struct {
	Questions []mcqOutput `json:"questions"`
}

// Generate produces up to input.Count questions for input.Topic.
func (g *LLMGenerator) Generate(ctx context.Context, input Input) ([]catalog.Question, error) {
	if !g.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(input.Topic.Title) == "" {
		return nil, fmt.Errorf("quizgen: topic title is required")
	}

	count := g.clampCount(input.Count)
	ctx = llm.WithTopic(llm.WithPurpose(ctx, llm.PurposeQuizGen), cmp.Or(input.Topic.ID, input.Topic.Title))

	req := llm.Request{
		System:      systemPrompt,
		Prompt:      buildUserMessage(input, count, g.config),
		Schema:      QuizSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	raw, err := parseBatch(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(raw) == 0 {
		return nil, &ValidationError{Validator: "batch", Index: -1, Message: "no questions returned"}
	}
	if len(raw) > count {
		raw = raw[:count]
	}

	difficulty := difficultyOf(input)
	seen := make(map[string]bool, len(raw)+len(input.PriorQuestions))
	for _, p := range input.PriorQuestions {
		seen[normalize(p)] = true
	}

	out := make([]catalog.Question, 0, len(raw))
	for i, r := range raw {
		mcq := catalog.MCQ{
			ID:          IDPrefix + uuid.NewString(),
			Question:    strings.TrimSpace(r.Question),
			Options:     r.Options,
			Answer:      r.CorrectAnswer,
			Explanation: strings.TrimSpace(r.Explanation),
			Difficulty:  difficulty,
			Tags:        []string{"generated"},
		}

		for _, v := range g.config.Validators {
			if verr := v.Validate(&mcq, input); verr != nil {
				verr.Index = i
				return nil, verr
			}
		}

		key := normalize(mcq.Question)
		if seen[key] {
			return nil, &ValidationError{Validator: "dedup", Index: i, Message: "question repeats an earlier one"}
		}
		seen[key] = true

		out = append(out, catalog.Question{
			MCQ:        mcq,
			TopicID:    input.Topic.ID,
			TopicTitle: input.Topic.Title,
		})
	}
	return out, nil
}

func (g *LLMGenerator) clampCount(n int) int {
	if n < 1 {
		n = 1
	}
	if g.config.MaxCount > 0 && n > g.config.MaxCount {
		n = g.config.MaxCount
	}
	return n
}

// parseBatch accepts the schema object, a bare array, or either of those
// wrapped in a markdown code fence.
func parseBatch(content json.RawMessage) ([]mcqOutput, error) {
	body := stripFences(content)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	if body[0] == '[' {
		var arr []mcqOutput
		if err := json.Unmarshal(body, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}

	var batch batchOutput
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}
	return batch.Questions, nil
}

// stripFences removes a surrounding ``` or ```json fence. Providers without
// native structured output return the JSON as a JSON string, which is
// unquoted first.
func stripFences(content []byte) []byte {
	body := bytes.TrimSpace(content)
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			body = bytes.TrimSpace([]byte(s))
		}
	}

	body = bytes.TrimPrefix(body, []byte("```json"))
	body = bytes.TrimPrefix(body, []byte("```"))
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}

func difficultyOf(input Input) catalog.Difficulty {
	if input.Difficulty.Valid() {
		return input.Difficulty
	}
	return catalog.DifficultyMedium
}
