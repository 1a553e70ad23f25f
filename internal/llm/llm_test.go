package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// quizSchema mirrors the batch shape quiz generation requests.
var quizSchema = &Schema{
	Name:        "cloud-quiz",
	Description: "A batch of multiple choice questions about a cloud computing topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question":      map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 4, "maxItems": 4},
						"correctAnswer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
						"explanation":   map[string]any{"type": "string"},
					},
					"required":             []any{"question", "options", "correctAnswer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

const s3Quiz = `{"questions":[{"question":"Which S3 storage class suits rarely read archives?","options":["Standard","Glacier Deep Archive","Intelligent-Tiering","One Zone-IA"],"correctAnswer":1,"explanation":"Deep Archive is the cheapest tier for data read once or twice a year."}]}`

func quizRequest() Request {
	return Request{
		System:    "You are a cloud computing instructor writing exam questions.",
		Prompt:    `Generate 1 multiple choice questions about "Amazon S3".`,
		Schema:    quizSchema,
		MaxTokens: 2048,
	}
}

func TestSchema_ValidatesQuizBatch(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		ok    bool
	}{
		{"valid batch", s3Quiz, true},
		{"three options", `{"questions":[{"question":"Q?","options":["a","b","c"],"correctAnswer":0,"explanation":"e"}]}`, false},
		{"answer out of range", `{"questions":[{"question":"Q?","options":["a","b","c","d"],"correctAnswer":4,"explanation":"e"}]}`, false},
		{"extra field", `{"questions":[{"question":"Q?","options":["a","b","c","d"],"correctAnswer":0,"explanation":"e","hint":"h"}]}`, false},
		{"empty batch", `{"questions":[]}`, false},
		{"not json", "Here are your questions: ...", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := quizSchema.Validate(json.RawMessage(tt.reply))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			kind, ok := KindOf(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, KindInvalidResponse, kind)
		})
	}
}

func TestMockProvider_QuizFixtures(t *testing.T) {
	qs := SampleQuestions("VPC peering", 6)
	require.Len(t, qs, 6)
	seen := map[string]bool{}
	for i, q := range qs {
		assert.Len(t, q.Options, 4)
		assert.Equal(t, i%4, q.CorrectAnswer)
		assert.Contains(t, q.Question, "VPC peering")
		assert.False(t, seen[q.Question])
		seen[q.Question] = true
	}

	reply := QuizReply(qs...)
	require.NoError(t, reply.Err)
	assert.NoError(t, quizSchema.Validate(reply.Content))
	assert.Equal(t, 540, reply.Usage.OutputTokens)

	m := NewMockProvider(reply)
	resp, err := m.Generate(context.Background(), quizRequest())
	require.NoError(t, err)
	assert.JSONEq(t, string(reply.Content), string(resp.Content))
	assert.Equal(t, quizRequest().Prompt, m.Calls[0].Prompt)

	_, err = m.Generate(context.Background(), quizRequest())
	kind, _ := KindOf(err)
	assert.Equal(t, KindUnavailable, kind)
	assert.Equal(t, 2, m.CallCount())
}

func TestOfflineProvider_AnswersQuizRequests(t *testing.T) {
	p := NewOfflineProvider()

	resp, err := p.Generate(context.Background(), quizRequest())
	require.NoError(t, err)
	require.NoError(t, quizSchema.Validate(resp.Content))

	var batch struct {
		Questions []MockQuestion `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(resp.Content, &batch))
	assert.Len(t, batch.Questions, 5)

	resp, err = p.Generate(context.Background(), Request{Prompt: "Reply with the single word: ok"})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Content))
}

func TestComplete_TruncatedQuizIsNotValidated(t *testing.T) {
	_, err := complete("gemini", quizRequest(), `{"questions":[{"question":"Which`, Usage{}, "gemini-2.5-flash", StopMaxTokens)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindTruncated, e.Kind)
	assert.Equal(t, "gemini", e.Provider)
	assert.False(t, e.Retryable())

	_, err = complete("gemini", quizRequest(), `{"questions":[]}`, Usage{}, "gemini-2.5-flash", StopEnd)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindInvalidResponse, e.Kind)
	assert.Equal(t, "gemini", e.Provider)
}

func TestFromStatus(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")

	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{0, KindUnavailable, true},
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusUnauthorized, KindRejected, false},
		{http.StatusNotFound, KindRejected, false},
		{http.StatusServiceUnavailable, KindUnavailable, true},
	}
	for _, tt := range tests {
		e := fromStatus("openai", tt.status, h, io.ErrUnexpectedEOF)
		assert.Equal(t, tt.kind, e.Kind, "status %d", tt.status)
		assert.Equal(t, tt.retryable, e.Retryable(), "status %d", tt.status)
	}

	rl := fromStatus("anthropic", 429, h, io.ErrUnexpectedEOF)
	assert.Equal(t, "7s", rl.RetryAfter.String())
	assert.Equal(t, []any{"provider", "anthropic", "kind", "rate_limited", "status", 429, "retry_after", rl.RetryAfter, "error", "unexpected EOF"}, rl.LogFields())
	assert.Equal(t, "anthropic: rate_limited (HTTP 429): unexpected EOF", rl.Error())
}

func TestAnthropicProvider_QuizRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_01",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-haiku-4-5-20251001",
			"content":     []map[string]any{{"type": "text", "text": s3Quiz}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 310, "output_tokens": 95},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

	resp, err := p.Generate(context.Background(), quizRequest())
	require.NoError(t, err)
	assert.JSONEq(t, s3Quiz, string(resp.Content))
	assert.Equal(t, 405, resp.Usage.Total())
	assert.Equal(t, StopEnd, resp.Stop)

	assert.Equal(t, "claude-haiku-4-5-20251001", body["model"])
	assert.EqualValues(t, 2048, body["max_tokens"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestAnthropicProvider_RateLimited(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), quizRequest())
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 429, e.Status)
	assert.Equal(t, "12s", e.RetryAfter.String())
	assert.Equal(t, 1, calls, "SDK retries must stay off")
}

func TestAnthropicProvider_TruncatedQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_02",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-haiku-4-5-20251001",
			"content":     []map[string]any{{"type": "text", "text": `{"questions":[{"question":"Which S3`}},
			"stop_reason": "max_tokens",
			"usage":       map[string]any{"input_tokens": 310, "output_tokens": 2048},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key"}, option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), quizRequest())
	kind, _ := KindOf(err)
	assert.Equal(t, KindTruncated, kind)
}

func TestOpenAIProvider_QuizRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini-2024-07-18",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": s3Quiz}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 280, "completion_tokens": 88, "total_tokens": 368},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), quizRequest())
	require.NoError(t, err)
	assert.JSONEq(t, s3Quiz, string(resp.Content))
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, 368, resp.Usage.Total())

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "cloud-quiz", format["json_schema"].(map[string]any)["name"])
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-test", Model: "gpt-4o-mini", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), quizRequest())
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindUnavailable, e.Kind)
	assert.Equal(t, "openai", e.Provider)
	assert.Equal(t, 503, e.Status)
}

func TestOpenRouterProvider_PassesVendorModel(t *testing.T) {
	var model, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		model, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"auth_error"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "google/gemini-2.0-flash-exp", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())

	_, err = p.Generate(context.Background(), quizRequest())
	assert.Equal(t, "google/gemini-2.0-flash-exp", model)
	assert.Equal(t, "/chat/completions", path)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindRejected, e.Kind)
	assert.Equal(t, "openrouter", e.Provider)

	_, err = NewOpenRouterProvider(OpenRouterConfig{})
	assert.ErrorContains(t, err, "openrouter: API key is required")
}

func TestGeminiProvider_QuizRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": s3Quiz}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 260, "candidatesTokenCount": 90, "totalTokenCount": 350},
			"modelVersion":  "gemini-2.5-flash",
		})
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "g-test", Model: "gemini-flash", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", p.ModelID())

	resp, err := p.Generate(context.Background(), quizRequest())
	require.NoError(t, err)
	assert.JSONEq(t, s3Quiz, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 260, OutputTokens: 90}, resp.Usage)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)

	assert.NotNil(t, body["contents"])
}

func TestGeminiSchema_QuizShape(t *testing.T) {
	s := geminiSchema(quizSchema.Definition)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"questions"}, s.Required)

	batch := s.Properties["questions"]
	require.NotNil(t, batch)
	assert.Equal(t, genai.TypeArray, batch.Type)
	require.NotNil(t, batch.MinItems)
	assert.EqualValues(t, 1, *batch.MinItems)

	item := batch.Items
	require.NotNil(t, item)
	assert.Equal(t, []string{"question", "options", "correctAnswer", "explanation"}, item.PropertyOrdering)

	opts := item.Properties["options"]
	require.NotNil(t, opts.MaxItems)
	assert.EqualValues(t, 4, *opts.MaxItems)
	assert.Equal(t, genai.TypeString, opts.Items.Type)

	answer := item.Properties["correctAnswer"]
	assert.Equal(t, genai.TypeInteger, answer.Type)
	require.NotNil(t, answer.Maximum)
	assert.Equal(t, 3.0, *answer.Maximum)
}

func TestPricing_CoversResolvedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	for _, model := range []string{
		resolveModel(cfg.Gemini.Model),
		resolveModel(cfg.OpenAI.Model),
		resolveModel(cfg.Anthropic.Model),
		cfg.OpenRouter.Model,
		resolveModel("gemini-pro"),
		resolveModel("gemini-lite"),
		resolveModel("claude-sonnet"),
		"models/gemini-2.5-flash",
		"gpt-4o-mini-2024-07-18",
		"mock",
	} {
		_, ok := LookupCost(model)
		assert.True(t, ok, "no price for %s", model)
	}

	_, ok := LookupCost("llama-3-70b")
	assert.False(t, ok)

	flash, _ := LookupCost("gemini-2.5-flash")
	assert.InDelta(t, 0.0028, flash.Cost(1000, 1000), 1e-9)
}

func TestRequestTags(t *testing.T) {
	bg := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(bg))
	assert.Empty(t, TopicFrom(bg))
	assert.Equal(t, []any{"purpose", "unknown"}, tagFields(bg))

	// Tags compose in either order.
	ctx := WithPurpose(WithTopic(bg, "aws-s3"), PurposeQuizGen)
	assert.Equal(t, PurposeQuizGen, PurposeFrom(ctx))
	assert.Equal(t, "aws-s3", TopicFrom(ctx))
	assert.Equal(t, []any{"purpose", "quiz-gen", "topic", "aws-s3"}, tagFields(ctx))

	ctx = WithTopic(WithPurpose(bg, PurposeTest), "Kubernetes networking")
	assert.Equal(t, PurposeTest, PurposeFrom(ctx))
	assert.Equal(t, "Kubernetes networking", TopicFrom(ctx))
}
