package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records every request.
// Once the script runs out it answers with Fallback, or fails as
// unavailable when Fallback is nil.
type MockProvider struct {
	mu       sync.Mutex
	replies  []MockResponse
	Calls    []Request
	Fallback func(Request) MockResponse
}

func NewMockProvider(replies ...MockResponse) *MockProvider {
	return &MockProvider{replies: replies}
}

// NewOfflineProvider is the "mock" provider: it answers structured requests
// with sample quiz questions and plain ones with "ok", so the quiz flow can
// be tried without an API key.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{Fallback: func(req Request) MockResponse {
		if req.Schema == nil {
			return MockResponse{Content: json.RawMessage("ok"), Usage: Usage{InputTokens: 8, OutputTokens: 1}}
		}
		return QuizReply(SampleQuestions("this topic", 5)...)
	}}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	var reply MockResponse
	switch {
	case len(m.replies) > 0:
		reply, m.replies = m.replies[0], m.replies[1:]
	case m.Fallback != nil:
		reply = m.Fallback(req)
	default:
		return nil, &Error{Kind: KindUnavailable, Provider: "mock", Err: errors.New("no scripted reply left")}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Response{Content: reply.Content, Usage: reply.Usage, Model: "mock", Stop: StopEnd}, nil
}

func (m *MockProvider) ModelID() string { return "mock" }

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockQuestion is a multiple choice question in the JSON shape quiz
// generation asks providers for.
type MockQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// QuizReply scripts a quiz batch reply holding questions.
func QuizReply(questions ...MockQuestion) MockResponse {
	body, err := json.Marshal(struct {
		Questions []MockQuestion `json:"questions"`
	}{questions})
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{
		Content: body,
		Usage:   Usage{InputTokens: 350, OutputTokens: 90 * len(questions)},
	}
}

var sampleOptions = [][]string{
	{"It is scoped to a single region", "It is global", "It is scoped to one availability zone", "It is scoped to an account"},
	{"Pay per request", "Pay per reserved hour", "A flat monthly fee", "It is always free"},
	{"The provider", "The customer", "Both equally", "Neither"},
	{"Horizontal scaling", "Vertical scaling", "Manual scaling", "No scaling"},
}

// SampleQuestions returns n distinct well-formed questions about subject.
// The correct answer rotates through the four positions.
func SampleQuestions(subject string, n int) []MockQuestion {
	qs := make([]MockQuestion, n)
	for i := range qs {
		qs[i] = MockQuestion{
			Question:      fmt.Sprintf("Sample question %d: which statement about %s is correct?", i+1, subject),
			Options:       sampleOptions[i%len(sampleOptions)],
			CorrectAnswer: i % 4,
			Explanation:   fmt.Sprintf("Offline sample %d; configure a provider for real questions.", i+1),
		}
	}
	return qs
}
