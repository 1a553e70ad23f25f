package llm

import (
	"context"
	"encoding/json"
)

// Provider turns one prompt into one completion.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, before any provider-side aliasing.
	ModelID() string
}

// defaultMaxTokens applies when a Request leaves MaxTokens unset. Anthropic
// rejects requests without a limit.
const defaultMaxTokens = 1024

// Request is a single-turn prompt: a system instruction and one user turn.
type Request struct {
	System string
	Prompt string

	// Schema asks the provider for JSON output. The reply is validated
	// against it before Generate returns.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// StopReason says why the model stopped producing output.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a completed generation. Content is the validated JSON when the
// request carried a Schema and the raw reply text otherwise.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
	Stop    StopReason
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// complete is the shared tail of every provider's Generate. A structured
// request that ran out of tokens is reported as truncated rather than sent
// to the validator, which would only see half a JSON document.
func complete(provider string, req Request, text string, usage Usage, model string, stop StopReason) (*Response, error) {
	content := json.RawMessage(text)
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &Error{Kind: KindTruncated, Provider: provider, Content: content}
		}
		if err := req.Schema.Validate(content); err != nil {
			if e, ok := err.(*Error); ok {
				e.Provider = provider
			}
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model, Stop: stop}, nil
}
