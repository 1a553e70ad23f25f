package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies provider failures by what the caller can do about them.
type Kind int

const (
	// KindUnavailable covers network failures and 5xx replies.
	KindUnavailable Kind = iota
	KindRateLimited
	// KindRejected is any other 4xx: bad key, unknown model, bad request.
	KindRejected
	// KindInvalidResponse means the reply did not match the requested schema.
	KindInvalidResponse
	// KindTruncated means a structured reply hit the token limit.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindInvalidResponse:
		return "invalid_response"
	case KindTruncated:
		return "truncated"
	}
	return "unknown"
}

// Error is the error type returned by every provider.
type Error struct {
	Kind     Kind
	Provider string
	// Status is the HTTP status when the SDK reported one.
	Status     int
	RetryAfter time.Duration
	// Content holds the offending reply for invalid and truncated responses.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether a later attempt could succeed. Invalid responses
// are retryable here; RetryProvider limits them to a single retry.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindUnavailable, KindRateLimited, KindInvalidResponse:
		return true
	}
	return false
}

// LogFields returns the error as key/value pairs for the structured logger.
func (e *Error) LogFields() []any {
	kv := []any{"provider", e.Provider, "kind", e.Kind.String()}
	if e.Status != 0 {
		kv = append(kv, "status", e.Status)
	}
	if e.RetryAfter > 0 {
		kv = append(kv, "retry_after", e.RetryAfter)
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err.Error())
	}
	return kv
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// errorFields returns log fields for any error a provider returned.
func errorFields(err error) []any {
	var e *Error
	if errors.As(err, &e) {
		return e.LogFields()
	}
	return []any{"error", err.Error()}
}

// fromStatus classifies an SDK failure by its HTTP status. Status 0 means
// the request never got a reply.
func fromStatus(provider string, status int, header http.Header, err error) *Error {
	e := &Error{Kind: KindUnavailable, Provider: provider, Status: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = retryAfter(header)
	case status >= 400 && status < 500:
		e.Kind = KindRejected
	}
	return e
}

// retryAfter reads a Retry-After header in its delay-seconds form.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
