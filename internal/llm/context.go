package llm

import (
	"cmp"
	"context"
)

// Purpose labels stored on every request event. `cloudverse llm list -p`
// filters on them.
const (
	PurposeQuizGen = "quiz-gen"
	PurposeTest    = "connectivity-test"
)

type requestTagKey struct{}

// requestTag says why a request was made and which study topic it is about.
type requestTag struct {
	purpose string
	topic   string
}

func tagFrom(ctx context.Context) requestTag {
	t, _ := ctx.Value(requestTagKey{}).(requestTag)
	return t
}

// WithPurpose labels requests made with ctx. The topic tag, if any, is kept.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	t := tagFrom(ctx)
	t.purpose = purpose
	return context.WithValue(ctx, requestTagKey{}, t)
}

// WithTopic records the catalog topic (or free-text subject) a request is
// generating questions for.
func WithTopic(ctx context.Context, topic string) context.Context {
	t := tagFrom(ctx)
	t.topic = topic
	return context.WithValue(ctx, requestTagKey{}, t)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	return cmp.Or(tagFrom(ctx).purpose, "unknown")
}

// TopicFrom returns the topic tag, or "" when the request has none.
func TopicFrom(ctx context.Context) string {
	return tagFrom(ctx).topic
}

// tagFields are the logger key/value pairs for ctx's tag.
func tagFields(ctx context.Context) []any {
	kv := []any{"purpose", PurposeFrom(ctx)}
	if topic := TopicFrom(ctx); topic != "" {
		kv = append(kv, "topic", topic)
	}
	return kv
}
