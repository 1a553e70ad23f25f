package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when non-empty
}

// Record is one keyed JSON document from a progress table.
type Record struct {
	Key       string
	Data      json.RawMessage
	UpdatedAt time.Time
}

// ProgressRepo persists the three learner progress collections. Payloads are
// opaque JSON owned by the caller.
type ProgressRepo interface {
	// GetUser returns the aggregate user record, or nil if none is stored.
	GetUser(ctx context.Context) (json.RawMessage, error)
	PutUser(ctx context.Context, data json.RawMessage) error

	// ListTopics returns every topic record ordered by topic ID.
	ListTopics(ctx context.Context) ([]Record, error)
	PutTopic(ctx context.Context, topicID string, data json.RawMessage) error

	// GetDaily returns the activity record for a YYYY-MM-DD date, or nil.
	GetDaily(ctx context.Context, date string) (json.RawMessage, error)
	PutDaily(ctx context.Context, date string, data json.RawMessage) error
	// ListDaily returns every daily record in ascending date order.
	ListDaily(ctx context.Context) ([]Record, error)

	// Clear deletes all progress rows in one transaction.
	Clear(ctx context.Context) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token counts for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event by ID, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
