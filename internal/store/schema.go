package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions handed to the ent migrator. Progress rows keep their
// payload as a JSON document so record shapes can grow without a migration.
var (
	TopicProgressColumns = []*schema.Column{
		{Name: "topic_id", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	TopicProgressTable = &schema.Table{
		Name:       "topic_progress",
		Columns:    TopicProgressColumns,
		PrimaryKey: []*schema.Column{TopicProgressColumns[0]},
	}

	UserProgressColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	UserProgressTable = &schema.Table{
		Name:       "user_progress",
		Columns:    UserProgressColumns,
		PrimaryKey: []*schema.Column{UserProgressColumns[0]},
	}

	DailyActivityColumns = []*schema.Column{
		{Name: "date", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	DailyActivityTable = &schema.Table{
		Name:       "daily_activity",
		Columns:    DailyActivityColumns,
		PrimaryKey: []*schema.Column{DailyActivityColumns[0]},
	}

	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	LLMRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LLMRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[5]}},
		},
	}

	// Tables lists every table Open migrates.
	Tables = []*schema.Table{
		TopicProgressTable,
		UserProgressTable,
		DailyActivityTable,
		LLMRequestEventsTable,
	}
)
