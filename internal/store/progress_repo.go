package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// userRowID is the fixed key of the single aggregate user row.
const userRowID = "main"

// progressRepo implements ProgressRepo with the ent SQL builder.
type progressRepo struct {
	db *sql.DB
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (r *progressRepo) GetUser(ctx context.Context) (json.RawMessage, error) {
	return r.getDoc(ctx, UserProgressTable.Name, "id", userRowID)
}

func (r *progressRepo) PutUser(ctx context.Context, data json.RawMessage) error {
	return r.putDoc(ctx, UserProgressTable.Name, "id", userRowID, data)
}

func (r *progressRepo) ListTopics(ctx context.Context) ([]Record, error) {
	return r.listDocs(ctx, TopicProgressTable.Name, "topic_id")
}

func (r *progressRepo) PutTopic(ctx context.Context, topicID string, data json.RawMessage) error {
	if topicID == "" {
		return fmt.Errorf("put topic: empty topic id")
	}
	return r.putDoc(ctx, TopicProgressTable.Name, "topic_id", topicID, data)
}

func (r *progressRepo) GetDaily(ctx context.Context, date string) (json.RawMessage, error) {
	return r.getDoc(ctx, DailyActivityTable.Name, "date", date)
}

func (r *progressRepo) PutDaily(ctx context.Context, date string, data json.RawMessage) error {
	if date == "" {
		return fmt.Errorf("put daily: empty date")
	}
	return r.putDoc(ctx, DailyActivityTable.Name, "date", date, data)
}

func (r *progressRepo) ListDaily(ctx context.Context) ([]Record, error) {
	return r.listDocs(ctx, DailyActivityTable.Name, "date")
}

func (r *progressRepo) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	for _, table := range []string{TopicProgressTable.Name, UserProgressTable.Name, DailyActivityTable.Name} {
		query, args := builder().Delete(table).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func (r *progressRepo) getDoc(ctx context.Context, table, keyCol, key string) (json.RawMessage, error) {
	query, args := builder().
		Select("data").
		From(entsql.Table(table)).
		Where(entsql.EQ(keyCol, key)).
		Query()

	var data string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", table, key, err)
	}
	return json.RawMessage(data), nil
}

func (r *progressRepo) putDoc(ctx context.Context, table, keyCol, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("put %s %q: payload is not valid JSON", table, key)
	}
	query, args := builder().
		Insert(table).
		Columns(keyCol, "data", "updated_at").
		Values(key, string(data), time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns(keyCol),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s %q: %w", table, key, err)
	}
	return nil
}

func (r *progressRepo) listDocs(ctx context.Context, table, keyCol string) ([]Record, error) {
	query, args := builder().
		Select(keyCol, "data", "updated_at").
		From(entsql.Table(table)).
		OrderBy(entsql.Asc(keyCol)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec  Record
			data string
		)
		if err := rows.Scan(&rec.Key, &data, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec.Data = json.RawMessage(data)
		out = append(out, rec)
	}
	return out, rows.Err()
}
