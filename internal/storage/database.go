// Package storage persists cards, posts, and sync sources in a local SQLite
// file.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/yonase/langcard/internal/clock"
	"github.com/yonase/langcard/internal/domain"
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// encodeTags stores a tag list as a JSON text column, NULL when empty.
func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeTags(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", raw.String, err)
	}
	return tags, nil
}

// encodeDayKey maps the unscheduled ("") day key to NULL.
func encodeDayKey(k clock.DayKey) sql.NullString {
	if k.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: string(k), Valid: true}
}

func decodeDayKey(raw sql.NullString) clock.DayKey {
	if !raw.Valid {
		return ""
	}
	return clock.DayKey(raw.String)
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(raw sql.NullInt64) *int {
	if !raw.Valid {
		return nil
	}
	v := int(raw.Int64)
	return &v
}

func speakerOrNone(raw string) domain.Speaker {
	return domain.Speaker(raw).Normalize()
}
