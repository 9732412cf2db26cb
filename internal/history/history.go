// Package history keeps a SQLite index of finished sessions so past
// conversations can be listed without parsing every transcript document.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// Entry is one session summary row. The transcript JSON remains the source
// of truth; the index only exists for fast listing.
type Entry struct {
	ID               string
	StartTime        time.Time
	EndTime          time.Time
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	CostUSD          decimal.Decimal
	Requests         int
	TranscriptPath   string
}

// Index is the session summary database.
type Index struct {
	db *sql.DB
}

// Open opens (or creates) the index at path.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	createSessions := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		start_time DATETIME,
		end_time DATETIME,
		model TEXT,
		prompt_tokens INTEGER,
		completion_tokens INTEGER,
		cost_usd TEXT,
		request_count INTEGER,
		transcript_path TEXT
	);`

	if _, err := db.Exec(createSessions); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &Index{db: db}, nil
}

// Record inserts or replaces one session summary.
func (ix *Index) Record(entry Entry) error {
	_, err := ix.db.Exec(
		`INSERT OR REPLACE INTO sessions
		 (id, start_time, end_time, model, prompt_tokens, completion_tokens, cost_usd, request_count, transcript_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.StartTime, entry.EndTime, entry.Model,
		entry.PromptTokens, entry.CompletionTokens, entry.CostUSD.String(),
		entry.Requests, entry.TranscriptPath,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// List returns the most recent sessions, newest first.
func (ix *Index) List(limit int) ([]Entry, error) {
	rows, err := ix.db.Query(
		`SELECT id, start_time, end_time, model, prompt_tokens, completion_tokens, cost_usd, request_count, transcript_path
		 FROM sessions ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var cost string
		if err := rows.Scan(
			&entry.ID, &entry.StartTime, &entry.EndTime, &entry.Model,
			&entry.PromptTokens, &entry.CompletionTokens, &cost,
			&entry.Requests, &entry.TranscriptPath,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		entry.CostUSD, err = decimal.NewFromString(cost)
		if err != nil {
			entry.CostUSD = decimal.Zero
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}
