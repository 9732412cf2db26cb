// Package transcript persists one structured JSON document per session.
// The file name derives from the session start timestamp, so concurrent
// sessions never collide and each session maps to exactly one document.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

// filenameLayout names the session document after its start time, matching
// the original conversation log convention.
const filenameLayout = "2006-01-02_15-04-05"

// Turn is one user message paired with the assistant response. A turn cut
// short by a provider failure keeps its partial text and is flagged
// interrupted; a turn whose model had no price entry is flagged cost unknown.
type Turn struct {
	Timestamp        time.Time       `json:"timestamp"`
	User             string          `json:"user"`
	Assistant        string          `json:"assistant"`
	PromptTokens     int64           `json:"prompt_tokens"`
	CompletionTokens int64           `json:"completion_tokens"`
	CostUSD          decimal.Decimal `json:"cost_usd"`
	CostUnknown      bool            `json:"cost_unknown,omitempty"`
	Interrupted      bool            `json:"interrupted,omitempty"`
}

// Totals are the cumulative session aggregates persisted with the document.
type Totals struct {
	PromptTokens     int64           `json:"total_prompt_tokens"`
	CompletionTokens int64           `json:"total_completion_tokens"`
	TotalTokens      int64           `json:"total_tokens"`
	CostUSD          decimal.Decimal `json:"total_cost_usd"`
	Requests         int             `json:"request_count"`
}

// Document is the full persisted session record.
type Document struct {
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end,omitempty"`
	Model        string    `json:"model"`
	SystemPrompt string    `json:"system_prompt"`
	Turns        []Turn    `json:"turns"`
	Totals       Totals    `json:"totals"`
}

// Store writes session documents under a single directory.
type Store struct {
	dir string
}

// NewStore creates the transcript directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SessionLog is the handle for one session's document. It is owned by a
// single session loop; no locking.
type SessionLog struct {
	path string
	doc  Document
}

// Open creates the session document on disk immediately, so even a session
// that exits before its first turn leaves a record with an empty turn list.
func (s *Store) Open(start time.Time, model, systemPrompt string) (*SessionLog, error) {
	log := &SessionLog{
		path: filepath.Join(s.dir, start.Format(filenameLayout)+".json"),
		doc: Document{
			SessionStart: start,
			Model:        model,
			SystemPrompt: systemPrompt,
			Turns:        []Turn{},
			Totals:       Totals{CostUSD: decimal.Zero},
		},
	}
	if err := log.flush(); err != nil {
		return nil, err
	}
	return log, nil
}

// Path returns the document location on disk.
func (l *SessionLog) Path() string { return l.path }

// Turns returns the turns appended so far.
func (l *SessionLog) Turns() []Turn { return l.doc.Turns }

// AppendTurn adds a completed turn and rewrites the whole document. The
// rewrite is atomic, so a crash mid-write leaves the previous complete
// document in place and appended turns are never truncated.
func (l *SessionLog) AppendTurn(turn Turn, totals Totals) error {
	l.doc.Turns = append(l.doc.Turns, turn)
	l.doc.Totals = totals
	return l.flush()
}

// Close stamps the session end time and writes the final document.
func (l *SessionLog) Close(totals Totals) error {
	l.doc.SessionEnd = time.Now()
	l.doc.Totals = totals
	return l.flush()
}

func (l *SessionLog) flush() error {
	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := writeFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Load reads a session document back from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read transcript: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return doc, nil
}
