// Package store provides the SQLite ledger of runs and the attachments they
// created.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the ledger persistence layer.
type Store struct {
	db *sql.DB
}

// New opens the ledger at dbPath, creating it if needed.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		event_name  TEXT NOT NULL DEFAULT '',
		repository  TEXT NOT NULL DEFAULT '',
		sha         TEXT NOT NULL DEFAULT '',
		marker      TEXT NOT NULL DEFAULT '',
		board_id    TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		error       TEXT,
		started_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL,
		tag_id     TEXT NOT NULL,
		card_id    TEXT,
		url        TEXT NOT NULL,
		title      TEXT NOT NULL,
		outcome    TEXT NOT NULL,  -- attached | not_found | errored | skipped
		error      TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,

		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_attachments_run ON attachments(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusNoTags  RunStatus = "no_tags"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one invocation of the linker.
type Run struct {
	ID         string
	EventName  string
	Repository string
	SHA        string
	Marker     string
	BoardID    string
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Attachment is the outcome of linking one tag reference.
type Attachment struct {
	ID        int64
	RunID     string
	TagID     string
	CardID    string
	URL       string
	Title     string
	Outcome   string
	Error     string
	CreatedAt time.Time
}
