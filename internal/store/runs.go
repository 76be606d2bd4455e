package store

import (
	"database/sql"
	"time"
)

// CreateRun inserts a run in the running state.
func (s *Store) CreateRun(run *Run) error {
	query := `
		INSERT INTO runs (id, event_name, repository, sha, marker, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	_, err := s.db.Exec(query, run.ID, run.EventName, run.Repository, run.SHA, run.Marker, run.Status, run.StartedAt)
	return err
}

// FinishRun records the terminal status of a run.
func (s *Store) FinishRun(id string, status RunStatus, boardID string, runErr error) error {
	query := `UPDATE runs SET status = ?, board_id = ?, error = ?, finished_at = ? WHERE id = ?`
	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := s.db.Exec(query, status, boardID, errText, time.Now(), id)
	return err
}

// GetRun retrieves a run by ID. It returns nil if there is no such run.
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, event_name, repository, sha, marker, board_id, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`
	run, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, event_name, repository, sha, marker, board_id, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var errText sql.NullString
	var finished sql.NullTime
	if err := row.Scan(&r.ID, &r.EventName, &r.Repository, &r.SHA, &r.Marker, &r.BoardID,
		&r.Status, &errText, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	r.Error = errText.String
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}
