package store

import (
	"database/sql"
	"time"
)

// RecordAttachment stores the outcome of linking one tag reference.
func (s *Store) RecordAttachment(a *Attachment) error {
	query := `
		INSERT INTO attachments (run_id, tag_id, card_id, url, title, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(query, a.RunID, a.TagID, nullable(a.CardID), a.URL, a.Title, a.Outcome, nullable(a.Error), a.CreatedAt)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

// ListAttachments returns the outcomes recorded for a run in insertion order.
func (s *Store) ListAttachments(runID string) ([]*Attachment, error) {
	query := `
		SELECT id, run_id, tag_id, card_id, url, title, outcome, error, created_at
		FROM attachments WHERE run_id = ? ORDER BY id
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attachment
	for rows.Next() {
		var a Attachment
		var cardID, errText sql.NullString
		if err := rows.Scan(&a.ID, &a.RunID, &a.TagID, &cardID, &a.URL, &a.Title, &a.Outcome, &errText, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CardID = cardID.String
		a.Error = errText.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
