package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MaxRevisions is how many undo entries are kept per workflow.
const MaxRevisions = 40

// Revision is one committed canvas snapshot in a workflow's undo history.
type Revision struct {
	ID           string    `json:"id"`
	WorkflowID   string    `json:"workflowId"`
	Seq          int64     `json:"seq"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// History is the linear undo list of a workflow and the current position.
type History struct {
	Revisions []Revision `json:"revisions"`
	CurrentID string     `json:"currentId"`
}

// HistoryStore keeps undo history in SQLite.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Load returns the full history of a workflow, or nil when it has none.
func (s *HistoryStore) Load(workflowID string) (*History, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, workflow_id, seq, label, snapshot_json, created_at
		 FROM revisions WHERE workflow_id = ? ORDER BY seq ASC`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("load revisions: %w", err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.ID, &r.WorkflowID, &r.Seq, &r.Label, &r.SnapshotJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, nil
	}

	currentID, err := s.currentID(workflowID)
	if err != nil {
		// Fall back to the newest entry.
		currentID = revs[len(revs)-1].ID
	}
	return &History{Revisions: revs, CurrentID: currentID}, nil
}

// Push records a snapshot after the current position. Entries that were
// undone past are discarded first, so redo is only possible until the next
// push.
func (s *HistoryStore) Push(workflowID, revisionID, label, snapshotJSON string) (*Revision, error) {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var currentSeq int64
	err = tx.QueryRow(
		`SELECT r.seq FROM revision_state st JOIN revisions r ON r.id = st.current_id WHERE st.workflow_id = ?`,
		workflowID,
	).Scan(&currentSeq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		currentSeq = 0
	case err != nil:
		return nil, fmt.Errorf("read current revision: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM revisions WHERE workflow_id = ? AND seq > ?`, workflowID, currentSeq); err != nil {
		return nil, fmt.Errorf("drop redo branch: %w", err)
	}

	rev := &Revision{
		ID:           revisionID,
		WorkflowID:   workflowID,
		Seq:          currentSeq + 1,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    time.Now(),
	}
	if _, err := tx.Exec(
		`INSERT INTO revisions (id, workflow_id, seq, label, snapshot_json, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rev.ID, rev.WorkflowID, rev.Seq, rev.Label, rev.SnapshotJSON, rev.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert revision: %w", err)
	}
	if err := setCurrent(tx, workflowID, rev.ID); err != nil {
		return nil, err
	}
	// Oldest entries beyond the cap go.
	if _, err := tx.Exec(
		`DELETE FROM revisions WHERE workflow_id = ? AND seq <= ?`, workflowID, rev.Seq-MaxRevisions,
	); err != nil {
		return nil, fmt.Errorf("prune revisions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rev, nil
}

// Step moves the current position by one entry backwards (delta < 0) or
// forwards (delta > 0) and returns the revision now current. It returns nil
// when there is nothing in that direction.
func (s *HistoryStore) Step(workflowID string, delta int) (*Revision, error) {
	currentID, err := s.currentID(workflowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var seq int64
	if err := s.db.conn.QueryRow(`SELECT seq FROM revisions WHERE id = ?`, currentID).Scan(&seq); err != nil {
		return nil, fmt.Errorf("read current revision: %w", err)
	}

	query := `SELECT id, workflow_id, seq, label, snapshot_json, created_at FROM revisions
		 WHERE workflow_id = ? AND seq < ? ORDER BY seq DESC LIMIT 1`
	if delta > 0 {
		query = `SELECT id, workflow_id, seq, label, snapshot_json, created_at FROM revisions
		 WHERE workflow_id = ? AND seq > ? ORDER BY seq ASC LIMIT 1`
	}
	var r Revision
	err = s.db.conn.QueryRow(query, workflowID, seq).
		Scan(&r.ID, &r.WorkflowID, &r.Seq, &r.Label, &r.SnapshotJSON, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("step revision: %w", err)
	}

	tx, err := s.db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if err := setCurrent(tx, workflowID, r.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Clear removes all history for a workflow.
func (s *HistoryStore) Clear(workflowID string) error {
	if _, err := s.db.conn.Exec(`DELETE FROM revision_state WHERE workflow_id = ?`, workflowID); err != nil {
		return fmt.Errorf("clear revision state: %w", err)
	}
	_, err := s.db.conn.Exec(`DELETE FROM revisions WHERE workflow_id = ?`, workflowID)
	return err
}

func (s *HistoryStore) currentID(workflowID string) (string, error) {
	var id string
	err := s.db.conn.QueryRow(`SELECT current_id FROM revision_state WHERE workflow_id = ?`, workflowID).Scan(&id)
	return id, err
}

func setCurrent(tx *sql.Tx, workflowID, revisionID string) error {
	_, err := tx.Exec(
		`INSERT INTO revision_state (workflow_id, current_id) VALUES (?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET current_id = excluded.current_id`,
		workflowID, revisionID,
	)
	if err != nil {
		return fmt.Errorf("update revision state: %w", err)
	}
	return nil
}
