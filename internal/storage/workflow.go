package storage

import (
	"database/sql"
	"fmt"
	"time"

	"nodeflow/internal/domain"
)

// WorkflowStore implements domain.WorkflowStore using SQLite.
type WorkflowStore struct {
	db *DB
}

func NewWorkflowStore(db *DB) *WorkflowStore {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) CreateWorkflow(w *domain.Workflow) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	if w.Viewport.K == 0 {
		w.Viewport.K = 1
	}
	_, err := s.db.conn.Exec(
		`INSERT INTO workflows (id, name, viewport_x, viewport_y, viewport_k, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Viewport.X, w.Viewport.Y, w.Viewport.K, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

func (s *WorkflowStore) GetWorkflow(id string) (*domain.Workflow, error) {
	w := &domain.Workflow{}
	err := s.db.conn.QueryRow(
		`SELECT id, name, viewport_x, viewport_y, viewport_k, created_at, updated_at FROM workflows WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Viewport.X, &w.Viewport.Y, &w.Viewport.K, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return w, nil
}

func (s *WorkflowStore) ListWorkflows() ([]domain.Workflow, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, name, viewport_x, viewport_y, viewport_k, created_at, updated_at FROM workflows ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		var w domain.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Viewport.X, &w.Viewport.Y, &w.Viewport.K, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (s *WorkflowStore) UpdateWorkflow(w *domain.Workflow) error {
	w.UpdatedAt = time.Now()
	_, err := s.db.conn.Exec(
		`UPDATE workflows SET name = ?, viewport_x = ?, viewport_y = ?, viewport_k = ?, updated_at = ? WHERE id = ?`,
		w.Name, w.Viewport.X, w.Viewport.Y, w.Viewport.K, w.UpdatedAt, w.ID,
	)
	return err
}

// DeleteWorkflow removes a workflow with its canvas content and history.
func (s *WorkflowStore) DeleteWorkflow(id string) error {
	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearContent(tx, id); err != nil {
		return err
	}
	stmts := []string{
		`DELETE FROM revision_state WHERE workflow_id = ?`,
		`DELETE FROM revisions WHERE workflow_id = ?`,
		`DELETE FROM workflows WHERE id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q, id); err != nil {
			return fmt.Errorf("delete workflow: %w", err)
		}
	}
	return tx.Commit()
}

// LoadState reads a workflow and everything on its canvas.
func (s *WorkflowStore) LoadState(id string) (*domain.WorkflowState, error) {
	w, err := s.GetWorkflow(id)
	if err != nil {
		return nil, err
	}
	st := &domain.WorkflowState{Workflow: *w}

	if st.Nodes, err = s.listNodes(id); err != nil {
		return nil, err
	}
	if st.Connections, err = s.listConnections(id); err != nil {
		return nil, err
	}
	if st.Groups, err = s.listGroups(id); err != nil {
		return nil, err
	}
	return st, nil
}

// ReplaceState atomically rewrites the canvas content and viewport of one
// workflow. Connections with a missing endpoint and groups left with fewer
// than two live members are dropped on the way in.
func (s *WorkflowStore) ReplaceState(st *domain.WorkflowState) error {
	id := st.Workflow.ID
	tx, err := s.db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := clearContent(tx, id); err != nil {
		return err
	}

	live := make(map[string]struct{}, len(st.Nodes))
	for i, n := range st.Nodes {
		_, err := tx.Exec(
			`INSERT INTO nodes (id, workflow_id, type, x, y, width, height, title, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, id, string(n.Type), n.X, n.Y, n.Width, n.Height, n.Title, i,
		)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
		live[n.ID] = struct{}{}
	}

	for i, c := range st.Connections {
		if _, ok := live[c.SourceID]; !ok {
			continue
		}
		if _, ok := live[c.TargetID]; !ok {
			continue
		}
		_, err := tx.Exec(
			`INSERT INTO connections (id, workflow_id, source_id, target_id, sort_order) VALUES (?, ?, ?, ?, ?)`,
			c.ID, id, c.SourceID, c.TargetID, i,
		)
		if err != nil {
			return fmt.Errorf("insert connection %s: %w", c.ID, err)
		}
	}

	for i, g := range st.Groups {
		var members []string
		for _, m := range g.MemberIDs {
			if _, ok := live[m]; ok {
				members = append(members, m)
			}
		}
		if len(members) < 2 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO node_groups (id, workflow_id, color, sort_order) VALUES (?, ?, ?, ?)`,
			g.ID, id, g.Color, i,
		); err != nil {
			return fmt.Errorf("insert group %s: %w", g.ID, err)
		}
		for _, m := range members {
			if _, err := tx.Exec(`INSERT INTO group_members (group_id, node_id) VALUES (?, ?)`, g.ID, m); err != nil {
				return fmt.Errorf("insert group member %s: %w", m, err)
			}
		}
	}

	now := time.Now()
	vp := st.Workflow.Viewport
	res, err := tx.Exec(
		`UPDATE workflows SET name = ?, viewport_x = ?, viewport_y = ?, viewport_k = ?, updated_at = ? WHERE id = ?`,
		st.Workflow.Name, vp.X, vp.Y, vp.K, now, id,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("replace state %s: %w", id, sql.ErrNoRows)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	st.Workflow.UpdatedAt = now
	return nil
}

// Fingerprint changes whenever the workflow is written. Watchers compare it
// to notice edits made by another process.
func (s *WorkflowStore) Fingerprint(id string) (string, error) {
	var updated string
	var nodes, conns int
	err := s.db.conn.QueryRow(
		`SELECT COALESCE(updated_at, ''),
		        (SELECT COUNT(*) FROM nodes WHERE workflow_id = w.id),
		        (SELECT COUNT(*) FROM connections WHERE workflow_id = w.id)
		 FROM workflows w WHERE w.id = ?`, id,
	).Scan(&updated, &nodes, &conns)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return fmt.Sprintf("%s:%d:%d", updated, nodes, conns), nil
}

func clearContent(tx *sql.Tx, workflowID string) error {
	stmts := []string{
		`DELETE FROM group_members WHERE group_id IN (SELECT id FROM node_groups WHERE workflow_id = ?)`,
		`DELETE FROM node_groups WHERE workflow_id = ?`,
		`DELETE FROM connections WHERE workflow_id = ?`,
		`DELETE FROM nodes WHERE workflow_id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(q, workflowID); err != nil {
			return fmt.Errorf("clear workflow content: %w", err)
		}
	}
	return nil
}

func (s *WorkflowStore) listNodes(workflowID string) ([]domain.Node, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, type, x, y, width, height, title FROM nodes WHERE workflow_id = ? ORDER BY sort_order ASC`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		var n domain.Node
		var typ string
		if err := rows.Scan(&n.ID, &typ, &n.X, &n.Y, &n.Width, &n.Height, &n.Title); err != nil {
			return nil, err
		}
		n.Type = domain.NodeType(typ)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *WorkflowStore) listConnections(workflowID string) ([]domain.Connection, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, source_id, target_id FROM connections WHERE workflow_id = ? ORDER BY sort_order ASC`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.Connection
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(&c.ID, &c.SourceID, &c.TargetID); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}

func (s *WorkflowStore) listGroups(workflowID string) ([]domain.Group, error) {
	rows, err := s.db.conn.Query(
		`SELECT g.id, g.color, m.node_id
		 FROM node_groups g JOIN group_members m ON m.group_id = g.id
		 WHERE g.workflow_id = ?
		 ORDER BY g.sort_order ASC, m.node_id ASC`, workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var id, color, member string
		if err := rows.Scan(&id, &color, &member); err != nil {
			return nil, err
		}
		if n := len(groups); n > 0 && groups[n-1].ID == id {
			groups[n-1].MemberIDs = append(groups[n-1].MemberIDs, member)
			continue
		}
		groups = append(groups, domain.Group{ID: id, Color: color, MemberIDs: []string{member}})
	}
	return groups, rows.Err()
}
