package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"nodeflow/internal/canvas"
	"nodeflow/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// History Service — undo/redo over stored canvas snapshots
// ─────────────────────────────────────────────────────────────

// HistoryStatus tells the frontend which history buttons are live.
type HistoryStatus struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Size    int  `json:"size"`
}

// HistoryService records committed canvas snapshots per workflow.
type HistoryService struct {
	store *storage.HistoryStore
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(store *storage.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// Record pushes snap as the newest revision of workflowID.
func (s *HistoryService) Record(workflowID, label string, snap canvas.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.store.Push(workflowID, uuid.NewString(), label, string(data)); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Undo steps back one revision and returns its snapshot, or nil when there is
// nothing to undo.
func (s *HistoryService) Undo(workflowID string) (*canvas.Snapshot, error) {
	return s.step(workflowID, -1)
}

// Redo steps forward one revision.
func (s *HistoryService) Redo(workflowID string) (*canvas.Snapshot, error) {
	return s.step(workflowID, 1)
}

// Status reports whether undo and redo are possible.
func (s *HistoryService) Status(workflowID string) (HistoryStatus, error) {
	h, err := s.store.Load(workflowID)
	if err != nil || h == nil {
		return HistoryStatus{}, err
	}
	var st HistoryStatus
	st.Size = len(h.Revisions)
	for i, r := range h.Revisions {
		if r.ID == h.CurrentID {
			st.CanUndo = i > 0
			st.CanRedo = i < len(h.Revisions)-1
		}
	}
	return st, nil
}

// Empty reports whether workflowID has no recorded history.
func (s *HistoryService) Empty(workflowID string) (bool, error) {
	h, err := s.store.Load(workflowID)
	if err != nil {
		return false, err
	}
	return h == nil, nil
}

// Clear drops the history of a workflow.
func (s *HistoryService) Clear(workflowID string) error {
	return s.store.Clear(workflowID)
}

func (s *HistoryService) step(workflowID string, delta int) (*canvas.Snapshot, error) {
	rev, err := s.store.Step(workflowID, delta)
	if err != nil || rev == nil {
		return nil, err
	}
	var snap canvas.Snapshot
	if err := json.Unmarshal([]byte(rev.SnapshotJSON), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", rev.ID, err)
	}
	return &snap, nil
}
