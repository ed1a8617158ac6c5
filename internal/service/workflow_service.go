package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Workflow Service — saved canvases and the save/open cycle
// ─────────────────────────────────────────────────────────────

// DefaultWorkflowName is used when a workflow is created without a name.
const DefaultWorkflowName = "Untitled workflow"

// WorkflowService lists, opens and saves workflows. The open workflow's
// content lives in the CanvasService.
type WorkflowService struct {
	store   domain.WorkflowStore
	canvas  *CanvasService
	history *HistoryService
	emitter EventEmitter
	locks   saveLocks
	ctx     context.Context

	// seen is the stored fingerprint of the open workflow as of our last
	// open, reload or save.
	seenMu sync.Mutex
	seen   string
}

// NewWorkflowService creates a WorkflowService.
func NewWorkflowService(store domain.WorkflowStore, canvas *CanvasService, history *HistoryService, emitter EventEmitter) *WorkflowService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &WorkflowService{
		store:   store,
		canvas:  canvas,
		history: history,
		emitter: emitter,
		ctx:     context.Background(),
	}
}

// SetContext sets the context passed to the emitter.
func (s *WorkflowService) SetContext(ctx context.Context) { s.ctx = ctx }

// ── Workflows ──────────────────────────────────────────────

func (s *WorkflowService) List() ([]domain.Workflow, error) {
	return s.store.ListWorkflows()
}

func (s *WorkflowService) Create(name string) (*domain.Workflow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultWorkflowName
	}
	w := &domain.Workflow{
		ID:       uuid.New().String(),
		Name:     name,
		Viewport: domain.Viewport{K: 1},
	}
	if err := s.store.CreateWorkflow(w); err != nil {
		return nil, err
	}
	s.emitter.Emit(s.ctx, EventWorkflowsChanged, nil)
	return w, nil
}

func (s *WorkflowService) Rename(id, name string) error {
	w, err := s.store.GetWorkflow(id)
	if err != nil {
		return err
	}
	w.Name = strings.TrimSpace(name)
	if w.Name == "" {
		w.Name = DefaultWorkflowName
	}
	if err := s.store.UpdateWorkflow(w); err != nil {
		return fmt.Errorf("rename workflow: %w", err)
	}
	s.canvas.SetWorkflowName(id, w.Name)
	s.emitter.Emit(s.ctx, EventWorkflowsChanged, nil)
	return nil
}

// Delete removes a workflow. Deleting the open workflow clears the canvas.
func (s *WorkflowService) Delete(id string) error {
	if err := s.store.DeleteWorkflow(id); err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if s.canvas.Workflow().ID == id {
		s.canvas.Open(&domain.WorkflowState{})
	}
	s.emitter.Emit(s.ctx, EventWorkflowsChanged, nil)
	return nil
}

// Open loads a workflow into the canvas.
func (s *WorkflowService) Open(id string) (canvas.State, error) {
	fp, _ := s.store.Fingerprint(id)
	st, err := s.store.LoadState(id)
	if err != nil {
		return canvas.State{}, fmt.Errorf("open workflow %s: %w", id, err)
	}
	state := s.canvas.Open(st)
	s.setSeen(fp)
	s.emitter.Emit(s.ctx, EventWorkflowOpened, st.Workflow)
	return state, nil
}

// Reload re-reads the open workflow from disk, e.g. after another process
// changed it. Unsaved local edits are discarded.
func (s *WorkflowService) Reload() (canvas.State, error) {
	id := s.canvas.Workflow().ID
	if id == "" {
		return canvas.State{}, ErrNoWorkflow
	}
	fp, _ := s.store.Fingerprint(id)
	st, err := s.store.LoadState(id)
	if err != nil {
		return canvas.State{}, fmt.Errorf("reload workflow %s: %w", id, err)
	}
	state := s.canvas.Open(st)
	s.setSeen(fp)
	return state, nil
}

// SyncExternal reloads the open workflow when another process saved it since
// we last opened, reloaded or saved it. It reports whether a reload happened.
// A save in progress skips the check.
func (s *WorkflowService) SyncExternal() (bool, error) {
	id := s.canvas.Workflow().ID
	if id == "" {
		return false, ErrNoWorkflow
	}
	if !s.locks.TryLock(id) {
		return false, nil
	}
	defer s.locks.Unlock(id)

	fp, err := s.store.Fingerprint(id)
	if err != nil {
		return false, err
	}
	s.seenMu.Lock()
	seen := s.seen
	s.seenMu.Unlock()
	if fp == seen {
		return false, nil
	}

	st, err := s.store.LoadState(id)
	if err != nil {
		return false, fmt.Errorf("reload workflow %s: %w", id, err)
	}
	s.canvas.Open(st)
	s.setSeen(fp)
	slog.Info("workflow changed on disk, reloaded", slog.String("workflow_id", id))
	s.emitter.Emit(s.ctx, EventWorkflowReloaded, st.Workflow)
	return true, nil
}

func (s *WorkflowService) setSeen(fp string) {
	s.seenMu.Lock()
	s.seen = fp
	s.seenMu.Unlock()
}

// Save writes the open workflow. It is a no-op when nothing changed since
// the last save. A write of the same workflow already in flight is waited
// for, up to SaveWaitTimeout.
func (s *WorkflowService) Save() error {
	return s.save(false, true)
}

// saveIfIdle is the background variant of Save: it skips a workflow that is
// already being written.
func (s *WorkflowService) saveIfIdle() error {
	return s.save(false, false)
}

func (s *WorkflowService) save(force, wait bool) error {
	id := s.canvas.Workflow().ID
	if id == "" {
		return ErrNoWorkflow
	}
	if wait {
		ctx, cancel := context.WithTimeout(s.ctx, SaveWaitTimeout)
		err := s.locks.Lock(ctx, id)
		cancel()
		if err != nil {
			return fmt.Errorf("save workflow: %w", err)
		}
	} else if !s.locks.TryLock(id) {
		slog.Debug("save already running", slog.String("workflow_id", id))
		return nil
	}
	defer s.locks.Unlock(id)

	// Snapshot under the lock so a reload that ran while we waited is not
	// overwritten with older content.
	snap, err := s.canvas.SnapshotForSave()
	if err != nil {
		return err
	}
	if snap.State.Workflow.ID != id || (!snap.Dirty && !force) {
		return nil
	}

	if err := s.store.ReplaceState(&snap.State); err != nil {
		return fmt.Errorf("save workflow %s: %w", id, err)
	}
	s.canvas.MarkSaved(snap.Revision, snap.State.Workflow.Viewport)
	if fp, err := s.store.Fingerprint(id); err == nil {
		s.setSeen(fp)
	}
	s.emitter.Emit(s.ctx, EventWorkflowSaved, map[string]any{
		"workflowId": id,
		"nodes":      len(snap.State.Nodes),
		"updatedAt":  snap.State.Workflow.UpdatedAt,
	})
	return nil
}

// ConfirmNew starts a fresh workflow. With shouldSave the open workflow is
// saved first, and a failed save leaves everything as it was.
func (s *WorkflowService) ConfirmNew(shouldSave bool) (*domain.Workflow, error) {
	if shouldSave && s.canvas.Workflow().ID != "" {
		if err := s.save(true, true); err != nil {
			return nil, err
		}
	}
	w, err := s.Create(DefaultWorkflowName)
	if err != nil {
		return nil, err
	}
	fp, _ := s.store.Fingerprint(w.ID)
	s.canvas.Open(&domain.WorkflowState{Workflow: *w})
	s.setSeen(fp)
	s.canvas.ResetZoom()
	s.emitter.Emit(s.ctx, EventWorkflowOpened, *w)
	return w, nil
}

// Shutdown waits for in-flight saves, then saves once more.
func (s *WorkflowService) Shutdown(ctx context.Context) error {
	s.locks.WaitAll(ctx)
	if s.canvas.Workflow().ID == "" {
		return nil
	}
	return s.Save()
}

// Inspect summarises a stored workflow without opening it.
func (s *WorkflowService) Inspect(id string) (*domain.WorkflowState, error) {
	return s.store.LoadState(id)
}
