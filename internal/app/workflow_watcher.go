package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mcpserver "nodeflow/internal/mcp"
	"nodeflow/internal/service"
)

const (
	eventMCPActivity         = "mcp:activity"
	eventMCPApprovalRequired = mcpserver.EventApprovalRequired
)

// workflowWatcher polls the database for changes made by another process
// (the standalone MCP server): edits to the open workflow, new or renamed
// workflows, and pending approvals. It emits events so the frontend
// refreshes without user action.
type workflowWatcher struct {
	ctx       context.Context
	workflows *service.WorkflowService
	db        *sql.DB
	emit      func(event string, data any)
	interval  time.Duration

	mu       sync.Mutex
	lastList string // workflow list fingerprint (count + max updated_at)
	stopCh   chan struct{}
	// Track emitted approval IDs to avoid infinite re-emission
	emittedApprovals map[string]bool
}

func newWorkflowWatcher(ctx context.Context, workflows *service.WorkflowService, db *sql.DB, emit func(string, any)) *workflowWatcher {
	return &workflowWatcher{
		ctx:              ctx,
		workflows:        workflows,
		db:               db,
		emit:             emit,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *workflowWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *workflowWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *workflowWatcher) pollLoop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	stop := w.stopCh
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *workflowWatcher) check() {
	// ── Open workflow ──────────────────────────────────
	reloaded, err := w.workflows.SyncExternal()
	if err != nil && !errors.Is(err, service.ErrNoWorkflow) {
		slog.Warn("workflow watcher: sync", slog.Any("error", err))
	}

	// ── Workflow list (sidebar) ────────────────────────
	if fp, err := w.listFingerprint(); err == nil {
		w.mu.Lock()
		changed := w.lastList != "" && w.lastList != fp
		w.lastList = fp
		w.mu.Unlock()
		if changed {
			w.emit(service.EventWorkflowsChanged, nil)
		}
	}

	// ── Pending MCP approvals (cross-process IPC) ──────
	pending, err := mcpserver.PendingApprovals(w.db)
	if err != nil {
		slog.Warn("workflow watcher: approvals", slog.Any("error", err))
		return
	}
	live := make(map[string]bool, len(pending))
	var fresh []mcpserver.PendingAction
	w.mu.Lock()
	for _, p := range pending {
		live[p.ID] = true
		if !w.emittedApprovals[p.ID] {
			w.emittedApprovals[p.ID] = true
			fresh = append(fresh, p)
		}
	}
	// Forget approvals the MCP process already removed
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()

	changes := len(fresh)
	if reloaded {
		changes++
	}
	if changes > 0 {
		w.emit(eventMCPActivity, map[string]any{"changes": changes})
	}
	for _, p := range fresh {
		w.emit(eventMCPApprovalRequired, p)
	}
}

func (w *workflowWatcher) listFingerprint() (string, error) {
	var count int
	var maxUpdated string
	err := w.db.QueryRow(`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM workflows`).Scan(&count, &maxUpdated)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%s", count, maxUpdated), nil
}
