package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
	mcpserver "nodeflow/internal/mcp"
	"nodeflow/internal/service"
	"nodeflow/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) emit(event string, _ any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type services struct {
	db        *storage.DB
	canvas    *service.CanvasService
	workflows *service.WorkflowService
}

func openServices(t *testing.T, path string) *services {
	t.Helper()
	db, err := storage.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	history := service.NewHistoryService(storage.NewHistoryStore(db))
	cs := service.NewCanvasService(history, nil)
	return &services{db: db, canvas: cs, workflows: service.NewWorkflowService(storage.NewWorkflowStore(db), cs, history, nil)}
}

func TestWorkflowWatcher_Check(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodeflow.db")
	app := openServices(t, path)
	w, err := app.workflows.Create("Shared")
	require.NoError(t, err)
	_, err = app.workflows.Open(w.ID)
	require.NoError(t, err)

	rec := &recorder{}
	watcher := newWorkflowWatcher(context.Background(), app.workflows, app.db.Conn(), rec.emit)

	// first pass only records the baseline
	watcher.check()
	assert.Empty(t, rec.events)

	// the MCP process edits the open workflow and creates another one
	agent := openServices(t, path)
	_, err = agent.workflows.Open(w.ID)
	require.NoError(t, err)
	_, err = agent.canvas.AddNode(domain.NodeTypeCreativeDesc, canvas.Point{}, false)
	require.NoError(t, err)
	require.NoError(t, agent.workflows.Save())
	_, err = agent.workflows.Create("Agent workflow")
	require.NoError(t, err)

	watcher.check()
	assert.Len(t, app.canvas.State().Nodes, 1)
	assert.Equal(t, 1, rec.count(service.EventWorkflowsChanged))
	assert.Equal(t, 1, rec.count(eventMCPActivity))

	// a pending approval is announced once
	_, err = agent.db.Conn().Exec(`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES ('a1', 'delete_node', 'Delete', 'pending', '{}')`)
	require.NoError(t, err)
	watcher.check()
	watcher.check()
	assert.Equal(t, 1, rec.count(eventMCPApprovalRequired))

	require.NoError(t, mcpserver.ResolveApproval(app.db.Conn(), "a1", true))
	watcher.check()
	assert.Empty(t, watcher.emittedApprovals)
}

func TestWorkflowWatcher_StartStop(t *testing.T) {
	app := openServices(t, filepath.Join(t.TempDir(), "nodeflow.db"))
	watcher := newWorkflowWatcher(context.Background(), app.workflows, app.db.Conn(), (&recorder{}).emit)
	watcher.Start()
	watcher.Stop()
	watcher.Stop()
}
