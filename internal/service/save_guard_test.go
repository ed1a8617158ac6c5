package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
	"nodeflow/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// saveLocks tests
// ─────────────────────────────────────────────────────────────

func TestSaveLocks_TryLock(t *testing.T) {
	var l saveLocks

	require.True(t, l.TryLock("wf-1"))
	assert.False(t, l.TryLock("wf-1"), "same workflow is busy")
	assert.True(t, l.TryLock("wf-2"), "other workflows are independent")

	l.Unlock("wf-1")
	l.Unlock("wf-2")
	l.Unlock("wf-2") // releasing a free workflow is a no-op

	assert.True(t, l.TryLock("wf-1"))
	l.Unlock("wf-1")
}

func TestSaveLocks_LockWaitsForHolder(t *testing.T) {
	var l saveLocks
	require.True(t, l.TryLock("wf"))

	acquired := make(chan error, 1)
	go func() { acquired <- l.Lock(context.Background(), "wf") }()

	select {
	case <-acquired:
		t.Fatal("Lock returned while the workflow was held")
	case <-time.After(30 * time.Millisecond):
	}

	l.Unlock("wf")
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Lock did not acquire after Unlock")
	}
	assert.False(t, l.TryLock("wf"), "waiter now holds the lock")
	l.Unlock("wf")
}

func TestSaveLocks_LockGivesUpWithContext(t *testing.T) {
	var l saveLocks
	require.True(t, l.TryLock("wf"))
	defer l.Unlock("wf")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Lock(ctx, "wf")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSaveLocks_WaitAll(t *testing.T) {
	var l saveLocks
	require.True(t, l.TryLock("wf-a"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Unlock("wf-a")
	}()

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		l.WaitAll(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ── Saves against a busy workflow ──────────────────────────

type lockFixture struct {
	store     *storage.WorkflowStore
	canvas    *CanvasService
	workflows *WorkflowService
	emitter   *MockEmitter
	open      *domain.Workflow
}

// newLockFixture opens a workflow holding one unsaved node.
func newLockFixture(t *testing.T) *lockFixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "nodeflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	em := &MockEmitter{}
	store := storage.NewWorkflowStore(db)
	history := NewHistoryService(storage.NewHistoryStore(db))
	cs := NewCanvasService(history, em)
	ws := NewWorkflowService(store, cs, history, em)

	w, err := ws.Create("Draft")
	require.NoError(t, err)
	_, err = ws.Open(w.ID)
	require.NoError(t, err)
	_, err = cs.AddNode(domain.NodeTypeTextToImage, canvas.Point{X: 10, Y: 10}, false)
	require.NoError(t, err)
	return &lockFixture{store: store, canvas: cs, workflows: ws, emitter: em, open: w}
}

func (f *lockFixture) storedNodes(t *testing.T) int {
	t.Helper()
	st, err := f.store.LoadState(f.open.ID)
	require.NoError(t, err)
	return len(st.Nodes)
}

func TestConfirmNew_WaitsForBackgroundWrite(t *testing.T) {
	f := newLockFixture(t)
	require.True(t, f.workflows.locks.TryLock(f.open.ID))

	type result struct {
		w   *domain.Workflow
		err error
	}
	done := make(chan result, 1)
	go func() {
		w, err := f.workflows.ConfirmNew(true)
		done <- result{w, err}
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, f.storedNodes(t), "nothing written while the lock is held")
	f.workflows.locks.Unlock(f.open.ID)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.NotEqual(t, f.open.ID, r.w.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("ConfirmNew did not finish after the lock was released")
	}
	assert.Equal(t, 1, f.storedNodes(t))
}

func TestConfirmNew_AbortsWhenSaveCannotRun(t *testing.T) {
	f := newLockFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.workflows.SetContext(ctx)

	require.True(t, f.workflows.locks.TryLock(f.open.ID))
	defer f.workflows.locks.Unlock(f.open.ID)

	w, err := f.workflows.ConfirmNew(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, w)

	// The old workflow stays open with its edits and no new one exists.
	assert.Equal(t, f.open.ID, f.canvas.Workflow().ID)
	assert.Len(t, f.canvas.State().Nodes, 1)
	list, err := f.workflows.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAutosaveTick_SkipsBusyWorkflow(t *testing.T) {
	f := newLockFixture(t)
	a := NewAutosaver(f.workflows, f.emitter)

	require.True(t, f.workflows.locks.TryLock(f.open.ID))
	a.Tick()
	assert.Equal(t, 0, f.storedNodes(t))
	assert.Equal(t, 0, f.emitter.Count(EventAutosaveFailed))
	f.workflows.locks.Unlock(f.open.ID)

	a.Tick()
	assert.Equal(t, 1, f.storedNodes(t))
}
