package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nodeflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState(id string) *domain.WorkflowState {
	return &domain.WorkflowState{
		Workflow: domain.Workflow{ID: id, Name: "Pipeline", Viewport: domain.Viewport{X: 12, Y: -4, K: 1.5}},
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeTypeCreativeDesc, X: 0, Y: 0, Width: 300, Height: 260, Title: "Brief"},
			{ID: "b", Type: domain.NodeTypeTextToImage, X: 400, Y: 0, Width: 320, Height: 360, Title: "Image"},
			{ID: "c", Type: domain.NodeTypeTextToVideo, X: 800, Y: 0, Width: 320, Height: 380, Title: "Video"},
		},
		Connections: []domain.Connection{
			{ID: "ab", SourceID: "a", TargetID: "b"},
			{ID: "bc", SourceID: "b", TargetID: "c"},
		},
		Groups: []domain.Group{
			{ID: "g", MemberIDs: []string{"b", "c"}, Color: "#06b6d4"},
		},
	}
}

func TestWorkflowStore_CRUD(t *testing.T) {
	store := NewWorkflowStore(openTestDB(t))

	w := &domain.Workflow{ID: "w1", Name: "First"}
	require.NoError(t, store.CreateWorkflow(w))
	assert.Equal(t, 1.0, w.Viewport.K)

	got, err := store.GetWorkflow("w1")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)

	got.Name = "Renamed"
	require.NoError(t, store.UpdateWorkflow(got))
	list, err := store.ListWorkflows()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", list[0].Name)

	require.NoError(t, store.DeleteWorkflow("w1"))
	_, err = store.GetWorkflow("w1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWorkflowStore_ReplaceAndLoadState(t *testing.T) {
	store := NewWorkflowStore(openTestDB(t))
	require.NoError(t, store.CreateWorkflow(&domain.Workflow{ID: "w1", Name: "Pipeline"}))

	want := sampleState("w1")
	require.NoError(t, store.ReplaceState(want))

	got, err := store.LoadState("w1")
	require.NoError(t, err)
	assert.Equal(t, want.Nodes, got.Nodes)
	assert.Equal(t, want.Connections, got.Connections)
	assert.Equal(t, want.Groups, got.Groups)
	assert.Equal(t, want.Workflow.Viewport, got.Workflow.Viewport)

	// A second replace fully overwrites the first.
	next := sampleState("w1")
	next.Nodes = next.Nodes[:1]
	require.NoError(t, store.ReplaceState(next))
	got, err = store.LoadState("w1")
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 1)
	assert.Empty(t, got.Connections, "connections to removed nodes are dropped")
	assert.Empty(t, got.Groups, "groups without two live members are dropped")
}

func TestWorkflowStore_ReplaceUnknownWorkflow(t *testing.T) {
	store := NewWorkflowStore(openTestDB(t))
	err := store.ReplaceState(sampleState("missing"))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = store.LoadState("missing")
	assert.Error(t, err)
}

func TestWorkflowStore_Fingerprint(t *testing.T) {
	store := NewWorkflowStore(openTestDB(t))
	require.NoError(t, store.CreateWorkflow(&domain.Workflow{ID: "w1", Name: "Pipeline"}))

	before, err := store.Fingerprint("w1")
	require.NoError(t, err)
	require.NoError(t, store.ReplaceState(sampleState("w1")))
	after, err := store.Fingerprint("w1")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, err = store.Fingerprint("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestHistoryStore_UndoRedo(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewWorkflowStore(db).CreateWorkflow(&domain.Workflow{ID: "w1", Name: "x"}))
	h := NewHistoryStore(db)

	for i := 1; i <= 3; i++ {
		_, err := h.Push("w1", fmt.Sprintf("r%d", i), "edit", fmt.Sprintf(`{"n":%d}`, i))
		require.NoError(t, err)
	}

	r, err := h.Step("w1", -1)
	require.NoError(t, err)
	assert.Equal(t, "r2", r.ID)
	r, err = h.Step("w1", -1)
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	r, err = h.Step("w1", -1)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = h.Step("w1", 1)
	require.NoError(t, err)
	assert.Equal(t, "r2", r.ID)

	// Pushing after an undo drops the redo branch.
	_, err = h.Push("w1", "r4", "edit", `{"n":4}`)
	require.NoError(t, err)
	hist, err := h.Load("w1")
	require.NoError(t, err)
	var ids []string
	for _, rev := range hist.Revisions {
		ids = append(ids, rev.ID)
	}
	assert.Equal(t, []string{"r1", "r2", "r4"}, ids)
	assert.Equal(t, "r4", hist.CurrentID)

	r, err = h.Step("w1", 1)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestHistoryStore_Prune(t *testing.T) {
	db := openTestDB(t)
	h := NewHistoryStore(db)
	for i := 0; i < MaxRevisions+5; i++ {
		_, err := h.Push("w1", fmt.Sprintf("r%d", i), "edit", "{}")
		require.NoError(t, err)
	}
	hist, err := h.Load("w1")
	require.NoError(t, err)
	assert.Len(t, hist.Revisions, MaxRevisions)
	assert.Equal(t, "r5", hist.Revisions[0].ID)

	require.NoError(t, h.Clear("w1"))
	hist, err = h.Load("w1")
	require.NoError(t, err)
	assert.Nil(t, hist)
	r, err := h.Step("w1", -1)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestSettingsStore(t *testing.T) {
	s := NewSettingsStore(openTestDB(t))
	_, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("theme", "dark"))
	require.NoError(t, s.Set("theme", "light"))
	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", v)
}
