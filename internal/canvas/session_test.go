package canvas

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/domain"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

// newTestSession returns an 800x600 session at the identity transform holding
// nodes A (0,0 100x50), B (300,0 100x50) and C (0,200 100x50).
func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(WithIDGenerator(seqIDs("id")), WithViewport(Size{Width: 800, Height: 600}))
	s.Restore(Snapshot{
		Nodes: []domain.Node{
			{ID: "A", Type: domain.NodeTypeTextToImage, X: 0, Y: 0, Width: 100, Height: 50},
			{ID: "B", Type: domain.NodeTypeTextToVideo, X: 300, Y: 0, Width: 100, Height: 50},
			{ID: "C", Type: domain.NodeTypeCreativeDesc, X: 0, Y: 200, Width: 100, Height: 50},
		},
		Transform: Identity(),
	})
	return s
}

func TestSession_ConnectScenario(t *testing.T) {
	s := newTestSession(t)

	drag, err := s.StartConnection("A")
	require.NoError(t, err)
	assert.Equal(t, ModeConnect, drag.Mode)
	assert.Equal(t, "A", drag.SourceNodeID)

	c, err := s.CompleteConnection("B")
	require.NoError(t, err)
	assert.Equal(t, "A", c.SourceID)
	assert.Equal(t, "B", c.TargetID)
	assert.Equal(t, ModeIdle, s.Drag().Mode)

	st := s.State()
	require.Len(t, st.Connections, 1)
	assert.Equal(t, 80.0, st.Connections[0].Curve.ControlOffset)
}

func TestSession_CompleteConnectionFailures(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   error
	}{
		{"self loop", "A", ErrSelfLoop},
		{"empty canvas", "", ErrInvalidReference},
		{"unknown node", "ghost", ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			before := s.Snapshot()
			_, err := s.StartConnection("A")
			require.NoError(t, err)

			_, err = s.CompleteConnection(tt.target)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, ModeIdle, s.Drag().Mode)
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestSession_DuplicateConnectionRejected(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "B")
	require.NoError(t, err)

	_, err = s.StartConnection("A")
	require.NoError(t, err)
	_, err = s.CompleteConnection("B")
	assert.ErrorIs(t, err, ErrDuplicateConnection)
	assert.Len(t, s.Connections(), 1)
}

func TestSession_CompleteWithoutStart(t *testing.T) {
	s := newTestSession(t)
	_, err := s.CompleteConnection("B")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.UpdateTempEndpoint(Point{1, 1}), ErrInvalidTransition)
}

func TestSession_RemoveConnectionIdempotent(t *testing.T) {
	s := newTestSession(t)
	c, err := s.Connect("A", "B")
	require.NoError(t, err)
	require.NoError(t, s.SelectConnection(c.ID))

	assert.True(t, s.RemoveConnection(c.ID))
	once := s.State()
	assert.False(t, s.RemoveConnection(c.ID))
	assert.Equal(t, once, s.State())
	assert.Empty(t, s.Selection().ConnectionID)
}

func TestSession_DanglingConnectionsAreHidden(t *testing.T) {
	s := NewSession()
	s.Restore(Snapshot{
		Nodes: []domain.Node{{ID: "A", Width: 100, Height: 50}},
		Connections: []domain.Connection{
			{ID: "c1", SourceID: "A", TargetID: "gone"},
		},
	})

	assert.NotPanics(t, func() { _ = s.State() })
	assert.Empty(t, s.State().Connections)
	assert.Len(t, s.Connections(), 1)
	assert.Equal(t, []string{"c1"}, s.CollectGarbage())
	assert.Empty(t, s.Connections())
}

func TestSession_SelectConnectionClearsNodes(t *testing.T) {
	s := newTestSession(t)
	c, err := s.Connect("A", "B")
	require.NoError(t, err)
	require.NoError(t, s.SelectNodes([]string{"A", "C"}))

	require.NoError(t, s.SelectConnection(c.ID))
	assert.Empty(t, s.Selection().NodeIDs)
	assert.Equal(t, c.ID, s.Selection().ConnectionID)

	require.NoError(t, s.SelectNodes([]string{"A"}))
	assert.Empty(t, s.Selection().ConnectionID)

	assert.ErrorIs(t, s.SelectConnection("nope"), ErrInvalidReference)
}

func TestSession_GroupExclusivity(t *testing.T) {
	s := newTestSession(t)
	before := s.Nodes()

	g, err := s.GroupNodes([]string{"A", "B", "C"})
	require.NoError(t, err)
	require.Len(t, s.Groups(), 1)
	assert.Equal(t, []string{"A", "B", "C"}, s.Groups()[0].MemberIDs)
	assert.Equal(t, GroupPalette[0], g.Color)

	require.NoError(t, s.Ungroup(g.ID))
	assert.Empty(t, s.Groups())
	assert.Equal(t, before, s.Nodes())

	assert.ErrorIs(t, s.Ungroup(g.ID), ErrInvalidTransition)
}

func TestSession_GroupNeedsTwoNodes(t *testing.T) {
	s := newTestSession(t)
	_, err := s.GroupNodes([]string{"A"})
	assert.ErrorIs(t, err, ErrTooFewNodes)
	_, err = s.GroupNodes([]string{"A", "A"})
	assert.ErrorIs(t, err, ErrTooFewNodes)
	_, err = s.GroupNodes([]string{"A", "ghost"})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Empty(t, s.Groups())
}

func TestSession_RegroupingMovesMembers(t *testing.T) {
	s := newTestSession(t)
	first, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)

	second, err := s.GroupNodes([]string{"B", "C"})
	require.NoError(t, err)

	// A alone cannot stay a group.
	_, ok := s.groups.Get(first.ID)
	assert.False(t, ok)
	require.Len(t, s.Groups(), 1)
	assert.Equal(t, second.ID, s.Groups()[0].ID)
	assert.Equal(t, GroupPalette[1], second.Color)
}

func TestSession_SetGroupColor(t *testing.T) {
	s := newTestSession(t)
	g, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetGroupColor(g.ID, "#123456"), ErrInvalidColor)
	assert.ErrorIs(t, s.SetGroupColor("nope", GroupPalette[2]), ErrInvalidReference)
	require.NoError(t, s.SetGroupColor(g.ID, GroupPalette[2]))
	assert.Equal(t, GroupPalette[2], s.Groups()[0].Color)
}

func TestSession_ToolbarAffordance(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.SelectNodes([]string{"A"}))
	assert.False(t, s.Toolbar().Visible)

	require.NoError(t, s.SelectNodes([]string{"A", "B"}))
	tb := s.Toolbar()
	assert.True(t, tb.Visible)
	assert.Equal(t, AffordanceGroup, tb.Affordance)
	assert.Equal(t, Point{X: 200, Y: -ToolbarMargin}, tb.Position)

	g, err := s.Group()
	require.NoError(t, err)
	tb = s.Toolbar()
	assert.Equal(t, AffordanceUngroup, tb.Affordance)
	assert.Equal(t, g.ID, tb.GroupID)
	assert.Equal(t, g.Color, tb.Color)

	// A superset of a group is offered as a new group.
	require.NoError(t, s.SelectNodes([]string{"A", "B", "C"}))
	assert.Equal(t, AffordanceGroup, s.Toolbar().Affordance)

	require.NoError(t, s.SelectNodes([]string{"A", "B"}))
	require.NoError(t, s.UngroupSelection())
	assert.Empty(t, s.Groups())
	assert.ErrorIs(t, s.UngroupSelection(), ErrInvalidTransition)
}

func TestSession_ToolbarFollowsTransform(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.SelectNodes([]string{"A", "B"}))
	s.SetTransform(Transform{X: 10, Y: 20, K: 2})

	// Screen bounds: x 10..810, top 20.
	assert.Equal(t, Point{X: 410, Y: 20 - ToolbarMargin}, s.Toolbar().Position)
}

func TestSession_RemoveNodeCascades(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "B")
	require.NoError(t, err)
	_, err = s.Connect("B", "C")
	require.NoError(t, err)
	ac, err := s.Connect("A", "C")
	require.NoError(t, err)
	_, err = s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)

	require.NoError(t, s.RemoveNode("B"))
	assert.Equal(t, []domain.Connection{ac}, s.Connections())
	assert.Empty(t, s.Groups())
	assert.Equal(t, []string{"A"}, s.Selection().NodeIDs)
	assert.ErrorIs(t, s.RemoveNode("B"), ErrInvalidReference)
}

func TestSession_NodeIDsNeverReused(t *testing.T) {
	s := NewSession(WithIDGenerator(func() string { return "same" }))
	_, err := s.AddNode(domain.NodeTypeTextToImage, Point{})
	require.NoError(t, err)
	require.NoError(t, s.RemoveNode("same"))

	_, err = s.AddNode(domain.NodeTypeTextToImage, Point{})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestSession_AddNodeUsesTypeTable(t *testing.T) {
	s := NewSession(WithIDGenerator(seqIDs("n")))
	n, err := s.AddNode(domain.NodeTypeTextToVideo, Point{10, 20})
	require.NoError(t, err)
	spec, _ := domain.LookupNodeSpec(domain.NodeTypeTextToVideo)
	assert.Equal(t, domain.Node{
		ID: "n1", Type: domain.NodeTypeTextToVideo, X: 10, Y: 20,
		Width: spec.Width, Height: spec.Height, Title: spec.Title,
	}, n)

	d, err := s.DropNode(domain.NodeTypeCreativeDesc, Point{0, 0})
	require.NoError(t, err)
	assert.Equal(t, -d.Width/2, d.X)
	assert.Equal(t, -d.Height/2, d.Y)

	_, err = s.AddNode("SPEECH", Point{})
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestSession_SnapshotRestore(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "B")
	require.NoError(t, err)
	_, err = s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)
	snap := s.Snapshot()

	require.NoError(t, s.RemoveNode("A"))
	s.Restore(snap)
	assert.Equal(t, snap, s.Snapshot())

	// The color cursor survives, so the next group gets the next color.
	g, err := s.GroupNodes([]string{"B", "C"})
	require.NoError(t, err)
	assert.Equal(t, GroupPalette[1], g.Color)
}

func TestSession_Clear(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "B")
	require.NoError(t, err)
	s.ZoomAt(2, Point{})
	rev := s.Revision()

	s.Clear()
	st := s.State()
	assert.Empty(t, st.Nodes)
	assert.Empty(t, st.Connections)
	assert.Empty(t, st.Groups)
	assert.Equal(t, ResetZoom(Size{Width: 800, Height: 600}), st.Transform)
	assert.Greater(t, s.Revision(), rev)
}

func TestSession_ViewportOps(t *testing.T) {
	s := newTestSession(t)

	s.SetZoom(5)
	assert.Equal(t, MaxZoom, s.Transform().K)
	// Centre anchored.
	assert.Equal(t, Point{400, 300}, ScreenToWorld(Point{400, 300}, s.Transform()))

	s.ResetZoom()
	assert.Equal(t, Transform{X: 400, Y: 300, K: 1}, s.Transform())

	s.Wheel(-1, Point{400, 300})
	assert.InDelta(t, WheelZoomFactor, s.Transform().K, 1e-12)
	s.Wheel(1, Point{400, 300})
	assert.InDelta(t, 1, s.Transform().K, 1e-12)

	rev := s.Revision()
	s.Pan(5, 5)
	assert.Equal(t, rev, s.Revision())
}

func TestSession_RestoreDropsMissingGroupMembers(t *testing.T) {
	s := newTestSession(t)
	snap := s.Snapshot()
	snap.Groups = []domain.Group{
		{ID: "g1", MemberIDs: []string{"A", "B", "ghost"}, Color: GroupPalette[2]},
		{ID: "g2", MemberIDs: []string{"C", "gone"}, Color: GroupPalette[0]},
	}
	s.Restore(snap)

	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.Equal(t, []string{"A", "B"}, groups[0].MemberIDs)
	assert.Equal(t, GroupPalette[2], groups[0].Color)

	s.HandlePointer(down(50, 25))
	require.Equal(t, ModeMoveNode, s.Drag().Mode)
	assert.Len(t, s.drag.originals, 2)
	assert.NotContains(t, s.drag.originals, "ghost")
}

func TestSession_CopyPaste(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "B")
	require.NoError(t, err)
	_, err = s.Connect("B", "C")
	require.NoError(t, err)

	_, err = s.Paste()
	require.ErrorIs(t, err, ErrClipboardEmpty)
	assert.Equal(t, 0, s.Copy())

	require.NoError(t, s.SelectNodes([]string{"A", "B"}))
	assert.Equal(t, 2, s.Copy())
	rev := s.Revision()

	pasted, err := s.Paste()
	require.NoError(t, err)
	require.Len(t, pasted, 2)
	assert.Greater(t, s.Revision(), rev)
	assert.Equal(t, "id3", pasted[0].ID)
	assert.Equal(t, Point{40, 40}, Point{pasted[0].X, pasted[0].Y})
	assert.Equal(t, "id4", pasted[1].ID)
	assert.Equal(t, Point{340, 40}, Point{pasted[1].X, pasted[1].Y})
	assert.Equal(t, domain.NodeTypeTextToVideo, pasted[1].Type)
	assert.ElementsMatch(t, []string{"id3", "id4"}, s.Selection().NodeIDs)

	// Only the edge between copied nodes comes along.
	c, ok := s.conns.Between("id3", "id4")
	require.True(t, ok)
	assert.Equal(t, "id5", c.ID)
	assert.Equal(t, 3, s.conns.Len())

	// Each paste steps further away.
	assert.True(t, s.HandleKey(KeyPaste))
	n, ok := s.Node("id6")
	require.True(t, ok)
	assert.Equal(t, 80.0, n.X)
	assert.Equal(t, 80.0, n.Y)

	// Copy does not change the canvas.
	rev = s.Revision()
	assert.False(t, s.HandleKey(KeyCopy))
	assert.Equal(t, rev, s.Revision())
}
