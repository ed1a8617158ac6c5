package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/domain"
)

func down(x, y float64) PointerEvent { return PointerEvent{Kind: PointerDown, Screen: Point{x, y}} }
func move(x, y float64) PointerEvent { return PointerEvent{Kind: PointerMove, Screen: Point{x, y}} }
func up(x, y float64) PointerEvent   { return PointerEvent{Kind: PointerUp, Screen: Point{x, y}} }

func TestPointer_PanScenario(t *testing.T) {
	s := NewSession(WithViewport(Size{Width: 800, Height: 600}))

	res := s.HandlePointer(down(0, 0))
	assert.Equal(t, ModePan, res.Mode)
	s.HandlePointer(move(20, 10))
	s.HandlePointer(move(50, 30))
	res = s.HandlePointer(up(50, 30))

	assert.Equal(t, ModeIdle, res.Mode)
	assert.Equal(t, Transform{X: 50, Y: 30, K: 1}, s.Transform())
}

func TestPointer_ReleaseAlwaysEndsGesture(t *testing.T) {
	tests := []struct {
		name  string
		start PointerEvent
		want  DragMode
	}{
		{"pan", down(600, 500), ModePan},
		{"marquee", PointerEvent{Kind: PointerDown, Screen: Point{600, 500}, Shift: true}, ModeSelectMarquee},
		{"move node", down(50, 25), ModeMoveNode},
		{"connect", down(100, 25), ModeConnect},
	}
	ends := []PointerKind{PointerUp, PointerCancel, PointerLeave}
	for _, tt := range tests {
		for _, end := range ends {
			t.Run(tt.name, func(t *testing.T) {
				s := newTestSession(t)
				res := s.HandlePointer(tt.start)
				require.Equal(t, tt.want, res.Mode)
				s.HandlePointer(move(700, 550))

				res = s.HandlePointer(PointerEvent{Kind: end, Screen: Point{700, 550}})
				assert.Equal(t, ModeIdle, res.Mode)
				assert.Equal(t, ModeIdle, s.Drag().Mode)
				assert.Nil(t, s.State().TempEdge)
				assert.Nil(t, s.State().Marquee)
			})
		}
	}
}

func TestPointer_ReleaseWithoutCoordinatesEndsGesture(t *testing.T) {
	nan := Point{math.NaN(), math.NaN()}
	inf := Point{math.Inf(1), 0}

	t.Run("pan keeps the pan done so far", func(t *testing.T) {
		s := newTestSession(t)
		s.HandlePointer(down(600, 500))
		s.HandlePointer(move(650, 520))

		res := s.HandlePointer(PointerEvent{Kind: PointerUp, Screen: nan})
		assert.Equal(t, ModeIdle, res.Mode)
		assert.Equal(t, Transform{X: 50, Y: 20, K: 1}, s.Transform())
	})

	t.Run("move node commits at the last position", func(t *testing.T) {
		s := newTestSession(t)
		rev := s.Revision()
		s.HandlePointer(down(50, 25))
		s.HandlePointer(move(60, 35))

		res := s.HandlePointer(PointerEvent{Kind: PointerUp, Screen: inf})
		assert.Equal(t, ModeIdle, res.Mode)
		assert.True(t, res.Committed)
		assert.Greater(t, s.Revision(), rev)
		a, _ := s.Node("A")
		assert.Equal(t, 10.0, a.X)
	})

	for _, end := range []PointerKind{PointerUp, PointerCancel, PointerLeave} {
		for _, p := range []Point{nan, inf} {
			s := newTestSession(t)
			s.HandlePointer(down(100, 25))
			require.Equal(t, ModeConnect, s.Drag().Mode)

			res := s.HandlePointer(PointerEvent{Kind: end, Screen: p})
			assert.Equal(t, ModeIdle, res.Mode)
			assert.Nil(t, s.State().TempEdge)
		}
	}
}

func TestPointer_NonFiniteMoveIsIgnored(t *testing.T) {
	s := newTestSession(t)
	s.HandlePointer(down(600, 500))
	res := s.HandlePointer(PointerEvent{Kind: PointerMove, Screen: Point{math.NaN(), 0}})
	assert.Equal(t, ModePan, res.Mode)
	assert.False(t, res.Changed)
	assert.Equal(t, Identity(), s.Transform())
}

func TestPointer_CancelRestoresNodes(t *testing.T) {
	for _, end := range []PointerKind{PointerCancel, PointerLeave} {
		s := newTestSession(t)
		before := s.Snapshot()
		rev := s.Revision()

		s.HandlePointer(down(50, 25))
		s.HandlePointer(move(150, 125))
		a, _ := s.Node("A")
		require.Equal(t, 100.0, a.X)

		s.HandlePointer(PointerEvent{Kind: end, Screen: Point{150, 125}})
		assert.Equal(t, before, s.Snapshot())
		assert.Equal(t, rev, s.Revision())
	}
}

func TestPointer_CancelConnectLeavesSetsAlone(t *testing.T) {
	s := newTestSession(t)
	before := s.Snapshot()

	s.HandlePointer(down(100, 25))
	s.HandlePointer(move(320, 20))
	require.NotNil(t, s.State().TempEdge)

	assert.True(t, s.HandleKey(KeyEscape))
	assert.Equal(t, ModeIdle, s.Drag().Mode)
	assert.Equal(t, before, s.Snapshot())
}

func TestPointer_MoveNodeCommitsOnRelease(t *testing.T) {
	s := newTestSession(t)
	rev := s.Revision()

	s.HandlePointer(down(50, 25))
	s.HandlePointer(move(60, 35))
	assert.Equal(t, rev, s.Revision())
	res := s.HandlePointer(up(60, 35))

	assert.True(t, res.Committed)
	assert.Greater(t, s.Revision(), rev)
	a, _ := s.Node("A")
	assert.Equal(t, 10.0, a.X)
	assert.Equal(t, 10.0, a.Y)
	assert.Equal(t, []string{"A"}, s.Selection().NodeIDs)
}

func TestPointer_MoveNodeScalesByZoom(t *testing.T) {
	s := newTestSession(t)
	s.SetTransform(Transform{K: 2})

	// A spans screen 0..200 x 0..100 at K=2.
	s.HandlePointer(down(50, 50))
	s.HandlePointer(move(70, 50))
	s.HandlePointer(up(70, 50))

	a, _ := s.Node("A")
	assert.Equal(t, 10.0, a.X)
}

func TestPointer_GroupMovesTogether(t *testing.T) {
	s := newTestSession(t)
	_, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)
	s.ClearSelection()

	s.HandlePointer(down(50, 25))
	assert.Equal(t, []string{"A", "B"}, s.Selection().NodeIDs)
	s.HandlePointer(move(50, 65))
	s.HandlePointer(up(50, 65))

	a, _ := s.Node("A")
	b, _ := s.Node("B")
	c, _ := s.Node("C")
	assert.Equal(t, 40.0, a.Y)
	assert.Equal(t, 40.0, b.Y)
	assert.Equal(t, 200.0, c.Y)
}

func TestPointer_LoneSelectedMemberCarriesItsGroup(t *testing.T) {
	s := newTestSession(t)
	_, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, s.SelectNodes([]string{"A"}))

	s.HandlePointer(down(10, 10))
	s.HandlePointer(move(60, 10))
	s.HandlePointer(up(60, 10))

	a, _ := s.Node("A")
	b, _ := s.Node("B")
	c, _ := s.Node("C")
	assert.Equal(t, 50.0, a.X)
	assert.Equal(t, 350.0, b.X)
	assert.Equal(t, 0.0, c.X)
}

func TestPointer_GroupMoveCancelRestoresEveryMember(t *testing.T) {
	s := newTestSession(t)
	_, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, s.SelectNodes([]string{"B"}))
	before := s.Snapshot()

	s.HandlePointer(down(350, 25))
	s.HandlePointer(move(400, 75))
	a, _ := s.Node("A")
	require.Equal(t, 50.0, a.X)

	s.HandlePointer(PointerEvent{Kind: PointerLeave, Screen: Point{400, 75}})
	assert.Equal(t, before, s.Snapshot())
}

func TestPointer_HoverShowsDisconnect(t *testing.T) {
	s := newTestSession(t)
	c, err := s.Connect("A", "B")
	require.NoError(t, err)

	res := s.HandlePointer(move(200, 25))
	assert.True(t, res.Changed)
	assert.False(t, res.PreventDefault)
	st := s.State()
	require.Len(t, st.Connections, 1)
	assert.Equal(t, c.ID, st.Connections[0].ID)
	assert.True(t, st.Connections[0].Hovered)
	assert.True(t, st.Connections[0].ShowDisconnect)
	assert.False(t, st.Connections[0].Selected)

	res = s.HandlePointer(move(200, 400))
	assert.True(t, res.Changed)
	assert.False(t, s.State().Connections[0].ShowDisconnect)

	s.HandlePointer(move(200, 25))
	s.HandlePointer(PointerEvent{Kind: PointerLeave, Screen: Point{200, 25}})
	assert.False(t, s.State().Connections[0].Hovered)
}

func TestPointer_ConnectByDrag(t *testing.T) {
	s := newTestSession(t)

	res := s.HandlePointer(down(100, 25))
	require.Equal(t, ModeConnect, res.Mode)
	s.HandlePointer(move(250, 30))
	tmp := s.Drag().TempPoint
	require.NotNil(t, tmp)
	assert.Equal(t, Point{250, 30}, *tmp)

	res = s.HandlePointer(up(350, 25))
	assert.Equal(t, ModeIdle, res.Mode)
	require.NotNil(t, res.Connection)
	assert.Equal(t, "A", res.Connection.SourceID)
	assert.Equal(t, "B", res.Connection.TargetID)
	assert.True(t, res.Committed)
}

func TestPointer_ConnectOntoSelfAborts(t *testing.T) {
	s := newTestSession(t)
	s.HandlePointer(down(100, 25))
	res := s.HandlePointer(up(50, 25))

	assert.Nil(t, res.Connection)
	assert.Nil(t, res.QuickAdd)
	assert.Equal(t, ModeIdle, res.Mode)
	assert.Empty(t, s.Connections())
}

func TestPointer_QuickAddOnEmptyCanvas(t *testing.T) {
	s := newTestSession(t)
	s.HandlePointer(down(100, 25))
	s.HandlePointer(move(600, 400))
	res := s.HandlePointer(up(600, 400))

	assert.Equal(t, ModeIdle, res.Mode)
	require.NotNil(t, res.QuickAdd)
	assert.Equal(t, QuickAddMenu{SourceID: "A", X: 600, Y: 400, WorldX: 600, WorldY: 400}, *res.QuickAdd)
	assert.Empty(t, s.Connections())

	n, c, err := s.QuickAdd(domain.NodeTypeTextToVideo)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 600.0, n.X)
	assert.Equal(t, 400-n.Height/2, n.Y)
	assert.Equal(t, Point{600, 400}, InputAnchor(n))
	assert.Equal(t, "A", c.SourceID)
	assert.Equal(t, n.ID, c.TargetID)

	_, ok := s.QuickAddMenu()
	assert.False(t, ok)
	_, _, err = s.QuickAdd(domain.NodeTypeTextToVideo)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPointer_QuickAddDismiss(t *testing.T) {
	s := newTestSession(t)
	s.HandlePointer(down(100, 25))
	s.HandlePointer(up(600, 400))
	before := s.Snapshot()

	assert.True(t, s.HandleKey(KeyEscape))
	_, ok := s.QuickAddMenu()
	assert.False(t, ok)
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.DismissQuickAdd())
}

func TestPointer_Marquee(t *testing.T) {
	s := newTestSession(t)

	res := s.HandlePointer(PointerEvent{Kind: PointerDown, Screen: Point{-10, -10}, Shift: true})
	require.Equal(t, ModeSelectMarquee, res.Mode)
	s.HandlePointer(move(150, 60))
	m := s.State().Marquee
	require.NotNil(t, m)
	assert.Equal(t, Rect{X: -10, Y: -10, Width: 160, Height: 70}, *m)

	s.HandlePointer(up(150, 60))
	assert.Equal(t, []string{"A"}, s.Selection().NodeIDs)
	assert.Equal(t, Transform{K: 1}, s.Transform())
}

func TestPointer_MarqueeOverGroupSelectsGroup(t *testing.T) {
	s := newTestSession(t)
	g, err := s.GroupNodes([]string{"A", "B"})
	require.NoError(t, err)

	s.HandlePointer(PointerEvent{Kind: PointerDown, Screen: Point{-10, -10}, Shift: true})
	s.HandlePointer(up(500, 100))

	tb := s.Toolbar()
	assert.Equal(t, AffordanceUngroup, tb.Affordance)
	assert.Equal(t, g.ID, tb.GroupID)
}

func TestPointer_ClickConnectionSelectsIt(t *testing.T) {
	s := newTestSession(t)
	c, err := s.Connect("A", "B")
	require.NoError(t, err)
	require.NoError(t, s.SelectNodes([]string{"C"}))

	// Midpoint of A->B is (200, 25); 8px off the line is still on the hit stroke.
	res := s.HandlePointer(down(200, 33))
	assert.Equal(t, ModeIdle, res.Mode)
	assert.Equal(t, c.ID, s.Selection().ConnectionID)
	assert.Empty(t, s.Selection().NodeIDs)

	st := s.State()
	require.Len(t, st.Connections, 1)
	assert.True(t, st.Connections[0].ShowDisconnect)

	assert.True(t, s.HandleKey(KeyDelete))
	assert.Empty(t, s.Connections())
}

func TestPointer_DownDuringGestureCancelsFirst(t *testing.T) {
	s := newTestSession(t)
	s.HandlePointer(down(50, 25))
	s.HandlePointer(move(90, 25))

	res := s.HandlePointer(down(600, 500))
	assert.Equal(t, ModePan, res.Mode)
	a, _ := s.Node("A")
	assert.Equal(t, 0.0, a.X)
}

func TestPointer_TouchParity(t *testing.T) {
	gesture := []PointerEvent{
		down(100, 25), move(250, 30), up(350, 25),
		down(50, 25), move(80, 60), up(80, 60),
		down(600, 500), move(620, 510), PointerEvent{Kind: PointerLeave, Screen: Point{900, 900}},
		{Kind: PointerDown, Screen: Point{-20, -20}, Shift: true}, move(500, 300), up(500, 300),
	}
	mouse := newTestSession(t)
	touch := newTestSession(t)
	for _, ev := range gesture {
		ev.Source = SourceMouse
		mres := mouse.HandlePointer(ev)
		ev.Source = SourceTouch
		tres := touch.HandlePointer(ev)
		assert.Equal(t, mres, tres)
	}
	assert.Equal(t, mouse.State(), touch.State())
}

func TestPointer_IdleMoveIsNotConsumed(t *testing.T) {
	s := newTestSession(t)
	res := s.HandlePointer(move(10, 10))
	assert.False(t, res.PreventDefault)
	assert.False(t, res.StopPropagation)
	assert.False(t, res.Changed)

	res = s.HandlePointer(down(600, 500))
	assert.True(t, res.PreventDefault)
	assert.True(t, res.StopPropagation)
}

func TestPointer_StaleNodeIsIgnored(t *testing.T) {
	s := newTestSession(t)
	res := s.HandlePointer(PointerEvent{Kind: PointerDown, Screen: Point{1, 1}, Hit: HitNode, NodeID: "gone"})
	assert.Equal(t, ModeIdle, res.Mode)
	assert.False(t, res.Changed)
}

func TestSuggestions(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Connect("A", "C")
	require.NoError(t, err)
	assert.Nil(t, s.Suggestions())

	s.HandlePointer(down(100, 25))
	s.HandlePointer(move(290, 25))

	got := s.Suggestions()
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].NodeID)
	assert.InDelta(t, 10, got[0].Distance, 1e-9)
}
