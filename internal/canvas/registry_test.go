package canvas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodeflow/internal/domain"
)

func TestNodeRegistry_AddRejects(t *testing.T) {
	r := NewNodeRegistry()
	require.NoError(t, r.Add(domain.Node{ID: "a", Width: 10, Height: 10}))

	assert.ErrorIs(t, r.Add(domain.Node{ID: "a"}), ErrDuplicateID)
	assert.ErrorIs(t, r.Add(domain.Node{}), ErrInvalidReference)
	assert.ErrorIs(t, r.Add(domain.Node{ID: "b", X: math.NaN()}), ErrDegenerateGeometry)

	r.Remove("a")
	assert.ErrorIs(t, r.Add(domain.Node{ID: "a"}), ErrDuplicateID)
}

func TestNodeRegistry_PaintOrder(t *testing.T) {
	r := NewNodeRegistry()
	require.NoError(t, r.Add(domain.Node{ID: "under", Width: 100, Height: 100}))
	require.NoError(t, r.Add(domain.Node{ID: "over", X: 50, Y: 50, Width: 100, Height: 100}))

	n, ok := r.TopmostAt(Point{75, 75})
	require.True(t, ok)
	assert.Equal(t, "over", n.ID)

	n, ok = r.TopmostAt(Point{10, 10})
	require.True(t, ok)
	assert.Equal(t, "under", n.ID)

	_, ok = r.TopmostAt(Point{500, 500})
	assert.False(t, ok)
}

func TestNodeRegistry_Bounds(t *testing.T) {
	r := NewNodeRegistry()
	require.NoError(t, r.Add(domain.Node{ID: "a", X: -10, Y: 0, Width: 20, Height: 20}))
	require.NoError(t, r.Add(domain.Node{ID: "b", X: 100, Y: 50, Width: 10, Height: 10}))

	b, ok := r.Bounds([]string{"a", "b", "missing"})
	require.True(t, ok)
	assert.Equal(t, Rect{X: -10, Y: 0, Width: 120, Height: 60}, b)

	_, ok = r.Bounds([]string{"missing"})
	assert.False(t, ok)
}

func TestNodeRegistry_MoveResize(t *testing.T) {
	r := NewNodeRegistry()
	require.NoError(t, r.Add(domain.Node{ID: "a", Width: 20, Height: 20}))

	require.NoError(t, r.Translate("a", 5, -5))
	require.NoError(t, r.Resize("a", 0, 40))
	n, _ := r.Get("a")
	assert.Equal(t, domain.Node{ID: "a", X: 5, Y: -5, Width: 1, Height: 40}, n)

	assert.ErrorIs(t, r.Move("x", 0, 0), ErrInvalidReference)
	assert.ErrorIs(t, r.Move("a", math.Inf(1), 0), ErrDegenerateGeometry)
}

func TestGroupManager_RoundRobinColors(t *testing.T) {
	m := NewGroupManager()
	for i := 0; i < len(GroupPalette)+1; i++ {
		a, b := string(rune('a'+2*i)), string(rune('b'+2*i))
		g, err := m.Create("g"+a, []string{a, b})
		require.NoError(t, err)
		assert.Equal(t, GroupPalette[i%len(GroupPalette)], g.Color)
	}
}

func TestGroupManager_RemoveNodeDissolves(t *testing.T) {
	m := NewGroupManager()
	_, err := m.Create("g", []string{"a", "b", "c"})
	require.NoError(t, err)

	_, dissolved := m.RemoveNode("a")
	assert.False(t, dissolved)
	assert.Equal(t, []string{"b", "c"}, m.Members("g"))

	gid, dissolved := m.RemoveNode("b")
	assert.True(t, dissolved)
	assert.Equal(t, "g", gid)
	_, ok := m.GroupOf("c")
	assert.False(t, ok)
	assert.Zero(t, m.Len())
}
