package canvas

import (
	"fmt"

	"nodeflow/internal/domain"
)

// NodeRegistry is the authoritative set of nodes on a canvas. Iteration order
// is insertion order, which is also the paint order (later nodes on top).
type NodeRegistry struct {
	nodes map[string]*domain.Node
	order []string
	// used holds every id ever added so ids are never reused, even after delete.
	used map[string]struct{}
}

// NewNodeRegistry returns an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		nodes: make(map[string]*domain.Node),
		used:  make(map[string]struct{}),
	}
}

// Add inserts n. It fails if the id is empty, present, or was used before.
func (r *NodeRegistry) Add(n domain.Node) error {
	if n.ID == "" {
		return fmt.Errorf("add node: empty id: %w", ErrInvalidReference)
	}
	if _, ok := r.used[n.ID]; ok {
		return fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateID)
	}
	if !finite(n.X) || !finite(n.Y) || !finite(n.Width) || !finite(n.Height) {
		return fmt.Errorf("add node %s: %w", n.ID, ErrDegenerateGeometry)
	}
	r.used[n.ID] = struct{}{}
	r.nodes[n.ID] = &n
	r.order = append(r.order, n.ID)
	return nil
}

// Get returns a copy of the node with the given id.
func (r *NodeRegistry) Get(id string) (domain.Node, bool) {
	n, ok := r.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return *n, true
}

// Has reports whether id is a live node.
func (r *NodeRegistry) Has(id string) bool {
	_, ok := r.nodes[id]
	return ok
}

// Len returns the number of live nodes.
func (r *NodeRegistry) Len() int { return len(r.order) }

// Move sets the world position of a node.
func (r *NodeRegistry) Move(id string, x, y float64) error {
	n, ok := r.nodes[id]
	if !ok {
		return fmt.Errorf("move node %s: %w", id, ErrInvalidReference)
	}
	if !finite(x) || !finite(y) {
		return fmt.Errorf("move node %s: %w", id, ErrDegenerateGeometry)
	}
	n.X, n.Y = x, y
	return nil
}

// Translate shifts a node by a world-space delta.
func (r *NodeRegistry) Translate(id string, dx, dy float64) error {
	n, ok := r.nodes[id]
	if !ok {
		return fmt.Errorf("translate node %s: %w", id, ErrInvalidReference)
	}
	return r.Move(id, n.X+dx, n.Y+dy)
}

// Resize sets the size of a node. Sizes below 1 are raised to 1.
func (r *NodeRegistry) Resize(id string, w, h float64) error {
	n, ok := r.nodes[id]
	if !ok {
		return fmt.Errorf("resize node %s: %w", id, ErrInvalidReference)
	}
	if !finite(w) || !finite(h) {
		return fmt.Errorf("resize node %s: %w", id, ErrDegenerateGeometry)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	n.Width, n.Height = w, h
	return nil
}

// SetTitle renames a node.
func (r *NodeRegistry) SetTitle(id, title string) error {
	n, ok := r.nodes[id]
	if !ok {
		return fmt.Errorf("rename node %s: %w", id, ErrInvalidReference)
	}
	n.Title = title
	return nil
}

// Remove deletes a node. It returns false when the id was not present.
// The id stays reserved.
func (r *NodeRegistry) Remove(id string) bool {
	if _, ok := r.nodes[id]; !ok {
		return false
	}
	delete(r.nodes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns copies of all nodes in paint order.
func (r *NodeRegistry) List() []domain.Node {
	out := make([]domain.Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.nodes[id])
	}
	return out
}

// TopmostAt returns the topmost node whose rectangle contains the world point.
func (r *NodeRegistry) TopmostAt(p Point) (domain.Node, bool) {
	for i := len(r.order) - 1; i >= 0; i-- {
		n := r.nodes[r.order[i]]
		if NodeRect(*n).Contains(p) {
			return *n, true
		}
	}
	return domain.Node{}, false
}

// Intersecting returns the ids of nodes whose rectangles intersect rect, in
// paint order.
func (r *NodeRegistry) Intersecting(rect Rect) []string {
	var ids []string
	for _, id := range r.order {
		if NodeRect(*r.nodes[id]).Intersects(rect) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Bounds returns the bounding box of the given nodes. Unknown ids are skipped;
// ok is false when none of them exist.
func (r *NodeRegistry) Bounds(ids []string) (Rect, bool) {
	var out Rect
	found := false
	for _, id := range ids {
		n, ok := r.nodes[id]
		if !ok {
			continue
		}
		if !found {
			out = NodeRect(*n)
			found = true
			continue
		}
		out = out.Union(NodeRect(*n))
	}
	return out, found
}

// reset drops every node but keeps the used-id reservations.
func (r *NodeRegistry) reset() {
	r.nodes = make(map[string]*domain.Node)
	r.order = nil
}

// NodeRect returns the world rectangle of a node.
func NodeRect(n domain.Node) Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// load replaces the live set with nodes (snapshot restore). Restored ids may
// have been used before; every loaded id is reserved afterwards.
func (r *NodeRegistry) load(nodes []domain.Node) {
	r.reset()
	for _, n := range nodes {
		if n.ID == "" || r.Has(n.ID) {
			continue
		}
		n := n
		r.used[n.ID] = struct{}{}
		r.nodes[n.ID] = &n
		r.order = append(r.order, n.ID)
	}
}
