package canvas

import (
	"fmt"

	"nodeflow/internal/domain"
)

// ConnectionManager owns the connection set and a derived index from node id
// to incident connection ids. Nodes never hold references to connections.
//
// Duplicate policy: a second connection with the same (source, target) pair
// is rejected with ErrDuplicateConnection. Reverse edges and cycles are
// allowed; they are a concern for whatever validates the workflow.
type ConnectionManager struct {
	conns    map[string]domain.Connection
	order    []string
	incident map[string]map[string]struct{}
}

// NewConnectionManager returns an empty manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		conns:    make(map[string]domain.Connection),
		incident: make(map[string]map[string]struct{}),
	}
}

// Add inserts c after checking for self-loops and duplicates.
func (m *ConnectionManager) Add(c domain.Connection) error {
	if c.ID == "" || c.SourceID == "" || c.TargetID == "" {
		return fmt.Errorf("add connection: %w", ErrInvalidReference)
	}
	if c.SourceID == c.TargetID {
		return ErrSelfLoop
	}
	if _, ok := m.conns[c.ID]; ok {
		return fmt.Errorf("add connection %s: %w", c.ID, ErrDuplicateID)
	}
	if existing, ok := m.Between(c.SourceID, c.TargetID); ok {
		return fmt.Errorf("add connection %s -> %s (existing %s): %w",
			c.SourceID, c.TargetID, existing.ID, ErrDuplicateConnection)
	}
	m.conns[c.ID] = c
	m.order = append(m.order, c.ID)
	m.index(c.SourceID, c.ID)
	m.index(c.TargetID, c.ID)
	return nil
}

// Remove deletes a connection by id. Removing an absent id is a no-op that
// returns false.
func (m *ConnectionManager) Remove(id string) bool {
	c, ok := m.conns[id]
	if !ok {
		return false
	}
	delete(m.conns, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.unindex(c.SourceID, id)
	m.unindex(c.TargetID, id)
	return true
}

// Get returns the connection with the given id.
func (m *ConnectionManager) Get(id string) (domain.Connection, bool) {
	c, ok := m.conns[id]
	return c, ok
}

// Len returns the number of stored connections, dangling ones included.
func (m *ConnectionManager) Len() int { return len(m.order) }

// Between returns the connection from source to target, if any.
func (m *ConnectionManager) Between(source, target string) (domain.Connection, bool) {
	for id := range m.incident[source] {
		c := m.conns[id]
		if c.SourceID == source && c.TargetID == target {
			return c, true
		}
	}
	return domain.Connection{}, false
}

// Incident returns the ids of connections touching nodeID, in creation order.
func (m *ConnectionManager) Incident(nodeID string) []string {
	set := m.incident[nodeID]
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for _, id := range m.order {
		if _, ok := set[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveIncident deletes every connection touching nodeID and returns their ids.
func (m *ConnectionManager) RemoveIncident(nodeID string) []string {
	ids := m.Incident(nodeID)
	for _, id := range ids {
		m.Remove(id)
	}
	return ids
}

// List returns every stored connection in creation order, dangling included.
func (m *ConnectionManager) List() []domain.Connection {
	out := make([]domain.Connection, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.conns[id])
	}
	return out
}

// Resolved is a connection whose endpoints both exist, with its curve.
type Resolved struct {
	domain.Connection
	Curve Curve `json:"curve"`
}

// Resolve pairs each live connection with its curve. Dangling connections are
// skipped, never reported as errors.
func (m *ConnectionManager) Resolve(nodes *NodeRegistry) []Resolved {
	out := make([]Resolved, 0, len(m.order))
	for _, id := range m.order {
		c := m.conns[id]
		src, ok := nodes.Get(c.SourceID)
		if !ok {
			continue
		}
		tgt, ok := nodes.Get(c.TargetID)
		if !ok {
			continue
		}
		out = append(out, Resolved{Connection: c, Curve: CurveBetween(src, tgt)})
	}
	return out
}

// CollectDangling removes connections whose endpoints are missing from nodes
// and returns the removed ids.
func (m *ConnectionManager) CollectDangling(nodes *NodeRegistry) []string {
	var dead []string
	for _, id := range m.order {
		c := m.conns[id]
		if !nodes.Has(c.SourceID) || !nodes.Has(c.TargetID) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		m.Remove(id)
	}
	return dead
}

// HitTest returns the topmost live connection whose hit stroke or disconnect
// affordance contains the world point.
func (m *ConnectionManager) HitTest(nodes *NodeRegistry, p Point) (domain.Connection, bool) {
	resolved := m.Resolve(nodes)
	for i := len(resolved) - 1; i >= 0; i-- {
		r := resolved[i]
		if r.Curve.Hit(p) || r.Curve.DisconnectRect().Contains(p) {
			return r.Connection, true
		}
	}
	return domain.Connection{}, false
}

func (m *ConnectionManager) load(conns []domain.Connection) {
	m.conns = make(map[string]domain.Connection)
	m.order = nil
	m.incident = make(map[string]map[string]struct{})
	for _, c := range conns {
		// Restored sets may contain entries the current policy would reject;
		// drop them rather than fail the whole restore.
		_ = m.Add(c)
	}
}

func (m *ConnectionManager) index(nodeID, connID string) {
	set, ok := m.incident[nodeID]
	if !ok {
		set = make(map[string]struct{})
		m.incident[nodeID] = set
	}
	set[connID] = struct{}{}
}

func (m *ConnectionManager) unindex(nodeID, connID string) {
	set := m.incident[nodeID]
	delete(set, connID)
	if len(set) == 0 {
		delete(m.incident, nodeID)
	}
}
