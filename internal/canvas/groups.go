package canvas

import (
	"fmt"
	"sort"

	"nodeflow/internal/domain"
)

// GroupPalette is the fixed set of colors a group may carry.
var GroupPalette = []string{
	"#06b6d4", // cyan
	"#8b5cf6", // violet
	"#ec4899", // pink
	"#f97316", // orange
	"#eab308", // yellow
	"#22c55e", // green
	"#3b82f6", // blue
	"#71717a", // zinc
}

// GroupFramePadding is the world-space margin drawn around group members.
const GroupFramePadding = 20.0

// ValidGroupColor reports whether color is in GroupPalette.
func ValidGroupColor(color string) bool {
	for _, c := range GroupPalette {
		if c == color {
			return true
		}
	}
	return false
}

type groupEntry struct {
	id      string
	members map[string]struct{}
	color   string
}

// GroupManager tracks groups and the node -> group membership index.
//
// New groups take colors round-robin from GroupPalette, starting at the
// first entry, in creation order for the lifetime of the manager.
type GroupManager struct {
	groups   map[string]*groupEntry
	order    []string
	memberOf map[string]string
	created  int
}

// NewGroupManager returns an empty manager.
func NewGroupManager() *GroupManager {
	return &GroupManager{
		groups:   make(map[string]*groupEntry),
		memberOf: make(map[string]string),
	}
}

// NextColor is the color the next created group will receive.
func (m *GroupManager) NextColor() string {
	return GroupPalette[m.created%len(GroupPalette)]
}

// Create groups nodeIDs under id. Duplicate ids in nodeIDs are ignored; fewer
// than two distinct nodes fails with ErrTooFewNodes. Nodes already in another
// group move to the new one, and a group left with fewer than two members
// is dissolved.
func (m *GroupManager) Create(id string, nodeIDs []string) (domain.Group, error) {
	if id == "" {
		return domain.Group{}, fmt.Errorf("create group: %w", ErrInvalidReference)
	}
	if _, ok := m.groups[id]; ok {
		return domain.Group{}, fmt.Errorf("create group %s: %w", id, ErrDuplicateID)
	}
	members := make(map[string]struct{}, len(nodeIDs))
	for _, n := range nodeIDs {
		if n != "" {
			members[n] = struct{}{}
		}
	}
	if len(members) < 2 {
		return domain.Group{}, ErrTooFewNodes
	}
	for n := range members {
		m.detach(n)
	}
	g := &groupEntry{id: id, members: members, color: m.NextColor()}
	m.created++
	m.groups[id] = g
	m.order = append(m.order, id)
	for n := range members {
		m.memberOf[n] = id
	}
	return g.export(), nil
}

// Remove deletes a group record; its members stay on the canvas ungrouped.
func (m *GroupManager) Remove(id string) bool {
	g, ok := m.groups[id]
	if !ok {
		return false
	}
	for n := range g.members {
		delete(m.memberOf, n)
	}
	delete(m.groups, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// SetColor changes a group's color. Colors outside GroupPalette are rejected.
func (m *GroupManager) SetColor(id, color string) error {
	g, ok := m.groups[id]
	if !ok {
		return fmt.Errorf("set group color %s: %w", id, ErrInvalidReference)
	}
	if !ValidGroupColor(color) {
		return fmt.Errorf("set group color %q: %w", color, ErrInvalidColor)
	}
	g.color = color
	return nil
}

// Get returns the group with the given id.
func (m *GroupManager) Get(id string) (domain.Group, bool) {
	g, ok := m.groups[id]
	if !ok {
		return domain.Group{}, false
	}
	return g.export(), true
}

// GroupOf returns the id of the group containing nodeID.
func (m *GroupManager) GroupOf(nodeID string) (string, bool) {
	id, ok := m.memberOf[nodeID]
	return id, ok
}

// Members returns the sorted member ids of a group.
func (m *GroupManager) Members(id string) []string {
	g, ok := m.groups[id]
	if !ok {
		return nil
	}
	return sortedKeys(g.members)
}

// Len returns the number of groups.
func (m *GroupManager) Len() int { return len(m.order) }

// List returns every group in creation order.
func (m *GroupManager) List() []domain.Group {
	out := make([]domain.Group, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.groups[id].export())
	}
	return out
}

// ExactGroup returns the group whose membership equals ids exactly.
func (m *GroupManager) ExactGroup(ids []string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	gid, ok := m.memberOf[ids[0]]
	if !ok {
		return "", false
	}
	g := m.groups[gid]
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if m.memberOf[id] != gid {
			return "", false
		}
		seen[id] = struct{}{}
	}
	if len(seen) != len(g.members) {
		return "", false
	}
	return gid, true
}

// RemoveNode takes nodeID out of its group, dissolving the group if fewer
// than two members remain. It returns the id of a dissolved group, if any.
func (m *GroupManager) RemoveNode(nodeID string) (dissolved string, ok bool) {
	return m.detach(nodeID)
}

func (m *GroupManager) detach(nodeID string) (string, bool) {
	gid, ok := m.memberOf[nodeID]
	if !ok {
		return "", false
	}
	g := m.groups[gid]
	delete(g.members, nodeID)
	delete(m.memberOf, nodeID)
	if len(g.members) < 2 {
		m.Remove(gid)
		return gid, true
	}
	return "", false
}

func (m *GroupManager) load(groups []domain.Group) {
	m.groups = make(map[string]*groupEntry)
	m.order = nil
	m.memberOf = make(map[string]string)
	created := m.created
	for _, g := range groups {
		color := g.Color
		if _, err := m.Create(g.ID, g.MemberIDs); err != nil {
			continue
		}
		if ValidGroupColor(color) {
			m.groups[g.ID].color = color
		}
	}
	m.created = created
}

func (g *groupEntry) export() domain.Group {
	return domain.Group{ID: g.id, MemberIDs: sortedKeys(g.members), Color: g.color}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
