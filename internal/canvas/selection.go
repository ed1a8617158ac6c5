package canvas

// ToolbarMargin is the screen-space gap between the top of the selection and
// the floating group toolbar.
const ToolbarMargin = 60.0

// Selection is the transient focus of the canvas: either a set of nodes or a
// single connection, never both.
type Selection struct {
	nodes        map[string]struct{}
	connectionID string
}

// NodeIDs returns the selected node ids, sorted.
func (s *Selection) NodeIDs() []string {
	return sortedKeys(s.nodes)
}

// ConnectionID returns the selected connection id, or "".
func (s *Selection) ConnectionID() string { return s.connectionID }

// Len is the number of selected nodes.
func (s *Selection) Len() int { return len(s.nodes) }

// Has reports whether nodeID is selected.
func (s *Selection) Has(nodeID string) bool {
	_, ok := s.nodes[nodeID]
	return ok
}

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool { return len(s.nodes) == 0 && s.connectionID == "" }

func (s *Selection) setNodes(ids []string) {
	s.connectionID = ""
	s.nodes = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.nodes[id] = struct{}{}
	}
}

func (s *Selection) addNodes(ids []string) {
	s.connectionID = ""
	if s.nodes == nil {
		s.nodes = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		s.nodes[id] = struct{}{}
	}
}

func (s *Selection) setConnection(id string) {
	s.nodes = nil
	s.connectionID = id
}

func (s *Selection) clear() {
	s.nodes = nil
	s.connectionID = ""
}

func (s *Selection) dropNode(id string) { delete(s.nodes, id) }

// prune removes ids that no longer exist.
func (s *Selection) prune(nodes *NodeRegistry, conns *ConnectionManager) {
	for id := range s.nodes {
		if !nodes.Has(id) {
			delete(s.nodes, id)
		}
	}
	if s.connectionID != "" {
		if _, ok := conns.Get(s.connectionID); !ok {
			s.connectionID = ""
		}
	}
}

// Affordance is the grouping action the toolbar offers for a selection.
type Affordance string

const (
	AffordanceNone    Affordance = ""
	AffordanceGroup   Affordance = "group"
	AffordanceUngroup Affordance = "ungroup"
)

// Toolbar describes the floating group toolbar. Position is in screen space:
// X is the horizontal centre and Y the top edge of the toolbar.
type Toolbar struct {
	Visible    bool       `json:"visible"`
	Position   Point      `json:"position"`
	Affordance Affordance `json:"affordance"`
	GroupID    string     `json:"groupId,omitempty"`
	Color      string     `json:"color"`
}

// affordanceFor decides between Group and Ungroup. Exactly one group's
// membership selects Ungroup; any other multi-node selection selects Group.
func affordanceFor(ids []string, groups *GroupManager) (Affordance, string) {
	if gid, ok := groups.ExactGroup(ids); ok {
		return AffordanceUngroup, gid
	}
	if len(ids) > 1 {
		return AffordanceGroup, ""
	}
	return AffordanceNone, ""
}

// placeToolbar centres the toolbar above the screen bounding box of the
// selection, ToolbarMargin pixels above its top edge.
func placeToolbar(bounds Rect, t Transform) Point {
	sr := ScreenRect(bounds, t)
	return Point{X: sr.X + sr.Width/2, Y: sr.Y - ToolbarMargin}
}
