package canvas

import (
	"math"
	"sort"

	"nodeflow/internal/domain"
)

// MaxSuggestions caps the quick-connect list.
const MaxSuggestions = 5

// Suggestion is a candidate target for the connection being drawn.
type Suggestion struct {
	NodeID   string          `json:"nodeId"`
	Title    string          `json:"title"`
	Type     domain.NodeType `json:"type"`
	Distance float64         `json:"distance"`
}

// Suggestions lists up to MaxSuggestions nodes the current CONNECT drag
// could end on, nearest input anchor first. The source and nodes it already
// feeds are left out. Outside CONNECT it returns nil.
func (s *Session) Suggestions() []Suggestion {
	if s.drag.Mode != ModeConnect {
		return nil
	}
	src, ok := s.nodes.Get(s.drag.SourceNodeID)
	if !ok {
		return nil
	}
	from := OutputAnchor(src)
	if s.drag.TempPoint != nil {
		from = *s.drag.TempPoint
	}
	var out []Suggestion
	for _, n := range s.nodes.List() {
		if n.ID == src.ID {
			continue
		}
		if _, exists := s.conns.Between(src.ID, n.ID); exists {
			continue
		}
		d := InputAnchor(n).Sub(from)
		out = append(out, Suggestion{
			NodeID:   n.ID,
			Title:    n.Title,
			Type:     n.Type,
			Distance: math.Hypot(d.X, d.Y),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
