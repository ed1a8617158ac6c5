package canvas

import (
	"fmt"

	"nodeflow/internal/domain"
)

// QuickAddMenu is opened when a connection drag is released over empty
// canvas. X and Y are screen coordinates for placing the menu; WorldX and
// WorldY are where a chosen node is dropped.
type QuickAddMenu struct {
	SourceID string  `json:"sourceId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	WorldX   float64 `json:"worldX"`
	WorldY   float64 `json:"worldY"`
}

// QuickAddMenu returns the open quick-add menu, if any.
func (s *Session) QuickAddMenu() (QuickAddMenu, bool) {
	if s.quickAdd == nil {
		return QuickAddMenu{}, false
	}
	return *s.quickAdd, true
}

// QuickAdd creates a node of type t with its input anchor at the menu's drop
// point and connects the menu's source node to it. The menu closes whether or
// not the source still exists.
func (s *Session) QuickAdd(t domain.NodeType) (domain.Node, *domain.Connection, error) {
	if s.quickAdd == nil {
		return domain.Node{}, nil, fmt.Errorf("quick add: no menu open: %w", ErrInvalidTransition)
	}
	spec, ok := domain.LookupNodeSpec(t)
	if !ok {
		return domain.Node{}, nil, fmt.Errorf("quick add %q: %w", t, ErrUnknownNodeType)
	}
	menu := *s.quickAdd
	n, err := s.addNode(t, Point{menu.WorldX, menu.WorldY - spec.Height/2})
	if err != nil {
		return domain.Node{}, nil, err
	}
	s.quickAdd = nil
	if !s.nodes.Has(menu.SourceID) {
		s.commit()
		return n, nil, nil
	}
	c := domain.Connection{ID: s.newID(), SourceID: menu.SourceID, TargetID: n.ID}
	if err := s.conns.Add(c); err != nil {
		s.commit()
		return n, nil, nil
	}
	s.commit()
	return n, &c, nil
}

// DismissQuickAdd closes the menu without mutating anything.
func (s *Session) DismissQuickAdd() bool {
	if s.quickAdd == nil {
		return false
	}
	s.quickAdd = nil
	return true
}
