package canvas

import "nodeflow/internal/domain"

// PasteOffset is how far, in world units, each successive paste is shifted
// right and down from the copied nodes.
const PasteOffset = 40.0

// clipboard holds the last copied nodes and the connections among them.
// Groups are not copied.
type clipboard struct {
	nodes  []domain.Node
	conns  []domain.Connection
	pastes int
}

// Copy puts the selected nodes, and the connections whose both ends are
// selected, on the clipboard. It returns the number of nodes copied. An empty
// selection leaves the clipboard as it was.
func (s *Session) Copy() int {
	ids := s.sel.NodeIDs()
	if len(ids) == 0 {
		return 0
	}
	picked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		picked[id] = struct{}{}
	}
	var clip clipboard
	for _, n := range s.nodes.List() {
		if _, ok := picked[n.ID]; ok {
			clip.nodes = append(clip.nodes, n)
		}
	}
	for _, c := range s.conns.List() {
		_, src := picked[c.SourceID]
		_, dst := picked[c.TargetID]
		if src && dst {
			clip.conns = append(clip.conns, c)
		}
	}
	s.clip = clip
	return len(clip.nodes)
}

// CanPaste reports whether the clipboard holds anything.
func (s *Session) CanPaste() bool { return len(s.clip.nodes) > 0 }

// Paste adds copies of the clipboard nodes with fresh ids, shifted by
// PasteOffset per paste, and recreates the connections among them. The
// pasted nodes become the selection.
func (s *Session) Paste() ([]domain.Node, error) {
	if len(s.clip.nodes) == 0 {
		return nil, ErrClipboardEmpty
	}
	if s.drag.Active() {
		s.cancelDrag()
	}
	s.clip.pastes++
	off := PasteOffset * float64(s.clip.pastes)

	remap := make(map[string]string, len(s.clip.nodes))
	pasted := make([]domain.Node, 0, len(s.clip.nodes))
	for _, src := range s.clip.nodes {
		n := src
		n.ID = s.newID()
		n.X += off
		n.Y += off
		if err := s.nodes.Add(n); err != nil {
			for _, p := range pasted {
				s.removeNode(p.ID)
			}
			s.clip.pastes--
			return nil, err
		}
		remap[src.ID] = n.ID
		pasted = append(pasted, n)
	}
	for _, c := range s.clip.conns {
		_ = s.conns.Add(domain.Connection{
			ID:       s.newID(),
			SourceID: remap[c.SourceID],
			TargetID: remap[c.TargetID],
		})
	}

	ids := make([]string, len(pasted))
	for i, n := range pasted {
		ids[i] = n.ID
	}
	s.quickAdd = nil
	s.sel.setNodes(ids)
	s.commit()
	return pasted, nil
}
