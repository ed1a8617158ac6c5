package canvas

import "nodeflow/internal/domain"

// DragMode is the current interpretation of an in-progress pointer gesture.
type DragMode int

const (
	ModeIdle DragMode = iota
	ModePan
	ModeMoveNode
	ModeConnect
	ModeSelectMarquee
	// ModeResizeGroup is reserved. Group frames are derived from their
	// members, so no gesture enters it.
	ModeResizeGroup
)

func (m DragMode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModePan:
		return "PAN"
	case ModeMoveNode:
		return "MOVE_NODE"
	case ModeConnect:
		return "CONNECT"
	case ModeSelectMarquee:
		return "SELECT_MARQUEE"
	case ModeResizeGroup:
		return "RESIZE_GROUP"
	}
	return "UNKNOWN"
}

// MarshalText lets modes travel as their names in JSON.
func (m DragMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// DragState is the state of the gesture machine. Only Mode, SourceNodeID and
// TempPoint are visible to renderers.
type DragState struct {
	Mode         DragMode `json:"mode"`
	SourceNodeID string   `json:"sourceNodeId,omitempty"`
	TempPoint    *Point   `json:"tempPoint,omitempty"`

	last      Point            // last pointer position, screen space
	anchor    Point            // marquee origin, world space
	current   Point            // marquee corner, world space
	originals map[string]Point // node positions when MOVE_NODE began
}

// Active reports whether a gesture is in progress.
func (d DragState) Active() bool { return d.Mode != ModeIdle }

// Marquee returns the marquee rectangle in world space while selecting.
func (d DragState) Marquee() (Rect, bool) {
	if d.Mode != ModeSelectMarquee {
		return Rect{}, false
	}
	return RectFromPoints(d.anchor, d.current), true
}

// PointerKind is the phase of a normalized pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerCancel
	// PointerLeave is sent when the pointer leaves the canvas bounds.
	PointerLeave
)

// PointerSource is the input modality an event came from. It never changes
// how the event is interpreted.
type PointerSource int

const (
	SourceMouse PointerSource = iota
	SourceTouch
)

// HitKind says what an event landed on. HitAuto asks the engine to resolve
// it from the event position.
type HitKind int

const (
	HitAuto HitKind = iota
	HitCanvas
	HitNode
	HitOutputAnchor
	HitConnection
)

// AnchorHitRadius is the screen-space radius around an output anchor that
// starts a connection drag.
const AnchorHitRadius = 12.0

// PointerEvent is the single gesture representation fed to the state machine.
// Mouse and touch handlers both translate into it.
type PointerEvent struct {
	Kind         PointerKind   `json:"kind"`
	Source       PointerSource `json:"source"`
	Screen       Point         `json:"screen"`
	Hit          HitKind       `json:"hit"`
	NodeID       string        `json:"nodeId,omitempty"`
	ConnectionID string        `json:"connectionId,omitempty"`
	Shift        bool          `json:"shift"`
}

// EventResult tells the host what happened. PreventDefault and
// StopPropagation depend only on whether the event was consumed, never on
// its source.
type EventResult struct {
	PreventDefault  bool               `json:"preventDefault"`
	StopPropagation bool               `json:"stopPropagation"`
	Changed         bool               `json:"changed"`
	Committed       bool               `json:"committed"`
	Mode            DragMode           `json:"mode"`
	Connection      *domain.Connection `json:"connection,omitempty"`
	QuickAdd        *QuickAddMenu      `json:"quickAdd,omitempty"`
}

// target is a resolved hit.
type target struct {
	kind HitKind
	id   string
}

// resolveHit decides what a screen point is over: output anchor, node body,
// connection, then canvas.
func (s *Session) resolveHit(ev PointerEvent) target {
	switch ev.Hit {
	case HitNode, HitOutputAnchor:
		return target{kind: ev.Hit, id: ev.NodeID}
	case HitConnection:
		return target{kind: HitConnection, id: ev.ConnectionID}
	case HitCanvas:
		return target{kind: HitCanvas}
	}
	w := ScreenToWorld(ev.Screen, s.transform)
	nodes := s.nodes.List()
	for i := len(nodes) - 1; i >= 0; i-- {
		a := WorldToScreen(OutputAnchor(nodes[i]), s.transform)
		d := ev.Screen.Sub(a)
		if d.X*d.X+d.Y*d.Y <= AnchorHitRadius*AnchorHitRadius {
			return target{kind: HitOutputAnchor, id: nodes[i].ID}
		}
	}
	if n, ok := s.nodes.TopmostAt(w); ok {
		return target{kind: HitNode, id: n.ID}
	}
	if c, ok := s.conns.HitTest(s.nodes, w); ok {
		return target{kind: HitConnection, id: c.ID}
	}
	return target{kind: HitCanvas}
}

// HandlePointer feeds one normalized event through the drag-mode machine.
// Every gesture ends on Up, Cancel or Leave; a Down that arrives while a
// gesture is active first cancels it.
func (s *Session) HandlePointer(ev PointerEvent) EventResult {
	var res EventResult
	if !ev.Screen.finite() {
		switch ev.Kind {
		case PointerUp:
			// A release without usable coordinates finishes at the last
			// known pointer position.
			ev.Screen = s.lastScreen()
			ev.Hit = HitCanvas
			if ev.NodeID != "" {
				ev.Hit = HitNode
			}
		case PointerCancel, PointerLeave:
		default:
			res.Mode = s.drag.Mode
			return res
		}
	}
	switch ev.Kind {
	case PointerDown:
		if s.drag.Active() {
			s.cancelDrag()
			res.Changed = true
		}
		s.pointerDown(ev, &res)
	case PointerMove:
		s.pointerMove(ev, &res)
	case PointerUp:
		s.pointerUp(ev, &res)
	case PointerCancel, PointerLeave:
		if s.hover != "" {
			s.hover = ""
			res.Changed = true
		}
		if s.drag.Active() {
			s.cancelDrag()
			res.Changed = true
			res.PreventDefault, res.StopPropagation = true, true
		}
	}
	res.Mode = s.drag.Mode
	return res
}

func (s *Session) pointerDown(ev PointerEvent, res *EventResult) {
	hit := s.resolveHit(ev)
	s.hover = ""
	world := ScreenToWorld(ev.Screen, s.transform)

	switch hit.kind {
	case HitOutputAnchor:
		if _, err := s.StartConnection(hit.id); err != nil {
			return
		}
		s.drag.last = ev.Screen
	case HitNode:
		if !s.nodes.Has(hit.id) {
			return
		}
		s.quickAdd = nil
		if !s.sel.Has(hit.id) {
			ids := []string{hit.id}
			if gid, ok := s.groups.GroupOf(hit.id); ok {
				ids = s.groups.Members(gid)
			}
			if ev.Shift {
				s.sel.addNodes(ids)
			} else {
				s.sel.setNodes(ids)
			}
		}
		s.drag = DragState{Mode: ModeMoveNode, last: ev.Screen, originals: s.moveSet()}
	case HitConnection:
		if err := s.SelectConnection(hit.id); err != nil {
			return
		}
		s.quickAdd = nil
	default:
		s.sel.clear()
		s.quickAdd = nil
		if ev.Shift {
			s.drag = DragState{Mode: ModeSelectMarquee, anchor: world, current: world}
		} else {
			s.drag = DragState{Mode: ModePan, last: ev.Screen}
		}
	}
	res.Changed = true
	res.PreventDefault, res.StopPropagation = true, true
}

func (s *Session) pointerMove(ev PointerEvent, res *EventResult) {
	switch s.drag.Mode {
	case ModePan:
		d := ev.Screen.Sub(s.drag.last)
		s.transform = Pan(s.transform, d.X, d.Y)
		s.drag.last = ev.Screen
	case ModeMoveNode:
		d := ev.Screen.Sub(s.drag.last)
		dx, dy := d.X/s.transform.K, d.Y/s.transform.K
		for id := range s.drag.originals {
			_ = s.nodes.Translate(id, dx, dy)
		}
		s.drag.last = ev.Screen
	case ModeConnect:
		w := ScreenToWorld(ev.Screen, s.transform)
		s.drag.TempPoint = &w
		s.drag.last = ev.Screen
	case ModeSelectMarquee:
		s.drag.current = ScreenToWorld(ev.Screen, s.transform)
	default:
		s.setHover(ev, res)
		return
	}
	res.Changed = true
	res.PreventDefault, res.StopPropagation = true, true
}

func (s *Session) pointerUp(ev PointerEvent, res *EventResult) {
	mode := s.drag.Mode
	if mode == ModeIdle {
		return
	}
	res.Changed = true
	res.PreventDefault, res.StopPropagation = true, true

	switch mode {
	case ModeMoveNode:
		moved := false
		for id, p := range s.drag.originals {
			if n, ok := s.nodes.Get(id); ok && (n.X != p.X || n.Y != p.Y) {
				moved = true
				break
			}
		}
		s.drag = DragState{}
		if moved {
			s.commit()
			res.Committed = true
		}
	case ModeConnect:
		s.releaseConnect(ev, res)
	case ModeSelectMarquee:
		s.drag.current = ScreenToWorld(ev.Screen, s.transform)
		rect, _ := s.drag.Marquee()
		ids := s.nodes.Intersecting(rect)
		if ev.Shift {
			s.sel.addNodes(ids)
		} else {
			s.sel.setNodes(ids)
		}
		s.drag = DragState{}
	default:
		s.drag = DragState{}
	}
}

// releaseConnect finishes a CONNECT drag. Over a node it completes the
// connection; over empty canvas it opens the quick-add menu. The machine is
// IDLE afterwards either way.
func (s *Session) releaseConnect(ev PointerEvent, res *EventResult) {
	var targetID string
	switch ev.Hit {
	case HitNode, HitOutputAnchor:
		targetID = ev.NodeID
	case HitAuto:
		if n, ok := s.nodes.TopmostAt(ScreenToWorld(ev.Screen, s.transform)); ok {
			targetID = n.ID
		}
	}
	if targetID == "" {
		source := s.drag.SourceNodeID
		s.drag = DragState{}
		if !s.nodes.Has(source) {
			return
		}
		w := ScreenToWorld(ev.Screen, s.transform)
		s.quickAdd = &QuickAddMenu{
			SourceID: source,
			X:        ev.Screen.X,
			Y:        ev.Screen.Y,
			WorldX:   w.X,
			WorldY:   w.Y,
		}
		menu := *s.quickAdd
		res.QuickAdd = &menu
		return
	}
	c, err := s.CompleteConnection(targetID)
	if err != nil {
		return
	}
	res.Connection = &c
	res.Committed = true
}

// setHover tracks the connection under an idle pointer. The move is not
// consumed.
func (s *Session) setHover(ev PointerEvent, res *EventResult) {
	id := ""
	if h := s.resolveHit(ev); h.kind == HitConnection {
		if _, ok := s.conns.Get(h.id); ok {
			id = h.id
		}
	}
	if id != s.hover {
		s.hover = id
		res.Changed = true
	}
}

// moveSet returns the start positions of every node a MOVE_NODE drag
// carries: the selection, with each grouped node widened to its whole group.
func (s *Session) moveSet() map[string]Point {
	originals := make(map[string]Point, s.sel.Len())
	add := func(id string) {
		if n, ok := s.nodes.Get(id); ok {
			originals[id] = Point{n.X, n.Y}
		}
	}
	for _, id := range s.sel.NodeIDs() {
		add(id)
		if gid, ok := s.groups.GroupOf(id); ok {
			for _, m := range s.groups.Members(gid) {
				add(m)
			}
		}
	}
	return originals
}

// lastScreen is the last pointer position seen by the active gesture.
func (s *Session) lastScreen() Point {
	if s.drag.Mode == ModeSelectMarquee {
		return WorldToScreen(s.drag.current, s.transform)
	}
	return s.drag.last
}

// cancelDrag ends the active gesture without touching the node or connection
// sets. Positions changed by MOVE_NODE are restored; a pan already applied is
// kept.
func (s *Session) cancelDrag() {
	if s.drag.Mode == ModeMoveNode {
		for id, p := range s.drag.originals {
			_ = s.nodes.Move(id, p.X, p.Y)
		}
	}
	s.drag = DragState{}
}

// Key names understood by HandleKey.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyCopy      = "Copy"
	KeyPaste     = "Paste"
)

// HandleKey applies a keyboard shortcut and reports whether state changed.
// Escape cancels the active gesture or closes the quick-add menu; Delete and
// Backspace remove the selected connection or nodes. Copy and Paste are the
// host's names for the platform copy and paste shortcuts.
func (s *Session) HandleKey(key string) bool {
	switch key {
	case KeyEscape:
		switch {
		case s.drag.Active():
			s.cancelDrag()
			return true
		case s.quickAdd != nil:
			s.quickAdd = nil
			return true
		case !s.sel.Empty():
			s.sel.clear()
			return true
		}
	case KeyDelete, KeyBackspace:
		if s.drag.Active() {
			return false
		}
		if id := s.sel.ConnectionID(); id != "" {
			return s.RemoveConnection(id)
		}
		return s.RemoveSelected() > 0
	case KeyCopy:
		s.Copy()
		return false
	case KeyPaste:
		nodes, err := s.Paste()
		return err == nil && len(nodes) > 0
	}
	return false
}
