package canvas

import (
	"fmt"

	"github.com/google/uuid"

	"nodeflow/internal/domain"
)

// Session is one open canvas: the node, connection and group sets plus the
// transient view state (transform, selection, drag, quick-add menu).
//
// A Session is not safe for concurrent use. Callers that touch it from more
// than one goroutine must serialise access and should work on Snapshot
// copies outside the lock.
type Session struct {
	nodes  *NodeRegistry
	conns  *ConnectionManager
	groups *GroupManager

	transform Transform
	viewport  Size
	minimap   Minimap

	sel      Selection
	drag     DragState
	quickAdd *QuickAddMenu
	hover    string // connection under an idle pointer
	clip     clipboard

	newID    func() string
	revision uint64
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator replaces the id source for nodes, connections and groups.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithViewport sets the screen size of the canvas.
func WithViewport(size Size) Option {
	return func(s *Session) { s.viewport = size }
}

// WithMinimap sets the minimap panel geometry.
func WithMinimap(m Minimap) Option {
	return func(s *Session) { s.minimap = m }
}

// NewSession returns an empty canvas with the identity transform.
func NewSession(opts ...Option) *Session {
	s := &Session{
		nodes:     NewNodeRegistry(),
		conns:     NewConnectionManager(),
		groups:    NewGroupManager(),
		transform: Identity(),
		minimap:   DefaultMinimap,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revision increases with every committed change to nodes, connections or
// groups. View-only changes (pan, zoom, selection) leave it alone.
func (s *Session) Revision() uint64 { return s.revision }

func (s *Session) commit() { s.revision++ }

// ── Read model ───────────────────────────────────────────

// RenderedConnection is a live connection ready to draw. Hovered follows the
// idle pointer moves fed to HandlePointer; the disconnect control shows on
// hover or selection.
type RenderedConnection struct {
	Resolved
	Path           string `json:"path"`
	Selected       bool   `json:"selected"`
	Hovered        bool   `json:"hovered"`
	ShowDisconnect bool   `json:"showDisconnect"`
	Disconnect     Rect   `json:"disconnect"`
}

// GroupFrame is the rectangle drawn behind a group's members.
type GroupFrame struct {
	domain.Group
	Frame    Rect `json:"frame"`
	Selected bool `json:"selected"`
}

// TempEdge is the dashed preview drawn during a connection drag.
type TempEdge struct {
	SourceID string `json:"sourceId"`
	Curve    Curve  `json:"curve"`
	Path     string `json:"path"`
}

// SelectionView is the selection as seen by renderers.
type SelectionView struct {
	NodeIDs      []string `json:"nodeIds"`
	ConnectionID string   `json:"connectionId,omitempty"`
}

// State is everything a renderer needs for one frame.
type State struct {
	Nodes       []domain.Node        `json:"nodes"`
	Connections []RenderedConnection `json:"connections"`
	Groups      []GroupFrame         `json:"groups"`
	Transform   Transform            `json:"transform"`
	Viewport    Size                 `json:"viewport"`
	Selection   SelectionView        `json:"selection"`
	Drag        DragState            `json:"drag"`
	Marquee     *Rect                `json:"marquee,omitempty"`
	TempEdge    *TempEdge            `json:"tempEdge,omitempty"`
	Toolbar     Toolbar              `json:"toolbar"`
	QuickAdd    *QuickAddMenu        `json:"quickAdd,omitempty"`
	Suggestions []Suggestion         `json:"suggestions,omitempty"`
	Minimap     MinimapView          `json:"minimap"`
	Revision    uint64               `json:"revision"`
}

// State builds the current read model. Dangling connections are omitted.
func (s *Session) State() State {
	st := State{
		Nodes:     s.nodes.List(),
		Transform: s.transform,
		Viewport:  s.viewport,
		Selection: SelectionView{NodeIDs: s.sel.NodeIDs(), ConnectionID: s.sel.ConnectionID()},
		Drag:      DragState{Mode: s.drag.Mode, SourceNodeID: s.drag.SourceNodeID, TempPoint: s.drag.TempPoint},
		Toolbar:   s.Toolbar(),
		Revision:  s.revision,
	}
	for _, r := range s.conns.Resolve(s.nodes) {
		selected := r.ID == s.sel.ConnectionID()
		hovered := r.ID == s.hover
		st.Connections = append(st.Connections, RenderedConnection{
			Resolved:       r,
			Path:           r.Curve.PathData(),
			Selected:       selected,
			Hovered:        hovered,
			ShowDisconnect: selected || hovered,
			Disconnect:     r.Curve.DisconnectRect(),
		})
	}
	selectedGroup, _ := s.groups.ExactGroup(st.Selection.NodeIDs)
	for _, g := range s.groups.List() {
		frame, ok := s.nodes.Bounds(g.MemberIDs)
		if !ok {
			continue
		}
		st.Groups = append(st.Groups, GroupFrame{
			Group:    g,
			Frame:    frame.Inset(GroupFramePadding),
			Selected: g.ID == selectedGroup,
		})
	}
	if r, ok := s.drag.Marquee(); ok {
		st.Marquee = &r
	}
	if s.drag.Mode == ModeConnect && s.drag.TempPoint != nil {
		if src, ok := s.nodes.Get(s.drag.SourceNodeID); ok {
			c := CurveFrom(OutputAnchor(src), *s.drag.TempPoint)
			st.TempEdge = &TempEdge{SourceID: src.ID, Curve: c, Path: c.PathData()}
		}
		st.Suggestions = s.Suggestions()
	}
	if s.quickAdd != nil {
		m := *s.quickAdd
		st.QuickAdd = &m
	}
	st.Minimap = s.minimap.Layout(s.nodeRects(), s.transform, s.viewport)
	return st
}

// Toolbar places the group toolbar for the current node selection.
func (s *Session) Toolbar() Toolbar {
	ids := s.sel.NodeIDs()
	aff, gid := affordanceFor(ids, s.groups)
	if aff == AffordanceNone {
		return Toolbar{}
	}
	bounds, ok := s.nodes.Bounds(ids)
	if !ok {
		return Toolbar{}
	}
	tb := Toolbar{
		Visible:    true,
		Position:   placeToolbar(bounds, s.transform),
		Affordance: aff,
		GroupID:    gid,
		Color:      s.groups.NextColor(),
	}
	if g, ok := s.groups.Get(gid); ok {
		tb.Color = g.Color
	}
	return tb
}

// Transform returns the current world-to-screen transform.
func (s *Session) Transform() Transform { return s.transform }

// Viewport returns the canvas screen size.
func (s *Session) Viewport() Size { return s.viewport }

// Drag returns the drag state.
func (s *Session) Drag() DragState { return s.drag }

// Selection returns the selected node ids and connection id.
func (s *Session) Selection() SelectionView {
	return SelectionView{NodeIDs: s.sel.NodeIDs(), ConnectionID: s.sel.ConnectionID()}
}

// Node returns a node by id.
func (s *Session) Node(id string) (domain.Node, bool) { return s.nodes.Get(id) }

// Nodes returns every node in paint order.
func (s *Session) Nodes() []domain.Node { return s.nodes.List() }

// Connections returns every stored connection, including dangling ones.
func (s *Session) Connections() []domain.Connection { return s.conns.List() }

// Groups returns every group.
func (s *Session) Groups() []domain.Group { return s.groups.List() }

func (s *Session) nodeRects() []Rect {
	nodes := s.nodes.List()
	out := make([]Rect, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, NodeRect(n))
	}
	return out
}

// ── Snapshots ────────────────────────────────────────────

// Snapshot is a deep copy of the persistent part of a session.
type Snapshot struct {
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
	Groups      []domain.Group      `json:"groups"`
	Transform   Transform           `json:"transform"`
	ColorCursor int                 `json:"colorCursor"`
}

// Snapshot copies the node, connection and group sets and the transform.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Nodes:       s.nodes.List(),
		Connections: s.conns.List(),
		Groups:      s.groups.List(),
		Transform:   s.transform,
		ColorCursor: s.groups.created,
	}
}

// Restore replaces the session contents with snap. Any gesture, selection or
// open menu is dropped. Connections that violate the connection policy are
// skipped and dangling connections are kept until CollectGarbage. Group
// members missing from the node set are dropped, and a group left with fewer
// than two members is skipped.
func (s *Session) Restore(snap Snapshot) {
	s.drag = DragState{}
	s.sel.clear()
	s.quickAdd = nil
	s.hover = ""
	s.nodes.load(snap.Nodes)
	s.conns.load(snap.Connections)
	s.groups.load(s.liveGroups(snap.Groups))
	if snap.ColorCursor >= 0 {
		s.groups.created = snap.ColorCursor
	}
	s.transform = Sanitize(snap.Transform)
	s.commit()
}

// liveGroups copies groups with their member lists cut down to known nodes.
func (s *Session) liveGroups(groups []domain.Group) []domain.Group {
	out := make([]domain.Group, 0, len(groups))
	for _, g := range groups {
		members := make([]string, 0, len(g.MemberIDs))
		for _, id := range g.MemberIDs {
			if s.nodes.Has(id) {
				members = append(members, id)
			}
		}
		g.MemberIDs = members
		out = append(out, g)
	}
	return out
}

// Clear empties the canvas and resets the transform to the viewport centre.
func (s *Session) Clear() {
	s.drag = DragState{}
	s.sel.clear()
	s.quickAdd = nil
	s.hover = ""
	s.nodes.reset()
	s.conns.load(nil)
	s.groups.load(nil)
	s.groups.created = 0
	s.transform = ResetZoom(s.viewport)
	s.commit()
}

// CollectGarbage removes dangling connections and returns their ids.
func (s *Session) CollectGarbage() []string {
	dead := s.conns.CollectDangling(s.nodes)
	if len(dead) > 0 {
		s.sel.prune(s.nodes, s.conns)
		s.commit()
	}
	return dead
}

// ── Nodes ────────────────────────────────────────────────

// AddNode places a node of type t with its top-left corner at the world
// point at.
func (s *Session) AddNode(t domain.NodeType, at Point) (domain.Node, error) {
	n, err := s.addNode(t, at)
	if err != nil {
		return domain.Node{}, err
	}
	s.commit()
	return n, nil
}

// DropNode places a node of type t centred on the world point at, the way a
// palette drop does.
func (s *Session) DropNode(t domain.NodeType, at Point) (domain.Node, error) {
	spec, ok := domain.LookupNodeSpec(t)
	if !ok {
		return domain.Node{}, fmt.Errorf("drop node %q: %w", t, ErrUnknownNodeType)
	}
	return s.AddNode(t, Point{at.X - spec.Width/2, at.Y - spec.Height/2})
}

func (s *Session) addNode(t domain.NodeType, at Point) (domain.Node, error) {
	spec, ok := domain.LookupNodeSpec(t)
	if !ok {
		return domain.Node{}, fmt.Errorf("add node %q: %w", t, ErrUnknownNodeType)
	}
	n := domain.Node{
		ID:     s.newID(),
		Type:   t,
		X:      at.X,
		Y:      at.Y,
		Width:  spec.Width,
		Height: spec.Height,
		Title:  spec.Title,
	}
	if err := s.nodes.Add(n); err != nil {
		return domain.Node{}, err
	}
	return n, nil
}

// MoveNode sets a node's world position.
func (s *Session) MoveNode(id string, x, y float64) error {
	if err := s.nodes.Move(id, x, y); err != nil {
		return err
	}
	s.commit()
	return nil
}

// ResizeNode sets a node's size.
func (s *Session) ResizeNode(id string, w, h float64) error {
	if err := s.nodes.Resize(id, w, h); err != nil {
		return err
	}
	s.commit()
	return nil
}

// RenameNode sets a node's title.
func (s *Session) RenameNode(id, title string) error {
	if err := s.nodes.SetTitle(id, title); err != nil {
		return err
	}
	s.commit()
	return nil
}

// RemoveNode deletes a node together with its connections. The node leaves
// its group, and a group left with one member is dissolved.
func (s *Session) RemoveNode(id string) error {
	if !s.nodes.Has(id) {
		return fmt.Errorf("remove node %s: %w", id, ErrInvalidReference)
	}
	if s.drag.Active() {
		s.cancelDrag()
	}
	s.removeNode(id)
	s.commit()
	return nil
}

func (s *Session) removeNode(id string) {
	s.conns.RemoveIncident(id)
	s.groups.RemoveNode(id)
	s.nodes.Remove(id)
	s.sel.dropNode(id)
	s.sel.prune(s.nodes, s.conns)
	if s.quickAdd != nil && s.quickAdd.SourceID == id {
		s.quickAdd = nil
	}
}

// RemoveSelected deletes every selected node and returns how many went.
func (s *Session) RemoveSelected() int {
	ids := s.sel.NodeIDs()
	for _, id := range ids {
		s.removeNode(id)
	}
	if len(ids) > 0 {
		s.commit()
	}
	return len(ids)
}

// ── Connections ──────────────────────────────────────────

// StartConnection enters CONNECT from sourceID's output anchor. Any gesture
// in progress is cancelled first.
func (s *Session) StartConnection(sourceID string) (DragState, error) {
	src, ok := s.nodes.Get(sourceID)
	if !ok {
		return s.drag, fmt.Errorf("start connection %s: %w", sourceID, ErrInvalidReference)
	}
	if s.drag.Active() {
		s.cancelDrag()
	}
	s.quickAdd = nil
	p := OutputAnchor(src)
	s.drag = DragState{Mode: ModeConnect, SourceNodeID: sourceID, TempPoint: &p}
	return s.drag, nil
}

// UpdateTempEndpoint moves the loose end of the preview edge.
func (s *Session) UpdateTempEndpoint(world Point) error {
	if s.drag.Mode != ModeConnect {
		return fmt.Errorf("update endpoint in %s: %w", s.drag.Mode, ErrInvalidTransition)
	}
	if !world.finite() {
		return fmt.Errorf("update endpoint: %w", ErrDegenerateGeometry)
	}
	s.drag.TempPoint = &world
	return nil
}

// CompleteConnection ends the CONNECT gesture on targetID. It fails, leaving
// the sets unchanged, for an empty or unknown target, a self-loop, or a pair
// that is already connected. The machine is IDLE afterwards in every case.
func (s *Session) CompleteConnection(targetID string) (domain.Connection, error) {
	if s.drag.Mode != ModeConnect {
		return domain.Connection{}, fmt.Errorf("complete connection in %s: %w", s.drag.Mode, ErrInvalidTransition)
	}
	source := s.drag.SourceNodeID
	s.drag = DragState{}
	if targetID == "" || !s.nodes.Has(targetID) || !s.nodes.Has(source) {
		return domain.Connection{}, fmt.Errorf("complete connection %s->%s: %w", source, targetID, ErrInvalidReference)
	}
	c := domain.Connection{ID: s.newID(), SourceID: source, TargetID: targetID}
	if err := s.conns.Add(c); err != nil {
		return domain.Connection{}, err
	}
	s.commit()
	return c, nil
}

// Connect adds source->target directly, outside any gesture.
func (s *Session) Connect(sourceID, targetID string) (domain.Connection, error) {
	if !s.nodes.Has(sourceID) || !s.nodes.Has(targetID) {
		return domain.Connection{}, fmt.Errorf("connect %s->%s: %w", sourceID, targetID, ErrInvalidReference)
	}
	c := domain.Connection{ID: s.newID(), SourceID: sourceID, TargetID: targetID}
	if err := s.conns.Add(c); err != nil {
		return domain.Connection{}, err
	}
	s.commit()
	return c, nil
}

// CancelDrag returns the machine to IDLE, discarding temporary state.
func (s *Session) CancelDrag() bool {
	if !s.drag.Active() {
		return false
	}
	s.cancelDrag()
	return true
}

// RemoveConnection deletes a connection. Removing an absent id is a no-op.
func (s *Session) RemoveConnection(id string) bool {
	if !s.conns.Remove(id) {
		return false
	}
	if s.sel.ConnectionID() == id {
		s.sel.clear()
	}
	s.commit()
	return true
}

// SelectConnection focuses a connection and clears the node selection.
func (s *Session) SelectConnection(id string) error {
	if _, ok := s.conns.Get(id); !ok {
		return fmt.Errorf("select connection %s: %w", id, ErrInvalidReference)
	}
	s.sel.setConnection(id)
	return nil
}

// ── Selection and groups ─────────────────────────────────

// SelectNodes replaces the selection. Unknown ids fail the whole call.
func (s *Session) SelectNodes(ids []string) error {
	for _, id := range ids {
		if !s.nodes.Has(id) {
			return fmt.Errorf("select node %s: %w", id, ErrInvalidReference)
		}
	}
	s.sel.setNodes(ids)
	return nil
}

// ClearSelection drops the node and connection selection.
func (s *Session) ClearSelection() { s.sel.clear() }

// Group groups the selected nodes. The new group becomes the selection.
func (s *Session) Group() (domain.Group, error) {
	return s.GroupNodes(s.sel.NodeIDs())
}

// GroupNodes groups ids. It fails with ErrTooFewNodes for fewer than two
// distinct nodes and ErrInvalidReference for unknown ids.
func (s *Session) GroupNodes(ids []string) (domain.Group, error) {
	for _, id := range ids {
		if !s.nodes.Has(id) {
			return domain.Group{}, fmt.Errorf("group node %s: %w", id, ErrInvalidReference)
		}
	}
	g, err := s.groups.Create(s.newID(), ids)
	if err != nil {
		return domain.Group{}, err
	}
	s.sel.setNodes(g.MemberIDs)
	s.commit()
	return g, nil
}

// Ungroup removes a group record. Its members stay where they are.
func (s *Session) Ungroup(groupID string) error {
	if !s.groups.Remove(groupID) {
		return fmt.Errorf("ungroup %s: %w", groupID, ErrInvalidTransition)
	}
	s.commit()
	return nil
}

// UngroupSelection ungroups the selection when it is exactly one group.
func (s *Session) UngroupSelection() error {
	gid, ok := s.groups.ExactGroup(s.sel.NodeIDs())
	if !ok {
		return fmt.Errorf("ungroup selection: %w", ErrInvalidTransition)
	}
	return s.Ungroup(gid)
}

// SetGroupColor recolors a group. Only GroupPalette colors are accepted.
func (s *Session) SetGroupColor(groupID, color string) error {
	if err := s.groups.SetColor(groupID, color); err != nil {
		return err
	}
	s.commit()
	return nil
}

// ── Viewport ─────────────────────────────────────────────

// Pan shifts the view by a screen-space delta.
func (s *Session) Pan(dx, dy float64) { s.transform = Pan(s.transform, dx, dy) }

// ZoomAt scales the view by factor around a screen pivot.
func (s *Session) ZoomAt(factor float64, pivot Point) {
	s.transform = ZoomAt(s.transform, factor, pivot)
}

// Wheel zooms one notch in (deltaY < 0) or out around pivot.
func (s *Session) Wheel(deltaY float64, pivot Point) {
	switch {
	case deltaY < 0:
		s.ZoomAt(WheelZoomFactor, pivot)
	case deltaY > 0:
		s.ZoomAt(1/WheelZoomFactor, pivot)
	}
}

// SetZoom sets the zoom level anchored at the viewport centre.
func (s *Session) SetZoom(k float64) {
	s.transform = SetZoomAt(s.transform, k, Point{s.viewport.Width / 2, s.viewport.Height / 2})
}

// ResetZoom sets K to 1 with the world origin at the viewport centre.
func (s *Session) ResetZoom() { s.transform = ResetZoom(s.viewport) }

// SetTransform installs t after sanitizing it.
func (s *Session) SetTransform(t Transform) { s.transform = Sanitize(t) }

// SetViewport records the canvas screen size.
func (s *Session) SetViewport(size Size) {
	if !finite(size.Width) || !finite(size.Height) || size.Width < 0 || size.Height < 0 {
		return
	}
	s.viewport = size
}

// SetMinimap changes the minimap panel geometry.
func (s *Session) SetMinimap(m Minimap) { s.minimap = m }

// CenterOn pans so that world point w sits in the middle of the viewport.
func (s *Session) CenterOn(w Point) { s.transform = CenterOn(s.transform, w, s.viewport) }

// Navigate recentres the view on the world point under a minimap click.
func (s *Session) Navigate(minimap Point) {
	s.transform = s.minimap.Navigate(minimap, s.nodeRects(), s.transform, s.viewport)
}
