package app

// ─────────────────────────────────────────────────────────────
// Canvas Handlers — gestures, nodes, connections, groups, view
// ─────────────────────────────────────────────────────────────
//
// Engine errors (unknown ids, self loops, too few nodes) leave the canvas
// unchanged; bindings return them so the frontend can show a toast.

import (
	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
	"nodeflow/internal/service"
)

func (a *App) GetCanvasState() canvas.State {
	return a.canvas.State()
}

// NodeTypes lists the palette entries.
func (a *App) NodeTypes() []domain.NodeSpec {
	types := domain.NodeTypes()
	specs := make([]domain.NodeSpec, 0, len(types))
	for _, t := range types {
		if s, ok := domain.LookupNodeSpec(t); ok {
			specs = append(specs, s)
		}
	}
	return specs
}

// ── Gestures ───────────────────────────────────────────────

// PointerEvent feeds one normalized mouse or touch event to the engine.
func (a *App) PointerEvent(ev canvas.PointerEvent) canvas.EventResult {
	return a.canvas.HandlePointer(ev)
}

// KeyDown handles canvas shortcuts (Escape, Delete, Backspace).
func (a *App) KeyDown(key string) bool {
	return a.canvas.HandleKey(key)
}

// ── Nodes ──────────────────────────────────────────────────

// DropNode adds a node from the palette, centred under the screen point.
func (a *App) DropNode(nodeType string, screenX, screenY float64) (domain.Node, error) {
	t := a.canvas.State().Transform
	at := canvas.ScreenToWorld(canvas.Point{X: screenX, Y: screenY}, t)
	return a.canvas.AddNode(domain.NodeType(nodeType), at, true)
}

func (a *App) MoveNode(id string, x, y float64) error {
	return a.canvas.MoveNode(id, x, y)
}

func (a *App) ResizeNode(id string, w, h float64) error {
	return a.canvas.ResizeNode(id, w, h)
}

func (a *App) RenameNode(id, title string) error {
	return a.canvas.RenameNode(id, title)
}

func (a *App) DeleteNode(id string) error {
	return a.canvas.RemoveNode(id)
}

// ── Connections ────────────────────────────────────────────

func (a *App) Connect(sourceID, targetID string) (domain.Connection, error) {
	return a.canvas.Connect(sourceID, targetID)
}

func (a *App) Disconnect(id string) bool {
	return a.canvas.RemoveConnection(id)
}

func (a *App) SelectConnection(id string) error {
	return a.canvas.SelectConnection(id)
}

// QuickAdd completes the menu opened by dropping a connection on empty canvas.
func (a *App) QuickAdd(nodeType string) (domain.Node, error) {
	return a.canvas.QuickAdd(domain.NodeType(nodeType))
}

func (a *App) DismissQuickAdd() {
	a.canvas.DismissQuickAdd()
}

// CopySelection copies the selected nodes and returns how many were copied.
func (a *App) CopySelection() int {
	return a.canvas.Copy()
}

// Paste adds the copied nodes next to the originals.
func (a *App) Paste() ([]domain.Node, error) {
	return a.canvas.Paste()
}

// ── Selection + groups ─────────────────────────────────────

func (a *App) SelectNodes(ids []string) error {
	return a.canvas.SelectNodes(ids)
}

// GroupSelection groups the selected nodes (toolbar "Group" button).
func (a *App) GroupSelection() (domain.Group, error) {
	return a.canvas.Group(nil)
}

// Ungroup dissolves groupID, or the selected group when empty.
func (a *App) Ungroup(groupID string) error {
	return a.canvas.Ungroup(groupID)
}

func (a *App) SetGroupColor(groupID, color string) error {
	return a.canvas.SetGroupColor(groupID, color)
}

// ── Viewport ───────────────────────────────────────────────

func (a *App) Pan(dx, dy float64) canvas.State {
	return a.canvas.Pan(dx, dy)
}

// Wheel zooms one step per notch around the pointer.
func (a *App) Wheel(deltaY, screenX, screenY float64) canvas.State {
	return a.canvas.Wheel(deltaY, canvas.Point{X: screenX, Y: screenY})
}

// SetZoom backs the zoom slider.
func (a *App) SetZoom(k float64) canvas.State {
	return a.canvas.SetZoom(k)
}

func (a *App) ResetZoom() canvas.State {
	return a.canvas.ResetZoom()
}

// MinimapClick recentres the view on the world point under a minimap click.
func (a *App) MinimapClick(x, y float64) canvas.State {
	return a.canvas.Navigate(canvas.Point{X: x, Y: y})
}

// ViewportResized reports the canvas element size after a window resize.
func (a *App) ViewportResized(width, height float64) canvas.State {
	return a.canvas.SetViewport(canvas.Size{Width: width, Height: height})
}

// ── History ────────────────────────────────────────────────

func (a *App) Undo() (canvas.State, error) {
	return a.canvas.Undo()
}

func (a *App) Redo() (canvas.State, error) {
	return a.canvas.Redo()
}

func (a *App) HistoryStatus() (service.HistoryStatus, error) {
	return a.canvas.HistoryStatus()
}
