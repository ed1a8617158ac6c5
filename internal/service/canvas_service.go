package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Canvas Service — the one writer of the open canvas session
// ─────────────────────────────────────────────────────────────

// ErrNoWorkflow is returned when an operation needs an open workflow.
var ErrNoWorkflow = errors.New("no workflow open")

// CanvasService serialises access to the open canvas.Session. Every mutation
// runs under one lock; history and persistence work on snapshots taken under
// the lock and do their I/O after releasing it.
type CanvasService struct {
	mu       sync.Mutex
	session  *canvas.Session
	workflow domain.Workflow
	recorded uint64 // session revision last written to history
	saved    uint64 // session revision last persisted

	history *HistoryService
	emitter EventEmitter
	ctx     context.Context
}

// NewCanvasService creates a CanvasService around an empty session.
// history may be nil, which disables undo.
func NewCanvasService(history *HistoryService, emitter EventEmitter, opts ...canvas.Option) *CanvasService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &CanvasService{
		session: canvas.NewSession(opts...),
		history: history,
		emitter: emitter,
		ctx:     context.Background(),
	}
}

// SetContext sets the context passed to the emitter (the Wails app context).
func (s *CanvasService) SetContext(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Open replaces the session with a loaded workflow. Dangling connections are
// collected immediately.
func (s *CanvasService) Open(st *domain.WorkflowState) canvas.State {
	s.mu.Lock()
	s.workflow = st.Workflow
	s.session.Restore(canvas.Snapshot{
		Nodes:       st.Nodes,
		Connections: st.Connections,
		Groups:      st.Groups,
		Transform:   canvas.Transform{X: st.Workflow.Viewport.X, Y: st.Workflow.Viewport.Y, K: st.Workflow.Viewport.K},
		ColorCursor: len(st.Groups),
	})
	s.session.CollectGarbage()
	s.recorded = s.session.Revision()
	s.saved = s.recorded
	wfID := s.workflow.ID
	snap := s.session.Snapshot()
	state := s.session.State()
	ctx := s.ctx
	s.mu.Unlock()

	if s.history != nil && wfID != "" {
		if empty, err := s.history.Empty(wfID); err == nil && empty {
			if err := s.history.Record(wfID, "open", snap); err != nil {
				slog.Warn("record initial history", slog.String("workflow_id", wfID), slog.Any("error", err))
			}
		}
	}
	s.emitter.Emit(ctx, EventCanvasChanged, state)
	return state
}

// Workflow returns the open workflow record.
func (s *CanvasService) Workflow() domain.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow
}

// SetWorkflowName renames the open workflow in memory.
func (s *CanvasService) SetWorkflowName(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow.ID == id {
		s.workflow.Name = name
	}
}

// State returns the current read model.
func (s *CanvasService) State() canvas.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State()
}

// SaveSnapshot is the persistent state of the open workflow at one revision.
type SaveSnapshot struct {
	State    domain.WorkflowState
	Revision uint64
	Dirty    bool
}

// SnapshotForSave copies what a save needs. The copy is safe to use after the
// lock is released.
func (s *CanvasService) SnapshotForSave() (SaveSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflow.ID == "" {
		return SaveSnapshot{}, ErrNoWorkflow
	}
	snap := s.session.Snapshot()
	wf := s.workflow
	wf.Viewport = domain.Viewport{X: snap.Transform.X, Y: snap.Transform.Y, K: snap.Transform.K}
	rev := s.session.Revision()
	return SaveSnapshot{
		State: domain.WorkflowState{
			Workflow:    wf,
			Nodes:       snap.Nodes,
			Connections: snap.Connections,
			Groups:      snap.Groups,
		},
		Revision: rev,
		Dirty:    rev != s.saved || wf.Viewport != s.workflow.Viewport,
	}, nil
}

// MarkSaved records that the given revision and viewport are on disk.
func (s *CanvasService) MarkSaved(rev uint64, vp domain.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev > s.saved {
		s.saved = rev
	}
	s.workflow.Viewport = vp
}

// update runs fn under the lock, then records history for committed changes
// and emits the new state.
func (s *CanvasService) update(label string, fn func(*canvas.Session) error) (canvas.State, error) {
	s.mu.Lock()
	err := fn(s.session)
	var (
		snap   canvas.Snapshot
		record bool
	)
	if rev := s.session.Revision(); rev != s.recorded && !s.session.Drag().Active() {
		s.recorded = rev
		snap = s.session.Snapshot()
		record = s.history != nil && s.workflow.ID != ""
	}
	wfID := s.workflow.ID
	state := s.session.State()
	ctx := s.ctx
	s.mu.Unlock()

	if record {
		if herr := s.history.Record(wfID, label, snap); herr != nil {
			slog.Warn("record history", slog.String("workflow_id", wfID), slog.String("label", label), slog.Any("error", herr))
		}
		s.emitter.Emit(ctx, EventHistoryChanged, map[string]string{"workflowId": wfID})
	}
	s.emitter.Emit(ctx, EventCanvasChanged, state)
	return state, err
}

// ── Gestures ───────────────────────────────────────────────

// HandlePointer feeds a normalized pointer event to the session.
func (s *CanvasService) HandlePointer(ev canvas.PointerEvent) canvas.EventResult {
	var res canvas.EventResult
	s.update("gesture", func(c *canvas.Session) error {
		res = c.HandlePointer(ev)
		return nil
	})
	return res
}

// HandleKey applies a keyboard shortcut.
func (s *CanvasService) HandleKey(key string) bool {
	var changed bool
	s.update("key "+key, func(c *canvas.Session) error {
		changed = c.HandleKey(key)
		return nil
	})
	return changed
}

// ── Nodes ──────────────────────────────────────────────────

// AddNode adds a node at a world point. centered places the node's centre
// there instead of its top-left corner.
func (s *CanvasService) AddNode(t domain.NodeType, at canvas.Point, centered bool) (domain.Node, error) {
	var n domain.Node
	_, err := s.update("add node", func(c *canvas.Session) error {
		var err error
		if centered {
			n, err = c.DropNode(t, at)
		} else {
			n, err = c.AddNode(t, at)
		}
		return err
	})
	return n, err
}

func (s *CanvasService) MoveNode(id string, x, y float64) error {
	_, err := s.update("move node", func(c *canvas.Session) error { return c.MoveNode(id, x, y) })
	return err
}

// MoveNodes repositions several nodes as one history entry. Nothing moves if
// any id is unknown.
func (s *CanvasService) MoveNodes(label string, pos map[string]canvas.Point) error {
	_, err := s.update(label, func(c *canvas.Session) error {
		for id := range pos {
			if _, ok := c.Node(id); !ok {
				return fmt.Errorf("move node %s: %w", id, canvas.ErrInvalidReference)
			}
		}
		for id, p := range pos {
			if err := c.MoveNode(id, p.X, p.Y); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func (s *CanvasService) ResizeNode(id string, w, h float64) error {
	_, err := s.update("resize node", func(c *canvas.Session) error { return c.ResizeNode(id, w, h) })
	return err
}

func (s *CanvasService) RenameNode(id, title string) error {
	_, err := s.update("rename node", func(c *canvas.Session) error { return c.RenameNode(id, title) })
	return err
}

func (s *CanvasService) RemoveNode(id string) error {
	_, err := s.update("delete node", func(c *canvas.Session) error { return c.RemoveNode(id) })
	return err
}

// Node returns a node by id.
func (s *CanvasService) Node(id string) (domain.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Node(id)
}

// Copy puts the selected nodes on the session clipboard.
func (s *CanvasService) Copy() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Copy()
}

// Paste adds the clipboard nodes as a single history entry.
func (s *CanvasService) Paste() ([]domain.Node, error) {
	var nodes []domain.Node
	_, err := s.update("paste", func(c *canvas.Session) error {
		var err error
		nodes, err = c.Paste()
		return err
	})
	return nodes, err
}

// ── Connections ────────────────────────────────────────────

func (s *CanvasService) Connect(sourceID, targetID string) (domain.Connection, error) {
	var conn domain.Connection
	_, err := s.update("connect", func(c *canvas.Session) error {
		var err error
		conn, err = c.Connect(sourceID, targetID)
		return err
	})
	return conn, err
}

func (s *CanvasService) RemoveConnection(id string) bool {
	var ok bool
	s.update("disconnect", func(c *canvas.Session) error {
		ok = c.RemoveConnection(id)
		return nil
	})
	return ok
}

func (s *CanvasService) SelectConnection(id string) error {
	_, err := s.update("select", func(c *canvas.Session) error { return c.SelectConnection(id) })
	return err
}

func (s *CanvasService) SelectNodes(ids []string) error {
	_, err := s.update("select", func(c *canvas.Session) error { return c.SelectNodes(ids) })
	return err
}

// QuickAdd completes the open quick-add menu with a node of type t.
func (s *CanvasService) QuickAdd(t domain.NodeType) (domain.Node, error) {
	var n domain.Node
	_, err := s.update("quick add", func(c *canvas.Session) error {
		var err error
		n, _, err = c.QuickAdd(t)
		return err
	})
	return n, err
}

func (s *CanvasService) DismissQuickAdd() {
	s.update("dismiss", func(c *canvas.Session) error {
		c.DismissQuickAdd()
		return nil
	})
}

// ── Groups ─────────────────────────────────────────────────

// Group groups ids, or the current selection when ids is empty.
func (s *CanvasService) Group(ids []string) (domain.Group, error) {
	var g domain.Group
	_, err := s.update("group", func(c *canvas.Session) error {
		var err error
		if len(ids) == 0 {
			g, err = c.Group()
		} else {
			g, err = c.GroupNodes(ids)
		}
		return err
	})
	return g, err
}

// Ungroup removes a group, or the selected group when groupID is empty.
func (s *CanvasService) Ungroup(groupID string) error {
	_, err := s.update("ungroup", func(c *canvas.Session) error {
		if groupID == "" {
			return c.UngroupSelection()
		}
		return c.Ungroup(groupID)
	})
	return err
}

func (s *CanvasService) SetGroupColor(groupID, color string) error {
	_, err := s.update("group color", func(c *canvas.Session) error { return c.SetGroupColor(groupID, color) })
	return err
}

// ── Viewport ───────────────────────────────────────────────

func (s *CanvasService) Pan(dx, dy float64) canvas.State {
	st, _ := s.update("pan", func(c *canvas.Session) error { c.Pan(dx, dy); return nil })
	return st
}

func (s *CanvasService) Wheel(deltaY float64, pivot canvas.Point) canvas.State {
	st, _ := s.update("zoom", func(c *canvas.Session) error { c.Wheel(deltaY, pivot); return nil })
	return st
}

func (s *CanvasService) SetZoom(k float64) canvas.State {
	st, _ := s.update("zoom", func(c *canvas.Session) error { c.SetZoom(k); return nil })
	return st
}

func (s *CanvasService) ResetZoom() canvas.State {
	st, _ := s.update("zoom", func(c *canvas.Session) error { c.ResetZoom(); return nil })
	return st
}

// Navigate recentres on the world point under a minimap click.
func (s *CanvasService) Navigate(minimap canvas.Point) canvas.State {
	st, _ := s.update("navigate", func(c *canvas.Session) error { c.Navigate(minimap); return nil })
	return st
}

// CenterOn recentres on a world point.
func (s *CanvasService) CenterOn(w canvas.Point) canvas.State {
	st, _ := s.update("navigate", func(c *canvas.Session) error { c.CenterOn(w); return nil })
	return st
}

func (s *CanvasService) SetViewport(size canvas.Size) canvas.State {
	st, _ := s.update("viewport", func(c *canvas.Session) error { c.SetViewport(size); return nil })
	return st
}

// SetMinimap changes the minimap geometry, e.g. after a config reload.
func (s *CanvasService) SetMinimap(m canvas.Minimap) {
	s.update("minimap", func(c *canvas.Session) error { c.SetMinimap(m); return nil })
}

// Clear empties the canvas.
func (s *CanvasService) Clear() canvas.State {
	st, _ := s.update("clear", func(c *canvas.Session) error { c.Clear(); return nil })
	return st
}

// ── History ────────────────────────────────────────────────

// Undo restores the previous revision. The view transform is kept.
func (s *CanvasService) Undo() (canvas.State, error) {
	return s.travel(-1)
}

// Redo re-applies the next revision.
func (s *CanvasService) Redo() (canvas.State, error) {
	return s.travel(1)
}

// HistoryStatus reports undo/redo availability for the open workflow.
func (s *CanvasService) HistoryStatus() (HistoryStatus, error) {
	wfID := s.Workflow().ID
	if s.history == nil || wfID == "" {
		return HistoryStatus{}, nil
	}
	return s.history.Status(wfID)
}

func (s *CanvasService) travel(delta int) (canvas.State, error) {
	wfID := s.Workflow().ID
	if s.history == nil || wfID == "" {
		return s.State(), ErrNoWorkflow
	}
	var (
		snap *canvas.Snapshot
		err  error
	)
	if delta < 0 {
		snap, err = s.history.Undo(wfID)
	} else {
		snap, err = s.history.Redo(wfID)
	}
	if err != nil || snap == nil {
		return s.State(), err
	}

	s.mu.Lock()
	if s.workflow.ID != wfID {
		s.mu.Unlock()
		return s.State(), nil
	}
	t := s.session.Transform()
	s.session.Restore(*snap)
	s.session.SetTransform(t)
	s.recorded = s.session.Revision()
	state := s.session.State()
	ctx := s.ctx
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventHistoryChanged, map[string]string{"workflowId": wfID})
	s.emitter.Emit(ctx, EventCanvasChanged, state)
	return state, nil
}
