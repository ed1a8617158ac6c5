package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

func (s *Server) registerNodeTools() {
	types := make([]string, 0, 3)
	for _, t := range domain.NodeTypes() {
		types = append(types, string(t))
	}

	// ── add_node ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add a generation node to the active workflow"),
		mcp.WithString("type",
			mcp.Description("Node type: "+strings.Join(types, ", ")),
			mcp.Enum(types...),
			mcp.Required(),
		),
		mcp.WithNumber("x", mcp.Description("World X of the top-left corner (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("World Y of the top-left corner (optional, auto-layout if omitted)")),
		mcp.WithString("title", mcp.Description("Title (optional, defaults to the type's title)")),
	), s.handleAddNode)

	// ── move_node ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node to a new world position"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveNode)

	// ── rename_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_node",
		mcp.WithDescription("Change a node's title"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenameNode)

	// ── delete_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node with its connections. Requires user approval."),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteNode)

	// ── arrange_nodes ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_nodes",
		mcp.WithDescription("Auto-arrange all nodes: 'flow' lays out columns by connection depth, 'grid' packs rows"),
		mcp.WithString("mode", mcp.Description("flow (default) or grid"), mcp.Enum("flow", "grid")),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
	), s.handleArrangeNodes)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	t := domain.NodeType(strings.ToUpper(req.GetString("type", "")))
	nodeSpec, ok := domain.LookupNodeSpec(t)
	if !ok {
		return nil, fmt.Errorf("unknown node type %q", t)
	}

	var node domain.Node
	err := s.withWorkflow(ctx, func(string) error {
		// Auto-layout if position not provided
		x, hasX := args["x"].(float64)
		y, hasY := args["y"].(float64)
		if !hasX || !hasY {
			snap, err := s.canvas.SnapshotForSave()
			if err != nil {
				return err
			}
			x, y = s.layout.NextPosition(snap.State.Nodes, nodeSpec.Width, nodeSpec.Height)
		}

		n, err := s.canvas.AddNode(t, canvas.Point{X: x, Y: y}, false)
		if err != nil {
			return fmt.Errorf("add node: %w", err)
		}
		if title := strings.TrimSpace(req.GetString("title", "")); title != "" {
			if err := s.canvas.RenameNode(n.ID, title); err != nil {
				return err
			}
			n.Title = title
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(node)
}

func (s *Server) handleMoveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := req.GetString("nodeId", "")
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if id == "" || !hasX || !hasY {
		return nil, fmt.Errorf("nodeId, x and y are required")
	}

	err := s.withWorkflow(ctx, func(string) error { return s.canvas.MoveNode(id, x, y) })
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Node %s moved to (%.0f, %.0f)", id, x, y)), nil
}

func (s *Server) handleRenameNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("nodeId", "")
	title := strings.TrimSpace(req.GetString("title", ""))
	if id == "" || title == "" {
		return nil, fmt.Errorf("nodeId and title are required")
	}

	err := s.withWorkflow(ctx, func(string) error { return s.canvas.RenameNode(id, title) })
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Node %s renamed to %q", id, title)), nil
}

func (s *Server) handleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("nodeId", "")
	if id == "" {
		return nil, fmt.Errorf("nodeId is required")
	}

	var node domain.Node
	err := s.readWorkflow(func(string) error {
		n, ok := s.canvas.Node(id)
		if !ok {
			return fmt.Errorf("node %s: %w", id, canvas.ErrInvalidReference)
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Require approval (with metadata for frontend highlight)
	approved, err := s.approval.Request(ctx, "delete_node",
		fmt.Sprintf("Delete %s node %q", node.Type, node.Title),
		marshalJSON(map[string][]string{"nodeIds": {id}}))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	err = s.withWorkflow(ctx, func(string) error { return s.canvas.RemoveNode(id) })
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Node %s deleted", id)), nil
}

func (s *Server) handleArrangeNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	mode := req.GetString("mode", "flow")
	startX := getFloat(args, "startX", 0)
	startY := getFloat(args, "startY", 0)

	var count int
	err := s.withWorkflow(ctx, func(string) error {
		snap, err := s.canvas.SnapshotForSave()
		if err != nil {
			return err
		}
		nodes := snap.State.Nodes
		if mode == "grid" {
			nodes = s.layout.ArrangeGrid(nodes, startX, startY)
		} else {
			nodes = s.layout.ArrangeFlow(nodes, snap.State.Connections, startX, startY)
		}
		pos := make(map[string]canvas.Point, len(nodes))
		for _, n := range nodes {
			pos[n.ID] = canvas.Point{X: n.X, Y: n.Y}
		}
		count = len(pos)
		return s.canvas.MoveNodes("arrange", pos)
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Arranged %d nodes (%s)", count, mode)), nil
}
