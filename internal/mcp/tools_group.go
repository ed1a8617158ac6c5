package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"nodeflow/internal/domain"
)

func (s *Server) registerGroupTools() {
	// ── group_nodes ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("group_nodes",
		mcp.WithDescription("Group two or more nodes. Nodes already in a group are moved to the new one."),
		mcp.WithString("nodeIds", mcp.Description("Comma-separated node IDs"), mcp.Required()),
	), s.handleGroupNodes)

	// ── ungroup ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("ungroup",
		mcp.WithDescription("Dissolve a group; its nodes stay on the canvas"),
		mcp.WithString("groupId", mcp.Description("Group ID"), mcp.Required()),
	), s.handleUngroup)

	// ── set_group_color ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_group_color",
		mcp.WithDescription("Set a group's frame color"),
		mcp.WithString("groupId", mcp.Description("Group ID"), mcp.Required()),
		mcp.WithString("color", mcp.Description("CSS hex color, e.g. #3b82f6"), mcp.Required()),
	), s.handleSetGroupColor)
}

func (s *Server) handleGroupNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("nodeIds", ""))
	if len(ids) < 2 {
		return nil, fmt.Errorf("nodeIds needs at least two node IDs")
	}

	var g domain.Group
	err := s.withWorkflow(ctx, func(string) error {
		var err error
		g, err = s.canvas.Group(ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("group nodes: %w", err)
	}
	return jsonResult(g)
}

func (s *Server) handleUngroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("groupId", "")
	if id == "" {
		return nil, fmt.Errorf("groupId is required")
	}
	if err := s.withWorkflow(ctx, func(string) error { return s.canvas.Ungroup(id) }); err != nil {
		return nil, fmt.Errorf("ungroup: %w", err)
	}
	return textResult(fmt.Sprintf("Group %s dissolved", id)), nil
}

func (s *Server) handleSetGroupColor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("groupId", "")
	color := req.GetString("color", "")
	if id == "" || color == "" {
		return nil, fmt.Errorf("groupId and color are required")
	}
	if err := s.withWorkflow(ctx, func(string) error { return s.canvas.SetGroupColor(id, color) }); err != nil {
		return nil, fmt.Errorf("set group color: %w", err)
	}
	return textResult(fmt.Sprintf("Group %s color set to %s", id, color)), nil
}
