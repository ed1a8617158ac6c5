package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"nodeflow/internal/canvas"
)

func (s *Server) registerViewportTools() {
	// ── navigate ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("navigate",
		mcp.WithDescription("Centre the view on a world point, or on a node when nodeId is given"),
		mcp.WithString("nodeId", mcp.Description("Node to centre on (optional)")),
		mcp.WithNumber("x", mcp.Description("World X (used when nodeId is omitted)")),
		mcp.WithNumber("y", mcp.Description("World Y (used when nodeId is omitted)")),
	), s.handleNavigate)

	// ── zoom ───────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("zoom",
		mcp.WithDescription(fmt.Sprintf("Set the zoom level, clamped to [%.1f, %.1f]; omit k to reset", canvas.MinZoom, canvas.MaxZoom)),
		mcp.WithNumber("k", mcp.Description("Zoom factor, 1 = 100%")),
	), s.handleZoom)
}

func (s *Server) handleNavigate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID := req.GetString("nodeId", "")

	var target canvas.Point
	err := s.withWorkflow(ctx, func(string) error {
		if nodeID != "" {
			n, ok := s.canvas.Node(nodeID)
			if !ok {
				return fmt.Errorf("node %s: %w", nodeID, canvas.ErrInvalidReference)
			}
			target = canvas.Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
		} else {
			x, hasX := args["x"].(float64)
			y, hasY := args["y"].(float64)
			if !hasX || !hasY {
				return fmt.Errorf("nodeId or x and y are required")
			}
			target = canvas.Point{X: x, Y: y}
		}
		s.canvas.CenterOn(target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("View centred on (%.0f, %.0f)", target.X, target.Y)), nil
}

func (s *Server) handleZoom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var st canvas.State
	err := s.withWorkflow(ctx, func(string) error {
		if k, ok := args["k"].(float64); ok {
			st = s.canvas.SetZoom(k)
		} else {
			st = s.canvas.ResetZoom()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Zoom is %.0f%%", st.Transform.K*100)), nil
}
