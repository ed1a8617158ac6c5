package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

func (s *Server) registerConnectionTools() {
	// ── connect_nodes ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Connect a source node's output to a target node's input"),
		mcp.WithString("sourceId", mcp.Description("Source node ID"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Target node ID"), mcp.Required()),
	), s.handleConnectNodes)

	// ── remove_connection ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_connection",
		mcp.WithDescription("Remove a connection by ID"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
	), s.handleRemoveConnection)
}

func (s *Server) handleConnectNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("sourceId", "")
	target := req.GetString("targetId", "")
	if source == "" || target == "" {
		return nil, fmt.Errorf("sourceId and targetId are required")
	}

	var conn domain.Connection
	err := s.withWorkflow(ctx, func(string) error {
		var err error
		conn, err = s.canvas.Connect(source, target)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect nodes: %w", err)
	}
	return jsonResult(conn)
}

func (s *Server) handleRemoveConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("connectionId", "")
	if id == "" {
		return nil, fmt.Errorf("connectionId is required")
	}

	err := s.withWorkflow(ctx, func(string) error {
		if !s.canvas.RemoveConnection(id) {
			return fmt.Errorf("connection %s: %w", id, canvas.ErrInvalidReference)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Connection %s removed", id)), nil
}
