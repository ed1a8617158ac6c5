package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

func (s *Server) registerWorkflowTools() {
	// ── list_workflows ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_workflows",
		mcp.WithDescription("List all saved workflows, most recently edited first"),
	), s.handleListWorkflows)

	// ── create_workflow ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_workflow",
		mcp.WithDescription("Create a new empty workflow and make it active"),
		mcp.WithString("name", mcp.Description("Name of the workflow")),
	), s.handleCreateWorkflow)

	// ── set_active_workflow ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_workflow",
		mcp.WithDescription("Set the workflow that subsequent canvas tools operate on"),
		mcp.WithString("workflowId", mcp.Description("ID of the workflow"), mcp.Required()),
	), s.handleSetActiveWorkflow)

	// ── get_canvas_state ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_canvas_state",
		mcp.WithDescription("Return the nodes, connections, groups and viewport of the active workflow"),
	), s.handleGetCanvasState)

	// ── clear_workflow ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_workflow",
		mcp.WithDescription("Remove every node, connection and group from the active workflow. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearWorkflow)
}

// graphSummary is the agent-facing view of a workflow.
type graphSummary struct {
	Workflow    domain.Workflow     `json:"workflow"`
	Nodes       []domain.Node       `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
	Groups      []domain.Group      `json:"groups"`
	Transform   *canvas.Transform   `json:"transform,omitempty"`
}

func (s *Server) activeGraph() (graphSummary, error) {
	snap, err := s.canvas.SnapshotForSave()
	if err != nil {
		return graphSummary{}, err
	}
	t := s.canvas.State().Transform
	return graphSummary{
		Workflow:    snap.State.Workflow,
		Nodes:       snap.State.Nodes,
		Connections: snap.State.Connections,
		Groups:      snap.State.Groups,
		Transform:   &t,
	}, nil
}

func (s *Server) handleListWorkflows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows, err := s.workflows.List()
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return jsonResult(workflows)
}

func (s *Server) handleCreateWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, err := s.workflows.Create(req.GetString("name", ""))
	if err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	// Auto-set as active workflow
	if err := s.activate(w.ID); err != nil {
		return nil, err
	}
	return jsonResult(w)
}

func (s *Server) handleSetActiveWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("workflowId", "")
	if id == "" {
		return nil, fmt.Errorf("workflowId is required")
	}
	if err := s.activate(id); err != nil {
		return nil, err
	}
	w := s.canvas.Workflow()
	return textResult(fmt.Sprintf("Active workflow set to %s (%s)", w.Name, w.ID)), nil
}

func (s *Server) handleGetCanvasState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var g graphSummary
	err := s.readWorkflow(func(string) error {
		var err error
		g, err = s.activeGraph()
		return err
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(g)
}

func (s *Server) handleClearWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w := s.canvas.Workflow()
	if w.ID == "" {
		return nil, errNoActive
	}
	approved, err := s.approval.Request(ctx, "clear_workflow",
		fmt.Sprintf("Clear every node from workflow %q", w.Name),
		marshalJSON(map[string]string{"workflowId": w.ID}))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	err = s.withWorkflow(ctx, func(string) error {
		s.canvas.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Workflow %s cleared", w.ID)), nil
}
