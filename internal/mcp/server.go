package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nodeflow/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EventCanvasChanged tells the frontend an agent changed the open workflow.
const EventCanvasChanged = "mcp:canvas-changed"

// Server is the MCP server for nodeflow.
// It exposes tools, resources, and prompts so AI agents can build workflows on the canvas.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine

	workflows *service.WorkflowService
	canvas    *service.CanvasService

	// mu serialises tool calls that touch the active workflow.
	mu sync.Mutex
	// shared is set when another process writes the same database; the
	// active workflow is reloaded before each call if it changed on disk.
	shared bool
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter         EventEmitter
	Workflows       *service.WorkflowService
	Canvas          *service.CanvasService
	Name            string
	ApprovalTimeout time.Duration
	ApprovalDB      *sql.DB // When set, use SQLite-based approval (standalone mode)
	Shared          bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	if deps.Emitter == nil {
		deps.Emitter = service.NopEmitter{}
	}
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalTimeout > 0 {
		approval.SetTimeout(deps.ApprovalTimeout)
	}
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	name := deps.Name
	if name == "" {
		name = "nodeflow-mcp"
	}
	s := &Server{
		emitter:   deps.Emitter,
		approval:  approval,
		layout:    NewLayoutEngine(),
		workflows: deps.Workflows,
		canvas:    deps.Canvas,
		shared:    deps.Shared,
	}

	s.mcp = server.NewMCPServer(
		name,
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerWorkflowTools()
	s.registerNodeTools()
	s.registerConnectionTools()
	s.registerGroupTools()
	s.registerViewportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	slog.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// errNoActive is returned by tools that need an active workflow.
var errNoActive = errors.New("no active workflow (use set_active_workflow or create_workflow first)")

// withWorkflow runs fn against the active workflow and saves the result.
func (s *Server) withWorkflow(ctx context.Context, fn func(id string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.syncActive()
	if err != nil {
		return err
	}
	if err := fn(id); err != nil {
		return err
	}
	if err := s.workflows.Save(); err != nil {
		return err
	}
	s.emitCanvasChanged(ctx, id)
	return nil
}

// readWorkflow runs fn against the freshest copy of the active workflow.
func (s *Server) readWorkflow(fn func(id string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.syncActive()
	if err != nil {
		return err
	}
	return fn(id)
}

// syncActive returns the active workflow id, reloading it first when another
// process saved it since we last looked. Callers hold s.mu.
func (s *Server) syncActive() (string, error) {
	id := s.canvas.Workflow().ID
	if id == "" {
		return "", errNoActive
	}
	if s.shared {
		if _, err := s.workflows.SyncExternal(); err != nil {
			return "", fmt.Errorf("active workflow: %w", err)
		}
	}
	return id, nil
}

// activate opens a workflow as the target of later tool calls.
func (s *Server) activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.workflows.Open(id)
	return err
}

// emitCanvasChanged notifies the frontend that an agent changed a workflow.
func (s *Server) emitCanvasChanged(ctx context.Context, workflowID string) {
	s.emitter.Emit(ctx, EventCanvasChanged, map[string]string{"workflowId": workflowID})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
