package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nodeflow/internal/canvas"
	"nodeflow/internal/config"
	mcpserver "nodeflow/internal/mcp"
	"nodeflow/internal/service"
	"nodeflow/internal/storage"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It shares the desktop app's database: approvals go through mcp_approvals and
// the app picks up saved edits with its workflow watcher.
func ServeMCP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	emitter := service.NopEmitter{}
	history := service.NewHistoryService(storage.NewHistoryStore(db))
	cs := service.NewCanvasService(history, emitter,
		canvas.WithViewport(canvas.Size{Width: cfg.Canvas.ViewportWidth, Height: cfg.Canvas.ViewportHeight}),
		canvas.WithMinimap(minimapFromConfig(cfg)),
	)
	workflows := service.NewWorkflowService(storage.NewWorkflowStore(db), cs, history, emitter)

	// Start on the workflow the desktop app last had open, if any.
	settings := service.NewSettingsService(storage.NewSettingsStore(db), emitter)
	if id := settings.LastWorkflow(); id != "" {
		if _, err := workflows.Open(id); err != nil {
			slog.Warn("open last workflow", slog.String("workflow_id", id), slog.Any("error", err))
		}
	}

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:         emitter,
		Workflows:       workflows,
		Canvas:          cs,
		Name:            cfg.MCP.Name,
		ApprovalTimeout: cfg.MCP.ApprovalTimeout.Std(),
		ApprovalDB:      db.Conn(), // Enable SQLite-based approval IPC
		Shared:          true,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- mcpSrv.ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
