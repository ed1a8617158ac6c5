package app

import (
	"context"
	"errors"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"nodeflow/internal/canvas"
	"nodeflow/internal/config"
	"nodeflow/internal/service"
	"nodeflow/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cfg     *config.Config
	cfgPath string

	db        *storage.DB
	canvas    *service.CanvasService
	workflows *service.WorkflowService
	settings  *service.SettingsService
	autosave  *service.Autosaver

	watcher    *workflowWatcher
	cfgWatcher *config.Watcher
	preview    previewState
}

// New creates a new App. cfgPath is watched for changes while the app runs.
func New(cfg *config.Config, cfgPath string) *App {
	return &App{cfg: cfg, cfgPath: cfgPath}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	db, err := storage.New(a.cfg.DBPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db

	emitter := wailsEmitter{}
	history := service.NewHistoryService(storage.NewHistoryStore(db))
	a.canvas = service.NewCanvasService(history, emitter,
		canvas.WithViewport(canvas.Size{Width: a.cfg.Canvas.ViewportWidth, Height: a.cfg.Canvas.ViewportHeight}),
		canvas.WithMinimap(minimapFromConfig(a.cfg)),
	)
	a.workflows = service.NewWorkflowService(storage.NewWorkflowStore(db), a.canvas, history, emitter)
	a.settings = service.NewSettingsService(storage.NewSettingsStore(db), emitter)
	a.autosave = service.NewAutosaver(a.workflows, emitter)

	a.canvas.SetContext(ctx)
	a.workflows.SetContext(ctx)
	a.settings.SetContext(ctx)

	size := a.settings.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)

	a.openInitialWorkflow()

	if a.cfg.Autosave.Enabled {
		if err := a.autosave.Start(ctx, a.cfg.Autosave.Schedule); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to start autosave: %v", err)
		}
	}

	// Picks up edits made by the standalone MCP process.
	a.watcher = newWorkflowWatcher(ctx, a.workflows, db.Conn(), func(event string, data any) {
		wailsRuntime.EventsEmit(ctx, event, data)
	})
	a.watcher.Start()

	if a.cfgPath != "" {
		w, err := config.Watch(a.cfgPath, a.applyConfig)
		if err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to watch config: %v", err)
		}
		a.cfgWatcher = w
	}
}

// BeforeClose is called when the window is about to close.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.settings != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.settings.SaveWindowSize(w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	return false
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.cfgWatcher != nil {
		a.cfgWatcher.Close()
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosave != nil {
		a.autosave.Stop()
	}
	if a.workflows != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.workflows.Shutdown(shutdownCtx); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save on shutdown: %v", err)
		}
		cancel()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// openInitialWorkflow reopens the last workflow, falling back to the most
// recent one, or a fresh one on first run.
func (a *App) openInitialWorkflow() {
	if id := a.settings.LastWorkflow(); id != "" {
		if _, err := a.workflows.Open(id); err == nil {
			return
		}
		wailsRuntime.LogInfof(a.ctx, "Last workflow %s is gone, picking another", id)
	}
	list, err := a.workflows.List()
	if err == nil && len(list) > 0 {
		if _, err := a.workflows.Open(list[0].ID); err == nil {
			a.settings.SetLastWorkflow(list[0].ID)
			return
		}
	}
	w, err := a.workflows.ConfirmNew(false)
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to create workflow: %v", err)
		return
	}
	a.settings.SetLastWorkflow(w.ID)
}

// applyConfig takes effect from a reloaded config file.
func (a *App) applyConfig(cfg *config.Config) {
	config.ApplyLogLevel(cfg)
	a.canvas.SetMinimap(minimapFromConfig(cfg))

	spec := ""
	if cfg.Autosave.Enabled {
		spec = cfg.Autosave.Schedule
	}
	if spec != a.autosave.Schedule() {
		if err := a.autosave.Start(a.ctx, spec); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "Failed to reschedule autosave: %v", err)
		}
	}
	a.cfg = cfg
	wailsRuntime.LogInfof(a.ctx, "Config reloaded from %s", a.cfgPath)
}

func minimapFromConfig(cfg *config.Config) canvas.Minimap {
	return canvas.Minimap{Width: cfg.Minimap.Width, Height: cfg.Minimap.Height, Padding: cfg.Minimap.Padding}
}

// ignoreNoWorkflow treats "nothing open" as success for save-style bindings.
func ignoreNoWorkflow(err error) error {
	if errors.Is(err, service.ErrNoWorkflow) {
		return nil
	}
	return err
}
