package app

// ─────────────────────────────────────────────────────────────
// Workflow Handlers — thin delegates to WorkflowService
// ─────────────────────────────────────────────────────────────

import (
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"nodeflow/internal/canvas"
	"nodeflow/internal/domain"
)

func (a *App) ListWorkflows() ([]domain.Workflow, error) {
	return a.workflows.List()
}

func (a *App) CreateWorkflow(name string) (*domain.Workflow, error) {
	return a.workflows.Create(name)
}

func (a *App) RenameWorkflow(id, name string) error {
	return a.workflows.Rename(id, name)
}

func (a *App) DeleteWorkflow(id string) error {
	return a.workflows.Delete(id)
}

// OpenWorkflow saves the current workflow, then loads id into the canvas.
func (a *App) OpenWorkflow(id string) (canvas.State, error) {
	if err := ignoreNoWorkflow(a.workflows.Save()); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[OpenWorkflow] save before switch: %v", err)
		return canvas.State{}, err
	}
	wailsRuntime.LogInfof(a.ctx, "[OpenWorkflow] loading workflow: %s", id)
	st, err := a.workflows.Open(id)
	if err != nil {
		return canvas.State{}, err
	}
	a.settings.SetLastWorkflow(id)
	return st, nil
}

// CurrentWorkflow returns the open workflow record.
func (a *App) CurrentWorkflow() domain.Workflow {
	return a.canvas.Workflow()
}

func (a *App) SaveWorkflow() error {
	return ignoreNoWorkflow(a.workflows.Save())
}

// ConfirmNew answers the "save before starting a new workflow?" dialog.
func (a *App) ConfirmNew(shouldSave bool) (*domain.Workflow, error) {
	w, err := a.workflows.ConfirmNew(shouldSave)
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[ConfirmNew] %v", err)
		return nil, err
	}
	a.settings.SetLastWorkflow(w.ID)
	return w, nil
}
