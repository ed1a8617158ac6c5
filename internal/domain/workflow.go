package domain

import "time"

// Viewport is the persisted pan/zoom of a workflow canvas.
type Viewport struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Workflow is a named, saved canvas.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Viewport  Viewport  `json:"viewport"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkflowState is the complete content of a workflow canvas.
// Returned to the frontend and written by the save path as one unit.
type WorkflowState struct {
	Workflow    Workflow     `json:"workflow"`
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Groups      []Group      `json:"groups"`
}

type WorkflowStore interface {
	CreateWorkflow(w *Workflow) error
	GetWorkflow(id string) (*Workflow, error)
	ListWorkflows() ([]Workflow, error)
	UpdateWorkflow(w *Workflow) error
	DeleteWorkflow(id string) error

	LoadState(id string) (*WorkflowState, error)
	ReplaceState(state *WorkflowState) error
	Fingerprint(id string) (string, error)
}
