package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// ─────────────────────────────────────────────────────────────
// Autosaver — periodic save of the open workflow
// ─────────────────────────────────────────────────────────────

// Autosaver saves the open workflow on a cron schedule ("@every 30s",
// "*/5 * * * *", ...). Saves that find nothing dirty cost one lock.
type Autosaver struct {
	mu        sync.Mutex
	workflows *WorkflowService
	emitter   EventEmitter
	ctx       context.Context
	sched     *cron.Cron
	spec      string
}

// NewAutosaver creates a stopped Autosaver.
func NewAutosaver(workflows *WorkflowService, emitter EventEmitter) *Autosaver {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Autosaver{workflows: workflows, emitter: emitter, ctx: context.Background()}
}

// Start (re)schedules autosave with spec. An empty spec stops it. The old
// schedule is swapped out in the same critical section that installs the
// new one, then stopped outside it so a running tick can finish.
func (a *Autosaver) Start(ctx context.Context, spec string) error {
	var next *cron.Cron
	if spec != "" {
		next = cron.New()
		if _, err := next.AddFunc(spec, a.Tick); err != nil {
			return fmt.Errorf("autosave schedule %q: %w", spec, err)
		}
	}

	a.mu.Lock()
	prev := a.sched
	a.ctx = ctx
	a.sched = next
	a.spec = spec
	if next != nil {
		next.Start()
	}
	a.mu.Unlock()

	if prev != nil {
		<-prev.Stop().Done()
	}
	if next != nil {
		slog.Info("autosave scheduled", slog.String("schedule", spec))
	}
	return nil
}

// Schedule returns the active schedule, or "" when stopped.
func (a *Autosaver) Schedule() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spec
}

// Tick runs one autosave.
func (a *Autosaver) Tick() {
	err := a.workflows.saveIfIdle()
	if err == nil || errors.Is(err, ErrNoWorkflow) {
		return
	}
	slog.Error("autosave failed", slog.Any("error", err))
	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	a.emitter.Emit(ctx, EventAutosaveFailed, map[string]string{"error": err.Error()})
}

// Stop cancels the schedule and waits for a running tick.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	c := a.sched
	a.sched = nil
	a.spec = ""
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
