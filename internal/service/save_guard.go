package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ─────────────────────────────────────────────────────────────
// saveLocks — one writer per workflow
// ─────────────────────────────────────────────────────────────

// SaveWaitTimeout bounds how long a save the user asked for waits behind a
// background write of the same workflow.
const SaveWaitTimeout = 10 * time.Second

// saveLocks serialises writes of one workflow. Background work (autosave
// ticks, external-change checks) calls TryLock and skips a busy workflow;
// saves the user asked for call Lock and wait their turn.
type saveLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{} // closed when the holder unlocks
	wg   sync.WaitGroup
}

// TryLock takes the lock for workflowID if it is free.
func (l *saveLocks) TryLock(workflowID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[workflowID]; busy {
		return false
	}
	l.acquire(workflowID)
	return true
}

// Lock waits for the lock for workflowID until ctx is done.
func (l *saveLocks) Lock(ctx context.Context, workflowID string) error {
	for {
		l.mu.Lock()
		release, busy := l.held[workflowID]
		if !busy {
			l.acquire(workflowID)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-release:
		case <-ctx.Done():
			return fmt.Errorf("wait for save of %s: %w", workflowID, ctx.Err())
		}
	}
}

// acquire records a holder. l.mu must be held.
func (l *saveLocks) acquire(workflowID string) {
	if l.held == nil {
		l.held = make(map[string]chan struct{})
	}
	l.held[workflowID] = make(chan struct{})
	l.wg.Add(1)
}

// Unlock releases workflowID and wakes every waiter.
func (l *saveLocks) Unlock(workflowID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	release, ok := l.held[workflowID]
	if !ok {
		return
	}
	delete(l.held, workflowID)
	close(release)
	l.wg.Done()
}

// WaitAll blocks until in-flight saves finish or ctx is done. Used on shutdown.
func (l *saveLocks) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
