// Package executor provides the pluggable backends that carry out
// individual workflow phases.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sbraddock/stagehand/pkg/models"
)

// PhaseExecutor performs the work of a single workflow phase. Inputs are
// the merged context data handed to the phase; the returned map holds the
// phase's outputs, which must include every key the phase declares.
type PhaseExecutor interface {
	ExecutePhase(ctx context.Context, phase *models.WorkflowPhase, inputs map[string]any) (map[string]any, error)
}

// Registry maps contexts to their executors with a shared fallback for
// contexts without a dedicated one.
type Registry struct {
	mu        sync.RWMutex
	byContext map[models.Context]PhaseExecutor
	fallback  PhaseExecutor
}

// NewRegistry creates a registry with the given fallback executor.
func NewRegistry(fallback PhaseExecutor) *Registry {
	return &Registry{
		byContext: make(map[models.Context]PhaseExecutor),
		fallback:  fallback,
	}
}

// Register installs an executor for a context, replacing any previous one.
func (r *Registry) Register(ctx models.Context, exec PhaseExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byContext[ctx] = exec
}

// For returns the executor for a context, falling back to the default.
func (r *Registry) For(ctx models.Context) PhaseExecutor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if exec, ok := r.byContext[ctx]; ok {
		return exec
	}
	return r.fallback
}

// Simulated is a deterministic executor that produces every output a
// phase declares without doing real work. It is the default backend and
// the one the tests run against.
type Simulated struct {
	// Delay is an optional artificial execution time per phase.
	Delay time.Duration
}

// ExecutePhase produces a synthetic value for each declared output. The
// result depends only on the phase, so repeated execution is idempotent.
func (s *Simulated) ExecutePhase(ctx context.Context, phase *models.WorkflowPhase, inputs map[string]any) (map[string]any, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	outputs := make(map[string]any, len(phase.Outputs)+1)
	for _, key := range phase.Outputs {
		outputs[key] = fmt.Sprintf("%s produced by %s", key, phase.PhaseID)
	}
	outputs["status"] = "ok"
	return outputs, nil
}
