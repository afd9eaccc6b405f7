package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sbraddock/stagehand/internal/executor"
	"github.com/sbraddock/stagehand/pkg/models"
)

// runPhase drives one phase from pending to a terminal status, applying
// recovery rules on failure. It is safe to call concurrently for phases
// in the same parallel group.
func (o *Orchestrator) runPhase(ctx context.Context, run *execution, phaseID string) {
	phase := run.graph.Phase(phaseID)

	// A phase whose dependency did not complete cannot run.
	for _, depID := range run.graph.Dependencies(phaseID) {
		if run.phaseStatus(depID) != models.PhaseCompleted {
			run.markSkipped(phaseID, fmt.Sprintf("dependency %s did not complete", depID))
			o.emit(Event{
				Type:       EventPhaseSkipped,
				WorkflowID: run.state.WorkflowID,
				PhaseID:    phaseID,
				Message:    "dependency did not complete",
			})
			return
		}
	}

	if phase.Condition != "" && !run.conditionMet(phase.Condition) {
		run.markSkipped(phaseID, fmt.Sprintf("condition %q not met", phase.Condition))
		o.emit(Event{
			Type:       EventPhaseSkipped,
			WorkflowID: run.state.WorkflowID,
			PhaseID:    phaseID,
			Message:    "condition not met",
		})
		return
	}

	run.setCurrent(phaseID)
	o.emit(Event{Type: EventPhaseStarted, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})

	if !phase.Context.Valid() {
		run.markFailed(phaseID, fmt.Errorf("phase %s: %w: %q", phaseID, ErrUnknownContext, phase.Context))
		o.emit(Event{Type: EventPhaseFailed, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})
		return
	}
	if o.policies != nil {
		if _, err := o.policies.LoadPolicy(phase.Context); err != nil {
			run.markFailed(phaseID, fmt.Errorf("phase %s context transition: %w", phaseID, err))
			o.emit(Event{Type: EventPhaseFailed, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})
			return
		}
	}

	snapshot := run.snapshotContext()
	exec := o.registry.For(phase.Context)
	attempt := 0

	for {
		inputs := run.buildInputs(phase)
		outputs, err := o.executeOnce(ctx, exec, phase, inputs)
		if err == nil {
			err = validateOutputs(phase, outputs)
		}
		if err == nil {
			run.complete(phaseID, outputs)
			o.propagate(run, phase, outputs)
			o.emit(Event{Type: EventPhaseCompleted, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})
			return
		}

		action := o.resolveRecovery(phase, err)
		switch action.Type {
		case models.RecoveryRetry, models.RecoveryRollback:
			if action.Type == models.RecoveryRollback {
				run.restoreContext(snapshot)
			}
			if attempt >= phase.RetryCount {
				if errors.Is(err, ErrPhaseTimeout) {
					run.addWarning(fmt.Sprintf("phase %s timed out; consider increasing timeout_seconds (currently %d)",
						phaseID, phase.TimeoutSeconds))
				}
				run.markFailed(phaseID, fmt.Errorf("phase %s failed after %d attempts: %w", phaseID, attempt+1, err))
				o.emit(Event{Type: EventPhaseFailed, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})
				return
			}
			attempt++
			run.addWarning(fmt.Sprintf("phase %s attempt %d failed, retrying: %v", phaseID, attempt, err))
			if !sleepContext(ctx, backoffDelay(action, attempt)) {
				run.markFailed(phaseID, fmt.Errorf("phase %s: %w", phaseID, ctx.Err()))
				return
			}

		case models.RecoverySkip:
			run.markSkipped(phaseID, fmt.Sprintf("%s: %v", action.Reason, err))
			o.emit(Event{Type: EventPhaseSkipped, WorkflowID: run.state.WorkflowID, PhaseID: phaseID, Message: action.Reason})
			return

		case models.RecoveryEscalate:
			run.markFailed(phaseID, fmt.Errorf("phase %s escalated: %w", phaseID, err))
			o.emit(Event{
				Type:       EventEscalation,
				WorkflowID: run.state.WorkflowID,
				PhaseID:    phaseID,
				Message:    action.Reason,
			})
			return

		case models.RecoveryAbort:
			run.markFailed(phaseID, fmt.Errorf("phase %s aborted workflow: %w", phaseID, err))
			run.abort()
			o.emit(Event{Type: EventPhaseFailed, WorkflowID: run.state.WorkflowID, PhaseID: phaseID, Message: action.Reason})
			return

		default:
			run.markFailed(phaseID, fmt.Errorf("phase %s failed: %w", phaseID, err))
			o.emit(Event{Type: EventPhaseFailed, WorkflowID: run.state.WorkflowID, PhaseID: phaseID})
			return
		}
	}
}

// executeOnce runs the executor under the phase's hard timeout. The
// executor runs in its own goroutine so a hung backend cannot stall the
// orchestrator past the deadline.
func (o *Orchestrator) executeOnce(ctx context.Context, exec executor.PhaseExecutor, phase *models.WorkflowPhase, inputs map[string]any) (map[string]any, error) {
	timeout := defaultPhaseTimeout
	if phase.TimeoutSeconds > 0 {
		timeout = time.Duration(phase.TimeoutSeconds) * time.Second
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type phaseReturn struct {
		outputs map[string]any
		err     error
	}
	done := make(chan phaseReturn, 1)
	go func() {
		outputs, err := exec.ExecutePhase(tctx, phase, inputs)
		done <- phaseReturn{outputs: outputs, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("phase %s timed out after %s: %w", phase.PhaseID, timeout, ErrPhaseTimeout)
		}
		return r.outputs, r.err
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("phase %s timed out after %s: %w", phase.PhaseID, timeout, ErrPhaseTimeout)
		}
		return nil, tctx.Err()
	}
}

// validateOutputs checks that a phase produced every output it declares
// and did not smuggle an error through the result bag.
func validateOutputs(phase *models.WorkflowPhase, outputs map[string]any) error {
	for _, key := range phase.Outputs {
		if _, ok := outputs[key]; !ok {
			return fmt.Errorf("%w: phase %s missing declared output %q", ErrOutputValidation, phase.PhaseID, key)
		}
	}
	for _, key := range []string{"error", "errors"} {
		if _, ok := outputs[key]; ok {
			return fmt.Errorf("%w: phase %s reported %q in its outputs", ErrOutputValidation, phase.PhaseID, key)
		}
	}
	return nil
}

// propagate publishes a completed phase's outputs into the shared context
// data, tagged with their source, so downstream phases can consume them.
func (o *Orchestrator) propagate(run *execution, phase *models.WorkflowPhase, outputs map[string]any) {
	if len(outputs) == 0 {
		run.addWarning(fmt.Sprintf("phase %s completed with an empty result, nothing to propagate", phase.PhaseID))
		return
	}

	tagged := make(map[string]any, len(outputs)+2)
	for k, v := range outputs {
		tagged[k] = v
	}
	tagged["_source_phase"] = phase.PhaseID
	tagged["_propagated_at"] = time.Now().UTC().Format(time.RFC3339)

	run.mu.Lock()
	run.state.ContextData["previous_"+phase.PhaseID] = tagged
	run.mu.Unlock()
}

// sleepContext waits for the given duration unless the context ends
// first. It reports whether the full wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffDelay computes the retry delay from the action's parameters,
// growing linearly with the attempt number.
func backoffDelay(action models.RecoveryAction, attempt int) time.Duration {
	base := 100 * time.Millisecond
	if raw, ok := action.Parameters["backoff_ms"]; ok {
		switch v := raw.(type) {
		case int:
			base = time.Duration(v) * time.Millisecond
		case float64:
			base = time.Duration(v) * time.Millisecond
		}
	}
	return base * time.Duration(attempt)
}
