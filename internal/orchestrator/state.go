package orchestrator

import (
	"fmt"
	"strings"

	"github.com/sbraddock/stagehand/pkg/models"
)

// State mutation helpers for one in-flight execution. Every method takes
// the run mutex so parallel phases can share the state safely.

func (e *execution) phaseStatus(phaseID string) models.PhaseStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PhaseStatus[phaseID]
}

func (e *execution) setCurrent(phaseID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.CurrentPhase = phaseID
	e.state.PhaseStatus[phaseID] = models.PhaseRunning
}

func (e *execution) complete(phaseID string, outputs map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PhaseStatus[phaseID] = models.PhaseCompleted
	e.state.CompletedPhases = append(e.state.CompletedPhases, phaseID)
	e.state.PhaseResults[phaseID] = outputs
}

func (e *execution) markFailed(phaseID string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PhaseStatus[phaseID] = models.PhaseFailed
	e.state.FailedPhases = append(e.state.FailedPhases, phaseID)
	e.state.Errors = append(e.state.Errors, err.Error())
}

func (e *execution) markSkipped(phaseID, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PhaseStatus[phaseID] = models.PhaseSkipped
	e.state.Warnings = append(e.state.Warnings,
		fmt.Sprintf("phase %s skipped: %s", phaseID, reason))
}

func (e *execution) addWarning(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Warnings = append(e.state.Warnings, msg)
}

// conditionMet evaluates a phase condition against the shared context
// data. A bare key requires a present, truthy value; "key=value"
// requires an exact match on the value's string form.
func (e *execution) conditionMet(condition string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	key, want, exact := strings.Cut(condition, "=")
	v, ok := e.state.ContextData[strings.TrimSpace(key)]
	if !ok {
		return false
	}
	if exact {
		return fmt.Sprintf("%v", v) == strings.TrimSpace(want)
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	default:
		return true
	}
}

// snapshotContext copies the shared context data so a rollback can
// restore the pre-phase view.
func (e *execution) snapshotContext() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := make(map[string]any, len(e.state.ContextData))
	for k, v := range e.state.ContextData {
		snapshot[k] = v
	}
	return snapshot
}

func (e *execution) restoreContext(snapshot map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ContextData = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		e.state.ContextData[k] = v
	}
}

// buildInputs merges the inputs handed to a phase: the shared context
// data, each dependency's result bag tagged with its source and the
// consuming phase, and any declared input keys found in those results.
func (e *execution) buildInputs(phase *models.WorkflowPhase) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	inputs := make(map[string]any, len(e.state.ContextData)+4)
	for k, v := range e.state.ContextData {
		inputs[k] = v
	}

	deps := e.graph.Dependencies(phase.PhaseID)
	for _, depID := range deps {
		result, ok := e.state.PhaseResults[depID]
		if !ok {
			continue
		}
		source := result
		if tagged, ok := e.state.ContextData["previous_"+depID].(map[string]any); ok {
			source = tagged
		}
		bag := make(map[string]any, len(source)+1)
		for k, v := range source {
			bag[k] = v
		}
		bag["_target_phase"] = phase.PhaseID
		inputs["previous_"+depID] = bag
	}

	// Resolve declared inputs by name from dependency results.
	for _, key := range phase.Inputs {
		if _, ok := inputs[key]; ok {
			continue
		}
		for _, depID := range deps {
			if result, ok := e.state.PhaseResults[depID]; ok {
				if v, found := result[key]; found {
					inputs[key] = v
					break
				}
			}
		}
	}

	inputs["_target_phase"] = phase.PhaseID
	return inputs
}
