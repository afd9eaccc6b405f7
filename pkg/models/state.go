package models

import "time"

// WorkflowStatus represents the workflow-level state machine.
type WorkflowStatus string

const (
	// WorkflowPending indicates execution has not started.
	WorkflowPending WorkflowStatus = "pending"
	// WorkflowRunning indicates execution is in progress.
	WorkflowRunning WorkflowStatus = "running"
	// WorkflowCompleted indicates all phases finished successfully.
	WorkflowCompleted WorkflowStatus = "completed"
	// WorkflowFailed indicates execution ended with failures.
	WorkflowFailed WorkflowStatus = "failed"
	// WorkflowCancelled indicates execution was cancelled.
	WorkflowCancelled WorkflowStatus = "cancelled"
	// WorkflowPaused indicates execution is suspended.
	WorkflowPaused WorkflowStatus = "paused"
)

// Valid returns true if the status is a known value.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowPending, WorkflowRunning, WorkflowCompleted,
		WorkflowFailed, WorkflowCancelled, WorkflowPaused:
		return true
	default:
		return false
	}
}

// PhaseStatus represents the per-phase state machine:
// pending -> running -> {completed | failed | skipped}.
type PhaseStatus string

const (
	// PhasePending indicates the phase has not started.
	PhasePending PhaseStatus = "pending"
	// PhaseRunning indicates the phase is executing.
	PhaseRunning PhaseStatus = "running"
	// PhaseCompleted indicates the phase finished successfully.
	PhaseCompleted PhaseStatus = "completed"
	// PhaseFailed indicates the phase failed.
	PhaseFailed PhaseStatus = "failed"
	// PhaseSkipped indicates the phase was skipped by a recovery action.
	PhaseSkipped PhaseStatus = "skipped"
)

// Terminal returns true if the status is a terminal phase state.
func (s PhaseStatus) Terminal() bool {
	switch s {
	case PhaseCompleted, PhaseFailed, PhaseSkipped:
		return true
	default:
		return false
	}
}

// WorkflowState is the mutable execution state owned exclusively by one
// in-flight orchestrator invocation. It is created at the start of
// execution, discarded at the end, and never shared across workflows.
type WorkflowState struct {
	// WorkflowID identifies the workflow being executed.
	WorkflowID string `json:"workflow_id"`
	// Status is the workflow-level status.
	Status WorkflowStatus `json:"status"`
	// CurrentPhase is the ID of the phase currently executing.
	CurrentPhase string `json:"current_phase,omitempty"`
	// CompletedPhases lists phase IDs that finished successfully.
	CompletedPhases []string `json:"completed_phases"`
	// FailedPhases lists phase IDs that failed.
	FailedPhases []string `json:"failed_phases"`
	// PhaseStatus maps phase ID to its current status.
	PhaseStatus map[string]PhaseStatus `json:"phase_status"`
	// PhaseResults maps phase ID to the result bag it produced.
	PhaseResults map[string]map[string]any `json:"phase_results"`
	// ContextData holds workflow-level key/value data shared across phases.
	ContextData map[string]any `json:"context_data"`
	// Errors collects error messages accumulated during execution.
	Errors []string `json:"errors,omitempty"`
	// Warnings collects non-fatal warnings accumulated during execution.
	Warnings []string `json:"warnings,omitempty"`
	// StartTime is when execution began.
	StartTime time.Time `json:"start_time"`
	// EndTime is when execution finished.
	EndTime time.Time `json:"end_time,omitempty"`
}

// NewWorkflowState creates a fresh state for the given workflow with every
// phase marked pending.
func NewWorkflowState(def *WorkflowDefinition) *WorkflowState {
	st := &WorkflowState{
		WorkflowID:      def.WorkflowID,
		Status:          WorkflowPending,
		CompletedPhases: []string{},
		FailedPhases:    []string{},
		PhaseStatus:     make(map[string]PhaseStatus, len(def.Phases)),
		PhaseResults:    make(map[string]map[string]any, len(def.Phases)),
		ContextData:     make(map[string]any),
	}
	for _, p := range def.Phases {
		st.PhaseStatus[p.PhaseID] = PhasePending
	}
	return st
}

// WorkflowResult is the terminal, immutable summary returned to the caller.
type WorkflowResult struct {
	// WorkflowID identifies the executed workflow.
	WorkflowID string `json:"workflow_id"`
	// Status is the final workflow status.
	Status WorkflowStatus `json:"status"`
	// Results maps phase ID to the result bag it produced.
	Results map[string]map[string]any `json:"results"`
	// ExecutionTimeSeconds is the total wall-clock execution time.
	ExecutionTimeSeconds float64 `json:"execution_time_seconds"`
	// PhasesExecuted lists phase IDs that completed successfully.
	PhasesExecuted []string `json:"phases_executed"`
	// PhasesFailed lists phase IDs that failed.
	PhasesFailed []string `json:"phases_failed"`
	// Errors collects error messages from the run.
	Errors []string `json:"errors,omitempty"`
	// Warnings collects warnings from the run.
	Warnings []string `json:"warnings,omitempty"`
	// Metrics holds run metrics; always includes "success_rate".
	Metrics map[string]float64 `json:"metrics"`
	// QualityScore is an optional aggregate quality score (0.0-1.0).
	QualityScore float64 `json:"quality_score,omitempty"`
}

// SuccessRate returns the recorded success_rate metric.
func (r *WorkflowResult) SuccessRate() float64 {
	return r.Metrics["success_rate"]
}

// RecoveryActionType enumerates what can be done about a failed phase.
type RecoveryActionType string

const (
	// RecoveryRetry re-executes the failed phase.
	RecoveryRetry RecoveryActionType = "retry"
	// RecoverySkip marks the phase skipped and continues.
	RecoverySkip RecoveryActionType = "skip"
	// RecoveryRollback undoes the phase's context changes, then retries.
	RecoveryRollback RecoveryActionType = "rollback"
	// RecoveryEscalate surfaces the failure for external handling.
	RecoveryEscalate RecoveryActionType = "escalate"
	// RecoveryAbort stops the entire workflow execution.
	RecoveryAbort RecoveryActionType = "abort"
)

// Valid returns true if the action type is a known value.
func (t RecoveryActionType) Valid() bool {
	switch t {
	case RecoveryRetry, RecoverySkip, RecoveryRollback, RecoveryEscalate, RecoveryAbort:
		return true
	default:
		return false
	}
}

// RecoveryAction is produced by recovery-strategy evaluation when a phase
// fails.
type RecoveryAction struct {
	// Type is the kind of recovery to perform.
	Type RecoveryActionType `json:"action_type"`
	// Parameters holds action-specific settings (e.g. backoff).
	Parameters map[string]any `json:"parameters,omitempty"`
	// Reason explains why this action was chosen.
	Reason string `json:"reason"`
}
