package orchestrator

import (
	"log"
	"time"
)

// EventType classifies orchestration progress events.
type EventType string

const (
	// EventWorkflowStarted fires when execution begins.
	EventWorkflowStarted EventType = "workflow_started"
	// EventWorkflowFinished fires when execution ends, whatever the outcome.
	EventWorkflowFinished EventType = "workflow_finished"
	// EventPhaseStarted fires when a phase begins executing.
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseCompleted fires when a phase completes successfully.
	EventPhaseCompleted EventType = "phase_completed"
	// EventPhaseFailed fires when a phase exhausts its recovery options.
	EventPhaseFailed EventType = "phase_failed"
	// EventPhaseSkipped fires when a phase is skipped.
	EventPhaseSkipped EventType = "phase_skipped"
	// EventEscalation fires when a failure is escalated for external handling.
	EventEscalation EventType = "escalation"
)

// Event is a progress notification emitted during execution. Consumers
// that fall behind lose events rather than blocking the orchestrator.
type Event struct {
	Type       EventType `json:"type"`
	WorkflowID string    `json:"workflow_id"`
	PhaseID    string    `json:"phase_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Events returns the event stream. The channel is never closed.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// emit publishes an event without blocking, dropping it if the buffer is
// full.
func (o *Orchestrator) emit(e Event) {
	e.Timestamp = time.Now()
	select {
	case o.events <- e:
	default:
		log.Printf("[orchestrator] event buffer full, dropping %s for %s", e.Type, e.WorkflowID)
	}
}
