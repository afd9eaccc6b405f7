// Package orchestrator executes workflow definitions: it schedules
// phases in dependency order, runs parallel groups concurrently,
// enforces per-phase timeouts, and applies recovery rules to failures.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sbraddock/stagehand/internal/executor"
	"github.com/sbraddock/stagehand/internal/graph"
	"github.com/sbraddock/stagehand/pkg/models"
)

// defaultEventBuffer is the event channel capacity when none is given.
const defaultEventBuffer = 64

// defaultPhaseTimeout applies when a phase declares no timeout.
const defaultPhaseTimeout = 600 * time.Second

// Config contains configuration for creating an Orchestrator.
type Config struct {
	// Registry supplies per-context executors. Defaults to a registry
	// with a simulated fallback executor.
	Registry *executor.Registry
	// Policies optionally validates context transitions. May be nil.
	Policies executor.PolicyLoader
	// Rules are extra recovery rules, evaluated before the defaults.
	Rules []RecoveryRule
	// EventBuffer is the event channel capacity.
	EventBuffer int
}

// Orchestrator runs workflow definitions to completion. It is safe for
// concurrent use; each Execute call owns its own state.
type Orchestrator struct {
	registry *executor.Registry
	policies executor.PolicyLoader
	rules    []RecoveryRule
	events   chan Event
}

// New creates an Orchestrator from the given configuration.
func New(cfg Config) *Orchestrator {
	registry := cfg.Registry
	if registry == nil {
		registry = executor.NewRegistry(&executor.Simulated{})
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	rules := append([]RecoveryRule{}, cfg.Rules...)
	rules = append(rules, DefaultRecoveryRules()...)

	return &Orchestrator{
		registry: registry,
		policies: cfg.Policies,
		rules:    rules,
		events:   make(chan Event, buffer),
	}
}

// execution is the per-run mutable context shared between the scheduler
// and concurrently running phases. All state access goes through its
// mutex.
type execution struct {
	def   *models.WorkflowDefinition
	graph *graph.PhaseGraph

	mu          sync.Mutex
	state       *models.WorkflowState
	abortedFlag bool
}

func (e *execution) aborted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abortedFlag
}

func (e *execution) abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.abortedFlag = true
}

// Execute runs a workflow definition to a terminal result. It never
// returns nil: invalid definitions and aborted runs still produce a
// result describing what happened. The initial map seeds the workflow's
// shared context data.
func (o *Orchestrator) Execute(ctx context.Context, def *models.WorkflowDefinition, initial map[string]any) *models.WorkflowResult {
	start := time.Now()
	state := models.NewWorkflowState(def)
	state.Status = models.WorkflowRunning
	state.StartTime = start
	for k, v := range initial {
		state.ContextData[k] = v
	}

	g, err := graph.Build(def)
	if err != nil {
		state.Status = models.WorkflowFailed
		state.Errors = append(state.Errors, fmt.Sprintf("invalid workflow: %v", err))
		for id := range state.PhaseStatus {
			state.PhaseStatus[id] = models.PhaseSkipped
		}
		state.EndTime = time.Now()
		return buildResult(def, state, start)
	}

	run := &execution{def: def, graph: g, state: state}

	log.Printf("[orchestrator] executing workflow %s (%d phases)", def.WorkflowID, len(def.Phases))
	o.emit(Event{Type: EventWorkflowStarted, WorkflowID: def.WorkflowID})

	for _, step := range buildPlan(def, g) {
		if run.aborted() || ctx.Err() != nil {
			break
		}
		if len(step) == 1 {
			o.runPhase(ctx, run, step[0])
			continue
		}

		var wg sync.WaitGroup
		for _, phaseID := range step {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				o.runPhase(ctx, run, id)
			}(phaseID)
		}
		wg.Wait()
	}

	o.finalize(ctx, run)
	result := buildResult(def, state, start)

	o.emit(Event{
		Type:       EventWorkflowFinished,
		WorkflowID: def.WorkflowID,
		Message:    string(result.Status),
	})
	log.Printf("[orchestrator] workflow %s finished: %s (%d completed, %d failed)",
		def.WorkflowID, result.Status, len(result.PhasesExecuted), len(result.PhasesFailed))
	return result
}

// buildPlan partitions the topological phase order into execution steps.
// Consecutive phases sharing a parallel group form one concurrent step;
// everything else runs sequentially. The plan is fixed before execution
// starts.
func buildPlan(def *models.WorkflowDefinition, g *graph.PhaseGraph) [][]string {
	var plan [][]string
	var current []string
	var currentGroup string

	flush := func() {
		if len(current) > 0 {
			plan = append(plan, current)
			current = nil
			currentGroup = ""
		}
	}

	for _, phaseID := range g.TopologicalSort() {
		phase := g.Phase(phaseID)
		group := phase.ParallelGroup
		if group == "" {
			flush()
			plan = append(plan, []string{phaseID})
			continue
		}
		if group != currentGroup {
			flush()
			currentGroup = group
		}
		current = append(current, phaseID)
	}
	flush()
	return plan
}

// finalize settles the terminal state: phases that never ran are marked
// skipped and the workflow status is derived from what happened.
func (o *Orchestrator) finalize(ctx context.Context, run *execution) {
	run.mu.Lock()
	defer run.mu.Unlock()

	state := run.state
	cancelled := ctx.Err() != nil

	for _, phase := range run.def.Phases {
		if state.PhaseStatus[phase.PhaseID].Terminal() {
			continue
		}
		state.PhaseStatus[phase.PhaseID] = models.PhaseSkipped
		reason := "workflow ended before phase ran"
		if run.abortedFlag {
			reason = "workflow aborted"
		} else if cancelled {
			reason = "execution cancelled"
		}
		state.Warnings = append(state.Warnings,
			fmt.Sprintf("phase %s skipped: %s", phase.PhaseID, reason))
		o.emit(Event{
			Type:       EventPhaseSkipped,
			WorkflowID: state.WorkflowID,
			PhaseID:    phase.PhaseID,
			Message:    reason,
		})
	}

	state.CurrentPhase = ""
	state.EndTime = time.Now()
	switch {
	case cancelled:
		state.Status = models.WorkflowCancelled
	case run.abortedFlag || len(state.FailedPhases) > 0:
		state.Status = models.WorkflowFailed
	default:
		state.Status = models.WorkflowCompleted
	}
}

// buildResult converts the final state into the immutable result summary.
func buildResult(def *models.WorkflowDefinition, state *models.WorkflowState, start time.Time) *models.WorkflowResult {
	results := make(map[string]map[string]any, len(state.PhaseResults))
	for phaseID, outputs := range state.PhaseResults {
		copied := make(map[string]any, len(outputs))
		for k, v := range outputs {
			copied[k] = v
		}
		results[phaseID] = copied
	}

	total := len(def.Phases)
	var successRate float64
	if total > 0 {
		successRate = float64(len(state.CompletedPhases)) / float64(total)
	}

	return &models.WorkflowResult{
		WorkflowID:           state.WorkflowID,
		Status:               state.Status,
		Results:              results,
		ExecutionTimeSeconds: time.Since(start).Seconds(),
		PhasesExecuted:       append([]string(nil), state.CompletedPhases...),
		PhasesFailed:         append([]string(nil), state.FailedPhases...),
		Errors:               append([]string(nil), state.Errors...),
		Warnings:             append([]string(nil), state.Warnings...),
		Metrics: map[string]float64{
			"success_rate":  successRate,
			"phases_total":  float64(total),
			"phases_failed": float64(len(state.FailedPhases)),
		},
		QualityScore: successRate,
	}
}
