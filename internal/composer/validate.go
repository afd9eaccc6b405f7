package composer

import (
	"fmt"

	"github.com/sbraddock/stagehand/internal/graph"
	"github.com/sbraddock/stagehand/pkg/models"
)

// validatePassScore is the minimum score a definition needs to pass.
const validatePassScore = 0.7

// Per-violation score deductions.
const (
	penaltyNoPhases       = 0.5
	penaltyUnknownContext = 0.2
	penaltyUnknownPhase   = 0.2
	penaltyMissingRelease = 0.1
	penaltyMissingVerify  = 0.1
	penaltyCycle          = 0.3
	penaltyDisconnected   = 0.15
)

// Validate checks a workflow definition for structural soundness and
// scores it. The score starts at 1.0 and each violation deducts a fixed
// penalty; a definition passes at 0.7 or above. Validation never mutates
// the definition.
func (c *Composer) Validate(def *models.WorkflowDefinition) models.ValidationResult {
	score := 1.0
	var messages []string

	fail := func(penalty float64, format string, args ...any) {
		score -= penalty
		messages = append(messages, fmt.Sprintf(format, args...))
	}

	if len(def.Phases) == 0 {
		fail(penaltyNoPhases, "workflow has no phases")
	}

	contexts := make(map[models.Context]bool)
	ids := make(map[string]bool, len(def.Phases))
	for _, p := range def.Phases {
		ids[p.PhaseID] = true
		contexts[p.Context] = true
		if !p.Context.Valid() {
			fail(penaltyUnknownContext, "phase %s has unknown context %q", p.PhaseID, p.Context)
		}
	}

	for phaseID, deps := range def.Dependencies {
		if !ids[phaseID] {
			fail(penaltyUnknownPhase, "dependency map references unknown phase %s", phaseID)
			continue
		}
		for _, depID := range deps {
			if !ids[depID] {
				fail(penaltyUnknownPhase, "phase %s depends on unknown phase %s", phaseID, depID)
			}
		}
	}

	if len(contexts) > 1 && !contexts[models.ContextRelease] {
		fail(penaltyMissingRelease, "multi-context workflow has no release phase")
	}
	if len(def.Phases) > 2 && !contexts[models.ContextVerification] {
		fail(penaltyMissingVerify, "workflow with %d phases has no verification phase", len(def.Phases))
	}

	if graph.HasCycle(def) {
		fail(penaltyCycle, "dependency graph contains a cycle")
	} else if g, err := graph.Build(def); err == nil {
		reached := g.Reachable()
		for _, p := range def.Phases {
			if !reached[p.PhaseID] {
				fail(penaltyDisconnected, "phase %s is disconnected from the workflow", p.PhaseID)
			}
		}
	}

	if score < 0 {
		score = 0
	}

	return models.ValidationResult{
		Passed:   score >= validatePassScore && len(def.Phases) > 0,
		Score:    score,
		Messages: messages,
	}
}
