// Package composer builds executable workflow definitions from task
// analyses, either by customizing a matched template or by synthesizing
// phases per required context, then orders, parallelizes and validates
// the result.
package composer

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sbraddock/stagehand/pkg/models"
)

// minTemplateScore is the match score a template must reach before it is
// preferred over direct synthesis.
const minTemplateScore = 0.6

// Composer turns task analyses into validated workflow definitions.
type Composer struct {
	library *Library
}

// New creates a Composer. The template library is optional; with a nil
// library every workflow is synthesized from scratch.
func New(library *Library) *Composer {
	return &Composer{library: library}
}

// Compose builds a workflow definition for the given analysis. It never
// fails: when validation cannot be satisfied even after repair, the
// definition is returned anyway with the validation outcome recorded in
// its metadata.
func (c *Composer) Compose(analysis *models.TaskAnalysis) *models.WorkflowDefinition {
	def := c.baseDefinition(analysis)

	if tmpl, score := c.bestTemplate(analysis); tmpl != nil && score >= minTemplateScore {
		log.Printf("[composer] matched template %s (score %.2f) for task %s",
			tmpl.TemplateID, score, analysis.TaskID)
		def.Phases = c.customizeTemplate(tmpl, analysis)
		def.Metadata["template_id"] = tmpl.TemplateID
		def.Metadata["template_score"] = fmt.Sprintf("%.2f", score)
	} else {
		def.Phases = synthesizePhases(analysis)
	}
	ensureUniquePhaseIDs(def)

	c.buildDependencies(def)
	c.Optimize(def)

	result := c.Validate(def)
	if !result.Passed {
		log.Printf("[composer] workflow %s failed validation (score %.2f), repairing",
			def.WorkflowID, result.Score)
		c.repair(def, analysis)
		c.buildDependencies(def)
		c.Optimize(def)
		result = c.Validate(def)
	}

	def.Metadata["validation_score"] = fmt.Sprintf("%.2f", result.Score)
	def.Metadata["validation_passed"] = strconv.FormatBool(result.Passed)
	if len(result.Messages) > 0 {
		def.Metadata["validation_messages"] = strings.Join(result.Messages, "; ")
	}

	return def
}

// baseDefinition builds the definition shell carrying identity and
// analysis-level fields.
func (c *Composer) baseDefinition(analysis *models.TaskAnalysis) *models.WorkflowDefinition {
	name := strings.TrimSpace(analysis.Description)
	if r := []rune(name); len(r) > 60 {
		name = string(r[:60])
	}
	if name == "" {
		name = "Unnamed task"
	}

	return &models.WorkflowDefinition{
		WorkflowID:        "wf-" + uuid.New().String()[:8],
		Name:              name,
		Description:       analysis.Description,
		Dependencies:      make(map[string][]string),
		EstimatedDuration: analysis.EstimatedDuration,
		QualityGates:      append([]string(nil), analysis.SuccessCriteria...),
		Metadata: map[string]string{
			"task_id":    analysis.TaskID,
			"complexity": string(analysis.Complexity),
		},
	}
}

// buildDependencies derives the dependency map from the fixed context
// predecessor table: a phase depends on every phase whose context is
// listed as a predecessor of its own. The map is rebuilt from scratch so
// repair passes cannot accumulate stale edges.
func (c *Composer) buildDependencies(def *models.WorkflowDefinition) {
	def.Dependencies = make(map[string][]string, len(def.Phases))

	for i := range def.Phases {
		p := &def.Phases[i]
		seen := make(map[string]bool)
		var deps []string
		for _, predCtx := range contextPredecessors[p.Context] {
			for j := range def.Phases {
				q := &def.Phases[j]
				if q.PhaseID != p.PhaseID && q.Context == predCtx && !seen[q.PhaseID] {
					seen[q.PhaseID] = true
					deps = append(deps, q.PhaseID)
				}
			}
		}
		if len(deps) > 0 {
			sort.Strings(deps)
			def.Dependencies[p.PhaseID] = deps
		}
	}
}

// repair applies targeted fixes for the violations Validate detects:
// a missing release phase, a missing verification phase, and ordering
// edges that only a dependency rebuild can restore. It runs at most once
// per composition.
func (c *Composer) repair(def *models.WorkflowDefinition, analysis *models.TaskAnalysis) {
	contexts := make(map[models.Context]bool)
	for _, p := range def.Phases {
		contexts[p.Context] = true
	}

	if len(def.Phases) > 2 && !contexts[models.ContextVerification] {
		log.Printf("[composer] repair: adding verification phase to %s", def.WorkflowID)
		def.Phases = append(def.Phases, synthesizePhase(models.ContextVerification, analysis.Complexity))
		contexts[models.ContextVerification] = true
	}

	if len(contexts) > 1 && !contexts[models.ContextRelease] {
		log.Printf("[composer] repair: adding release phase to %s", def.WorkflowID)
		def.Phases = append(def.Phases, synthesizePhase(models.ContextRelease, analysis.Complexity))
	}

	ensureUniquePhaseIDs(def)
}

// ensureUniquePhaseIDs disambiguates duplicate phase IDs by suffixing a
// counter. Templates and repair additions may otherwise collide.
func ensureUniquePhaseIDs(def *models.WorkflowDefinition) {
	seen := make(map[string]int, len(def.Phases))
	for i := range def.Phases {
		p := &def.Phases[i]
		seen[p.PhaseID]++
		if n := seen[p.PhaseID]; n > 1 {
			p.PhaseID = fmt.Sprintf("%s-%d", p.PhaseID, n)
			seen[p.PhaseID]++
		}
	}
}
