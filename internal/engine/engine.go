// Package engine wires the analysis, composition and orchestration
// stages into one task pipeline.
package engine

import (
	"context"
	"log"

	"github.com/sbraddock/stagehand/internal/analyzer"
	"github.com/sbraddock/stagehand/internal/composer"
	"github.com/sbraddock/stagehand/internal/orchestrator"
	"github.com/sbraddock/stagehand/pkg/models"
)

// Config contains configuration for creating an Engine.
type Config struct {
	// Library is the optional workflow template library.
	Library *composer.Library
	// Orchestrator configures the execution stage.
	Orchestrator orchestrator.Config
	// Environment holds hints passed to every analysis, such as
	// "project_size" and "team_experience".
	Environment map[string]string
}

// Engine runs free-text tasks through analysis, composition and
// execution.
type Engine struct {
	analyzer     *analyzer.Analyzer
	composer     *composer.Composer
	orchestrator *orchestrator.Orchestrator
	library      *composer.Library
	environment  map[string]string
}

// New creates an Engine from the given configuration.
func New(cfg Config) *Engine {
	return &Engine{
		analyzer:     analyzer.New(),
		composer:     composer.New(cfg.Library),
		orchestrator: orchestrator.New(cfg.Orchestrator),
		library:      cfg.Library,
		environment:  cfg.Environment,
	}
}

// AnalyzeTask runs only the analysis stage.
func (e *Engine) AnalyzeTask(description string) *models.TaskAnalysis {
	return e.analyzer.Analyze(description, e.environment)
}

// ComposeWorkflow runs only the composition stage.
func (e *Engine) ComposeWorkflow(analysis *models.TaskAnalysis) *models.WorkflowDefinition {
	return e.composer.Compose(analysis)
}

// Events exposes the orchestrator's progress event stream.
func (e *Engine) Events() <-chan orchestrator.Event {
	return e.orchestrator.Events()
}

// RunTask executes the full pipeline for one task description and feeds
// the outcome back into the template library's success rates.
func (e *Engine) RunTask(ctx context.Context, description string) *models.WorkflowResult {
	analysis := e.AnalyzeTask(description)
	log.Printf("[engine] task %s: complexity=%s contexts=%d confidence=%.2f",
		analysis.TaskID, analysis.Complexity, len(analysis.RequiredContexts), analysis.Confidence)

	def := e.ComposeWorkflow(analysis)
	result := e.orchestrator.Execute(ctx, def, map[string]any{
		"task_id":          analysis.TaskID,
		"task_description": description,
	})

	if e.library != nil {
		if templateID := def.Metadata["template_id"]; templateID != "" {
			e.library.RecordOutcome(templateID, result.Status == models.WorkflowCompleted)
		}
	}
	return result
}
