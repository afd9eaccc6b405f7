package engine

import (
	"context"
	"testing"

	"github.com/sbraddock/stagehand/pkg/models"
)

func TestRunTaskEndToEnd(t *testing.T) {
	e := New(Config{})

	result := e.RunTask(context.Background(), "Fix critical login bug in authentication system")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.Status != models.WorkflowCompleted {
		t.Fatalf("expected completed workflow, got %s (errors: %v)", result.Status, result.Errors)
	}
	if result.SuccessRate() != 1.0 {
		t.Errorf("expected success rate 1.0, got %.2f", result.SuccessRate())
	}
	if len(result.PhasesExecuted) == 0 {
		t.Error("expected executed phases")
	}
}

func TestRunTaskVagueInputStillRuns(t *testing.T) {
	e := New(Config{})

	result := e.RunTask(context.Background(), "do the thing")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if !result.Status.Valid() {
		t.Errorf("expected a valid terminal status, got %q", result.Status)
	}
}

func TestAnalyzeAndComposeStages(t *testing.T) {
	e := New(Config{Environment: map[string]string{"project_size": "small"}})

	analysis := e.AnalyzeTask("Add an export button to the settings page")
	if len(analysis.RequiredContexts) == 0 {
		t.Fatal("expected required contexts")
	}

	def := e.ComposeWorkflow(analysis)
	if len(def.Phases) == 0 {
		t.Fatal("expected composed phases")
	}
	for _, ctx := range analysis.RequiredContexts {
		var found bool
		for _, p := range def.Phases {
			if p.Context == ctx {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no phase for required context %s", ctx)
		}
	}
}
