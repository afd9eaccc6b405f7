package graph

import (
	"errors"
	"testing"

	"github.com/sbraddock/stagehand/pkg/models"
)

func defWithDeps(deps map[string][]string, ids ...string) *models.WorkflowDefinition {
	def := &models.WorkflowDefinition{
		WorkflowID:   "wf-test",
		Dependencies: deps,
	}
	for _, id := range ids {
		def.Phases = append(def.Phases, models.WorkflowPhase{
			PhaseID: id,
			Context: models.ContextImplementation,
			Name:    id,
		})
	}
	return def
}

func TestBuildSimpleChain(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"b": {"a"},
		"c": {"b"},
	}, "a", "b", "c")

	g, err := Build(def)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	if g.Size() != 3 {
		t.Errorf("expected 3 phases, got %d", g.Size())
	}
}

func TestBuildUnknownDependency(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"a": {"missing"},
	}, "a")

	if _, err := Build(def); err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestBuildCycle(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"a": {"c"},
		"b": {"a"},
		"c": {"b"},
	}, "a", "b", "c")

	_, err := Build(def)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	if !HasCycle(def) {
		t.Error("expected HasCycle to report the cycle")
	}
}

func TestTopologicalSort(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"impl":   {"design"},
		"verify": {"impl"},
	}, "design", "impl", "verify")

	g, err := Build(def)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	order := g.TopologicalSort()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	if pos["design"] > pos["impl"] {
		t.Error("design must come before impl")
	}
	if pos["impl"] > pos["verify"] {
		t.Error("impl must come before verify")
	}
}

func TestTopologicalSortDeterministic(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"d": {"a", "b", "c"},
	}, "a", "b", "c", "d")

	g, err := Build(def)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	first := g.TopologicalSort()
	for i := 0; i < 10; i++ {
		next := g.TopologicalSort()
		for j := range first {
			if first[j] != next[j] {
				t.Fatalf("sort order changed between calls: %v vs %v", first, next)
			}
		}
	}
}

func TestRootsAndReachable(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"b": {"a"},
	}, "a", "b", "island")

	g, err := Build(def)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	roots := g.Roots()
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots (a, island), got %v", roots)
	}

	reached := g.Reachable()
	for _, id := range []string{"a", "b", "island"} {
		if !reached[id] {
			t.Errorf("expected %s to be reachable from roots", id)
		}
	}
}

func TestDependents(t *testing.T) {
	def := defWithDeps(map[string][]string{
		"b": {"a"},
		"c": {"a"},
	}, "a", "b", "c")

	g, err := Build(def)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	deps := g.Dependents("a")
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependents of a, got %v", deps)
	}
}
