package composer

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sbraddock/stagehand/internal/graph"
	"github.com/sbraddock/stagehand/pkg/models"
)

func testAnalysis(contexts []models.Context, complexity models.Complexity) *models.TaskAnalysis {
	return &models.TaskAnalysis{
		TaskID:            "task-test",
		Description:       "test task",
		Complexity:        complexity,
		RequiredContexts:  contexts,
		EstimatedDuration: 60,
		Confidence:        0.8,
		CreatedAt:         time.Now(),
	}
}

// phaseIndexByContext returns the index of the first phase with the given
// context, or -1.
func phaseIndexByContext(def *models.WorkflowDefinition, ctx models.Context) int {
	for i, p := range def.Phases {
		if p.Context == ctx {
			return i
		}
	}
	return -1
}

func assertTopologicalOrder(t *testing.T, def *models.WorkflowDefinition) {
	t.Helper()
	position := make(map[string]int, len(def.Phases))
	for i, p := range def.Phases {
		position[p.PhaseID] = i
	}
	for phaseID, deps := range def.Dependencies {
		for _, depID := range deps {
			if position[depID] >= position[phaseID] {
				t.Errorf("phase %s appears before its dependency %s", phaseID, depID)
			}
		}
	}
}

func TestComposeTruncatesNameOnRuneBoundary(t *testing.T) {
	c := New(nil)
	analysis := testAnalysis([]models.Context{models.ContextImplementation}, models.ComplexitySimple)
	analysis.Description = strings.Repeat("é", 80)

	def := c.Compose(analysis)

	if !utf8.ValidString(def.Name) {
		t.Errorf("workflow name is not valid UTF-8: %q", def.Name)
	}
	if n := utf8.RuneCountInString(def.Name); n != 60 {
		t.Errorf("expected name truncated to 60 runes, got %d", n)
	}
}

func TestComposeSynthesisCoversContexts(t *testing.T) {
	c := New(nil)
	contexts := []models.Context{
		models.ContextDebugging,
		models.ContextImplementation,
		models.ContextVerification,
		models.ContextRelease,
	}

	def := c.Compose(testAnalysis(contexts, models.ComplexityMedium))
	if def == nil {
		t.Fatal("expected non-nil definition")
	}
	if len(def.Phases) != len(contexts) {
		t.Fatalf("expected %d phases, got %d", len(contexts), len(def.Phases))
	}
	for _, ctx := range contexts {
		if phaseIndexByContext(def, ctx) < 0 {
			t.Errorf("missing phase for context %s", ctx)
		}
	}
	assertTopologicalOrder(t, def)

	// Implementation must wait for debugging, release for verification.
	impl := def.Phases[phaseIndexByContext(def, models.ContextImplementation)]
	if !containsString(def.Dependencies[impl.PhaseID], phaseIDFor(models.ContextDebugging)) {
		t.Errorf("implementation should depend on debugging, got %v", def.Dependencies[impl.PhaseID])
	}
	rel := def.Phases[phaseIndexByContext(def, models.ContextRelease)]
	if !containsString(def.Dependencies[rel.PhaseID], phaseIDFor(models.ContextVerification)) {
		t.Errorf("release should depend on verification, got %v", def.Dependencies[rel.PhaseID])
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestComposeAlwaysAcyclic(t *testing.T) {
	c := New(nil)
	all := models.AllContexts()

	// Every contiguous slice of the context list must compose into a DAG.
	for lo := 0; lo < len(all); lo++ {
		for hi := lo + 1; hi <= len(all); hi++ {
			contexts := all[lo:hi]
			def := c.Compose(testAnalysis(contexts, models.ComplexityMedium))
			if graph.HasCycle(def) {
				t.Fatalf("cycle in workflow composed from contexts %v", contexts)
			}
			assertTopologicalOrder(t, def)
		}
	}
}

func TestComposeDesignPrecedesImplementation(t *testing.T) {
	c := New(nil)

	def := c.Compose(testAnalysis([]models.Context{
		models.ContextDesign,
		models.ContextImplementation,
		models.ContextRelease,
	}, models.ComplexityMedium))

	impl := def.Phases[phaseIndexByContext(def, models.ContextImplementation)]
	if !containsString(def.Dependencies[impl.PhaseID], phaseIDFor(models.ContextDesign)) {
		t.Errorf("implementation should depend on design, got %v", def.Dependencies[impl.PhaseID])
	}
	if phaseIndexByContext(def, models.ContextDesign) > phaseIndexByContext(def, models.ContextImplementation) {
		t.Error("design phase should be ordered before implementation")
	}
}

func TestComposeParallelGroups(t *testing.T) {
	c := New(nil)

	def := c.Compose(testAnalysis([]models.Context{
		models.ContextImplementation,
		models.ContextDocumentation,
		models.ContextSecurity,
		models.ContextOptimization,
		models.ContextVerification,
		models.ContextRelease,
	}, models.ComplexityComplex))

	for _, ctx := range []models.Context{
		models.ContextDocumentation,
		models.ContextSecurity,
		models.ContextOptimization,
	} {
		p := def.Phases[phaseIndexByContext(def, ctx)]
		if p.ParallelGroup == "" {
			t.Errorf("expected parallel group on %s phase", ctx)
		}
	}

	impl := def.Phases[phaseIndexByContext(def, models.ContextImplementation)]
	if impl.ParallelGroup != "" {
		t.Errorf("implementation should stay sequential, got group %q", impl.ParallelGroup)
	}
}

func TestComposeTimeoutScaling(t *testing.T) {
	c := New(nil)
	contexts := []models.Context{models.ContextImplementation, models.ContextRelease}

	simple := c.Compose(testAnalysis(contexts, models.ComplexitySimple))
	hard := c.Compose(testAnalysis(contexts, models.ComplexityComplex))

	si := simple.Phases[phaseIndexByContext(simple, models.ContextImplementation)]
	hi := hard.Phases[phaseIndexByContext(hard, models.ContextImplementation)]
	if hi.TimeoutSeconds <= si.TimeoutSeconds {
		t.Errorf("complex timeout %d should exceed simple timeout %d",
			hi.TimeoutSeconds, si.TimeoutSeconds)
	}
}

func TestComposeNeverFails(t *testing.T) {
	c := New(nil)

	def := c.Compose(testAnalysis(nil, models.ComplexitySimple))
	if def == nil {
		t.Fatal("expected non-nil definition even for empty context set")
	}
	if def.Metadata["validation_passed"] != "false" {
		t.Errorf("expected recorded validation failure, got %q", def.Metadata["validation_passed"])
	}
}

func TestValidateScoreMonotonicity(t *testing.T) {
	c := New(nil)

	def := c.Compose(testAnalysis([]models.Context{
		models.ContextImplementation,
		models.ContextVerification,
		models.ContextRelease,
	}, models.ComplexityMedium))

	full := c.Validate(def)
	if !full.Passed {
		t.Fatalf("expected composed workflow to pass validation: %v", full.Messages)
	}

	// Strip the release phase and its edges; the score must strictly drop.
	stripped := *def
	stripped.Phases = nil
	stripped.Dependencies = make(map[string][]string)
	releaseID := phaseIDFor(models.ContextRelease)
	for _, p := range def.Phases {
		if p.Context != models.ContextRelease {
			stripped.Phases = append(stripped.Phases, p)
		}
	}
	for id, deps := range def.Dependencies {
		if id == releaseID {
			continue
		}
		var kept []string
		for _, d := range deps {
			if d != releaseID {
				kept = append(kept, d)
			}
		}
		stripped.Dependencies[id] = kept
	}

	partial := c.Validate(&stripped)
	if partial.Score >= full.Score {
		t.Errorf("removing release should lower score: %.2f >= %.2f", partial.Score, full.Score)
	}
}

func TestValidateDetectsCycle(t *testing.T) {
	c := New(nil)

	def := &models.WorkflowDefinition{
		WorkflowID: "wf-cycle",
		Phases: []models.WorkflowPhase{
			{PhaseID: "a", Context: models.ContextImplementation, Name: "A", TimeoutSeconds: 60},
			{PhaseID: "b", Context: models.ContextVerification, Name: "B", TimeoutSeconds: 60},
		},
		Dependencies: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		},
	}

	result := c.Validate(def)
	if result.Passed {
		t.Error("expected cyclic workflow to fail validation")
	}
	var mentioned bool
	for _, msg := range result.Messages {
		if msg == "dependency graph contains a cycle" {
			mentioned = true
		}
	}
	if !mentioned {
		t.Errorf("expected cycle message, got %v", result.Messages)
	}
}

func TestValidateUnknownContext(t *testing.T) {
	c := New(nil)

	def := &models.WorkflowDefinition{
		WorkflowID: "wf-bad-ctx",
		Phases: []models.WorkflowPhase{
			{PhaseID: "a", Context: models.Context("nonsense"), Name: "A", TimeoutSeconds: 60},
		},
		Dependencies: map[string][]string{},
	}

	result := c.Validate(def)
	if len(result.Messages) == 0 {
		t.Error("expected a validation message for unknown context")
	}
	if result.Score >= 1.0 {
		t.Errorf("expected score below 1.0, got %.2f", result.Score)
	}
}

func TestRepairAddsReleaseAndVerification(t *testing.T) {
	c := New(nil)
	analysis := testAnalysis(nil, models.ComplexityMedium)

	def := &models.WorkflowDefinition{
		WorkflowID: "wf-repair",
		Phases: []models.WorkflowPhase{
			synthesizePhase(models.ContextRequirements, models.ComplexityMedium),
			synthesizePhase(models.ContextDesign, models.ComplexityMedium),
			synthesizePhase(models.ContextImplementation, models.ComplexityMedium),
		},
		Dependencies: map[string][]string{},
		Metadata:     map[string]string{},
	}

	c.repair(def, analysis)
	c.buildDependencies(def)
	c.Optimize(def)

	if phaseIndexByContext(def, models.ContextVerification) < 0 {
		t.Error("repair should add a verification phase")
	}
	if phaseIndexByContext(def, models.ContextRelease) < 0 {
		t.Error("repair should add a release phase")
	}

	result := c.Validate(def)
	if !result.Passed {
		t.Errorf("expected repaired workflow to pass, got %.2f: %v", result.Score, result.Messages)
	}
}
