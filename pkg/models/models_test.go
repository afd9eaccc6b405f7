package models

import "testing"

func TestContextValid(t *testing.T) {
	for _, c := range AllContexts() {
		if !c.Valid() {
			t.Errorf("expected context %q to be valid", c)
		}
	}

	if Context("deployment").Valid() {
		t.Error("expected unknown context to be invalid")
	}
	if Context("").Valid() {
		t.Error("expected empty context to be invalid")
	}
}

func TestComplexityValid(t *testing.T) {
	valid := []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("expected complexity %q to be valid", c)
		}
	}
	if Complexity("trivial").Valid() {
		t.Error("expected unknown complexity to be invalid")
	}
}

func TestPhaseStatusTerminal(t *testing.T) {
	terminal := []PhaseStatus{PhaseCompleted, PhaseFailed, PhaseSkipped}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected status %q to be terminal", s)
		}
	}
	nonTerminal := []PhaseStatus{PhasePending, PhaseRunning}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected status %q to be non-terminal", s)
		}
	}
}

func TestNewWorkflowState(t *testing.T) {
	def := &WorkflowDefinition{
		WorkflowID: "wf-1",
		Phases: []WorkflowPhase{
			{PhaseID: "phase-1", Context: ContextImplementation},
			{PhaseID: "phase-2", Context: ContextVerification},
		},
	}

	st := NewWorkflowState(def)

	if st.WorkflowID != "wf-1" {
		t.Errorf("expected workflow ID wf-1, got %s", st.WorkflowID)
	}
	if st.Status != WorkflowPending {
		t.Errorf("expected pending status, got %s", st.Status)
	}
	for _, p := range def.Phases {
		if st.PhaseStatus[p.PhaseID] != PhasePending {
			t.Errorf("expected phase %s pending, got %s", p.PhaseID, st.PhaseStatus[p.PhaseID])
		}
	}
}

func TestWorkflowDefinitionPhase(t *testing.T) {
	def := &WorkflowDefinition{
		Phases: []WorkflowPhase{
			{PhaseID: "a", Name: "Phase A"},
			{PhaseID: "b", Name: "Phase B"},
		},
	}

	if p := def.Phase("b"); p == nil || p.Name != "Phase B" {
		t.Errorf("expected to find phase b, got %+v", p)
	}
	if p := def.Phase("missing"); p != nil {
		t.Errorf("expected nil for missing phase, got %+v", p)
	}
}

func TestTemplateContexts(t *testing.T) {
	tmpl := &WorkflowTemplate{
		Phases: []WorkflowPhase{
			{PhaseID: "a", Context: ContextDesign},
			{PhaseID: "b", Context: ContextImplementation},
			{PhaseID: "c", Context: ContextImplementation},
		},
	}

	contexts := tmpl.Contexts()
	if len(contexts) != 2 {
		t.Fatalf("expected 2 distinct contexts, got %d", len(contexts))
	}
	if contexts[0] != ContextDesign || contexts[1] != ContextImplementation {
		t.Errorf("unexpected context order: %v", contexts)
	}
}

func TestRecoveryActionTypeValid(t *testing.T) {
	valid := []RecoveryActionType{RecoveryRetry, RecoverySkip, RecoveryRollback, RecoveryEscalate, RecoveryAbort}
	for _, a := range valid {
		if !a.Valid() {
			t.Errorf("expected action %q to be valid", a)
		}
	}
	if RecoveryActionType("pause").Valid() {
		t.Error("expected unknown action to be invalid")
	}
}
