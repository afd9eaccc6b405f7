package models

// WorkflowPhase is one unit of work within a workflow, bound to exactly
// one context.
type WorkflowPhase struct {
	// PhaseID uniquely identifies the phase within its workflow.
	PhaseID string `json:"phase_id" yaml:"phase_id"`
	// Context is the capability context the phase executes in.
	Context Context `json:"context" yaml:"context"`
	// Name is a short human-readable phase name.
	Name string `json:"name" yaml:"name"`
	// Description explains what the phase does.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Inputs names the input keys the phase expects.
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	// Outputs names the result keys the phase must produce.
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Condition optionally gates execution: a context data key that
	// must be present and truthy, or "key=value" requiring an exact
	// match. A phase whose condition is not met is skipped.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
	// TimeoutSeconds is the hard execution timeout (always > 0).
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
	// RetryCount is how many times a failed execution may be retried.
	RetryCount int `json:"retry_count" yaml:"retry_count"`
	// QualityGates names the acceptance checks associated with the phase.
	QualityGates []string `json:"quality_gates,omitempty" yaml:"quality_gates,omitempty"`
	// ParallelGroup tags phases that may execute concurrently.
	// Empty means the phase runs sequentially.
	ParallelGroup string `json:"parallel_group,omitempty" yaml:"parallel_group,omitempty"`
}

// WorkflowDefinition is the validated blueprint produced by the composer.
// The orchestrator treats it as read-only during execution.
type WorkflowDefinition struct {
	// WorkflowID uniquely identifies the workflow.
	WorkflowID string `json:"workflow_id" yaml:"workflow_id"`
	// Name is a short human-readable workflow name.
	Name string `json:"name" yaml:"name"`
	// Description explains what the workflow accomplishes.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Phases is the ordered, non-empty list of phases.
	Phases []WorkflowPhase `json:"phases" yaml:"phases"`
	// Dependencies maps phase ID to the IDs of phases it depends on.
	Dependencies map[string][]string `json:"dependencies" yaml:"dependencies"`
	// EstimatedDuration is the total estimated effort in minutes.
	EstimatedDuration int `json:"estimated_duration" yaml:"estimated_duration"`
	// QualityGates names workflow-level acceptance checks.
	QualityGates []string `json:"quality_gates,omitempty" yaml:"quality_gates,omitempty"`
	// Metadata holds composer annotations such as validation messages.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Phase returns the phase with the given ID, or nil if not found.
func (d *WorkflowDefinition) Phase(phaseID string) *WorkflowPhase {
	for i := range d.Phases {
		if d.Phases[i].PhaseID == phaseID {
			return &d.Phases[i]
		}
	}
	return nil
}

// PhaseIDs returns the IDs of all phases in definition order.
func (d *WorkflowDefinition) PhaseIDs() []string {
	ids := make([]string, 0, len(d.Phases))
	for _, p := range d.Phases {
		ids = append(ids, p.PhaseID)
	}
	return ids
}

// WorkflowTemplate is a reusable, pre-authored skeleton of phases matched
// against a task analysis.
type WorkflowTemplate struct {
	// TemplateID uniquely identifies the template.
	TemplateID string `json:"template_id" yaml:"template_id"`
	// Name is a short human-readable template name.
	Name string `json:"name" yaml:"name"`
	// Category groups templates by the kind of work they describe
	// (e.g. "feature", "bugfix", "security").
	Category string `json:"category" yaml:"category"`
	// Phases is the pre-authored phase skeleton.
	Phases []WorkflowPhase `json:"phases" yaml:"phases"`
	// Parameters holds template-level defaults.
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Tags are free-form labels used during matching.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	// SuccessRate is the historical fraction of successful runs (0.0-1.0).
	SuccessRate float64 `json:"success_rate,omitempty" yaml:"success_rate,omitempty"`
}

// Contexts returns the distinct contexts used by the template's phases.
func (t *WorkflowTemplate) Contexts() []Context {
	seen := make(map[Context]bool)
	var out []Context
	for _, p := range t.Phases {
		if !seen[p.Context] {
			seen[p.Context] = true
			out = append(out, p.Context)
		}
	}
	return out
}

// ValidationResult is the outcome of validating a workflow definition.
type ValidationResult struct {
	// Passed is true when the score meets the acceptance threshold.
	Passed bool `json:"passed"`
	// Score is the validation quality score (0.0-1.0).
	Score float64 `json:"score"`
	// Messages describes each violation found.
	Messages []string `json:"messages,omitempty"`
}
