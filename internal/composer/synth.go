package composer

import (
	"fmt"

	"github.com/sbraddock/stagehand/pkg/models"
)

// phaseSpec is the fixed per-context template used when synthesizing
// phases directly from a task analysis.
type phaseSpec struct {
	Name               string
	Description        string
	Inputs             []string
	Outputs            []string
	QualityGates       []string
	BaseTimeoutSeconds int
	RetryCount         int
}

// contextPhaseSpecs is the synthesis table: one phase blueprint per
// capability context.
var contextPhaseSpecs = map[models.Context]phaseSpec{
	models.ContextRequirements: {
		Name:               "Requirements Analysis",
		Description:        "Clarify scope, constraints and acceptance criteria",
		Inputs:             []string{"task_description"},
		Outputs:            []string{"requirements_doc"},
		QualityGates:       []string{"requirements_reviewed"},
		BaseTimeoutSeconds: 300,
		RetryCount:         1,
	},
	models.ContextDesign: {
		Name:               "Design",
		Description:        "Produce the technical design for the change",
		Inputs:             []string{"requirements_doc"},
		Outputs:            []string{"design_doc"},
		QualityGates:       []string{"design_reviewed"},
		BaseTimeoutSeconds: 600,
		RetryCount:         1,
	},
	models.ContextImplementation: {
		Name:               "Implementation",
		Description:        "Implement the change described by the task",
		Inputs:             []string{"design_doc"},
		Outputs:            []string{"implementation_summary"},
		QualityGates:       []string{"build_passes"},
		BaseTimeoutSeconds: 1800,
		RetryCount:         2,
	},
	models.ContextVerification: {
		Name:               "Verification",
		Description:        "Run tests and verify the change against its criteria",
		Inputs:             []string{"implementation_summary"},
		Outputs:            []string{"test_report"},
		QualityGates:       []string{"tests_pass"},
		BaseTimeoutSeconds: 900,
		RetryCount:         2,
	},
	models.ContextDebugging: {
		Name:               "Debugging",
		Description:        "Reproduce the defect and identify its root cause",
		Inputs:             []string{"task_description"},
		Outputs:            []string{"root_cause"},
		QualityGates:       []string{"defect_reproduced"},
		BaseTimeoutSeconds: 900,
		RetryCount:         2,
	},
	models.ContextDocumentation: {
		Name:               "Documentation",
		Description:        "Update documentation affected by the change",
		Inputs:             []string{"implementation_summary"},
		Outputs:            []string{"docs_updated"},
		QualityGates:       []string{"docs_reviewed"},
		BaseTimeoutSeconds: 600,
		RetryCount:         1,
	},
	models.ContextSecurity: {
		Name:               "Security Review",
		Description:        "Review the change for security impact",
		Inputs:             []string{"implementation_summary"},
		Outputs:            []string{"security_report"},
		QualityGates:       []string{"no_high_severity_findings"},
		BaseTimeoutSeconds: 900,
		RetryCount:         1,
	},
	models.ContextOptimization: {
		Name:               "Optimization",
		Description:        "Profile and tune performance-sensitive paths",
		Inputs:             []string{"implementation_summary"},
		Outputs:            []string{"performance_report"},
		QualityGates:       []string{"no_regressions"},
		BaseTimeoutSeconds: 900,
		RetryCount:         1,
	},
	models.ContextRelease: {
		Name:               "Release",
		Description:        "Package and release the validated change",
		Inputs:             []string{"test_report"},
		Outputs:            []string{"release_notes"},
		QualityGates:       []string{"release_approved"},
		BaseTimeoutSeconds: 600,
		RetryCount:         1,
	},
}

// contextPredecessors is the fixed ordering table: the contexts whose
// phases must complete before a phase of the keyed context may start. It
// is applied across all phases sharing those contexts.
var contextPredecessors = map[models.Context][]models.Context{
	models.ContextDesign:         {models.ContextRequirements},
	models.ContextImplementation: {models.ContextDesign, models.ContextDebugging, models.ContextRequirements},
	models.ContextVerification:   {models.ContextImplementation},
	models.ContextDocumentation:  {models.ContextImplementation},
	models.ContextSecurity:       {models.ContextImplementation},
	models.ContextOptimization:   {models.ContextImplementation},
	models.ContextRelease: {
		models.ContextVerification,
		models.ContextSecurity,
		models.ContextOptimization,
		models.ContextDocumentation,
		models.ContextImplementation,
	},
}

// contextOrderRank encodes the priority ordering rules: requirements and
// design lead, implementation precedes verification, release comes last.
var contextOrderRank = map[models.Context]int{
	models.ContextRequirements:   0,
	models.ContextDesign:         1,
	models.ContextDebugging:      2,
	models.ContextImplementation: 3,
	models.ContextVerification:   4,
	models.ContextSecurity:       5,
	models.ContextOptimization:   6,
	models.ContextDocumentation:  7,
	models.ContextRelease:        8,
}

// parallelSafeContexts may share a parallel group when no dependency edge
// connects their phases.
var parallelSafeContexts = map[models.Context]bool{
	models.ContextDocumentation: true,
	models.ContextSecurity:      true,
	models.ContextOptimization:  true,
}

// timeoutScale multiplies base phase timeouts per complexity level.
var timeoutScale = map[models.Complexity]float64{
	models.ComplexitySimple:  1.0,
	models.ComplexityMedium:  1.5,
	models.ComplexityComplex: 2.0,
}

// synthesizePhase builds a phase for the given context from the synthesis
// table, scaling its timeout by task complexity.
func synthesizePhase(ctx models.Context, complexity models.Complexity) models.WorkflowPhase {
	spec, ok := contextPhaseSpecs[ctx]
	if !ok {
		// Unknown contexts still get a minimal phase; validation flags them.
		spec = phaseSpec{
			Name:               string(ctx),
			Description:        fmt.Sprintf("Execute %s work", ctx),
			BaseTimeoutSeconds: 600,
			RetryCount:         1,
		}
	}

	scale := timeoutScale[complexity]
	if scale == 0 {
		scale = 1.0
	}

	return models.WorkflowPhase{
		PhaseID:        phaseIDFor(ctx),
		Context:        ctx,
		Name:           spec.Name,
		Description:    spec.Description,
		Inputs:         append([]string(nil), spec.Inputs...),
		Outputs:        append([]string(nil), spec.Outputs...),
		TimeoutSeconds: int(float64(spec.BaseTimeoutSeconds) * scale),
		RetryCount:     spec.RetryCount,
		QualityGates:   append([]string(nil), spec.QualityGates...),
	}
}

// phaseIDFor derives the canonical phase ID for a context.
func phaseIDFor(ctx models.Context) string {
	return "phase-" + string(ctx)
}

// synthesizePhases builds one phase per required context in analysis order.
func synthesizePhases(analysis *models.TaskAnalysis) []models.WorkflowPhase {
	phases := make([]models.WorkflowPhase, 0, len(analysis.RequiredContexts))
	for _, ctx := range analysis.RequiredContexts {
		phases = append(phases, synthesizePhase(ctx, analysis.Complexity))
	}
	return phases
}
