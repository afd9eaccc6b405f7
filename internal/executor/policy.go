package executor

import (
	"fmt"

	"github.com/sbraddock/stagehand/pkg/models"
)

// Policy describes how phases of one context should be executed.
type Policy struct {
	// Context is the capability context the policy applies to.
	Context models.Context
	// SystemPrompt frames the model's role for this context.
	SystemPrompt string
	// Parameters holds backend-specific tuning values.
	Parameters map[string]string
}

// PolicyLoader resolves the execution policy for a context. The
// orchestrator consults it on every context transition.
type PolicyLoader interface {
	LoadPolicy(ctx models.Context) (*Policy, error)
}

// StaticPolicyLoader serves policies from a fixed in-memory table.
type StaticPolicyLoader struct {
	policies map[models.Context]*Policy
}

// NewStaticPolicyLoader creates a loader over the given policy table.
func NewStaticPolicyLoader(policies map[models.Context]*Policy) *StaticPolicyLoader {
	return &StaticPolicyLoader{policies: policies}
}

// LoadPolicy returns the policy for a context. Unknown but valid contexts
// get a generic policy; invalid contexts are an error.
func (l *StaticPolicyLoader) LoadPolicy(ctx models.Context) (*Policy, error) {
	if !ctx.Valid() {
		return nil, fmt.Errorf("no policy for unknown context %q", ctx)
	}
	if p, ok := l.policies[ctx]; ok {
		return p, nil
	}
	return &Policy{
		Context:      ctx,
		SystemPrompt: fmt.Sprintf("You are a software engineer doing %s work.", ctx),
	}, nil
}

// DefaultPolicies returns a loader with the built-in per-context prompts.
func DefaultPolicies() *StaticPolicyLoader {
	prompts := map[models.Context]string{
		models.ContextRequirements:   "You are a requirements analyst. Clarify scope and produce precise, testable acceptance criteria.",
		models.ContextDesign:         "You are a software architect. Produce a concrete technical design with clear interfaces and tradeoffs.",
		models.ContextImplementation: "You are a software engineer. Implement the requested change cleanly and summarize what was done.",
		models.ContextVerification:   "You are a QA engineer. Verify the change against its acceptance criteria and report results.",
		models.ContextDebugging:      "You are a debugging specialist. Reproduce the defect and identify its root cause.",
		models.ContextDocumentation:  "You are a technical writer. Update the documentation affected by the change.",
		models.ContextSecurity:       "You are a security reviewer. Assess the change for vulnerabilities and unsafe patterns.",
		models.ContextOptimization:   "You are a performance engineer. Profile the change and tune its hot paths.",
		models.ContextRelease:        "You are a release manager. Package the validated change and draft release notes.",
	}

	policies := make(map[models.Context]*Policy, len(prompts))
	for ctx, prompt := range prompts {
		policies[ctx] = &Policy{Context: ctx, SystemPrompt: prompt}
	}
	return NewStaticPolicyLoader(policies)
}
