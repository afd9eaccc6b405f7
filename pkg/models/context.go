package models

// Context is a named capability domain that workflow phases are tagged with.
// The set of contexts is closed: validation rejects anything outside it.
type Context string

const (
	// ContextRequirements covers requirements gathering and analysis.
	ContextRequirements Context = "requirements"
	// ContextDesign covers architecture and design work.
	ContextDesign Context = "design"
	// ContextImplementation covers writing the actual code.
	ContextImplementation Context = "implementation"
	// ContextVerification covers testing and quality verification.
	ContextVerification Context = "verification"
	// ContextDebugging covers diagnosing and fixing defects.
	ContextDebugging Context = "debugging"
	// ContextDocumentation covers writing and updating documentation.
	ContextDocumentation Context = "documentation"
	// ContextSecurity covers security review and hardening.
	ContextSecurity Context = "security"
	// ContextOptimization covers performance tuning.
	ContextOptimization Context = "optimization"
	// ContextRelease covers deployment and release activities.
	ContextRelease Context = "release"
)

// AllContexts returns every valid context in a stable order.
func AllContexts() []Context {
	return []Context{
		ContextRequirements,
		ContextDesign,
		ContextImplementation,
		ContextVerification,
		ContextDebugging,
		ContextDocumentation,
		ContextSecurity,
		ContextOptimization,
		ContextRelease,
	}
}

// Valid returns true if the context is a known value.
func (c Context) Valid() bool {
	switch c {
	case ContextRequirements, ContextDesign, ContextImplementation,
		ContextVerification, ContextDebugging, ContextDocumentation,
		ContextSecurity, ContextOptimization, ContextRelease:
		return true
	default:
		return false
	}
}

// String returns the context name.
func (c Context) String() string {
	return string(c)
}
