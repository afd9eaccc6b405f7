package models

import "time"

// EntityType classifies an entity found in a task description.
type EntityType string

const (
	// EntityFeature is a new capability to build.
	EntityFeature EntityType = "feature"
	// EntityBug is a defect to fix.
	EntityBug EntityType = "bug"
	// EntityComponent is a named system component.
	EntityComponent EntityType = "component"
	// EntityAPI is an API or endpoint.
	EntityAPI EntityType = "api"
	// EntityDatabase is a database or storage concern.
	EntityDatabase EntityType = "database"
	// EntityUI is a user-interface concern.
	EntityUI EntityType = "ui"
	// EntitySecurity is a security concern.
	EntitySecurity EntityType = "security"
	// EntityPerformance is a performance concern.
	EntityPerformance EntityType = "performance"
	// EntityPrerequisite is something the task depends on.
	EntityPrerequisite EntityType = "prerequisite"
)

// Entity is a candidate concept extracted from free-text task input.
// Entities are immutable once created.
type Entity struct {
	// Name is the extracted noun phrase, lowercased.
	Name string `json:"name"`
	// Type classifies the entity.
	Type EntityType `json:"type"`
	// Confidence is how confident the extraction is (0.0-1.0).
	Confidence float64 `json:"confidence"`
	// Attributes holds extraction metadata such as occurrence count.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Complexity is the assessed difficulty level of a task.
type Complexity string

const (
	// ComplexitySimple indicates a small, contained task.
	ComplexitySimple Complexity = "simple"
	// ComplexityMedium indicates a moderately involved task.
	ComplexityMedium Complexity = "medium"
	// ComplexityComplex indicates a large or architecturally risky task.
	ComplexityComplex Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	default:
		return false
	}
}

// TaskAnalysis is the structured interpretation of a free-text task
// description. It is created once by the analyzer and never mutated.
type TaskAnalysis struct {
	// TaskID uniquely identifies this analysis.
	TaskID string `json:"task_id"`
	// Description is the original task text.
	Description string `json:"description"`
	// Entities are the extracted concepts, ordered by confidence.
	Entities []Entity `json:"entities"`
	// Complexity is the assessed difficulty level.
	Complexity Complexity `json:"complexity"`
	// RequiredContexts lists the contexts the task needs, in canonical
	// context order.
	RequiredContexts []Context `json:"required_contexts"`
	// EstimatedDuration is the estimated effort in minutes (always > 0).
	EstimatedDuration int `json:"estimated_duration"`
	// Dependencies are external things the task depends on.
	Dependencies []string `json:"dependencies,omitempty"`
	// SuccessCriteria are acceptance criteria derived from the entities.
	SuccessCriteria []string `json:"success_criteria"`
	// Confidence is the overall analysis confidence (0.0-1.0).
	Confidence float64 `json:"confidence"`
	// CreatedAt is when the analysis was produced.
	CreatedAt time.Time `json:"created_at"`
}

// HasContext returns true if the analysis requires the given context.
func (a *TaskAnalysis) HasContext(c Context) bool {
	for _, rc := range a.RequiredContexts {
		if rc == c {
			return true
		}
	}
	return false
}
