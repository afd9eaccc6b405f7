package analyzer

import (
	"strings"

	"github.com/sbraddock/stagehand/pkg/models"
)

// Complexity score thresholds. Scores below simpleThreshold map to simple,
// below complexThreshold to medium, and everything above to complex. These
// are tuned defaults, not exact science.
const (
	simpleThreshold  = 1.0
	complexThreshold = 2.0
)

// entityComplexityWeights is how much each entity type adds to the
// complexity score. Architectural and cross-cutting concerns weigh more
// than contained changes.
var entityComplexityWeights = map[models.EntityType]float64{
	models.EntityFeature:      0.2,
	models.EntityBug:          0.1,
	models.EntityComponent:    0.3,
	models.EntityAPI:          0.3,
	models.EntityDatabase:     0.3,
	models.EntityUI:           0.2,
	models.EntitySecurity:     0.5,
	models.EntityPerformance:  0.4,
	models.EntityPrerequisite: 0.1,
}

// assessComplexity scores the task from its entities, complexity-indicator
// phrases, description length, and environment hints, then maps the score
// to a complexity level.
func (a *Analyzer) assessComplexity(text string, entities []models.Entity, env map[string]string) models.Complexity {
	score := 0.5

	for _, e := range entities {
		score += entityComplexityWeights[e.Type]
	}

	for _, phrase := range complexityIndicators {
		if strings.Contains(text, phrase) {
			score += 0.4
		}
	}

	words := len(strings.Fields(text))
	switch {
	case words > 100:
		score += 0.5
	case words > 50:
		score += 0.25
	}

	score += environmentAdjustment(env)

	switch {
	case score < simpleThreshold:
		return models.ComplexitySimple
	case score < complexThreshold:
		return models.ComplexityMedium
	default:
		return models.ComplexityComplex
	}
}

// environmentAdjustment shifts the complexity score based on optional
// environment hints about the project and team.
func environmentAdjustment(env map[string]string) float64 {
	var adj float64

	switch strings.ToLower(env["project_size"]) {
	case "large", "enterprise":
		adj += 0.5
	case "small":
		adj -= 0.25
	}

	switch strings.ToLower(env["team_experience"]) {
	case "junior", "new":
		adj += 0.25
	case "senior", "expert":
		adj -= 0.25
	}

	return adj
}
