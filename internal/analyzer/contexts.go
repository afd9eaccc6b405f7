package analyzer

import (
	"github.com/sbraddock/stagehand/pkg/models"
)

// Duration estimate constants, all in minutes.
const (
	durationGranularity = 5
	minDuration         = 5
	perContextMinutes   = 15
	perEntityMinutes    = 10
	highEntityMinutes   = 20
)

// complexityBaseMinutes is the starting duration estimate per complexity
// level.
var complexityBaseMinutes = map[models.Complexity]int{
	models.ComplexitySimple:  30,
	models.ComplexityMedium:  60,
	models.ComplexityComplex: 120,
}

// identifyContexts determines which capability contexts the task needs.
// The result is the union of pattern-detected contexts, entity-implied
// contexts, and complexity-driven additions, emitted in canonical context
// order so identical input always produces identical output.
func (a *Analyzer) identifyContexts(text string, entities []models.Entity, complexity models.Complexity) []models.Context {
	required := make(map[models.Context]bool)

	for ctx, patterns := range a.contextPatterns {
		for _, p := range patterns {
			if p.MatchString(text) {
				required[ctx] = true
				break
			}
		}
	}

	for _, e := range entities {
		for _, ctx := range entityTypeContexts[e.Type] {
			required[ctx] = true
		}
	}

	// Complex tasks always get design, security review, and verification.
	if complexity == models.ComplexityComplex {
		required[models.ContextDesign] = true
		required[models.ContextSecurity] = true
		required[models.ContextVerification] = true
	}

	// Never return an empty context set.
	if len(required) == 0 {
		required[models.ContextImplementation] = true
	}

	// Everything except a documentation-only task ends with a release.
	if !(len(required) == 1 && required[models.ContextDocumentation]) {
		required[models.ContextRelease] = true
	}

	var contexts []models.Context
	for _, ctx := range models.AllContexts() {
		if required[ctx] {
			contexts = append(contexts, ctx)
		}
	}
	return contexts
}

// estimateDuration computes the effort estimate in minutes: a base per
// complexity level, an increment per required context, and an increment
// per entity with extra weight for high-complexity entity types. The
// result is rounded to the nearest 5 minutes with a floor of 5.
func (a *Analyzer) estimateDuration(complexity models.Complexity, contexts []models.Context, entities []models.Entity) int {
	minutes := complexityBaseMinutes[complexity]
	minutes += perContextMinutes * len(contexts)

	for _, e := range entities {
		if highComplexityEntityTypes[e.Type] {
			minutes += highEntityMinutes
		} else {
			minutes += perEntityMinutes
		}
	}

	// Round to the nearest granularity step.
	minutes = ((minutes + durationGranularity/2) / durationGranularity) * durationGranularity
	if minutes < minDuration {
		minutes = minDuration
	}
	return minutes
}
