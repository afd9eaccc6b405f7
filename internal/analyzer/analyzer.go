// Package analyzer turns free-text task descriptions into structured task
// analyses: extracted entities, complexity, required contexts, duration and
// success criteria. All heuristics are pattern based and stateless, so the
// same input always yields the same analysis.
package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbraddock/stagehand/pkg/models"
)

// maxEntities caps how many extracted entities are kept per analysis.
const maxEntities = 20

// Analyzer extracts structured intent from task descriptions using fixed
// pattern libraries compiled once at construction.
type Analyzer struct {
	entityPatterns  map[models.EntityType][]*regexp.Regexp
	contextPatterns map[models.Context][]*regexp.Regexp
	spaceCollapse   *regexp.Regexp
}

// New creates an Analyzer with the default pattern libraries.
func New() *Analyzer {
	a := &Analyzer{
		entityPatterns:  make(map[models.EntityType][]*regexp.Regexp, len(entityPatternSpecs)),
		contextPatterns: make(map[models.Context][]*regexp.Regexp, len(contextPatternSpecs)),
		spaceCollapse:   regexp.MustCompile(`\s+`),
	}
	for typ, specs := range entityPatternSpecs {
		a.entityPatterns[typ] = compilePatterns(specs)
	}
	for ctx, specs := range contextPatternSpecs {
		a.contextPatterns[ctx] = compilePatterns(specs)
	}
	return a
}

// Analyze produces a TaskAnalysis for the given description. The optional
// env map carries environment hints such as "project_size" and
// "team_experience". Analyze never fails: empty or unparseable input yields
// a low-confidence, minimal analysis instead of an error.
func (a *Analyzer) Analyze(description string, env map[string]string) *models.TaskAnalysis {
	text := strings.ToLower(strings.TrimSpace(description))

	entities := a.extractEntities(text)
	complexity := a.assessComplexity(text, entities, env)
	contexts := a.identifyContexts(text, entities, complexity)
	duration := a.estimateDuration(complexity, contexts, entities)
	deps := a.extractDependencies(text, entities)
	criteria := a.buildSuccessCriteria(entities)
	confidence := a.computeConfidence(text, entities, contexts)

	return &models.TaskAnalysis{
		TaskID:            uuid.New().String()[:8],
		Description:       description,
		Entities:          entities,
		Complexity:        complexity,
		RequiredContexts:  contexts,
		EstimatedDuration: duration,
		Dependencies:      deps,
		SuccessCriteria:   criteria,
		Confidence:        confidence,
		CreatedAt:         time.Now(),
	}
}

// extractEntities runs every entity pattern over the text, scores each
// match, deduplicates by (name, type) and keeps the top matches by
// confidence.
func (a *Analyzer) extractEntities(text string) []models.Entity {
	type key struct {
		name string
		typ  models.EntityType
	}
	found := make(map[key]models.Entity)

	for typ, patterns := range a.entityPatterns {
		for _, p := range patterns {
			for _, m := range p.FindAllStringSubmatch(text, -1) {
				name := m[0]
				if len(m) > 1 && m[1] != "" {
					name = m[1]
				}
				name = a.normalizeName(name)
				if len(name) < 2 {
					continue
				}

				occurrences := strings.Count(text, name)
				if occurrences < 1 {
					occurrences = 1
				}

				conf := a.entityConfidence(name, typ, occurrences, text)
				k := key{name: name, typ: typ}
				if existing, ok := found[k]; !ok || conf > existing.Confidence {
					found[k] = models.Entity{
						Name:       name,
						Type:       typ,
						Confidence: conf,
						Attributes: map[string]string{
							"occurrences": strconv.Itoa(occurrences),
						},
					}
				}
			}
		}
	}

	entities := make([]models.Entity, 0, len(found))
	for _, e := range found {
		entities = append(entities, e)
	}

	// Sort by confidence with stable tie-breaking so repeated analysis of
	// the same text yields identical output.
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Confidence != entities[j].Confidence {
			return entities[i].Confidence > entities[j].Confidence
		}
		if entities[i].Name != entities[j].Name {
			return entities[i].Name < entities[j].Name
		}
		return entities[i].Type < entities[j].Type
	})

	if len(entities) > maxEntities {
		entities = entities[:maxEntities]
	}
	return entities
}

// normalizeName collapses whitespace and strips filler words from the
// edges of an extracted entity name.
func (a *Analyzer) normalizeName(name string) string {
	name = a.spaceCollapse.ReplaceAllString(strings.TrimSpace(name), " ")
	for _, filler := range []string{"the ", "a ", "an ", "new "} {
		name = strings.TrimPrefix(name, filler)
	}
	return strings.TrimSpace(name)
}

// entityConfidence scores an extracted entity from its name quality,
// repetition count, and presence of type-specific context words.
func (a *Analyzer) entityConfidence(name string, typ models.EntityType, occurrences int, text string) float64 {
	conf := 0.5

	// Name quality: very short or very long extractions are usually noise.
	if len(name) >= 3 && len(name) <= 30 {
		conf += 0.1
	}

	// Repetition: each extra mention adds a little, capped.
	repBonus := 0.05 * float64(occurrences-1)
	if repBonus > 0.2 {
		repBonus = 0.2
	}
	conf += repBonus

	// Type-specific context words elsewhere in the description.
	for _, word := range entityContextWords[typ] {
		if strings.Contains(text, word) {
			conf += 0.15
			break
		}
	}

	return clamp01(conf)
}

// extractDependencies collects explicit dependency phrases and the names
// of prerequisite-typed entities.
func (a *Analyzer) extractDependencies(text string, entities []models.Entity) []string {
	seen := make(map[string]bool)
	var deps []string

	add := func(dep string) {
		dep = a.normalizeName(dep)
		if dep != "" && !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	for _, p := range a.entityPatterns[models.EntityPrerequisite] {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if len(m) > 1 && m[1] != "" {
				add(m[1])
			}
		}
	}

	for _, e := range entities {
		if e.Type == models.EntityPrerequisite {
			add(e.Name)
		}
	}

	sort.Strings(deps)
	return deps
}

// buildSuccessCriteria generates acceptance criteria from entity-type
// templates, falling back to generic criteria when nothing matches.
func (a *Analyzer) buildSuccessCriteria(entities []models.Entity) []string {
	seen := make(map[string]bool)
	var criteria []string

	for _, e := range entities {
		tmpl, ok := successCriteriaTemplates[e.Type]
		if !ok {
			continue
		}
		c := fmt.Sprintf(tmpl, e.Name)
		if !seen[c] {
			seen[c] = true
			criteria = append(criteria, c)
		}
	}

	if len(criteria) == 0 {
		criteria = append(criteria, genericSuccessCriteria...)
	}
	return criteria
}

// computeConfidence scores the overall analysis. Short or empty input is
// penalized; strong entities and broad context coverage raise the score.
func (a *Analyzer) computeConfidence(text string, entities []models.Entity, contexts []models.Context) float64 {
	if text == "" {
		return 0.1
	}

	conf := 0.5
	if len(strings.Fields(text)) < 5 {
		conf -= 0.2
	}

	if len(entities) > 0 {
		var sum float64
		for _, e := range entities {
			sum += e.Confidence
		}
		conf += 0.3 * (sum / float64(len(entities)))
	}

	conf += 0.03 * float64(len(contexts))

	return clamp01(conf)
}

// clamp01 restricts a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
