package composer

import (
	"sort"
	"strings"

	"github.com/sbraddock/stagehand/pkg/models"
)

// Template score component weights. Context coverage dominates; the
// historical success rate only nudges ties.
const (
	weightContextOverlap = 0.4
	weightCategoryMatch  = 0.3
	weightPhaseCountFit  = 0.2
	weightSuccessRate    = 0.1
)

// idealPhaseCount is the expected phase count per complexity level, used
// to score how well a template's size fits the task.
var idealPhaseCount = map[models.Complexity]int{
	models.ComplexitySimple:  3,
	models.ComplexityMedium:  5,
	models.ComplexityComplex: 7,
}

// entityTypeCategories maps dominant entity types to template categories.
var entityTypeCategories = map[models.EntityType]string{
	models.EntityBug:         "bugfix",
	models.EntityFeature:     "feature",
	models.EntitySecurity:    "security",
	models.EntityPerformance: "optimization",
	models.EntityAPI:         "feature",
	models.EntityDatabase:    "feature",
	models.EntityUI:          "feature",
	models.EntityComponent:   "feature",
}

// bestTemplate scores every library template against the analysis and
// returns the highest scorer. Returns (nil, 0) when no library is
// configured or the library is empty.
func (c *Composer) bestTemplate(analysis *models.TaskAnalysis) (*models.WorkflowTemplate, float64) {
	if c.library == nil {
		return nil, 0
	}

	var best *models.WorkflowTemplate
	var bestScore float64
	for _, tmpl := range c.library.Templates() {
		score := scoreTemplate(tmpl, analysis)
		if best == nil || score > bestScore {
			best = tmpl
			bestScore = score
		}
	}
	return best, bestScore
}

// scoreTemplate computes the weighted match score between a template and
// a task analysis.
func scoreTemplate(tmpl *models.WorkflowTemplate, analysis *models.TaskAnalysis) float64 {
	score := weightContextOverlap * contextOverlap(tmpl, analysis.RequiredContexts)
	score += weightCategoryMatch * categoryMatch(tmpl, analysis)
	score += weightPhaseCountFit * phaseCountFit(tmpl, analysis.Complexity)
	score += weightSuccessRate * tmpl.SuccessRate
	return score
}

// contextOverlap is the fraction of required contexts the template's
// phases cover.
func contextOverlap(tmpl *models.WorkflowTemplate, required []models.Context) float64 {
	if len(required) == 0 {
		return 0
	}
	covered := make(map[models.Context]bool)
	for _, ctx := range tmpl.Contexts() {
		covered[ctx] = true
	}
	var hits int
	for _, ctx := range required {
		if covered[ctx] {
			hits++
		}
	}
	return float64(hits) / float64(len(required))
}

// categoryMatch scores how well the template's category and tags fit the
// task's dominant entity type. An exact category match scores 1.0, a tag
// appearing in the description scores 0.5.
func categoryMatch(tmpl *models.WorkflowTemplate, analysis *models.TaskAnalysis) float64 {
	if cat := dominantCategory(analysis); cat != "" && strings.EqualFold(tmpl.Category, cat) {
		return 1.0
	}
	text := strings.ToLower(analysis.Description)
	for _, tag := range tmpl.Tags {
		if tag != "" && strings.Contains(text, strings.ToLower(tag)) {
			return 0.5
		}
	}
	return 0
}

// dominantCategory derives the template category implied by the task's
// highest-confidence categorizable entity.
func dominantCategory(analysis *models.TaskAnalysis) string {
	// Entities are sorted by confidence, so the first mapped type wins.
	for _, e := range analysis.Entities {
		if cat, ok := entityTypeCategories[e.Type]; ok {
			return cat
		}
	}
	return ""
}

// phaseCountFit scores how close the template's phase count is to the
// ideal count for the task's complexity.
func phaseCountFit(tmpl *models.WorkflowTemplate, complexity models.Complexity) float64 {
	ideal := idealPhaseCount[complexity]
	if ideal == 0 {
		ideal = idealPhaseCount[models.ComplexityMedium]
	}
	diff := len(tmpl.Phases) - ideal
	if diff < 0 {
		diff = -diff
	}
	fit := 1.0 - float64(diff)/float64(ideal)
	if fit < 0 {
		fit = 0
	}
	return fit
}

// customizeTemplate adapts a matched template's phases to the analysis:
// phases for contexts the task does not need are dropped (release and
// verification are kept as safety rails), phases for required contexts
// the template lacks are synthesized, and timeouts are rescaled for the
// task's complexity.
func (c *Composer) customizeTemplate(tmpl *models.WorkflowTemplate, analysis *models.TaskAnalysis) []models.WorkflowPhase {
	required := make(map[models.Context]bool, len(analysis.RequiredContexts))
	for _, ctx := range analysis.RequiredContexts {
		required[ctx] = true
	}

	scale := timeoutScale[analysis.Complexity]
	if scale == 0 {
		scale = 1.0
	}

	var phases []models.WorkflowPhase
	covered := make(map[models.Context]bool)
	for _, p := range tmpl.Phases {
		keep := required[p.Context] ||
			p.Context == models.ContextRelease ||
			p.Context == models.ContextVerification
		if !keep {
			continue
		}
		phase := p
		phase.Inputs = append([]string(nil), p.Inputs...)
		phase.Outputs = append([]string(nil), p.Outputs...)
		phase.QualityGates = append([]string(nil), p.QualityGates...)
		if phase.TimeoutSeconds <= 0 {
			phase.TimeoutSeconds = int(600 * scale)
		} else {
			phase.TimeoutSeconds = int(float64(phase.TimeoutSeconds) * scale)
		}
		covered[phase.Context] = true
		phases = append(phases, phase)
	}

	// Fill gaps the template leaves for required contexts.
	for _, ctx := range analysis.RequiredContexts {
		if !covered[ctx] {
			phases = append(phases, synthesizePhase(ctx, analysis.Complexity))
		}
	}

	sort.SliceStable(phases, func(i, j int) bool {
		return contextOrderRank[phases[i].Context] < contextOrderRank[phases[j].Context]
	})
	return phases
}
