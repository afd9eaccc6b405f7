package analyzer

import (
	"regexp"

	"github.com/sbraddock/stagehand/pkg/models"
)

// entityPatternSpecs maps each entity type to the regex patterns that
// detect it. Patterns with a capture group yield the group as the entity
// name; patterns without one yield the whole match.
var entityPatternSpecs = map[models.EntityType][]string{
	models.EntityFeature: {
		`\b(?:implement|add|create|build|develop)\s+(?:a\s+|an\s+|the\s+|new\s+)*([a-z][a-z0-9_ -]{2,40}?)(?:\s+feature)?\b`,
		`\bfeature[:\s]+([a-z][a-z0-9_ -]{2,40})`,
		`\bsupport\s+for\s+([a-z][a-z0-9_ -]{2,40})`,
	},
	models.EntityBug: {
		`\bfix(?:ing)?\s+(?:the\s+|a\s+)?(?:critical\s+|urgent\s+)?([a-z][a-z0-9_ -]{2,40}?)\s*(?:bug|issue|error|crash|failure)`,
		`\b(?:bug|defect|crash|regression)\s+in\s+(?:the\s+)?([a-z][a-z0-9_ -]{2,40})`,
		`\b([a-z][a-z0-9_ -]{2,40}?)\s+(?:is\s+)?(?:broken|failing|not\s+working)`,
	},
	models.EntityComponent: {
		`\b([a-z][a-z0-9_-]{2,30})\s+(?:service|module|component|system|engine|layer|pipeline)\b`,
	},
	models.EntityAPI: {
		`\b(?:api|endpoint|route)s?\s+for\s+([a-z][a-z0-9_ /-]{2,40})`,
		`\b([a-z][a-z0-9_-]{2,30})\s+(?:api|endpoint)s?\b`,
		`\b(rest|graphql|grpc|webhook)s?\b`,
	},
	models.EntityDatabase: {
		`\b(database|schema|migration|index|query|table)s?\b`,
		`\b(postgres|postgresql|mysql|sqlite|mongodb|redis|dynamodb)\b`,
	},
	models.EntityUI: {
		`\b(ui|frontend|page|screen|dashboard|form|button|modal|view|widget)s?\b`,
	},
	models.EntitySecurity: {
		`\b(auth|authentication|authorization|login|logout|password|permission|token|session)s?\b`,
		`\b(encryption|vulnerability|injection|xss|csrf|tls|oauth)\b`,
	},
	models.EntityPerformance: {
		`\b(performance|latency|throughput|caching|cache|bottleneck|scalability)\b`,
		`\b(slow|optimize|optimise|profiling)\b`,
	},
	models.EntityPrerequisite: {
		`\bdepends\s+on\s+(?:the\s+)?([a-z][a-z0-9_ -]{1,40})`,
		`\brequires?\s+(?:the\s+|a\s+)?([a-z][a-z0-9_ -]{1,40})`,
		`\bblocked\s+by\s+(?:the\s+)?([a-z][a-z0-9_ -]{1,40})`,
		`\bafter\s+([a-z][a-z0-9_ -]{1,40}?)\s+(?:is\s+)?(?:done|complete|completed|merged|ready)`,
	},
}

// entityContextWords maps each entity type to nearby-context words that
// raise extraction confidence when present in the description.
var entityContextWords = map[models.EntityType][]string{
	models.EntityFeature:      {"feature", "functionality", "capability", "user"},
	models.EntityBug:          {"bug", "error", "crash", "broken", "reproduce", "fails"},
	models.EntityComponent:    {"component", "service", "module", "architecture"},
	models.EntityAPI:          {"api", "endpoint", "request", "response", "client"},
	models.EntityDatabase:     {"database", "storage", "query", "record", "persist"},
	models.EntityUI:           {"ui", "interface", "user", "display", "render"},
	models.EntitySecurity:     {"security", "secure", "attack", "credential", "access"},
	models.EntityPerformance:  {"performance", "fast", "slow", "load", "scale"},
	models.EntityPrerequisite: {"depends", "requires", "blocked", "prerequisite", "first"},
}

// contextPatternSpecs maps each capability context to the patterns that
// signal the task needs it.
var contextPatternSpecs = map[models.Context][]string{
	models.ContextRequirements: {
		`\b(requirements?|specification|user\s+stor(?:y|ies)|acceptance\s+criteria|clarify|scope)\b`,
	},
	models.ContextDesign: {
		`\b(design|architecture|architect|restructure|data\s+model|schema|blueprint)\b`,
	},
	models.ContextImplementation: {
		`\b(implement|build|create|add|develop|write|code|integrate)\b`,
	},
	models.ContextVerification: {
		`\b(test(?:s|ing)?|verify|verification|validate|validation|qa|coverage)\b`,
	},
	models.ContextDebugging: {
		`\b(debug|fix|bug|issue|error|crash|broken|regression|diagnose|troubleshoot)\b`,
	},
	models.ContextDocumentation: {
		`\b(document(?:ation)?|docs|readme|changelog|guide|tutorial)\b`,
	},
	models.ContextSecurity: {
		`\b(security|secure|auth\w*|vulnerab\w*|encrypt\w*|permission|audit)\b`,
	},
	models.ContextOptimization: {
		`\b(optimi[sz]e|optimi[sz]ation|performance|latency|slow|speed\s+up|profil\w*)\b`,
	},
	models.ContextRelease: {
		`\b(release|deploy(?:ment)?|ship|rollout|publish|launch)\b`,
	},
}

// entityTypeContexts maps each entity type to the contexts it implies.
// Bugs imply implementation because fixing one always changes code.
var entityTypeContexts = map[models.EntityType][]models.Context{
	models.EntityFeature:      {models.ContextImplementation, models.ContextVerification},
	models.EntityBug:          {models.ContextDebugging, models.ContextImplementation, models.ContextVerification},
	models.EntityComponent:    {models.ContextDesign, models.ContextImplementation},
	models.EntityAPI:          {models.ContextDesign, models.ContextImplementation},
	models.EntityDatabase:     {models.ContextDesign, models.ContextImplementation},
	models.EntityUI:           {models.ContextImplementation},
	models.EntitySecurity:     {models.ContextSecurity, models.ContextVerification},
	models.EntityPerformance:  {models.ContextOptimization, models.ContextVerification},
	models.EntityPrerequisite: {models.ContextRequirements},
}

// complexityIndicators are phrases that raise the complexity score when
// they appear in the description.
var complexityIndicators = []string{
	"distributed",
	"enterprise",
	"microservice",
	"scalable",
	"real-time",
	"migration",
	"refactor",
	"integration",
	"multi-tenant",
	"high availability",
	"concurrent",
	"backwards compatible",
}

// highComplexityEntityTypes contribute extra weight to complexity scoring
// and duration estimates.
var highComplexityEntityTypes = map[models.EntityType]bool{
	models.EntityComponent:   true,
	models.EntitySecurity:    true,
	models.EntityPerformance: true,
}

// successCriteriaTemplates maps entity types to acceptance-criteria
// templates. %s is replaced with the entity name.
var successCriteriaTemplates = map[models.EntityType]string{
	models.EntityFeature:     "%s is implemented and passes its acceptance tests",
	models.EntityBug:         "%s no longer reproduces and a regression test covers it",
	models.EntitySecurity:    "%s passes security review with no high-severity findings",
	models.EntityAPI:         "%s responds correctly for all documented request shapes",
	models.EntityPerformance: "%s meets its latency and throughput targets",
}

// genericSuccessCriteria are used when no entity-specific criteria apply.
var genericSuccessCriteria = []string{
	"All workflow phases complete without errors",
	"All declared quality gates pass",
}

// compilePatterns compiles a slice of pattern strings into regexps.
// Patterns that fail to compile are dropped rather than aborting startup.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if r, err := regexp.Compile(`(?i)` + p); err == nil {
			compiled = append(compiled, r)
		}
	}
	return compiled
}
