package composer

import (
	"log"
	"sort"

	"github.com/sbraddock/stagehand/internal/graph"
	"github.com/sbraddock/stagehand/pkg/models"
)

// Optimize reorders the definition's phases by context priority, assigns
// parallel groups to independent parallel-safe phases, and finalizes the
// order topologically so every phase appears after its dependencies. The
// pass is deterministic for a given definition.
func (c *Composer) Optimize(def *models.WorkflowDefinition) {
	if len(def.Phases) == 0 {
		return
	}

	sort.SliceStable(def.Phases, func(i, j int) bool {
		ri, rj := contextOrderRank[def.Phases[i].Context], contextOrderRank[def.Phases[j].Context]
		if ri != rj {
			return ri < rj
		}
		return def.Phases[i].PhaseID < def.Phases[j].PhaseID
	})

	c.assignParallelGroups(def)

	g, err := graph.Build(def)
	if err != nil {
		// Leave the priority order in place; validation reports the defect.
		log.Printf("[composer] skipping topological ordering for %s: %v", def.WorkflowID, err)
		return
	}

	orderIndex := make(map[string]int, len(def.Phases))
	for i, id := range g.TopologicalSort() {
		orderIndex[id] = i
	}
	sort.SliceStable(def.Phases, func(i, j int) bool {
		return orderIndex[def.Phases[i].PhaseID] < orderIndex[def.Phases[j].PhaseID]
	})
}

// assignParallelGroups tags phases in parallel-safe contexts with a
// shared group when no dependency edge connects them to each other.
func (c *Composer) assignParallelGroups(def *models.WorkflowDefinition) {
	var candidates []int
	for i := range def.Phases {
		if parallelSafeContexts[def.Phases[i].Context] {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < 2 {
		return
	}

	// Only phases independent of every other candidate join the group.
	var eligible []int
	for _, i := range candidates {
		independent := true
		for _, j := range candidates {
			if i != j && c.phasesLinked(def, def.Phases[i].PhaseID, def.Phases[j].PhaseID) {
				independent = false
				break
			}
		}
		if independent {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) < 2 {
		return
	}

	for _, i := range eligible {
		def.Phases[i].ParallelGroup = "parallel-1"
	}
}

// phasesLinked reports whether a direct dependency edge exists between
// two phases in either direction.
func (c *Composer) phasesLinked(def *models.WorkflowDefinition, a, b string) bool {
	for _, dep := range def.Dependencies[a] {
		if dep == b {
			return true
		}
	}
	for _, dep := range def.Dependencies[b] {
		if dep == a {
			return true
		}
	}
	return false
}
