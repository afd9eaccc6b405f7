// Package graph provides the phase dependency graph used for workflow
// validation and scheduling.
package graph

import (
	"errors"
	"fmt"

	"github.com/sbraddock/stagehand/pkg/models"
)

// ErrCycleDetected indicates a circular dependency between phases.
var ErrCycleDetected = errors.New("circular dependency detected")

// PhaseGraph is a directed acyclic graph of workflow phases. Nodes are
// phase IDs and edges point from a phase to the phases it depends on.
// Unlike the execution state, the graph is built once from a definition
// and not mutated afterwards, so it needs no locking.
type PhaseGraph struct {
	// order preserves phase IDs in definition order for deterministic
	// traversal results.
	order []string
	nodes map[string]*models.WorkflowPhase
	edges map[string][]string
}

// Build constructs a phase graph from a workflow definition. It returns an
// error if a dependency references an unknown phase or a cycle exists.
func Build(def *models.WorkflowDefinition) (*PhaseGraph, error) {
	g := &PhaseGraph{
		nodes: make(map[string]*models.WorkflowPhase, len(def.Phases)),
		edges: make(map[string][]string, len(def.Phases)),
	}

	for i := range def.Phases {
		p := &def.Phases[i]
		g.order = append(g.order, p.PhaseID)
		g.nodes[p.PhaseID] = p
		g.edges[p.PhaseID] = nil
	}

	for phaseID, deps := range def.Dependencies {
		if _, ok := g.nodes[phaseID]; !ok {
			return nil, fmt.Errorf("dependency map references unknown phase %s", phaseID)
		}
		for _, depID := range deps {
			if _, ok := g.nodes[depID]; !ok {
				return nil, fmt.Errorf("phase %s depends on unknown phase %s", phaseID, depID)
			}
			g.edges[phaseID] = append(g.edges[phaseID], depID)
		}
	}

	if g.hasCycle() {
		return nil, ErrCycleDetected
	}

	return g, nil
}

// HasCycle reports whether the dependency edges contain a cycle. A graph
// returned by Build is always acyclic; this is exported for validating
// definitions that have not been built yet.
func HasCycle(def *models.WorkflowDefinition) bool {
	g := &PhaseGraph{
		nodes: make(map[string]*models.WorkflowPhase, len(def.Phases)),
		edges: make(map[string][]string, len(def.Phases)),
	}
	for i := range def.Phases {
		p := &def.Phases[i]
		g.order = append(g.order, p.PhaseID)
		g.nodes[p.PhaseID] = p
	}
	for phaseID, deps := range def.Dependencies {
		for _, depID := range deps {
			// Unknown references are a separate validation concern.
			if _, ok := g.nodes[depID]; ok {
				g.edges[phaseID] = append(g.edges[phaseID], depID)
			}
		}
	}
	return g.hasCycle()
}

// hasCycle runs a depth-first search with coloring to detect back edges.
func (g *PhaseGraph) hasCycle() bool {
	// 0 = unvisited, 1 = in progress, 2 = done.
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for _, id := range g.order {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// TopologicalSort returns phase IDs in an order where every dependency
// comes before the phases that depend on it. The result is deterministic:
// ties are broken by definition order.
func (g *PhaseGraph) TopologicalSort() []string {
	visited := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, depID := range g.edges[id] {
			visit(depID)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result
}

// Roots returns the IDs of phases with no dependencies, in definition order.
func (g *PhaseGraph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Reachable returns the set of phase IDs reachable from the roots by
// following dependency edges in reverse. Phases outside this set are
// disconnected from the graph.
func (g *PhaseGraph) Reachable() map[string]bool {
	// Invert edges so we can walk from dependencies to dependents.
	dependents := make(map[string][]string, len(g.nodes))
	for id, deps := range g.edges {
		for _, depID := range deps {
			dependents[depID] = append(dependents[depID], id)
		}
	}

	reached := make(map[string]bool, len(g.nodes))
	var visit func(id string)
	visit = func(id string) {
		if reached[id] {
			return
		}
		reached[id] = true
		for _, depID := range dependents[id] {
			visit(depID)
		}
	}

	for _, id := range g.Roots() {
		visit(id)
	}
	return reached
}

// Dependencies returns the IDs of phases the given phase depends on.
func (g *PhaseGraph) Dependencies(phaseID string) []string {
	return g.edges[phaseID]
}

// Dependents returns the IDs of phases that depend on the given phase.
func (g *PhaseGraph) Dependents(phaseID string) []string {
	var dependents []string
	for _, id := range g.order {
		for _, depID := range g.edges[id] {
			if depID == phaseID {
				dependents = append(dependents, id)
				break
			}
		}
	}
	return dependents
}

// Phase returns the phase for a given ID, or nil if not found.
func (g *PhaseGraph) Phase(phaseID string) *models.WorkflowPhase {
	return g.nodes[phaseID]
}

// Size returns the number of phases in the graph.
func (g *PhaseGraph) Size() int {
	return len(g.nodes)
}
