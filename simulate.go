package workflow

import (
	"fmt"
	"slices"
	"strings"
)

// Step is one wavefront of the dry run: nodes whose predecessors have all
// completed in earlier steps.
type Step struct {
	StepIndex int      `json:"stepIndex"`
	NodeIDs   []string `json:"nodeIds"`
}

// Simulation is the execution schedule of an acyclic graph. Order is the
// concatenation of all steps.
type Simulation struct {
	Steps              []Step   `json:"steps"`
	Order              []string `json:"order"`
	UnreachableNodeIDs []string `json:"unreachableNodeIds"`
}

// CycleError is returned by Simulate when the graph is not acyclic.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s (%d found)", ErrCycleDetected.Error(), len(e.Cycles))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// Simulate computes a level-by-level execution order starting from trigger
// nodes. No node action is performed. A graph with a cycle yields a
// *CycleError; orphans do not block simulation.
func Simulate(nodes []Node, edges []Edge) (*Simulation, error) {
	g := newGraph(nodes, edges)
	if len(g.ids) == 0 {
		return newSimulation(), nil
	}

	if cycles := g.cycles(); len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}

	sim := g.schedule()
	if len(sim.UnreachableNodeIDs) > 0 {
		// Cannot happen on an acyclic graph; surfaced instead of dropping nodes.
		return sim, fmt.Errorf("%w: %s", ErrScheduleStalled, strings.Join(sim.UnreachableNodeIDs, ", "))
	}
	return sim, nil
}

func newSimulation() *Simulation {
	return &Simulation{
		Steps:              []Step{},
		Order:              []string{},
		UnreachableNodeIDs: []string{},
	}
}

// schedule is Kahn's algorithm batched by wavefront. Nodes inside a step keep
// insertion order. Anything never released is reported as unreachable.
func (g *graph) schedule() *Simulation {
	sim := newSimulation()
	indegree := slices.Clone(g.indegree)
	done := make([]bool, len(g.ids))

	level := g.sources()
	for len(level) > 0 {
		ids := g.names(level)
		sim.Steps = append(sim.Steps, Step{StepIndex: len(sim.Steps), NodeIDs: ids})
		sim.Order = append(sim.Order, ids...)

		var next []int
		for _, v := range level {
			done[v] = true
			for _, w := range g.out[v] {
				indegree[w]--
				if indegree[w] == 0 {
					next = append(next, w)
				}
			}
		}
		slices.Sort(next)
		level = next
	}

	for v, id := range g.ids {
		if !done[v] {
			sim.UnreachableNodeIDs = append(sim.UnreachableNodeIDs, id)
		}
	}
	return sim
}
