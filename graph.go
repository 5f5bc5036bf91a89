package workflow

// graph is the analysis view of a node/edge list. Node ids keep their
// first-seen order and adjacency only holds edges whose endpoints both exist;
// dangling edges are dropped here and nowhere else.
type graph struct {
	ids      []string
	index    map[string]int
	out      [][]int
	indegree []int
}

func newGraph(nodes []Node, edges []Edge) *graph {
	g := &graph{index: make(map[string]int, len(nodes))}
	for _, n := range nodes {
		if _, ok := g.index[n.ID]; ok {
			continue
		}
		g.index[n.ID] = len(g.ids)
		g.ids = append(g.ids, n.ID)
	}

	g.out = make([][]int, len(g.ids))
	g.indegree = make([]int, len(g.ids))
	for _, e := range edges {
		from, ok := g.index[e.Source]
		if !ok {
			continue
		}
		to, ok := g.index[e.Target]
		if !ok {
			continue
		}
		g.out[from] = append(g.out[from], to)
		g.indegree[to]++
	}
	return g
}

func (g *graph) names(vs []int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = g.ids[v]
	}
	return out
}

func (g *graph) hasSelfLoop(v int) bool {
	for _, w := range g.out[v] {
		if w == v {
			return true
		}
	}
	return false
}

// sources returns the nodes with no incoming edge, in insertion order.
func (g *graph) sources() []int {
	var out []int
	for v := range g.ids {
		if g.indegree[v] == 0 {
			out = append(out, v)
		}
	}
	return out
}

// reachable marks every node reachable from any of starts, starts included.
func (g *graph) reachable(starts []int) []bool {
	seen := make([]bool, len(g.ids))
	var stack []int
	for _, s := range starts {
		if seen[s] {
			continue
		}
		seen[s] = true
		stack = append(stack, s)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, w := range g.out[v] {
				if !seen[w] {
					seen[w] = true
					stack = append(stack, w)
				}
			}
		}
	}
	return seen
}

// sccFrame is one suspended strongConnect call: the node and the position of
// the next outgoing edge to look at.
type sccFrame struct {
	v    int
	next int
}

// stronglyConnected runs Tarjan's algorithm with an explicit work stack so a
// long chain cannot exhaust the goroutine stack. Members of each component are
// listed in pop order.
func (g *graph) stronglyConnected() [][]int {
	const unvisited = -1

	n := len(g.ids)
	disc := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range disc {
		disc[i] = unvisited
	}

	var (
		counter int
		stack   []int
		work    []sccFrame
		sccs    [][]int
	)

	visit := func(v int) {
		disc[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		work = append(work, sccFrame{v: v})
	}

	for root := 0; root < n; root++ {
		if disc[root] != unvisited {
			continue
		}
		visit(root)

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.v

			if top.next < len(g.out[v]) {
				w := g.out[v][top.next]
				top.next++
				switch {
				case disc[w] == unvisited:
					visit(w)
				case onStack[w]:
					low[v] = min(low[v], disc[w])
				}
				continue
			}

			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].v
				low[parent] = min(low[parent], low[v])
			}

			if low[v] != disc[v] {
				continue
			}
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}
	return sccs
}

// cycles keeps the components that contain a cycle: more than one member, or
// a single member with an edge to itself.
func (g *graph) cycles() [][]string {
	out := make([][]string, 0)
	for _, scc := range g.stronglyConnected() {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			out = append(out, g.names(scc))
		}
	}
	return out
}

// orphans lists fully isolated nodes and non-source nodes that no source can
// reach, in insertion order.
func (g *graph) orphans() []string {
	reached := g.reachable(g.sources())
	out := make([]string, 0)
	for v, id := range g.ids {
		isolated := g.indegree[v] == 0 && len(g.out[v]) == 0
		if isolated || (!reached[v] && g.indegree[v] > 0) {
			out = append(out, id)
		}
	}
	return out
}
