package workflow

// ValidationResult reports the structural problems of a graph. Valid is true
// iff both lists are empty. Cycle membership order and the order of cycles
// are not canonical.
type ValidationResult struct {
	Valid           bool       `json:"valid"`
	Cycles          [][]string `json:"cycles"`
	OrphanedNodeIDs []string   `json:"orphanedNodeIds"`
}

// Validate detects cycles and orphaned nodes. It never fails: edges that
// reference unknown nodes are ignored and the inputs are not modified.
func Validate(nodes []Node, edges []Edge) ValidationResult {
	g := newGraph(nodes, edges)
	cycles := g.cycles()
	orphans := g.orphans()
	return ValidationResult{
		Valid:           len(cycles) == 0 && len(orphans) == 0,
		Cycles:          cycles,
		OrphanedNodeIDs: orphans,
	}
}

// Cycles returns every strongly connected component that forms a cycle.
func Cycles(nodes []Node, edges []Edge) [][]string {
	return newGraph(nodes, edges).cycles()
}

// Orphans returns the ids of orphaned nodes in node order.
func Orphans(nodes []Node, edges []Edge) []string {
	return newGraph(nodes, edges).orphans()
}

// Triggers returns the ids of nodes with no incoming edge, in node order.
func Triggers(nodes []Node, edges []Edge) []string {
	g := newGraph(nodes, edges)
	return g.names(g.sources())
}
