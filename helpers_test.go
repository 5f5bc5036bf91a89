package workflow

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nodesOf(ids ...string) []Node {
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node{ID: id}
	}
	return nodes
}

// edgesOf builds edges from "source", "target" pairs.
func edgesOf(pairs ...string) []Edge {
	edges := make([]Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		edges = append(edges, Edge{Source: pairs[i], Target: pairs[i+1]})
	}
	return edges
}

// normalizeCycles sorts members and cycles so results can be compared as
// sets of sets.
func normalizeCycles(cycles [][]string) [][]string {
	out := make([][]string, len(cycles))
	for i, c := range cycles {
		cp := append([]string(nil), c...)
		sort.Strings(cp)
		out[i] = cp
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return out
}

func assertCycles(t *testing.T, want, got [][]string) {
	t.Helper()
	assert.Equal(t, normalizeCycles(want), normalizeCycles(got))
}

func chainID(i int) string {
	return "n" + strconv.Itoa(i)
}
