package workflow

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out ids that are not in reserved. Implementations may
// keep state between calls but must not rely on package-level counters.
type IDGenerator interface {
	Next(reserved map[string]bool) string
}

// SequenceGenerator yields Prefix0, Prefix1, ... skipping reserved ids. It
// restarts from zero on every call, so the lowest free id is always chosen.
type SequenceGenerator struct {
	Prefix string
}

// NodeIDs is the generator used for nodes dropped onto the canvas.
var NodeIDs = SequenceGenerator{Prefix: "dndnode_"}

func (s SequenceGenerator) Next(reserved map[string]bool) string {
	for n := 0; ; n++ {
		id := s.Prefix + strconv.Itoa(n)
		if !reserved[id] {
			return id
		}
	}
}

// UUIDGenerator yields random UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) Next(reserved map[string]bool) string {
	for {
		id := uuid.NewString()
		if !reserved[id] {
			return id
		}
	}
}

// GeneratorFunc adapts a function to IDGenerator.
type GeneratorFunc func(reserved map[string]bool) string

func (f GeneratorFunc) Next(reserved map[string]bool) string { return f(reserved) }

// Reserve builds a reserved set from the ids of nodes and edges.
func Reserve(nodes []Node, edges []Edge) map[string]bool {
	reserved := make(map[string]bool, len(nodes)+len(edges))
	for _, n := range nodes {
		reserved[n.ID] = true
	}
	for _, e := range edges {
		if e.ID != "" {
			reserved[e.ID] = true
		}
	}
	return reserved
}
