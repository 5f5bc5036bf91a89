package workflow

import (
	"encoding/json"
	"time"
)

// DefaultName is given to workflows created without a name.
const DefaultName = "Untitled workflow"

// Position is the canvas coordinate of a node. The analysis core ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of a workflow graph. Only ID is meaningful to the analysis
// functions; Type, Position and Data are carried through untouched.
//
// Extra holds every member the typed fields cannot represent exactly: keys
// the editor adds (selected, measured, style, ...) and known keys with an
// unexpected JSON type. It is written back verbatim, so a decoded node
// encodes to the same object.
type Node struct {
	ID       string                     `json:"id"`
	Type     string                     `json:"type,omitempty"`
	Position Position                   `json:"position"`
	Data     json.RawMessage            `json:"data,omitempty"`
	Extra    map[string]json.RawMessage `json:"-"`
}

// Edge is a directed connection from Source to Target. Extra works as on Node.
type Edge struct {
	ID           string                     `json:"id,omitempty"`
	Source       string                     `json:"source"`
	Target       string                     `json:"target"`
	SourceHandle string                     `json:"sourceHandle,omitempty"`
	TargetHandle string                     `json:"targetHandle,omitempty"`
	Label        string                     `json:"label,omitempty"`
	Data         json.RawMessage            `json:"data,omitempty"`
	Extra        map[string]json.RawMessage `json:"-"`
}

// Graph is a plain node/edge pair as exchanged with the editor.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Workflow is a named graph persisted by a Store.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the listing view of a Workflow.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Update carries a partial workflow change. Nil fields are left as they are.
type Update struct {
	Name  *string `json:"name,omitempty"`
	Nodes *[]Node `json:"nodes,omitempty"`
	Edges *[]Edge `json:"edges,omitempty"`
}

// Apply copies the set fields of u onto w and reports whether anything changed.
func (u Update) Apply(w *Workflow) bool {
	changed := false
	if u.Name != nil {
		w.Name = *u.Name
		changed = true
	}
	if u.Nodes != nil {
		w.Nodes = *u.Nodes
		changed = true
	}
	if u.Edges != nil {
		w.Edges = *u.Edges
		changed = true
	}
	return changed
}

// Summary returns the listing view of w.
func (w *Workflow) Summary() Summary {
	return Summary{ID: w.ID, Name: w.Name, CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt}
}
