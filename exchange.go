package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// ExportVersion is the envelope version written by Export. Files exported by
// earlier releases carry the same literal.
const ExportVersion = 1

// exportTimeLayout is ISO-8601 with millisecond precision.
const exportTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrInvalidJSON    = errors.New("workflow: invalid JSON")
	ErrInvalidShape   = errors.New("workflow: invalid workflow file")
	ErrInvalidElement = errors.New("workflow: invalid element")
)

// Envelope is the on-disk form of an exported workflow.
type Envelope struct {
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
	ExportedAt string `json:"exportedAt"`
	Version    int    `json:"version"`
}

// ImportError describes why a workflow file was rejected. Kind is one of
// ErrInvalidJSON, ErrInvalidShape or ErrInvalidElement.
type ImportError struct {
	Kind error
	Msg  string
}

func (e *ImportError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ImportError) Unwrap() error { return e.Kind }

// Export encodes nodes and edges into a pretty-printed envelope stamped with
// the current time.
func Export(nodes []Node, edges []Edge) (string, error) {
	return ExportAt(nodes, edges, time.Now())
}

// ExportAt is Export with an explicit timestamp. It only fails when a node or
// edge carries Data that is not valid JSON.
func ExportAt(nodes []Node, edges []Edge, at time.Time) (string, error) {
	if nodes == nil {
		nodes = []Node{}
	}
	if edges == nil {
		edges = []Edge{}
	}
	env := Envelope{
		Nodes:      nodes,
		Edges:      edges,
		ExportedAt: at.UTC().Format(exportTimeLayout),
		Version:    ExportVersion,
	}
	out, err := sonic.ConfigStd.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("workflow: encode export: %w", err)
	}
	return string(out), nil
}

// Import parses an exported workflow file. Every node needs a string id and
// an object position, every edge a string source and target; one bad element
// rejects the whole file. The graph is returned as found: no deduplication,
// no structural validation and no member dropped or retyped (see Node.Extra).
func Import(text string) (*Graph, error) {
	if !gjson.Valid(text) {
		return nil, &ImportError{Kind: ErrInvalidJSON}
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, &ImportError{Kind: ErrInvalidShape}
	}

	nodes := root.Get("nodes")
	if !nodes.IsArray() {
		return nil, &ImportError{Kind: ErrInvalidShape, Msg: `missing or invalid "nodes" array`}
	}
	edges := root.Get("edges")
	if !edges.IsArray() {
		return nil, &ImportError{Kind: ErrInvalidShape, Msg: `missing or invalid "edges" array`}
	}

	for _, n := range nodes.Array() {
		if !isNodeLike(n) {
			return nil, &ImportError{Kind: ErrInvalidElement, Msg: "some nodes are invalid (need id and position)"}
		}
	}
	for _, e := range edges.Array() {
		if !isEdgeLike(e) {
			return nil, &ImportError{Kind: ErrInvalidElement, Msg: "some edges are invalid (need source and target)"}
		}
	}

	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	if err := sonic.ConfigStd.UnmarshalFromString(nodes.Raw, &g.Nodes); err != nil {
		return nil, &ImportError{Kind: ErrInvalidElement, Msg: "some nodes are invalid (need id and position)"}
	}
	if err := sonic.ConfigStd.UnmarshalFromString(edges.Raw, &g.Edges); err != nil {
		return nil, &ImportError{Kind: ErrInvalidElement, Msg: "some edges are invalid (need source and target)"}
	}
	return g, nil
}

func isNodeLike(v gjson.Result) bool {
	return v.IsObject() &&
		v.Get("id").Type == gjson.String &&
		v.Get("position").IsObject()
}

func isEdgeLike(v gjson.Result) bool {
	return v.IsObject() &&
		v.Get("source").Type == gjson.String &&
		v.Get("target").Type == gjson.String
}
