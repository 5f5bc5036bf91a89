package workflow

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/bytedance/sonic"
)

// Template is a starter graph offered by the editor. Its node and edge ids
// are placeholders that Instantiate replaces.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// label builds the data payload of a template node. The inputs are package
// literals, so an encode failure is a programming error.
func label(s string) json.RawMessage {
	b, err := sonic.Marshal(map[string]string{"label": s})
	if err != nil {
		panic(fmt.Sprintf("workflow: encode label %q: %v", s, err))
	}
	return b
}

func node(id, typ string, x, y float64, text string) Node {
	return Node{ID: id, Type: typ, Position: Position{X: x, Y: y}, Data: label(text)}
}

func edge(id, source, target string) Edge {
	return Edge{ID: id, Source: source, Target: target}
}

var templates = []Template{
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "Start from scratch with an empty canvas",
		Nodes:       []Node{},
		Edges:       []Edge{},
	},
	{
		ID:          "webhook-to-slack",
		Name:        "Webhook → Slack",
		Description: "Trigger from a webhook and post to Slack",
		Nodes: []Node{
			node("n1", "webhook", 100, 120, "Incoming webhook"),
			node("n2", "slack", 380, 120, "Post to Slack"),
		},
		Edges: []Edge{edge("e1", "n1", "n2")},
	},
	{
		ID:          "schedule-email",
		Name:        "Schedule → Email",
		Description: "Run on a schedule and send an email",
		Nodes: []Node{
			node("n1", "schedule", 100, 100, "Every day at 9am"),
			node("n2", "email", 380, 100, "Send digest"),
		},
		Edges: []Edge{edge("e1", "n1", "n2")},
	},
	{
		ID:          "conditional",
		Name:        "Trigger → Condition → Action",
		Description: "Trigger, condition check, then send email",
		Nodes: []Node{
			node("n1", "input", 100, 120, "Trigger"),
			node("n2", "condition", 320, 120, "Check condition"),
			node("n3", "email", 540, 120, "Send email"),
		},
		Edges: []Edge{edge("e1", "n1", "n2"), edge("e2", "n2", "n3")},
	},
	{
		ID:          "http-delay-retry",
		Name:        "HTTP → Delay → HTTP",
		Description: "Call API, wait, then call again (e.g. retry flow)",
		Nodes: []Node{
			node("n1", "http", 80, 120, "Fetch data"),
			node("n2", "delay", 300, 120, "Wait 5 min"),
			node("n3", "http", 520, 120, "Retry request"),
		},
		Edges: []Edge{edge("e1", "n1", "n2"), edge("e2", "n2", "n3")},
	},
	{
		ID:          "dual-trigger-pipeline",
		Name:        "Dual-trigger pipeline",
		Description: "Schedule + Webhook → Merge → Condition → Email → Output",
		Nodes: []Node{
			node("n1", "schedule", 80, 80, "Daily 9am"),
			node("n2", "webhook", 80, 220, "Incoming webhook"),
			node("n3", "http", 280, 80, "Fetch from API"),
			node("n4", "set", 280, 220, "Map payload"),
			node("n5", "merge", 480, 150, "Combine inputs"),
			node("n6", "condition", 680, 150, "Should notify?"),
			node("n7", "email", 880, 150, "Send email"),
			node("n8", "slack", 1080, 150, "Post to Slack"),
			node("n9", "output", 1280, 150, "Done"),
		},
		Edges: []Edge{
			edge("e1", "n1", "n3"),
			edge("e2", "n2", "n4"),
			edge("e3", "n3", "n5"),
			edge("e4", "n4", "n5"),
			edge("e5", "n5", "n6"),
			edge("e6", "n6", "n7"),
			edge("e7", "n7", "n8"),
			edge("e8", "n8", "n9"),
		},
	},
}

// Templates returns the built-in templates in display order.
func Templates() []Template {
	return slices.Clone(templates)
}

// TemplateByID looks up a built-in template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Instantiate copies the template graph, giving every node and edge a fresh
// id from gen that collides neither with reserved nor with ids handed out
// earlier in the same call. Edge endpoints follow their renamed nodes.
func Instantiate(t Template, gen IDGenerator, reserved map[string]bool) Graph {
	taken := make(map[string]bool, len(reserved)+len(t.Nodes)+len(t.Edges))
	for id, ok := range reserved {
		taken[id] = ok
	}

	idMap := make(map[string]string, len(t.Nodes))
	nodes := make([]Node, len(t.Nodes))
	for i, n := range t.Nodes {
		id := gen.Next(taken)
		taken[id] = true
		idMap[n.ID] = id

		n.ID = id
		n.Data = slices.Clone(n.Data)
		n.Extra = maps.Clone(n.Extra)
		nodes[i] = n
	}

	edges := make([]Edge, len(t.Edges))
	for i, e := range t.Edges {
		e.ID = gen.Next(taken)
		taken[e.ID] = true
		if id, ok := idMap[e.Source]; ok {
			e.Source = id
		}
		if id, ok := idMap[e.Target]; ok {
			e.Target = id
		}
		e.Data = slices.Clone(e.Data)
		e.Extra = maps.Clone(e.Extra)
		edges[i] = e
	}
	return Graph{Nodes: nodes, Edges: edges}
}

// DefaultGraph is the starter graph of a newly created workflow.
func DefaultGraph() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "1", Type: "input", Position: Position{X: 0, Y: 0}, Data: label("Node 1")},
			{ID: "2", Position: Position{X: 0, Y: 100}, Data: label("Node 2")},
			{ID: "3", Type: "output", Position: Position{X: 200, Y: 100}, Data: label("Node 3")},
		},
		Edges: []Edge{{ID: "e1-2", Source: "1", Target: "2"}},
	}
}
