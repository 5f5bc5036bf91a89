package workflow

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sampleNodes = []Node{
		{ID: "1", Type: "input", Position: Position{X: 0, Y: 0}, Data: json.RawMessage(`{"label":"Input"}`)},
		{ID: "2", Type: "email", Position: Position{X: 120.5, Y: -40}},
	}
	sampleEdges = []Edge{
		{ID: "e1", Source: "1", Target: "2", Label: "ok"},
		{ID: "e2", Source: "2", Target: "missing", SourceHandle: "true"},
	}
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestExportEnvelope(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("CET", 3600))
	text, err := ExportAt(sampleNodes, sampleEdges, at)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	assert.Equal(t, ExportVersion, env.Version)
	assert.Equal(t, "2026-03-04T04:06:07.890Z", env.ExportedAt)
	assert.JSONEq(t, mustJSON(t, sampleNodes), mustJSON(t, env.Nodes))
	assert.JSONEq(t, mustJSON(t, sampleEdges), mustJSON(t, env.Edges))
	assert.Contains(t, text, "\n")
}

func TestExportEmpty(t *testing.T) {
	text, err := Export(nil, nil)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &raw))
	assert.Equal(t, []any{}, raw["nodes"])
	assert.Equal(t, []any{}, raw["edges"])
	assert.EqualValues(t, 1, raw["version"])

	exportedAt, ok := raw["exportedAt"].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, exportedAt)
	assert.NoError(t, err)
}

func TestImportRoundTrip(t *testing.T) {
	text, err := Export(sampleNodes, sampleEdges)
	require.NoError(t, err)

	g, err := Import(text)
	require.NoError(t, err)
	assert.JSONEq(t, mustJSON(t, sampleNodes), mustJSON(t, g.Nodes))
	assert.JSONEq(t, mustJSON(t, sampleEdges), mustJSON(t, g.Edges))
}

func TestImportKeepsDuplicates(t *testing.T) {
	text := `{"nodes":[{"id":"a","position":{"x":1,"y":2}},{"id":"a","position":{}}],"edges":[]}`
	g, err := Import(text)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "a", g.Nodes[1].ID)
	assert.Equal(t, []Edge{}, g.Edges)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		kind    error
		message string
	}{
		{"not json", "not json", ErrInvalidJSON, "(?i)invalid json"},
		{"truncated", `{"nodes": [`, ErrInvalidJSON, "(?i)invalid json"},
		{"array root", `[]`, ErrInvalidShape, "invalid"},
		{"null root", `null`, ErrInvalidShape, "invalid"},
		{"nodes missing", `{"edges":[]}`, ErrInvalidShape, "nodes"},
		{"nodes not array", `{"nodes":{},"edges":[]}`, ErrInvalidShape, "nodes"},
		{"edges missing", `{"nodes":[]}`, ErrInvalidShape, "edges"},
		{"edges not array", `{"nodes":[],"edges":"x"}`, ErrInvalidShape, "edges"},
		{
			"node lacks id",
			`{"nodes":[{"position":{"x":0,"y":0},"data":{}}],"edges":[],"version":1}`,
			ErrInvalidElement, "invalid",
		},
		{
			"node id not a string",
			`{"nodes":[{"id":7,"position":{"x":0,"y":0}}],"edges":[]}`,
			ErrInvalidElement, "invalid",
		},
		{
			"node lacks position",
			`{"nodes":[{"id":"1"}],"edges":[]}`,
			ErrInvalidElement, "invalid",
		},
		{
			"node is not an object",
			`{"nodes":["1"],"edges":[]}`,
			ErrInvalidElement, "invalid",
		},
		{
			"edge lacks target",
			`{"nodes":[{"id":"1","position":{"x":0,"y":0}}],"edges":[{"id":"e1","source":"1"}]}`,
			ErrInvalidElement, "invalid",
		},
		{
			"edge lacks source",
			`{"nodes":[],"edges":[{"target":"1"}]}`,
			ErrInvalidElement, "invalid",
		},
		{
			"one bad node among good ones",
			`{"nodes":[{"id":"1","position":{}},{"id":"2"}],"edges":[]}`,
			ErrInvalidElement, "invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Import(tt.text)
			assert.Nil(t, g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
			assert.Regexp(t, tt.message, err.Error())

			var importErr *ImportError
			assert.True(t, errors.As(err, &importErr))
		})
	}
}

func TestImportKeepsEditorFields(t *testing.T) {
	nodes := `[
		{"id":"a","type":"input","position":{"x":1,"y":2},"data":{"label":"A"},
		 "selected":true,"measured":{"width":150,"height":40},"width":150,"style":{"opacity":0.5}},
		{"id":"b","position":{"x":3,"y":4},"dragging":false}
	]`
	edges := `[
		{"id":"e1","source":"a","target":"b","animated":true,"sourceHandle":null,"markerEnd":{"type":"arrow"}}
	]`

	g, err := Import(`{"nodes":` + nodes + `,"edges":` + edges + `,"version":1}`)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`true`), g.Nodes[0].Extra["selected"])
	assert.Equal(t, "a", g.Edges[0].Source)

	text, err := Export(g.Nodes, g.Edges)
	require.NoError(t, err)
	var env struct {
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	assert.JSONEq(t, nodes, string(env.Nodes))
	assert.JSONEq(t, edges, string(env.Edges))
}

func TestImportAcceptsLooseMemberTypes(t *testing.T) {
	nodes := `[
		{"id":"a","type":7,"position":{"x":"10","y":0}},
		{"id":"b","type":"","position":{"x":1,"y":2,"z":3}},
		{"id":"c","position":{}}
	]`
	edges := `[
		{"id":"","source":"a","target":"b","label":{"text":"yes"}},
		{"id":9,"source":"b","target":"c"}
	]`

	g, err := Import(`{"nodes":` + nodes + `,"edges":` + edges + `}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, []string{g.Nodes[0].ID, g.Nodes[1].ID, g.Nodes[2].ID})
	assert.True(t, Validate(g.Nodes, g.Edges).Valid)

	text, err := Export(g.Nodes, g.Edges)
	require.NoError(t, err)
	var env struct {
		Nodes json.RawMessage `json:"nodes"`
		Edges json.RawMessage `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &env))
	assert.JSONEq(t, nodes, string(env.Nodes))
	assert.JSONEq(t, edges, string(env.Edges))
}
