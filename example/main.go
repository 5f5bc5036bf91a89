package main

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/meikuraledutech/workflow"
)

func main() {
	// ── Instantiate a template ────────────────────────────────────────
	tpl, ok := workflow.TemplateByID("conditional")
	if !ok {
		log.Fatal("template not found")
	}
	g := workflow.Instantiate(tpl, workflow.NodeIDs, nil)
	fmt.Printf("template %q: %d nodes, %d edges\n", tpl.Name, len(g.Nodes), len(g.Edges))

	// ── Validate ──────────────────────────────────────────────────────
	res := workflow.Validate(g.Nodes, g.Edges)
	fmt.Printf("valid=%v cycles=%v orphans=%v\n", res.Valid, res.Cycles, res.OrphanedNodeIDs)

	// ── Simulate ──────────────────────────────────────────────────────
	sim, err := workflow.Simulate(g.Nodes, g.Edges)
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}
	for _, step := range sim.Steps {
		fmt.Printf("step %d: %v\n", step.StepIndex, step.NodeIDs)
	}

	// ── A cycle blocks simulation ─────────────────────────────────────
	loop := append(slices.Clone(g.Edges), workflow.Edge{ID: "back", Source: g.Nodes[1].ID, Target: g.Nodes[0].ID})
	_, err = workflow.Simulate(g.Nodes, loop)
	var cycleErr *workflow.CycleError
	if errors.As(err, &cycleErr) {
		fmt.Printf("rejected: %v %v\n", err, cycleErr.Cycles)
	}

	// ── Export / import ───────────────────────────────────────────────
	text, err := workflow.Export(g.Nodes, g.Edges)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	back, err := workflow.Import(text)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("round trip: %d nodes, %d edges\n", len(back.Nodes), len(back.Edges))

	if _, err := workflow.Import(`{"nodes": 1}`); errors.Is(err, workflow.ErrInvalidShape) {
		fmt.Println("import rejected:", err)
	}
}
