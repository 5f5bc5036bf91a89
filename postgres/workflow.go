package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/workflow"
)

const workflowColumns = `id, name, nodes, edges, created_at, updated_at`

// CreateWorkflow saves a workflow. A missing ID gets a generated UUID and a
// missing name becomes workflow.DefaultName. Returns the workflow with
// timestamps filled in.
func (s *PGStore) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Name == "" {
		w.Name = workflow.DefaultName
	}
	if w.Nodes == nil {
		w.Nodes = []workflow.Node{}
	}
	if w.Edges == nil {
		w.Edges = []workflow.Edge{}
	}

	nodes, edges, err := encodeGraph(w.Nodes, w.Edges)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO workflows (id, name, nodes, edges) VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		w.ID, w.Name, nodes, edges,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("workflow: insert workflow: %w", err)
	}

	return w, nil
}

// GetWorkflow fetches a workflow by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)

	w, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}
	return w, nil
}

// ListWorkflows returns all workflows, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM workflows ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	defer rows.Close()

	out := []workflow.Summary{}
	for rows.Next() {
		var sum workflow.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows workflows: %w", err)
	}

	return out, nil
}

// UpdateWorkflow applies the set fields of u and bumps updated_at.
// Returns workflow.ErrWorkflowNotFound if the workflow doesn't exist.
func (s *PGStore) UpdateWorkflow(ctx context.Context, id string, u workflow.Update) (*workflow.Workflow, error) {
	var nodes, edges []byte
	if u.Nodes != nil {
		b, err := sonic.Marshal(*u.Nodes)
		if err != nil {
			return nil, fmt.Errorf("workflow: encode nodes: %w", err)
		}
		nodes = b
	}
	if u.Edges != nil {
		b, err := sonic.Marshal(*u.Edges)
		if err != nil {
			return nil, fmt.Errorf("workflow: encode edges: %w", err)
		}
		edges = b
	}

	row := s.db.QueryRow(ctx,
		`UPDATE workflows
		    SET name = COALESCE($2, name),
		        nodes = COALESCE($3, nodes),
		        edges = COALESCE($4, edges),
		        updated_at = NOW()
		  WHERE id = $1
		RETURNING `+workflowColumns,
		id, u.Name, nodes, edges,
	)

	w, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workflow.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("workflow: update workflow: %w", err)
	}
	return w, nil
}

// DeleteWorkflow deletes a workflow by its ID.
// Returns workflow.ErrWorkflowNotFound if nothing was deleted.
func (s *PGStore) DeleteWorkflow(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

func encodeGraph(nodes []workflow.Node, edges []workflow.Edge) ([]byte, []byte, error) {
	n, err := sonic.Marshal(nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("workflow: encode nodes: %w", err)
	}
	e, err := sonic.Marshal(edges)
	if err != nil {
		return nil, nil, fmt.Errorf("workflow: encode edges: %w", err)
	}
	return n, e, nil
}

func scanWorkflow(row pgx.Row) (*workflow.Workflow, error) {
	var (
		w            workflow.Workflow
		nodes, edges []byte
	)
	if err := row.Scan(&w.ID, &w.Name, &nodes, &edges, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if err := sonic.Unmarshal(nodes, &w.Nodes); err != nil {
		return nil, fmt.Errorf("workflow: decode nodes: %w", err)
	}
	if err := sonic.Unmarshal(edges, &w.Edges); err != nil {
		return nil, fmt.Errorf("workflow: decode edges: %w", err)
	}
	return &w, nil
}
