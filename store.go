package workflow

import (
	"context"
	"errors"
)

var (
	ErrCycleDetected    = errors.New("workflow: cycle detected, fix cycles before simulating")
	ErrScheduleStalled  = errors.New("workflow: schedule stalled with nodes remaining")
	ErrWorkflowNotFound = errors.New("workflow: workflow not found")
)

// Store defines the contract for persisting and retrieving workflows.
// Stores persist graphs as given; they never run validation.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workflows
	CreateWorkflow(ctx context.Context, w *Workflow) (*Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	ListWorkflows(ctx context.Context) ([]Summary, error)
	UpdateWorkflow(ctx context.Context, id string, u Update) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
}
