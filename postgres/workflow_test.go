package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

func newMockStore(t *testing.T) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

var (
	created = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	updated = created.Add(time.Hour)
)

func workflowRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "nodes", "edges", "created_at", "updated_at"})
}

func TestCreateSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS workflows").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.CreateSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DROP TABLE IF EXISTS workflows").
		WillReturnResult(pgxmock.NewResult("DROP", 0))

	require.NoError(t, store.DropSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWorkflow(t *testing.T) {
	t.Run("fills id, name and timestamps", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO workflows").
			WithArgs(pgxmock.AnyArg(), workflow.DefaultName, []byte("[]"), []byte("[]")).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

		w, err := store.CreateWorkflow(context.Background(), &workflow.Workflow{})
		require.NoError(t, err)
		assert.NotEmpty(t, w.ID)
		assert.Equal(t, workflow.DefaultName, w.Name)
		assert.Equal(t, created, w.CreatedAt)
		assert.Equal(t, []workflow.Node{}, w.Nodes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps given id", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO workflows").
			WithArgs("wf-1", "Billing", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

		w, err := store.CreateWorkflow(context.Background(), &workflow.Workflow{
			ID:    "wf-1",
			Name:  "Billing",
			Nodes: []workflow.Node{{ID: "1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "wf-1", w.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("INSERT INTO workflows").WillReturnError(errors.New("boom"))

		_, err := store.CreateWorkflow(context.Background(), &workflow.Workflow{})
		assert.ErrorContains(t, err, "insert workflow")
	})
}

func TestGetWorkflow(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, name, nodes, edges, created_at, updated_at FROM workflows").
			WithArgs("wf-1").
			WillReturnRows(workflowRows().AddRow(
				"wf-1", "Billing",
				[]byte(`[{"id":"1","position":{"x":1,"y":2}},{"id":"2","position":{"x":0,"y":0}}]`),
				[]byte(`[{"source":"1","target":"2"}]`),
				created, updated,
			))

		w, err := store.GetWorkflow(context.Background(), "wf-1")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, "Billing", w.Name)
		require.Len(t, w.Nodes, 2)
		assert.Equal(t, workflow.Position{X: 1, Y: 2}, w.Nodes[0].Position)
		assert.Equal(t, []workflow.Edge{{Source: "1", Target: "2"}}, w.Edges)
		assert.Equal(t, updated, w.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT id, name, nodes, edges").
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		w, err := store.GetWorkflow(context.Background(), "nope")
		assert.NoError(t, err)
		assert.Nil(t, w)
	})
}

func TestListWorkflows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM workflows ORDER BY created_at DESC").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("wf-2", "Second", updated, updated).
			AddRow("wf-1", "First", created, created))

	list, err := store.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []workflow.Summary{
		{ID: "wf-2", Name: "Second", CreatedAt: updated, UpdatedAt: updated},
		{ID: "wf-1", Name: "First", CreatedAt: created, UpdatedAt: created},
	}, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWorkflowsEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, name, created_at, updated_at FROM workflows").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}))

	list, err := store.ListWorkflows(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdateWorkflow(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		store, mock := newMockStore(t)
		name := "Renamed"
		mock.ExpectQuery("UPDATE workflows").
			WithArgs("wf-1", &name, []byte(nil), []byte(nil)).
			WillReturnRows(workflowRows().AddRow("wf-1", name, []byte(`[]`), []byte(`[]`), created, updated))

		w, err := store.UpdateWorkflow(context.Background(), "wf-1", workflow.Update{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", w.Name)
		assert.Equal(t, updated, w.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("encodes graph", func(t *testing.T) {
		store, mock := newMockStore(t)
		nodes := []workflow.Node{}
		edges := []workflow.Edge{}
		mock.ExpectQuery("UPDATE workflows").
			WithArgs("wf-1", (*string)(nil), []byte("[]"), []byte("[]")).
			WillReturnRows(workflowRows().AddRow("wf-1", "x", []byte(`[]`), []byte(`[]`), created, updated))

		_, err := store.UpdateWorkflow(context.Background(), "wf-1", workflow.Update{Nodes: &nodes, Edges: &edges})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("UPDATE workflows").WillReturnError(pgx.ErrNoRows)

		_, err := store.UpdateWorkflow(context.Background(), "nope", workflow.Update{})
		assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
	})
}

func TestDeleteWorkflow(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM workflows").
			WithArgs("wf-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, store.DeleteWorkflow(context.Background(), "wf-1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("DELETE FROM workflows").
			WithArgs("nope").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, store.DeleteWorkflow(context.Background(), "nope"), workflow.ErrWorkflowNotFound)
	})
}
