package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/meikuraledutech/workflow"
)

func (h *Handler) createSchema(c fiber.Ctx) error {
	if err := h.store.CreateSchema(c.Context()); err != nil {
		return h.internalError(c, "create schema", err)
	}
	return c.JSON(fiber.Map{"message": "schema created"})
}

func (h *Handler) dropSchema(c fiber.Ctx) error {
	if err := h.store.DropSchema(c.Context()); err != nil {
		return h.internalError(c, "drop schema", err)
	}
	return c.JSON(fiber.Map{"message": "schema dropped"})
}

// defaultWorkflow returns the oldest stored workflow, creating one from the
// starter graph when none exist. Without a store it returns the starter graph
// with a null id.
func (h *Handler) defaultWorkflow(c fiber.Ctx) error {
	if h.store == nil {
		g := workflow.DefaultGraph()
		return c.JSON(fiber.Map{
			"id":    nil,
			"name":  workflow.DefaultName,
			"nodes": g.Nodes,
			"edges": g.Edges,
		})
	}

	list, err := h.store.ListWorkflows(c.Context())
	if err != nil {
		return h.internalError(c, "list workflows", err)
	}

	if len(list) == 0 {
		g := workflow.DefaultGraph()
		w, err := h.store.CreateWorkflow(c.Context(), &workflow.Workflow{
			Name:  workflow.DefaultName,
			Nodes: g.Nodes,
			Edges: g.Edges,
		})
		if err != nil {
			return h.internalError(c, "create default workflow", err)
		}
		h.log.Info("created default workflow", zap.String("id", w.ID))
		return c.JSON(w)
	}

	// ListWorkflows is newest first.
	oldest := list[len(list)-1]
	w, err := h.store.GetWorkflow(c.Context(), oldest.ID)
	if err != nil {
		return h.internalError(c, "get workflow", err)
	}
	if w == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workflow not found"})
	}
	return c.JSON(w)
}

func (h *Handler) listWorkflows(c fiber.Ctx) error {
	list, err := h.store.ListWorkflows(c.Context())
	if err != nil {
		return h.internalError(c, "list workflows", err)
	}
	return c.JSON(list)
}

type createRequest struct {
	Name  string           `json:"name"`
	Nodes *[]workflow.Node `json:"nodes"`
	Edges *[]workflow.Edge `json:"edges"`
}

func (h *Handler) createWorkflow(c fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
	}

	def := workflow.DefaultGraph()
	w := &workflow.Workflow{Name: req.Name, Nodes: def.Nodes, Edges: def.Edges}
	if req.Nodes != nil {
		w.Nodes = *req.Nodes
	}
	if req.Edges != nil {
		w.Edges = *req.Edges
	}

	created, err := h.store.CreateWorkflow(c.Context(), w)
	if err != nil {
		return h.internalError(c, "create workflow", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) getWorkflow(c fiber.Ctx) error {
	w, err := h.store.GetWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return h.internalError(c, "get workflow", err)
	}
	if w == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workflow not found"})
	}
	return c.JSON(w)
}

func (h *Handler) updateWorkflow(c fiber.Ctx) error {
	var u workflow.Update
	if err := c.Bind().JSON(&u); err != nil {
		return badBody(c)
	}

	w, err := h.store.UpdateWorkflow(c.Context(), c.Params("id"), u)
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workflow not found"})
	}
	if err != nil {
		return h.internalError(c, "update workflow", err)
	}
	return c.JSON(w)
}

func (h *Handler) deleteWorkflow(c fiber.Ctx) error {
	err := h.store.DeleteWorkflow(c.Context(), c.Params("id"))
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workflow not found"})
	}
	if err != nil {
		return h.internalError(c, "delete workflow", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
