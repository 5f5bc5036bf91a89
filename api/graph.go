package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/meikuraledutech/workflow"
)

func (h *Handler) validate(c fiber.Ctx) error {
	var g workflow.Graph
	if err := c.Bind().JSON(&g); err != nil {
		return badBody(c)
	}
	return c.JSON(workflow.Validate(g.Nodes, g.Edges))
}

func (h *Handler) simulate(c fiber.Ctx) error {
	var g workflow.Graph
	if err := c.Bind().JSON(&g); err != nil {
		return badBody(c)
	}

	sim, err := workflow.Simulate(g.Nodes, g.Edges)
	var cycleErr *workflow.CycleError
	switch {
	case errors.As(err, &cycleErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"cycles":  cycleErr.Cycles,
		})
	case err != nil:
		h.log.Error("simulation stalled", zap.Error(err), zap.Strings("unreachable", sim.UnreachableNodeIDs))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":            false,
			"error":              err.Error(),
			"unreachableNodeIds": sim.UnreachableNodeIDs,
		})
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"steps":              sim.Steps,
		"order":              sim.Order,
		"unreachableNodeIds": sim.UnreachableNodeIDs,
	})
}

func (h *Handler) export(c fiber.Ctx) error {
	var g workflow.Graph
	if err := c.Bind().JSON(&g); err != nil {
		return badBody(c)
	}

	text, err := workflow.Export(g.Nodes, g.Edges)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	name := c.Query("name", "workflow")
	c.Attachment(name + ".json")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.SendString(text)
}

func (h *Handler) importGraph(c fiber.Ctx) error {
	g, err := workflow.Import(string(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true, "nodes": g.Nodes, "edges": g.Edges})
}

func (h *Handler) listTemplates(c fiber.Ctx) error {
	return c.JSON(workflow.Templates())
}

type instantiateRequest struct {
	Reserved []string `json:"reserved"`
}

func (h *Handler) instantiateTemplate(c fiber.Ctx) error {
	tpl, ok := workflow.TemplateByID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "template not found"})
	}

	var req instantiateRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badBody(c)
		}
	}

	reserved := make(map[string]bool, len(req.Reserved))
	for _, id := range req.Reserved {
		reserved[id] = true
	}
	return c.JSON(workflow.Instantiate(tpl, h.ids, reserved))
}
