// Package api exposes validation, simulation, export/import, templates and
// workflow storage over HTTP.
package api

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/meikuraledutech/workflow"
)

// Options configures New. Store may be nil, in which case workflow storage
// routes answer 503.
type Options struct {
	Store  workflow.Store
	Logger *zap.Logger
	IDs    workflow.IDGenerator
}

// Handler serves the HTTP routes.
type Handler struct {
	store workflow.Store
	log   *zap.Logger
	ids   workflow.IDGenerator
}

// New builds the fiber app with every route registered.
func New(opts Options) *fiber.App {
	h := &Handler{store: opts.Store, log: opts.Logger, ids: opts.IDs}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.ids == nil {
		h.ids = workflow.NodeIDs
	}

	app := fiber.New(fiber.Config{
		AppName:     "workflow",
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(h.accessLog)
	h.Register(app)
	return app
}

// Register mounts the routes on app.
func (h *Handler) Register(app *fiber.App) {
	// ── Analysis ──────────────────────────────────────────────────────
	app.Post("/validate", h.validate)
	app.Post("/simulate", h.simulate)

	// ── Exchange ──────────────────────────────────────────────────────
	app.Post("/export", h.export)
	app.Post("/import", h.importGraph)

	// ── Templates ─────────────────────────────────────────────────────
	app.Get("/templates", h.listTemplates)
	app.Post("/templates/:id/instantiate", h.instantiateTemplate)

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", h.requireStore, h.createSchema)
	app.Delete("/schema", h.requireStore, h.dropSchema)

	// ── Workflows ─────────────────────────────────────────────────────
	app.Get("/workflows/default", h.defaultWorkflow)

	workflows := app.Group("/workflows", h.requireStore)
	workflows.Get("/", h.listWorkflows)
	workflows.Post("/", h.createWorkflow)
	workflows.Get("/:id", h.getWorkflow)
	workflows.Put("/:id", h.updateWorkflow)
	workflows.Delete("/:id", h.deleteWorkflow)
}

func (h *Handler) accessLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.log.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

func (h *Handler) requireStore(c fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "database not configured"})
	}
	return c.Next()
}

func (h *Handler) internalError(c fiber.Ctx, msg string, err error) error {
	h.log.Error(msg, zap.Error(err), zap.String("path", c.Path()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}
