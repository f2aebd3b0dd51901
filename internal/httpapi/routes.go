package httpapi

import "github.com/gofiber/fiber/v2"

// RegisterRoutes wires the run lifecycle's inbound HTTP surface onto app.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	runs := app.Group("/runs")
	runs.Post("/scan", h.Scan)
	runs.Get("/", h.ListRuns)
	runs.Get("/:id", h.GetRun)
	runs.Get("/:id/audit", h.GetAudit)
	runs.Post("/:id/score", h.Score)
	runs.Post("/:id/execute", h.Execute)
	runs.Post("/:id/rollback", h.Rollback)
}
