package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/coldstore/sentinel/internal/models"
)

// Handlers holds the Service every route delegates to. Methods do nothing
// but parse, call, marshal.
type Handlers struct {
	svc *Service
}

func New(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// ErrorHandler maps a fiber.Error to its carried status code; everything
// else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// statusFor maps the service-layer sentinel errors to their HTTP status
// codes; anything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrNoAuditMatch):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNotScored), errors.Is(err, ErrNoExecution):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// Scan handles POST /runs/scan.
func (h *Handlers) Scan(c *fiber.Ctx) error {
	var filters models.ScanFilters
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&filters); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	resp, err := h.svc.Scan(c.Context(), filters)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Score handles POST /runs/:id/score.
func (h *Handlers) Score(c *fiber.Ctx) error {
	resp, err := h.svc.Score(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

// Execute handles POST /runs/:id/execute.
func (h *Handlers) Execute(c *fiber.Ctx) error {
	var req models.ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.RunID = c.Params("id")

	resp, err := h.svc.Execute(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

// Rollback handles POST /runs/:id/rollback.
func (h *Handlers) Rollback(c *fiber.Ctx) error {
	var req models.RollbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.RunID = c.Params("id")

	resp, err := h.svc.Rollback(c.Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(resp)
}

// GetRun handles GET /runs/:id.
func (h *Handlers) GetRun(c *fiber.Ctx) error {
	run, err := h.svc.GetRun(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(run)
}

// ListRuns handles GET /runs.
func (h *Handlers) ListRuns(c *fiber.Ctx) error {
	runs, err := h.svc.ListRuns()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(runs)
}

// GetAudit handles GET /runs/:id/audit.
func (h *Handlers) GetAudit(c *fiber.Ctx) error {
	records, err := h.svc.GetAudit(c.Params("id"), c.Query("execution_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(records)
}
