package validation

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"mdm-backend/internal/rules"
)

// Handler exposes the validation engine over HTTP for the submission and
// save workflows of the satellite request UIs.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Post("/validate", h.Validate)
	api.Get("/validation-rules", h.RulesForUI)
}

type validateRequest struct {
	Data         map[string]any `json:"data"`
	Status       string         `json:"status"`
	SourceSystem string         `json:"sourceSystem"`
	EntityType   string         `json:"entityType"`
	RequestType  string         `json:"requestType"`
	Locale       string         `json:"locale"`
}

func (h *Handler) Validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}
	if req.Data == nil {
		return InvalidPayloadError("data is required")
	}

	report, err := h.service.ValidateRequest(c.Context(), req.Data,
		req.Status, req.SourceSystem, req.EntityType, req.RequestType, req.Locale)
	if err != nil {
		return fmt.Errorf("validate request: %w", err)
	}
	return c.JSON(report)
}

func (h *Handler) RulesForUI(c *fiber.Ctx) error {
	vctx := rules.Context{
		Status:       c.Query("status"),
		SourceSystem: c.Query("sourceSystem"),
		EntityType:   c.Query("entityType"),
		RequestType:  c.Query("requestType"),
		Locale:       c.Query("locale", "en"),
	}

	uiRules, err := h.service.RulesForUI(c.Context(), vctx)
	if err != nil {
		return fmt.Errorf("resolve rules for UI: %w", err)
	}
	return c.JSON(fiber.Map{"data": uiRules})
}
