package admin

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"mdm-backend/internal/rules"
	"mdm-backend/internal/store"
	"mdm-backend/internal/validation"
)

// Handler manages the rule tables. Every mutation invalidates the resolver
// cache so validation picks up changes immediately, not after the TTL.
type Handler struct {
	store *store.Store
	repo  *rules.Repository
	cache *validation.Cache
}

func NewHandler(s *store.Store, repo *rules.Repository, cache *validation.Cache) *Handler {
	return &Handler{store: s, repo: repo, cache: cache}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/rules", h.ListFieldRules)
	admin.Get("/rules/:id", h.GetFieldRule)
	admin.Post("/rules", h.CreateFieldRule)
	admin.Put("/rules/:id", h.UpdateFieldRule)
	admin.Delete("/rules/:id", h.DeleteFieldRule)
	admin.Post("/rules/:id/toggle", h.ToggleFieldRule)
	admin.Post("/rules/:id/duplicate", h.DuplicateFieldRule)
	admin.Post("/rules/clone", h.CloneFieldRules)

	admin.Get("/section-rules", h.ListSectionRules)
	admin.Get("/section-rules/:id", h.GetSectionRule)
	admin.Post("/section-rules", h.CreateSectionRule)
	admin.Put("/section-rules/:id", h.UpdateSectionRule)
	admin.Delete("/section-rules/:id", h.DeleteSectionRule)
	admin.Post("/section-rules/:id/toggle", h.ToggleSectionRule)

	admin.Get("/cache/stats", h.CacheStats)
	admin.Post("/cache/clear", h.ClearCache)
}

// --- Field rule endpoints ---

func (h *Handler) ListFieldRules(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.store.Pool,
		"SELECT * FROM _validation_rules ORDER BY locale, priority")
	if err != nil {
		return fmt.Errorf("list field rules: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *Handler) GetFieldRule(c *fiber.Ctx) error {
	id := c.Params("id")
	row, err := store.QueryRow(c.Context(), h.store.Pool,
		"SELECT * FROM _validation_rules WHERE id = $1", id)
	if err != nil {
		return validation.NotFoundError("Validation rule", id)
	}
	return c.JSON(fiber.Map{"data": row})
}

func (h *Handler) CreateFieldRule(c *fiber.Ctx) error {
	var rule rules.FieldRule
	if err := c.BodyParser(&rule); err != nil {
		return validation.InvalidPayloadError("Invalid JSON body")
	}
	if err := validateFieldRule(&rule); err != nil {
		return validation.NewAppError("VALIDATION_FAILED", 422, err.Error())
	}

	if err := h.repo.CreateFieldRule(c.Context(), &rule); err != nil {
		return fmt.Errorf("create field rule: %w", err)
	}
	h.cache.InvalidateAll()
	return c.Status(201).JSON(fiber.Map{"data": rule})
}

func (h *Handler) UpdateFieldRule(c *fiber.Ctx) error {
	var rule rules.FieldRule
	if err := c.BodyParser(&rule); err != nil {
		return validation.InvalidPayloadError("Invalid JSON body")
	}
	rule.ID = c.Params("id")
	if err := validateFieldRule(&rule); err != nil {
		return validation.NewAppError("VALIDATION_FAILED", 422, err.Error())
	}

	if err := h.repo.UpdateFieldRule(c.Context(), &rule); err != nil {
		return validation.NotFoundError("Validation rule", rule.ID)
	}
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": rule})
}

func (h *Handler) DeleteFieldRule(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.repo.DeleteFieldRule(c.Context(), id); err != nil {
		return validation.NotFoundError("Validation rule", id)
	}
	h.cache.InvalidateAll()
	return c.SendStatus(204)
}

func (h *Handler) ToggleFieldRule(c *fiber.Ctx) error {
	id := c.Params("id")
	active, err := h.repo.ToggleFieldRule(c.Context(), id)
	if err != nil {
		return validation.NotFoundError("Validation rule", id)
	}
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "active": active}})
}

func (h *Handler) DuplicateFieldRule(c *fiber.Ctx) error {
	id := c.Params("id")
	newID, err := h.repo.DuplicateFieldRule(c.Context(), id)
	if err != nil {
		return validation.NotFoundError("Validation rule", id)
	}
	h.cache.InvalidateAll()
	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{"id": newID}})
}

type cloneRequest struct {
	FromStatus       string `json:"fromStatus"`
	FromSourceSystem string `json:"fromSourceSystem"`
	ToStatus         string `json:"toStatus"`
	ToSourceSystem   string `json:"toSourceSystem"`
}

func (h *Handler) CloneFieldRules(c *fiber.Ctx) error {
	var req cloneRequest
	if err := c.BodyParser(&req); err != nil {
		return validation.InvalidPayloadError("Invalid JSON body")
	}
	if req.FromStatus == "" || req.FromSourceSystem == "" {
		return validation.InvalidPayloadError("fromStatus and fromSourceSystem are required")
	}

	cloned, err := h.repo.CloneFieldRules(c.Context(), req.FromStatus, req.FromSourceSystem, req.ToStatus, req.ToSourceSystem)
	if err != nil {
		return fmt.Errorf("clone field rules: %w", err)
	}
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": fiber.Map{"cloned": cloned}})
}

// --- Section rule endpoints ---

func (h *Handler) ListSectionRules(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.store.Pool,
		"SELECT * FROM _section_rules ORDER BY locale, priority")
	if err != nil {
		return fmt.Errorf("list section rules: %w", err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *Handler) GetSectionRule(c *fiber.Ctx) error {
	id := c.Params("id")
	row, err := store.QueryRow(c.Context(), h.store.Pool,
		"SELECT * FROM _section_rules WHERE id = $1", id)
	if err != nil {
		return validation.NotFoundError("Section rule", id)
	}
	return c.JSON(fiber.Map{"data": row})
}

func (h *Handler) CreateSectionRule(c *fiber.Ctx) error {
	var rule rules.SectionRule
	if err := c.BodyParser(&rule); err != nil {
		return validation.InvalidPayloadError("Invalid JSON body")
	}
	if err := validateSectionRule(&rule); err != nil {
		return validation.NewAppError("VALIDATION_FAILED", 422, err.Error())
	}

	if err := h.repo.CreateSectionRule(c.Context(), &rule); err != nil {
		return fmt.Errorf("create section rule: %w", err)
	}
	h.cache.InvalidateAll()
	return c.Status(201).JSON(fiber.Map{"data": rule})
}

func (h *Handler) UpdateSectionRule(c *fiber.Ctx) error {
	var rule rules.SectionRule
	if err := c.BodyParser(&rule); err != nil {
		return validation.InvalidPayloadError("Invalid JSON body")
	}
	rule.ID = c.Params("id")
	if err := validateSectionRule(&rule); err != nil {
		return validation.NewAppError("VALIDATION_FAILED", 422, err.Error())
	}

	if err := h.repo.UpdateSectionRule(c.Context(), &rule); err != nil {
		return validation.NotFoundError("Section rule", rule.ID)
	}
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": rule})
}

func (h *Handler) DeleteSectionRule(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.repo.DeleteSectionRule(c.Context(), id); err != nil {
		return validation.NotFoundError("Section rule", id)
	}
	h.cache.InvalidateAll()
	return c.SendStatus(204)
}

func (h *Handler) ToggleSectionRule(c *fiber.Ctx) error {
	id := c.Params("id")
	active, err := h.repo.ToggleSectionRule(c.Context(), id)
	if err != nil {
		return validation.NotFoundError("Section rule", id)
	}
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "active": active}})
}

// --- Cache endpoints ---

func (h *Handler) CacheStats(c *fiber.Ctx) error {
	size, keys := h.cache.Stats()
	return c.JSON(fiber.Map{"data": fiber.Map{"size": size, "keys": keys}})
}

func (h *Handler) ClearCache(c *fiber.Ctx) error {
	h.cache.InvalidateAll()
	return c.JSON(fiber.Map{"data": fiber.Map{"cleared": true}})
}
