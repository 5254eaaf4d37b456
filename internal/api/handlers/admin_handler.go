package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/organix-app/integration-api/internal/service"
	"github.com/organix-app/integration-api/internal/transfer"
)

type AdminHandler struct {
	ts service.TenantService
}

func NewAdminHandler(ts service.TenantService) *AdminHandler {
	return &AdminHandler{ts: ts}
}

func (h *AdminHandler) RegisterTenant(c *fiber.Ctx) error {
	var req transfer.RegisterTenantRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "error": "invalid_body",
		})
	}

	result, err := h.ts.RegisterTenant(c.Context(), GetActor(c), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
