package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/service"
	"github.com/organix-app/integration-api/internal/transfer"
)

func GetActor(c *fiber.Ctx) transfer.Actor {
	if actor, ok := c.Locals("actor").(transfer.Actor); ok {
		return actor
	}
	return transfer.Actor{}
}

func GetClaims(c *fiber.Ctx) *transfer.SessionClaims {
	if claims, ok := c.Locals("claims").(*transfer.SessionClaims); ok {
		return claims
	}
	return nil
}

func GetAuthMode(c *fiber.Ctx) string {
	if mode, ok := c.Locals("auth_mode").(string); ok {
		return mode
	}
	return ""
}

// ResolveTenantID picks the first non-empty of: explicit request field,
// session tenant attribute, configured default.
func ResolveTenantID(c *fiber.Ctx, cfg config.Config, requested string) string {
	if requested != "" {
		return requested
	}
	if claims := GetClaims(c); claims != nil && claims.TenantID != "" {
		return claims.TenantID
	}
	return cfg.DefaultTenantID
}

// ResolveUnitID follows the same fallback chain as ResolveTenantID.
func ResolveUnitID(c *fiber.Ctx, cfg config.Config, requested string) string {
	if requested != "" {
		return requested
	}
	if claims := GetClaims(c); claims != nil && claims.UnitID != "" {
		return claims.UnitID
	}
	return cfg.DefaultUnitID
}

// writeServiceError maps a service failure onto a structured JSON response.
// Unclassified errors are reported as a plain 500 with their message.
func writeServiceError(c *fiber.Ctx, err error) error {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		body := fiber.Map{"ok": false, "error": svcErr.Code}
		if svcErr.Message != "" {
			body["message"] = svcErr.Message
		}
		if svcErr.Scopes != nil {
			body["scopes"] = svcErr.Scopes
		}
		return c.Status(svcErr.Status).JSON(body)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"ok": false, "error": err.Error(),
	})
}
