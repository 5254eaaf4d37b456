package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/transfer"
	"github.com/organix-app/integration-api/pkg/utils"
)

// superAdminEmail is always admitted regardless of the configured allow-list.
const superAdminEmail = "alanweb7@gmail.com"

const PublishTestSecretHeader = "x-publish-test-secret"

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

func (m *AuthMiddleware) isAdmin(email string) bool {
	email = strings.ToLower(email)
	if email == superAdminEmail {
		return true
	}
	for _, allowed := range m.cfg.AdminEmails {
		if email == allowed {
			return true
		}
	}
	return false
}

// session validates the bearer token and stores the actor and claims. A nil
// claims return means the rejection response has already been written.
func (m *AuthMiddleware) session(c *fiber.Ctx) (*transfer.SessionClaims, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"ok": false, "error": "missing_authorization",
		})
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
	if err != nil {
		slog.Info(err.Error())
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"ok": false, "error": "unauthorized",
		})
	}

	c.Locals("actor", transfer.Actor{UserID: claims.UserID, Email: claims.Email})
	c.Locals("claims", claims)
	c.Locals("auth_mode", "user_jwt")
	return claims, nil
}

// RequireSession admits any caller with a valid session token.
func (m *AuthMiddleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.session(c)
		if claims == nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin admits operators on the allow-list. With allowSecretBypass the
// pre-shared operational secret admits a synthetic system actor without a
// session; a presented secret with none configured is a server
// misconfiguration, and a mismatch is rejected outright.
func (m *AuthMiddleware) RequireAdmin(allowSecretBypass bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if allowSecretBypass {
			if provided := c.Get(PublishTestSecretHeader); provided != "" {
				if m.cfg.PublishTestSecret == "" {
					return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
						"ok": false, "error": "publish_test_secret_not_configured",
					})
				}
				if provided != m.cfg.PublishTestSecret {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
						"ok": false, "error": "invalid_publish_test_secret",
					})
				}
				c.Locals("actor", transfer.SystemActor)
				c.Locals("auth_mode", "secret_bypass")
				return c.Next()
			}
		}

		claims, err := m.session(c)
		if claims == nil {
			return err
		}

		if !m.isAdmin(claims.Email) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok": false, "error": "forbidden_admin_only",
			})
		}

		return c.Next()
	}
}
