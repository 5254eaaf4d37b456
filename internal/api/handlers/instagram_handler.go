package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/queue"
	"github.com/organix-app/integration-api/internal/service"
	"github.com/organix-app/integration-api/internal/transfer"
)

type InstagramHandler struct {
	ig    service.InstagramService
	tasks *asynq.Client
	cfg   config.Config
}

func NewInstagramHandler(ig service.InstagramService, tasks *asynq.Client, cfg config.Config) *InstagramHandler {
	return &InstagramHandler{ig: ig, tasks: tasks, cfg: cfg}
}

func (h *InstagramHandler) ManualConnect(c *fiber.Ctx) error {
	var req transfer.ManualConnectRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "error": "invalid_body",
		})
	}

	req.TenantID = ResolveTenantID(c, h.cfg, req.TenantID)

	result, err := h.ig.ManualConnect(c.Context(), GetActor(c), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InstagramHandler) Disconnect(c *fiber.Ctx) error {
	var req struct {
		TenantID string `json:"tenantId"`
		UnitID   string `json:"unitId"`
	}
	// Body is optional; tenant and unit can come from the session.
	_ = c.BodyParser(&req)

	tenantID := ResolveTenantID(c, h.cfg, req.TenantID)
	unitID := ResolveUnitID(c, h.cfg, req.UnitID)

	result, err := h.ig.Disconnect(c.Context(), GetActor(c), tenantID, unitID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InstagramHandler) Status(c *fiber.Ctx) error {
	tenantID := ResolveTenantID(c, h.cfg, c.Query("tenantId"))

	result, err := h.ig.Status(c.Context(), tenantID)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *InstagramHandler) PublishTest(c *fiber.Ctx) error {
	var req transfer.PublishTestRequest
	_ = c.BodyParser(&req)

	req.TenantID = ResolveTenantID(c, h.cfg, req.TenantID)

	result, err := h.ig.PublishTest(c.Context(), GetActor(c), GetAuthMode(c), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// PublishQueue enqueues the same publish run to execute in the background,
// optionally after delaySeconds.
func (h *InstagramHandler) PublishQueue(c *fiber.Ctx) error {
	var req transfer.PublishTestRequest
	_ = c.BodyParser(&req)

	req.TenantID = ResolveTenantID(c, h.cfg, req.TenantID)
	if req.TenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok": false, "error": service.CodeTenantIDRequired,
		})
	}

	delay := time.Duration(c.QueryInt("delaySeconds", 0)) * time.Second

	err := queue.EnqueuePublishTest(h.tasks, queue.PublishTestPayload{
		TenantID: req.TenantID,
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	}, delay)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"ok": false, "error": "enqueue_failed",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"ok": true, "queued": true, "tenantId": req.TenantID,
	})
}

func (h *InstagramHandler) DeletePost(c *fiber.Ctx) error {
	var req transfer.DeletePostRequest
	_ = c.BodyParser(&req)

	req.TenantID = ResolveTenantID(c, h.cfg, req.TenantID)

	result, err := h.ig.DeletePost(c.Context(), GetActor(c), &req)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
