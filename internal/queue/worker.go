package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/organix-app/integration-api/internal/transfer"
)

// HandlePublishTestTask runs a queued publish as the synthetic system actor.
// The workflow already bounds its own polling, so failed runs are not retried
// by the queue.
func (q *Queue) HandlePublishTestTask(ctx context.Context, t *asynq.Task) error {
	var payload PublishTestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal publish payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := q.ig.PublishTest(ctx, transfer.SystemActor, "queue", &transfer.PublishTestRequest{
		TenantID: payload.TenantID,
		ImageURL: payload.ImageURL,
		Caption:  payload.Caption,
	})
	if err != nil {
		slog.Warn("queued publish failed", "tenant_id", payload.TenantID, "error", err.Error())
		return fmt.Errorf("publish test: %v: %w", err, asynq.SkipRetry)
	}

	slog.Info("queued publish succeeded",
		"tenant_id", payload.TenantID,
		"media_id", result.PublishResult["id"],
		"creation_id", result.MediaCreationID,
	)
	return nil
}
