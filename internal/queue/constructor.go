package queue

import (
	"github.com/organix-app/integration-api/internal/service"
)

type Queue struct {
	ig service.InstagramService
}

func NewQueue(ig service.InstagramService) *Queue {
	return &Queue{ig: ig}
}

const TaskTypePublishTest = "instagram:publish_test"

type PublishTestPayload struct {
	TenantID string `json:"tenant_id"`
	ImageURL string `json:"image_url,omitempty"`
	Caption  string `json:"caption,omitempty"`
}
