package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organix-app/integration-api/internal/transfer"
)

type stubInstagramService struct {
	publishCalls int
	lastActor    transfer.Actor
	lastAuthMode string
	lastReq      *transfer.PublishTestRequest
	publishErr   error
}

func (s *stubInstagramService) ManualConnect(_ context.Context, _ transfer.Actor, _ *transfer.ManualConnectRequest) (*transfer.ConnectResult, error) {
	return nil, errors.New("not used")
}

func (s *stubInstagramService) Disconnect(_ context.Context, _ transfer.Actor, _, _ string) (*transfer.DisconnectResult, error) {
	return nil, errors.New("not used")
}

func (s *stubInstagramService) Status(_ context.Context, _ string) (*transfer.StatusResult, error) {
	return nil, errors.New("not used")
}

func (s *stubInstagramService) PublishTest(_ context.Context, actor transfer.Actor, authMode string, req *transfer.PublishTestRequest) (*transfer.PublishTestResult, error) {
	s.publishCalls++
	s.lastActor = actor
	s.lastAuthMode = authMode
	s.lastReq = req
	if s.publishErr != nil {
		return nil, s.publishErr
	}
	return &transfer.PublishTestResult{
		OK:              true,
		Published:       true,
		TenantID:        req.TenantID,
		PublishResult:   map[string]any{"id": "17712345"},
		MediaCreationID: "178001",
	}, nil
}

func (s *stubInstagramService) DeletePost(_ context.Context, _ transfer.Actor, _ *transfer.DeletePostRequest) (*transfer.DeletePostResult, error) {
	return nil, errors.New("not used")
}

func publishTask(t *testing.T, payload PublishTestPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TaskTypePublishTest, raw)
}

func TestHandlePublishTestTask_RunsAsSystemActor(t *testing.T) {
	stub := &stubInstagramService{}
	q := NewQueue(stub)

	task := publishTask(t, PublishTestPayload{
		TenantID: "T1",
		ImageURL: "https://example.com/photo.jpg",
		Caption:  "hi",
	})

	err := q.HandlePublishTestTask(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.publishCalls)
	assert.Equal(t, transfer.SystemActor, stub.lastActor)
	assert.Equal(t, "queue", stub.lastAuthMode)
	assert.Equal(t, "T1", stub.lastReq.TenantID)
	assert.Equal(t, "https://example.com/photo.jpg", stub.lastReq.ImageURL)
	assert.Equal(t, "hi", stub.lastReq.Caption)
}

func TestHandlePublishTestTask_MalformedPayloadSkipsRetry(t *testing.T) {
	stub := &stubInstagramService{}
	q := NewQueue(stub)

	err := q.HandlePublishTestTask(context.Background(), asynq.NewTask(TaskTypePublishTest, []byte("not-json")))
	require.Error(t, err)

	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payload must not be retried")
	assert.Zero(t, stub.publishCalls)
}

func TestHandlePublishTestTask_PublishFailureSkipsRetry(t *testing.T) {
	stub := &stubInstagramService{publishErr: errors.New("instagram_account_not_found")}
	q := NewQueue(stub)

	err := q.HandlePublishTestTask(context.Background(), publishTask(t, PublishTestPayload{TenantID: "T1"}))
	require.Error(t, err)

	assert.True(t, errors.Is(err, asynq.SkipRetry), "failed publish must not be retried")
	assert.Equal(t, 1, stub.publishCalls)
}
