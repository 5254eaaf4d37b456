package models

import (
	"time"
)

const (
	AuditTenantRegistered   = "tenant_registered_with_reader"
	AuditManualConnected    = "manual_connected"
	AuditManualDisconnect   = "manual_disconnect"
	AuditDeletePostSuccess  = "delete_post_success"
	AuditPublishTestSuccess = "publish_test_success"
)

// AuditEvent is an append-only record of a state-changing or sensitive
// action. Payload is free-form JSON; rows are never mutated or deleted.
type AuditEvent struct {
	ID        int64          `db:"id" json:"id"`
	TenantID  string         `db:"tenant_id" json:"tenant_id"`
	Provider  string         `db:"provider" json:"provider"`
	EventType string         `db:"event_type" json:"event_type"`
	Payload   map[string]any `db:"payload" json:"payload"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
