package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/organix-app/integration-api/internal/models"
)

type AuditRepository interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Insert appends one audit row. Callers treat failures as best-effort: the
// error is returned for logging but must never fail the parent operation.
func (r *auditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO integration_audit_event (tenant_id, provider, event_type, payload)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.db.ExecContext(ctx, query, event.TenantID, event.Provider, event.EventType, payload)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
