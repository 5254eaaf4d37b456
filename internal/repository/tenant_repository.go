package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/organix-app/integration-api/internal/models"
)

type TenantRepository interface {
	Upsert(ctx context.Context, t *models.Tenant) (*models.Tenant, error)
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
}

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Upsert(ctx context.Context, t *models.Tenant) (*models.Tenant, error) {
	query := `
		INSERT INTO tenant (external_ref, display_name, legal_name, status)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (external_ref) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			legal_name = EXCLUDED.legal_name,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, external_ref, display_name, COALESCE(legal_name, ''), status, created_at, updated_at
	`

	var out models.Tenant
	err := r.db.QueryRowContext(ctx, query, t.ExternalRef, t.DisplayName, t.LegalName, t.Status).
		Scan(&out.ID, &out.ExternalRef, &out.DisplayName, &out.LegalName, &out.Status, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &out, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	query := `SELECT id, external_ref, display_name, COALESCE(legal_name, ''), status, created_at, updated_at
		FROM tenant WHERE id = $1`

	var t models.Tenant
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.ExternalRef, &t.DisplayName, &t.LegalName, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &t, nil
}
