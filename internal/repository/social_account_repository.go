package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/organix-app/integration-api/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	// GetCurrent returns the most recently updated account for the tenant and
	// provider, or nil when none exists. With activeOnly the selection is
	// restricted to status=active (publish/delete flows); without it the
	// latest row regardless of status is returned (status-display flows).
	GetCurrent(ctx context.Context, tenantID, provider string, activeOnly bool) (*models.SocialAccount, error)
	SetStatusByUnit(ctx context.Context, tenantID, unitID, provider, status string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO tenant_social_account (
			tenant_id,
			unit_id,
			provider,
			external_account_id,
			external_account_name,
			page_id,
			page_name,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, provider, external_account_id) DO UPDATE SET
			unit_id = EXCLUDED.unit_id,
			external_account_name = EXCLUDED.external_account_name,
			page_id = EXCLUDED.page_id,
			page_name = EXCLUDED.page_name,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sa.TenantID,
		sa.UnitID,
		sa.Provider,
		sa.ExternalAccountID,
		sa.ExternalAccountName,
		sa.PageID,
		sa.PageName,
		sa.Status,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetCurrent(ctx context.Context, tenantID, provider string, activeOnly bool) (*models.SocialAccount, error) {
	query := `
		SELECT id, tenant_id, COALESCE(unit_id, ''), provider, external_account_id,
			COALESCE(external_account_name, ''), COALESCE(page_id, ''), COALESCE(page_name, ''),
			status, created_at, updated_at
		FROM tenant_social_account
		WHERE tenant_id = $1 AND provider = $2
	`
	args := []interface{}{tenantID, provider}

	if activeOnly {
		query += ` AND status = $3`
		args = append(args, models.AccountStatusActive)
	}

	// id DESC breaks ties between equal timestamps so repeated reads agree.
	query += ` ORDER BY updated_at DESC, id DESC LIMIT 1`

	var sa models.SocialAccount
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&sa.ID, &sa.TenantID, &sa.UnitID, &sa.Provider, &sa.ExternalAccountID,
		&sa.ExternalAccountName, &sa.PageID, &sa.PageName,
		&sa.Status, &sa.CreatedAt, &sa.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

func (r *socialAccountRepository) SetStatusByUnit(ctx context.Context, tenantID, unitID, provider, status string) error {
	query := `
		UPDATE tenant_social_account
		SET status = $4, updated_at = CURRENT_TIMESTAMP
		WHERE tenant_id = $1 AND unit_id = $2 AND provider = $3
	`
	_, err := r.db.ExecContext(ctx, query, tenantID, unitID, provider, status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
