package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/organix-app/integration-api/internal/models"
)

type CredentialRepository interface {
	Upsert(ctx context.Context, c *models.Credential) error
	// GetByAccount returns nil when no row exists or when the stored
	// ciphertext/iv pair is incomplete; a half-written credential is as good
	// as none.
	GetByAccount(ctx context.Context, tenantID string, accountID int64) (*models.Credential, error)
	// ListExpiring returns credentials whose expiry falls before the given
	// time. Rows without an expiry are skipped.
	ListExpiring(ctx context.Context, before time.Time) ([]*models.Credential, error)
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Upsert(ctx context.Context, c *models.Credential) error {
	query := `
		INSERT INTO tenant_social_credential (
			tenant_id,
			social_account_id,
			token_ciphertext,
			token_iv,
			scopes,
			token_expires_at,
			refreshed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, social_account_id) DO UPDATE SET
			token_ciphertext = EXCLUDED.token_ciphertext,
			token_iv = EXCLUDED.token_iv,
			scopes = EXCLUDED.scopes,
			token_expires_at = EXCLUDED.token_expires_at,
			refreshed_at = EXCLUDED.refreshed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		c.TenantID,
		c.SocialAccountID,
		c.TokenCiphertext,
		c.TokenIV,
		pq.Array(c.Scopes),
		c.TokenExpiresAt,
		time.Now().UTC(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *credentialRepository) GetByAccount(ctx context.Context, tenantID string, accountID int64) (*models.Credential, error) {
	query := `
		SELECT tenant_id, social_account_id, COALESCE(token_ciphertext, ''),
			COALESCE(token_iv, ''), scopes, token_expires_at, refreshed_at
		FROM tenant_social_credential
		WHERE tenant_id = $1 AND social_account_id = $2
	`

	var c models.Credential
	var scopes pq.StringArray
	err := r.db.QueryRowContext(ctx, query, tenantID, accountID).Scan(
		&c.TenantID, &c.SocialAccountID, &c.TokenCiphertext,
		&c.TokenIV, &scopes, &c.TokenExpiresAt, &c.RefreshedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	if c.TokenCiphertext == "" || c.TokenIV == "" {
		return nil, nil
	}

	c.Scopes = scopes
	return &c, nil
}

func (r *credentialRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.Credential, error) {
	query := `
		SELECT tenant_id, social_account_id, scopes, token_expires_at, refreshed_at
		FROM tenant_social_credential
		WHERE token_expires_at IS NOT NULL AND token_expires_at < $1
	`

	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		var c models.Credential
		var scopes pq.StringArray
		err := rows.Scan(&c.TenantID, &c.SocialAccountID, &scopes, &c.TokenExpiresAt, &c.RefreshedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		c.Scopes = scopes
		creds = append(creds, &c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return creds, nil
}
