package models

import (
	"time"
)

// Credential is the encrypted access token for one social account. Ciphertext
// and IV are always written together; a row where either is blank is treated
// as no credential at all.
type Credential struct {
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	SocialAccountID int64      `db:"social_account_id" json:"social_account_id"`
	TokenCiphertext string     `db:"token_ciphertext" json:"-"`
	TokenIV         string     `db:"token_iv" json:"-"`
	Scopes          []string   `db:"scopes" json:"scopes"`
	TokenExpiresAt  *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	RefreshedAt     time.Time  `db:"refreshed_at" json:"refreshed_at"`
}
