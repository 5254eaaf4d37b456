package models

import (
	"time"
)

const (
	ProviderInstagram = "instagram"

	AccountStatusActive       = "active"
	AccountStatusDisconnected = "disconnected"
)

type SocialAccount struct {
	ID                  int64     `db:"id" json:"id"`
	TenantID            string    `db:"tenant_id" json:"tenant_id"`
	UnitID              string    `db:"unit_id" json:"unit_id,omitempty"`
	Provider            string    `db:"provider" json:"provider"`
	ExternalAccountID   string    `db:"external_account_id" json:"external_account_id"`
	ExternalAccountName string    `db:"external_account_name" json:"external_account_name"`
	PageID              string    `db:"page_id" json:"page_id"`
	PageName            string    `db:"page_name" json:"page_name"`
	Status              string    `db:"status" json:"status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
