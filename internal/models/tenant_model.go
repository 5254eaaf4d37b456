package models

import (
	"time"
)

type Tenant struct {
	ID          string    `db:"id" json:"id"`
	ExternalRef string    `db:"external_ref" json:"external_ref"`
	DisplayName string    `db:"display_name" json:"display_name"`
	LegalName   string    `db:"legal_name" json:"legal_name,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
