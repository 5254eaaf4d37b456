package transfer

import "github.com/organix-app/integration-api/internal/models"

type RegisterTenantRequest struct {
	ExternalRef    string `json:"externalRef"`
	DisplayName    string `json:"displayName"`
	LegalName      string `json:"legalName,omitempty"`
	ReaderEmail    string `json:"readerEmail"`
	ReaderPassword string `json:"readerPassword,omitempty"`
}

type ReaderInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

type RegisterTenantResult struct {
	OK      bool           `json:"ok"`
	Tenant  *models.Tenant `json:"tenant"`
	Reader  ReaderInfo     `json:"reader"`
	Warning string         `json:"warning,omitempty"`
}
