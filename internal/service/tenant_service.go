package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/organix-app/integration-api/internal/models"
	"github.com/organix-app/integration-api/internal/repository"
	"github.com/organix-app/integration-api/internal/transfer"
	"github.com/organix-app/integration-api/pkg/utils"
)

const tempPasswordLength = 14

// IdentityAdmin is the identity provider's management surface: it issues the
// reader account that goes with a newly registered tenant.
type IdentityAdmin interface {
	CreateUser(ctx context.Context, email, password string, attributes map[string]string) (string, error)
}

type TenantService interface {
	RegisterTenant(ctx context.Context, actor transfer.Actor, req *transfer.RegisterTenantRequest) (*transfer.RegisterTenantResult, error)
}

type tenantService struct {
	tenants  repository.TenantRepository
	audit    repository.AuditRepository
	identity IdentityAdmin
}

func NewTenantService(tenants repository.TenantRepository, audit repository.AuditRepository, identity IdentityAdmin) TenantService {
	return &tenantService{tenants: tenants, audit: audit, identity: identity}
}

// RegisterTenant upserts the tenant by external reference and provisions a
// reader identity for it. Re-registering the same external reference updates
// the tenant row in place.
func (s *tenantService) RegisterTenant(ctx context.Context, actor transfer.Actor, req *transfer.RegisterTenantRequest) (*transfer.RegisterTenantResult, error) {
	externalRef := strings.TrimSpace(req.ExternalRef)
	displayName := strings.TrimSpace(req.DisplayName)
	readerEmail := strings.ToLower(strings.TrimSpace(req.ReaderEmail))
	readerPassword := strings.TrimSpace(req.ReaderPassword)

	if externalRef == "" || displayName == "" || readerEmail == "" {
		return nil, errValidation(CodeMissingRequiredFields)
	}

	tenant, err := s.tenants.Upsert(ctx, &models.Tenant{
		ExternalRef: externalRef,
		DisplayName: displayName,
		LegalName:   strings.TrimSpace(req.LegalName),
		Status:      "active",
	})
	if err != nil {
		return nil, err
	}

	generatedPassword := readerPassword == ""
	if generatedPassword {
		readerPassword, err = utils.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, err
		}
	}

	readerID, err := s.identity.CreateUser(ctx, readerEmail, readerPassword, map[string]string{
		"role":      "reader",
		"tenant_id": tenant.ID,
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	s.appendAudit(ctx, tenant.ID, models.AuditTenantRegistered, map[string]any{
		"actor_user_id":       actor.UserID,
		"actor_email":         actor.Email,
		"tenant_external_ref": tenant.ExternalRef,
		"reader_user_id":      readerID,
		"reader_email":        readerEmail,
	})

	result := &transfer.RegisterTenantResult{
		OK:     true,
		Tenant: tenant,
		Reader: transfer.ReaderInfo{
			ID:    readerID,
			Email: readerEmail,
			Role:  "reader",
		},
	}
	if generatedPassword {
		result.Reader.Password = readerPassword
		result.Warning = "generated_temp_password"
	}

	return result, nil
}

func (s *tenantService) appendAudit(ctx context.Context, tenantID, eventType string, payload map[string]any) {
	err := s.audit.Insert(ctx, &models.AuditEvent{
		TenantID:  tenantID,
		Provider:  "organix",
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		slog.Warn("audit write failed", "event_type", eventType, "error", err.Error())
	}
}
