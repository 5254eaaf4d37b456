package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/graph"
	"github.com/organix-app/integration-api/internal/models"
	"github.com/organix-app/integration-api/internal/repository"
	"github.com/organix-app/integration-api/internal/transfer"
	"github.com/organix-app/integration-api/pkg/utils"
)

const (
	publishPollAttempts = 8
	publishPollInterval = 1500 * time.Millisecond

	defaultTestImageURL = "https://upload.wikimedia.org/wikipedia/commons/3/3f/Fronalpstock_big.jpg"
)

// Either scope name satisfies the publish gate; the platform renamed the
// grant and existing credentials may carry either.
var publishScopes = []string{"instagram_content_publish", "instagram_business_content_publish"}

// Scope set recorded on manual connect. The token arrives without scope
// metadata, so the grants requested during the manual flow are recorded as-is.
var manualConnectScopes = []string{
	"pages_show_list",
	"pages_read_engagement",
	"business_management",
	"instagram_basic",
	"instagram_content_publish",
	"instagram_business_basic",
	"instagram_business_content_publish",
}

// GraphClient is the slice of the Graph API the workflow drives.
type GraphClient interface {
	CreateMediaContainer(ctx context.Context, igUserID, imageURL, caption, accessToken string) (string, error)
	GetContainerStatus(ctx context.Context, creationID, accessToken string) (*graph.ContainerStatus, error)
	PublishContainer(ctx context.Context, igUserID, creationID, accessToken string) (string, error)
	DeleteMedia(ctx context.Context, mediaID, accessToken string) (map[string]any, error)
}

type InstagramService interface {
	ManualConnect(ctx context.Context, actor transfer.Actor, req *transfer.ManualConnectRequest) (*transfer.ConnectResult, error)
	Disconnect(ctx context.Context, actor transfer.Actor, tenantID, unitID string) (*transfer.DisconnectResult, error)
	Status(ctx context.Context, tenantID string) (*transfer.StatusResult, error)
	PublishTest(ctx context.Context, actor transfer.Actor, authMode string, req *transfer.PublishTestRequest) (*transfer.PublishTestResult, error)
	DeletePost(ctx context.Context, actor transfer.Actor, req *transfer.DeletePostRequest) (*transfer.DeletePostResult, error)
}

type instagramService struct {
	cfg   config.Config
	sa    repository.SocialAccountRepository
	cred  repository.CredentialRepository
	audit repository.AuditRepository
	graph GraphClient
	sleep func(time.Duration)
}

func NewInstagramService(
	cfg config.Config,
	sa repository.SocialAccountRepository,
	cred repository.CredentialRepository,
	audit repository.AuditRepository,
	graphClient GraphClient) InstagramService {
	return &instagramService{
		cfg:   cfg,
		sa:    sa,
		cred:  cred,
		audit: audit,
		graph: graphClient,
		sleep: time.Sleep,
	}
}

// appendAudit is best-effort: a failed audit write is logged and never fails
// the parent operation.
func (s *instagramService) appendAudit(ctx context.Context, tenantID, eventType string, payload map[string]any) {
	err := s.audit.Insert(ctx, &models.AuditEvent{
		TenantID:  tenantID,
		Provider:  models.ProviderInstagram,
		EventType: eventType,
		Payload:   payload,
	})
	if err != nil {
		slog.Warn("audit write failed", "event_type", eventType, "error", err.Error())
	}
}

func (s *instagramService) ManualConnect(ctx context.Context, actor transfer.Actor, req *transfer.ManualConnectRequest) (*transfer.ConnectResult, error) {
	if req.TenantID == "" || req.AccessToken == "" || req.PageID == "" || req.IGBusinessAccountID == "" {
		return nil, errValidation(CodeMissingRequiredFields)
	}

	if s.cfg.TokenEncryptionKey == "" {
		return nil, errInternal(CodeMissingEncryptionKey)
	}

	ciphertext, iv, err := utils.EncryptToken(req.AccessToken, s.cfg.TokenEncryptionKey)
	if err != nil {
		return nil, errInternal(CodeCredentialUnreadable)
	}

	accountID, err := s.sa.Upsert(ctx, &models.SocialAccount{
		TenantID:            req.TenantID,
		Provider:            models.ProviderInstagram,
		ExternalAccountID:   req.IGBusinessAccountID,
		ExternalAccountName: req.IGUsername,
		PageID:              req.PageID,
		PageName:            req.PageName,
		Status:              models.AccountStatusActive,
	})
	if err != nil {
		return nil, err
	}

	err = s.cred.Upsert(ctx, &models.Credential{
		TenantID:        req.TenantID,
		SocialAccountID: accountID,
		TokenCiphertext: ciphertext,
		TokenIV:         iv,
		Scopes:          manualConnectScopes,
		TokenExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, req.TenantID, models.AuditManualConnected, map[string]any{
		"actor_user_id": actor.UserID,
		"actor_email":   actor.Email,
		"page_id":       req.PageID,
		"ig_user_id":    req.IGBusinessAccountID,
	})

	return &transfer.ConnectResult{OK: true, Connected: true}, nil
}

func (s *instagramService) Disconnect(ctx context.Context, actor transfer.Actor, tenantID, unitID string) (*transfer.DisconnectResult, error) {
	if tenantID == "" {
		return nil, errValidation(CodeTenantIDRequired)
	}
	if unitID == "" {
		return nil, errValidation(CodeUnitIDRequired)
	}

	err := s.sa.SetStatusByUnit(ctx, tenantID, unitID, models.ProviderInstagram, models.AccountStatusDisconnected)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, tenantID, models.AuditManualDisconnect, map[string]any{
		"by_user_id": actor.UserID,
		"by_email":   actor.Email,
	})

	return &transfer.DisconnectResult{OK: true, Disconnected: true, TenantID: tenantID, UnitID: unitID}, nil
}

// Status reports the current account and credential without decrypting
// anything.
func (s *instagramService) Status(ctx context.Context, tenantID string) (*transfer.StatusResult, error) {
	if tenantID == "" {
		return nil, errValidation(CodeTenantIDRequired)
	}

	account, err := s.sa.GetCurrent(ctx, tenantID, models.ProviderInstagram, false)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &transfer.StatusResult{OK: true, Connected: false, TenantID: tenantID}, nil
	}

	result := &transfer.StatusResult{
		OK:            true,
		Connected:     account.Status == models.AccountStatusActive,
		TenantID:      tenantID,
		AccountStatus: account.Status,
		Account: transfer.AccountSummary{
			IGUserID: account.ExternalAccountID,
			Username: account.ExternalAccountName,
			PageID:   account.PageID,
		},
	}

	cred, err := s.cred.GetByAccount(ctx, tenantID, account.ID)
	if err != nil {
		return nil, err
	}
	if cred != nil {
		result.HasCredential = true
		result.Scopes = cred.Scopes
		result.TokenExpiresAt = cred.TokenExpiresAt
		refreshedAt := cred.RefreshedAt
		result.RefreshedAt = &refreshedAt
	}

	return result, nil
}

func hasPublishScope(scopes []string) bool {
	for _, granted := range scopes {
		for _, required := range publishScopes {
			if granted == required {
				return true
			}
		}
	}
	return false
}

func defaultCaption() string {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return fmt.Sprintf("Post de validação Organix ✅ (%s)", time.Now().In(loc).Format("02/01/2006 15:04:05"))
}

// PublishTest runs the staged publish workflow: decrypt the stored token,
// gate on publish scope, create a media container, poll it until terminal or
// the attempt budget runs out, then publish.
func (s *instagramService) PublishTest(ctx context.Context, actor transfer.Actor, authMode string, req *transfer.PublishTestRequest) (*transfer.PublishTestResult, error) {
	if req.TenantID == "" {
		return nil, errValidation(CodeTenantIDRequired)
	}

	if s.cfg.TokenEncryptionKey == "" {
		return nil, errInternal(CodeMissingEncryptionKey)
	}

	imageURL := req.ImageURL
	if imageURL == "" {
		imageURL = defaultTestImageURL
	}
	caption := req.Caption
	if caption == "" {
		caption = defaultCaption()
	}

	account, err := s.sa.GetCurrent(ctx, req.TenantID, models.ProviderInstagram, false)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errNotFound(CodeAccountNotFound)
	}
	if account.Status != models.AccountStatusActive {
		return nil, errValidation(CodeAccountInactive)
	}

	cred, err := s.cred.GetByAccount(ctx, req.TenantID, account.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errNotFound(CodeCredentialNotFound)
	}

	if !hasPublishScope(cred.Scopes) {
		return nil, &Error{
			Code:   CodeMissingScopePublish,
			Status: http.StatusBadRequest,
			Scopes: cred.Scopes,
		}
	}

	accessToken, err := utils.DecryptToken(cred.TokenCiphertext, cred.TokenIV, s.cfg.TokenEncryptionKey)
	if err != nil {
		return nil, errInternal(CodeCredentialUnreadable)
	}

	igUserID := account.ExternalAccountID

	creationID, err := s.graph.CreateMediaContainer(ctx, igUserID, imageURL, caption, accessToken)
	if err != nil {
		return nil, errUpstream(err)
	}
	if creationID == "" {
		return nil, errInternal(CodeMediaCreationIDMissing)
	}

	status, err := s.awaitContainer(ctx, creationID, accessToken)
	if err != nil {
		return nil, err
	}

	mediaID, err := s.graph.PublishContainer(ctx, igUserID, creationID, accessToken)
	if err != nil {
		return nil, errUpstream(err)
	}

	s.appendAudit(ctx, req.TenantID, models.AuditPublishTestSuccess, map[string]any{
		"actor_user_id":     actor.UserID,
		"actor_email":       actor.Email,
		"ig_user_id":        igUserID,
		"page_id":           account.PageID,
		"media_creation_id": creationID,
		"media_id":          mediaID,
		"image_url":         imageURL,
	})

	var mediaStatus map[string]any
	if status != nil {
		mediaStatus = status.Raw
	}

	return &transfer.PublishTestResult{
		OK:        true,
		Published: true,
		TenantID:  req.TenantID,
		Account: transfer.AccountSummary{
			IGUserID: igUserID,
			Username: account.ExternalAccountName,
			PageID:   account.PageID,
		},
		PublishResult:   map[string]any{"id": mediaID},
		MediaCreationID: creationID,
		ImageURL:        imageURL,
		Caption:         caption,
		TokenExpiresAt:  cred.TokenExpiresAt,
		AuthMode:        authMode,
		MediaStatus:     mediaStatus,
	}, nil
}

// awaitContainer polls the container status up to publishPollAttempts times,
// publishPollInterval apart. FINISHED advances; ERROR and EXPIRED abort
// immediately. Exhausting the budget while still IN_PROGRESS is not fatal:
// the workflow proceeds to publish and lets the platform reject an unfinished
// container itself.
func (s *instagramService) awaitContainer(ctx context.Context, creationID, accessToken string) (*graph.ContainerStatus, error) {
	var status *graph.ContainerStatus

	for i := 0; i < publishPollAttempts; i++ {
		var err error
		status, err = s.graph.GetContainerStatus(ctx, creationID, accessToken)
		if err != nil {
			return nil, errUpstream(err)
		}

		switch status.StatusCode {
		case graph.StatusFinished:
			return status, nil
		case graph.StatusError, graph.StatusExpired:
			return nil, &Error{
				Code:   "media_container_" + strings.ToLower(status.StatusCode),
				Status: http.StatusBadGateway,
			}
		}

		if i < publishPollAttempts-1 {
			s.sleep(publishPollInterval)
		}
	}

	return status, nil
}

func (s *instagramService) DeletePost(ctx context.Context, actor transfer.Actor, req *transfer.DeletePostRequest) (*transfer.DeletePostResult, error) {
	if req.TenantID == "" {
		return nil, errValidation(CodeTenantIDRequired)
	}
	if req.MediaID == "" {
		return nil, errValidation(CodeMediaIDRequired)
	}

	if s.cfg.TokenEncryptionKey == "" {
		return nil, errInternal(CodeMissingEncryptionKey)
	}

	account, err := s.sa.GetCurrent(ctx, req.TenantID, models.ProviderInstagram, true)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errNotFound(CodeAccountNotFound)
	}

	cred, err := s.cred.GetByAccount(ctx, req.TenantID, account.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, errNotFound(CodeCredentialNotFound)
	}

	accessToken, err := utils.DecryptToken(cred.TokenCiphertext, cred.TokenIV, s.cfg.TokenEncryptionKey)
	if err != nil {
		return nil, errInternal(CodeCredentialUnreadable)
	}

	deleteResult, err := s.graph.DeleteMedia(ctx, req.MediaID, accessToken)
	if err != nil {
		return nil, errUpstream(err)
	}

	s.appendAudit(ctx, req.TenantID, models.AuditDeletePostSuccess, map[string]any{
		"actor_user_id": actor.UserID,
		"actor_email":   actor.Email,
		"media_id":      req.MediaID,
		"ig_user_id":    account.ExternalAccountID,
		"page_id":       account.PageID,
		"delete_result": deleteResult,
	})

	return &transfer.DeletePostResult{
		OK:           true,
		Deleted:      true,
		TenantID:     req.TenantID,
		MediaID:      req.MediaID,
		DeleteResult: deleteResult,
	}, nil
}
