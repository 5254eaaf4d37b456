package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/organix-app/integration-api/internal/repository"
)

const expiryWarningWindow = 7 * 24 * time.Hour

// CredentialExpiryJob flags credentials that are about to expire. Long-lived
// tokens here come from a manual connect, so expiry cannot be fixed
// automatically; operators have to reconnect the account.
type CredentialExpiryJob struct {
	cred repository.CredentialRepository
}

func NewCredentialExpiryJob(cred repository.CredentialRepository) *CredentialExpiryJob {
	return &CredentialExpiryJob{cred: cred}
}

func (j *CredentialExpiryJob) CheckExpiring() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	creds, err := j.cred.ListExpiring(ctx, now.Add(expiryWarningWindow))
	if err != nil {
		slog.Warn("credential expiry scan failed", "error", err.Error())
		return
	}

	for _, c := range creds {
		expired := c.TokenExpiresAt != nil && c.TokenExpiresAt.Before(now)
		slog.Warn("credential nearing expiry",
			"tenant_id", c.TenantID,
			"social_account_id", c.SocialAccountID,
			"token_expires_at", c.TokenExpiresAt,
			"expired", expired,
		)
	}
}
