package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/organix-app/integration-api/configs"
	"github.com/organix-app/integration-api/internal/graph"
	"github.com/organix-app/integration-api/internal/models"
	"github.com/organix-app/integration-api/internal/transfer"
	"github.com/organix-app/integration-api/pkg/utils"
)

const testKeySeed = "test-key-seed"

var testActor = transfer.Actor{UserID: "admin-1", Email: "ops@example.com"}

type mockAccountRepo struct {
	accounts []*models.SocialAccount
	nextID   int64
	upserts  int
}

func (m *mockAccountRepo) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	m.upserts++
	for _, existing := range m.accounts {
		if existing.TenantID == sa.TenantID && existing.Provider == sa.Provider &&
			existing.ExternalAccountID == sa.ExternalAccountID {
			existing.UnitID = sa.UnitID
			existing.ExternalAccountName = sa.ExternalAccountName
			existing.PageID = sa.PageID
			existing.PageName = sa.PageName
			existing.Status = sa.Status
			existing.UpdatedAt = time.Now()
			return existing.ID, nil
		}
	}
	m.nextID++
	stored := *sa
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	m.accounts = append(m.accounts, &stored)
	return stored.ID, nil
}

func (m *mockAccountRepo) GetCurrent(_ context.Context, tenantID, provider string, activeOnly bool) (*models.SocialAccount, error) {
	var current *models.SocialAccount
	for _, sa := range m.accounts {
		if sa.TenantID != tenantID || sa.Provider != provider {
			continue
		}
		if activeOnly && sa.Status != models.AccountStatusActive {
			continue
		}
		if current == nil || sa.UpdatedAt.After(current.UpdatedAt) ||
			(sa.UpdatedAt.Equal(current.UpdatedAt) && sa.ID > current.ID) {
			current = sa
		}
	}
	return current, nil
}

func (m *mockAccountRepo) SetStatusByUnit(_ context.Context, tenantID, unitID, provider, status string) error {
	for _, sa := range m.accounts {
		if sa.TenantID == tenantID && sa.UnitID == unitID && sa.Provider == provider {
			sa.Status = status
			sa.UpdatedAt = time.Now()
		}
	}
	return nil
}

type mockCredRepo struct {
	creds   map[string]*models.Credential
	upserts int
}

func newMockCredRepo() *mockCredRepo {
	return &mockCredRepo{creds: map[string]*models.Credential{}}
}

func credKey(tenantID string, accountID int64) string {
	return fmt.Sprintf("%s/%d", tenantID, accountID)
}

func (m *mockCredRepo) Upsert(_ context.Context, c *models.Credential) error {
	m.upserts++
	stored := *c
	stored.RefreshedAt = time.Now()
	m.creds[credKey(c.TenantID, c.SocialAccountID)] = &stored
	return nil
}

func (m *mockCredRepo) GetByAccount(_ context.Context, tenantID string, accountID int64) (*models.Credential, error) {
	c, ok := m.creds[credKey(tenantID, accountID)]
	if !ok || c.TokenCiphertext == "" || c.TokenIV == "" {
		return nil, nil
	}
	return c, nil
}

func (m *mockCredRepo) ListExpiring(_ context.Context, before time.Time) ([]*models.Credential, error) {
	var out []*models.Credential
	for _, c := range m.creds {
		if c.TokenExpiresAt != nil && c.TokenExpiresAt.Before(before) {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockAuditRepo struct {
	events []*models.AuditEvent
	err    error
}

func (m *mockAuditRepo) Insert(_ context.Context, event *models.AuditEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditRepo) byType(eventType string) []*models.AuditEvent {
	var out []*models.AuditEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeGraph struct {
	createID     string
	createErr    error
	statusSeq    []string
	statusErr    error
	publishID    string
	publishErr   error
	deleteResult map[string]any
	deleteErr    error

	createCalls  int
	statusCalls  int
	publishCalls int
	deleteCalls  int
}

func (f *fakeGraph) CreateMediaContainer(_ context.Context, _, _, _, _ string) (string, error) {
	f.createCalls++
	return f.createID, f.createErr
}

func (f *fakeGraph) GetContainerStatus(_ context.Context, _, _ string) (*graph.ContainerStatus, error) {
	idx := f.statusCalls
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	code := graph.StatusInProgress
	if idx < len(f.statusSeq) {
		code = f.statusSeq[idx]
	}
	return &graph.ContainerStatus{StatusCode: code, Raw: map[string]any{"status_code": code}}, nil
}

func (f *fakeGraph) PublishContainer(_ context.Context, _, _, _ string) (string, error) {
	f.publishCalls++
	return f.publishID, f.publishErr
}

func (f *fakeGraph) DeleteMedia(_ context.Context, _, _ string) (map[string]any, error) {
	f.deleteCalls++
	return f.deleteResult, f.deleteErr
}

type testEnv struct {
	svc      *instagramService
	accounts *mockAccountRepo
	creds    *mockCredRepo
	audits   *mockAuditRepo
	graph    *fakeGraph
	sleeps   []time.Duration
}

func newTestEnv(t *testing.T, fake *fakeGraph) *testEnv {
	t.Helper()

	env := &testEnv{
		accounts: &mockAccountRepo{},
		creds:    newMockCredRepo(),
		audits:   &mockAuditRepo{},
		graph:    fake,
	}

	cfg := config.Config{TokenEncryptionKey: testKeySeed}
	svc := NewInstagramService(cfg, env.accounts, env.creds, env.audits, fake).(*instagramService)
	svc.sleep = func(d time.Duration) {
		env.sleeps = append(env.sleeps, d)
	}
	env.svc = svc
	return env
}

// seedAccount stores an active account with an encrypted token and the given
// scopes.
func (env *testEnv) seedAccount(t *testing.T, tenantID string, scopes []string) *models.SocialAccount {
	t.Helper()

	accountID, err := env.accounts.Upsert(context.Background(), &models.SocialAccount{
		TenantID:            tenantID,
		Provider:            models.ProviderInstagram,
		ExternalAccountID:   "1789000001",
		ExternalAccountName: "organix.demo",
		PageID:              "page-77",
		Status:              models.AccountStatusActive,
	})
	require.NoError(t, err)

	ct, iv, err := utils.EncryptToken("long-lived-token", testKeySeed)
	require.NoError(t, err)

	err = env.creds.Upsert(context.Background(), &models.Credential{
		TenantID:        tenantID,
		SocialAccountID: accountID,
		TokenCiphertext: ct,
		TokenIV:         iv,
		Scopes:          scopes,
	})
	require.NoError(t, err)

	account, err := env.accounts.GetCurrent(context.Background(), tenantID, models.ProviderInstagram, true)
	require.NoError(t, err)
	return account
}

func asServiceError(t *testing.T, err error) *Error {
	t.Helper()
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "want *service.Error, got %v", err)
	return svcErr
}

func TestPublishTest_ScopeGateBlocksBeforeAnyNetworkCall(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{createID: "178001", publishID: "17710001"})
	env.seedAccount(t, "T1", []string{"instagram_basic"})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeMissingScopePublish, svcErr.Code)
	assert.Equal(t, []string{"instagram_basic"}, svcErr.Scopes)
	assert.Zero(t, env.graph.createCalls)
	assert.Zero(t, env.graph.statusCalls)
	assert.Zero(t, env.graph.publishCalls)
}

func TestPublishTest_PollingAdvancesOnFinished(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		publishID: "17710001",
		statusSeq: []string{graph.StatusInProgress, graph.StatusInProgress, graph.StatusFinished},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	result, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})
	require.NoError(t, err)

	assert.Equal(t, 3, env.graph.statusCalls)
	assert.Equal(t, 1, env.graph.publishCalls)
	assert.Equal(t, []time.Duration{publishPollInterval, publishPollInterval}, env.sleeps)
	assert.Equal(t, graph.StatusFinished, result.MediaStatus["status_code"])
}

func TestPublishTest_PollingAbortsOnTerminalError(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		statusSeq: []string{graph.StatusError},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, "media_container_error", svcErr.Code)
	assert.Equal(t, 1, env.graph.statusCalls)
	assert.Zero(t, env.graph.publishCalls)
}

func TestPublishTest_PollingAbortsOnExpired(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		statusSeq: []string{graph.StatusExpired},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, "media_container_expired", svcErr.Code)
	assert.Zero(t, env.graph.publishCalls)
}

func TestPublishTest_PollExhaustionStillAttemptsPublish(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		publishID: "17710001",
		// No FINISHED ever: every poll reports IN_PROGRESS.
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	result, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})
	require.NoError(t, err)

	assert.Equal(t, publishPollAttempts, env.graph.statusCalls)
	assert.Equal(t, 1, env.graph.publishCalls)
	assert.True(t, result.Published)
	assert.Equal(t, graph.StatusInProgress, result.MediaStatus["status_code"])
}

func TestPublishTest_MissingCreationID(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{createID: ""})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeMediaCreationIDMissing, svcErr.Code)
	assert.Zero(t, env.graph.statusCalls)
}

func TestPublishTest_UpstreamErrorMessagePropagates(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createErr: &graph.Error{Message: "Invalid OAuth access token", StatusCode: 400},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeUpstreamError, svcErr.Code)
	assert.Equal(t, "Invalid OAuth access token", svcErr.Message)
}

func TestPublishTest_EndToEnd(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		publishID: "17712345",
		statusSeq: []string{graph.StatusFinished},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	result, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{
		TenantID: "T1",
		ImageURL: "https://example.com/photo.jpg",
		Caption:  "hi",
	})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.True(t, result.Published)
	assert.Equal(t, "17712345", result.PublishResult["id"])
	assert.Equal(t, "178001", result.MediaCreationID)
	assert.Equal(t, "1789000001", result.Account.IGUserID)
	assert.Equal(t, "hi", result.Caption)
	assert.Equal(t, "user_jwt", result.AuthMode)

	audits := env.audits.byType(models.AuditPublishTestSuccess)
	require.Len(t, audits, 1)
	assert.Equal(t, "T1", audits[0].TenantID)
	assert.Equal(t, "17712345", audits[0].Payload["media_id"])
	assert.Equal(t, "ops@example.com", audits[0].Payload["actor_email"])
}

func TestPublishTest_AuditFailureDoesNotFailPublish(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{
		createID:  "178001",
		publishID: "17712345",
		statusSeq: []string{graph.StatusFinished},
	})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})
	env.audits.err = errors.New("audit table unavailable")

	result, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})
	require.NoError(t, err)
	assert.True(t, result.Published)
}

func TestPublishTest_NoAccount(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeAccountNotFound, svcErr.Code)
}

func TestPublishTest_InactiveAccount(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})
	account := env.seedAccount(t, "T1", []string{"instagram_content_publish"})
	account.Status = models.AccountStatusDisconnected

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeAccountInactive, svcErr.Code)
	assert.Zero(t, env.graph.createCalls)
}

func TestPublishTest_UnreadableCredential(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})
	account := env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	cred := env.creds.creds[credKey("T1", account.ID)]
	cred.TokenCiphertext = "bm90LXJlYWwtY2lwaGVydGV4dA"

	_, err := env.svc.PublishTest(context.Background(), testActor, "user_jwt", &transfer.PublishTestRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeCredentialUnreadable, svcErr.Code)
	assert.Zero(t, env.graph.createCalls)
}

func TestManualConnect_Idempotent(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})

	req := &transfer.ManualConnectRequest{
		TenantID:            "T1",
		AccessToken:         "first-token",
		PageID:              "page-77",
		IGBusinessAccountID: "1789000001",
		IGUsername:          "organix.demo",
	}

	result, err := env.svc.ManualConnect(context.Background(), testActor, req)
	require.NoError(t, err)
	assert.True(t, result.Connected)

	firstAccount, err := env.accounts.GetCurrent(context.Background(), "T1", models.ProviderInstagram, true)
	require.NoError(t, err)

	req.AccessToken = "rotated-token"
	_, err = env.svc.ManualConnect(context.Background(), testActor, req)
	require.NoError(t, err)

	secondAccount, err := env.accounts.GetCurrent(context.Background(), "T1", models.ProviderInstagram, true)
	require.NoError(t, err)

	assert.Equal(t, firstAccount.ID, secondAccount.ID, "reconnect must update, not duplicate")
	assert.Len(t, env.accounts.accounts, 1)

	cred, err := env.creds.GetByAccount(context.Background(), "T1", secondAccount.ID)
	require.NoError(t, err)
	plain, err := utils.DecryptToken(cred.TokenCiphertext, cred.TokenIV, testKeySeed)
	require.NoError(t, err)
	assert.Equal(t, "rotated-token", plain)

	assert.Len(t, env.audits.byType(models.AuditManualConnected), 2)
}

func TestManualConnect_MissingFields(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})

	_, err := env.svc.ManualConnect(context.Background(), testActor, &transfer.ManualConnectRequest{
		TenantID: "T1",
		PageID:   "page-77",
	})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeMissingRequiredFields, svcErr.Code)
}

func TestDisconnect_FlipsStatusAndAudits(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})
	env.accounts.accounts[0].UnitID = "U1"

	result, err := env.svc.Disconnect(context.Background(), testActor, "T1", "U1")
	require.NoError(t, err)
	assert.True(t, result.Disconnected)

	account, err := env.accounts.GetCurrent(context.Background(), "T1", models.ProviderInstagram, false)
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusDisconnected, account.Status)

	active, err := env.accounts.GetCurrent(context.Background(), "T1", models.ProviderInstagram, true)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.Len(t, env.audits.byType(models.AuditManualDisconnect), 1)
}

func TestStatus_ReportsWithoutDecrypting(t *testing.T) {
	// Garble the stored ciphertext: status must not care.
	env := newTestEnv(t, &fakeGraph{})
	account := env.seedAccount(t, "T1", []string{"instagram_basic"})
	env.creds.creds[credKey("T1", account.ID)].TokenCiphertext = "bm90LXJlYWwtY2lwaGVydGV4dA"

	result, err := env.svc.Status(context.Background(), "T1")
	require.NoError(t, err)

	assert.True(t, result.Connected)
	assert.True(t, result.HasCredential)
	assert.Equal(t, []string{"instagram_basic"}, result.Scopes)
	assert.Equal(t, "1789000001", result.Account.IGUserID)
}

func TestStatus_NoAccount(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})

	result, err := env.svc.Status(context.Background(), "T1")
	require.NoError(t, err)
	assert.False(t, result.Connected)
	assert.False(t, result.HasCredential)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{deleteResult: map[string]any{"success": true}})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	result, err := env.svc.DeletePost(context.Background(), testActor, &transfer.DeletePostRequest{
		TenantID: "T1",
		MediaID:  "17900",
	})
	require.NoError(t, err)

	assert.True(t, result.Deleted)
	assert.Equal(t, 1, env.graph.deleteCalls)
	assert.Equal(t, map[string]any{"success": true}, result.DeleteResult)

	audits := env.audits.byType(models.AuditDeletePostSuccess)
	require.Len(t, audits, 1)
	assert.Equal(t, "17900", audits[0].Payload["media_id"])
}

func TestDeletePost_MissingMediaID(t *testing.T) {
	env := newTestEnv(t, &fakeGraph{})
	env.seedAccount(t, "T1", []string{"instagram_content_publish"})

	_, err := env.svc.DeletePost(context.Background(), testActor, &transfer.DeletePostRequest{TenantID: "T1"})

	svcErr := asServiceError(t, err)
	assert.Equal(t, CodeMediaIDRequired, svcErr.Code)
	assert.Zero(t, env.graph.deleteCalls)
}
