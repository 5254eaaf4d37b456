package transfer

import "time"

type ManualConnectRequest struct {
	TenantID            string     `json:"tenantId"`
	AccessToken         string     `json:"accessToken"`
	PageID              string     `json:"pageId"`
	PageName            string     `json:"pageName,omitempty"`
	IGBusinessAccountID string     `json:"igBusinessAccountId"`
	IGUsername          string     `json:"igUsername,omitempty"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
}

type ConnectResult struct {
	OK        bool `json:"ok"`
	Connected bool `json:"connected"`
}

type DisconnectResult struct {
	OK           bool   `json:"ok"`
	Disconnected bool   `json:"disconnected"`
	TenantID     string `json:"tenantId"`
	UnitID       string `json:"unitId"`
}

type PublishTestRequest struct {
	TenantID string `json:"tenantId"`
	ImageURL string `json:"imageUrl,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type AccountSummary struct {
	IGUserID string `json:"ig_user_id"`
	Username string `json:"username"`
	PageID   string `json:"page_id"`
}

type PublishTestResult struct {
	OK              bool           `json:"ok"`
	Published       bool           `json:"published"`
	TenantID        string         `json:"tenantId"`
	Account         AccountSummary `json:"account"`
	PublishResult   map[string]any `json:"publish_result"`
	MediaCreationID string         `json:"media_creation_id"`
	ImageURL        string         `json:"image_url"`
	Caption         string         `json:"caption"`
	TokenExpiresAt  *time.Time     `json:"token_expires_at"`
	AuthMode        string         `json:"auth_mode"`
	MediaStatus     map[string]any `json:"media_status"`
}

type DeletePostRequest struct {
	TenantID string `json:"tenantId"`
	MediaID  string `json:"mediaId"`
}

type DeletePostResult struct {
	OK           bool           `json:"ok"`
	Deleted      bool           `json:"deleted"`
	TenantID     string         `json:"tenantId"`
	MediaID      string         `json:"mediaId"`
	DeleteResult map[string]any `json:"delete_result"`
}

type StatusResult struct {
	OK             bool           `json:"ok"`
	Connected      bool           `json:"connected"`
	TenantID       string         `json:"tenantId"`
	Account        AccountSummary `json:"account,omitempty"`
	AccountStatus  string         `json:"account_status,omitempty"`
	HasCredential  bool           `json:"has_credential"`
	Scopes         []string       `json:"scopes,omitempty"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty"`
	RefreshedAt    *time.Time     `json:"refreshed_at,omitempty"`
}
