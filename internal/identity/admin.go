// Package identity talks to the external identity provider's admin API for
// the few management calls this service needs.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type AdminClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewAdminClient(baseURL, apiKey string) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateUser provisions a confirmed user with the given attribute bag and
// returns its id.
func (c *AdminClient) CreateUser(ctx context.Context, email, password string, attributes map[string]string) (string, error) {
	payload := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"app_metadata":  attributes,
		"user_metadata": map[string]string{"role": attributes["role"]},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("identity admin error %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode identity admin response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("identity admin returned no user id")
	}

	return result.ID, nil
}
