// Package graph is the client for the remote platform's Graph API. Response
// decoding happens once here: bodies that parse as JSON objects are returned
// as-is, unparseable bodies are wrapped as {"raw": text}, and an embedded
// error object raises even when the HTTP status is 200.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Media container processing states reported by status_code.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusFinished   = "FINISHED"
	StatusError      = "ERROR"
	StatusExpired    = "EXPIRED"
)

// Error carries the upstream's own message verbatim for diagnosability.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// ContainerStatus is one polled snapshot of a media container.
type ContainerStatus struct {
	StatusCode string
	Raw        map[string]any
}

type Client struct {
	baseURL string
	version string
	http    *http.Client
}

func NewClient(baseURL, version string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, path)
}

// decode parses a response body, applying the platform's error convention:
// non-2xx status or an embedded {error:{message}} object is an error, and
// everything else is returned decoded, with unparseable text kept as
// {"raw": text}.
func decode(resp *http.Response) (map[string]any, error) {
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal(text, &data); err != nil {
		data = map[string]any{"raw": string(text)}
	}

	message := ""
	if errObj, ok := data["error"].(map[string]any); ok {
		message, _ = errObj["message"].(string)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || data["error"] != nil {
		if message == "" {
			message = fmt.Sprintf("graph_error_%d", resp.StatusCode)
		}
		return nil, &Error{Message: message, StatusCode: resp.StatusCode}
	}

	return data, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return decode(resp)
}

func (c *Client) get(ctx context.Context, endpoint string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return decode(resp)
}

// CreateMediaContainer stages an image post and returns the creation id.
func (c *Client) CreateMediaContainer(ctx context.Context, igUserID, imageURL, caption, accessToken string) (string, error) {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)
	form.Set("access_token", accessToken)

	data, err := c.postForm(ctx, c.endpoint(igUserID+"/media"), form)
	if err != nil {
		return "", err
	}

	id, _ := data["id"].(string)
	return id, nil
}

// GetContainerStatus polls a container's processing state. A missing
// status_code field reads as IN_PROGRESS.
func (c *Client) GetContainerStatus(ctx context.Context, creationID, accessToken string) (*ContainerStatus, error) {
	endpoint := fmt.Sprintf("%s?fields=status_code,status&access_token=%s",
		c.endpoint(creationID), url.QueryEscape(accessToken))

	data, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	statusCode, _ := data["status_code"].(string)
	if statusCode == "" {
		statusCode = StatusInProgress
	}

	return &ContainerStatus{StatusCode: statusCode, Raw: data}, nil
}

// PublishContainer publishes a finished container and returns the media id.
func (c *Client) PublishContainer(ctx context.Context, igUserID, creationID, accessToken string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", accessToken)

	data, err := c.postForm(ctx, c.endpoint(igUserID+"/media_publish"), form)
	if err != nil {
		return "", err
	}

	id, _ := data["id"].(string)
	return id, nil
}

// DeleteMedia removes a published media object.
func (c *Client) DeleteMedia(ctx context.Context, mediaID, accessToken string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s?access_token=%s", c.endpoint(mediaID), url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return decode(resp)
}
