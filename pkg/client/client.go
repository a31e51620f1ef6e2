package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kurihiro0119/gitpeek/internal/domain"
)

// Client is the API client for gitpeek
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// APIError is a non-200 answer from the API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %d %s - %s", e.StatusCode, e.Code, e.Message)
}

type activityRequest struct {
	Username  string `json:"username"`
	TimeRange string `json:"time_range"`
}

// GetActivity retrieves the activity summary of username. With a session id
// the authenticated endpoint is used, otherwise the public one.
func (c *Client) GetActivity(ctx context.Context, username string, timeRange domain.TimeRange, sessionID string) (*domain.UserActivity, error) {
	path := "/api/public/activity"
	if sessionID != "" {
		path = "/api/auth/activity"
	}

	var activity domain.UserActivity
	body := activityRequest{Username: username, TimeRange: string(timeRange)}
	if err := c.do(ctx, http.MethodPost, path, nil, body, sessionID, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetUser retrieves the public profile of username
func (c *Client) GetUser(ctx context.Context, username string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	path := "/api/public/user/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, "", &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any, sessionID string, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("Authorization", "Bearer "+sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
