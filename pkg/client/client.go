package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prepview/interview-engine/internal/models"
)

// Client is a Go SDK for the interview-engine API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-engine client
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type apiErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StartSession creates a new interview session
func (c *Client) StartSession(ctx context.Context, fieldID string) (*models.StartSessionResponse, error) {
	body, err := json.Marshal(models.StartSessionRequest{FieldID: fieldID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/interview/session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                         `json:"success"`
		Data    *models.StartSessionResponse `json:"data"`
		Error   *apiErr                      `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// EndSession completes a session and returns its evaluation
func (c *Client) EndSession(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/interview/%s/end", sessionID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool               `json:"success"`
		Data    *models.Evaluation `json:"data"`
		Error   *apiErr            `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// Report retrieves the full post-interview report for a session
func (c *Client) Report(ctx context.Context, sessionID string) (*models.Report, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/interview/%s/report", sessionID), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool           `json:"success"`
		Data    *models.Report `json:"data"`
		Error   *apiErr        `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// RunCode executes a snippet and returns its captured output
func (c *Client) RunCode(ctx context.Context, language, code string) (*models.RunCodeResponse, error) {
	body, err := json.Marshal(models.RunCodeRequest{Code: code, Language: language})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/interview/run-code", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                    `json:"success"`
		Data    *models.RunCodeResponse `json:"data"`
		Error   *apiErr                 `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// CountSessions returns how many sessions the authenticated user has
func (c *Client) CountSessions(ctx context.Context) (int, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/interview/count", nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Count int `json:"count"`
		} `json:"data"`
		Error *apiErr `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return 0, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Count, nil
}

// ListSessions retrieves the authenticated user's sessions
func (c *Client) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	path := "/api/v1/interview/sessions?"
	if limit > 0 {
		path += fmt.Sprintf("limit=%d&", limit)
	}
	if offset > 0 {
		path += fmt.Sprintf("offset=%d&", offset)
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Sessions []*models.Session `json:"sessions"`
			Total    int               `json:"total"`
		} `json:"data"`
		Error *apiErr `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Sessions, nil
}

// ListFields retrieves all interview fields
func (c *Client) ListFields(ctx context.Context) ([]*models.Field, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/v1/fields", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Fields []*models.Field `json:"fields"`
			Total  int             `json:"total"`
		} `json:"data"`
		Error *apiErr `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Fields, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
