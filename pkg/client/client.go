package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kurihiro0119/repository-feed/internal/api"
	"github.com/kurihiro0119/repository-feed/internal/config"
	"github.com/kurihiro0119/repository-feed/internal/domain"
	apperrors "github.com/kurihiro0119/repository-feed/internal/errors"
	"github.com/kurihiro0119/repository-feed/internal/render"
)

// Client is the API client for a repository-feed server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetRepos loads the feed. With cards set the response carries display cards too.
func (c *Client) GetRepos(cards bool) (*api.ReposResponse, error) {
	var params url.Values
	if cards {
		params = url.Values{"view": {"cards"}}
	}

	var response struct {
		Data *api.ReposResponse `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/repos", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Refresh bypasses the server cache
func (c *Client) Refresh(cards bool) (*api.ReposResponse, error) {
	var params url.Values
	if cards {
		params = url.Values{"view": {"cards"}}
	}

	var response struct {
		Data *api.ReposResponse `json:"data"`
	}
	if err := c.do(http.MethodPost, "/api/v1/repos/refresh", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Cancel cancels the server's in-flight load and reports whether one was running
func (c *Client) Cancel() (bool, error) {
	var response struct {
		Data struct {
			Cancelled bool `json:"cancelled"`
		} `json:"data"`
	}
	if err := c.do(http.MethodDelete, "/api/v1/repos/load", nil, nil, &response); err != nil {
		return false, err
	}
	return response.Data.Cancelled, nil
}

// ClearCache deletes the server's cached feed
func (c *Client) ClearCache() error {
	return c.do(http.MethodDelete, "/api/v1/repos/cache", nil, nil, nil)
}

// Summary retrieves the aggregated feed
func (c *Client) Summary() (*domain.Summary, error) {
	var response struct {
		Data *domain.Summary `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/repos/summary", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// State retrieves the server's load state
func (c *Client) State() (*domain.State, error) {
	var response struct {
		Data *domain.State `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/state", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// Config retrieves the feed options
func (c *Client) Config() (*config.FeedOptions, error) {
	var response struct {
		Data *config.FeedOptions `json:"data"`
	}
	if err := c.do(http.MethodGet, "/api/v1/config", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// UpdateConfig sends a partial update and returns the resulting options
func (c *Client) UpdateConfig(patch config.Patch) (*config.FeedOptions, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	var response struct {
		Data *config.FeedOptions `json:"data"`
	}
	if err := c.do(http.MethodPatch, "/api/v1/config", nil, body, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.do(http.MethodGet, "/health", nil, nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) do(method, path string, params url.Values, body []byte, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

// decodeError turns an {"error": {...}} body back into an *AppError so callers
// can branch on the code the server reported.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error *render.Message `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == nil {
		return fmt.Errorf("API error: %s - %s", resp.Status, string(raw))
	}
	return &apperrors.AppError{
		Code:    payload.Error.Code,
		Message: payload.Error.Text,
	}
}
