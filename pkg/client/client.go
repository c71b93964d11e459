package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
)

// Client is the API client for the devpulse server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DashboardResponse is the full dashboard for one user
type DashboardResponse struct {
	Data     *aggregator.Summary `json:"data"`
	ShareURL string              `json:"share_url,omitempty"`
}

// LanguagesResponse is the language breakdown with repository totals
type LanguagesResponse struct {
	Data   []domain.LanguageStat `json:"data"`
	Totals domain.TotalStats     `json:"totals"`
}

// ContributionsResponse is the contribution calendar
type ContributionsResponse struct {
	Data      []domain.ContributionDay `json:"data"`
	Total     int                      `json:"total"`
	Synthetic bool                     `json:"synthetic"`
}

// Health is the server health status
type Health struct {
	Status string           `json:"status"`
	Quota  *collector.Quota `json:"quota,omitempty"`
}

// GetDashboard retrieves the full dashboard summary
func (c *Client) GetDashboard(ctx context.Context, username string) (*DashboardResponse, error) {
	params := url.Values{}
	params.Set("user", username)

	var response DashboardResponse
	if err := c.get(ctx, "/api/v1/dashboard", params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetProfile retrieves the user profile
func (c *Client) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	var response struct {
		Data *domain.Profile `json:"data"`
	}
	if err := c.get(ctx, userPath(username, "/profile"), nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRepositories retrieves the user's repositories; sortBy is "pushed",
// "stars" or empty for the server default
func (c *Client) GetRepositories(ctx context.Context, username, sortBy string) ([]*domain.Repository, error) {
	params := url.Values{}
	if sortBy != "" {
		params.Set("sort", sortBy)
	}

	var response struct {
		Data []*domain.Repository `json:"data"`
	}
	if err := c.get(ctx, userPath(username, "/repos"), params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetLanguages retrieves the language breakdown
func (c *Client) GetLanguages(ctx context.Context, username string) (*LanguagesResponse, error) {
	var response LanguagesResponse
	if err := c.get(ctx, userPath(username, "/languages"), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetEvents retrieves the activity timeline; limit 0 uses the server default
func (c *Client) GetEvents(ctx context.Context, username string, limit int) ([]aggregator.TimelineEntry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []aggregator.TimelineEntry `json:"data"`
	}
	if err := c.get(ctx, userPath(username, "/events"), params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetContributions retrieves the contribution calendar
func (c *Client) GetContributions(ctx context.Context, username string) (*ContributionsResponse, error) {
	var response ContributionsResponse
	if err := c.get(ctx, userPath(username, "/contributions"), nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var response Health
	if err := c.get(ctx, "/health", nil, &response); err != nil {
		return nil, err
	}
	if response.Status != "ok" {
		return nil, fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return &response, nil
}

func userPath(username, suffix string) string {
	return "/api/v1/users/" + url.PathEscape(username) + suffix
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

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

// decodeError turns an error envelope into an AppError carrying the
// server's code and message
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Code    apperrors.ErrCode `json:"code"`
			Message string            `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	appErr := &apperrors.AppError{
		Code:    envelope.Error.Code,
		Message: envelope.Error.Message,
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		reset := time.Now().Add(time.Duration(secs) * time.Second)
		appErr.ResetAt = &reset
	}
	return appErr
}
