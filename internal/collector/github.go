package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/sirupsen/logrus"

	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
	"github.com/kurihiro0119/devpulse/internal/metrics"
)

const (
	DefaultBaseURL    = "https://api.github.com/"
	DefaultAPIVersion = "2022-11-28"

	mediaTypeGitHubJSON = "application/vnd.github+json"
	headerAPIVersion    = "X-GitHub-Api-Version"

	repositoriesPerPage = 30
	eventsPerPage       = 100
)

// Options configures a GitHubCollector
type Options struct {
	BaseURL        string
	APIVersion     string
	UserAgent      string
	RequestsPerSec float64
	HTTPClient     *http.Client
	Logger         *logrus.Logger
}

// GitHubCollector implements Collector using the GitHub REST API
type GitHubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
	logger      *logrus.Logger
}

// NewGitHubCollector creates a new GitHub collector. Requests are
// unauthenticated.
func NewGitHubCollector(opts Options) (*GitHubCollector, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", base, err)
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		httpClient = &clone
	}
	httpClient.Transport = &headerTransport{
		base:       httpClient.Transport,
		apiVersion: apiVersion,
	}

	client := github.NewClient(httpClient)
	client.BaseURL = baseURL
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &GitHubCollector{
		client:      client,
		rateLimiter: NewRateLimiter(opts.RequestsPerSec),
		logger:      logger,
	}, nil
}

// Quota returns the last GitHub quota seen by this collector
func (c *GitHubCollector) Quota() Quota {
	return c.rateLimiter.Quota()
}

// GetProfile retrieves the user profile
func (c *GitHubCollector) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := c.client.Users.Get(ctx, username)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.fail("profile", username, resp, err)
	}

	return toProfile(user), nil
}

// GetRepositories retrieves the 30 most recently pushed repositories
func (c *GitHubCollector) GetRepositories(ctx context.Context, username string) ([]*domain.Repository, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.RepositoryListOptions{
		Sort:        "pushed",
		ListOptions: github.ListOptions{PerPage: repositoriesPerPage},
	}
	repos, resp, err := c.client.Repositories.List(ctx, username, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.fail("repositories", username, resp, err)
	}

	result := make([]*domain.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, toRepository(repo))
	}
	return result, nil
}

// GetPublicEvents retrieves the 100 most recent public events
func (c *GitHubCollector) GetPublicEvents(ctx context.Context, username string) ([]*domain.ActivityEvent, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &github.ListOptions{PerPage: eventsPerPage}
	events, resp, err := c.client.Activity.ListEventsPerformedByUser(ctx, username, true, opts)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.fail("events", username, resp, err)
	}

	result := make([]*domain.ActivityEvent, 0, len(events))
	for _, event := range events {
		result = append(result, toActivityEvent(event))
	}
	return result, nil
}

// fail classifies err, records it and wraps it with the endpoint name
func (c *GitHubCollector) fail(endpoint, username string, resp *github.Response, err error) error {
	classified := classifyError(resp, err)
	code := string(apperrors.CodeOf(classified))
	metrics.IncFetchError(endpoint, code)
	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"username": username,
		"code":     code,
	}).Debug("GitHub request failed")
	return fmt.Errorf("failed to fetch %s for %s: %w", endpoint, username, classified)
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (c *GitHubCollector) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Limit > 0 {
		c.rateLimiter.UpdateLimit(resp.Rate)
	}
}

func normalizeUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return "", apperrors.NewBadRequestError("username is required")
	}
	return url.PathEscape(trimmed), nil
}

// classifyError maps a go-github error onto the application taxonomy.
// Context cancellation is returned unchanged.
func classifyError(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		var reset *time.Time
		if !rateErr.Rate.Reset.Time.IsZero() {
			t := rateErr.Rate.Reset.Time
			reset = &t
		}
		return apperrors.NewRateLimitedError(reset)
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := resetFromHeaders(abuseErr.Response)
		if abuseErr.RetryAfter != nil {
			t := time.Now().Add(*abuseErr.RetryAfter)
			reset = &t
		}
		return apperrors.NewRateLimitedError(reset)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return classifyResponse(respErr.Response)
	}

	var acceptedErr *github.AcceptedError
	if errors.As(err, &acceptedErr) {
		return apperrors.NewRemoteError(http.StatusAccepted, http.StatusText(http.StatusAccepted))
	}

	// A successful status with an error means the body did not decode.
	if resp != nil && resp.Response != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return apperrors.NewInternalError("failed to decode GitHub response", err)
	}

	return apperrors.NewNetworkError(err)
}

func classifyResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return apperrors.NewNotFoundError("User")
	case http.StatusForbidden, http.StatusTooManyRequests:
		return apperrors.NewRateLimitedError(resetFromHeaders(resp))
	default:
		return apperrors.NewRemoteError(resp.StatusCode, statusText(resp))
	}
}

// resetFromHeaders reads X-RateLimit-Reset (unix seconds) or Retry-After
// (seconds). It returns nil when neither is usable.
func resetFromHeaders(resp *http.Response) *time.Time {
	if resp == nil {
		return nil
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
			t := time.Unix(secs, 0)
			return &t
		}
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			t := time.Now().Add(time.Duration(secs) * time.Second)
			return &t
		}
	}
	return nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// headerTransport sets the media type and API version on every request
type headerTransport struct {
	base       http.RoundTripper
	apiVersion string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	r.Header.Set("Accept", mediaTypeGitHubJSON)
	r.Header.Set(headerAPIVersion, t.apiVersion)
	return base.RoundTrip(r)
}
