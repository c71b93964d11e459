package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/api"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
)

type fakeCollector struct {
	missing string
	limited bool
}

func (f *fakeCollector) check(username string) error {
	if f.limited {
		reset := time.Now().Add(time.Minute)
		return apperrors.NewRateLimitedError(&reset)
	}
	if username == f.missing {
		return apperrors.NewNotFoundError("User")
	}
	return nil
}

func (f *fakeCollector) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if err := f.check(username); err != nil {
		return nil, err
	}
	return &domain.Profile{Login: username}, nil
}

func (f *fakeCollector) GetRepositories(ctx context.Context, username string) ([]*domain.Repository, error) {
	if err := f.check(username); err != nil {
		return nil, err
	}
	return []*domain.Repository{
		{ID: 1, Language: "Go", StargazersCount: 1},
		{ID: 2, Language: "Go", StargazersCount: 4},
	}, nil
}

func (f *fakeCollector) GetPublicEvents(ctx context.Context, username string) ([]*domain.ActivityEvent, error) {
	return []*domain.ActivityEvent{
		{ID: "1", Type: "WatchEvent", Repo: domain.RepoRef{Name: "x/y"}, Payload: domain.WatchPayload{}, CreatedAt: time.Now()},
		{ID: "2", Type: "ForkEvent", Repo: domain.RepoRef{Name: "x/z"}, Payload: domain.ForkPayload{}, CreatedAt: time.Now()},
	}, nil
}

func (f *fakeCollector) Quota() collector.Quota {
	return collector.Quota{Limit: 60, Remaining: 59, Observed: true}
}

func newTestClient(t *testing.T, f *fakeCollector) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	h := api.NewHandler(f, aggregator.NewSeededSource(1, 1, nil), logger, "http://localhost:8080/")
	srv := httptest.NewServer(api.SetupRoutes(h))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, &fakeCollector{missing: "ghost"})

	t.Run("dashboard", func(t *testing.T) {
		resp, err := c.GetDashboard(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, "octocat", resp.Data.Profile.Login)
		assert.Equal(t, 5, resp.Data.Totals.TotalStars)
		assert.Len(t, resp.Data.Timeline, 2)
		assert.Equal(t, "http://localhost:8080/?user=octocat", resp.ShareURL)
	})

	t.Run("profile", func(t *testing.T) {
		p, err := c.GetProfile(ctx, "octocat")
		require.NoError(t, err)
		assert.Equal(t, "octocat", p.Login)
	})

	t.Run("repositories by stars", func(t *testing.T) {
		repos, err := c.GetRepositories(ctx, "octocat", "stars")
		require.NoError(t, err)
		require.Len(t, repos, 2)
		assert.Equal(t, int64(2), repos[0].ID)
	})

	t.Run("languages", func(t *testing.T) {
		langs, err := c.GetLanguages(ctx, "octocat")
		require.NoError(t, err)
		require.Len(t, langs.Data, 1)
		assert.Equal(t, 100, langs.Data[0].Percentage)
	})

	t.Run("events", func(t *testing.T) {
		events, err := c.GetEvents(ctx, "octocat", 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Starred x/y", events[0].Label)
	})

	t.Run("contributions", func(t *testing.T) {
		resp, err := c.GetContributions(ctx, "octocat")
		require.NoError(t, err)
		assert.Len(t, resp.Data, aggregator.CalendarDays)
		assert.True(t, resp.Synthetic)
	})

	t.Run("health", func(t *testing.T) {
		h, err := c.HealthCheck(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ok", h.Status)
		require.NotNil(t, h.Quota)
		assert.Equal(t, 59, h.Quota.Remaining)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.GetDashboard(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, "User not found", apperrors.UserMessage(err))
	})

	t.Run("bad request", func(t *testing.T) {
		_, err := c.GetRepositories(ctx, "octocat", "size")
		assert.Equal(t, apperrors.ErrCodeBadRequest, apperrors.CodeOf(err))
	})
}

func TestClientRateLimited(t *testing.T) {
	c := newTestClient(t, &fakeCollector{limited: true})

	_, err := c.GetProfile(context.Background(), "octocat")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.NotNil(t, appErr.ResetAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *appErr.ResetAt, 5*time.Second)
}

func TestClientNonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error: 502 Bad Gateway")
}
