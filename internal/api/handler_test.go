package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCollector struct {
	profileErr error
	reposErr   error
	eventsErr  error
	quota      collector.Quota
}

func (s *stubCollector) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return &domain.Profile{Login: username, Name: "The Octocat", Followers: 3}, nil
}

func (s *stubCollector) GetRepositories(ctx context.Context, username string) ([]*domain.Repository, error) {
	if s.reposErr != nil {
		return nil, s.reposErr
	}
	return []*domain.Repository{
		{ID: 1, Name: "a", Language: "Go", StargazersCount: 5},
		{ID: 2, Name: "b", Language: "Go", Fork: true, StargazersCount: 5},
		{ID: 3, Name: "c", Language: "Rust", StargazersCount: 9},
	}, nil
}

func (s *stubCollector) GetPublicEvents(ctx context.Context, username string) ([]*domain.ActivityEvent, error) {
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	var events []*domain.ActivityEvent
	for i := 0; i < 20; i++ {
		events = append(events, &domain.ActivityEvent{
			ID:        strconv.Itoa(i),
			Type:      "PushEvent",
			Repo:      domain.RepoRef{Name: username + "/a"},
			Payload:   domain.PushPayload{Commits: 2},
			CreatedAt: time.Now().Add(-time.Hour),
		})
	}
	return events, nil
}

func (s *stubCollector) Quota() collector.Quota { return s.quota }

func newTestRouter(c *stubCollector) *gin.Engine {
	logger, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC) }
	h := NewHandler(c, aggregator.NewSeededSource(1, 2, now), logger, "https://dash.example.com/")
	return SetupRoutes(h)
}

func do(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetDashboard(t *testing.T) {
	router := newTestRouter(&stubCollector{})

	for _, target := range []string{"/api/v1/dashboard?user=octocat", "/api/v1/users/octocat"} {
		t.Run(target, func(t *testing.T) {
			w := do(t, router, http.MethodGet, target)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Data     aggregator.Summary `json:"data"`
				ShareURL string             `json:"share_url"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

			assert.Equal(t, "octocat", body.Data.Profile.Login)
			assert.Equal(t, 19, body.Data.Totals.TotalStars)
			assert.Equal(t, "Go", body.Data.Totals.TopLanguage)
			require.Len(t, body.Data.TopRepositories, 3)
			assert.Equal(t, int64(3), body.Data.TopRepositories[0].ID)
			assert.Len(t, body.Data.Contributions, aggregator.CalendarDays)
			assert.Len(t, body.Data.Timeline, aggregator.DefaultTimelineLimit)
			assert.Equal(t, "Pushed 2 commits to a", body.Data.Timeline[0].Label)
			assert.Equal(t, "https://dash.example.com/?user=octocat", body.ShareURL)
		})
	}
}

func TestGetDashboardMissingUser(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{}), http.MethodGet, "/api/v1/dashboard?user=%20")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "BAD_REQUEST", errBody["code"])
}

func TestGetDashboardEventsFailure(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{eventsErr: errors.New("down")}), http.MethodGet, "/api/v1/users/octocat")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data aggregator.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data.Timeline)
	assert.Equal(t, "octocat", body.Data.Profile.Login)
}

func TestErrorMapping(t *testing.T) {
	reset := time.Now().Add(90 * time.Second)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", apperrors.NewNotFoundError("User"), http.StatusNotFound, "NOT_FOUND", "User not found"},
		{"rate limited", apperrors.NewRateLimitedError(&reset), http.StatusTooManyRequests, "RATE_LIMITED", ""},
		{"remote", apperrors.NewRemoteError(500, "Internal Server Error"), http.StatusBadGateway, "REMOTE_ERROR", "GitHub API error: 500 Internal Server Error"},
		{"network", apperrors.NewNetworkError(errors.New("dial tcp: refused")), http.StatusBadGateway, "NETWORK_FAILURE", ""},
		{"wrapped", errors.Join(errors.New("ctx"), apperrors.NewNotFoundError("User")), http.StatusNotFound, "NOT_FOUND", "User not found"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestRouter(&stubCollector{profileErr: tt.err}), http.MethodGet, "/api/v1/users/octocat")
			assert.Equal(t, tt.wantStatus, w.Code)

			errBody := decode(t, w)["error"].(map[string]any)
			assert.Equal(t, tt.wantCode, errBody["code"])
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errBody["message"])
			}
			assert.NotContains(t, decode(t, w), "data", "no partial data on error")
		})
	}
}

func TestRateLimitedRetryAfter(t *testing.T) {
	reset := time.Now().Add(90 * time.Second)
	w := do(t, newTestRouter(&stubCollector{reposErr: apperrors.NewRateLimitedError(&reset)}), http.MethodGet, "/api/v1/users/octocat")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	secs, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 90, secs, 2)

	w = do(t, newTestRouter(&stubCollector{reposErr: apperrors.NewRateLimitedError(nil)}), http.MethodGet, "/api/v1/users/octocat")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestGetRepositories(t *testing.T) {
	router := newTestRouter(&stubCollector{})

	ids := func(w *httptest.ResponseRecorder) []int64 {
		var body struct {
			Data []*domain.Repository `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		var out []int64
		for _, r := range body.Data {
			out = append(out, r.ID)
		}
		return out
	}

	w := do(t, router, http.MethodGet, "/api/v1/users/octocat/repos")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{1, 2, 3}, ids(w))

	w = do(t, router, http.MethodGet, "/api/v1/users/octocat/repos?sort=stars")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{3, 1, 2}, ids(w))

	w = do(t, router, http.MethodGet, "/api/v1/users/octocat/repos?sort=name")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLanguages(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{}), http.MethodGet, "/api/v1/users/octocat/languages")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data   []domain.LanguageStat `json:"data"`
		Totals domain.TotalStats     `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Go", body.Data[0].Language)
	assert.Equal(t, 50, body.Data[0].Percentage)
	assert.Equal(t, 19, body.Totals.TotalStars)
}

func TestGetProfile(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{}), http.MethodGet, "/api/v1/users/octocat/profile")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data domain.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "octocat", body.Data.Login)
	assert.Equal(t, 3, body.Data.Followers)
}

func TestGetEvents(t *testing.T) {
	router := newTestRouter(&stubCollector{})

	w := do(t, router, http.MethodGet, "/api/v1/users/octocat/events?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []aggregator.TimelineEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 5)
	assert.Equal(t, "1h ago", body.Data[0].When)

	for _, limit := range []string{"0", "101", "x"} {
		w = do(t, router, http.MethodGet, "/api/v1/users/octocat/events?limit="+limit)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}

	w = do(t, newTestRouter(&stubCollector{eventsErr: apperrors.NewRemoteError(503, "Service Unavailable")}), http.MethodGet, "/api/v1/users/octocat/events")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetContributions(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{}), http.MethodGet, "/api/v1/users/octocat/contributions")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data      []domain.ContributionDay `json:"data"`
		Total     int                      `json:"total"`
		Synthetic bool                     `json:"synthetic"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, aggregator.CalendarDays)
	assert.Equal(t, "2024-05-01", body.Data[len(body.Data)-1].Date)
	assert.Equal(t, aggregator.TotalContributions(body.Data), body.Total)
	assert.True(t, body.Synthetic)

	w = do(t, newTestRouter(&stubCollector{profileErr: apperrors.NewNotFoundError("User")}), http.MethodGet, "/api/v1/users/ghost/contributions")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthCheck(t *testing.T) {
	w := do(t, newTestRouter(&stubCollector{}), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "quota")

	c := &stubCollector{quota: collector.Quota{Limit: 60, Remaining: 12, Observed: true}}
	w = do(t, newTestRouter(c), http.MethodGet, "/health")
	quota := decode(t, w)["quota"].(map[string]any)
	assert.EqualValues(t, 12, quota["remaining"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&stubCollector{})
	do(t, router, http.MethodGet, "/api/v1/users/octocat")

	w := do(t, router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devpulse_profile_loads_total")
}

func TestMiddleware(t *testing.T) {
	router := newTestRouter(&stubCollector{})

	t.Run("request id generated", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/health")
		assert.Len(t, w.Header().Get("X-Request-ID"), 36)
	})

	t.Run("request id reused", func(t *testing.T) {
		id := "7d444840-9dc0-11d1-b245-5ffdce74fad2"
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", id)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, id, w.Header().Get("X-Request-ID"))
	})

	t.Run("invalid request id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "<script>")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		w := do(t, router, http.MethodOptions, "/api/v1/users/octocat")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("recovery", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		r := gin.New()
		r.Use(RequestID(), Recovery(logger))
		r.GET("/panic", func(*gin.Context) { panic("boom") })

		w := do(t, r, http.MethodGet, "/panic")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "recovered from panic", hook.LastEntry().Message)
	})
}
