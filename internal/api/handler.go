package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/dashboard"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
	"github.com/kurihiro0119/devpulse/internal/metrics"
)

const maxTimelineLimit = 100

// QuotaReporter exposes the last observed GitHub quota
type QuotaReporter interface {
	Quota() collector.Quota
}

// Handler handles API requests
type Handler struct {
	collector collector.Collector
	source    aggregator.ContributionSource
	logger    *logrus.Logger
	publicURL string
}

// NewHandler creates a new API handler
func NewHandler(c collector.Collector, src aggregator.ContributionSource, logger *logrus.Logger, publicURL string) *Handler {
	if src == nil {
		src = aggregator.NewSyntheticSource()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		collector: c,
		source:    src,
		logger:    logger,
		publicURL: publicURL,
	}
}

// GetDashboard returns the full dashboard summary for ?user=
// GET /api/v1/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	h.respondSummary(c, c.Query(dashboard.UserParam))
}

// GetUser returns the full dashboard summary for a username
// GET /api/v1/users/:username
func (h *Handler) GetUser(c *gin.Context) {
	h.respondSummary(c, c.Param("username"))
}

func (h *Handler) respondSummary(c *gin.Context, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		respondError(c, apperrors.NewBadRequestError("username is required"))
		return
	}

	start := time.Now()
	ctx := c.Request.Context()

	data, err := collector.CollectProfile(ctx, h.collector, username, h.requestLogger(c))
	var summary *aggregator.Summary
	if err == nil {
		summary, err = aggregator.Summarize(ctx, data, h.source, aggregator.SummaryOptions{})
	}
	if err != nil {
		metrics.ObserveLoad(start, string(apperrors.CodeOf(err)))
		respondError(c, err)
		return
	}
	metrics.ObserveLoad(start, "ok")

	body := gin.H{"data": summary}
	if h.publicURL != "" {
		if link, err := dashboard.ShareURL(h.publicURL, data.Profile.Login); err == nil {
			body["share_url"] = link
		}
	}
	c.JSON(http.StatusOK, body)
}

// GetProfile returns the user profile
// GET /api/v1/users/:username/profile
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.collector.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": profile,
	})
}

// GetRepositories returns the user's repositories
// GET /api/v1/users/:username/repos?sort=pushed|stars
func (h *Handler) GetRepositories(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "pushed")
	if sortBy != "pushed" && sortBy != "stars" {
		respondError(c, apperrors.NewBadRequestError("sort must be one of: pushed, stars"))
		return
	}

	repos, err := h.collector.GetRepositories(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	if sortBy == "stars" {
		repos = aggregator.ReposByStars(repos)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": repos,
	})
}

// GetLanguages returns the language breakdown
// GET /api/v1/users/:username/languages
func (h *Handler) GetLanguages(c *gin.Context) {
	repos, err := h.collector.GetRepositories(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   aggregator.LanguageStats(repos),
		"totals": aggregator.ComputeTotalStats(repos),
	})
}

// GetEvents returns the labelled activity timeline
// GET /api/v1/users/:username/events?limit=
func (h *Handler) GetEvents(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	events, err := h.collector.GetPublicEvents(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": aggregator.Timeline(events, limit, time.Now()),
	})
}

// GetContributions returns the contribution calendar
// GET /api/v1/users/:username/contributions
func (h *Handler) GetContributions(c *gin.Context) {
	username := c.Param("username")
	if _, err := h.collector.GetProfile(c.Request.Context(), username); err != nil {
		respondError(c, err)
		return
	}

	days, err := h.source.Contributions(c.Request.Context(), username)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to load contributions", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      days,
		"total":     aggregator.TotalContributions(days),
		"synthetic": true,
	})
}

// HealthCheck returns the health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status": "ok",
	}
	if qr, ok := h.collector.(QuotaReporter); ok {
		if q := qr.Quota(); q.Observed {
			body["quota"] = q
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) requestLogger(c *gin.Context) logrus.FieldLogger {
	return h.logger.WithField("request_id", c.GetString(requestIDKey))
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return aggregator.DefaultTimelineLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxTimelineLimit {
		return 0, apperrors.NewBadRequestError("limit must be between 1 and " + strconv.Itoa(maxTimelineLimit))
	}
	return limit, nil
}

// statusFor maps an error code to its HTTP status
func statusFor(code apperrors.ErrCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeRemote, apperrors.ErrCodeNetworkFailure:
		return http.StatusBadGateway
	case apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperrors.ErrCodeRateLimited && appErr.ResetAt != nil {
			wait := math.Ceil(time.Until(*appErr.ResetAt).Seconds())
			if wait < 1 {
				wait = 1
			}
			c.Header("Retry-After", strconv.Itoa(int(wait)))
		}
		c.JSON(statusFor(appErr.Code), gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
