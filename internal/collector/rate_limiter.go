package collector

import (
	"context"
	"sync"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/time/rate"

	"github.com/kurihiro0119/devpulse/internal/metrics"
)

// Quota is the last GitHub core quota reported in response headers
type Quota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	Observed  bool      `json:"observed"`
}

// RateLimiter paces outbound GitHub API calls and tracks the remote quota.
// It never waits for a quota reset: exhaustion is reported to the caller.
type RateLimiter interface {
	Wait(ctx context.Context) error
	UpdateLimit(r github.Rate)
	Quota() Quota
}

// githubRateLimiter implements RateLimiter for GitHub API
type githubRateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	quota   Quota
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// The burst of 3 lets the three calls of one profile load go out together.
func NewRateLimiter(rps float64) RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	return &githubRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 3),
	}
}

// Wait blocks until the pacing limiter admits another request
func (r *githubRateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// UpdateLimit records the quota from API response headers
func (r *githubRateLimiter) UpdateLimit(rt github.Rate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quota = Quota{
		Limit:     rt.Limit,
		Remaining: rt.Remaining,
		Reset:     rt.Reset.Time,
		Observed:  true,
	}
	metrics.RateRemaining.Set(float64(rt.Remaining))
}

// Quota returns the last observed quota
func (r *githubRateLimiter) Quota() Quota {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quota
}
