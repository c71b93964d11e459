package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ProfileLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devpulse_profile_loads_total",
		Help: "Profile loads by outcome",
	}, []string{"outcome"})
	FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "devpulse_github_fetch_errors_total",
		Help: "Failed GitHub API calls by endpoint and error code",
	}, []string{"endpoint", "code"})
	LoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "devpulse_profile_load_duration_seconds",
		Help:    "Duration of a full profile load",
		Buckets: prometheus.DefBuckets,
	})
	RateRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "devpulse_github_rate_remaining",
		Help: "Last observed X-RateLimit-Remaining",
	})
)

func init() {
	prometheus.MustRegister(ProfileLoads, FetchErrors, LoadDuration, RateRemaining)
}

// ObserveLoad records the duration and outcome of one profile load
func ObserveLoad(start time.Time, outcome string) {
	LoadDuration.Observe(time.Since(start).Seconds())
	ProfileLoads.WithLabelValues(outcome).Inc()
}

// IncFetchError increments the failure counter for an endpoint
func IncFetchError(endpoint, code string) { FetchErrors.WithLabelValues(endpoint, code).Inc() }
