package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/collector"
	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
	"github.com/kurihiro0119/devpulse/internal/metrics"
)

// State is the lifecycle stage of the dashboard
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// View is an immutable snapshot of the dashboard
type View struct {
	State      State               `json:"state"`
	Username   string              `json:"username,omitempty"`
	Data       *domain.Dashboard   `json:"data,omitempty"`
	Summary    *aggregator.Summary `json:"summary,omitempty"`
	Message    string              `json:"message,omitempty"`
	NotFound   bool                `json:"not_found,omitempty"`
	Generation uint64              `json:"generation"`
	ShareURL   string              `json:"share_url,omitempty"`
}

// Observer receives every view transition
type Observer func(View)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithObserver registers an observer
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, fn)
	}
}

// WithLocation sets the base URL reflected into View.ShareURL
func WithLocation(base string) Option {
	return func(o *Orchestrator) {
		o.location = base
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithContributionSource sets the calendar source used for summaries
func WithContributionSource(src aggregator.ContributionSource) Option {
	return func(o *Orchestrator) {
		o.source = src
	}
}

// WithSummaryOptions tunes the summary computed for ready views
func WithSummaryOptions(opts aggregator.SummaryOptions) Option {
	return func(o *Orchestrator) {
		o.summaryOpts = opts
	}
}

// Orchestrator drives one profile load at a time. Every search is stamped
// with a generation; a result is applied only while its generation is the
// latest issued, so a slow superseded load never overwrites a newer one.
type Orchestrator struct {
	collector   collector.Collector
	source      aggregator.ContributionSource
	summaryOpts aggregator.SummaryOptions
	logger      *logrus.Logger
	location    string
	observers   []Observer

	mu         sync.Mutex
	view       View
	generation uint64
}

// New creates an idle orchestrator
func New(c collector.Collector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		collector: c,
		view:      View{State: StateIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	if o.source == nil {
		o.source = aggregator.NewSyntheticSource()
	}
	return o
}

// View returns the current snapshot
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Search loads the profile for query and returns the resulting view. A
// blank query changes nothing. When a newer search or a Reset happens while
// this one is in flight, its outcome is dropped and the current view is
// returned instead.
func (o *Orchestrator) Search(ctx context.Context, query string) View {
	username := strings.TrimSpace(query)
	if username == "" {
		return o.View()
	}

	gen := o.begin(username)
	start := time.Now()
	log := o.logger.WithFields(logrus.Fields{"username": username, "generation": gen})
	log.Debug("loading profile")

	data, err := collector.CollectProfile(ctx, o.collector, username, log)
	var summary *aggregator.Summary
	if err == nil {
		summary, err = aggregator.Summarize(ctx, data, o.source, o.summaryOpts)
	}

	if err != nil {
		metrics.ObserveLoad(start, string(apperrors.CodeOf(err)))
		msg := apperrors.UserMessage(err)
		log.WithError(err).Info("profile load failed")
		return o.finish(gen, View{
			State:    StateError,
			Username: username,
			Message:  msg,
			NotFound: IsNotFoundMessage(msg),
		})
	}

	metrics.ObserveLoad(start, "ok")
	log.WithField("repositories", len(data.Repositories)).Debug("profile loaded")
	return o.finish(gen, View{
		State:    StateReady,
		Username: username,
		Data:     data,
		Summary:  summary,
	})
}

// Retry clears an error so a fresh search can be issued. Other states are
// left unchanged.
func (o *Orchestrator) Retry() View {
	o.mu.Lock()
	if o.view.State != StateError {
		v := o.view
		o.mu.Unlock()
		return v
	}
	o.view = View{State: StateIdle, Generation: o.generation}
	v := o.view
	o.mu.Unlock()

	o.notify(v)
	return v
}

// Reset returns to idle and invalidates any in-flight load
func (o *Orchestrator) Reset() View {
	o.mu.Lock()
	o.generation++
	o.view = View{State: StateIdle, Generation: o.generation}
	v := o.view
	o.mu.Unlock()

	o.notify(v)
	return v
}

func (o *Orchestrator) begin(username string) uint64 {
	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.view = View{
		State:      StateLoading,
		Username:   username,
		Generation: gen,
		ShareURL:   o.shareURL(username),
	}
	v := o.view
	o.mu.Unlock()

	o.notify(v)
	return gen
}

func (o *Orchestrator) finish(gen uint64, next View) View {
	o.mu.Lock()
	if gen != o.generation {
		v := o.view
		o.mu.Unlock()
		o.logger.WithFields(logrus.Fields{
			"username":   next.Username,
			"generation": gen,
			"current":    v.Generation,
		}).Debug("discarding superseded load")
		return v
	}
	next.Generation = gen
	next.ShareURL = o.shareURL(next.Username)
	o.view = next
	o.mu.Unlock()

	o.notify(next)
	return next
}

func (o *Orchestrator) shareURL(username string) string {
	if o.location == "" {
		return ""
	}
	u, err := ShareURL(o.location, username)
	if err != nil {
		o.logger.WithError(err).Warn("invalid share location")
		return ""
	}
	return u
}

func (o *Orchestrator) notify(v View) {
	for _, fn := range o.observers {
		fn(v)
	}
}

// IsNotFoundMessage reports whether an error message describes a missing user
func IsNotFoundMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "not found")
}
