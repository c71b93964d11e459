package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/devpulse/internal/aggregator"
	"github.com/kurihiro0119/devpulse/internal/domain"
	apperrors "github.com/kurihiro0119/devpulse/internal/errors"
)

type fakeCollector struct {
	mu        sync.Mutex
	calls     []string
	gates     map[string]chan struct{}
	profile   error
	repos     error
	events    error
	eventList []*domain.ActivityEvent
}

func (f *fakeCollector) wait(ctx context.Context, username string) error {
	f.mu.Lock()
	gate := f.gates[username]
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCollector) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	f.mu.Lock()
	f.calls = append(f.calls, username)
	f.mu.Unlock()
	if err := f.wait(ctx, username); err != nil {
		return nil, err
	}
	if f.profile != nil {
		return nil, f.profile
	}
	return &domain.Profile{Login: username}, nil
}

func (f *fakeCollector) GetRepositories(ctx context.Context, username string) ([]*domain.Repository, error) {
	if f.repos != nil {
		return nil, f.repos
	}
	return []*domain.Repository{{ID: 1, Name: username + "-repo", Language: "Go", StargazersCount: 2}}, nil
}

func (f *fakeCollector) GetPublicEvents(ctx context.Context, username string) ([]*domain.ActivityEvent, error) {
	if f.events != nil {
		return nil, f.events
	}
	return f.eventList, nil
}

func (f *fakeCollector) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newOrchestrator(c *fakeCollector, opts ...Option) *Orchestrator {
	logger, _ := test.NewNullLogger()
	now := func() time.Time { return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC) }
	base := []Option{
		WithLogger(logger),
		WithContributionSource(aggregator.NewSeededSource(1, 2, now)),
	}
	return New(c, append(base, opts...)...)
}

func TestSearchReady(t *testing.T) {
	var states []State
	o := newOrchestrator(&fakeCollector{}, WithObserver(func(v View) { states = append(states, v.State) }))

	assert.Equal(t, StateIdle, o.View().State)

	v := o.Search(context.Background(), "  octocat ")
	require.Equal(t, StateReady, v.State)
	assert.Equal(t, "octocat", v.Username)
	require.NotNil(t, v.Data)
	assert.Equal(t, "octocat", v.Data.Profile.Login)
	assert.Len(t, v.Data.Repositories, 1)
	require.NotNil(t, v.Summary)
	assert.Equal(t, "Go", v.Summary.Totals.TopLanguage)
	assert.Len(t, v.Summary.Contributions, aggregator.CalendarDays)
	assert.Equal(t, uint64(1), v.Generation)
	assert.Equal(t, []State{StateLoading, StateReady}, states)
	assert.Equal(t, v, o.View())
}

func TestSearchBlankIsNoop(t *testing.T) {
	c := &fakeCollector{}
	notified := 0
	o := newOrchestrator(c, WithObserver(func(View) { notified++ }))

	for _, q := range []string{"", "   ", "\t\n"} {
		v := o.Search(context.Background(), q)
		assert.Equal(t, StateIdle, v.State)
	}
	assert.Empty(t, c.Calls())
	assert.Zero(t, notified)
	assert.Zero(t, o.View().Generation)
}

func TestSearchNotFound(t *testing.T) {
	o := newOrchestrator(&fakeCollector{profile: apperrors.NewNotFoundError("User")})

	v := o.Search(context.Background(), "ghost")
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "User not found", v.Message)
	assert.True(t, v.NotFound)
	assert.Nil(t, v.Data, "no partial data on error")
	assert.Nil(t, v.Summary)
}

func TestSearchRepositoriesFailure(t *testing.T) {
	o := newOrchestrator(&fakeCollector{repos: apperrors.NewRemoteError(500, "Internal Server Error")})

	v := o.Search(context.Background(), "octocat")
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "GitHub API error: 500 Internal Server Error", v.Message)
	assert.False(t, v.NotFound)
	assert.Nil(t, v.Data)
}

func TestSearchEventsFailureStillReady(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	o := newOrchestrator(&fakeCollector{events: errors.New("events down")}, WithLogger(logger))

	v := o.Search(context.Background(), "octocat")
	require.Equal(t, StateReady, v.State)
	assert.NotNil(t, v.Data.Events)
	assert.Empty(t, v.Data.Events)
	assert.Empty(t, v.Summary.Timeline)

	for _, entry := range hook.AllEntries() {
		assert.True(t, entry.Level > logrus.WarnLevel, "unexpected %s entry: %s", entry.Level, entry.Message)
	}
}

func TestSearchClearsPreviousData(t *testing.T) {
	c := &fakeCollector{gates: map[string]chan struct{}{}}
	o := newOrchestrator(c)
	require.Equal(t, StateReady, o.Search(context.Background(), "first").State)

	gate := make(chan struct{})
	c.mu.Lock()
	c.gates["second"] = gate
	c.mu.Unlock()

	done := make(chan View)
	go func() { done <- o.Search(context.Background(), "second") }()

	require.Eventually(t, func() bool { return o.View().Username == "second" }, time.Second, time.Millisecond)
	loading := o.View()
	assert.Equal(t, StateLoading, loading.State)
	assert.Nil(t, loading.Data)
	assert.Empty(t, loading.Message)

	close(gate)
	assert.Equal(t, StateReady, (<-done).State)
}

// A slow search finishing after a newer one must not overwrite it.
func TestSupersededLoadIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	c := &fakeCollector{gates: map[string]chan struct{}{"slow": slow}}
	o := newOrchestrator(c)

	done := make(chan View)
	go func() { done <- o.Search(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return len(c.Calls()) == 1 }, time.Second, time.Millisecond)

	fast := o.Search(context.Background(), "fast")
	require.Equal(t, StateReady, fast.State)
	assert.Equal(t, uint64(2), fast.Generation)

	close(slow)
	stale := <-done

	assert.Equal(t, "fast", stale.Username, "superseded search returns the current view")
	assert.Equal(t, "fast", o.View().Username)
	assert.Equal(t, "fast", o.View().Data.Profile.Login)
	assert.Equal(t, uint64(2), o.View().Generation)
}

func TestResetInvalidatesInFlightLoad(t *testing.T) {
	gate := make(chan struct{})
	c := &fakeCollector{gates: map[string]chan struct{}{"octocat": gate}}
	o := newOrchestrator(c)

	done := make(chan View)
	go func() { done <- o.Search(context.Background(), "octocat") }()
	require.Eventually(t, func() bool { return len(c.Calls()) == 1 }, time.Second, time.Millisecond)

	reset := o.Reset()
	assert.Equal(t, StateIdle, reset.State)

	close(gate)
	assert.Equal(t, StateIdle, (<-done).State)
	assert.Equal(t, StateIdle, o.View().State)
}

func TestRetry(t *testing.T) {
	c := &fakeCollector{profile: apperrors.NewRateLimitedError(nil)}
	o := newOrchestrator(c)

	v := o.Search(context.Background(), "octocat")
	require.Equal(t, StateError, v.State)
	assert.Equal(t, "GitHub API rate limit exceeded. Resets soon", v.Message)

	v = o.Retry()
	assert.Equal(t, StateIdle, v.State)
	assert.Empty(t, v.Message)

	c.profile = nil
	assert.Equal(t, StateReady, o.Search(context.Background(), "octocat").State)

	assert.Equal(t, StateReady, o.Retry().State, "retry only leaves the error state")
}

func TestSearchShareURL(t *testing.T) {
	o := newOrchestrator(&fakeCollector{}, WithLocation("https://dash.example.com/?theme=dark"))

	var loading View
	o.observers = append(o.observers, func(v View) {
		if v.State == StateLoading {
			loading = v
		}
	})

	v := o.Search(context.Background(), "octo cat")
	assert.Equal(t, "https://dash.example.com/?theme=dark&user=octo+cat", loading.ShareURL)
	assert.Equal(t, loading.ShareURL, v.ShareURL)
}

func TestIsNotFoundMessage(t *testing.T) {
	assert.True(t, IsNotFoundMessage("User not found"))
	assert.True(t, IsNotFoundMessage("NOT FOUND"))
	assert.False(t, IsNotFoundMessage("GitHub API error: 500 Internal Server Error"))
}
