package collector

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

// Collector defines the interface for reading a public GitHub profile
type Collector interface {
	// GetProfile retrieves the user profile
	GetProfile(ctx context.Context, username string) (*domain.Profile, error)

	// GetRepositories retrieves one page of repositories, most recently pushed first
	GetRepositories(ctx context.Context, username string) ([]*domain.Repository, error)

	// GetPublicEvents retrieves one page of public events, newest first
	GetPublicEvents(ctx context.Context, username string) ([]*domain.ActivityEvent, error)
}

// CollectProfile fetches profile, repositories and events concurrently.
// Profile and repositories are mandatory; a failed events call yields an
// empty event list instead of an error.
func CollectProfile(ctx context.Context, c Collector, username string, log logrus.FieldLogger) (*domain.Dashboard, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var (
		profile *domain.Profile
		repos   []*domain.Repository
		events  []*domain.ActivityEvent
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := c.GetProfile(gctx, username)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})

	g.Go(func() error {
		r, err := c.GetRepositories(gctx, username)
		if err != nil {
			return err
		}
		repos = r
		return nil
	})

	g.Go(func() error {
		e, err := c.GetPublicEvents(gctx, username)
		if err != nil {
			log.WithField("username", username).WithError(err).Debug("public events unavailable, continuing without activity")
			return nil
		}
		events = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if repos == nil {
		repos = []*domain.Repository{}
	}
	if events == nil {
		events = []*domain.ActivityEvent{}
	}

	return &domain.Dashboard{
		Profile:      profile,
		Repositories: repos,
		Events:       events,
	}, nil
}
