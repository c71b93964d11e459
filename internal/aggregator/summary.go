package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

// DefaultTopRepos is the number of repositories shown by star ranking
const DefaultTopRepos = 6

// SummaryOptions tunes Summarize
type SummaryOptions struct {
	TopRepos      int
	TimelineLimit int
	Now           time.Time
}

// Summary is everything a dashboard renders for one profile
type Summary struct {
	Profile            *domain.Profile          `json:"profile"`
	Totals             domain.TotalStats        `json:"totals"`
	Languages          []domain.LanguageStat    `json:"languages"`
	TopRepositories    []*domain.Repository     `json:"top_repositories"`
	Contributions      []domain.ContributionDay `json:"contributions"`
	TotalContributions int                      `json:"total_contributions"`
	Timeline           []TimelineEntry          `json:"timeline"`
}

// Summarize derives every dashboard aggregate from one fetched profile
func Summarize(ctx context.Context, d *domain.Dashboard, src ContributionSource, opts SummaryOptions) (*Summary, error) {
	if opts.TopRepos <= 0 {
		opts.TopRepos = DefaultTopRepos
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	login := ""
	if d.Profile != nil {
		login = d.Profile.Login
	}
	days, err := src.Contributions(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to load contributions: %w", err)
	}

	top := ReposByStars(d.Repositories)
	if len(top) > opts.TopRepos {
		top = top[:opts.TopRepos]
	}

	return &Summary{
		Profile:            d.Profile,
		Totals:             ComputeTotalStats(d.Repositories),
		Languages:          LanguageStats(d.Repositories),
		TopRepositories:    top,
		Contributions:      days,
		TotalContributions: TotalContributions(days),
		Timeline:           Timeline(d.Events, opts.TimelineLimit, opts.Now),
	}, nil
}
