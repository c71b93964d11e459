package aggregator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

// CalendarDays is the length of every contribution calendar
const CalendarDays = 364

const dateLayout = "2006-01-02"

// ContributionSource supplies the contribution calendar for a user.
// Implementations must return CalendarDays consecutive days, oldest first,
// ending today, with levels from ContributionLevel.
type ContributionSource interface {
	Contributions(ctx context.Context, username string) ([]domain.ContributionDay, error)
}

// SyntheticSource is a placeholder ContributionSource. GitHub's REST API
// has no public contribution endpoint, so counts are randomly generated and
// do not reflect the user's history.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSyntheticSource creates a source seeded from the runtime
func NewSyntheticSource() *SyntheticSource {
	return NewSeededSource(rand.Uint64(), rand.Uint64(), time.Now)
}

// NewSeededSource creates a reproducible source
func NewSeededSource(seed1, seed2 uint64, now func() time.Time) *SyntheticSource {
	if now == nil {
		now = time.Now
	}
	return &SyntheticSource{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
		now: now,
	}
}

// Contributions generates a fresh calendar ending today. The username is
// ignored.
func (s *SyntheticSource) Contributions(ctx context.Context, username string) ([]domain.ContributionDay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return GenerateContributions(s.rng, s.now()), nil
}

// GenerateContributions produces CalendarDays synthetic days ending on
// today's calendar date. Weekdays are active 65% of the time with 1-12
// contributions, weekends 30% with 1-6; any day has a 5% chance of a 10-29
// spike.
func GenerateContributions(rng *rand.Rand, today time.Time) []domain.ContributionDay {
	// Noon avoids DST transitions shifting the date.
	start := time.Date(today.Year(), today.Month(), today.Day()-(CalendarDays-1), 12, 0, 0, 0, today.Location())

	days := make([]domain.ContributionDay, 0, CalendarDays)
	for i := 0; i < CalendarDays; i++ {
		date := start.AddDate(0, 0, i)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

		chance, maxCount := 0.65, 12
		if weekend {
			chance, maxCount = 0.3, 6
		}

		count := 0
		if rng.Float64() < chance {
			count = rng.IntN(maxCount) + 1
		}
		if rng.Float64() < 0.05 {
			count = rng.IntN(20) + 10
		}

		days = append(days, domain.ContributionDay{
			Date:  date.Format(dateLayout),
			Count: count,
			Level: ContributionLevel(count),
		})
	}
	return days
}

// ContributionLevel quantizes a day's count into a 0-4 heatmap level
func ContributionLevel(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 10:
		return 3
	default:
		return 4
	}
}

// TotalContributions sums the counts of a calendar
func TotalContributions(days []domain.ContributionDay) int {
	total := 0
	for _, d := range days {
		total += d.Count
	}
	return total
}
