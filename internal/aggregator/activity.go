package aggregator

import (
	"fmt"
	"strings"
	"time"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

// DefaultTimelineLimit is the number of events shown in the activity feed
const DefaultTimelineLimit = 15

// TimelineEntry is one rendered line of the activity feed
type TimelineEntry struct {
	ID        string           `json:"id"`
	Kind      domain.EventKind `json:"kind"`
	Repo      string           `json:"repo"`
	Label     string           `json:"label"`
	When      string           `json:"when"`
	CreatedAt time.Time        `json:"created_at"`
}

// Timeline labels the first limit events, keeping their order
func Timeline(events []*domain.ActivityEvent, limit int, now time.Time) []TimelineEntry {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	if len(events) < limit {
		limit = len(events)
	}

	entries := make([]TimelineEntry, 0, limit)
	for _, e := range events[:limit] {
		kind := domain.EventKind(e.Type)
		if e.Payload != nil {
			kind = e.Payload.Kind()
		}
		entries = append(entries, TimelineEntry{
			ID:        e.ID,
			Kind:      kind,
			Repo:      e.Repo.Name,
			Label:     EventLabel(e),
			When:      FormatRelativeTime(e.CreatedAt, now),
			CreatedAt: e.CreatedAt,
		})
	}
	return entries
}

// EventLabel describes an event in one line
func EventLabel(e *domain.ActivityEvent) string {
	repo := e.Repo.ShortName()

	switch p := e.Payload.(type) {
	case domain.PushPayload:
		return fmt.Sprintf("Pushed %d %s to %s", p.Commits, plural(p.Commits, "commit"), repo)
	case domain.PullRequestPayload:
		return fmt.Sprintf("%s PR: %s", capitalize(orDefault(p.Action, "opened")), p.Title)
	case domain.IssuesPayload:
		return fmt.Sprintf("%s issue: %s", capitalize(orDefault(p.Action, "opened")), p.Title)
	case domain.IssueCommentPayload:
		return fmt.Sprintf("Commented on issue in %s", repo)
	case domain.WatchPayload:
		return fmt.Sprintf("Starred %s", e.Repo.Name)
	case domain.ForkPayload:
		return fmt.Sprintf("Forked %s", e.Repo.Name)
	case domain.CreatePayload:
		if p.Ref != "" {
			return fmt.Sprintf("Created branch %s in %s", p.Ref, repo)
		}
		return fmt.Sprintf("Created repository in %s", repo)
	case domain.DeletePayload:
		return fmt.Sprintf("Deleted branch in %s", repo)
	case domain.ReleasePayload:
		return fmt.Sprintf("Released in %s", repo)
	}

	kind := e.Type
	if e.Payload != nil {
		kind = string(e.Payload.Kind())
	}
	return fmt.Sprintf("%s in %s", strings.Replace(kind, "Event", "", 1), repo)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
