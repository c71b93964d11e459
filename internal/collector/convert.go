package collector

import (
	"encoding/json"

	"github.com/google/go-github/v55/github"

	"github.com/kurihiro0119/devpulse/internal/domain"
)

func toProfile(u *github.User) *domain.Profile {
	return &domain.Profile{
		Login:           u.GetLogin(),
		ID:              u.GetID(),
		Name:            u.GetName(),
		Bio:             u.GetBio(),
		Location:        u.GetLocation(),
		Company:         u.GetCompany(),
		Blog:            u.GetBlog(),
		Email:           u.GetEmail(),
		TwitterUsername: u.GetTwitterUsername(),
		AvatarURL:       u.GetAvatarURL(),
		HTMLURL:         u.GetHTMLURL(),
		Followers:       u.GetFollowers(),
		Following:       u.GetFollowing(),
		PublicRepos:     u.GetPublicRepos(),
		PublicGists:     u.GetPublicGists(),
		CreatedAt:       u.GetCreatedAt().Time,
		UpdatedAt:       u.GetUpdatedAt().Time,
	}
}

func toRepository(r *github.Repository) *domain.Repository {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return &domain.Repository{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		HTMLURL:         r.GetHTMLURL(),
		Description:     r.GetDescription(),
		Language:        r.GetLanguage(),
		Fork:            r.GetFork(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		WatchersCount:   r.GetWatchersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Topics:          topics,
		Size:            r.GetSize(),
		DefaultBranch:   r.GetDefaultBranch(),
		Visibility:      r.GetVisibility(),
		CreatedAt:       r.GetCreatedAt().Time,
		UpdatedAt:       r.GetUpdatedAt().Time,
		PushedAt:        r.GetPushedAt().Time,
	}
}

func toActivityEvent(e *github.Event) *domain.ActivityEvent {
	var raw json.RawMessage
	if e.RawPayload != nil {
		raw = *e.RawPayload
	}
	return &domain.ActivityEvent{
		ID:    e.GetID(),
		Type:  e.GetType(),
		Actor: e.GetActor().GetLogin(),
		Repo: domain.RepoRef{
			ID:   e.GetRepo().GetID(),
			Name: e.GetRepo().GetName(),
		},
		Payload:   decodePayload(e.GetType(), raw),
		CreatedAt: e.GetCreatedAt().Time,
	}
}

// decodePayload decodes the raw payload into the variant for kind.
// Unrecognized kinds and undecodable payloads yield UnknownPayload.
func decodePayload(kind string, raw json.RawMessage) domain.EventPayload {
	unknown := domain.UnknownPayload{Type: kind}

	switch domain.EventKind(kind) {
	case domain.EventKindPush:
		var p github.PushEvent
		if !decode(raw, &p) {
			return unknown
		}
		commits := 1
		if p.Size != nil {
			commits = *p.Size
		} else if len(p.Commits) > 0 {
			commits = len(p.Commits)
		}
		return domain.PushPayload{Ref: p.GetRef(), Commits: commits}

	case domain.EventKindPullRequest:
		var p github.PullRequestEvent
		if !decode(raw, &p) {
			return unknown
		}
		number := p.GetNumber()
		if number == 0 {
			number = p.GetPullRequest().GetNumber()
		}
		return domain.PullRequestPayload{
			Action: p.GetAction(),
			Number: number,
			Title:  p.GetPullRequest().GetTitle(),
		}

	case domain.EventKindIssues:
		var p github.IssuesEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.IssuesPayload{
			Action: p.GetAction(),
			Number: p.GetIssue().GetNumber(),
			Title:  p.GetIssue().GetTitle(),
		}

	case domain.EventKindIssueComment:
		var p github.IssueCommentEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.IssueCommentPayload{
			Action:      p.GetAction(),
			IssueNumber: p.GetIssue().GetNumber(),
			IssueTitle:  p.GetIssue().GetTitle(),
		}

	case domain.EventKindWatch:
		var p github.WatchEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.WatchPayload{Action: p.GetAction()}

	case domain.EventKindFork:
		var p github.ForkEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.ForkPayload{Forkee: p.GetForkee().GetFullName()}

	case domain.EventKindCreate:
		var p github.CreateEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.CreatePayload{Ref: p.GetRef(), RefType: p.GetRefType()}

	case domain.EventKindDelete:
		var p github.DeleteEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.DeletePayload{Ref: p.GetRef(), RefType: p.GetRefType()}

	case domain.EventKindRelease:
		var p github.ReleaseEvent
		if !decode(raw, &p) {
			return unknown
		}
		return domain.ReleasePayload{
			Action:  p.GetAction(),
			TagName: p.GetRelease().GetTagName(),
		}
	}

	return unknown
}

func decode(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}
