package domain

import "time"

// EventKind is the event-type tag reported by the GitHub events API.
// The set is open-ended: kinds not listed here decode to UnknownPayload.
type EventKind string

const (
	EventKindPush         EventKind = "PushEvent"
	EventKindPullRequest  EventKind = "PullRequestEvent"
	EventKindIssues       EventKind = "IssuesEvent"
	EventKindIssueComment EventKind = "IssueCommentEvent"
	EventKindWatch        EventKind = "WatchEvent"
	EventKindFork         EventKind = "ForkEvent"
	EventKindCreate       EventKind = "CreateEvent"
	EventKindDelete       EventKind = "DeleteEvent"
	EventKindRelease      EventKind = "ReleaseEvent"
)

// RepoRef identifies the repository an event originated from
type RepoRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // owner/repo
}

// ShortName returns the repository part of owner/repo
func (r RepoRef) ShortName() string {
	for i := 0; i < len(r.Name); i++ {
		if r.Name[i] == '/' {
			return r.Name[i+1:]
		}
	}
	return r.Name
}

// ActivityEvent represents a public event performed by the user
type ActivityEvent struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Actor     string       `json:"actor,omitempty"`
	Repo      RepoRef      `json:"repo"`
	Payload   EventPayload `json:"payload"`
	CreatedAt time.Time    `json:"created_at"`
}

// EventPayload is the kind-specific part of an ActivityEvent.
// Implementations are limited to this package.
type EventPayload interface {
	Kind() EventKind
	isEventPayload()
}

// PushPayload carries a push of one or more commits
type PushPayload struct {
	Ref     string `json:"ref,omitempty"`
	Commits int    `json:"commits"`
}

// PullRequestPayload carries a pull request action
type PullRequestPayload struct {
	Action string `json:"action"`
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// IssuesPayload carries an issue action
type IssuesPayload struct {
	Action string `json:"action"`
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// IssueCommentPayload carries a comment on an issue or pull request
type IssueCommentPayload struct {
	Action      string `json:"action"`
	IssueNumber int    `json:"issue_number"`
	IssueTitle  string `json:"issue_title"`
}

// WatchPayload carries a star
type WatchPayload struct {
	Action string `json:"action"`
}

// ForkPayload carries the repository created by a fork
type ForkPayload struct {
	Forkee string `json:"forkee"`
}

// CreatePayload carries a created branch, tag or repository
type CreatePayload struct {
	Ref     string `json:"ref,omitempty"`
	RefType string `json:"ref_type"`
}

// DeletePayload carries a deleted branch or tag
type DeletePayload struct {
	Ref     string `json:"ref"`
	RefType string `json:"ref_type"`
}

// ReleasePayload carries a release action
type ReleasePayload struct {
	Action  string `json:"action"`
	TagName string `json:"tag_name"`
}

// UnknownPayload is the fallback for event kinds without a dedicated variant
type UnknownPayload struct {
	Type string `json:"type"`
}

func (PushPayload) Kind() EventKind         { return EventKindPush }
func (PullRequestPayload) Kind() EventKind  { return EventKindPullRequest }
func (IssuesPayload) Kind() EventKind       { return EventKindIssues }
func (IssueCommentPayload) Kind() EventKind { return EventKindIssueComment }
func (WatchPayload) Kind() EventKind        { return EventKindWatch }
func (ForkPayload) Kind() EventKind         { return EventKindFork }
func (CreatePayload) Kind() EventKind       { return EventKindCreate }
func (DeletePayload) Kind() EventKind       { return EventKindDelete }
func (ReleasePayload) Kind() EventKind      { return EventKindRelease }
func (p UnknownPayload) Kind() EventKind    { return EventKind(p.Type) }

func (PushPayload) isEventPayload()         {}
func (PullRequestPayload) isEventPayload()  {}
func (IssuesPayload) isEventPayload()       {}
func (IssueCommentPayload) isEventPayload() {}
func (WatchPayload) isEventPayload()        {}
func (ForkPayload) isEventPayload()         {}
func (CreatePayload) isEventPayload()       {}
func (DeletePayload) isEventPayload()       {}
func (ReleasePayload) isEventPayload()      {}
func (UnknownPayload) isEventPayload()      {}
