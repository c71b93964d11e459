package domain

import "time"

// Repository represents a GitHub repository owned by the profiled user
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description,omitempty"`
	Language        string    `json:"language,omitempty"` // empty for non-code or unrecognized repos
	Fork            bool      `json:"fork"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	WatchersCount   int       `json:"watchers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Topics          []string  `json:"topics"`
	Size            int       `json:"size"`
	DefaultBranch   string    `json:"default_branch,omitempty"`
	Visibility      string    `json:"visibility,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// HasLanguage reports whether the remote detected a primary language
func (r *Repository) HasLanguage() bool {
	return r.Language != ""
}
