package domain

import "time"

// Profile represents a public GitHub user profile
type Profile struct {
	Login           string    `json:"login"`
	ID              int64     `json:"id"`
	Name            string    `json:"name,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Location        string    `json:"location,omitempty"`
	Company         string    `json:"company,omitempty"`
	Blog            string    `json:"blog,omitempty"`
	Email           string    `json:"email,omitempty"`
	TwitterUsername string    `json:"twitter_username,omitempty"`
	AvatarURL       string    `json:"avatar_url"`
	HTMLURL         string    `json:"html_url"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	PublicRepos     int       `json:"public_repos"`
	PublicGists     int       `json:"public_gists"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DisplayName returns the profile name, falling back to the login
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}

// Dashboard is the raw data fetched for one username
type Dashboard struct {
	Profile      *Profile         `json:"profile"`
	Repositories []*Repository    `json:"repositories"`
	Events       []*ActivityEvent `json:"events"`
}
