package domain

import "time"

// UserActivity is the aggregated activity summary for one user and time range.
// It is the unit of caching and the API response body.
type UserActivity struct {
	Username      string           `json:"username"`
	AvatarURL     *string          `json:"avatar_url"`
	TotalCommits  int              `json:"total_commits"`
	Repositories  []Repository     `json:"repositories"`
	Commits       []Commit         `json:"commits"`
	ActivityChart []CommitActivity `json:"activity_chart"`
	TimeRange     TimeRange        `json:"time_range"`
}

// UserProfile is the public profile of a GitHub account
type UserProfile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio,omitempty"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}
