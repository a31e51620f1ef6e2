package domain

import "time"

// Repository represents a GitHub repository considered for activity
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description *string    `json:"description"`
	Private     bool       `json:"private"`
	HTMLURL     string     `json:"html_url"`
	Language    *string    `json:"language"`
	Stars       int        `json:"stars"`
	Forks       int        `json:"forks"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// LastUpdate returns the last update time, or the zero time when unknown
func (r *Repository) LastUpdate() time.Time {
	if r.UpdatedAt == nil {
		return time.Time{}
	}
	return *r.UpdatedAt
}

// Commit is a normalized commit attributed to a user
type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	Date       time.Time `json:"date"`
	HTMLURL    string    `json:"html_url"`
	Repository string    `json:"repository"`
}

// CommitActivity is the number of commits on one UTC day
type CommitActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayFormat is the layout of CommitActivity.Date
const DayFormat = "2006-01-02"
