package collector

import (
	"context"
	"time"

	"github.com/google/go-github/v55/github"

	"github.com/kurihiro0119/gitpeek/internal/domain"
)

// Collector defines the interface for reading user activity from GitHub
type Collector interface {
	// GetUser retrieves the public profile of a user
	GetUser(ctx context.Context, username string) (*domain.UserProfile, error)

	// GetAuthenticatedUser retrieves the profile the credential belongs to
	GetAuthenticatedUser(ctx context.Context) (*domain.UserProfile, error)

	// ListRepositories retrieves repositories sorted by last update, newest first.
	// When own is set the authenticated user's full set (private included) is listed
	// instead of username's public repositories.
	ListRepositories(ctx context.Context, username string, own bool) ([]domain.Repository, error)

	// ListCommits retrieves the raw commits of a repository matching q
	ListCommits(ctx context.Context, owner, repo string, q CommitQuery) ([]*github.RepositoryCommit, error)
}

// CommitQuery filters a commit listing on the server side
type CommitQuery struct {
	Author string
	Since  time.Time
	Until  time.Time
}
