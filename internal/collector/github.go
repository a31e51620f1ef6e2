package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v55/github"

	"github.com/kurihiro0119/gitpeek/internal/domain"
	apperrors "github.com/kurihiro0119/gitpeek/internal/errors"
)

// githubCollector implements Collector using GitHub API
type githubCollector struct {
	client      *github.Client
	rateLimiter RateLimiter
	pageSize    int
	maxPages    int
	logger      *slog.Logger
}

// NewGitHubCollector creates a new GitHub collector for the scope described by cfg
func NewGitHubCollector(cfg ClientConfig, logger *slog.Logger) (Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	coll, err := newGitHubCollector(cfg, NewRateLimiter(cfg.MinDelay, cfg.MaxWait, logger), logger)
	if err != nil {
		return nil, err
	}
	return coll, nil
}

func newGitHubCollector(cfg ClientConfig, limiter RateLimiter, logger *slog.Logger) (*githubCollector, error) {
	client, err := newGitHubClient(cfg)
	if err != nil {
		return nil, err
	}

	return &githubCollector{
		client:      client,
		rateLimiter: limiter,
		pageSize:    cfg.PageSize,
		maxPages:    cfg.MaxPages,
		logger:      logger,
	}, nil
}

// GetUser retrieves the public profile of a user
func (c *githubCollector) GetUser(ctx context.Context, username string) (*domain.UserProfile, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := c.client.Users.Get(ctx, username)
	updateRateLimit(c.rateLimiter, resp)
	if err != nil {
		if statusCode(resp, err) == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s", username))
		}
		return nil, upstreamError(fmt.Sprintf("failed to fetch user %s", username), err)
	}

	return toUserProfile(user), nil
}

// GetAuthenticatedUser retrieves the profile the credential belongs to
func (c *githubCollector) GetAuthenticatedUser(ctx context.Context) (*domain.UserProfile, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	user, resp, err := c.client.Users.Get(ctx, "")
	updateRateLimit(c.rateLimiter, resp)
	if err != nil {
		if statusCode(resp, err) == http.StatusUnauthorized {
			return nil, apperrors.NewUnauthorizedError("GitHub rejected the access token")
		}
		return nil, upstreamError("failed to fetch authenticated user", err)
	}

	return toUserProfile(user), nil
}

// ListRepositories retrieves repositories sorted by last update, newest first
func (c *githubCollector) ListRepositories(ctx context.Context, username string, own bool) ([]domain.Repository, error) {
	target := username
	if own {
		// An empty user lists the authenticated user's repositories.
		target = ""
	}

	repos, err := FetchAll(ctx, c.pageOptions("repositories of "+username), func(ctx context.Context, opts github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return c.client.Repositories.List(ctx, target, &github.RepositoryListOptions{
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: opts,
		})
	})
	if err != nil {
		return nil, upstreamError(fmt.Sprintf("failed to list repositories for %s", username), err)
	}

	result := make([]domain.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, toRepository(repo))
	}
	return result, nil
}

// ListCommits retrieves the raw commits of a repository matching q
func (c *githubCollector) ListCommits(ctx context.Context, owner, repo string, q CommitQuery) ([]*github.RepositoryCommit, error) {
	commits, err := FetchAll(ctx, c.pageOptions("commits of "+owner+"/"+repo), func(ctx context.Context, opts github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
		return c.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
			Author:      q.Author,
			Since:       q.Since,
			Until:       q.Until,
			ListOptions: opts,
		})
	})
	if err != nil {
		return commits, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
	}
	return commits, nil
}

func (c *githubCollector) pageOptions(resource string) PageOptions {
	return PageOptions{
		PageSize: c.pageSize,
		MaxPages: c.maxPages,
		Limiter:  c.rateLimiter,
		Logger:   c.logger,
		Resource: resource,
	}
}

// upstreamError classifies a GitHub failure as rate limited, forbidden or
// upstream. Errors that already carry an application code are kept as they are.
func upstreamError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return apperrors.NewRateLimitedError(message, err)
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusForbidden {
		return apperrors.NewForbiddenError(message, err)
	}
	return apperrors.NewUpstreamError(message, err)
}

// toRepository translates a github.Repository to domain.Repository
func toRepository(r *github.Repository) domain.Repository {
	repo := domain.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		Private:     r.GetPrivate(),
		HTMLURL:     r.GetHTMLURL(),
		Language:    r.Language,
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
	}
	if r.UpdatedAt != nil {
		updatedAt := r.UpdatedAt.Time.UTC()
		repo.UpdatedAt = &updatedAt
	}
	return repo
}

// toUserProfile translates a github.User to domain.UserProfile
func toUserProfile(u *github.User) *domain.UserProfile {
	return &domain.UserProfile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time.UTC(),
	}
}
