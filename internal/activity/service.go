// Package activity assembles a user's activity summary from GitHub and caches it.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kurihiro0119/gitpeek/internal/aggregator"
	"github.com/kurihiro0119/gitpeek/internal/collector"
	"github.com/kurihiro0119/gitpeek/internal/domain"
	apperrors "github.com/kurihiro0119/gitpeek/internal/errors"
	"github.com/kurihiro0119/gitpeek/internal/storage"
)

const (
	// MaxAggregatedRepositories is how many of the most recently updated
	// repositories are scanned for commits
	MaxAggregatedRepositories = 50
	// MaxRepositories is how many repositories a summary lists
	MaxRepositories = 20
	// MaxCommits is how many commits a summary lists
	MaxCommits = 100

	DefaultCacheTTL = 10 * time.Minute
)

// Collectors hands out a GitHub collector per credential scope
type Collectors interface {
	ForToken(token string) (collector.Collector, error)
}

// Options configures a Service
type Options struct {
	CacheTTL    time.Duration
	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

// Service builds and caches user activity summaries
type Service struct {
	collectors  Collectors
	cache       storage.Store
	cacheTTL    time.Duration
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates a new activity service
func NewService(collectors Collectors, cache storage.Store, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = aggregator.DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		collectors:  collectors,
		cache:       cache,
		cacheTTL:    opts.CacheTTL,
		concurrency: opts.Concurrency,
		now:         opts.Now,
		logger:      opts.Logger,
	}
}

// CacheKey returns the cache key of a summary. Authenticated scopes are keyed
// by a digest of the token so the token itself is never stored in a key.
func CacheKey(username string, tr domain.TimeRange, cred domain.Credential) string {
	return fmt.Sprintf("user_activity:%s:%s:%s", username, tr, scopeOf(cred))
}

func scopeOf(cred domain.Credential) string {
	if !cred.Authenticated() {
		return "public"
	}
	sum := sha256.Sum256([]byte(cred.Token))
	return "auth:" + hex.EncodeToString(sum[:])[:16]
}

// GetUserActivity returns the activity summary of username over tr, as seen
// with cred. Summaries are served from the cache while fresh.
func (s *Service) GetUserActivity(ctx context.Context, username string, tr domain.TimeRange, cred domain.Credential) (*domain.UserActivity, error) {
	if username == "" {
		return nil, apperrors.NewBadRequestError("username is required")
	}
	if !tr.Valid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("invalid time range %q", tr))
	}

	logger := s.logger.With("username", username, "time_range", string(tr), "authenticated", cred.Authenticated())
	key := CacheKey(username, tr, cred)

	var cached domain.UserActivity
	found, err := storage.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		logger.Warn("cache read failed, treating as miss", "error", err)
	} else if found {
		logger.Debug("cache hit")
		return &cached, nil
	}

	coll, err := s.collectors.ForToken(cred.Token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create GitHub client", err)
	}

	window := tr.Resolve(s.now())

	profile, err := coll.GetUser(ctx, username)
	if err != nil {
		return nil, upstream(fmt.Sprintf("failed to fetch user %s", username), err)
	}

	own := cred.Authenticated() && (cred.Login == "" || strings.EqualFold(cred.Login, username))
	repos, err := coll.ListRepositories(ctx, username, own)
	if err != nil {
		return nil, upstream(fmt.Sprintf("failed to list repositories for %s", username), err)
	}
	repos = rankRepositories(repos)

	result := aggregator.NewAggregator(coll, s.concurrency, logger).
		Aggregate(ctx, lo.Subset(repos, 0, MaxAggregatedRepositories), window, username)
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("request cancelled", err)
	}
	if failed := result.Failed(); len(failed) > 0 {
		logger.Warn("some repositories could not be read", "failed", len(failed), "scanned", len(result.Reports))
	}

	activity := &domain.UserActivity{
		Username:      username,
		TotalCommits:  len(result.Commits),
		Repositories:  lo.Subset(repos, 0, MaxRepositories),
		Commits:       lo.Subset(result.Commits, 0, MaxCommits),
		ActivityChart: result.Histogram,
		TimeRange:     tr,
	}
	if profile.AvatarURL != "" {
		activity.AvatarURL = lo.ToPtr(profile.AvatarURL)
	}
	normalize(activity)

	if err := storage.SetJSON(ctx, s.cache, key, activity, s.cacheTTL); err != nil {
		logger.Warn("cache write failed", "error", err)
	}

	logger.Info("activity assembled",
		"repositories", len(repos), "commits", activity.TotalCommits, "days", len(activity.ActivityChart))
	return activity, nil
}

// GetUserInfo returns the public profile of username
func (s *Service) GetUserInfo(ctx context.Context, username string) (*domain.UserProfile, error) {
	if username == "" {
		return nil, apperrors.NewBadRequestError("username is required")
	}

	logger := s.logger.With("username", username)
	key := "user_info:" + username

	var cached domain.UserProfile
	found, err := storage.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		logger.Warn("cache read failed, treating as miss", "error", err)
	} else if found {
		return &cached, nil
	}

	coll, err := s.collectors.ForToken("")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create GitHub client", err)
	}

	profile, err := coll.GetUser(ctx, username)
	if err != nil {
		return nil, upstream(fmt.Sprintf("failed to fetch user %s", username), err)
	}

	if err := storage.SetJSON(ctx, s.cache, key, profile, s.cacheTTL); err != nil {
		logger.Warn("cache write failed", "error", err)
	}
	return profile, nil
}

// GetAuthenticatedUser returns the profile behind cred
func (s *Service) GetAuthenticatedUser(ctx context.Context, cred domain.Credential) (*domain.UserProfile, error) {
	if !cred.Authenticated() {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	coll, err := s.collectors.ForToken(cred.Token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create GitHub client", err)
	}
	profile, err := coll.GetAuthenticatedUser(ctx)
	if err != nil {
		return nil, upstream("failed to fetch authenticated user", err)
	}
	return profile, nil
}

// rankRepositories removes duplicate ids and orders by last update, newest first
func rankRepositories(repos []domain.Repository) []domain.Repository {
	unique := lo.UniqBy(repos, func(r domain.Repository) int64 {
		return r.ID
	})
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].LastUpdate().After(unique[j].LastUpdate())
	})
	return unique
}

// normalize replaces nil slices so the summary encodes lists as [] rather than null
func normalize(a *domain.UserActivity) {
	if a.Repositories == nil {
		a.Repositories = []domain.Repository{}
	}
	if a.Commits == nil {
		a.Commits = []domain.Commit{}
	}
	if a.ActivityChart == nil {
		a.ActivityChart = []domain.CommitActivity{}
	}
}

// upstream keeps typed failures and wraps anything else as an upstream error
func upstream(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewUpstreamError(message, err)
}
