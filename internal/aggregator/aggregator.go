package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/sync/errgroup"

	"github.com/kurihiro0119/gitpeek/internal/collector"
	"github.com/kurihiro0119/gitpeek/internal/domain"
)

const (
	// DefaultConcurrency is the number of repositories fetched at once
	DefaultConcurrency = 5

	maxMessageLength = 100
)

// CommitLister is the part of a collector the aggregator reads from
type CommitLister interface {
	ListCommits(ctx context.Context, owner, repo string, q collector.CommitQuery) ([]*github.RepositoryCommit, error)
}

// Aggregator turns per-repository commit listings into a merged timeline and
// a daily histogram
type Aggregator interface {
	Aggregate(ctx context.Context, repos []domain.Repository, window domain.Window, author string) *Result
}

// RepositoryReport is the outcome of one repository's fetch
type RepositoryReport struct {
	Repository domain.Repository
	Commits    []domain.Commit
	Err        error
}

// Result holds the merged output of an aggregation pass
type Result struct {
	Commits   []domain.Commit         // newest first
	Histogram []domain.CommitActivity // ascending by date, no empty days
	Reports   []RepositoryReport      // in input order
}

// Failed returns the reports of repositories whose fetch failed
func (r *Result) Failed() []RepositoryReport {
	var failed []RepositoryReport
	for _, report := range r.Reports {
		if report.Err != nil {
			failed = append(failed, report)
		}
	}
	return failed
}

// aggregator implements the Aggregator interface
type aggregator struct {
	lister      CommitLister
	concurrency int
	logger      *slog.Logger
}

// NewAggregator creates a new aggregator reading commits from lister
func NewAggregator(lister CommitLister, concurrency int, logger *slog.Logger) Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &aggregator{
		lister:      lister,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Aggregate fetches the commits author made to each repository inside window.
// A failing repository is recorded in its report and does not affect the others.
func (a *aggregator) Aggregate(ctx context.Context, repos []domain.Repository, window domain.Window, author string) *Result {
	reports := make([]RepositoryReport, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, repo := range repos {
		g.Go(func() error {
			commits, err := a.collect(gctx, repo, window, author)
			if err != nil {
				a.logger.Warn("failed to collect commits",
					"repository", repo.FullName, "error", err)
			}
			reports[i] = RepositoryReport{Repository: repo, Commits: commits, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var commits []domain.Commit
	for _, report := range reports {
		commits = append(commits, report.Commits...)
	}
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date.After(commits[j].Date)
	})

	return &Result{
		Commits:   commits,
		Histogram: Histogram(commits),
		Reports:   reports,
	}
}

func (a *aggregator) collect(ctx context.Context, repo domain.Repository, window domain.Window, author string) ([]domain.Commit, error) {
	owner, name, ok := strings.Cut(repo.FullName, "/")
	if !ok {
		return nil, fmt.Errorf("malformed repository name %q", repo.FullName)
	}

	raw, err := a.lister.ListCommits(ctx, owner, name, collector.CommitQuery{
		Author: author,
		Since:  window.Start,
		Until:  window.End,
	})
	if err != nil {
		return nil, err
	}

	commits := make([]domain.Commit, 0, len(raw))
	for _, rc := range raw {
		if commit, ok := toCommit(rc, repo.FullName, author); ok {
			commits = append(commits, commit)
		}
	}
	return commits, nil
}

// toCommit materializes a raw commit record. Records with neither an author
// name nor an email, or without a date, are dropped.
func toCommit(rc *github.RepositoryCommit, repository, fallbackAuthor string) (domain.Commit, bool) {
	raw := rc.GetCommit()
	if raw == nil || raw.Author == nil {
		return domain.Commit{}, false
	}
	name := raw.Author.GetName()
	email := raw.Author.GetEmail()
	if name == "" && email == "" {
		return domain.Commit{}, false
	}
	if raw.Author.Date == nil {
		return domain.Commit{}, false
	}

	if name == "" {
		name = fallbackAuthor
		if name == "" {
			name = email
		}
	}

	return domain.Commit{
		SHA:        rc.GetSHA(),
		Message:    Headline(raw.GetMessage()),
		Author:     name,
		Date:       raw.Author.Date.Time.UTC(),
		HTMLURL:    rc.GetHTMLURL(),
		Repository: repository,
	}, true
}

// Headline returns the first line of a commit message, cut to 100 characters
func Headline(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	line = strings.TrimRight(line, "\r")
	if runes := []rune(line); len(runes) > maxMessageLength {
		return string(runes[:maxMessageLength])
	}
	return line
}

// Histogram counts commits per UTC day, ascending by date
func Histogram(commits []domain.Commit) []domain.CommitActivity {
	counts := make(map[string]int)
	for _, c := range commits {
		counts[dayOf(c.Date)]++
	}

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	histogram := make([]domain.CommitActivity, 0, len(days))
	for _, day := range days {
		histogram = append(histogram, domain.CommitActivity{Date: day, Count: counts[day]})
	}
	return histogram
}

func dayOf(t time.Time) string {
	return t.UTC().Format(domain.DayFormat)
}
