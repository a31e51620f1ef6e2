package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v55/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/gitpeek/internal/collector"
	"github.com/kurihiro0119/gitpeek/internal/domain"
	"github.com/kurihiro0119/gitpeek/internal/logging"
)

type fakeLister struct {
	mu       sync.Mutex
	commits  map[string][]*github.RepositoryCommit
	failures map[string]error
	queries  []collector.CommitQuery
}

func (f *fakeLister) ListCommits(_ context.Context, owner, repo string, q collector.CommitQuery) ([]*github.RepositoryCommit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	key := owner + "/" + repo
	if err := f.failures[key]; err != nil {
		return nil, err
	}
	return f.commits[key], nil
}

func rawCommit(sha, message, name, email string, date time.Time) *github.RepositoryCommit {
	author := &github.CommitAuthor{}
	if name != "" {
		author.Name = github.String(name)
	}
	if email != "" {
		author.Email = github.String(email)
	}
	if !date.IsZero() {
		author.Date = &github.Timestamp{Time: date}
	}
	return &github.RepositoryCommit{
		SHA:     github.String(sha),
		HTMLURL: github.String("https://github.example/" + sha),
		Commit: &github.Commit{
			Message: github.String(message),
			Author:  author,
		},
	}
}

func repos(names ...string) []domain.Repository {
	result := make([]domain.Repository, 0, len(names))
	for i, name := range names {
		result = append(result, domain.Repository{ID: int64(i + 1), Name: name, FullName: "octocat/" + name})
	}
	return result
}

var (
	now    = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	window = domain.TimeRangeWeek.Resolve(now)
)

func TestAggregate_MergesNewestFirst(t *testing.T) {
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{
		"octocat/a": {
			rawCommit("a1", "first", "Octo", "", now.Add(-5*time.Hour)),
			rawCommit("a2", "second", "Octo", "", now.Add(-30*time.Hour)),
		},
		"octocat/b": {
			rawCommit("b1", "third", "Octo", "", now.Add(-1*time.Hour)),
		},
	}}

	result := NewAggregator(lister, 2, logging.Discard()).Aggregate(context.Background(), repos("a", "b"), window, "octocat")

	require.Len(t, result.Commits, 3)
	assert.Equal(t, []string{"b1", "a1", "a2"}, []string{result.Commits[0].SHA, result.Commits[1].SHA, result.Commits[2].SHA})
	assert.Equal(t, "octocat/b", result.Commits[0].Repository)
	assert.Empty(t, result.Failed())
}

func TestAggregate_TiesKeepRepositoryOrder(t *testing.T) {
	same := now.Add(-2 * time.Hour)
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{
		"octocat/a": {rawCommit("a1", "x", "Octo", "", same)},
		"octocat/b": {rawCommit("b1", "y", "Octo", "", same)},
		"octocat/c": {rawCommit("c1", "z", "Octo", "", same)},
	}}

	result := NewAggregator(lister, 3, logging.Discard()).Aggregate(context.Background(), repos("a", "b", "c"), window, "octocat")

	require.Len(t, result.Commits, 3)
	assert.Equal(t, "a1", result.Commits[0].SHA)
	assert.Equal(t, "b1", result.Commits[1].SHA)
	assert.Equal(t, "c1", result.Commits[2].SHA)
}

func TestAggregate_PassesWindowAndAuthor(t *testing.T) {
	lister := &fakeLister{}

	NewAggregator(lister, 1, logging.Discard()).Aggregate(context.Background(), repos("a"), window, "octocat")

	require.Len(t, lister.queries, 1)
	assert.Equal(t, "octocat", lister.queries[0].Author)
	assert.Equal(t, window.Start, lister.queries[0].Since)
	assert.Equal(t, window.End, lister.queries[0].Until)
}

func TestAggregate_SkipsIncompleteRecords(t *testing.T) {
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{
		"octocat/a": {
			rawCommit("anonymous", "no author", "", "", now.Add(-time.Hour)),
			rawCommit("undated", "no date", "Octo", "", time.Time{}),
			rawCommit("email-only", "email", "", "octo@example.com", now.Add(-2*time.Hour)),
			{SHA: github.String("bare")},
		},
	}}

	result := NewAggregator(lister, 1, logging.Discard()).Aggregate(context.Background(), repos("a"), window, "octocat")

	require.Len(t, result.Commits, 1)
	assert.Equal(t, "email-only", result.Commits[0].SHA)
	assert.Equal(t, "octocat", result.Commits[0].Author)
}

func TestAggregate_IsolatesRepositoryFailures(t *testing.T) {
	lister := &fakeLister{
		commits: map[string][]*github.RepositoryCommit{
			"octocat/a": {rawCommit("a1", "x", "Octo", "", now.Add(-time.Hour))},
			"octocat/c": {rawCommit("c1", "z", "Octo", "", now.Add(-2*time.Hour))},
		},
		failures: map[string]error{"octocat/b": errors.New("connection reset")},
	}

	result := NewAggregator(lister, 3, logging.Discard()).Aggregate(context.Background(), repos("a", "b", "c"), window, "octocat")

	require.Len(t, result.Commits, 2)
	require.Len(t, result.Reports, 3)
	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "octocat/b", failed[0].Repository.FullName)
	assert.EqualError(t, failed[0].Err, "connection reset")
	assert.Len(t, result.Reports[0].Commits, 1)
}

func TestAggregate_EmptyRepositoryContributesNothing(t *testing.T) {
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{
		"octocat/a": {rawCommit("a1", "x", "Octo", "", now.Add(-time.Hour))},
	}}

	result := NewAggregator(lister, 2, logging.Discard()).Aggregate(context.Background(), repos("a", "empty"), window, "octocat")

	assert.Len(t, result.Commits, 1)
	assert.Empty(t, result.Failed())
	assert.Empty(t, result.Reports[1].Commits)
}

func TestAggregate_NoOrphanCommits(t *testing.T) {
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{}}
	input := repos("a", "b", "c", "d")
	for i, repo := range input {
		for j := 0; j < 3; j++ {
			lister.commits[repo.FullName] = append(lister.commits[repo.FullName],
				rawCommit(fmt.Sprintf("%s-%d", repo.Name, j), "msg", "Octo", "", now.Add(-time.Duration(i*10+j)*time.Hour)))
		}
	}

	result := NewAggregator(lister, 2, logging.Discard()).Aggregate(context.Background(), input, window, "octocat")

	known := make(map[string]bool)
	for _, repo := range input {
		known[repo.FullName] = true
	}
	require.Len(t, result.Commits, 12)
	for _, c := range result.Commits {
		assert.True(t, known[c.Repository], "orphan commit %s", c.SHA)
	}
}

func TestAggregate_ConcurrencyDoesNotChangeOutput(t *testing.T) {
	lister := &fakeLister{commits: map[string][]*github.RepositoryCommit{}}
	input := repos("a", "b", "c", "d", "e", "f", "g")
	for i, repo := range input {
		for j := 0; j < 4; j++ {
			// Every repository shares timestamps with the others to exercise ties.
			lister.commits[repo.FullName] = append(lister.commits[repo.FullName],
				rawCommit(fmt.Sprintf("%d-%d", i, j), "msg", "Octo", "", now.Add(-time.Duration(j*7)*time.Hour)))
		}
	}

	sequential := NewAggregator(lister, 1, logging.Discard()).Aggregate(context.Background(), input, window, "octocat")
	parallel := NewAggregator(lister, 5, logging.Discard()).Aggregate(context.Background(), input, window, "octocat")

	assert.Equal(t, sequential.Commits, parallel.Commits)
	assert.Equal(t, sequential.Histogram, parallel.Histogram)
}

func TestHistogram(t *testing.T) {
	commits := []domain.Commit{
		{Date: time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		// 2024-03-05 in UTC even though the local offset says otherwise
		{Date: time.Date(2024, 3, 4, 20, 0, 0, 0, time.FixedZone("EST", -5*3600))},
	}

	histogram := Histogram(commits)

	assert.Equal(t, []domain.CommitActivity{
		{Date: "2024-03-05", Count: 2},
		{Date: "2024-03-09", Count: 2},
	}, histogram)
	assert.Empty(t, Histogram(nil))
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "fix: a bug", Headline("fix: a bug\n\nlonger body"))
	assert.Equal(t, "windows", Headline("windows\r\nbody"))
	assert.Equal(t, "", Headline(""))

	long := strings.Repeat("é", 150)
	assert.Equal(t, strings.Repeat("é", 100), Headline(long))
}
