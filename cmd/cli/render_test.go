package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kurihiro0119/gitpeek/internal/domain"
)

func TestRenderActivity(t *testing.T) {
	updated := time.Now().Add(-3 * time.Hour)
	language := "Go"
	activity := &domain.UserActivity{
		Username:     "octocat",
		TotalCommits: 1234,
		TimeRange:    domain.TimeRangeMonth,
		Repositories: []domain.Repository{
			{FullName: "octocat/hello", Language: &language, Stars: 1500, UpdatedAt: &updated},
			{FullName: "octocat/secret", Private: true},
		},
		Commits: []domain.Commit{
			{SHA: "abcdef1234567", Message: "fix: handle empty repositories", Repository: "octocat/hello", Date: updated},
		},
		ActivityChart: []domain.CommitActivity{
			{Date: "2024-03-01", Count: 1},
			{Date: "2024-03-02", Count: 4},
		},
	}

	var buf bytes.Buffer
	renderActivity(&buf, activity)
	out := buf.String()

	assert.Contains(t, out, "Total Commits: 1,234")
	assert.Contains(t, out, "1,500")
	assert.Contains(t, out, "3 hours ago")
	assert.Contains(t, out, "octocat/secret (private)")
	assert.Contains(t, out, "abcdef1")
	assert.NotContains(t, out, "abcdef1234567")
	assert.Contains(t, out, strings.Repeat("#", barWidth))
}

func TestRenderProfile(t *testing.T) {
	var buf bytes.Buffer
	renderProfile(&buf, &domain.UserProfile{Login: "octocat", Followers: 12000, HTMLURL: "https://github.com/octocat"})

	out := buf.String()
	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "12,000")
	assert.NotContains(t, out, "Joined")
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abc", shortSHA("abc"))
	assert.Equal(t, "1234567", shortSHA("1234567890"))
}
