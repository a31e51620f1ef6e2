package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/kurihiro0119/gitpeek/internal/domain"
)

const (
	commitRows = 20
	barWidth   = 40
)

func renderActivity(w io.Writer, a *domain.UserActivity) {
	fmt.Fprintf(w, "\nActivity: %s\n", a.Username)
	fmt.Fprintf(w, "Time Range: %s\n", a.TimeRange)
	fmt.Fprintf(w, "Total Commits: %s\n\n", humanize.Comma(int64(a.TotalCommits)))

	repos := tablewriter.NewWriter(w)
	repos.SetHeader([]string{"Repository", "Language", "Stars", "Forks", "Updated"})
	for _, r := range a.Repositories {
		repos.Append([]string{
			repoLabel(r),
			deref(r.Language),
			humanize.Comma(int64(r.Stars)),
			humanize.Comma(int64(r.Forks)),
			updatedLabel(r),
		})
	}
	repos.Render()

	if len(a.Commits) > 0 {
		fmt.Fprintln(w)
		commits := tablewriter.NewWriter(w)
		commits.SetHeader([]string{"When", "Repository", "SHA", "Message"})
		for i, c := range a.Commits {
			if i == commitRows {
				break
			}
			commits.Append([]string{humanize.Time(c.Date), c.Repository, shortSHA(c.SHA), c.Message})
		}
		commits.Render()
		if len(a.Commits) > commitRows {
			fmt.Fprintf(w, "... and %d more\n", len(a.Commits)-commitRows)
		}
	}

	if len(a.ActivityChart) > 0 {
		fmt.Fprintln(w)
		renderHistogram(w, a.ActivityChart)
	}
}

func renderHistogram(w io.Writer, chart []domain.CommitActivity) {
	peak := 0
	for _, day := range chart {
		peak = max(peak, day.Count)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Commits", ""})
	for _, day := range chart {
		width := max(1, day.Count*barWidth/peak)
		table.Append([]string{day.Date, strconv.Itoa(day.Count), strings.Repeat("#", width)})
	}
	table.Render()
}

func renderProfile(w io.Writer, p *domain.UserProfile) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Login", p.Login})
	if p.Name != "" {
		table.Append([]string{"Name", p.Name})
	}
	if p.Bio != "" {
		table.Append([]string{"Bio", p.Bio})
	}
	table.Append([]string{"Public Repos", humanize.Comma(int64(p.PublicRepos))})
	table.Append([]string{"Followers", humanize.Comma(int64(p.Followers))})
	table.Append([]string{"Following", humanize.Comma(int64(p.Following))})
	if !p.CreatedAt.IsZero() {
		table.Append([]string{"Joined", humanize.Time(p.CreatedAt)})
	}
	table.Append([]string{"Profile", p.HTMLURL})
	table.Render()
}

func repoLabel(r domain.Repository) string {
	if r.Private {
		return r.FullName + " (private)"
	}
	return r.FullName
}

func updatedLabel(r domain.Repository) string {
	if r.UpdatedAt == nil {
		return "-"
	}
	return humanize.Time(*r.UpdatedAt)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
