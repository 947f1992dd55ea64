// Package report composes activity snapshots into titled digests.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

// recentLimit caps the commits, pull requests and issues listed per repository.
const recentLimit = 5

const (
	emptySummary    = "No activity to report."
	htmlPlaceholder = "<h1>HTML Report</h1><p>Coming soon...</p>"
)

//go:embed templates/*.tmpl
var templates embed.FS

var markdownTmpl = template.Must(template.New("markdown.tmpl").Funcs(template.FuncMap{
	"orNA":     orNA,
	"shortSHA": shortSHA,
	"truncate": truncate,
	"signed":   func(n int) string { return fmt.Sprintf("%+d", n) },
}).ParseFS(templates, "templates/markdown.tmpl"))

// Composer builds reports. It holds no state besides its clock.
type Composer struct {
	now func() time.Time
}

func NewComposer() *Composer {
	return &Composer{now: time.Now}
}

// Generate composes the activities into a report for subscriptionID. Only json,
// markdown and html are supported; any other format yields a
// *errors.ReportGenerationError and no report.
func (c *Composer) Generate(activities []model.RepositoryActivity, subscriptionID int64, format model.ReportFormat) (*model.Report, error) {
	now := c.now()
	start, end := period(activities, now)
	summary := Summary(activities)

	var (
		content map[string]any
		err     error
	)
	switch format {
	case model.FormatMarkdown:
		content, err = markdownContent(activities, summary, now)
	case model.FormatJSON:
		content, err = jsonContent(activities)
	case model.FormatHTML:
		content = map[string]any{"html": htmlPlaceholder}
	default:
		return nil, &serrors.ReportGenerationError{Format: string(format), Msg: "unsupported report format"}
	}
	if err != nil {
		return nil, &serrors.ReportGenerationError{Format: string(format), Msg: err.Error()}
	}

	return &model.Report{
		SubscriptionID: subscriptionID,
		Title:          Title(activities, start, end),
		Content:        content,
		Format:         format,
		GeneratedAt:    now,
		PeriodStart:    start,
		PeriodEnd:      end,
		Summary:        summary,
	}, nil
}

// period spans every activity window; with no activities both bounds are now.
func period(activities []model.RepositoryActivity, now time.Time) (time.Time, time.Time) {
	if len(activities) == 0 {
		return now, now
	}
	start, end := activities[0].PeriodStart, activities[0].PeriodEnd
	for _, a := range activities[1:] {
		if a.PeriodStart.Before(start) {
			start = a.PeriodStart
		}
		if a.PeriodEnd.After(end) {
			end = a.PeriodEnd
		}
	}
	return start, end
}

// Title names up to three repositories and counts them beyond that.
func Title(activities []model.RepositoryActivity, start, end time.Time) string {
	dates := fmt.Sprintf("(%s - %s)", start.Format(time.DateOnly), end.Format(time.DateOnly))
	switch n := len(activities); {
	case n == 0 || n > 3:
		return fmt.Sprintf("Activity Report for %d repositories %s", n, dates)
	default:
		names := make([]string, n)
		for i, a := range activities {
			names[i] = a.Repository.FullName
		}
		return fmt.Sprintf("Activity Report for %s %s", strings.Join(names, ", "), dates)
	}
}

// Summary totals every category across the activities.
func Summary(activities []model.RepositoryActivity) string {
	if len(activities) == 0 {
		return emptySummary
	}
	var commits, prs, issues, releases int
	for _, a := range activities {
		commits += len(a.Commits)
		prs += len(a.PullRequests)
		issues += len(a.Issues)
		releases += len(a.Releases)
	}
	return fmt.Sprintf("Total activity: %d commits, %d pull requests, %d issues, %d releases across %d repositories",
		commits, prs, issues, releases, len(activities))
}

// section is the per-repository view rendered by the markdown template.
type section struct {
	model.RepositoryActivity
	RecentCommits      []model.Commit
	MoreCommits        int
	RecentPullRequests []model.PullRequest
	MorePullRequests   int
	RecentIssues       []model.Issue
	MoreIssues         int
}

func newSection(a model.RepositoryActivity) section {
	s := section{RepositoryActivity: a}
	s.RecentCommits, s.MoreCommits = head(a.Commits)
	s.RecentPullRequests, s.MorePullRequests = head(a.PullRequests)
	s.RecentIssues, s.MoreIssues = head(a.Issues)
	return s
}

// head returns the first recentLimit items and how many were left out.
func head[T any](items []T) ([]T, int) {
	if len(items) <= recentLimit {
		return items, 0
	}
	return items[:recentLimit], len(items) - recentLimit
}

func markdownContent(activities []model.RepositoryActivity, summary string, now time.Time) (map[string]any, error) {
	sections := make([]section, len(activities))
	for i, a := range activities {
		sections[i] = newSection(a)
	}

	var buf bytes.Buffer
	err := markdownTmpl.Execute(&buf, struct {
		Summary     string
		Sections    []section
		GeneratedAt time.Time
	}{summary, sections, now})
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return map[string]any{
		"markdown": strings.TrimSpace(buf.String()),
		"summary":  summary,
	}, nil
}

type jsonPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type jsonActivity struct {
	Repository   model.Repository    `json:"repository"`
	Period       jsonPeriod          `json:"period"`
	Commits      []model.Commit      `json:"commits"`
	PullRequests []model.PullRequest `json:"pull_requests"`
	Issues       []model.Issue       `json:"issues"`
	Releases     []model.Release     `json:"releases"`
	StarsChange  int                 `json:"stars_change"`
	ForksChange  int                 `json:"forks_change"`
}

// jsonContent dumps every activity without truncation. The payload is
// normalized to generic JSON values so it matches what the store returns.
func jsonContent(activities []model.RepositoryActivity) (map[string]any, error) {
	out := make([]jsonActivity, len(activities))
	for i, a := range activities {
		out[i] = jsonActivity{
			Repository:   a.Repository,
			Period:       jsonPeriod{Start: a.PeriodStart, End: a.PeriodEnd},
			Commits:      nonNil(a.Commits),
			PullRequests: nonNil(a.PullRequests),
			Issues:       nonNil(a.Issues),
			Releases:     nonNil(a.Releases),
			StarsChange:  a.StarsChange,
			ForksChange:  a.ForksChange,
		}
	}

	raw, err := json.Marshal(map[string]any{"activities": out})
	if err != nil {
		return nil, fmt.Errorf("marshal activities: %w", err)
	}
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("normalize activities: %w", err)
	}
	return content, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// truncate keeps the first line of s, cut to limit runes with a trailing ellipsis.
func truncate(s string, limit int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
