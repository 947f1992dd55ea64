package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

var fixedNow = time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC)

func newTestComposer() *Composer {
	return &Composer{now: func() time.Time { return fixedNow }}
}

func activityFor(fullName string, commits int) model.RepositoryActivity {
	lang := "Go"
	a := model.RepositoryActivity{
		Repository:  model.Repository{FullName: fullName, StarsCount: 10, ForksCount: 2, Language: &lang},
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < commits; i++ {
		a.Commits = append(a.Commits, model.Commit{
			SHA:     fmt.Sprintf("%040d", i),
			Message: fmt.Sprintf("commit number %d", i),
			Author:  "dev",
		})
	}
	return a
}

func TestGenerate_Empty(t *testing.T) {
	c := newTestComposer()

	r, err := c.Generate(nil, 1, model.FormatMarkdown)

	require.NoError(t, err)
	assert.Equal(t, "No activity to report.", r.Summary)
	assert.Equal(t, fixedNow, r.PeriodStart)
	assert.Equal(t, fixedNow, r.PeriodEnd)
	assert.Equal(t, "Activity Report for 0 repositories (2024-01-08 - 2024-01-08)", r.Title)
	assert.Equal(t, int64(1), r.SubscriptionID)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	c := newTestComposer()

	for _, f := range []model.ReportFormat{model.FormatPDF, "docx"} {
		r, err := c.Generate([]model.RepositoryActivity{activityFor("a/b", 1)}, 1, f)

		var genErr *serrors.ReportGenerationError
		require.ErrorAs(t, err, &genErr, f)
		assert.Equal(t, string(f), genErr.Format)
		assert.Nil(t, r)
	}
}

func TestGenerate_MarkdownTruncatesRecentItems(t *testing.T) {
	c := newTestComposer()
	a := activityFor("octocat/Hello-World", 7)
	a.Releases = []model.Release{{TagName: "v1.0.0", Name: "First", PublishedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)}}

	r, err := c.Generate([]model.RepositoryActivity{a}, 3, model.FormatMarkdown)

	require.NoError(t, err)
	md, ok := r.Content["markdown"].(string)
	require.True(t, ok)

	assert.Equal(t, 5, strings.Count(md, "- `"), "only the five most recent commits are listed")
	assert.Contains(t, md, "*... and 2 more commits*")
	assert.Contains(t, md, "`00000000` - commit number 0 (dev)")
	assert.NotContains(t, md, "commit number 5")
	assert.Contains(t, md, "## octocat/Hello-World")
	assert.Contains(t, md, "Language: Go")
	assert.Contains(t, md, "🏷️ v1.0.0 - First (2024-01-03)")
	assert.NotContains(t, md, "Recent Pull Requests")
	assert.Contains(t, md, "*Report generated on 2024-01-08 09:30:00*")
	assert.Equal(t, r.Summary, r.Content["summary"])
	assert.Equal(t, "Total activity: 7 commits, 0 pull requests, 0 issues, 1 releases across 1 repositories", r.Summary)
	assert.Equal(t, "Activity Report for octocat/Hello-World (2024-01-01 - 2024-01-07)", r.Title)
}

func TestGenerate_JSONKeepsEverything(t *testing.T) {
	c := newTestComposer()
	a := activityFor("a/b", 7)
	a.StarsChange = 3

	r, err := c.Generate([]model.RepositoryActivity{a}, 1, model.FormatJSON)

	require.NoError(t, err)
	activities, ok := r.Content["activities"].([]any)
	require.True(t, ok)
	require.Len(t, activities, 1)

	first := activities[0].(map[string]any)
	assert.Len(t, first["commits"], 7)
	assert.Empty(t, first["pull_requests"])
	assert.Equal(t, float64(3), first["stars_change"])
	period := first["period"].(map[string]any)
	assert.Equal(t, "2024-01-01T00:00:00Z", period["start"])
}

func TestGenerate_HTMLPlaceholder(t *testing.T) {
	r, err := newTestComposer().Generate([]model.RepositoryActivity{activityFor("a/b", 0)}, 1, model.FormatHTML)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"html": "<h1>HTML Report</h1><p>Coming soon...</p>"}, r.Content)
}

func TestGenerate_PeriodSpansActivities(t *testing.T) {
	a := activityFor("a/b", 0)
	b := activityFor("c/d", 0)
	b.PeriodStart = a.PeriodStart.Add(-48 * time.Hour)
	b.PeriodEnd = a.PeriodEnd.Add(24 * time.Hour)

	r, err := newTestComposer().Generate([]model.RepositoryActivity{a, b}, 1, model.FormatJSON)

	require.NoError(t, err)
	assert.Equal(t, b.PeriodStart, r.PeriodStart)
	assert.Equal(t, b.PeriodEnd, r.PeriodEnd)
	assert.False(t, r.PeriodStart.After(r.PeriodEnd))
}

func TestTitle(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	names := func(n int) []model.RepositoryActivity {
		out := make([]model.RepositoryActivity, n)
		for i := range out {
			out[i].Repository.FullName = fmt.Sprintf("o/r%d", i)
		}
		return out
	}

	tests := []struct {
		n    int
		want string
	}{
		{1, "Activity Report for o/r0 (2024-01-01 - 2024-01-07)"},
		{3, "Activity Report for o/r0, o/r1, o/r2 (2024-01-01 - 2024-01-07)"},
		{4, "Activity Report for 4 repositories (2024-01-01 - 2024-01-07)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Title(names(tt.n), start, end))
	}
}

func TestSummary(t *testing.T) {
	a := activityFor("a/b", 2)
	a.PullRequests = []model.PullRequest{{Number: 1}}
	b := activityFor("c/d", 1)
	b.Issues = []model.Issue{{Number: 2}, {Number: 3}}
	b.Releases = []model.Release{{TagName: "v1"}}

	assert.Equal(t,
		"Total activity: 3 commits, 1 pull requests, 2 issues, 1 releases across 2 repositories",
		Summary([]model.RepositoryActivity{a, b}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short\nbody", 80))
	assert.Equal(t, strings.Repeat("x", 80)+"...", truncate(strings.Repeat("x", 100), 80))
}
