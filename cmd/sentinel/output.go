// cmd/sentinel/output.go
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github-sentinel/internal/model"
	"github-sentinel/internal/processor"
)

const (
	recentItems = 5
	titleWidth  = 60
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printSubscriptions(w io.Writer, subs []model.Subscription) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tRepository\tStatus\tFrequency\tChannels\tCreated")
	for _, s := range subs {
		repo := s.RepositoryFullName
		if repo == "" {
			repo = "Unknown"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, repo, s.Status, s.Frequency,
			strings.Join(model.ChannelStrings(s.NotificationChannels), ", "),
			s.CreatedAt.Format(time.DateOnly))
	}
	return tw.Flush()
}

func printRepositories(w io.Writer, repos []model.Repository) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Repository\tStars\tLanguage\tDescription")
	for _, r := range repos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.FullName, r.StarsCount, orNA(r.Language), clip(orNA(r.Description), titleWidth))
	}
	return tw.Flush()
}

func printReports(w io.Writer, reports []model.Report) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tGenerated\tFormat\tTitle\tSummary")
	for _, r := range reports {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.GeneratedAt.Format(time.DateTime), r.Format, r.Title, r.Summary)
	}
	return tw.Flush()
}

func printActivity(w io.Writer, a *model.RepositoryActivity, days int) {
	repo := a.Repository
	fmt.Fprintf(w, "\n=== Repository: %s ===\n", repo.FullName)
	fmt.Fprintf(w, "Description: %s\n", orNA(repo.Description))
	fmt.Fprintf(w, "Language: %s\n", orNA(repo.Language))
	fmt.Fprintf(w, "Stars: %d\n", repo.StarsCount)
	fmt.Fprintf(w, "Forks: %d\n", repo.ForksCount)
	fmt.Fprintf(w, "Open Issues: %d\n", repo.OpenIssuesCount)

	fmt.Fprintf(w, "\n=== Activity Summary (%d days) ===\n", days)
	fmt.Fprintf(w, "Commits: %d\n", len(a.Commits))
	fmt.Fprintf(w, "Pull Requests: %d\n", len(a.PullRequests))
	fmt.Fprintf(w, "Issues: %d\n", len(a.Issues))
	fmt.Fprintf(w, "Releases: %d\n", len(a.Releases))

	if len(a.Commits) > 0 {
		fmt.Fprintln(w, "\n=== Recent Commits ===")
		for _, c := range a.Commits[:min(recentItems, len(a.Commits))] {
			sha := c.SHA
			if len(sha) > 8 {
				sha = sha[:8]
			}
			fmt.Fprintf(w, "• %s - %s (%s)\n", sha, clip(c.Message, titleWidth), c.Author)
		}
	}
	if len(a.PullRequests) > 0 {
		fmt.Fprintln(w, "\n=== Recent Pull Requests ===")
		for _, pr := range a.PullRequests[:min(recentItems, len(a.PullRequests))] {
			fmt.Fprintf(w, "• #%d - %s (%s)\n", pr.Number, clip(pr.Title, titleWidth), pr.State)
		}
	}
	if len(a.Issues) > 0 {
		fmt.Fprintln(w, "\n=== Recent Issues ===")
		for _, is := range a.Issues[:min(recentItems, len(a.Issues))] {
			fmt.Fprintf(w, "• #%d - %s (%s)\n", is.Number, clip(is.Title, titleWidth), is.State)
		}
	}
	if len(a.Releases) > 0 {
		fmt.Fprintln(w, "\n=== Recent Releases ===")
		for _, r := range a.Releases {
			fmt.Fprintf(w, "• %s - %s (%s)\n", r.TagName, r.Name, r.PublishedAt.Format(time.DateOnly))
		}
	}
}

// printResults writes one line per processed subscription. Failed
// subscriptions are reported and skipped.
func printResults(w io.Writer, frequency model.Frequency, results []processor.Result) {
	if len(results) == 0 {
		fmt.Fprintf(w, "No %s subscriptions found to process.\n", frequency)
		return
	}
	fmt.Fprintf(w, "Processing %d %s subscriptions...\n", len(results), frequency)
	for _, r := range results {
		fmt.Fprintf(w, "Processing subscription %d for %s...\n", r.Subscription.ID, r.Subscription.RepositoryFullName)
		if r.Err != nil {
			fmt.Fprintf(w, "  Error processing subscription %d: %v\n", r.Subscription.ID, r.Err)
			continue
		}
		fmt.Fprintf(w, "  %s (report %d)\n", r.Report.Summary, r.Report.ID)
	}
	fmt.Fprintln(w, "Processing completed.")
}

// clip keeps the first line of s, shortened to limit runes.
func clip(s string, limit int) string {
	s, _, _ = strings.Cut(s, "\n")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
