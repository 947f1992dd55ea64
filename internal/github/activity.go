package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v62/github"

	"github-sentinel/internal/model"
)

// Per-category caps keep a single activity fetch within a few API pages.
const (
	maxCommits      = 50
	maxPullRequests = 25
	maxIssues       = 25
	pageSize        = 100
)

// GetActivity fetches the repository and its commits, pull requests, issues and
// releases within [since, until]. Only a failure to fetch the repository itself
// is returned; a failing sub-collection is logged and left empty.
func (c *Client) GetActivity(ctx context.Context, fullName string, since, until time.Time) (*model.RepositoryActivity, error) {
	if until.IsZero() {
		until = time.Now()
	}
	owner, name, err := model.SplitRepoName(fullName)
	if err != nil {
		return nil, err
	}

	ghRepo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, toAPIError(fmt.Sprintf("failed to fetch activity for %s", fullName), err)
	}

	logger := c.logger.With("repo", fullName)
	activity := &model.RepositoryActivity{
		Repository:  *toInternalRepository(ghRepo),
		PeriodStart: since,
		PeriodEnd:   until,
	}

	if activity.Commits, err = c.listCommits(ctx, owner, name, since, until); err != nil {
		logger.Warn("Failed to fetch commits", "error", err)
	}
	if activity.PullRequests, err = c.listPullRequests(ctx, owner, name, since, until); err != nil {
		logger.Warn("Failed to fetch pull requests", "error", err)
	}
	if activity.Issues, err = c.listIssues(ctx, owner, name, since, until); err != nil {
		logger.Warn("Failed to fetch issues", "error", err)
	}
	if activity.Releases, err = c.listReleases(ctx, owner, name, since, until); err != nil {
		logger.Warn("Failed to fetch releases", "error", err)
	}

	// No historical snapshots exist at this layer.
	activity.StarsChange, activity.ForksChange = 0, 0

	logger.Debug("Fetched repository activity",
		"commits", len(activity.Commits),
		"pull_requests", len(activity.PullRequests),
		"issues", len(activity.Issues),
		"releases", len(activity.Releases))
	return activity, nil
}

// listCommits returns up to maxCommits commits, newest first.
func (c *Client) listCommits(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error) {
	var commits []model.Commit
	opts := &github.CommitsListOptions{
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		c.logger.Debug("Fetching commits page", "owner", owner, "repo", name, "page", opts.Page)

		page, resp, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		for _, commit := range page {
			commits = append(commits, toInternalCommit(commit))
			if len(commits) >= maxCommits {
				return commits, nil
			}
		}
		if resp.NextPage == 0 {
			return commits, nil
		}
		opts.Page = resp.NextPage
	}
}

// listPullRequests scans pull requests by most recent update and stops at the
// first one updated before since. The early stop relies on direction=desc.
func (c *Client) listPullRequests(ctx context.Context, owner, name string, since, until time.Time) ([]model.PullRequest, error) {
	var prs []model.PullRequest
	opts := &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		page, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		for _, pr := range page {
			updated := pr.GetUpdatedAt().Time
			if updated.Before(since) {
				return prs, nil
			}
			if updated.After(until) {
				continue
			}
			prs = append(prs, toInternalPullRequest(pr))
			if len(prs) >= maxPullRequests {
				return prs, nil
			}
		}
		if resp.NextPage == 0 {
			return prs, nil
		}
		opts.Page = resp.NextPage
	}
}

// listIssues returns up to maxIssues issues updated since since, excluding pull requests.
func (c *Client) listIssues(ctx context.Context, owner, name string, since, until time.Time) ([]model.Issue, error) {
	var issues []model.Issue
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       since,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		page, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		for _, issue := range page {
			if issue.GetUpdatedAt().Time.After(until) || issue.IsPullRequest() {
				continue
			}
			issues = append(issues, toInternalIssue(issue))
			if len(issues) >= maxIssues {
				return issues, nil
			}
		}
		if resp.NextPage == 0 {
			return issues, nil
		}
		opts.Page = resp.NextPage
	}
}

// listReleases returns every release published within the window.
func (c *Client) listReleases(ctx context.Context, owner, name string, since, until time.Time) ([]model.Release, error) {
	var releases []model.Release
	opts := &github.ListOptions{PerPage: pageSize}

	for {
		page, resp, err := c.gh.Repositories.ListReleases(ctx, owner, name, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			if r.PublishedAt == nil {
				continue
			}
			published := r.GetPublishedAt().Time
			if published.Before(since) || published.After(until) {
				continue
			}
			releases = append(releases, toInternalRelease(r))
		}
		if resp.NextPage == 0 {
			return releases, nil
		}
		opts.Page = resp.NextPage
	}
}

// toInternalCommit translates a github.RepositoryCommit object to our internal model.Commit.
func toInternalCommit(c *github.RepositoryCommit) model.Commit {
	author := c.GetCommit().GetAuthor().GetName()
	if author == "" {
		author = c.GetCommit().GetAuthor().GetEmail()
	}
	return model.Commit{
		SHA:     c.GetSHA(),
		Message: c.GetCommit().GetMessage(),
		Author:  author,
		Date:    c.GetCommit().GetAuthor().GetDate().Time,
		URL:     c.GetHTMLURL(),
	}
}

func toInternalPullRequest(pr *github.PullRequest) model.PullRequest {
	return model.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		State:     pr.GetState(),
		CreatedAt: pr.GetCreatedAt().Time,
		UpdatedAt: pr.GetUpdatedAt().Time,
		URL:       pr.GetHTMLURL(),
	}
}

func toInternalIssue(i *github.Issue) model.Issue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return model.Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Author:    i.GetUser().GetLogin(),
		State:     i.GetState(),
		CreatedAt: i.GetCreatedAt().Time,
		UpdatedAt: i.GetUpdatedAt().Time,
		Labels:    labels,
		URL:       i.GetHTMLURL(),
	}
}

func toInternalRelease(r *github.RepositoryRelease) model.Release {
	name := r.GetName()
	if name == "" {
		name = r.GetTagName()
	}
	author := "Unknown"
	if r.Author != nil {
		author = r.GetAuthor().GetLogin()
	}
	return model.Release{
		TagName:     r.GetTagName(),
		Name:        name,
		Author:      author,
		PublishedAt: r.GetPublishedAt().Time,
		Prerelease:  r.GetPrerelease(),
		Draft:       r.GetDraft(),
		URL:         r.GetHTMLURL(),
	}
}
