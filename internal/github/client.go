// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-sentinel/internal/config"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

const defaultBaseURL = "https://api.github.com/"

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The token is used to create an authenticated http.Client; a custom base URL
// points the client at GitHub Enterprise or a test server.
func NewClient(cfg config.GitHubConfig, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	if cfg.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" && strings.TrimRight(cfg.BaseURL, "/")+"/" != defaultBaseURL {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse GITHUB_BASE_URL: %w", err)
		}
		gh.BaseURL = base
	}

	return &Client{
		gh:     gh,
		logger: logger,
	}, nil
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, fullName string) (*model.Repository, error) {
	owner, name, err := model.SplitRepoName(fullName)
	if err != nil {
		return nil, err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, toAPIError(fmt.Sprintf("failed to fetch repository %s", fullName), err)
	}
	return toInternalRepository(repo), nil
}

// RepositoryExists reports whether the repository is accessible with the configured token.
// A 404 is reported as false; every other failure is returned as an *errors.APIError.
func (c *Client) RepositoryExists(ctx context.Context, fullName string) (bool, error) {
	owner, name, err := model.SplitRepoName(fullName)
	if err != nil {
		return false, err
	}
	_, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, toAPIError("failed to validate repository access", err)
	}
	return true, nil
}

// SearchRepositories returns at most limit repositories matching query.
func (c *Client) SearchRepositories(ctx context.Context, query string, limit int) ([]model.Repository, error) {
	if limit <= 0 {
		limit = 10
	}
	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: min(limit, 100)},
	}

	var results []model.Repository
	for {
		res, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		if err != nil {
			return nil, toAPIError("repository search failed", err)
		}
		for _, r := range res.Repositories {
			results = append(results, *toInternalRepository(r))
			if len(results) >= limit {
				return results, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return results, nil
}

// toAPIError translates go-github errors into the application's API error.
func toAPIError(msg string, err error) error {
	apiErr := &serrors.APIError{Msg: fmt.Sprintf("%s: %v", msg, err)}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr):
		apiErr.RateLimited = true
		apiErr.ResponseText = rateErr.Message
		if rateErr.Response != nil {
			apiErr.StatusCode = rateErr.Response.StatusCode
		}
	case errors.As(err, &abuseErr):
		apiErr.RateLimited = true
		apiErr.ResponseText = abuseErr.Message
		if abuseErr.Response != nil {
			apiErr.StatusCode = abuseErr.Response.StatusCode
		}
	case errors.As(err, &respErr):
		apiErr.ResponseText = respErr.Message
		if respErr.Response != nil {
			apiErr.StatusCode = respErr.Response.StatusCode
			apiErr.RateLimited = isQuotaExhausted(respErr.Response)
		}
	}
	return apiErr
}

func isQuotaExhausted(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return resp.Header.Get("X-RateLimit-Remaining") == "0"
	default:
		return false
	}
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) *model.Repository {
	repo := &model.Repository{
		FullName:        r.GetFullName(),
		Owner:           r.GetOwner().GetLogin(),
		Name:            r.GetName(),
		Description:     r.Description,
		URL:             r.GetHTMLURL(),
		DefaultBranch:   r.GetDefaultBranch(),
		StarsCount:      r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Language:        r.Language,
		CreatedAt:       r.GetCreatedAt().Time,
	}
	if repo.FullName == "" && repo.Owner != "" {
		repo.FullName = repo.Owner + "/" + repo.Name
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	if r.UpdatedAt != nil {
		updated := r.GetUpdatedAt().Time
		repo.LastUpdated = &updated
	}
	return repo
}
