//go:build integration

// cmd/sentinel/integration_test.go
package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github-sentinel/internal/database"
	"github-sentinel/internal/model"
)

func setupTestDatabase(ctx context.Context, t *testing.T) string {
	t.Helper()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(context.Background()))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	recent := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/test-owner/test-repo", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 123, "name": "test-repo", "full_name": "test-owner/test-repo",
			"owner": {"login": "test-owner"}, "stargazers_count": 10, "forks_count": 2}`))
	})
	mux.HandleFunc("/repos/test-owner/test-repo/commits", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"sha": "abc", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "` + recent + `"}, "message": "feat: new feature"}, "html_url": "url1"},
			{"sha": "def", "commit": {"author": {"name": "tester", "email": "t@t.com", "date": "` + recent + `"}, "message": "fix: a bug"}, "html_url": "url2"}
		]`))
	})
	for _, p := range []string{"pulls", "issues", "releases"} {
		mux.HandleFunc("/repos/test-owner/test-repo/"+p, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), "sentinel %v", args)
	return out.String()
}

func TestCLI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbURL := setupTestDatabase(ctx, t)
	gh := fakeGitHub(t)

	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_BASE_URL", gh.URL)
	t.Setenv("DEFAULT_REPORT_FORMAT", "markdown")

	out := run(t, "init", "--username", "alice", "--email", "alice@example.com", "--github-token", "tok")
	assert.Contains(t, out, "User 'alice' created successfully!")
	out = run(t, "init", "--username", "alice", "--email", "alice@example.com", "--github-token", "tok")
	assert.Contains(t, out, "User 'alice' already exists.")

	out = run(t, "subscribe", "--user-id", "1", "--repo", "https://github.com/test-owner/test-repo", "--channels", "EMAIL,slack")
	assert.Contains(t, out, "Successfully subscribed to test-owner/test-repo")
	assert.Contains(t, out, "Channels: email, slack")

	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"subscribe", "--user-id", "1", "--repo", "test-owner/test-repo"})
	assert.ErrorContains(t, root.Execute(), "already exists and is active")

	out = run(t, "list-subscriptions", "--user-id", "1")
	assert.Contains(t, out, "test-owner/test-repo")
	assert.Contains(t, out, "active")

	out = run(t, "process", "--frequency", "daily")
	assert.Contains(t, out, "Processing 1 daily subscriptions...")
	assert.Contains(t, out, "Total activity: 2 commits, 0 pull requests, 0 issues, 0 releases across 1 repositories")
	assert.Contains(t, out, "Processing completed.")

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	store := database.NewStore(pool)
	defer store.Close()
	q := store.Querier()

	reports, err := q.ListReportsBySubscription(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, model.FormatMarkdown, reports[0].Format)
	assert.Contains(t, reports[0].Content["markdown"], "feat: new feature")

	out = run(t, "set-status", "--subscription-id", "1", "--status", "paused")
	assert.Contains(t, out, "is now paused")
	out = run(t, "process")
	assert.Contains(t, out, "No daily subscriptions found to process.")

	out = run(t, "reports", "--subscription-id", "1")
	assert.Contains(t, out, "Activity Report for test-owner/test-repo")

	out = run(t, "unsubscribe", "--subscription-id", "1")
	assert.Contains(t, out, "Successfully unsubscribed from subscription 1")
	out = run(t, "unsubscribe", "--subscription-id", "1")
	assert.Contains(t, out, "Subscription 1 not found")

	_, err = q.GetRepositoryByFullName(ctx, "test-owner/test-repo")
	require.NoError(t, err, "repositories outlive their subscriptions")
}
