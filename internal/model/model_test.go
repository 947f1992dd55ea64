package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github-sentinel/internal/errors"
)

func TestValidateRepoName(t *testing.T) {
	valid := []string{"owner/repo", "microsoft/vscode", "a.b/c-d", "user_1/repo.name", "A-Z/0-9"}
	for _, name := range valid {
		assert.True(t, ValidateRepoName(name), name)
	}

	invalid := []string{"", "owner", "owner/", "/repo", "a/b/c", "owner repo/x", "own$er/repo", "owner/re po", "ow:ner/repo"}
	for _, name := range invalid {
		assert.False(t, ValidateRepoName(name), name)
	}
}

func TestParseRepoName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/microsoft/vscode", "microsoft/vscode"},
		{"git@github.com:facebook/react.git", "facebook/react"},
		{"microsoft/typescript", "microsoft/typescript"},
		{"https://github.com/owner/repo.git", "owner/repo"},
		{"https://github.com/owner/repo/", "owner/repo"},
		{"https://github.example.com/socketio/socket.io", "socketio/socket.io"},
		{"  owner/repo  ", "owner/repo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepoName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{"", "not a repo", "https://github.com/only-owner", "a/b/c"} {
			_, err := ParseRepoName(in)
			var vErr *serrors.ValidationError
			assert.ErrorAs(t, err, &vErr, in)
		}
	})
}

func TestSplitRepoName(t *testing.T) {
	owner, name, err := SplitRepoName("octocat/Hello-World")
	require.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "Hello-World", name)

	_, _, err = SplitRepoName("octocat")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	ch, err := ParseNotificationChannel("SLACK")
	require.NoError(t, err)
	assert.Equal(t, ChannelSlack, ch)

	_, err = ParseNotificationChannel("pager")
	assert.Error(t, err)

	channels, err := ParseNotificationChannels(nil)
	require.NoError(t, err)
	assert.Equal(t, []NotificationChannel{ChannelEmail}, channels)

	_, err = ParseNotificationChannels([]string{"email", "sms"})
	assert.Error(t, err)

	channels, err = ParseNotificationChannels([]string{"slack", "email", "EMAIL", " Slack "})
	require.NoError(t, err)
	assert.Equal(t, []NotificationChannel{ChannelSlack, ChannelEmail}, channels, "duplicates are dropped in first-seen order")

	st, err := ParseSubscriptionStatus("Paused")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, st)
	_, err = ParseSubscriptionStatus("deleted")
	assert.Error(t, err)

	f, err := ParseReportFormat("MARKDOWN")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
	_, err = ParseReportFormat("docx")
	assert.Error(t, err)
}

func TestFrequencyWindow(t *testing.T) {
	assert.Equal(t, 24*time.Hour, FrequencyDaily.Window())
	assert.Equal(t, 7*24*time.Hour, FrequencyWeekly.Window())
	assert.Equal(t, 30*24*time.Hour, FrequencyMonthly.Window())
	assert.Equal(t, 24*time.Hour, Frequency("hourly").Window())
}

func TestFilterWatched(t *testing.T) {
	activity := RepositoryActivity{
		Commits:      []Commit{{SHA: "abc"}},
		PullRequests: []PullRequest{{Number: 1}},
		Issues:       []Issue{{Number: 2}},
		Releases:     []Release{{TagName: "v1"}},
	}
	sub := &Subscription{WatchEvents: []string{EventPush, EventReleases}}

	activity.FilterWatched(sub)

	assert.Len(t, activity.Commits, 1)
	assert.Empty(t, activity.PullRequests)
	assert.Empty(t, activity.Issues)
	assert.Len(t, activity.Releases, 1)
}
