// internal/model/models.go
package model

import (
	"time"
)

// User is an account that owns subscriptions.
type User struct {
	ID                      int64                        `json:"id"`
	Username                string                       `json:"username"`
	Email                   string                       `json:"email"`
	GithubToken             string                       `json:"-"`
	NotificationPreferences map[NotificationChannel]bool `json:"notification_preferences"`
	CreatedAt               time.Time                    `json:"created_at"`
	UpdatedAt               time.Time                    `json:"updated_at"`
}

// Repository represents the metadata of a GitHub repository.
type Repository struct {
	ID              int64      `json:"id,omitempty"`
	FullName        string     `json:"full_name"`
	Owner           string     `json:"owner"`
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	URL             string     `json:"url"`
	DefaultBranch   string     `json:"default_branch"`
	StarsCount      int        `json:"stars_count"`
	ForksCount      int        `json:"forks_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
	Language        *string    `json:"language"`
	LastUpdated     *time.Time `json:"last_updated"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Subscription is a user's standing request to be reported on for one repository.
type Subscription struct {
	ID                   int64                 `json:"id"`
	UserID               int64                 `json:"user_id"`
	RepositoryID         int64                 `json:"repository_id"`
	RepositoryFullName   string                `json:"repository"`
	Status               SubscriptionStatus    `json:"status"`
	NotificationChannels []NotificationChannel `json:"notification_channels"`
	Frequency            Frequency             `json:"frequency"`
	WatchEvents          []string              `json:"watch_events"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// Watches reports whether the subscription cares about the given event type.
func (s *Subscription) Watches(event string) bool {
	for _, e := range s.WatchEvents {
		if e == event {
			return true
		}
	}
	return false
}

// Report is a composed digest for one subscription.
type Report struct {
	ID             int64          `json:"id"`
	SubscriptionID int64          `json:"subscription_id"`
	Title          string         `json:"title"`
	Content        map[string]any `json:"content"`
	Format         ReportFormat   `json:"format"`
	GeneratedAt    time.Time      `json:"generated_at"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
	Summary        string         `json:"summary"`
}

type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Labels    []string  `json:"labels"`
	URL       string    `json:"url"`
}

type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	URL         string    `json:"url"`
}

// RepositoryActivity is the activity snapshot of one repository within a time window.
// It is never persisted.
type RepositoryActivity struct {
	Repository   Repository    `json:"repository"`
	PeriodStart  time.Time     `json:"period_start"`
	PeriodEnd    time.Time     `json:"period_end"`
	Commits      []Commit      `json:"commits"`
	PullRequests []PullRequest `json:"pull_requests"`
	Issues       []Issue       `json:"issues"`
	Releases     []Release     `json:"releases"`
	StarsChange  int           `json:"stars_change"`
	ForksChange  int           `json:"forks_change"`
}

// FilterWatched clears the categories the subscription does not watch.
func (a *RepositoryActivity) FilterWatched(sub *Subscription) {
	if !sub.Watches(EventPush) {
		a.Commits = nil
	}
	if !sub.Watches(EventPullRequest) {
		a.PullRequests = nil
	}
	if !sub.Watches(EventIssues) {
		a.Issues = nil
	}
	if !sub.Watches(EventReleases) {
		a.Releases = nil
	}
}
