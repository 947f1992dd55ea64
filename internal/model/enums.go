package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPaused   SubscriptionStatus = "paused"
	StatusInactive SubscriptionStatus = "inactive"
)

// ParseSubscriptionStatus rejects anything outside the known statuses.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch st := SubscriptionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusPaused, StatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("unknown subscription status %q", s)
	}
}

type NotificationChannel string

const (
	ChannelEmail   NotificationChannel = "email"
	ChannelSlack   NotificationChannel = "slack"
	ChannelWebhook NotificationChannel = "webhook"
	ChannelDiscord NotificationChannel = "discord"
)

// ParseNotificationChannel is case-insensitive.
func ParseNotificationChannel(s string) (NotificationChannel, error) {
	switch ch := NotificationChannel(strings.ToLower(strings.TrimSpace(s))); ch {
	case ChannelEmail, ChannelSlack, ChannelWebhook, ChannelDiscord:
		return ch, nil
	default:
		return "", fmt.Errorf("unknown notification channel %q", s)
	}
}

// ParseNotificationChannels parses every entry and defaults to email when none
// is given. Repeated channels are kept once, in first-seen order.
func ParseNotificationChannels(values []string) ([]NotificationChannel, error) {
	if len(values) == 0 {
		return DefaultChannels(), nil
	}
	out := make([]NotificationChannel, 0, len(values))
	for _, v := range values {
		ch, err := ParseNotificationChannel(v)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, ch) {
			out = append(out, ch)
		}
	}
	return out, nil
}

func DefaultChannels() []NotificationChannel {
	return []NotificationChannel{ChannelEmail}
}

// ChannelStrings converts channels for storage and display.
func ChannelStrings(channels []NotificationChannel) []string {
	out := make([]string, len(channels))
	for i, ch := range channels {
		out[i] = string(ch)
	}
	return out
}

type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
	FormatHTML     ReportFormat = "html"
	FormatPDF      ReportFormat = "pdf"
)

func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMarkdown, FormatHTML, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Frequency is free text; daily, weekly and monthly have dedicated windows.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Window returns the look-back period used when processing the frequency.
// Unrecognized values fall back to one day.
func (f Frequency) Window() time.Duration {
	switch f {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Watch event names.
const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
	EventIssues      = "issues"
	EventReleases    = "releases"
)

func DefaultWatchEvents() []string {
	return []string{EventPush, EventPullRequest, EventIssues, EventReleases}
}
