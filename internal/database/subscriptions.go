package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github-sentinel/internal/model"
)

// Subscription rows always carry the joined repository full name.
const subscriptionSelect = `
SELECT s.id, s.user_id, s.repository_id, r.full_name, s.status, s.notification_channels,
       s.frequency, s.watch_events, s.created_at, s.updated_at
FROM subscriptions s
JOIN repositories r ON r.id = s.repository_id`

// withRepository wraps a data-modifying statement returning s.* so the
// result carries the joined repository name.
func withRepository(stmt string) string {
	return `WITH s AS (` + stmt + ` RETURNING *)
SELECT s.id, s.user_id, s.repository_id, r.full_name, s.status, s.notification_channels,
       s.frequency, s.watch_events, s.created_at, s.updated_at
FROM s JOIN repositories r ON r.id = s.repository_id`
}

var createSubscription = withRepository(`
INSERT INTO subscriptions (user_id, repository_id, status, notification_channels, frequency, watch_events)
VALUES ($1, $2, $3, $4, $5, $6)`)

type CreateSubscriptionParams struct {
	UserID               int64
	RepositoryID         int64
	Status               model.SubscriptionStatus
	NotificationChannels []model.NotificationChannel
	Frequency            model.Frequency
	WatchEvents          []string
}

func (q *Queries) CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (*model.Subscription, error) {
	if arg.Status == "" {
		arg.Status = model.StatusActive
	}
	if len(arg.NotificationChannels) == 0 {
		arg.NotificationChannels = model.DefaultChannels()
	}
	if arg.Frequency == "" {
		arg.Frequency = model.FrequencyDaily
	}
	if arg.WatchEvents == nil {
		arg.WatchEvents = model.DefaultWatchEvents()
	}
	row := q.db.QueryRow(ctx, createSubscription,
		arg.UserID,
		arg.RepositoryID,
		string(arg.Status),
		model.ChannelStrings(arg.NotificationChannels),
		string(arg.Frequency),
		arg.WatchEvents,
	)
	s, err := scanSubscription(row)
	return s, wrapErr("create subscription", err)
}

const getSubscriptionByID = subscriptionSelect + ` WHERE s.id = $1`

func (q *Queries) GetSubscriptionByID(ctx context.Context, id int64) (*model.Subscription, error) {
	s, err := scanSubscription(q.db.QueryRow(ctx, getSubscriptionByID, id))
	return s, wrapErr("get subscription", err)
}

const getSubscriptionByUserAndRepo = subscriptionSelect + ` WHERE s.user_id = $1 AND s.repository_id = $2`

func (q *Queries) GetSubscriptionByUserAndRepo(ctx context.Context, userID, repositoryID int64) (*model.Subscription, error) {
	s, err := scanSubscription(q.db.QueryRow(ctx, getSubscriptionByUserAndRepo, userID, repositoryID))
	return s, wrapErr("get subscription by user and repository", err)
}

const listSubscriptionsByUser = subscriptionSelect + `
WHERE s.user_id = $1 AND ($2::text IS NULL OR s.status = $2::text)
ORDER BY s.created_at DESC, s.id DESC`

// ListSubscriptionsByUser returns the user's subscriptions, newest first.
// A nil status returns every subscription.
func (q *Queries) ListSubscriptionsByUser(ctx context.Context, userID int64, status *model.SubscriptionStatus) ([]model.Subscription, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	rows, err := q.db.Query(ctx, listSubscriptionsByUser, userID, statusArg)
	if err != nil {
		return nil, wrapErr("list subscriptions by user", err)
	}
	subs, err := collectSubscriptions(rows)
	return subs, wrapErr("list subscriptions by user", err)
}

const listSubscriptionsByStatus = subscriptionSelect + ` WHERE s.status = $1 ORDER BY s.id`

func (q *Queries) ListSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) ([]model.Subscription, error) {
	rows, err := q.db.Query(ctx, listSubscriptionsByStatus, string(status))
	if err != nil {
		return nil, wrapErr("list subscriptions by status", err)
	}
	subs, err := collectSubscriptions(rows)
	return subs, wrapErr("list subscriptions by status", err)
}

const listActiveSubscriptionsByFrequency = subscriptionSelect + `
WHERE s.status = 'active' AND s.frequency = $1
ORDER BY s.id`

func (q *Queries) ListActiveSubscriptionsByFrequency(ctx context.Context, frequency model.Frequency) ([]model.Subscription, error) {
	rows, err := q.db.Query(ctx, listActiveSubscriptionsByFrequency, string(frequency))
	if err != nil {
		return nil, wrapErr("list subscriptions by frequency", err)
	}
	subs, err := collectSubscriptions(rows)
	return subs, wrapErr("list subscriptions by frequency", err)
}

var updateSubscription = withRepository(`
UPDATE subscriptions
SET notification_channels = COALESCE($2, notification_channels),
    frequency = COALESCE($3, frequency),
    watch_events = COALESCE($4, watch_events),
    updated_at = NOW()
WHERE id = $1`)

// UpdateSubscriptionParams leaves nil fields unchanged.
type UpdateSubscriptionParams struct {
	ID                   int64
	NotificationChannels []model.NotificationChannel
	Frequency            *model.Frequency
	WatchEvents          []string
}

func (q *Queries) UpdateSubscription(ctx context.Context, arg UpdateSubscriptionParams) (*model.Subscription, error) {
	var channels []string
	if arg.NotificationChannels != nil {
		channels = model.ChannelStrings(arg.NotificationChannels)
	}
	var frequency *string
	if arg.Frequency != nil {
		f := string(*arg.Frequency)
		frequency = &f
	}
	row := q.db.QueryRow(ctx, updateSubscription, arg.ID, channels, frequency, arg.WatchEvents)
	s, err := scanSubscription(row)
	return s, wrapErr("update subscription", err)
}

var updateSubscriptionStatus = withRepository(`
UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE id = $1`)

func (q *Queries) UpdateSubscriptionStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error) {
	s, err := scanSubscription(q.db.QueryRow(ctx, updateSubscriptionStatus, id, string(status)))
	return s, wrapErr("update subscription status", err)
}

const deleteSubscription = `DELETE FROM subscriptions WHERE id = $1`

// DeleteSubscription removes the row and, by cascade, its reports.
func (q *Queries) DeleteSubscription(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, deleteSubscription, id)
	if err != nil {
		return wrapErr("delete subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("delete subscription", pgx.ErrNoRows)
	}
	return nil
}

const countSubscriptionsByStatus = `SELECT COUNT(*) FROM subscriptions WHERE status = $1`

func (q *Queries) CountSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countSubscriptionsByStatus, string(status)).Scan(&n)
	return n, wrapErr("count subscriptions", err)
}

func collectSubscriptions(rows pgx.Rows) ([]model.Subscription, error) {
	defer rows.Close()
	subs := make([]model.Subscription, 0)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func scanSubscription(row rowScanner) (*model.Subscription, error) {
	var (
		s         model.Subscription
		status    string
		channels  []string
		frequency string
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.RepositoryID,
		&s.RepositoryFullName,
		&status,
		&channels,
		&frequency,
		&s.WatchEvents,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if s.Status, err = model.ParseSubscriptionStatus(status); err != nil {
		return nil, fmt.Errorf("subscription %d: %w", s.ID, err)
	}
	if s.NotificationChannels, err = model.ParseNotificationChannels(channels); err != nil {
		return nil, fmt.Errorf("subscription %d: %w", s.ID, err)
	}
	s.Frequency = model.Frequency(frequency)
	return &s, nil
}
