// Package subscription implements the business rules for creating and
// maintaining repository subscriptions.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github-sentinel/internal/database"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

// RepositoryFetcher is the part of the GitHub client the manager needs.
type RepositoryFetcher interface {
	RepositoryExists(ctx context.Context, fullName string) (bool, error)
	GetRepository(ctx context.Context, fullName string) (*model.Repository, error)
}

// Manager applies subscription rules on top of the store.
type Manager struct {
	q      database.Querier
	gh     RepositoryFetcher
	logger *slog.Logger
}

// NewManager creates a Manager. q is usually bound to a transaction.
func NewManager(q database.Querier, gh RepositoryFetcher, logger *slog.Logger) *Manager {
	return &Manager{q: q, gh: gh, logger: logger}
}

// CreateParams describes a new subscription. Zero values take the defaults:
// email notifications, daily frequency and every watch event.
type CreateParams struct {
	UserID       int64
	RepoFullName string
	Channels     []model.NotificationChannel
	Frequency    model.Frequency
	WatchEvents  []string
}

// Create subscribes a user to a repository. Subscribing again to a paused or
// inactive subscription reactivates it; an active duplicate is an error.
func (m *Manager) Create(ctx context.Context, p CreateParams) (*model.Subscription, error) {
	if !model.ValidateRepoName(p.RepoFullName) {
		return nil, &serrors.ValidationError{Field: "repository", Value: p.RepoFullName, Msg: "expected owner/name"}
	}
	logger := m.logger.With("user_id", p.UserID, "repo", p.RepoFullName)

	existing, err := m.findExisting(ctx, p.UserID, p.RepoFullName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == model.StatusActive {
			return nil, &serrors.SubscriptionError{Msg: "subscription already exists and is active"}
		}
		logger.Info("Reactivating existing subscription", "subscription_id", existing.ID, "previous_status", existing.Status)
		return m.SetStatus(ctx, existing.ID, model.StatusActive)
	}

	ok, err := m.gh.RepositoryExists(ctx, p.RepoFullName)
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to validate repository", Err: err}
	}
	if !ok {
		return nil, &serrors.SubscriptionError{Msg: fmt.Sprintf("repository %s not found or not accessible", p.RepoFullName)}
	}

	repo, err := m.resolveRepository(ctx, p.RepoFullName)
	if err != nil {
		return nil, err
	}

	channels := p.Channels
	if len(channels) == 0 {
		channels = model.DefaultChannels()
	}
	frequency := p.Frequency
	if frequency == "" {
		frequency = model.FrequencyDaily
	}
	events := p.WatchEvents
	if len(events) == 0 {
		events = model.DefaultWatchEvents()
	}

	sub, err := m.q.CreateSubscription(ctx, database.CreateSubscriptionParams{
		UserID:               p.UserID,
		RepositoryID:         repo.ID,
		Status:               model.StatusActive,
		NotificationChannels: channels,
		Frequency:            frequency,
		WatchEvents:          events,
	})
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to create subscription", Err: err}
	}
	logger.Info("Created subscription", "subscription_id", sub.ID)
	return sub, nil
}

// findExisting returns the user's subscription to the repository, or nil.
func (m *Manager) findExisting(ctx context.Context, userID int64, fullName string) (*model.Subscription, error) {
	repo, err := m.q.GetRepositoryByFullName(ctx, fullName)
	if errors.Is(err, serrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to look up repository", Err: err}
	}

	sub, err := m.q.GetSubscriptionByUserAndRepo(ctx, userID, repo.ID)
	if errors.Is(err, serrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to look up subscription", Err: err}
	}
	return sub, nil
}

// resolveRepository returns the stored repository, refreshing its metadata when
// GitHub answers, or fetches and stores it when it is not known yet. Only the
// GitHub fetch is best-effort: a failed update has aborted the transaction.
func (m *Manager) resolveRepository(ctx context.Context, fullName string) (*model.Repository, error) {
	logger := m.logger.With("repo", fullName)

	stored, err := m.q.GetRepositoryByFullName(ctx, fullName)
	switch {
	case err == nil:
		fresh, err := m.gh.GetRepository(ctx, fullName)
		if err != nil {
			logger.Warn("Failed to refresh repository info", "error", err)
			return stored, nil
		}
		updated, err := m.q.UpdateRepositoryStats(ctx, database.UpdateRepositoryStatsParamsFrom(stored.ID, fresh))
		if err != nil {
			return nil, &serrors.SubscriptionError{Msg: "failed to update repository record", Err: err}
		}
		return updated, nil
	case !errors.Is(err, serrors.ErrNotFound):
		return nil, &serrors.SubscriptionError{Msg: "failed to look up repository", Err: err}
	}

	fresh, err := m.gh.GetRepository(ctx, fullName)
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to create repository record", Err: err}
	}
	created, err := m.q.CreateRepository(ctx, database.CreateRepositoryParamsFrom(fresh))
	if err != nil {
		return nil, &serrors.SubscriptionError{Msg: "failed to create repository record", Err: err}
	}
	logger.Info("Created repository record", "repository_id", created.ID)
	return created, nil
}

// Get returns the subscription with the given id.
func (m *Manager) Get(ctx context.Context, id int64) (*model.Subscription, error) {
	sub, err := m.q.GetSubscriptionByID(ctx, id)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to retrieve subscription %d", id), err)
	}
	return sub, nil
}

// ListByUser returns the user's subscriptions, optionally filtered by status.
func (m *Manager) ListByUser(ctx context.Context, userID int64, status *model.SubscriptionStatus) ([]model.Subscription, error) {
	subs, err := m.q.ListSubscriptionsByUser(ctx, userID, status)
	if err != nil {
		return nil, wrap("failed to retrieve subscriptions", err)
	}
	return subs, nil
}

// UpdateParams changes subscription settings. Nil fields are left unchanged.
type UpdateParams struct {
	Channels    []model.NotificationChannel
	Frequency   *model.Frequency
	WatchEvents []string
}

// Update changes the channels, frequency or watch events of a subscription.
func (m *Manager) Update(ctx context.Context, id int64, p UpdateParams) (*model.Subscription, error) {
	if p.Channels != nil && len(p.Channels) == 0 {
		return nil, &serrors.ValidationError{Field: "channels", Msg: "at least one channel is required"}
	}
	sub, err := m.q.UpdateSubscription(ctx, database.UpdateSubscriptionParams{
		ID:                   id,
		NotificationChannels: p.Channels,
		Frequency:            p.Frequency,
		WatchEvents:          p.WatchEvents,
	})
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to update subscription %d", id), err)
	}
	m.logger.Info("Updated subscription", "subscription_id", id)
	return sub, nil
}

// SetStatus moves a subscription between active, paused and inactive.
func (m *Manager) SetStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error) {
	sub, err := m.q.UpdateSubscriptionStatus(ctx, id, status)
	if err != nil {
		return nil, wrap(fmt.Sprintf("failed to update subscription %d status", id), err)
	}
	m.logger.Info("Updated subscription status", "subscription_id", id, "status", status)
	return sub, nil
}

// Delete removes a subscription together with its reports.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.q.DeleteSubscription(ctx, id); err != nil {
		return wrap(fmt.Sprintf("failed to delete subscription %d", id), err)
	}
	m.logger.Info("Deleted subscription", "subscription_id", id)
	return nil
}

// ListActive returns every active subscription.
func (m *Manager) ListActive(ctx context.Context) ([]model.Subscription, error) {
	subs, err := m.q.ListSubscriptionsByStatus(ctx, model.StatusActive)
	if err != nil {
		return nil, wrap("failed to retrieve active subscriptions", err)
	}
	return subs, nil
}

// ListByFrequency returns the active subscriptions processed at the given cadence.
func (m *Manager) ListByFrequency(ctx context.Context, frequency model.Frequency) ([]model.Subscription, error) {
	subs, err := m.q.ListActiveSubscriptionsByFrequency(ctx, frequency)
	if err != nil {
		return nil, wrap("failed to retrieve subscriptions by frequency", err)
	}
	return subs, nil
}

func wrap(msg string, err error) error {
	return &serrors.SubscriptionError{Msg: msg, Err: err}
}
