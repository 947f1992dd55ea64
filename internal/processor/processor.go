// internal/processor/processor.go
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github-sentinel/internal/database"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
	"github-sentinel/internal/report"
	"github-sentinel/internal/subscription"
)

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q database.Querier) error) error
}

// ActivitySource fetches the activity of one repository.
type ActivitySource interface {
	GetActivity(ctx context.Context, fullName string, since, until time.Time) (*model.RepositoryActivity, error)
}

// Notifier delivers a composed report.
type Notifier interface {
	Send(ctx context.Context, channels []model.NotificationChannel, subject, body, recipient string) error
}

// Result is the outcome for one subscription. Exactly one of Report and Err is set.
type Result struct {
	Subscription model.Subscription
	Report       *model.Report
	Err          error
}

// Processor turns due subscriptions into stored reports.
type Processor struct {
	store    TxRunner
	gh       ActivitySource
	composer *report.Composer
	notifier Notifier
	logger   *slog.Logger
	format   model.ReportFormat
	workers  int
	now      func() time.Time
}

// New creates a Processor. workers bounds how many subscriptions are processed
// at once; values below one mean sequential processing.
func New(store TxRunner, gh ActivitySource, composer *report.Composer, notifier Notifier, logger *slog.Logger, format model.ReportFormat, workers int) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		store:    store,
		gh:       gh,
		composer: composer,
		notifier: notifier,
		logger:   logger,
		format:   format,
		workers:  workers,
		now:      time.Now,
	}
}

// Process handles every active subscription with the given frequency over the
// frequency's look-back window. A failing subscription is reported in its
// Result and never stops the batch. Results keep the listing order.
func (p *Processor) Process(ctx context.Context, frequency model.Frequency) ([]Result, error) {
	var subs []model.Subscription
	err := p.store.InTx(ctx, func(q database.Querier) error {
		var err error
		subs, err = subscription.NewManager(q, nil, p.logger).ListByFrequency(ctx, frequency)
		return err
	})
	if err != nil {
		return nil, err
	}

	until := p.now()
	since := until.Add(-frequency.Window())
	p.logger.Info("Starting processing cycle",
		"frequency", frequency, "subscriptions", len(subs), "since", since.Format(time.RFC3339), "workers", p.workers)

	results := make([]Result, len(subs))
	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	for i, sub := range subs {
		g.Go(func() error {
			results[i] = Result{Subscription: sub}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			rep, err := p.processSubscription(ctx, sub, since, until)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					p.logger.Error("Failed to process subscription",
						"subscription_id", sub.ID, "repo", sub.RepositoryFullName, "error", err)
				}
				results[i].Err = err
				return nil
			}
			results[i].Report = rep
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("Processing cycle finished", "frequency", frequency, "processed", len(results)-failed, "failed", failed)
	return results, nil
}

// processSubscription fetches the activity, stores a report inside a
// transaction, then notifies the subscriber once it is committed. No
// transaction is open while GitHub is queried.
func (p *Processor) processSubscription(ctx context.Context, sub model.Subscription, since, until time.Time) (*model.Report, error) {
	logger := p.logger.With("subscription_id", sub.ID, "repo", sub.RepositoryFullName)
	logger.Info("Processing subscription")

	activity, err := p.gh.GetActivity(ctx, sub.RepositoryFullName, since, until)
	if err != nil {
		return nil, err
	}
	activity.FilterWatched(&sub)

	var (
		rep       *model.Report
		recipient string
	)
	err = p.store.InTx(ctx, func(q database.Querier) error {
		var err error
		rep, recipient, err = p.storeReport(ctx, q, logger, sub, activity)
		return err
	})
	if err != nil {
		return nil, err
	}

	if p.notifier != nil {
		if err := p.notifier.Send(ctx, sub.NotificationChannels, rep.Title, notificationBody(rep), recipient); err != nil {
			logger.Warn("Notification failed", "error", err)
		}
	}
	return rep, nil
}

// storeReport records the repository deltas and the report, and looks up the
// address to notify.
func (p *Processor) storeReport(ctx context.Context, q database.Querier, logger *slog.Logger, sub model.Subscription, activity *model.RepositoryActivity) (*model.Report, string, error) {
	if err := p.trackRepository(ctx, q, sub.RepositoryID, activity); err != nil {
		return nil, "", err
	}

	rep, err := p.composer.Generate([]model.RepositoryActivity{*activity}, sub.ID, p.format)
	if err != nil {
		return nil, "", err
	}
	saved, err := q.CreateReport(ctx, database.CreateReportParamsFrom(sub.ID, rep))
	if err != nil {
		return nil, "", err
	}
	logger.Info("Stored report", "report_id", saved.ID, "summary", saved.Summary)

	var recipient string
	user, err := q.GetUserByID(ctx, sub.UserID)
	switch {
	case err == nil:
		recipient = user.Email
	case errors.Is(err, serrors.ErrNotFound):
		logger.Warn("Subscription owner not found", "user_id", sub.UserID)
	default:
		return nil, "", err
	}
	return saved, recipient, nil
}

// trackRepository computes star and fork deltas against the last stored
// counts and then stores the fresh counts.
func (p *Processor) trackRepository(ctx context.Context, q database.Querier, repoID int64, activity *model.RepositoryActivity) error {
	stored, err := q.GetRepositoryByID(ctx, repoID)
	if err != nil {
		return fmt.Errorf("load repository %d: %w", repoID, err)
	}
	activity.Repository.ID = stored.ID
	activity.StarsChange = activity.Repository.StarsCount - stored.StarsCount
	activity.ForksChange = activity.Repository.ForksCount - stored.ForksCount

	_, err = q.UpdateRepositoryStats(ctx, database.UpdateRepositoryStatsParamsFrom(stored.ID, &activity.Repository))
	return err
}

func notificationBody(r *model.Report) string {
	if md, ok := r.Content["markdown"].(string); ok {
		return md
	}
	return r.Summary
}
