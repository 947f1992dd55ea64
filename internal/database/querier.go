package database

import (
	"context"

	"github-sentinel/internal/model"
)

// Querier lists every query the application runs against the database.
type Querier interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CountUsers(ctx context.Context) (int64, error)

	CreateRepository(ctx context.Context, arg CreateRepositoryParams) (*model.Repository, error)
	GetRepositoryByID(ctx context.Context, id int64) (*model.Repository, error)
	GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error)
	UpdateRepositoryStats(ctx context.Context, arg UpdateRepositoryStatsParams) (*model.Repository, error)

	CreateSubscription(ctx context.Context, arg CreateSubscriptionParams) (*model.Subscription, error)
	GetSubscriptionByID(ctx context.Context, id int64) (*model.Subscription, error)
	GetSubscriptionByUserAndRepo(ctx context.Context, userID, repositoryID int64) (*model.Subscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID int64, status *model.SubscriptionStatus) ([]model.Subscription, error)
	ListSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) ([]model.Subscription, error)
	ListActiveSubscriptionsByFrequency(ctx context.Context, frequency model.Frequency) ([]model.Subscription, error)
	UpdateSubscription(ctx context.Context, arg UpdateSubscriptionParams) (*model.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
	CountSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) (int64, error)

	CreateReport(ctx context.Context, arg CreateReportParams) (*model.Report, error)
	GetReportByID(ctx context.Context, id int64) (*model.Report, error)
	ListReportsBySubscription(ctx context.Context, subscriptionID int64, limit int32) ([]model.Report, error)
}

var _ Querier = (*Queries)(nil)

// rowScanner is implemented by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
