// Package dbmock provides a testify mock of database.Querier.
package dbmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github-sentinel/internal/database"
	"github-sentinel/internal/model"
)

// MockQuerier is a mock of the database.Querier interface.
type MockQuerier struct {
	mock.Mock
}

var _ database.Querier = (*MockQuerier)(nil)

// InTx runs fn against the mock itself, mirroring database.Store.InTx.
func (m *MockQuerier) InTx(_ context.Context, fn func(q database.Querier) error) error {
	return fn(m)
}

func (m *MockQuerier) user(args mock.Arguments) (*model.User, error) {
	if v := args.Get(0); v != nil {
		return v.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuerier) repository(args mock.Arguments) (*model.Repository, error) {
	if v := args.Get(0); v != nil {
		return v.(*model.Repository), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuerier) subscription(args mock.Arguments) (*model.Subscription, error) {
	if v := args.Get(0); v != nil {
		return v.(*model.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuerier) subscriptions(args mock.Arguments) ([]model.Subscription, error) {
	if v := args.Get(0); v != nil {
		return v.([]model.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuerier) report(args mock.Arguments) (*model.Report, error) {
	if v := args.Get(0); v != nil {
		return v.(*model.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuerier) CreateUser(ctx context.Context, arg database.CreateUserParams) (*model.User, error) {
	return m.user(m.Called(ctx, arg))
}
func (m *MockQuerier) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}
func (m *MockQuerier) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.user(m.Called(ctx, username))
}
func (m *MockQuerier) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.user(m.Called(ctx, email))
}
func (m *MockQuerier) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) CreateRepository(ctx context.Context, arg database.CreateRepositoryParams) (*model.Repository, error) {
	return m.repository(m.Called(ctx, arg))
}
func (m *MockQuerier) GetRepositoryByID(ctx context.Context, id int64) (*model.Repository, error) {
	return m.repository(m.Called(ctx, id))
}
func (m *MockQuerier) GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	return m.repository(m.Called(ctx, fullName))
}
func (m *MockQuerier) UpdateRepositoryStats(ctx context.Context, arg database.UpdateRepositoryStatsParams) (*model.Repository, error) {
	return m.repository(m.Called(ctx, arg))
}

func (m *MockQuerier) CreateSubscription(ctx context.Context, arg database.CreateSubscriptionParams) (*model.Subscription, error) {
	return m.subscription(m.Called(ctx, arg))
}
func (m *MockQuerier) GetSubscriptionByID(ctx context.Context, id int64) (*model.Subscription, error) {
	return m.subscription(m.Called(ctx, id))
}
func (m *MockQuerier) GetSubscriptionByUserAndRepo(ctx context.Context, userID, repositoryID int64) (*model.Subscription, error) {
	return m.subscription(m.Called(ctx, userID, repositoryID))
}
func (m *MockQuerier) ListSubscriptionsByUser(ctx context.Context, userID int64, status *model.SubscriptionStatus) ([]model.Subscription, error) {
	return m.subscriptions(m.Called(ctx, userID, status))
}
func (m *MockQuerier) ListSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) ([]model.Subscription, error) {
	return m.subscriptions(m.Called(ctx, status))
}
func (m *MockQuerier) ListActiveSubscriptionsByFrequency(ctx context.Context, frequency model.Frequency) ([]model.Subscription, error) {
	return m.subscriptions(m.Called(ctx, frequency))
}
func (m *MockQuerier) UpdateSubscription(ctx context.Context, arg database.UpdateSubscriptionParams) (*model.Subscription, error) {
	return m.subscription(m.Called(ctx, arg))
}
func (m *MockQuerier) UpdateSubscriptionStatus(ctx context.Context, id int64, status model.SubscriptionStatus) (*model.Subscription, error) {
	return m.subscription(m.Called(ctx, id, status))
}
func (m *MockQuerier) DeleteSubscription(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockQuerier) CountSubscriptionsByStatus(ctx context.Context, status model.SubscriptionStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuerier) CreateReport(ctx context.Context, arg database.CreateReportParams) (*model.Report, error) {
	return m.report(m.Called(ctx, arg))
}
func (m *MockQuerier) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	return m.report(m.Called(ctx, id))
}
func (m *MockQuerier) ListReportsBySubscription(ctx context.Context, subscriptionID int64, limit int32) ([]model.Report, error) {
	args := m.Called(ctx, subscriptionID, limit)
	if v := args.Get(0); v != nil {
		return v.([]model.Report), args.Error(1)
	}
	return nil, args.Error(1)
}
