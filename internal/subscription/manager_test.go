package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-sentinel/internal/database"
	"github-sentinel/internal/database/dbmock"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
)

// MockFetcher is a mock of the RepositoryFetcher interface.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) RepositoryExists(ctx context.Context, fullName string) (bool, error) {
	args := m.Called(ctx, fullName)
	return args.Bool(0), args.Error(1)
}

func (m *MockFetcher) GetRepository(ctx context.Context, fullName string) (*model.Repository, error) {
	args := m.Called(ctx, fullName)
	if v := args.Get(0); v != nil {
		return v.(*model.Repository), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestManager() (*Manager, *dbmock.MockQuerier, *MockFetcher) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := new(dbmock.MockQuerier)
	gh := new(MockFetcher)
	return NewManager(q, gh, logger), q, gh
}

var notFound = fmt.Errorf("lookup: %w", serrors.ErrNotFound)

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	const repoName = "octocat/Hello-World"
	storedRepo := &model.Repository{ID: 7, FullName: repoName, Owner: "octocat", Name: "Hello-World", StarsCount: 1}

	t.Run("rejects an invalid repository name", func(t *testing.T) {
		m, q, gh := newTestManager()

		_, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: "not a repo"})

		var valErr *serrors.ValidationError
		require.ErrorAs(t, err, &valErr)
		q.AssertExpectations(t)
		gh.AssertNotCalled(t, "RepositoryExists", mock.Anything, mock.Anything)
	})

	t.Run("fails on an active duplicate", func(t *testing.T) {
		m, q, gh := newTestManager()
		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(storedRepo, nil).Once()
		q.On("GetSubscriptionByUserAndRepo", mock.Anything, int64(1), int64(7)).
			Return(&model.Subscription{ID: 3, Status: model.StatusActive}, nil).Once()

		_, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: repoName})

		var subErr *serrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, "subscription already exists and is active", subErr.Error())
		q.AssertExpectations(t)
		q.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
		gh.AssertNotCalled(t, "RepositoryExists", mock.Anything, mock.Anything)
	})

	for _, status := range []model.SubscriptionStatus{model.StatusPaused, model.StatusInactive} {
		t.Run("reactivates a "+string(status)+" subscription", func(t *testing.T) {
			m, q, _ := newTestManager()
			q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(storedRepo, nil).Once()
			q.On("GetSubscriptionByUserAndRepo", mock.Anything, int64(1), int64(7)).
				Return(&model.Subscription{ID: 3, Status: status}, nil).Once()
			q.On("UpdateSubscriptionStatus", mock.Anything, int64(3), model.StatusActive).
				Return(&model.Subscription{ID: 3, Status: model.StatusActive}, nil).Once()

			sub, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: repoName})

			require.NoError(t, err)
			assert.Equal(t, int64(3), sub.ID)
			assert.Equal(t, model.StatusActive, sub.Status)
			q.AssertExpectations(t)
			q.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
		})
	}

	t.Run("creates the repository record and applies defaults", func(t *testing.T) {
		m, q, gh := newTestManager()
		fetched := &model.Repository{FullName: repoName, Owner: "octocat", Name: "Hello-World", StarsCount: 5}

		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(nil, notFound).Twice()
		gh.On("RepositoryExists", mock.Anything, repoName).Return(true, nil).Once()
		gh.On("GetRepository", mock.Anything, repoName).Return(fetched, nil).Once()
		q.On("CreateRepository", mock.Anything, database.CreateRepositoryParamsFrom(fetched)).
			Return(&model.Repository{ID: 9, FullName: repoName}, nil).Once()
		q.On("CreateSubscription", mock.Anything, database.CreateSubscriptionParams{
			UserID:               1,
			RepositoryID:         9,
			Status:               model.StatusActive,
			NotificationChannels: []model.NotificationChannel{model.ChannelEmail},
			Frequency:            model.FrequencyDaily,
			WatchEvents:          model.DefaultWatchEvents(),
		}).Return(&model.Subscription{ID: 11, RepositoryID: 9, Status: model.StatusActive}, nil).Once()

		sub, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: repoName})

		require.NoError(t, err)
		assert.Equal(t, int64(11), sub.ID)
		q.AssertExpectations(t)
		gh.AssertExpectations(t)
	})

	t.Run("refresh failure keeps the stored repository", func(t *testing.T) {
		m, q, gh := newTestManager()
		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(storedRepo, nil).Twice()
		q.On("GetSubscriptionByUserAndRepo", mock.Anything, int64(2), int64(7)).Return(nil, notFound).Once()
		gh.On("RepositoryExists", mock.Anything, repoName).Return(true, nil).Once()
		gh.On("GetRepository", mock.Anything, repoName).Return(nil, &serrors.APIError{Msg: "boom", StatusCode: 502}).Once()
		q.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(p database.CreateSubscriptionParams) bool {
			return p.RepositoryID == 7 && p.Frequency == model.FrequencyWeekly
		})).Return(&model.Subscription{ID: 12, RepositoryID: 7}, nil).Once()

		sub, err := m.Create(ctx, CreateParams{UserID: 2, RepoFullName: repoName, Frequency: model.FrequencyWeekly})

		require.NoError(t, err)
		assert.Equal(t, int64(12), sub.ID)
		q.AssertNotCalled(t, "UpdateRepositoryStats", mock.Anything, mock.Anything)
		q.AssertExpectations(t)
	})

	t.Run("failed stats update aborts the subscription", func(t *testing.T) {
		m, q, gh := newTestManager()
		fetched := &model.Repository{FullName: repoName, Owner: "octocat", Name: "Hello-World", StarsCount: 9}
		dbErr := &serrors.DatabaseError{Op: "update repository stats", Err: errors.New("connection reset")}
		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(storedRepo, nil).Twice()
		q.On("GetSubscriptionByUserAndRepo", mock.Anything, int64(2), int64(7)).Return(nil, notFound).Once()
		gh.On("RepositoryExists", mock.Anything, repoName).Return(true, nil).Once()
		gh.On("GetRepository", mock.Anything, repoName).Return(fetched, nil).Once()
		q.On("UpdateRepositoryStats", mock.Anything, database.UpdateRepositoryStatsParamsFrom(7, fetched)).
			Return(nil, dbErr).Once()

		_, err := m.Create(ctx, CreateParams{UserID: 2, RepoFullName: repoName})

		var subErr *serrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.ErrorIs(t, err, dbErr)
		q.AssertExpectations(t)
		q.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	})

	t.Run("inaccessible repository", func(t *testing.T) {
		m, q, gh := newTestManager()
		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(nil, notFound).Once()
		gh.On("RepositoryExists", mock.Anything, repoName).Return(false, nil).Once()

		_, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: repoName})

		var subErr *serrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.Contains(t, subErr.Error(), "not found or not accessible")
		q.AssertNotCalled(t, "CreateRepository", mock.Anything, mock.Anything)
	})

	t.Run("access check failure", func(t *testing.T) {
		m, q, gh := newTestManager()
		apiErr := &serrors.APIError{Msg: "rate limited", StatusCode: 403, RateLimited: true}
		q.On("GetRepositoryByFullName", mock.Anything, repoName).Return(nil, notFound).Once()
		gh.On("RepositoryExists", mock.Anything, repoName).Return(false, apiErr).Once()

		_, err := m.Create(ctx, CreateParams{UserID: 1, RepoFullName: repoName})

		var subErr *serrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		var gotAPIErr *serrors.APIError
		assert.ErrorAs(t, err, &gotAPIErr)
	})
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("missing subscription keeps not found", func(t *testing.T) {
		m, q, _ := newTestManager()
		q.On("DeleteSubscription", mock.Anything, int64(42)).Return(notFound).Once()

		err := m.Delete(ctx, 42)

		var subErr *serrors.SubscriptionError
		require.ErrorAs(t, err, &subErr)
		assert.True(t, errors.Is(err, serrors.ErrNotFound))
	})

	t.Run("deletes", func(t *testing.T) {
		m, q, _ := newTestManager()
		q.On("DeleteSubscription", mock.Anything, int64(1)).Return(nil).Once()

		require.NoError(t, m.Delete(ctx, 1))
		q.AssertExpectations(t)
	})
}

func TestManager_Update(t *testing.T) {
	ctx := context.Background()
	m, q, _ := newTestManager()
	weekly := model.FrequencyWeekly

	q.On("UpdateSubscription", mock.Anything, database.UpdateSubscriptionParams{ID: 5, Frequency: &weekly}).
		Return(&model.Subscription{ID: 5, Frequency: weekly}, nil).Once()

	sub, err := m.Update(ctx, 5, UpdateParams{Frequency: &weekly})
	require.NoError(t, err)
	assert.Equal(t, weekly, sub.Frequency)

	_, err = m.Update(ctx, 5, UpdateParams{Channels: []model.NotificationChannel{}})
	var valErr *serrors.ValidationError
	assert.ErrorAs(t, err, &valErr)
	q.AssertExpectations(t)
}

func TestManager_ListByUserWrapsStoreErrors(t *testing.T) {
	m, q, _ := newTestManager()
	cause := &serrors.DatabaseError{Op: "list subscriptions by user", Err: errors.New("conn refused")}
	q.On("ListSubscriptionsByUser", mock.Anything, int64(1), (*model.SubscriptionStatus)(nil)).Return(nil, cause).Once()

	_, err := m.ListByUser(context.Background(), 1, nil)

	var subErr *serrors.SubscriptionError
	require.ErrorAs(t, err, &subErr)
	assert.Contains(t, err.Error(), "conn refused")
}
