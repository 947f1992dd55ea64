// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-sentinel/internal/database"
	serrors "github-sentinel/internal/errors"
	"github-sentinel/internal/model"
	"github-sentinel/internal/subscription"
)

// ActivityFetcher is the part of the GitHub client the API needs.
type ActivityFetcher interface {
	GetActivity(ctx context.Context, fullName string, since, until time.Time) (*model.RepositoryActivity, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	db     database.Querier
	gh     ActivityFetcher
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db database.Querier, gh ActivityFetcher, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		gh:     gh,
		logger: logger,
		now:    time.Now,
	}
	return h.routes()
}

func (h *Handler) routes() http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/users/{userID}/subscriptions", h.listSubscriptions)
		r.Get("/subscriptions/{id}", h.getSubscription)
		r.Get("/subscriptions/{id}/reports", h.listReports)
		r.Get("/repos/{owner}/{name}/activity", h.getActivity)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listSubscriptions returns a user's subscriptions, newest first.
// GET /v1/users/{userID}/subscriptions?status=active
func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var status *model.SubscriptionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := model.ParseSubscriptionStatus(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'status' parameter. Must be one of active, paused, inactive.")
			return
		}
		status = &st
	}

	subs, err := h.manager().ListByUser(r.Context(), userID, status)
	if err != nil {
		h.respondWithFailure(w, "Failed to list subscriptions", err)
		return
	}
	respondWithJSON(w, http.StatusOK, subs)
}

// getSubscription returns one subscription.
// GET /v1/subscriptions/{id}
func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.manager().Get(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, "Failed to get subscription", err)
		return
	}
	respondWithJSON(w, http.StatusOK, sub)
}

// listReports returns the latest reports of a subscription.
// GET /v1/subscriptions/{id}/reports?limit=N
func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", 10, 100)
	if !ok {
		return
	}

	if _, err := h.db.GetSubscriptionByID(r.Context(), id); err != nil {
		h.respondWithFailure(w, "Failed to get subscription", err)
		return
	}
	reports, err := h.db.ListReportsBySubscription(r.Context(), id, int32(limit))
	if err != nil {
		h.respondWithFailure(w, "Failed to list reports", err)
		return
	}
	respondWithJSON(w, http.StatusOK, reports)
}

// getActivity fetches live activity for a repository.
// GET /v1/repos/{owner}/{name}/activity?days=N
func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	if !model.ValidateRepoName(fullName) {
		respondWithError(w, http.StatusBadRequest, "Invalid repository name")
		return
	}
	days, ok := queryInt(w, r, "days", 7, 90)
	if !ok {
		return
	}

	until := h.now()
	activity, err := h.gh.GetActivity(r.Context(), fullName, until.AddDate(0, 0, -days), until)
	if err != nil {
		h.respondWithFailure(w, "Failed to fetch activity", err)
		return
	}
	respondWithJSON(w, http.StatusOK, activity)
}

func (h *Handler) manager() *subscription.Manager {
	return subscription.NewManager(h.db, nil, h.logger)
}

// respondWithFailure maps domain errors onto HTTP status codes.
func (h *Handler) respondWithFailure(w http.ResponseWriter, msg string, err error) {
	var (
		validationErr *serrors.ValidationError
		apiErr        *serrors.APIError
	)
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error(msg, "error", err)
		respondWithError(w, http.StatusBadGateway, "Upstream API error")
	default:
		h.logger.Error(msg, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid '"+key+"' parameter. Must be a positive integer.")
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def, maxVal int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxVal {
		respondWithError(w, http.StatusBadRequest,
			"Invalid '"+key+"' parameter. Must be an integer between 1 and "+strconv.Itoa(maxVal)+".")
		return 0, false
	}
	return n, true
}
