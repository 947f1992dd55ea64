package database

import (
	"context"
	"time"

	"github-sentinel/internal/model"
)

const repositoryColumns = `id, full_name, owner, name, description, url, default_branch,
	stars_count, forks_count, open_issues_count, language, last_updated, created_at`

const createRepository = `
INSERT INTO repositories (full_name, owner, name, description, url, default_branch,
	stars_count, forks_count, open_issues_count, language, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + repositoryColumns

type CreateRepositoryParams struct {
	FullName        string
	Owner           string
	Name            string
	Description     *string
	URL             string
	DefaultBranch   string
	StarsCount      int
	ForksCount      int
	OpenIssuesCount int
	Language        *string
	LastUpdated     *time.Time
}

// CreateRepositoryParamsFrom copies the fetched metadata of r into insert parameters.
func CreateRepositoryParamsFrom(r *model.Repository) CreateRepositoryParams {
	return CreateRepositoryParams{
		FullName:        r.FullName,
		Owner:           r.Owner,
		Name:            r.Name,
		Description:     r.Description,
		URL:             r.URL,
		DefaultBranch:   r.DefaultBranch,
		StarsCount:      r.StarsCount,
		ForksCount:      r.ForksCount,
		OpenIssuesCount: r.OpenIssuesCount,
		Language:        r.Language,
		LastUpdated:     r.LastUpdated,
	}
}

func (q *Queries) CreateRepository(ctx context.Context, arg CreateRepositoryParams) (*model.Repository, error) {
	branch := arg.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	row := q.db.QueryRow(ctx, createRepository,
		arg.FullName,
		arg.Owner,
		arg.Name,
		arg.Description,
		arg.URL,
		branch,
		arg.StarsCount,
		arg.ForksCount,
		arg.OpenIssuesCount,
		arg.Language,
		arg.LastUpdated,
	)
	r, err := scanRepository(row)
	return r, wrapErr("create repository", err)
}

const getRepositoryByID = `SELECT ` + repositoryColumns + ` FROM repositories WHERE id = $1`

func (q *Queries) GetRepositoryByID(ctx context.Context, id int64) (*model.Repository, error) {
	r, err := scanRepository(q.db.QueryRow(ctx, getRepositoryByID, id))
	return r, wrapErr("get repository", err)
}

const getRepositoryByFullName = `SELECT ` + repositoryColumns + ` FROM repositories WHERE full_name = $1`

func (q *Queries) GetRepositoryByFullName(ctx context.Context, fullName string) (*model.Repository, error) {
	r, err := scanRepository(q.db.QueryRow(ctx, getRepositoryByFullName, fullName))
	return r, wrapErr("get repository by name", err)
}

const updateRepositoryStats = `
UPDATE repositories
SET description = $2,
    stars_count = $3,
    forks_count = $4,
    open_issues_count = $5,
    language = $6,
    last_updated = $7
WHERE id = $1
RETURNING ` + repositoryColumns

type UpdateRepositoryStatsParams struct {
	ID              int64
	Description     *string
	StarsCount      int
	ForksCount      int
	OpenIssuesCount int
	Language        *string
	LastUpdated     *time.Time
}

// UpdateRepositoryStatsParamsFrom refreshes the row id with the fetched metadata of r.
func UpdateRepositoryStatsParamsFrom(id int64, r *model.Repository) UpdateRepositoryStatsParams {
	return UpdateRepositoryStatsParams{
		ID:              id,
		Description:     r.Description,
		StarsCount:      r.StarsCount,
		ForksCount:      r.ForksCount,
		OpenIssuesCount: r.OpenIssuesCount,
		Language:        r.Language,
		LastUpdated:     r.LastUpdated,
	}
}

func (q *Queries) UpdateRepositoryStats(ctx context.Context, arg UpdateRepositoryStatsParams) (*model.Repository, error) {
	row := q.db.QueryRow(ctx, updateRepositoryStats,
		arg.ID,
		arg.Description,
		arg.StarsCount,
		arg.ForksCount,
		arg.OpenIssuesCount,
		arg.Language,
		arg.LastUpdated,
	)
	r, err := scanRepository(row)
	return r, wrapErr("update repository", err)
}

func scanRepository(row rowScanner) (*model.Repository, error) {
	var r model.Repository
	if err := row.Scan(
		&r.ID,
		&r.FullName,
		&r.Owner,
		&r.Name,
		&r.Description,
		&r.URL,
		&r.DefaultBranch,
		&r.StarsCount,
		&r.ForksCount,
		&r.OpenIssuesCount,
		&r.Language,
		&r.LastUpdated,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}
