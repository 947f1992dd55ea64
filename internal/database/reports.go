package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github-sentinel/internal/model"
)

const reportColumns = `id, subscription_id, title, content, format, generated_at, period_start, period_end, summary`

const createReport = `
INSERT INTO reports (subscription_id, title, content, format, generated_at, period_start, period_end, summary)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + reportColumns

type CreateReportParams struct {
	SubscriptionID int64
	Title          string
	Content        map[string]any
	Format         model.ReportFormat
	GeneratedAt    time.Time
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Summary        string
}

// CreateReportParamsFrom prepares a composed report for storage under subscriptionID.
func CreateReportParamsFrom(subscriptionID int64, r *model.Report) CreateReportParams {
	return CreateReportParams{
		SubscriptionID: subscriptionID,
		Title:          r.Title,
		Content:        r.Content,
		Format:         r.Format,
		GeneratedAt:    r.GeneratedAt,
		PeriodStart:    r.PeriodStart,
		PeriodEnd:      r.PeriodEnd,
		Summary:        r.Summary,
	}
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (*model.Report, error) {
	generatedAt := arg.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	content := arg.Content
	if content == nil {
		content = map[string]any{}
	}
	row := q.db.QueryRow(ctx, createReport,
		arg.SubscriptionID,
		arg.Title,
		content,
		string(arg.Format),
		generatedAt,
		arg.PeriodStart,
		arg.PeriodEnd,
		arg.Summary,
	)
	r, err := scanReport(row)
	return r, wrapErr("create report", err)
}

const getReportByID = `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

func (q *Queries) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	r, err := scanReport(q.db.QueryRow(ctx, getReportByID, id))
	return r, wrapErr("get report", err)
}

const listReportsBySubscription = `
SELECT ` + reportColumns + `
FROM reports
WHERE subscription_id = $1
ORDER BY generated_at DESC, id DESC
LIMIT $2`

// ListReportsBySubscription returns at most limit reports, most recent first.
func (q *Queries) ListReportsBySubscription(ctx context.Context, subscriptionID int64, limit int32) ([]model.Report, error) {
	rows, err := q.db.Query(ctx, listReportsBySubscription, subscriptionID, limit)
	if err != nil {
		return nil, wrapErr("list reports", err)
	}
	reports, err := collectReports(rows)
	return reports, wrapErr("list reports", err)
}

func collectReports(rows pgx.Rows) ([]model.Report, error) {
	defer rows.Close()
	reports := make([]model.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func scanReport(row rowScanner) (*model.Report, error) {
	var (
		r      model.Report
		format string
	)
	if err := row.Scan(
		&r.ID,
		&r.SubscriptionID,
		&r.Title,
		&r.Content,
		&format,
		&r.GeneratedAt,
		&r.PeriodStart,
		&r.PeriodEnd,
		&r.Summary,
	); err != nil {
		return nil, err
	}
	f, err := model.ParseReportFormat(format)
	if err != nil {
		return nil, fmt.Errorf("report %d: %w", r.ID, err)
	}
	r.Format = f
	return &r, nil
}
