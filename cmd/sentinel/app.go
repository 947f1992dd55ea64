// cmd/sentinel/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github-sentinel/internal/config"
	"github-sentinel/internal/database"
	"github-sentinel/internal/github"
	"github-sentinel/internal/logger"
	"github-sentinel/internal/model"
	"github-sentinel/internal/notify"
	"github-sentinel/internal/processor"
	"github-sentinel/internal/report"
)

// app holds the components shared by every command. It is built once per
// invocation and torn down when the command returns.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	gh     *github.Client
	store  *database.Store
}

// newApp loads configuration, sets up logging and the GitHub client and,
// when withStore is set, migrates and opens the database.
func newApp(ctx context.Context, envFile string, withStore bool) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log, level := logger.New(cfg.Logging)
	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gh, err := github.NewClient(cfg.GitHub, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log, gh: gh}

	if !withStore {
		return a, nil
	}
	if err := database.Migrate(cfg.Database.URL); err != nil {
		return nil, err
	}
	log.Debug("Database migrations applied")

	store, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	a.store = store
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// processor builds the digest pipeline from the configured format and worker count.
func (a *app) processor() (*processor.Processor, error) {
	format, err := model.ParseReportFormat(a.cfg.DefaultReportFormat)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_REPORT_FORMAT: %w", err)
	}
	return processor.New(
		a.store,
		a.gh,
		report.NewComposer(),
		notify.New(a.cfg.Notifications, a.logger),
		a.logger,
		format,
		a.cfg.Scheduler.MaxWorkers,
	), nil
}
