// cmd/sentinel/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github-sentinel/internal/api"
	"github-sentinel/internal/model"
	"github-sentinel/internal/processor"
	"github-sentinel/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the report scheduler and the read API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFile, true)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.processor()
			if err != nil {
				return err
			}
			sched, err := scheduler.New(a.cfg.Scheduler, a.logger)
			if err != nil {
				return err
			}
			defer sched.Close()
			if err := a.scheduleDigests(sched, p); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			srv := &http.Server{
				Addr:              a.cfg.HTTPAddr,
				Handler:           api.NewRouter(a.store.Querier(), a.gh, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.logger.Info("API server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

// scheduleDigests registers one processing job per frequency.
func (a *app) scheduleDigests(s *scheduler.Scheduler, p *processor.Processor) error {
	run := func(freq model.Frequency) scheduler.JobFunc {
		return func(ctx context.Context) {
			results, err := p.Process(ctx, freq)
			if err != nil {
				a.logger.Error("Scheduled processing failed", "frequency", freq, "error", err)
				return
			}
			a.logger.Info("Scheduled processing finished", "frequency", freq, "subscriptions", len(results))
		}
	}

	cfg := a.cfg.Scheduler
	if _, err := s.ScheduleDaily(run(model.FrequencyDaily), cfg.RunAt, "daily-digest"); err != nil {
		return err
	}
	if _, err := s.ScheduleWeekly(run(model.FrequencyWeekly), cfg.WeeklyDay, cfg.RunAt, "weekly-digest"); err != nil {
		return err
	}
	if _, err := s.ScheduleMonthly(run(model.FrequencyMonthly), cfg.MonthlyDay, cfg.RunAt, "monthly-digest"); err != nil {
		return err
	}
	for id, job := range s.Jobs() {
		a.logger.Info("Scheduled job", "id", id, "kind", job.Kind, "next_run", job.NextRun)
	}
	return nil
}
