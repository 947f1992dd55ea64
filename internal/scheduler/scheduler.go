// Package scheduler runs jobs at daily, weekly and monthly times of day.
//
// A single goroutine owns the job table. Every public method sends it a
// closure, so no locks guard the jobs. While started, the goroutine polls
// once per second and hands due jobs to a worker goroutine, one batch at a
// time, so it keeps serving requests while a job runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github-sentinel/internal/config"
	serrors "github-sentinel/internal/errors"
)

const (
	defaultPollInterval = time.Second
	defaultErrorBackoff = 5 * time.Second
	stopTimeout         = 5 * time.Second
)

// Kind tells how a job recurs.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// JobFunc is the work run when a job is due. ctx is cancelled when the
// scheduler is closed.
type JobFunc func(ctx context.Context)

// JobInfo describes a scheduled job.
type JobInfo struct {
	Kind    Kind      `json:"kind"`
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"next_run"`
}

type job struct {
	id       string
	kind     Kind
	spec     string
	schedule cron.Schedule
	fn       JobFunc
	next     time.Time
}

// batch is a set of due jobs running on the worker goroutine. panicked is
// written before done is closed.
type batch struct {
	done     chan struct{}
	panicked bool
}

// state is only ever touched by the loop goroutine.
type state struct {
	running   bool
	jobs      map[string]*job
	inflight  *batch
	holdUntil time.Time
}

// Scheduler runs registered jobs while started.
type Scheduler struct {
	enabled bool
	loc     *time.Location
	logger  *slog.Logger

	now          func() time.Time
	pollInterval time.Duration
	errorBackoff time.Duration

	reqs      chan func(*state)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Scheduler and starts its owner goroutine. Jobs only run after Start.
func New(cfg config.SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, &serrors.SchedulerError{Msg: fmt.Sprintf("invalid timezone %q", cfg.Timezone), Err: err}
		}
	}
	return newScheduler(cfg.Enabled, loc, logger, time.Now, defaultPollInterval, defaultErrorBackoff), nil
}

func newScheduler(enabled bool, loc *time.Location, logger *slog.Logger, now func() time.Time, poll, backoff time.Duration) *Scheduler {
	s := &Scheduler{
		enabled:      enabled,
		loc:          loc,
		logger:       logger,
		now:          now,
		pollInterval: poll,
		errorBackoff: backoff,
		reqs:         make(chan func(*state)),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &state{jobs: make(map[string]*job)}
	var ticker *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	s.logger.Debug("Scheduler loop started")
	for {
		var finished <-chan struct{}
		if st.inflight != nil {
			finished = st.inflight.done
		}

		select {
		case req := <-s.reqs:
			req(st)
		case <-finished:
			if st.inflight.panicked {
				// Wait before polling again.
				st.holdUntil = time.Now().Add(s.errorBackoff)
			}
			st.inflight = nil
		case <-tick:
			if st.inflight == nil && !time.Now().Before(st.holdUntil) {
				st.inflight = s.startDue(ctx, st)
			}
		case <-s.quit:
			s.logger.Debug("Scheduler loop ended")
			return
		}

		switch {
		case st.running && ticker == nil:
			ticker = time.NewTicker(s.pollInterval)
			tick = ticker.C
		case !st.running && ticker != nil:
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
}

// startDue advances every job whose next run has passed and runs them on a
// worker goroutine. It returns nil when nothing is due.
func (s *Scheduler) startDue(ctx context.Context, st *state) *batch {
	now := s.now().In(s.loc)

	due := make([]*job, 0)
	for _, j := range st.jobs {
		if !j.next.After(now) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(a, b int) bool { return due[a].next.Before(due[b].next) })

	runs := make([]*job, len(due))
	for i, j := range due {
		j.next = j.schedule.Next(now)
		// The worker gets a copy; the table may change while it runs.
		c := *j
		runs[i] = &c
	}

	b := &batch{done: make(chan struct{})}
	go func() {
		defer close(b.done)
		for _, j := range runs {
			if s.runJob(ctx, j) {
				b.panicked = true
			}
		}
	}()
	return b
}

func (s *Scheduler) runJob(ctx context.Context, j *job) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Scheduled job panicked", "job_id", j.id, "panic", r)
			panicked = true
		}
	}()
	s.logger.Info("Running scheduled job", "job_id", j.id, "kind", j.kind)
	j.fn(ctx)
	return false
}

// do hands fn to the loop and waits until it has run. It fails once the
// scheduler is closed.
func (s *Scheduler) do(fn func(*state)) error {
	ack := make(chan struct{})
	req := func(st *state) {
		fn(st)
		close(ack)
	}
	select {
	case s.reqs <- req:
	case <-s.done:
		return &serrors.SchedulerError{Msg: "scheduler is closed"}
	}
	select {
	case <-ack:
		return nil
	case <-s.done:
		return &serrors.SchedulerError{Msg: "scheduler is closed"}
	}
}

// Start begins polling for due jobs. It does nothing when scheduling is
// disabled or the scheduler is already running.
func (s *Scheduler) Start() {
	if !s.enabled {
		s.logger.Info("Scheduler is disabled in configuration")
		return
	}
	err := s.do(func(st *state) {
		if st.running {
			s.logger.Warn("Scheduler is already running")
			return
		}
		st.running = true
		s.logger.Info("Scheduler started", "jobs", len(st.jobs))
	})
	if err != nil {
		s.logger.Error("Failed to start scheduler", "error", err)
	}
}

// Stop halts polling and removes every job at once. It then waits at most
// five seconds for a job that is still running to finish.
func (s *Scheduler) Stop() {
	var inflight *batch
	err := s.do(func(st *state) {
		if !st.running {
			return
		}
		st.running = false
		clear(st.jobs)
		inflight = st.inflight
		s.logger.Info("Scheduler stopped")
	})
	if err != nil || inflight == nil {
		return
	}

	timer := time.NewTimer(stopTimeout)
	defer timer.Stop()
	select {
	case <-inflight.done:
	case <-timer.C:
		s.logger.Warn("Scheduled job still running after stop", "waited", stopTimeout)
	}
}

// Running reports whether the scheduler is polling for due jobs.
func (s *Scheduler) Running() bool {
	var running bool
	if err := s.do(func(st *state) { running = st.running }); err != nil {
		return false
	}
	return running
}

// Close stops the scheduler and terminates its goroutine.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.Stop()
		close(s.quit)
	})
	<-s.done
}

// ScheduleDaily runs fn every day at timeOfDay ("HH:MM"). An empty id is generated.
func (s *Scheduler) ScheduleDaily(fn JobFunc, timeOfDay, id string) (string, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	return s.add(KindDaily, spec, fn, id)
}

// ScheduleWeekly runs fn every week on day (e.g. "monday") at timeOfDay.
func (s *Scheduler) ScheduleWeekly(fn JobFunc, day, timeOfDay, id string) (string, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}
	dow, err := parseWeekday(day)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%d %d * * %d", minute, hour, dow)
	return s.add(KindWeekly, spec, fn, id)
}

// ScheduleMonthly runs fn on the given day of the month at timeOfDay. The job
// is checked daily, so months without that day are skipped.
func (s *Scheduler) ScheduleMonthly(fn JobFunc, day int, timeOfDay, id string) (string, error) {
	if day < 1 || day > 31 {
		return "", &serrors.SchedulerError{Msg: fmt.Sprintf("invalid day of month %d", day)}
	}
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return "", err
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	monthly := func(ctx context.Context) {
		if s.now().In(s.loc).Day() != day {
			return
		}
		fn(ctx)
	}
	return s.add(KindMonthly, spec, monthly, id)
}

func (s *Scheduler) add(kind Kind, spec string, fn JobFunc, id string) (string, error) {
	if fn == nil {
		return "", &serrors.SchedulerError{Msg: "job function is required"}
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return "", &serrors.SchedulerError{Msg: fmt.Sprintf("failed to schedule %s job", kind), Err: err}
	}
	if id == "" {
		id = fmt.Sprintf("%s-%s", kind, uuid.NewString())
	}

	j := &job{id: id, kind: kind, spec: spec, schedule: schedule, fn: fn}
	err = s.do(func(st *state) {
		if _, ok := st.jobs[id]; ok {
			s.logger.Warn("Replacing scheduled job", "job_id", id)
		}
		j.next = schedule.Next(s.now().In(s.loc))
		st.jobs[id] = j
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("Scheduled job", "job_id", id, "kind", kind, "cron", spec, "next_run", j.next)
	return id, nil
}

// CancelJob removes a job and reports whether it existed.
func (s *Scheduler) CancelJob(id string) bool {
	var found bool
	err := s.do(func(st *state) {
		if _, found = st.jobs[id]; found {
			delete(st.jobs, id)
		}
	})
	if err != nil || !found {
		s.logger.Warn("Job not found", "job_id", id)
		return false
	}
	s.logger.Info("Cancelled job", "job_id", id)
	return true
}

// Jobs returns a snapshot of the scheduled jobs.
func (s *Scheduler) Jobs() map[string]JobInfo {
	out := make(map[string]JobInfo)
	_ = s.do(func(st *state) {
		for id, j := range st.jobs {
			out[id] = JobInfo{Kind: j.kind, Spec: j.spec, NextRun: j.next}
		}
	})
	return out
}

func parseTimeOfDay(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, &serrors.SchedulerError{Msg: fmt.Sprintf("invalid time of day %q, expected HH:MM", v), Err: err}
	}
	return t.Hour(), t.Minute(), nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(day string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return 0, &serrors.SchedulerError{Msg: fmt.Sprintf("invalid weekday %q", day)}
	}
	return d, nil
}
