package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers probe runs on the configured cron schedule.
// Overlapping runs are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	prober *Prober
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler parses the schedule and timezone of cfg and registers the probe job.
func NewScheduler(cfg Config, prober *Prober, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		prober: prober,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cronParser),
		cron.WithChain(
			cron.Recover(cronLogger{logger}),
			cron.SkipIfStillRunning(cronLogger{logger}),
		),
	)
	if _, err := s.cron.AddFunc(cfg.CronSchedule, s.runOnce); err != nil {
		cancel()
		return nil, fmt.Errorf("add probe job %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	s.prober.Run(s.ctx)
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Next returns the time of the next scheduled run, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop cancels a running probe and waits for it to return, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
