package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
)

// ErrSweepInProgress is returned by RunOnce when another sweep holds the lock.
var ErrSweepInProgress = errors.New("recurring sweep already in progress")

// Sweeper materializes the recurring payments due on a date.
type Sweeper interface {
	ProcessDuePayments(ctx context.Context, today core.Date) (int, error)
}

// SchedulerConfig holds configuration for the daily sweep.
type SchedulerConfig struct {
	// RunAt is the local wall-clock time of the daily sweep, "HH:MM".
	RunAt string
	// Location is the zone RunAt and "today" are evaluated in (default UTC).
	Location *time.Location
	// RunOnStartup triggers one sweep as soon as the scheduler starts.
	RunOnStartup bool
}

// DefaultSchedulerConfig sweeps at 03:00 UTC.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{RunAt: "03:00", Location: time.UTC}
}

// Scheduler runs a Sweeper once a day. Sweeps never overlap: a trigger that
// arrives while one is running is skipped.
type Scheduler struct {
	sweeper      Sweeper
	hour, minute int
	loc          *time.Location
	runOnStartup bool
	now          func() time.Time
	after        func(time.Duration) <-chan time.Time

	sweepMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(sweeper Sweeper, cfg SchedulerConfig) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler needs a sweeper")
	}
	hour, minute, err := ParseRunAt(cfg.RunAt)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		sweeper:      sweeper,
		hour:         hour,
		minute:       minute,
		loc:          loc,
		runOnStartup: cfg.RunOnStartup,
		now:          time.Now,
		after:        time.After,
	}, nil
}

// ParseRunAt parses an "HH:MM" 24-hour time of day.
func ParseRunAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid run time %q, want HH:MM: %w", s, core.ErrInvalidArgument)
	}
	return t.Hour(), t.Minute(), nil
}

// NextRunAfter returns the first scheduled instant strictly after now.
func (s *Scheduler) NextRunAfter(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, s.minute, 0, 0, s.loc)
	}
	return next
}

// RunOnce performs one sweep for today in the scheduler's zone.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if !s.sweepMu.TryLock() {
		slog.WarnContext(ctx, "Skipping recurring sweep, previous run still active")
		return 0, ErrSweepInProgress
	}
	defer s.sweepMu.Unlock()

	today := core.DateOf(s.now().In(s.loc))
	start := time.Now()
	n, err := s.sweeper.ProcessDuePayments(ctx, today)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring sweep failed",
			"date", today.String(),
			"error", err)
		return n, err
	}
	slog.InfoContext(ctx, "Recurring sweep finished",
		"date", today.String(),
		"materialized", n,
		"duration", time.Since(start))
	return n, nil
}

// Start begins the scheduling loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring scheduler started",
		"run_at", fmt.Sprintf("%02d:%02d", s.hour, s.minute),
		"timezone", s.loc.String(),
		"run_on_startup", s.runOnStartup)
	return nil
}

// Stop signals the loop and waits for the current sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	if s.runOnStartup {
		_, _ = s.RunOnce(ctx)
	}

	for {
		next := s.NextRunAfter(s.now())
		slog.DebugContext(ctx, "Next recurring sweep scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(s.now())):
			_, _ = s.RunOnce(ctx)
		}
	}
}
