// Package jobs runs the periodic maintenance tasks of the service.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Tasks is the work the scheduler drives. The engine implements it.
type Tasks interface {
	// PruneBackups keeps the keep most recent backups per learner.
	PruneBackups(ctx context.Context, keep int) error
	// NotifyDueReviews publishes a reminder for every learner with due
	// reviews and returns how many were sent.
	NotifyDueReviews(ctx context.Context) (int, error)
	// WarmLeaderboard refreshes the leaderboard cache from the store.
	WarmLeaderboard(ctx context.Context) error
}

// Options configures the job intervals.
type Options struct {
	BackupKeep      int
	PruneInterval   time.Duration
	ReviewScanEvery time.Duration
	WarmInterval    time.Duration
	Timeout         time.Duration // per run
}

// Scheduler manages scheduled tasks for the service.
type Scheduler struct {
	scheduler *gocron.Scheduler
	tasks     Tasks
	opts      Options
	log       *slog.Logger
}

// New creates a scheduler. Zero intervals disable the matching job.
func New(tasks Tasks, opts Options, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	s := gocron.NewScheduler(time.UTC)
	// A slow run must not overlap the next one.
	s.SingletonModeAll()
	return &Scheduler{scheduler: s, tasks: tasks, opts: opts, log: log}
}

// Register adds the configured jobs without starting them.
func (s *Scheduler) Register() error {
	jobs := []struct {
		name  string
		every time.Duration
		fn    func()
	}{
		{"prune_backups", s.opts.PruneInterval, s.PruneOnce},
		{"due_reviews", s.opts.ReviewScanEvery, s.NotifyOnce},
		{"warm_leaderboard", s.opts.WarmInterval, s.WarmOnce},
	}
	for _, j := range jobs {
		if j.every <= 0 {
			continue
		}
		if _, err := s.scheduler.Every(j.every).Tag(j.name).Do(j.fn); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	return nil
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if err := s.Register(); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// JobCount returns the number of registered jobs.
func (s *Scheduler) JobCount() int {
	return len(s.scheduler.Jobs())
}

func (s *Scheduler) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opts.Timeout)
}

// PruneOnce prunes backups once.
func (s *Scheduler) PruneOnce() {
	ctx, cancel := s.context()
	defer cancel()
	if err := s.tasks.PruneBackups(ctx, s.opts.BackupKeep); err != nil {
		s.log.Error("prune backups failed", "err", err)
		return
	}
	s.log.Debug("pruned backups", "keep", s.opts.BackupKeep)
}

// NotifyOnce scans for due reviews once.
func (s *Scheduler) NotifyOnce() {
	ctx, cancel := s.context()
	defer cancel()
	n, err := s.tasks.NotifyDueReviews(ctx)
	if err != nil {
		s.log.Error("due review scan failed", "err", err)
		return
	}
	if n > 0 {
		s.log.Info("sent due review reminders", "learners", n)
	}
}

// WarmOnce refreshes the leaderboard cache once.
func (s *Scheduler) WarmOnce() {
	ctx, cancel := s.context()
	defer cancel()
	if err := s.tasks.WarmLeaderboard(ctx); err != nil {
		s.log.Warn("leaderboard warm failed", "err", err)
	}
}
