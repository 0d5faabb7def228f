// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger removes stored files created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	purger    Purger
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. Files older than retention are
// purged by the daily job.
func NewScheduler(purger Purger, retention time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		purger:    purger,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Upload and export retention: runs daily at 3:00 AM
	_, err := s.cron.AddFunc("0 3 * * *", s.purgeExpiredFiles)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the retention purge.
func (s *Scheduler) RunNow() {
	go s.purgeExpiredFiles()
}

func (s *Scheduler) purgeExpiredFiles() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.purge(ctx); err != nil {
		s.logger.Error("failed to purge expired files", slog.Any("error", err))
	}
}

func (s *Scheduler) purge(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.retention)
	s.logger.Info("starting file retention purge", slog.Time("cutoff", cutoff))

	removed, err := s.purger.Purge(ctx, cutoff)
	if err != nil {
		return removed, err
	}

	s.logger.Info("file retention purge completed", slog.Int("files_removed", removed))
	return removed, nil
}
