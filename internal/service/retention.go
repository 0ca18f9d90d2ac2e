package service

// retention.go deletes old reports in the background.
//
// The job runs once at start and then every CheckInterval until the context
// is cancelled. A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls report cleanup.
type RetentionConfig struct {
	Days          int           // Reports older than this are deleted; 0 disables cleanup
	CheckInterval time.Duration // How often to run (default: 24h)
}

// StartRetentionScheduler runs the cleanup job until ctx is cancelled.
// It blocks, so start it in its own goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.Days <= 0 {
		slog.Info("report retention disabled")
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}

	slog.Info("retention scheduler started",
		"retention_days", cfg.Days,
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg.Days)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg.Days)
		}
	}
}

// runRetentionJob deletes reports older than days and returns how many.
func (s *Service) runRetentionJob(ctx context.Context, days int) int64 {
	start := time.Now()
	cutoff := s.now().UTC().AddDate(0, 0, -days)

	deleted, err := s.store.DeleteReportsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention job failed", "error", err)
		return 0
	}

	slog.Info("retention job completed",
		"reports_deleted", deleted,
		"cutoff", cutoff,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted
}
