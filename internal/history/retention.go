package history

import (
	"context"
	"log/slog"
	"time"
)

// RetentionJobName labels the retention job in logs and metrics.
const RetentionJobName = "history_retention"

// Purger deletes runs older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobObserver receives the outcome of each job run. *metrics.Metrics satisfies it.
type JobObserver interface {
	ObserveJob(job string, err error)
}

// RetentionConfig configures the retention job.
type RetentionConfig struct {
	RetentionDays int           // Days to keep runs (default: 90)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// RetentionJob periodically purges old runs.
type RetentionJob struct {
	purger   Purger
	cfg      RetentionConfig
	logger   *slog.Logger
	observer JobObserver
	now      func() time.Time
}

// NewRetentionJob builds the job. observer may be nil.
func NewRetentionJob(purger Purger, cfg RetentionConfig, logger *slog.Logger, observer JobObserver) *RetentionJob {
	return &RetentionJob{
		purger:   purger,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// Start runs the job immediately, then every CheckInterval, until ctx is
// cancelled. A failing run is logged and does not stop the loop.
func (j *RetentionJob) Start(ctx context.Context) {
	j.logger.Info("history retention started",
		"retention_days", j.cfg.RetentionDays,
		"interval", j.cfg.CheckInterval,
	)

	j.RunOnce(ctx)

	ticker := time.NewTicker(j.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("history retention stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs one purge cycle and returns the number of deleted runs.
func (j *RetentionJob) RunOnce(ctx context.Context) int64 {
	start := time.Now()
	cutoff := j.now().AddDate(0, 0, -j.cfg.RetentionDays)

	purged, err := j.purger.Purge(ctx, cutoff)
	if j.observer != nil {
		j.observer.ObserveJob(RetentionJobName, err)
	}
	if err != nil {
		j.logger.Error("history purge failed", "error", err)
		return 0
	}

	j.logger.Info("history purge completed",
		"runs_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return purged
}
