package rollover

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"psup-auth/internal/metrics"
)

// Runner executes rollover jobs under a lock, so a job never races with itself.
type Runner struct {
	engine *Engine
	locker Locker
	log    *zap.Logger
}

// NewRunner returns a Runner. A nil locker defaults to a process-local mutex.
func NewRunner(engine *Engine, locker Locker, log *zap.Logger) *Runner {
	if locker == nil {
		locker = &MutexLocker{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{engine: engine, locker: locker, log: log}
}

// Handle runs job. It returns ErrLocked without running when another rollover is in progress.
func (r *Runner) Handle(ctx context.Context, job Job) error {
	unlock, err := r.locker.TryLock(ctx)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			r.log.Warn("rollover skipped, another run holds the lock", zap.String("job_id", job.ID))
		}
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlock(releaseCtx); err != nil {
			r.log.Warn("rollover lock release failed", zap.Error(err))
		}
	}()

	r.log.Info("rollover started", zap.String("job_id", job.ID), zap.String("session", job.Session))
	start := time.Now()
	report, err := r.engine.Run(ctx, job.Session)
	metrics.RolloverDuration.Observe(time.Since(start).Seconds())
	if report != nil {
		metrics.RolloverUsers.WithLabelValues("renamed").Add(float64(report.Renamed))
		metrics.RolloverUsers.WithLabelValues("repaired").Add(float64(report.Repaired))
		metrics.RolloverUsers.WithLabelValues("skipped").Add(float64(report.Skipped))
		metrics.RolloverUsers.WithLabelValues("failed").Add(float64(len(report.Failed)))
	}
	if err != nil {
		r.log.Error("rollover finished with failures, re-run after fixing them",
			zap.String("job_id", job.ID), zap.Error(err))
	}
	return err
}
