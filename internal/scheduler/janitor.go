package scheduler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leonixyz/oncalendar/internal/config"
	"github.com/leonixyz/oncalendar/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Advisory lock key shared by all instances running retention.
	retentionLockKey = 52331
	lastCleanupKey   = "janitor:last_cleanup_time"
)

// Janitor enforces retention: on each cycle it removes delivered and
// failed occurrences past the occurrence retention window, and
// schedules idle past the schedule retention window. A Postgres
// advisory lock plus a Redis last-run marker keep concurrent instances
// from duplicating work.
type Janitor struct {
	db             *sqlx.DB
	redis          *redis.Client
	scheduleRepo   *repository.ScheduleRepository
	occurrenceRepo *repository.OccurrenceRepository
	durations      config.RetentionDurations
	logger         *zap.Logger
}

func NewJanitor(
	db *sqlx.DB,
	redis *redis.Client,
	scheduleRepo *repository.ScheduleRepository,
	occurrenceRepo *repository.OccurrenceRepository,
	durations config.RetentionDurations,
	logger *zap.Logger,
) *Janitor {
	return &Janitor{
		db:             db,
		redis:          redis,
		scheduleRepo:   scheduleRepo,
		occurrenceRepo: occurrenceRepo,
		durations:      durations,
		logger:         logger,
	}
}

func (j *Janitor) acquireLock() (bool, error) {
	var gotLock bool
	err := j.db.Get(&gotLock, "SELECT pg_try_advisory_lock($1)", retentionLockKey)
	return gotLock, err
}

func (j *Janitor) releaseLock() {
	if _, err := j.db.Exec("SELECT pg_advisory_unlock($1)", retentionLockKey); err != nil {
		j.logger.Error("[janitor] Error releasing advisory lock", zap.Error(err))
	}
}

func (j *Janitor) shouldRun(ctx context.Context) (bool, error) {
	val, err := j.redis.Get(ctx, lastCleanupKey).Result()
	if err == redis.Nil {
		return true, nil
	} else if err != nil {
		return false, err
	}
	next, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return true, nil
	}
	return !time.Now().Before(next), nil
}

func (j *Janitor) markRun(ctx context.Context) error {
	next := time.Now().Add(j.durations.CleanupInterval)
	return j.redis.Set(ctx, lastCleanupKey, next.Format(time.RFC3339), 0).Err()
}

// CleanupOnce runs one retention pass under the advisory lock.
func (j *Janitor) CleanupOnce(ctx context.Context) error {
	gotLock, err := j.acquireLock()
	if err != nil {
		return err
	}
	if !gotLock {
		j.logger.Debug("[janitor] Another instance holds the lock, skipping this cycle.")
		return nil
	}
	defer j.releaseLock()

	shouldRun, err := j.shouldRun(ctx)
	if err != nil {
		return err
	}
	if !shouldRun {
		j.logger.Debug("[janitor] Cleanup already ran within the period, skipping.")
		return nil
	}

	now := time.Now()
	if j.durations.Occurrences > 0 {
		if err := j.occurrenceRepo.DeleteOldOccurrences(ctx, now.Add(-j.durations.Occurrences)); err != nil {
			return err
		}
	}
	if j.durations.Schedules > 0 {
		if err := j.scheduleRepo.DeleteOldSchedules(ctx, now.Add(-j.durations.Schedules)); err != nil {
			return err
		}
	}

	if err := j.markRun(ctx); err != nil {
		j.logger.Error("[janitor] Error updating last cleanup time", zap.Error(err))
	}
	j.logger.Info("[janitor] Cleanup completed successfully.")
	return nil
}

// Run performs retention cleanup on the configured interval until the
// context is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.durations.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("[janitor] Stopping retention cleanup.")
			return ctx.Err()
		case <-ticker.C:
			if err := j.CleanupOnce(ctx); err != nil {
				j.logger.Error("[janitor] Error during cleanup", zap.Error(err))
			}
		}
	}
}
