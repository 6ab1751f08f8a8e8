package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ScheduleRepository struct {
	db          *sqlx.DB
	logger      *zap.Logger
	redis       *redis.Client
	redisPrefix string
}

func NewScheduleRepository(db *sqlx.DB, logger *zap.Logger, redis *redis.Client, prefix string) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger, redis: redis, redisPrefix: prefix}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	query := `
		INSERT INTO schedules (id, name, description, expression, timezone, webhook_url, metadata, tags, status, hmac_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	now := time.Now()
	schedule.ID = uuid.New()
	schedule.CreatedAt = now
	if schedule.UpdatedAt == nil {
		schedule.UpdatedAt = timePtr(now)
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusActive
	}
	if schedule.Timezone == "" {
		schedule.Timezone = "UTC"
	}

	err := r.db.QueryRowContext(ctx, query,
		schedule.ID,
		schedule.Name,
		schedule.Description,
		schedule.Expression,
		schedule.Timezone,
		schedule.WebhookURL,
		schedule.Metadata,
		schedule.Tags,
		schedule.Status,
		schedule.HMACSecret,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	).Scan(&schedule.ID)

	if err != nil {
		return fmt.Errorf("error creating schedule: %w", err)
	}

	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	query := `
		SELECT id, name, description, expression, timezone, webhook_url, metadata, tags, status, hmac_secret, created_at, updated_at
		FROM schedules
		WHERE id = $1`

	var schedule models.Schedule
	err := r.db.GetContext(ctx, &schedule, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting schedule: %w", err)
	}
	return &schedule, nil
}

func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]*models.Schedule, error) {
	query := `
		SELECT id, name, description, expression, timezone, webhook_url, metadata, tags, status, hmac_secret, created_at, updated_at
		FROM schedules
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
		argCount++
	}

	if len(filter.Tags) > 0 {
		query += fmt.Sprintf(" AND tags && $%d", argCount)
		args = append(args, pq.Array(filter.Tags))
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var schedules []*models.Schedule
	err := r.db.SelectContext(ctx, &schedules, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing schedules: %w", err)
	}

	return schedules, nil
}

func (r *ScheduleRepository) ListActive(ctx context.Context) ([]*models.Schedule, error) {
	query := `
		SELECT id, name, description, expression, timezone, webhook_url, metadata, tags, status, hmac_secret, created_at, updated_at
		FROM schedules
		WHERE status = $1
		ORDER BY created_at DESC`

	var schedules []*models.Schedule
	err := r.db.SelectContext(ctx, &schedules, query, models.ScheduleStatusActive)
	if err != nil {
		return nil, fmt.Errorf("error listing active schedules: %w", err)
	}

	return schedules, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	query := `
		UPDATE schedules
		SET name = $1, description = $2, expression = $3, timezone = $4, webhook_url = $5, metadata = $6, tags = $7, status = $8, hmac_secret = $9, updated_at = $10
		WHERE id = $11`

	schedule.UpdatedAt = timePtr(time.Now())

	result, err := r.db.ExecContext(ctx, query,
		schedule.Name,
		schedule.Description,
		schedule.Expression,
		schedule.Timezone,
		schedule.WebhookURL,
		schedule.Metadata,
		schedule.Tags,
		schedule.Status,
		schedule.HMACSecret,
		schedule.UpdatedAt,
		schedule.ID,
	)

	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrScheduleNotFound
	}

	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM schedules WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting schedule: %w", err)
	}

	if err := r.RemoveReplayItems(ctx, id); err != nil {
		r.logger.Warn("Failed to remove replay items from Redis", zap.String("schedule_id", id.String()), zap.Error(err))
	}

	return nil
}

// RemoveReplayItems clears every queued replay entry belonging to the
// schedule from the Redis sorted set and its data hash.
func (r *ScheduleRepository) RemoveReplayItems(ctx context.Context, scheduleID uuid.UUID) error {
	members, err := r.redis.ZRange(ctx, r.redisPrefix+"replay", 0, -1).Result()
	if err != nil {
		return err
	}
	prefix := scheduleID.String() + ":"
	for _, member := range members {
		if len(member) < len(prefix) || member[:len(prefix)] != prefix {
			continue
		}
		r.redis.ZRem(ctx, r.redisPrefix+"replay", member)
		r.redis.HDel(ctx, r.redisPrefix+"replay:data", member)
	}
	return nil
}

// DeleteOldSchedules removes schedules untouched since the cutoff that
// have no undelivered occurrences newer than the cutoff.
func (r *ScheduleRepository) DeleteOldSchedules(ctx context.Context, cutoff time.Time) error {
	query := `
		DELETE FROM schedules
		WHERE updated_at < $1
		AND id NOT IN (
			SELECT schedule_id
			FROM occurrences
			WHERE scheduled_at >= $1
			AND status != $2
		)
	`
	_, err := r.db.ExecContext(ctx, query, cutoff, models.OccurrenceStatusDelivered)
	return err
}
