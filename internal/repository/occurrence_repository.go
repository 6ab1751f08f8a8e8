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
)

type OccurrenceRepository struct {
	db *sqlx.DB
}

func NewOccurrenceRepository(db *sqlx.DB) *OccurrenceRepository {
	return &OccurrenceRepository{db: db}
}

func (r *OccurrenceRepository) Create(ctx context.Context, occurrence *models.Occurrence) error {
	query := `
		INSERT INTO occurrences (occurrence_id, schedule_id, scheduled_at, status, attempt_count, status_code, response_body, error_message, recorded_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, recorded_at`

	if occurrence.OccurrenceID == uuid.Nil {
		occurrence.OccurrenceID = uuid.New()
	}
	if occurrence.RecordedAt.IsZero() {
		occurrence.RecordedAt = time.Now()
	}
	if occurrence.Status == "" {
		occurrence.Status = models.OccurrenceStatusRecorded
	}

	err := r.db.QueryRowContext(ctx, query,
		occurrence.OccurrenceID,
		occurrence.ScheduleID,
		occurrence.ScheduledAt,
		occurrence.Status,
		occurrence.AttemptCount,
		occurrence.StatusCode,
		occurrence.ResponseBody,
		occurrence.ErrorMessage,
		occurrence.RecordedAt,
		occurrence.CompletedAt,
	).Scan(&occurrence.ID, &occurrence.RecordedAt)

	if err != nil {
		return fmt.Errorf("error creating occurrence: %w", err)
	}

	return nil
}

func (r *OccurrenceRepository) GetByOccurrenceID(ctx context.Context, id uuid.UUID) (*models.Occurrence, error) {
	var occurrence models.Occurrence
	query := `
		SELECT id, occurrence_id, schedule_id, scheduled_at, status, attempt_count, status_code, response_body, error_message, recorded_at, completed_at
		FROM occurrences
		WHERE occurrence_id = $1`
	err := r.db.GetContext(ctx, &occurrence, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting occurrence: %w", err)
	}
	return &occurrence, nil
}

// Exists reports whether a run of the schedule at the given instant has
// already been recorded. The auditor uses it to keep sweeps idempotent.
func (r *OccurrenceRepository) Exists(ctx context.Context, scheduleID uuid.UUID, scheduledAt time.Time) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM occurrences WHERE schedule_id = $1 AND scheduled_at = $2`
	if err := r.db.GetContext(ctx, &count, query, scheduleID, scheduledAt); err != nil {
		return false, fmt.Errorf("error checking occurrence existence: %w", err)
	}
	return count > 0, nil
}

// LatestScheduledAt returns the most recent recorded run time for the
// schedule, or a zero time when none exists.
func (r *OccurrenceRepository) LatestScheduledAt(ctx context.Context, scheduleID uuid.UUID) (time.Time, error) {
	var latest time.Time
	query := `SELECT scheduled_at FROM occurrences WHERE schedule_id = $1 ORDER BY scheduled_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &latest, query, scheduleID)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting latest occurrence: %w", err)
	}
	return latest, nil
}

func (r *OccurrenceRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, page, limit int) ([]models.Occurrence, int, error) {
	var total int
	countQuery := `SELECT COUNT(1) FROM occurrences WHERE schedule_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, scheduleID); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, occurrence_id, schedule_id, scheduled_at, status, attempt_count, status_code, response_body, error_message, recorded_at, completed_at
		FROM occurrences
		WHERE schedule_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3`

	offset := (page - 1) * limit
	var occurrences []models.Occurrence
	if err := r.db.SelectContext(ctx, &occurrences, query, scheduleID, limit, offset); err != nil {
		return nil, 0, err
	}

	return occurrences, total, nil
}

func (r *OccurrenceRepository) ListByTags(ctx context.Context, filter models.OccurrenceFilter) ([]models.Occurrence, int, error) {
	var total int

	countQuery := `
		SELECT COUNT(DISTINCT o.id) FROM occurrences o
		JOIN schedules s ON o.schedule_id = s.id
		WHERE s.tags @> $1 AND s.status != 'deleted'`

	err := r.db.GetContext(ctx, &total, countQuery, pq.Array(filter.Tags))
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT DISTINCT o.id, o.occurrence_id, o.schedule_id, o.scheduled_at, o.status, o.attempt_count, o.status_code, o.response_body, o.error_message, o.recorded_at, o.completed_at
		FROM occurrences o
		JOIN schedules s ON o.schedule_id = s.id
		WHERE s.tags @> $1 AND s.status != 'deleted'
		ORDER BY o.scheduled_at DESC
		LIMIT $2 OFFSET $3`

	offset := (filter.Page - 1) * filter.Limit
	var occurrences []models.Occurrence
	err = r.db.SelectContext(ctx, &occurrences, query, pq.Array(filter.Tags), filter.Limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return occurrences, total, nil
}

func (r *OccurrenceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OccurrenceStatus) error {
	query := `
		UPDATE occurrences SET
			status = $1,
			attempt_count = attempt_count + 1
		WHERE occurrence_id = $2`

	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

// RecordDelivery stores the webhook response for an attempt and marks
// the occurrence delivered or failed.
func (r *OccurrenceRepository) RecordDelivery(ctx context.Context, id uuid.UUID, status models.OccurrenceStatus, statusCode int, responseBody, errorMessage string) error {
	query := `
		UPDATE occurrences SET
			status = $1,
			status_code = $2,
			response_body = $3,
			error_message = $4,
			attempt_count = attempt_count + 1,
			completed_at = $5
		WHERE occurrence_id = $6`

	_, err := r.db.ExecContext(ctx, query, status, statusCode, responseBody, errorMessage, time.Now(), id)
	return err
}

// DeleteOldOccurrences drops delivered and failed occurrences older
// than the cutoff.
func (r *OccurrenceRepository) DeleteOldOccurrences(ctx context.Context, cutoff time.Time) error {
	query := `
		DELETE FROM occurrences
		WHERE scheduled_at < $1
		AND status IN ($2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, cutoff, models.OccurrenceStatusDelivered, models.OccurrenceStatusFailed)
	return err
}
