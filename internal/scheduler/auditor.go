package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/oncalendar"
	"go.uber.org/zap"
)

// ScheduleLister is the slice of the schedule repository the auditor
// needs; the concrete repository satisfies it, tests use fakes.
type ScheduleLister interface {
	ListActive(ctx context.Context) ([]*models.Schedule, error)
}

// OccurrenceStore records audited runs and answers idempotency checks.
type OccurrenceStore interface {
	Create(ctx context.Context, occurrence *models.Occurrence) error
	Exists(ctx context.Context, scheduleID uuid.UUID, scheduledAt time.Time) (bool, error)
}

// ReplayQueue receives the occurrences the auditor records.
type ReplayQueue interface {
	Enqueue(ctx context.Context, item *models.ReplayItem) error
}

// Auditor sweeps every active schedule backward from the current
// instant, recording runs that should already have happened. Each sweep
// walks at most lookbackCount occurrences per schedule and never past
// the lookback horizon.
type Auditor struct {
	schedules       ScheduleLister
	occurrences     OccurrenceStore
	queue           ReplayQueue
	scanInterval    time.Duration
	lookbackCount   int
	lookbackHorizon time.Duration
	defaultLocation *time.Location
	logger          *zap.Logger

	now func() time.Time
}

func NewAuditor(
	schedules ScheduleLister,
	occurrences OccurrenceStore,
	queue ReplayQueue,
	scanInterval time.Duration,
	lookbackCount int,
	lookbackHorizon time.Duration,
	defaultLocation *time.Location,
	logger *zap.Logger,
) *Auditor {
	if defaultLocation == nil {
		defaultLocation = time.UTC
	}
	return &Auditor{
		schedules:       schedules,
		occurrences:     occurrences,
		queue:           queue,
		scanInterval:    scanInterval,
		lookbackCount:   lookbackCount,
		lookbackHorizon: lookbackHorizon,
		defaultLocation: defaultLocation,
		logger:          logger,
		now:             time.Now,
	}
}

// Sweep audits every active schedule once. It keeps going past
// per-schedule failures and returns the number of newly recorded
// occurrences.
func (a *Auditor) Sweep(ctx context.Context) (int, error) {
	schedules, err := a.schedules.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active schedules: %w", err)
	}

	total := 0
	for _, schedule := range schedules {
		n, err := a.auditSchedule(ctx, schedule)
		if err != nil {
			a.logger.Error("Error auditing schedule",
				zap.String("schedule_id", schedule.ID.String()),
				zap.String("expression", schedule.Expression),
				zap.Error(err))
			continue
		}
		total += n
	}

	if total > 0 {
		a.logger.Info("Sweep recorded missed runs", zap.Int("count", total))
	}
	return total, nil
}

func (a *Auditor) auditSchedule(ctx context.Context, schedule *models.Schedule) (int, error) {
	loc := a.defaultLocation
	if schedule.Timezone != "" {
		l, err := time.LoadLocation(schedule.Timezone)
		if err != nil {
			return 0, fmt.Errorf("invalid timezone %q: %w", schedule.Timezone, err)
		}
		loc = l
	}

	now := a.now().In(loc)
	it, err := oncalendar.New(schedule.Expression, now)
	if err != nil {
		return 0, fmt.Errorf("invalid expression %q: %w", schedule.Expression, err)
	}

	var horizon time.Time
	if a.lookbackHorizon > 0 {
		horizon = now.Add(-a.lookbackHorizon)
	}

	recorded := 0
	for i := 0; i < a.lookbackCount; i++ {
		t, ok := it.Next()
		if !ok {
			break
		}
		if !horizon.IsZero() && t.Before(horizon) {
			break
		}

		exists, err := a.occurrences.Exists(ctx, schedule.ID, t)
		if err != nil {
			return recorded, err
		}
		if exists {
			// Everything older was covered by a previous sweep.
			break
		}

		occurrence := &models.Occurrence{
			OccurrenceID: uuid.New(),
			ScheduleID:   schedule.ID,
			ScheduledAt:  t,
			Status:       models.OccurrenceStatusRecorded,
			RecordedAt:   a.now(),
		}
		if err := a.occurrences.Create(ctx, occurrence); err != nil {
			return recorded, fmt.Errorf("failed to record occurrence: %w", err)
		}

		item := &models.ReplayItem{
			Occurrence:  *occurrence,
			Name:        schedule.Name,
			Description: schedule.Description,
			WebhookURL:  schedule.WebhookURL,
			Metadata:    schedule.Metadata,
			Tags:        schedule.Tags,
		}
		if schedule.HMACSecret != nil {
			item.HMACSecret = *schedule.HMACSecret
		}
		if err := a.queue.Enqueue(ctx, item); err != nil {
			return recorded, fmt.Errorf("failed to enqueue replay item: %w", err)
		}
		recorded++
	}

	return recorded, nil
}

// Run sweeps on the configured interval until the context is canceled.
func (a *Auditor) Run(ctx context.Context) error {
	a.logger.Info("Starting auditor",
		zap.Duration("scan_interval", a.scanInterval),
		zap.Int("lookback_count", a.lookbackCount),
		zap.Duration("lookback_horizon", a.lookbackHorizon))

	ticker := time.NewTicker(a.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Auditor shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.Sweep(ctx); err != nil {
				a.logger.Error("Error during sweep", zap.Error(err))
			}
		}
	}
}
