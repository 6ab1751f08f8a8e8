package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Schedule → Occurrence flow:
// - Schedule: user-defined configuration (an OnCalendar expression plus
//   delivery settings), stored in the database.
// - Occurrence: one run time the auditor found while walking the
//   schedule backward from now. It is recorded first, replayed through
//   Redis, and finally marked delivered or failed by the notifier.

type OccurrenceStatus string

const (
	OccurrenceStatusRecorded   OccurrenceStatus = "recorded"
	OccurrenceStatusQueued     OccurrenceStatus = "queued"
	OccurrenceStatusDispatched OccurrenceStatus = "dispatched"
	OccurrenceStatusDelivered  OccurrenceStatus = "delivered"
	OccurrenceStatusFailed     OccurrenceStatus = "failed"
)

type Occurrence struct {
	ID           int              `json:"id" db:"id"`
	OccurrenceID uuid.UUID        `json:"occurrence_id" db:"occurrence_id"`
	ScheduleID   uuid.UUID        `json:"schedule_id" db:"schedule_id"`
	ScheduledAt  time.Time        `json:"scheduled_at" db:"scheduled_at"`
	Status       OccurrenceStatus `json:"status" db:"status"`
	AttemptCount int              `json:"attempt_count" db:"attempt_count"`
	StatusCode   int              `json:"status_code" db:"status_code"`
	ResponseBody string           `json:"response_body" db:"response_body"`
	ErrorMessage string           `json:"error_message" db:"error_message"`
	RecordedAt   time.Time        `json:"recorded_at" db:"recorded_at"`
	CompletedAt  time.Time        `json:"completed_at" db:"completed_at"`
}

type OccurrenceFilter struct {
	Tags  []string
	Page  int
	Limit int
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"pagination"`
}

// ReplayItem is the payload stored in the Redis replay queue: the
// occurrence plus the schedule fields the notifier needs to deliver it.
type ReplayItem struct {
	Occurrence
	Name        string         `json:"name"`
	Description string         `json:"description"`
	WebhookURL  string         `json:"webhook_url"`
	Metadata    datatypes.JSON `json:"metadata"`
	Tags        pq.StringArray `json:"tags"`
	HMACSecret  string         `json:"hmac_secret,omitempty"`
}
