package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type ScheduleStatus string

const (
	ScheduleStatusActive  ScheduleStatus = "active"
	ScheduleStatusPaused  ScheduleStatus = "paused"
	ScheduleStatusDeleted ScheduleStatus = "deleted"
)

// Schedule is a recurring schedule under audit: an OnCalendar
// expression plus delivery configuration. The auditor walks each
// active schedule backward from now and records the runs that should
// already have happened.
type Schedule struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Expression  string         `json:"expression" db:"expression"`
	Timezone    string         `json:"timezone" db:"timezone"`
	WebhookURL  string         `json:"webhook_url" db:"webhook_url"`
	Metadata    datatypes.JSON `json:"metadata" db:"metadata"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Status      ScheduleStatus `json:"status" db:"status"`
	HMACSecret  *string        `json:"hmac_secret,omitempty" db:"hmac_secret"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty" db:"updated_at"`
}

type CreateScheduleRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Expression  string         `json:"expression" binding:"required"`
	Timezone    string         `json:"timezone"`
	WebhookURL  string         `json:"webhook_url"`
	Metadata    datatypes.JSON `json:"metadata"`
	Tags        []string       `json:"tags"`
	HMACSecret  *string        `json:"hmac_secret,omitempty"`
}

type UpdateScheduleRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Expression  *string        `json:"expression,omitempty"`
	Timezone    *string        `json:"timezone,omitempty"`
	WebhookURL  *string        `json:"webhook_url,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Status      *string        `json:"status,omitempty"`
	HMACSecret  *string        `json:"hmac_secret,omitempty"`
}

type ScheduleFilter struct {
	Tags   []string
	Status ScheduleStatus
}
