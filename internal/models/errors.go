package models

import "errors"

var (
	ErrScheduleNotFound   = errors.New("schedule not found")
	ErrOccurrenceNotFound = errors.New("occurrence not found")
)
