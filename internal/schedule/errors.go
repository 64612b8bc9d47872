package schedule

import "errors"

var (
	// ErrInvalidSchedule is returned when a schedule has neither a usable cron
	// expression nor a usable frequency.
	ErrInvalidSchedule = errors.New("schedule: invalid schedule")

	// ErrInvalidFrequency is returned for a frequency that is not an ISO 8601
	// day/time duration.
	ErrInvalidFrequency = errors.New("schedule: invalid frequency")
)
