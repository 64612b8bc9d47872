package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// isoDuration matches the day/time subset of ISO 8601 durations. Years and
// months have no fixed length and are not accepted.
var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// addDuration sums two non-negative durations, failing on overflow.
func addDuration(a, b time.Duration) (time.Duration, error) {
	if b > math.MaxInt64-a {
		return 0, ErrInvalidFrequency
	}
	return a + b, nil
}

// ParseFrequency converts an ISO 8601 duration such as "PT1H30M" to a
// time.Duration.
func ParseFrequency(freq string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(freq)
	if m == nil || freq == "P" || freq == "PT" || freq[len(freq)-1] == 'T' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}

	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || n > math.MaxInt64/int64(unit) {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidFrequency, freq)
		}
		if d, err = addDuration(d, time.Duration(n)*unit); err != nil {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidFrequency, freq)
		}
	}
	if m[4] != "" {
		secs, err := strconv.ParseFloat(m[4], 64)
		// float64(math.MaxInt64) rounds up to 2^63, so any product below it converts safely.
		if err != nil || secs*float64(time.Second) >= float64(math.MaxInt64) {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidFrequency, freq)
		}
		if d, err = addDuration(d, time.Duration(secs*float64(time.Second))); err != nil {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidFrequency, freq)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidFrequency, freq)
	}
	return d, nil
}

// cronSpec returns the robfig/cron spec for a schedule. A cron expression
// wins over a frequency.
func cronSpec(cronExpr, freq string) (string, error) {
	if cronExpr != "" {
		return cronExpr, nil
	}
	if freq == "" {
		return "", fmt.Errorf("%w: neither cron nor frequency set", ErrInvalidSchedule)
	}
	d, err := ParseFrequency(freq)
	if err != nil {
		return "", err
	}
	return "@every " + d.String(), nil
}
