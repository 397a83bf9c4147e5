package schedule

import (
	"fmt"
	"time"
)

// DelayFromMinutes converts a minute count into a delay and the absolute
// fire time.
func DelayFromMinutes(minutes int) (time.Duration, time.Time, error) {
	return delayFromMinutesAt(time.Now(), minutes)
}

func delayFromMinutesAt(now time.Time, minutes int) (time.Duration, time.Time, error) {
	if minutes <= 0 {
		return 0, time.Time{}, fmt.Errorf("minutes must be positive, got %d", minutes)
	}
	d := time.Duration(minutes) * time.Minute
	return d, now.Add(d), nil
}

// DelayUntilClock computes the delay until the next occurrence of a local
// "HH:MM" clock time. A time already past today rolls over to tomorrow.
func DelayUntilClock(clock string) (time.Duration, time.Time, error) {
	return delayUntilClockAt(time.Now(), clock)
}

func delayUntilClockAt(now time.Time, clock string) (time.Duration, time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return 0, time.Time{}, err
	}

	fire := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !fire.After(now) {
		fire = fire.AddDate(0, 0, 1)
	}
	return fire.Sub(now), fire, nil
}

// DelayUntilDate computes the delay until "HH:MM" on a specific calendar
// date. The date must be valid and the moment must be in the future.
func DelayUntilDate(year, month, day int, clock string) (time.Duration, time.Time, error) {
	return delayUntilDateAt(time.Now(), year, month, day, clock)
}

func delayUntilDateAt(now time.Time, year, month, day int, clock string) (time.Duration, time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return 0, time.Time{}, err
	}
	if month < 1 || month > 12 {
		return 0, time.Time{}, fmt.Errorf("month must be 1-12, got %d", month)
	}

	fire := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2); reject
	// anything that did not round-trip.
	if fire.Year() != year || fire.Month() != time.Month(month) || fire.Day() != day {
		return 0, time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	if !fire.After(now) {
		return 0, time.Time{}, fmt.Errorf("scheduled time %s is in the past", fire.Format(time.RFC3339))
	}
	return fire.Sub(now), fire, nil
}

func parseClock(clock string) (hour, minute int, err error) {
	if _, perr := fmt.Sscanf(clock, "%d:%d", &hour, &minute); perr != nil {
		return 0, 0, fmt.Errorf("time must be in HH:MM format, got %q", clock)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", clock)
	}
	return hour, minute, nil
}
