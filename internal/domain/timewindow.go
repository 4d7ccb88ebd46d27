package domain

import (
	"errors"
	"time"
)

// Minimum interval between "now" and a same-day reservation's time.
const SameDayLeadTime = 3 * time.Hour

var (
	ErrDateInPast     = errors.New("reservation date cannot be in the past")
	ErrInsideLeadTime = errors.New("same-day reservations must be at least 3 hours in advance")
)

// ValidateTimeWindow checks a candidate reservation date and time of day
// against now. Only the calendar date of date and the clock of timeOfDay are
// consulted; values are compared as wall clocks, without timezone conversion.
// A same-day time of exactly now+3h is allowed.
func ValidateTimeWindow(date, timeOfDay, now time.Time) error {
	dy, dm, dd := date.Date()
	ny, nm, nd := now.Date()

	candidate := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	if candidate.Before(today) {
		return ErrDateInPast
	}
	if !candidate.Equal(today) {
		return nil
	}

	// Cutoff is not wrapped at midnight: after 21:00 every remaining
	// same-day slot is inside the lead time.
	cutoff := secondOfDay(now) + int(SameDayLeadTime/time.Second)
	if secondOfDay(timeOfDay) < cutoff {
		return ErrInsideLeadTime
	}
	return nil
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
