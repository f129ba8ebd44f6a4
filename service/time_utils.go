package service

import (
	"time"
)

// All bonus windows run on UTC calendar days, whatever timezone the caller
// or the database server sits in.

// utcDate truncates a time to its UTC calendar day
func utcDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole UTC calendar days from a to b
func daysBetween(a, b time.Time) int {
	return int(utcDate(b).Sub(utcDate(a)) / (24 * time.Hour))
}

// NextDailyReset returns the next UTC midnight, when the daily claim and the
// lucky spin become available again
func NextDailyReset(now time.Time) time.Time {
	return utcDate(now).AddDate(0, 0, 1)
}
