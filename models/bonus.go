package models

import (
	"time"
)

// EventBoost is the read-only signal from the promotional event subsystem.
// Multiplier is always >= 1 and FlatBonus >= 0; EventID is nil when no event
// is running.
type EventBoost struct {
	Multiplier float64
	FlatBonus  int64
	EventID    *int64
}

// NeutralBoost is the boost applied when no promotional event is active
func NeutralBoost() EventBoost {
	return EventBoost{Multiplier: 1}
}

// DailyClaimResult is the outcome of a daily bonus claim. AlreadyClaimed is
// a status, not an error: the second claim of a calendar day reports it with
// the balance untouched.
type DailyClaimResult struct {
	Claimed        bool
	AlreadyClaimed bool
	Streak         int
	BaseAmount     int64
	Amount         int64
	NewBalance     int64
	NextResetAt    time.Time
}

// SpinResult is the outcome of a lucky spin. AlreadySpun mirrors the daily
// claim's status: the second spin of a calendar day is reported, not failed.
type SpinResult struct {
	Spun        bool
	AlreadySpun bool
	BaseAmount  int64
	Amount      int64
	NewBalance  int64
	NextResetAt time.Time
}
