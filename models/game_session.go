package models

import (
	"time"
)

// GameSession represents one poker night. A session is created open with the
// host auto-joined at a zero buy-in, and transitions open -> closed exactly
// once.
type GameSession struct {
	ID        int64     `db:"id"`
	HostID    int64     `db:"host_id"`
	JoinCode  string    `db:"join_code"`
	IsActive  bool      `db:"is_active"`
	Name      string    `db:"name"`
	Notes     string    `db:"notes"`
	Date      time.Time `db:"date"`
	CreatedAt time.Time `db:"created_at"`
}

// GameSettlement is the outcome of closing a session: every remaining active
// participant settled against the remaining pot.
type GameSettlement struct {
	Session      *GameSession
	Participants []*Participant
	TotalPot     int64
}

// CashOutResult summarizes a single participant settlement
type CashOutResult struct {
	Participant *Participant
	NewBalance  int64
}
