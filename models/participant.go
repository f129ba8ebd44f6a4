package models

import (
	"time"
)

// Participant links a user to a game session. BuyIn accumulates across
// rebuys; CashOut and NetResult are written exactly once, either by an early
// cash-out or when the session closes.
type Participant struct {
	ID               int64      `db:"id"`
	UserID           int64      `db:"user_id"`
	GameSessionID    int64      `db:"game_session_id"`
	BuyIn            int64      `db:"buy_in"`
	CashOut          int64      `db:"cash_out"`
	NetResult        int64      `db:"net_result"`
	CashedOutAt      *time.Time `db:"cashed_out_at"`
	LeaveRequestedAt *time.Time `db:"leave_requested_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

// IsCashedOut reports whether the participant has already been settled
func (p *Participant) IsCashedOut() bool {
	return p.CashedOutAt != nil
}

// HasRequestedLeave reports whether the participant has signalled they want
// to be cashed out by the host
func (p *Participant) HasRequestedLeave() bool {
	return p.LeaveRequestedAt != nil
}
