package models

import (
	"time"
)

// Account represents a user's chip balance plus the bonus bookkeeping that
// gates the periodic grants. Balance only moves through the locked
// debit/credit primitives in the account repository.
type Account struct {
	UserID             int64      `db:"user_id"`
	Balance            int64      `db:"balance"`
	LoginStreak        int        `db:"login_streak"`
	LastWeeklyCreditAt time.Time  `db:"last_weekly_credit_at"`
	LastLoginDate      *time.Time `db:"last_login_date"`
	LastSpinDate       *time.Time `db:"last_spin_date"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}
