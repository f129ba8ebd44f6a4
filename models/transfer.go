package models

import (
	"time"
)

// Transfer represents a completed zero-sum chip movement between two
// accounts. A transfer row is only ever persisted in the same transaction
// as both balance effects.
type Transfer struct {
	ID         int64     `db:"id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Amount     int64     `db:"amount"`
	Note       *string   `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}

// TransferResult summarizes a successful transfer for the caller
type TransferResult struct {
	Transfer         *Transfer
	NewSenderBalance int64
}
