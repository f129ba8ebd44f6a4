package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SerializableTxOptions is the transaction mode for every balance-mutating
// operation. All invariants assume transactions never observe each other's
// intermediate state.
var SerializableTxOptions = pgx.TxOptions{
	IsoLevel: pgx.Serializable,
}

// Postgres SQLSTATE codes that indicate the transaction lost a race and can
// be retried as-is: serialization_failure and deadlock_detected.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// IsSerializationFailure reports whether err is a transient conflict from
// running under serializable isolation. Callers retry these a bounded number
// of times; every other error is final.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}
