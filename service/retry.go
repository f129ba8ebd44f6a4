package service

import (
	"context"
	"fmt"
	"time"

	"chipbank/database"

	log "github.com/sirupsen/logrus"
)

const (
	maxTxAttempts    = 3
	retryBackoffBase = 25 * time.Millisecond
)

// runInTx executes fn inside a serializable unit of work. Serialization
// conflicts and deadlocks are retried with linear backoff up to maxTxAttempts;
// exhaustion surfaces as ErrTxConflict so callers never mistake a lost race
// for a validation failure. Any other error aborts immediately and rolls the
// transaction back.
func runInTx(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	var lastErr error

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoffBase):
			}
		}

		uow := factory.Create()
		if err := uow.Begin(ctx); err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		err := fn(uow)
		if err == nil {
			if err = uow.Commit(); err == nil {
				return nil
			}
		}

		// Rollback is a no-op when the commit already closed the transaction
		_ = uow.Rollback()

		if !database.IsSerializationFailure(err) {
			return err
		}

		lastErr = err
		log.WithFields(log.Fields{
			"attempt": attempt + 1,
			"error":   err,
		}).Warn("Serialization conflict, retrying transaction")
	}

	return fmt.Errorf("%w: %d attempts failed: %v", ErrTxConflict, maxTxAttempts, lastErr)
}
