package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrTxnRetriesExhausted is returned when a transaction keeps hitting
// transient write conflicts beyond the configured retry budget.
var ErrTxnRetriesExhausted = errors.New("transaction retry budget exhausted")

// RunInTransaction executes fn inside a session transaction, retrying the
// whole unit from the start on transient transaction errors up to
// maxRetries additional attempts. Writes made through sessCtx either all
// commit or are all rolled back; partial application is never visible.
func RunInTransaction(ctx context.Context, client *mongo.Client, maxRetries int, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
			if err := session.StartTransaction(); err != nil {
				return fmt.Errorf("failed to start transaction: %w", err)
			}

			if err := fn(sessCtx); err != nil {
				_ = session.AbortTransaction(sessCtx)
				return err
			}

			return session.CommitTransaction(sessCtx)
		})
		if err == nil {
			return nil
		}

		lastErr = err
		if !isTransient(err) {
			return err
		}
	}

	return fmt.Errorf("%w: %v", ErrTxnRetriesExhausted, lastErr)
}

func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}

	var labeled mongo.ServerError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("TransientTransactionError") ||
			labeled.HasErrorLabel("UnknownTransactionCommitResult")
	}

	return false
}
