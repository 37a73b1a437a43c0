package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedMongo "github.com/haulmarket/billing-service/pkg/mongodb"
)

// TxManager runs application units of work inside a session transaction.
// Repositories take plain contexts and join the session transparently when
// the context carries one, so the closure needs no session-aware types. An
// exhausted retry budget surfaces as domain.ErrConcurrencyConflict.
type TxManager struct {
	client     *mongo.Client
	maxRetries int
}

// NewTxManager creates a transaction manager with a bounded retry budget
func NewTxManager(client *mongo.Client, maxRetries int) *TxManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TxManager{client: client, maxRetries: maxRetries}
}

// WithTransaction executes fn atomically, retrying transient write conflicts
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := sharedMongo.RunInTransaction(ctx, m.client, m.maxRetries, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
	if err != nil {
		if errors.Is(err, sharedMongo.ErrTxnRetriesExhausted) {
			return domain.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}
