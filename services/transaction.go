package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/upb/terrace/repositories"
)

// WithTransactionResult runs fn in a transaction begun on txMgr and returns
// its result. The transaction is rolled back if fn fails or panics.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (result T, err error) {
	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	finished := false
	defer func() {
		if finished {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && err != nil {
			err = errors.Join(err, rbErr)
		}
	}()

	if result, err = fn(ctx, tx); err != nil {
		return result, err
	}

	err = tx.Commit()
	finished = true
	return result, err
}
