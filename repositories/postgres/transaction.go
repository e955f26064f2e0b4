package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/terrace/repositories"
	"go.uber.org/zap"
)

type txKey struct{}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager opens transactions on a DB
type TxManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionManager creates a transaction manager for db
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TxManager{db: db, logger: logger}
}

// Begin starts a transaction. The caller owns Commit or Rollback.
func (m *TxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{sqlTx: sqlTx, logger: m.logger}, nil
}

// InTransaction runs fn with the transaction attached to ctx, so repositories
// called with that ctx join it. fn's error triggers a rollback.
func (m *TxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Tx is a PostgreSQL transaction
type Tx struct {
	sqlTx  *sql.Tx
	logger *zap.Logger
}

// Commit commits the transaction
func (t *Tx) Commit() error {
	if err := t.sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback() error {
	err := t.sqlTx.Rollback()
	switch {
	case err == nil:
		t.logger.Debug("transaction rolled back")
		return nil
	case errors.Is(err, sql.ErrTxDone):
		return nil
	default:
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
}

// connFor returns the transaction bound to tx or ctx, falling back to the pool.
func connFor(ctx context.Context, tx repositories.Transaction, db *DB) queryer {
	if t, ok := tx.(*Tx); ok {
		return t.sqlTx
	}
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t.sqlTx
	}
	return db.DB
}
