package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ctxKey string

const txKey ctxKey = "tx"

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type TransactionManager struct {
	db             *sqlx.DB
	maxAttempts    int
	initialBackoff time.Duration
}

func NewTransactionManager(db *sqlx.DB, maxAttempts int, initialBackoff time.Duration) *TransactionManager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TransactionManager{
		db:             db,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
	}
}

// WithTransaction runs fn in a transaction carried by the context. When the
// transaction fails on a write conflict, fn is run again in a new transaction,
// so fn must not keep state across calls.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := tm.initialBackoff

	var err error
	for attempt := 1; attempt <= tm.maxAttempts; attempt++ {
		err = tm.runOnce(ctx, fn)
		if err == nil || !IsConflict(err) {
			return err
		}
		if attempt == tm.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("after %d attempts: %w", tm.maxAttempts, err)
}

func (tm *TransactionManager) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// IsConflict reports whether err is a transient write conflict that a retry can resolve.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
