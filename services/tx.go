package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// withTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back on error or panic.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ErrInternal, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "transaction rollback failed",
					slog.Any("error", rbErr), slog.Any("original_error", err))
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w: %w", ErrInternal, cErr)
		}
	}()

	return fn(tx)
}
