package services

import (
	"context"
	"time"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/repositories"
	"ngo_backend/pkg/apperrors"
)

const ledgerRetryAttempts = 3

var ledgerRetryBackoff = 50 * time.Millisecond

// withLedgerRetry повторяет атомарную операцию журнала при конфликте записи
// (serialization failure / deadlock). Прочие ошибки возвращаются сразу.
func withLedgerRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= ledgerRetryAttempts; attempt++ {
		err = op()
		if err == nil || !repositories.IsWriteConflict(err) {
			return err
		}
		logger.CtxWarn(ctx, "ledger write conflict, retrying", "attempt", attempt, "error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * ledgerRetryBackoff):
		}
	}
	return apperrors.ErrLedgerWriteConflict.WithError(err)
}
