package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound  = errors.New("payment transaction not found")
	ErrDuplicateOrder       = errors.New("payment transaction for this order already exists")
	ErrPaymentIDConflict    = errors.New("payment id already attached to another order")
	ErrNotCaptured          = errors.New("payment transaction is not captured")
	ErrDonationNotFound     = errors.New("donation not found")
	ErrDuplicateReceipt     = errors.New("receipt number already used")
	ErrEventItemNotFound    = errors.New("event item not found")
	ErrDonationLinkNotFound = errors.New("donation link not found")
	ErrDuplicateEvent       = errors.New("gateway event already recorded")
)

// IsWriteConflict - ошибки Postgres, после которых операцию можно повторить:
// 40001 serialization_failure, 40P01 deadlock_detected.
func IsWriteConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
