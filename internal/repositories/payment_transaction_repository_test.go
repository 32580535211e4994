package repositories_test

import (
	"sync"
	"testing"
	"time"

	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
	"ngo_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTxn(t *testing.T, db *gorm.DB, repo repositories.PaymentTransactionRepository, orderID string) *models.PaymentTransaction {
	t.Helper()
	txn := &models.PaymentTransaction{
		GatewayOrderID: orderID,
		GatewayReceipt: "R-" + orderID,
		Amount:         50000,
		Currency:       "INR",
	}
	require.NoError(t, repo.CreateTransaction(db, txn))
	return txn
}

func TestCreateTransactionDuplicateOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()

	txn := newTxn(t, db, repo, "order_dup")
	assert.Equal(t, models.TransactionStatusCreated, txn.Status)
	assert.NotEmpty(t, txn.ID)

	err := repo.CreateTransaction(db, &models.PaymentTransaction{GatewayOrderID: "order_dup", Amount: 1, Currency: "INR"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateOrder)
}

func TestRecordStatusForwardOnly(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()
	newTxn(t, db, repo, "order_fwd")

	txn, applied, err := repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_fwd", PaymentID: "pay_1", Status: models.TransactionStatusAuthorized,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.TransactionStatusAuthorized, txn.Status)
	require.NotNil(t, txn.GatewayPaymentID)
	assert.Equal(t, "pay_1", *txn.GatewayPaymentID)

	txn, applied, err = repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_fwd", PaymentID: "pay_1", Status: models.TransactionStatusCaptured,
		RawPayload: []byte(`{"event":"payment.captured"}`),
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.TransactionStatusCaptured, txn.Status)

	// failed после captured - не откатывает статус
	txn, applied, err = repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_fwd", PaymentID: "pay_1", Status: models.TransactionStatusFailed,
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.TransactionStatusCaptured, txn.Status)

	// повтор captured - no-op
	_, applied, err = repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_fwd", Status: models.TransactionStatusCaptured,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	txn, applied, err = repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_fwd", Status: models.TransactionStatusRefunded,
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.TransactionStatusRefunded, txn.Status)
}

func TestRecordStatusPaymentIDAttachedOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()
	newTxn(t, db, repo, "order_a")
	newTxn(t, db, repo, "order_b")

	_, _, err := repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_a", PaymentID: "pay_x", Status: models.TransactionStatusCaptured})
	require.NoError(t, err)

	// другой id для того же заказа не перезаписывает привязанный
	txn, _, err := repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_a", PaymentID: "pay_y", Status: models.TransactionStatusCaptured})
	require.NoError(t, err)
	assert.Equal(t, "pay_x", *txn.GatewayPaymentID)

	_, _, err = repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_b", PaymentID: "pay_x", Status: models.TransactionStatusCaptured})
	assert.ErrorIs(t, err, repositories.ErrPaymentIDConflict)
}

func TestRecordStatusUnknownOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()

	_, _, err := repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_ghost", Status: models.TransactionStatusCaptured})
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)

	txn, applied, err := repo.RecordStatus(db, repositories.StatusUpdate{
		OrderID: "order_ghost", PaymentID: "pay_g", Status: models.TransactionStatusCaptured,
		Amount: 1200, Currency: "INR",
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, txn.NeedsReview)
	assert.Equal(t, int64(1200), txn.Amount)
	assert.Equal(t, models.TransactionStatusCaptured, txn.Status)
}

func TestTryMarkProcessedRequiresCapture(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()
	newTxn(t, db, repo, "order_gate")

	_, _, err := repo.TryMarkProcessed(db, "order_gate")
	assert.ErrorIs(t, err, repositories.ErrNotCaptured)

	_, _, err = repo.TryMarkProcessed(db, "order_missing")
	assert.ErrorIs(t, err, repositories.ErrTransactionNotFound)

	_, _, err = repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_gate", Status: models.TransactionStatusCaptured})
	require.NoError(t, err)

	already, txn, err := repo.TryMarkProcessed(db, "order_gate")
	require.NoError(t, err)
	assert.False(t, already)
	assert.True(t, txn.Processed)

	already, _, err = repo.TryMarkProcessed(db, "order_gate")
	require.NoError(t, err)
	assert.True(t, already)
}

func TestTryMarkProcessedConcurrent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()
	newTxn(t, db, repo, "order_race")
	_, _, err := repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_race", Status: models.TransactionStatusCaptured})
	require.NoError(t, err)

	const callers = 10
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			already, _, err := repo.TryMarkProcessed(db, "order_race")
			assert.NoError(t, err)
			if !already {
				mu.Lock()
				winner++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winner)
}

func TestFindStaleUnprocessed(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()

	old := newTxn(t, db, repo, "order_old")
	newTxn(t, db, repo, "order_fresh")
	reviewed := newTxn(t, db, repo, "order_review")
	require.NoError(t, repo.FlagForReview(db, "order_review", "sold out"))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.PaymentTransaction{}).
		Where("id IN ?", []string{old.ID, reviewed.ID}).
		UpdateColumn("created_at", past).Error)

	stale, err := repo.FindStaleUnprocessed(db, time.Now().Add(-15*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "order_old", stale[0].GatewayOrderID)
}

func TestListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPaymentTransactionRepository()
	newTxn(t, db, repo, "order_1")
	newTxn(t, db, repo, "order_2")
	_, _, err := repo.RecordStatus(db, repositories.StatusUpdate{OrderID: "order_2", Status: models.TransactionStatusFailed})
	require.NoError(t, err)

	txns, total, err := repo.List(db, repositories.TransactionFilter{Status: "failed"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, "order_2", txns[0].GatewayOrderID)

	processed := false
	_, total, err = repo.List(db, repositories.TransactionFilter{Processed: &processed}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
