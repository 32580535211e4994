package repositories

import (
	"errors"
	"time"

	"ngo_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusUpdate - один сигнал шлюза о заказе.
// Amount/Currency нужны только если заказ ещё не известен журналу (вебхук).
type StatusUpdate struct {
	OrderID    string
	PaymentID  string
	Status     models.TransactionStatus
	Amount     int64
	Currency   string
	RawPayload []byte
}

type TransactionFilter struct {
	Status      string
	Processed   *bool
	NeedsReview *bool
	Receipt     string
}

type PaymentTransactionRepository interface {
	CreateTransaction(db *gorm.DB, txn *models.PaymentTransaction) error
	FindByID(db *gorm.DB, id string) (*models.PaymentTransaction, error)
	FindByOrderID(db *gorm.DB, orderID string) (*models.PaymentTransaction, error)
	FindByPaymentID(db *gorm.DB, paymentID string) (*models.PaymentTransaction, error)
	List(db *gorm.DB, filter TransactionFilter, page, pageSize int) ([]models.PaymentTransaction, int64, error)

	// RecordStatus применяет переход только вперёд; applied=false - сигнал устарел или повторный.
	RecordStatus(db *gorm.DB, upd StatusUpdate) (txn *models.PaymentTransaction, applied bool, err error)
	// TryMarkProcessed - idempotency gate: ровно один вызов на заказ получает alreadyProcessed=false.
	TryMarkProcessed(db *gorm.DB, orderID string) (alreadyProcessed bool, txn *models.PaymentTransaction, err error)
	AttachDonation(db *gorm.DB, txnID, donationID string) error
	FlagForReview(db *gorm.DB, orderID, reason string) error
	FindStaleUnprocessed(db *gorm.DB, olderThan time.Time, limit int) ([]models.PaymentTransaction, error)
}

type PaymentTransactionRepositoryImpl struct{}

func NewPaymentTransactionRepository() PaymentTransactionRepository {
	return &PaymentTransactionRepositoryImpl{}
}

func (r *PaymentTransactionRepositoryImpl) CreateTransaction(db *gorm.DB, txn *models.PaymentTransaction) error {
	if txn.Status == "" {
		txn.Status = models.TransactionStatusCreated
	}
	if err := db.Create(txn).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (r *PaymentTransactionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.PaymentTransaction, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *PaymentTransactionRepositoryImpl) FindByOrderID(db *gorm.DB, orderID string) (*models.PaymentTransaction, error) {
	return r.findOne(db, "gateway_order_id = ?", orderID)
}

func (r *PaymentTransactionRepositoryImpl) FindByPaymentID(db *gorm.DB, paymentID string) (*models.PaymentTransaction, error) {
	return r.findOne(db, "gateway_payment_id = ?", paymentID)
}

func (r *PaymentTransactionRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := db.Where(query, arg).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PaymentTransactionRepositoryImpl) List(db *gorm.DB, filter TransactionFilter, page, pageSize int) ([]models.PaymentTransaction, int64, error) {
	var (
		txns  []models.PaymentTransaction
		total int64
	)

	query := db.Model(&models.PaymentTransaction{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Processed != nil {
		query = query.Where("processed = ?", *filter.Processed)
	}
	if filter.NeedsReview != nil {
		query = query.Where("needs_review = ?", *filter.NeedsReview)
	}
	if filter.Receipt != "" {
		query = query.Where("gateway_receipt = ?", filter.Receipt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *PaymentTransactionRepositoryImpl) RecordStatus(db *gorm.DB, upd StatusUpdate) (*models.PaymentTransaction, bool, error) {
	// id платежа привязываем один раз; у неуспешной попытки он не сохраняется
	if upd.PaymentID != "" && upd.Status != models.TransactionStatusFailed {
		err := db.Model(&models.PaymentTransaction{}).
			Where("gateway_order_id = ? AND gateway_payment_id IS NULL", upd.OrderID).
			Update("gateway_payment_id", upd.PaymentID).Error
		if err != nil {
			if isDuplicate(err) {
				return nil, false, ErrPaymentIDConflict
			}
			return nil, false, err
		}
	}

	applied := false
	if prev := upd.Status.AllowedPredecessors(); len(prev) > 0 {
		updates := map[string]interface{}{"status": upd.Status}
		if len(upd.RawPayload) > 0 {
			updates["raw_payload"] = datatypes.JSON(upd.RawPayload)
		}
		res := db.Model(&models.PaymentTransaction{}).
			Where("gateway_order_id = ? AND status IN ?", upd.OrderID, prev).
			Updates(updates)
		if res.Error != nil {
			return nil, false, res.Error
		}
		applied = res.RowsAffected == 1
	}

	txn, err := r.FindByOrderID(db, upd.OrderID)
	if errors.Is(err, ErrTransactionNotFound) && upd.Amount > 0 {
		return r.insertUnknownOrder(db, upd)
	}
	if err != nil {
		return nil, false, err
	}
	return txn, applied, nil
}

// insertUnknownOrder - заказ, которого нет в журнале (создан в обход create-order
// или запись потерялась). Сохраняем как есть и помечаем для ручной проверки.
func (r *PaymentTransactionRepositoryImpl) insertUnknownOrder(db *gorm.DB, upd StatusUpdate) (*models.PaymentTransaction, bool, error) {
	txn := &models.PaymentTransaction{
		GatewayOrderID: upd.OrderID,
		Amount:         upd.Amount,
		Currency:       upd.Currency,
		Status:         upd.Status,
		NeedsReview:    true,
		ReviewReason:   "order unknown to ledger",
	}
	if upd.PaymentID != "" && upd.Status != models.TransactionStatusFailed {
		pid := upd.PaymentID
		txn.GatewayPaymentID = &pid
	}
	if len(upd.RawPayload) > 0 {
		txn.RawPayload = datatypes.JSON(upd.RawPayload)
	}

	err := db.Create(txn).Error
	if err == nil {
		return txn, true, nil
	}
	if !isDuplicate(err) {
		return nil, false, err
	}
	// параллельный сигнал успел создать запись - обычный путь без upsert
	upd.Amount = 0
	return r.RecordStatus(db, upd)
}

func (r *PaymentTransactionRepositoryImpl) TryMarkProcessed(db *gorm.DB, orderID string) (bool, *models.PaymentTransaction, error) {
	res := db.Model(&models.PaymentTransaction{}).
		Where("gateway_order_id = ? AND processed = ? AND status = ?", orderID, false, models.TransactionStatusCaptured).
		Update("processed", true)
	if res.Error != nil {
		return false, nil, res.Error
	}

	txn, err := r.FindByOrderID(db, orderID)
	if err != nil {
		return false, nil, err
	}
	if res.RowsAffected == 1 {
		return false, txn, nil
	}
	if !txn.Processed {
		return false, txn, ErrNotCaptured
	}
	return true, txn, nil
}

func (r *PaymentTransactionRepositoryImpl) AttachDonation(db *gorm.DB, txnID, donationID string) error {
	res := db.Model(&models.PaymentTransaction{}).
		Where("id = ?", txnID).
		Update("donation_id", donationID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PaymentTransactionRepositoryImpl) FlagForReview(db *gorm.DB, orderID, reason string) error {
	res := db.Model(&models.PaymentTransaction{}).
		Where("gateway_order_id = ?", orderID).
		Updates(map[string]interface{}{"needs_review": true, "review_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PaymentTransactionRepositoryImpl) FindStaleUnprocessed(db *gorm.DB, olderThan time.Time, limit int) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := db.Where("processed = ? AND needs_review = ? AND created_at < ? AND status IN ?",
		false, false, olderThan, []string{
			string(models.TransactionStatusCreated),
			string(models.TransactionStatusAuthorized),
			string(models.TransactionStatusCaptured),
		}).
		Order("created_at ASC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
