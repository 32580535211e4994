package repositories

import (
	"errors"

	"ngo_backend/internal/models"

	"gorm.io/gorm"
)

type DonationRepository interface {
	Create(db *gorm.DB, donation *models.Donation) error
	FindByID(db *gorm.DB, id string) (*models.Donation, error)
	FindByTransactionID(db *gorm.DB, txnID string) (*models.Donation, error)
	FindByReceipt(db *gorm.DB, receipt string) (*models.Donation, error)
	CountByGatewayReceipt(db *gorm.DB, gatewayReceipt string) (int64, error)
}

type DonationRepositoryImpl struct{}

func NewDonationRepository() DonationRepository {
	return &DonationRepositoryImpl{}
}

// Create - ErrDuplicateReceipt при коллизии номера квитанции.
// Дубликат transaction_id сюда не доходит: его отсекает TryMarkProcessed.
func (r *DonationRepositoryImpl) Create(db *gorm.DB, donation *models.Donation) error {
	if err := db.Create(donation).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateReceipt
		}
		return err
	}
	return nil
}

func (r *DonationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Donation, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *DonationRepositoryImpl) FindByTransactionID(db *gorm.DB, txnID string) (*models.Donation, error) {
	return r.findOne(db, "transaction_id = ?", txnID)
}

func (r *DonationRepositoryImpl) FindByReceipt(db *gorm.DB, receipt string) (*models.Donation, error) {
	return r.findOne(db, "receipt_number = ?", receipt)
}

// CountByGatewayReceipt - сколько пожертвований создано по заказам с этим receipt
func (r *DonationRepositoryImpl) CountByGatewayReceipt(db *gorm.DB, gatewayReceipt string) (int64, error) {
	var count int64
	err := db.Model(&models.Donation{}).
		Joins("JOIN payment_transactions ON payment_transactions.id = donations.transaction_id").
		Where("payment_transactions.gateway_receipt = ?", gatewayReceipt).
		Count(&count).Error
	return count, err
}

func (r *DonationRepositoryImpl) findOne(db *gorm.DB, query string, arg interface{}) (*models.Donation, error) {
	var donation models.Donation
	if err := db.Where(query, arg).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}
