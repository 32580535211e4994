package repositories

import (
	"ngo_backend/internal/models"

	"gorm.io/gorm"
)

// WalletSummary считается при чтении из журналов пожертвований и расходов.
type WalletSummary struct {
	TotalDonations int64 `json:"total_donations"`
	DonationCount  int64 `json:"donation_count"`
	TotalExpenses  int64 `json:"total_expenses"`
	Balance        int64 `json:"balance"`
}

type WalletRepository interface {
	Summary(db *gorm.DB) (*WalletSummary, error)
}

type WalletRepositoryImpl struct{}

func NewWalletRepository() WalletRepository {
	return &WalletRepositoryImpl{}
}

func (r *WalletRepositoryImpl) Summary(db *gorm.DB) (*WalletSummary, error) {
	var donations struct {
		Total int64
		Count int64
	}
	if err := db.Model(&models.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("status = ?", models.DonationStatusCompleted).
		Scan(&donations).Error; err != nil {
		return nil, err
	}

	var expenses int64
	if err := db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&expenses).Error; err != nil {
		return nil, err
	}

	return &WalletSummary{
		TotalDonations: donations.Total,
		DonationCount:  donations.Count,
		TotalExpenses:  expenses,
		Balance:        donations.Total - expenses,
	}, nil
}
