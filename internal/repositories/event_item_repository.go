package repositories

import (
	"errors"

	"ngo_backend/internal/models"

	"gorm.io/gorm"
)

type EventItemRepository interface {
	FindByID(db *gorm.DB, id string) (*models.EventItem, error)
	FindByEvent(db *gorm.DB, eventID string) ([]models.EventItem, error)
	// Reserve атомарно увеличивает donated_quantity, если хватает остатка.
	Reserve(db *gorm.DB, itemID string, quantity int) (ok bool, remaining int, err error)
	// Release - компенсация успешного Reserve
	Release(db *gorm.DB, itemID string, quantity int) error
}

type EventItemRepositoryImpl struct{}

func NewEventItemRepository() EventItemRepository {
	return &EventItemRepositoryImpl{}
}

func (r *EventItemRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.EventItem, error) {
	var item models.EventItem
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *EventItemRepositoryImpl) FindByEvent(db *gorm.DB, eventID string) ([]models.EventItem, error) {
	var items []models.EventItem
	err := db.Where("event_id = ?", eventID).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *EventItemRepositoryImpl) Reserve(db *gorm.DB, itemID string, quantity int) (bool, int, error) {
	// проверка и инкремент в одном UPDATE, без read-modify-write
	res := db.Model(&models.EventItem{}).
		Where("id = ? AND donated_quantity + ? <= total_quantity", itemID, quantity).
		Update("donated_quantity", gorm.Expr("donated_quantity + ?", quantity))
	if res.Error != nil {
		return false, 0, res.Error
	}

	item, err := r.FindByID(db, itemID)
	if err != nil {
		return false, 0, err
	}
	return res.RowsAffected == 1, item.Remaining(), nil
}

func (r *EventItemRepositoryImpl) Release(db *gorm.DB, itemID string, quantity int) error {
	res := db.Model(&models.EventItem{}).
		Where("id = ? AND donated_quantity >= ?", itemID, quantity).
		Update("donated_quantity", gorm.Expr("donated_quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEventItemNotFound
	}
	return nil
}
