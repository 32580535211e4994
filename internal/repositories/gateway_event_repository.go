package repositories

import (
	"time"

	"ngo_backend/internal/models"

	"gorm.io/gorm"
)

type GatewayEventRepository interface {
	// Create - ErrDuplicateEvent, если доставка с таким event id уже записана
	Create(db *gorm.DB, event *models.GatewayEvent) error
	FindByEventID(db *gorm.DB, eventID string) (*models.GatewayEvent, error)
	MarkProcessed(db *gorm.DB, id string, procErr error) error
}

type GatewayEventRepositoryImpl struct{}

func NewGatewayEventRepository() GatewayEventRepository {
	return &GatewayEventRepositoryImpl{}
}

func (r *GatewayEventRepositoryImpl) Create(db *gorm.DB, event *models.GatewayEvent) error {
	if err := db.Create(event).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *GatewayEventRepositoryImpl) FindByEventID(db *gorm.DB, eventID string) (*models.GatewayEvent, error) {
	var event models.GatewayEvent
	if err := db.Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkProcessed фиксирует результат обработки. При ошибке processed_at не
// ставится: повторная доставка того же события будет обработана снова.
func (r *GatewayEventRepositoryImpl) MarkProcessed(db *gorm.DB, id string, procErr error) error {
	updates := map[string]interface{}{"error": ""}
	if procErr != nil {
		updates["error"] = procErr.Error()
	} else {
		updates["processed_at"] = time.Now()
	}
	return db.Model(&models.GatewayEvent{}).Where("id = ?", id).Updates(updates).Error
}
