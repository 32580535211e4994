package models

// Event и EventItem принадлежат подсистеме мероприятий,
// здесь только то, что нужно для пожертвований.
type Event struct {
	BaseModel
	Title    string `gorm:"size:255;not null" json:"title"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

type EventItem struct {
	BaseModel
	EventID         string `gorm:"size:36;not null;index" json:"event_id"`
	Name            string `gorm:"size:255;not null" json:"name"`
	UnitPrice       int64  `gorm:"not null" json:"unit_price"`
	TotalQuantity   int    `gorm:"not null" json:"total_quantity"`
	DonatedQuantity int    `gorm:"not null;default:0" json:"donated_quantity"`
}

func (i *EventItem) Remaining() int {
	return i.TotalQuantity - i.DonatedQuantity
}
