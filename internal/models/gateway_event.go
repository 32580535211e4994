package models

import (
	"time"

	"gorm.io/datatypes"
)

// GatewayEvent - каждая доставка вебхука с валидной подписью.
type GatewayEvent struct {
	BaseModel
	// EventID приходит в заголовке X-Razorpay-Event-Id; у старых доставок его может не быть.
	EventID     *string        `gorm:"size:64;uniqueIndex" json:"event_id,omitempty"`
	EventType   string         `gorm:"size:64;not null;index" json:"event_type"`
	OrderID     string         `gorm:"size:64;index" json:"order_id,omitempty"`
	PaymentID   string         `gorm:"size:64" json:"payment_id,omitempty"`
	// PayloadHash - sha256 сырого тела; заголовок event id подписью не покрыт
	PayloadHash string         `gorm:"size:64;index" json:"payload_hash"`
	Payload     datatypes.JSON `json:"payload"`
	ArchiveKey  string         `gorm:"size:255" json:"archive_key,omitempty"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
}
