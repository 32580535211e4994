package models

import (
	"gorm.io/datatypes"
)

// PaymentTransaction - запись журнала по одному заказу платёжного шлюза.
// Никогда не удаляется (финансовый аудит).
type PaymentTransaction struct {
	BaseModel
	GatewayOrderID   string            `gorm:"size:64;uniqueIndex;not null" json:"gateway_order_id"`
	GatewayPaymentID *string           `gorm:"size:64;uniqueIndex" json:"gateway_payment_id,omitempty"`
	GatewayReceipt   string            `gorm:"size:64;index" json:"gateway_receipt"`
	Amount           int64             `gorm:"not null" json:"amount"`
	Currency         string            `gorm:"size:3;not null" json:"currency"`
	Status           TransactionStatus `gorm:"size:16;not null;index" json:"status"`
	Processed        bool              `gorm:"not null;default:false;index" json:"processed"`
	NeedsReview      bool              `gorm:"not null;default:false" json:"needs_review"`
	ReviewReason     string            `gorm:"size:255" json:"review_reason,omitempty"`
	// Metadata хранит намерение донора (DonationIntent) с момента create-order:
	// вебхук материализует пожертвование без живой клиентской сессии.
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	RawPayload datatypes.JSON `json:"raw_payload,omitempty"`
	DonationID *string        `gorm:"size:36" json:"donation_id,omitempty"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
