package models

import "time"

type Donation struct {
	BaseModel
	ReceiptNumber  string          `gorm:"size:64;uniqueIndex;not null" json:"receipt_number"`
	DonorName      string          `gorm:"size:255;not null" json:"donor_name"`
	DonorEmail     string          `gorm:"size:255" json:"donor_email,omitempty"`
	DonorPhone     string          `gorm:"size:32" json:"donor_phone,omitempty"`
	IsAnonymous    bool            `gorm:"not null;default:false" json:"is_anonymous"`
	Amount         int64           `gorm:"not null" json:"amount"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	Purpose        DonationPurpose `gorm:"size:16;not null" json:"purpose"`
	PaymentMode    PaymentMode     `gorm:"size:16;not null" json:"payment_mode"`
	DonationType   DonationType    `gorm:"size:16;not null" json:"donation_type"`
	Status         DonationStatus  `gorm:"size:16;not null" json:"status"`
	EventID        *string         `gorm:"size:36;index" json:"event_id,omitempty"`
	EventItemID    *string         `gorm:"size:36;index" json:"event_item_id,omitempty"`
	ItemQuantity   int             `gorm:"not null;default:0" json:"item_quantity"`
	DonationLinkID *string         `gorm:"size:36;index" json:"donation_link_id,omitempty"`
	TransactionID  *string         `gorm:"size:36;uniqueIndex" json:"transaction_id,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}
