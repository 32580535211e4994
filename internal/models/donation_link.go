package models

import "time"

type DonationLink struct {
	BaseModel
	Slug            string          `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Title           string          `gorm:"size:255" json:"title"`
	Purpose         DonationPurpose `gorm:"size:16;not null" json:"purpose"`
	EventID         *string         `gorm:"size:36;index" json:"event_id,omitempty"`
	SuggestedAmount *int64          `json:"suggested_amount,omitempty"`
	ExpiresAt       *time.Time      `json:"expires_at,omitempty"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
}

// IsExpired - ссылка с истёкшим сроком или выключенная.
func (l *DonationLink) IsExpired(now time.Time) bool {
	if !l.IsActive {
		return true
	}
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
