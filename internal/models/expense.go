package models

import "time"

// Expense принадлежит подсистеме расходов; здесь только чтение для кошелька.
type Expense struct {
	BaseModel
	Amount   int64     `gorm:"not null" json:"amount"`
	Currency string    `gorm:"size:3;not null" json:"currency"`
	Category string    `gorm:"size:64" json:"category"`
	SpentAt  time.Time `gorm:"not null" json:"spent_at"`
}
