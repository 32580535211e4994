package dto

import (
	"encoding/json"
	"time"

	"ngo_backend/internal/models"
	"ngo_backend/internal/repositories"
)

// CreateOrderRequest - amount в минимальных единицах (пайсы)
type CreateOrderRequest struct {
	Amount        int64           `json:"amount" validate:"required,gt=0"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	ReceiptNumber string          `json:"receiptNumber" validate:"required,max=40"`
	Notes         json.RawMessage `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	KeyID    string `json:"keyId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receiptNumber"`
}

// VerifyPaymentRequest - поля checkout шлюза плюс donationData
// (объект или строка с JSON).
type VerifyPaymentRequest struct {
	OrderID      string          `json:"razorpay_order_id" validate:"required"`
	PaymentID    string          `json:"razorpay_payment_id" validate:"required"`
	Signature    string          `json:"razorpay_signature" validate:"required"`
	DonationData json.RawMessage `json:"donationData,omitempty"`
}

type DonationResponse struct {
	ID               string                 `json:"id"`
	ReceiptNumber    string                 `json:"receipt_number"`
	DonorName        string                 `json:"donor_name"`
	IsAnonymous      bool                   `json:"is_anonymous"`
	Amount           int64                  `json:"amount"`
	Currency         string                 `json:"currency"`
	Purpose          models.DonationPurpose `json:"purpose"`
	PaymentMode      models.PaymentMode     `json:"payment_mode"`
	DonationType     models.DonationType    `json:"donation_type"`
	Status           models.DonationStatus  `json:"status"`
	EventID          *string                `json:"event_id,omitempty"`
	EventItemID      *string                `json:"event_item_id,omitempty"`
	ItemQuantity     int                    `json:"item_quantity,omitempty"`
	DonationLinkID   *string                `json:"donation_link_id,omitempty"`
	TransactionID    *string                `json:"transaction_id,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	AlreadyProcessed bool                   `json:"already_processed"`
}

func NewDonationResponse(d *models.Donation, alreadyProcessed bool) *DonationResponse {
	return &DonationResponse{
		ID:               d.ID,
		ReceiptNumber:    d.ReceiptNumber,
		DonorName:        d.DonorName,
		IsAnonymous:      d.IsAnonymous,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Purpose:          d.Purpose,
		PaymentMode:      d.PaymentMode,
		DonationType:     d.DonationType,
		Status:           d.Status,
		EventID:          d.EventID,
		EventItemID:      d.EventItemID,
		ItemQuantity:     d.ItemQuantity,
		DonationLinkID:   d.DonationLinkID,
		TransactionID:    d.TransactionID,
		CreatedAt:        d.CreatedAt,
		AlreadyProcessed: alreadyProcessed,
	}
}

// WebhookResult - тело ответа шлюзу; сам шлюз смотрит только на код.
type WebhookResult struct {
	Status     string `json:"status"` // processed, duplicate, ignored, review
	EventType  string `json:"event,omitempty"`
	OrderID    string `json:"order_id,omitempty"`
	DonationID string `json:"donation_id,omitempty"`
}

const (
	WebhookStatusProcessed = "processed"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusIgnored   = "ignored"
	WebhookStatusReview    = "review"
)

type ListTransactionsQuery struct {
	Status      string `form:"status" validate:"omitempty,is-transaction-status"`
	Processed   *bool  `form:"processed"`
	NeedsReview *bool  `form:"needs_review"`
	Receipt     string `form:"receipt"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

func (q *ListTransactionsQuery) Filter() repositories.TransactionFilter {
	return repositories.TransactionFilter{
		Status:      q.Status,
		Processed:   q.Processed,
		NeedsReview: q.NeedsReview,
		Receipt:     q.Receipt,
	}
}

type TransactionListResponse struct {
	Items    []models.PaymentTransaction `json:"items"`
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}

type TransactionDetailResponse struct {
	Transaction *models.PaymentTransaction `json:"transaction"`
	Donation    *DonationResponse          `json:"donation,omitempty"`
}

type DonationLinkResponse struct {
	Slug            string                 `json:"slug"`
	Title           string                 `json:"title"`
	Purpose         models.DonationPurpose `json:"purpose"`
	EventID         *string                `json:"event_id,omitempty"`
	SuggestedAmount *int64                 `json:"suggested_amount,omitempty"`
	ExpiresAt       *time.Time             `json:"expires_at,omitempty"`
	Active          bool                   `json:"active"`
}

func NewDonationLinkResponse(l *models.DonationLink, now time.Time) *DonationLinkResponse {
	return &DonationLinkResponse{
		Slug:            l.Slug,
		Title:           l.Title,
		Purpose:         l.Purpose,
		EventID:         l.EventID,
		SuggestedAmount: l.SuggestedAmount,
		ExpiresAt:       l.ExpiresAt,
		Active:          !l.IsExpired(now),
	}
}

type EventItemResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	TotalQuantity int    `json:"total_quantity"`
	Remaining     int    `json:"remaining"`
}

func NewEventItemResponse(i *models.EventItem) EventItemResponse {
	return EventItemResponse{
		ID:            i.ID,
		Name:          i.Name,
		UnitPrice:     i.UnitPrice,
		TotalQuantity: i.TotalQuantity,
		Remaining:     i.Remaining(),
	}
}

// ReconcileResult - итог одного прохода сверки
type ReconcileResult struct {
	Scanned      int `json:"scanned"`
	Materialized int `json:"materialized"`
	Failed       int `json:"failed"`
	Pending      int `json:"pending"`
	Errors       int `json:"errors"`
}
