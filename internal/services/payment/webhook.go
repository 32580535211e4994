package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"ngo_backend/internal/models"
)

const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
	EventOrderPaid         = "order.paid"
	EventRefundCreated     = "refund.created"
	EventRefundProcessed   = "refund.processed"

	HeaderSignature = "X-Razorpay-Signature"
	HeaderEventID   = "X-Razorpay-Event-Id"
)

var (
	ErrUnsupportedEvent = errors.New("unsupported webhook event")
	ErrMalformedWebhook = errors.New("malformed webhook body")
)

var eventStatus = map[string]models.TransactionStatus{
	EventPaymentAuthorized: models.TransactionStatusAuthorized,
	EventPaymentCaptured:   models.TransactionStatusCaptured,
	EventOrderPaid:         models.TransactionStatusCaptured,
	EventPaymentFailed:     models.TransactionStatusFailed,
	EventRefundCreated:     models.TransactionStatusRefunded,
	EventRefundProcessed:   models.TransactionStatusRefunded,
}

type paymentEntity struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Notes    json.RawMessage `json:"notes"`
}

type orderEntity struct {
	ID       string          `json:"id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Notes    json.RawMessage `json:"notes"`
}

type refundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity orderEntity `json:"entity"`
		} `json:"order"`
		Refund *struct {
			Entity refundEntity `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// Signal - то, что журналу нужно знать о доставке вебхука.
type Signal struct {
	EventType string
	Status    models.TransactionStatus
	OrderID   string
	PaymentID string
	Amount    int64
	Currency  string
	// Notes - notes заказа, которые шлюз возвращает в платеже
	Notes json.RawMessage
}

// Materializes - только captured создаёт пожертвование
func (s *Signal) Materializes() bool {
	return s.Status == models.TransactionStatusCaptured
}

// ParseWebhook разбирает тело уже после проверки подписи.
// Для refund-событий без payment entity OrderID может быть пустым.
func ParseWebhook(body []byte) (*Signal, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}

	status, ok := eventStatus[env.Event]
	if !ok {
		return &Signal{EventType: env.Event}, ErrUnsupportedEvent
	}

	sig := &Signal{EventType: env.Event, Status: status}
	if p := env.Payload.Payment; p != nil {
		sig.OrderID = p.Entity.OrderID
		sig.PaymentID = p.Entity.ID
		sig.Amount = p.Entity.Amount
		sig.Currency = p.Entity.Currency
		sig.Notes = p.Entity.Notes
	}
	if o := env.Payload.Order; o != nil {
		if sig.OrderID == "" {
			sig.OrderID = o.Entity.ID
		}
		if sig.Amount == 0 {
			sig.Amount = o.Entity.Amount
			sig.Currency = o.Entity.Currency
		}
		if len(sig.Notes) == 0 {
			sig.Notes = o.Entity.Notes
		}
	}
	if r := env.Payload.Refund; r != nil && sig.PaymentID == "" {
		sig.PaymentID = r.Entity.PaymentID
	}

	if sig.OrderID == "" && sig.PaymentID == "" {
		return sig, fmt.Errorf("%w: no order or payment id", ErrMalformedWebhook)
	}
	return sig, nil
}
