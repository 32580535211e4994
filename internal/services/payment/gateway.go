package payment

import (
	"context"
	"errors"
)

// ErrGatewayUnavailable - сеть, таймаут, 5xx или 429 от шлюза. Можно повторить.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	// created | authorized | captured | refunded | failed
	Status string `json:"status"`
}

type CreateOrderParams struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Gateway - то, что нужно от хостингового платёжного шлюза.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error)
	// KeyID - публичный ключ для checkout на клиенте
	KeyID() string
}
