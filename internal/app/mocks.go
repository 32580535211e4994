package app

import (
	"context"
	"strings"

	"ngo_backend/internal/services/payment"

	"github.com/google/uuid"
)

// MockGateway используется для локальной разработки без ключей шлюза.
// Заказы только создаются; оплату подтверждают verify-payment или вебхук,
// подписанные локальными секретами.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (m *MockGateway) CreateOrder(_ context.Context, params payment.CreateOrderParams) (*payment.Order, error) {
	id := "order_mock" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return &payment.Order{
		ID:       id,
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Status:   "created",
	}, nil
}

func (m *MockGateway) FetchOrderPayments(context.Context, string) ([]payment.Payment, error) {
	return nil, nil
}

func (m *MockGateway) KeyID() string { return "rzp_test_mock" }
