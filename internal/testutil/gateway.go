package testutil

import (
	"context"
	"fmt"
	"sync"

	"ngo_backend/internal/services/payment"
)

// FakeGateway - управляемый шлюз для тестов сервисов и хэндлеров.
type FakeGateway struct {
	mu       sync.Mutex
	seq      int
	orders   map[string]payment.CreateOrderParams
	payments map[string][]payment.Payment

	// CreateErr / FetchErr возвращаются вместо ответа, пока не сброшены
	CreateErr error
	FetchErr  error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		orders:   map[string]payment.CreateOrderParams{},
		payments: map[string][]payment.Payment{},
	}
}

func (g *FakeGateway) CreateOrder(_ context.Context, params payment.CreateOrderParams) (*payment.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	g.seq++
	id := fmt.Sprintf("order_fake%04d", g.seq)
	g.orders[id] = params
	return &payment.Order{ID: id, Amount: params.Amount, Currency: params.Currency, Receipt: params.Receipt, Status: "created"}, nil
}

func (g *FakeGateway) FetchOrderPayments(_ context.Context, orderID string) ([]payment.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FetchErr != nil {
		return nil, g.FetchErr
	}
	return append([]payment.Payment(nil), g.payments[orderID]...), nil
}

func (g *FakeGateway) KeyID() string { return "rzp_test_fake" }

// SetPayments задаёт попытки оплаты, которые вернёт FetchOrderPayments
func (g *FakeGateway) SetPayments(orderID string, payments ...payment.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[orderID] = payments
}

// Order - параметры, с которыми заказ был создан
func (g *FakeGateway) Order(orderID string) (payment.CreateOrderParams, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.orders[orderID]
	return p, ok
}
