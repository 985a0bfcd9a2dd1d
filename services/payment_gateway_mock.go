package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/nearnect/nearnect-api/utils"
)

// MockPaymentGateway issues sequential fake orders and signs with Secret
type MockPaymentGateway struct {
	mu     sync.Mutex
	orders []CreateOrderRequest

	Secret string
	// Err, when set, is returned by CreateOrder
	Err error
}

func NewMockPaymentGateway(secret string) *MockPaymentGateway {
	return &MockPaymentGateway{Secret: secret}
}

func (m *MockPaymentGateway) CreateOrder(_ context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, req)
	return &GatewayOrder{
		ID:       fmt.Sprintf("order_mock_%d", len(m.orders)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
	}, nil
}

func (m *MockPaymentGateway) VerifySignature(orderID, paymentID, signature string) error {
	return utils.VerifyPaymentSignature(orderID, paymentID, signature, m.Secret)
}

func (m *MockPaymentGateway) KeyID() string { return "rzp_test_mock" }

// Sign produces the signature the checkout widget would return
func (m *MockPaymentGateway) Sign(orderID, paymentID string) string {
	return utils.SignHMAC(orderID+"|"+paymentID, m.Secret)
}

// Orders returns every order request received
func (m *MockPaymentGateway) Orders() []CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CreateOrderRequest, len(m.orders))
	copy(out, m.orders)
	return out
}
