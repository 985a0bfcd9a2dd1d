package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nearnect/nearnect-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(49900), ToMinorUnits(499))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}

func TestRazorpayClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(49900), req.Amount)
		assert.Equal(t, "booking_1", req.Receipt)
		assert.Equal(t, "1", req.Notes["bookingId"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "order_abc", "entity": "order", "amount": req.Amount,
			"currency": req.Currency, "receipt": req.Receipt, "status": "created",
		})
	}))
	defer server.Close()

	client := NewRazorpayClient(server.Client(), "rzp_key", "rzp_secret")
	client.baseURL = server.URL

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   49900,
		Currency: "INR",
		Receipt:  "booking_1",
		Notes:    map[string]string{"bookingId": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestRazorpayClient_CreateOrderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer server.Close()

	client := NewRazorpayClient(server.Client(), "rzp_key", "rzp_secret")
	client.baseURL = server.URL

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestRazorpayClient_NotConfigured(t *testing.T) {
	client := NewRazorpayClient(nil, "", "")

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
	assert.ErrorIs(t, client.VerifySignature("o", "p", "s"), ErrGatewayNotConfigured)
}

func TestRazorpayClient_VerifySignature(t *testing.T) {
	client := NewRazorpayClient(nil, "rzp_key", "rzp_secret")
	sig := utils.SignHMAC("order_1|pay_1", "rzp_secret")

	assert.NoError(t, client.VerifySignature("order_1", "pay_1", sig))
	assert.ErrorIs(t, client.VerifySignature("order_1", "pay_9", sig), utils.ErrInvalidSignature)
}
