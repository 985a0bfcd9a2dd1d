package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/utils"
	"go.uber.org/zap"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

var ErrGatewayNotConfigured = errors.New("payment gateway is not configured")

// CreateOrderRequest describes a checkout order. Amount is in the smallest
// currency unit (paise for INR).
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// GatewayOrder is the order returned by the gateway
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentGateway creates checkout orders and verifies completed payments
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) error
	// KeyID is the public key handed to the checkout widget
	KeyID() string
}

// ToMinorUnits converts rupees to paise
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// RazorpayClient is a minimal Razorpay Orders API client
type RazorpayClient struct {
	httpClient *http.Client
	keyID      string
	keySecret  string
	baseURL    string
}

func NewRazorpayClient(httpClient *http.Client, keyID, keySecret string) *RazorpayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RazorpayClient{
		httpClient: httpClient,
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    razorpayBaseURL,
	}
}

var gatewayInstance PaymentGateway

// InitPaymentGateway builds the Razorpay client from configuration
func InitPaymentGateway(cfg *config.Config) PaymentGateway {
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		zap.L().Warn("Razorpay keys (RAZORPAY_KEY_ID, RAZORPAY_KEY_SECRET) are not set. Payments will not work without them.")
	}
	gatewayInstance = NewRazorpayClient(nil, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	return gatewayInstance
}

// GetPaymentGateway returns the global gateway
func GetPaymentGateway() PaymentGateway {
	return gatewayInstance
}

// SetPaymentGateway sets the global gateway (primarily for testing)
func SetPaymentGateway(g PaymentGateway) {
	gatewayInstance = g
}

func (c *RazorpayClient) KeyID() string { return c.keyID }

// CreateOrder calls POST /v1/orders
func (c *RazorpayClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*GatewayOrder, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, ErrGatewayNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("razorpay: unexpected status %s: %s %s", resp.Status, apiErr.Error.Code, apiErr.Error.Description)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	return &order, nil
}

// VerifySignature checks the checkout signature over "orderId|paymentId"
func (c *RazorpayClient) VerifySignature(orderID, paymentID, signature string) error {
	if c.keySecret == "" {
		return ErrGatewayNotConfigured
	}
	return utils.VerifyPaymentSignature(orderID, paymentID, signature, c.keySecret)
}
