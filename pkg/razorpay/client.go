package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/gharseva/gharseva-backend/pkg/config"
)

var (
	errKeyRequired    = errors.New("razorpay key id and secret are required")
	errAmountInvalid  = errors.New("order amount must be positive")
	errOrderRejected  = errors.New("razorpay rejected the order")
	errEmptySignature = errors.New("signature is required")
)

// Order is the subset of Razorpay's order entity the platform consumes.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to the Razorpay REST API. Order creation runs behind a
// circuit breaker so a gateway outage cannot pile up blocked requests.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
}

// NewClient validates credentials and builds the gateway client.
func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keyID == "" || keySecret == "" {
		return nil, errKeyRequired
	}

	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "razorpay",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}, nil
}

// CreateOrder registers a new order with the gateway. Amount is in rupees
// and converted to paise on the wire.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*Order, error) {
	if !amount.IsPositive() {
		return nil, errAmountInvalid
	}
	if currency == "" {
		currency = "INR"
	}

	paise := amount.Mul(decimal.NewFromInt(100)).IntPart()
	body, err := json.Marshal(map[string]any{
		"amount":   paise,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.keyID, c.keySecret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", errOrderRejected, resp.StatusCode)
		}

		var order Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		return &order, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Order), nil
}

// VerifyPaymentSignature checks the checkout callback signature:
// HMAC-SHA256(order_id + "|" + payment_id) keyed with the API secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) (bool, error) {
	if strings.TrimSpace(signature) == "" {
		return false, errEmptySignature
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1, nil
}
