package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 5 * time.Second

	Currency = "INR"
)

// Order created on the gateway side. Amount is in minor units (paise),
// the way Razorpay reports it.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type GatewayError struct {
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("razorpay: status: %d, error: %v", e.StatusCode, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string

	client *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at a different API host, used in tests
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func NewClient(keyID string, keySecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateOrder registers a new order scoped to amount (major units,
// converted to paise on the wire) and returns the gateway's order.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (Order, error) {
	var order Order

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload := struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: Currency,
		Receipt:  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return order, &GatewayError{Err: fmt.Errorf("failed to encode order: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return order, &GatewayError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return order, &GatewayError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return order, &GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status code %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return order, &GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode order: %w", err)}
	}

	return order, nil
}

// VerifyPaymentSignature checks the checkout callback signature:
// HMAC-SHA256 of "orderID|paymentID" keyed with the API secret.
// Pure computation against the stored order binding, nothing from the
// callback payload is trusted.
func (c *Client) VerifyPaymentSignature(orderID string, paymentID string, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
