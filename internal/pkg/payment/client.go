// Package payment provides a thin HTTP client for the hosted checkout
// provider. The provider owns the payment form; the backend only creates
// sessions and reads their status back.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

// Session statuses reported by the provider.
const (
	SessionStatusOpen    = "open"
	SessionStatusPaid    = "paid"
	SessionStatusExpired = "expired"
)

// Session is a checkout session as reported by the provider.
type Session struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// CreateSessionParams describes a single-item checkout session.
type CreateSessionParams struct {
	Amount      int64  // minor units
	Currency    string
	ProductName string
	Reference   string // opaque value echoed back by the provider
	SuccessURL  string
	CancelURL   string
}

// Client talks to the checkout provider's HTTP API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a provider client. baseURL must not have a trailing slash.
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type lineItem struct {
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Quantity int    `json:"quantity"`
}

type createSessionRequest struct {
	LineItems  []lineItem `json:"line_items"`
	Reference  string     `json:"reference"`
	SuccessURL string     `json:"success_url"`
	CancelURL  string     `json:"cancel_url"`
}

// CreateSession creates a hosted checkout session and returns its ID and URL.
func (c *Client) CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	reqBody := createSessionRequest{
		LineItems: []lineItem{
			{
				Name:     params.ProductName,
				Amount:   params.Amount,
				Currency: params.Currency,
				Quantity: 1,
			},
		},
		Reference:  params.Reference,
		SuccessURL: params.SuccessURL,
		CancelURL:  params.CancelURL,
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", reqBody, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession retrieves a checkout session by its provider ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPaymentProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.ErrPaymentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrPaymentProvider, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: invalid response: %v", apperrors.ErrPaymentProvider, err)
		}
	}
	return nil
}
