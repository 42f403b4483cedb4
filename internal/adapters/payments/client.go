// Package payments is the thin adapter over the external payments service.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/studentsystem/order-processing/internal/httpclient"
)

// Request is the body posted to the payments service.
type Request struct {
	OrderID        uuid.UUID `json:"order_id"`
	Amount         string    `json:"amount"`
	CallbackURL    string    `json:"callback_url"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

// Client calls POST {base} with the payment request.
type Client struct {
	client      *httpclient.RetryingClient
	baseURL     string
	apiKey      string
	callbackURL string
}

// New builds a payments client.
func New(client *httpclient.RetryingClient, baseURL, apiKey, callbackURL string) *Client {
	return &Client{client: client, baseURL: baseURL, apiKey: apiKey, callbackURL: callbackURL}
}

// RequestPayment posts a payment request. Success is HTTP 201.
func (c *Client) RequestPayment(ctx context.Context, orderID uuid.UUID, amount string, idempotencyKey uuid.UUID) error {
	body, err := json.Marshal(Request{
		OrderID:        orderID,
		Amount:         amount,
		CallbackURL:    c.callbackURL,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return fmt.Errorf("marshal payment request: %w", err)
	}

	resp, _, err := c.client.Do(ctx, http.MethodPost, c.baseURL, body, map[string]string{
		"X-API-Key":    c.apiKey,
		"Content-Type": "application/json",
	})
	if err != nil {
		return fmt.Errorf("payment request: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("payment service returned status %d", resp.StatusCode)
	}
	return nil
}
