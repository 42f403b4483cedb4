// Package notifications is the thin adapter over the external
// notifications service.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/studentsystem/order-processing/internal/httpclient"
)

// Request is the body posted to the notifications service.
type Request struct {
	Message        string    `json:"message"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

// Client calls POST {base} with the notification request.
type Client struct {
	client  *httpclient.RetryingClient
	baseURL string
	apiKey  string
}

// New builds a notifications client.
func New(client *httpclient.RetryingClient, baseURL, apiKey string) *Client {
	return &Client{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Send posts a notification. Success is HTTP 201.
func (c *Client) Send(ctx context.Context, message string, idempotencyKey uuid.UUID) error {
	body, err := json.Marshal(Request{Message: message, IdempotencyKey: idempotencyKey})
	if err != nil {
		return fmt.Errorf("marshal notification request: %w", err)
	}

	resp, _, err := c.client.Do(ctx, http.MethodPost, c.baseURL, body, map[string]string{
		"X-API-Key":    c.apiKey,
		"Content-Type": "application/json",
	})
	if err != nil {
		return fmt.Errorf("notification request: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}
