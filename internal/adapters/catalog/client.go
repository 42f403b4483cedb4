// Package catalog is the thin adapter over the external catalog service
// (out of core scope per spec.md §1 — only its interface is specified).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studentsystem/order-processing/internal/httpclient"
)

// Item is the catalog's view of a sellable item.
type Item struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	AvailableQty  int             `json:"available_qty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Client calls GET {base}/{item_id}.
type Client struct {
	client  *httpclient.RetryingClient
	baseURL string
	apiKey  string
}

// New builds a catalog client.
func New(client *httpclient.RetryingClient, baseURL, apiKey string) *Client {
	return &Client{client: client, baseURL: baseURL, apiKey: apiKey}
}

// GetItemStock returns (nil, nil) if the catalog reports the item absent.
func (c *Client) GetItemStock(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, itemID.String())
	resp, body, err := c.client.Do(ctx, http.MethodGet, url, nil, map[string]string{
		"X-API-Key": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return &item, nil
}
