// Package backend is the HTTP client for the router's query endpoints:
// batched historical bandwidth queries and the device inventory.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/user/routerpulse/internal/model"
	"github.com/user/routerpulse/internal/timerange"
)

// Client talks to the router's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a backend client for the given router base URL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type historyRequest struct {
	Keys     []string `json:"keys"`
	Range    string   `json:"range"`
	Interval string   `json:"interval"`
}

// HistoricalQuery fetches downsampled samples for all given entity keys in
// one batched call. The range is sent verbatim in the duration grammar.
func (c *Client) HistoricalQuery(ctx context.Context, keys []string, rng timerange.Spec, interval timerange.Interval) (map[string][]model.SamplePoint, error) {
	body, err := json.Marshal(historyRequest{
		Keys:     keys,
		Range:    rng.String(),
		Interval: string(interval),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode history request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/history/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history query returned status %d", resp.StatusCode)
	}

	var samples map[string][]model.SamplePoint
	if err := json.NewDecoder(resp.Body).Decode(&samples); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	return samples, nil
}

// InventorySnapshot fetches the current device inventory.
func (c *Client) InventorySnapshot(ctx context.Context) ([]model.Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/devices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory fetch returned status %d", resp.StatusCode)
	}

	var devices []model.Device
	if err := json.NewDecoder(resp.Body).Decode(&devices); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	return devices, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
