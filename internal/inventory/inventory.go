// Package inventory caches the device metadata fetched from the router on
// its own polling cadence.
package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/routerpulse/internal/model"
)

// Fetcher is the inventory collaborator.
type Fetcher interface {
	InventorySnapshot(ctx context.Context) ([]model.Device, error)
}

// Cache holds the last successfully fetched inventory. A failed refresh
// keeps the last known devices so the table degrades instead of emptying.
type Cache struct {
	fetcher Fetcher

	mu      sync.RWMutex
	devices []model.Device
	updated time.Time
	lastErr error
}

// NewCache creates an inventory cache backed by the given fetcher.
func NewCache(f Fetcher) *Cache {
	return &Cache{fetcher: f}
}

// Refresh fetches a fresh inventory snapshot. On failure the previous
// devices are retained and the error recorded.
func (c *Cache) Refresh(ctx context.Context) error {
	devices, err := c.fetcher.InventorySnapshot(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.lastErr = err
		return fmt.Errorf("inventory refresh failed: %w", err)
	}

	c.devices = devices
	c.updated = time.Now()
	c.lastErr = nil
	return nil
}

// Devices returns a copy of the cached inventory.
func (c *Cache) Devices() []model.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// Keys returns the entity keys (MAC addresses) of all cached devices.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.devices))
	for _, d := range c.devices {
		keys = append(keys, d.MAC)
	}
	return keys
}

// UpdatedAt returns the time of the last successful refresh.
func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// LastErr returns the error of the most recent refresh, nil on success.
func (c *Cache) LastErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
