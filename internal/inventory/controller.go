package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/models"
)

// Paging bounds for Page
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Controller owns one cached copy of the collection and keeps it in step
// with the source. The cache changes only after a remote call succeeds.
type Controller struct {
	mu       sync.RWMutex
	source   Source
	logger   *zap.Logger
	items    []models.InventoryItem
	criteria Criteria

	// OnUnauthorized runs after the cache is discarded because the source
	// rejected the session.
	OnUnauthorized func()
}

// NewController creates a controller over src
func NewController(src Source, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source:   src,
		logger:   logger,
		criteria: Criteria{Department: All, Status: All, DateRange: All},
	}
}

// Load replaces the cache with the source's full collection
func (c *Controller) Load(ctx context.Context) error {
	items, err := c.source.List(ctx)
	if err != nil {
		return c.failed("list", err)
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns a copy of the cached collection in server order
func (c *Controller) Items() []models.InventoryItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.InventoryItem{}, c.items...)
}

// Find returns the cached item with the given id
func (c *Controller) Find(id string) (models.InventoryItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.InventoryItem{}, false
}

func (c *Controller) SetCriteria(cr Criteria) {
	c.mu.Lock()
	c.criteria = cr
	c.mu.Unlock()
}

func (c *Controller) Criteria() Criteria {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.criteria
}

// View is the filtered view under the current criteria
func (c *Controller) View(now time.Time) []models.InventoryItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.InventoryItem{}, Filter(c.items, c.criteria, now)...)
}

// Page returns one page of the filtered view and the filtered total.
// limit is clamped to (0, MaxLimit], defaulting to DefaultLimit.
func (c *Controller) Page(now time.Time, limit, offset int) ([]models.InventoryItem, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	view := c.View(now)
	total := len(view)
	if offset >= total {
		return []models.InventoryItem{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return view[offset:end], total
}

// Create saves a new item and appends it to the cache
func (c *Controller) Create(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error) {
	it, err := c.source.Create(ctx, in)
	if err != nil {
		return nil, c.failed("create", err)
	}
	c.mu.Lock()
	c.items = append(c.items, *it)
	c.mu.Unlock()
	return it, nil
}

// Update saves changes to item id and replaces it in the cache
func (c *Controller) Update(ctx context.Context, id string, in models.ItemInput) (*models.InventoryItem, error) {
	it, err := c.source.Update(ctx, id, in)
	if err != nil {
		return nil, c.failed("update", err)
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i] = *it
			break
		}
	}
	c.mu.Unlock()
	return it, nil
}

// Delete removes item id remotely, then from the cache
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.source.Delete(ctx, id); err != nil {
		return c.failed("delete", err)
	}
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// Reset discards the cache
func (c *Controller) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

func (c *Controller) failed(op string, err error) error {
	if errors.Is(err, client.ErrAuth) {
		c.logger.Info("session rejected, discarding collection", zap.String("op", op))
		c.Reset()
		if c.OnUnauthorized != nil {
			c.OnUnauthorized()
		}
	}
	return err
}
