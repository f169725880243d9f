package memory

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// CatalogCache is a single-entry TTL cache for the product list.
type CatalogCache struct {
	mu        sync.RWMutex
	products  []domain.Product
	expiresAt time.Time
	now       func() time.Time
}

func NewCatalogCache() *CatalogCache {
	return &CatalogCache{now: time.Now}
}

func (c *CatalogCache) Get(_ context.Context) ([]domain.Product, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.products == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out, true, nil
}

func (c *CatalogCache) Set(_ context.Context, products []domain.Product, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = make([]domain.Product, len(products))
	copy(c.products, products)
	c.expiresAt = c.now().Add(ttl)
	return nil
}
