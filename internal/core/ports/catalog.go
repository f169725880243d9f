package ports

import (
	"context"
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// CatalogClient talks to the upstream product API. Any transport or schema
// failure fails the whole call with a *domain.UpstreamFetchError.
type CatalogClient interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

// CatalogCache keeps the last validated product list. Get reports a miss
// with ok=false and a nil error.
type CatalogCache interface {
	Get(ctx context.Context) (products []domain.Product, ok bool, err error)
	Set(ctx context.Context, products []domain.Product, ttl time.Duration) error
}

// CatalogService is the read side used by the HTTP layer.
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}
