package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/storefront/storefront-api/internal/api/metrics"
	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

const DefaultCatalogCacheTTL = 5 * time.Minute

// CatalogService serves the product list from cache, falling back to the
// upstream client. Concurrent misses share one upstream request.
type CatalogService struct {
	client ports.CatalogClient
	cache  ports.CatalogCache
	ttl    time.Duration
	group  singleflight.Group
	log    zerolog.Logger
}

// NewCatalogService wires the service. cache may be nil to disable caching.
func NewCatalogService(client ports.CatalogClient, cache ports.CatalogCache, ttl time.Duration, log zerolog.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogCacheTTL
	}
	return &CatalogService{client: client, cache: cache, ttl: ttl, log: log}
}

// ListProducts returns every product, or only those in category when it is
// non-empty.
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return products, nil
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.CategoryName() == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListCategories returns the distinct categories in first-seen order.
func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	products, err := s.products(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		c := p.CategoryName()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (s *CatalogService) products(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("catalog cache read failed, fetching upstream")
		case ok:
			metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	// The flight is shared, so it must not die with whichever caller
	// started it; the upstream client enforces its own timeout.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("products", func() (any, error) {
		return s.fetch(flightCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Product), nil
	}
}

func (s *CatalogService) fetch(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	products, err := s.client.FetchProducts(ctx)
	if err != nil {
		metrics.CatalogFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.log.Error().Err(err).Msg("catalog fetch failed")
		return nil, err
	}
	metrics.CatalogFetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, products, s.ttl); err != nil {
			s.log.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	s.log.Debug().Int("count", len(products)).Msg("catalog refreshed")
	return products, nil
}
