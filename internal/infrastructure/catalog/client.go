// Package catalog fetches products from the upstream catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/storefront/storefront-api/internal/core/domain"
)

const (
	DefaultURL     = "https://fakestoreapi.com/products"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// HTTPClient implements ports.CatalogClient over plain HTTP.
type HTTPClient struct {
	url      string
	http     *http.Client
	validate *validator.Validate
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

// NewHTTPClient returns a client for url. An empty url selects DefaultURL and
// a non-positive timeout selects the default of 10s.
func NewHTTPClient(url string, timeout time.Duration, opts ...Option) *HTTPClient {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &HTTPClient{
		url:      url,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchProducts loads and validates the full product list. A single invalid
// element fails the whole call.
func (c *HTTPClient) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Reason: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.UpstreamFetchError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &domain.UpstreamFetchError{Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var products []domain.Product
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&products); err != nil {
		return nil, &domain.UpstreamFetchError{Reason: "decode products", Err: err}
	}
	if products == nil {
		return nil, &domain.UpstreamFetchError{Reason: "response is not an array"}
	}

	for i := range products {
		if err := c.validate.Struct(products[i]); err != nil {
			return nil, &domain.UpstreamFetchError{Reason: fmt.Sprintf("product[%d] failed validation", i), Err: err}
		}
	}
	return products, nil
}
