package batch

import (
	"context"

	"github.com/keymarket/g2a-connect/g2a"
)

// ProductGetter is the slice of the client the fetcher needs.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*g2a.Product, error)
}

// Fetcher retrieves many products by id under bounded concurrency.
type Fetcher struct {
	products ProductGetter
	cfg      Config
}

// NewFetcher creates a batch product fetcher.
func NewFetcher(products ProductGetter, cfg Config) *Fetcher {
	return &Fetcher{products: products, cfg: cfg}
}

// FetchAll fetches every id, aggregating per-id failures.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) Result[*g2a.Product] {
	return Execute(ctx, f.cfg, ids, func(ctx context.Context, id string) (*g2a.Product, error) {
		return f.products.Get(ctx, id)
	})
}

// FetchAllStrict fails the whole fetch if any id fails.
func (f *Fetcher) FetchAllStrict(ctx context.Context, ids []string) ([]*g2a.Product, error) {
	return ExecuteStrict(ctx, f.cfg, ids, func(ctx context.Context, id string) (*g2a.Product, error) {
		return f.products.Get(ctx, id)
	})
}
