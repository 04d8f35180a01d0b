package sync

import (
	"context"
	"time"

	"github.com/keymarket/g2a-connect/g2a"
)

// Default delta-sync bounds.
const (
	defaultLookback = 24 * time.Hour
	defaultMaxPages = 10
)

// ProductLister is the slice of the client the delta syncer needs.
type ProductLister interface {
	GetUpdatedSince(ctx context.Context, since time.Time, page int) (*g2a.ProductPage, error)
}

// DeltaOptions tunes one incremental run.
type DeltaOptions struct {
	// Since is the watermark; only products changed at or after it are
	// fetched. Zero means a 24 hour lookback.
	Since time.Time

	// MaxPages bounds how many pages one run fetches.
	// Default: 10
	MaxPages int
}

// DeltaResult reports one incremental run. Watermark is the value to
// feed the next run's Since.
type DeltaResult struct {
	// New holds products created at or after the watermark.
	New []g2a.Product
	// Updated holds products that existed before the watermark and
	// changed since.
	Updated []g2a.Product
	Pages   int
	// Truncated is set when MaxPages was hit before the partner ran out
	// of results; the next run will pick the remainder up.
	Truncated bool
	Watermark time.Time
}

// DeltaSyncer fetches only what changed since the last run.
type DeltaSyncer struct {
	products ProductLister

	now func() time.Time
}

// NewDeltaSyncer creates a delta syncer.
func NewDeltaSyncer(products ProductLister) *DeltaSyncer {
	return &DeltaSyncer{products: products, now: time.Now}
}

// Sync runs one incremental pass. New-versus-updated classification
// compares each product's own creation timestamp against the
// watermark, not a prior local snapshot; comparisons happen at the wire
// format's second granularity.
func (s *DeltaSyncer) Sync(ctx context.Context, opts DeltaOptions) (*DeltaResult, error) {
	now := s.now().UTC().Truncate(time.Second)

	since := opts.Since.UTC().Truncate(time.Second)
	if opts.Since.IsZero() {
		since = now.Add(-defaultLookback)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	result := &DeltaResult{Watermark: now}
	fetched := 0

	for page := 1; page <= maxPages; page++ {
		p, err := s.products.GetUpdatedSince(ctx, since, page)
		if err != nil {
			return nil, err
		}
		if len(p.Products) == 0 {
			return result, nil
		}
		result.Pages++

		for _, prod := range p.Products {
			if !prod.CreatedAt.Before(since) {
				result.New = append(result.New, prod)
			} else {
				result.Updated = append(result.Updated, prod)
			}
		}

		fetched += len(p.Products)
		if p.Total > 0 && fetched >= p.Total {
			return result, nil
		}
	}

	result.Truncated = true
	return result, nil
}
