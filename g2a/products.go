package g2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/cache"
)

// ProductsService browses the partner catalog.
type ProductsService struct {
	t         *transport
	cache     *cache.ReadThrough
	pageDelay time.Duration
}

// ListOptions filters catalog pages.
type ListOptions struct {
	Page   int
	MinQty int
	// UpdatedAtFrom limits results to products changed at or after this
	// time. Zero means no lower bound.
	UpdatedAtFrom time.Time
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	page := o.Page
	if page <= 0 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	if o.MinQty > 0 {
		q.Set("minQty", strconv.Itoa(o.MinQty))
	}
	if !o.UpdatedAtFrom.IsZero() {
		q.Set("updatedAtFrom", o.UpdatedAtFrom.UTC().Format(WireTimeFormat))
	}
	return q
}

// Get fetches a single product by id. When caching is enabled, repeat
// lookups within the TTL are served locally.
func (s *ProductsService) Get(ctx context.Context, id string) (*Product, error) {
	if id == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "product id is required")
	}

	fetch := func(ctx context.Context) ([]byte, error) {
		var p Product
		err := s.t.do(ctx, request{
			method:   http.MethodGet,
			path:     "products/" + url.PathEscape(id),
			endpoint: "products.get",
			notFound: apierr.CodeProductNotFound,
		}, &p)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	}

	var raw []byte
	var err error
	if s.cache != nil {
		raw, err = s.cache.Do(ctx, "products.get", id, fetch)
	} else {
		raw, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apierr.Wrap(apierr.CodeAPIError, "decoding cached product", err)
	}
	return &p, nil
}

// List fetches one catalog page.
func (s *ProductsService) List(ctx context.Context, opts ListOptions) (*ProductPage, error) {
	var page ProductPage
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "products",
		query:    opts.query(),
		endpoint: "products.list",
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAll auto-paginates the whole catalog: pages are fetched until the
// accumulated count reaches the partner-reported total or a page comes
// back empty, with a small delay between pages to stay inside rate
// limits.
func (s *ProductsService) GetAll(ctx context.Context, opts ListOptions) ([]Product, error) {
	var all []Product
	opts.Page = 1

	for {
		page, err := s.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		if len(page.Products) == 0 {
			return all, nil
		}

		all = append(all, page.Products...)
		if page.Total > 0 && len(all) >= page.Total {
			return all, nil
		}

		opts.Page++
		if err := sleepCtx(ctx, s.pageDelay); err != nil {
			return nil, apierr.Wrap(apierr.CodeTimeout, "pagination cancelled", err)
		}
	}
}

// GetUpdatedSince fetches one page of products changed at or after the
// watermark. Delta sync drives this page by page so it can bound the
// number of pages per run.
func (s *ProductsService) GetUpdatedSince(ctx context.Context, since time.Time, page int) (*ProductPage, error) {
	return s.List(ctx, ListOptions{Page: page, UpdatedAtFrom: since})
}
