package g2a

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/keymarket/g2a-connect/apierr"
	"github.com/keymarket/g2a-connect/cache"
)

// BestsellersService serves the bestselling products feed. The feed
// changes slowly, so it goes through the read cache when one is
// configured.
type BestsellersService struct {
	t     *transport
	cache *cache.ReadThrough
}

// List fetches the current bestseller ranking.
func (s *BestsellersService) List(ctx context.Context) ([]Bestseller, error) {
	fetch := func(ctx context.Context) ([]byte, error) {
		var items []Bestseller
		err := s.t.do(ctx, request{
			method:   http.MethodGet,
			path:     "bestsellers",
			endpoint: "bestsellers.list",
		}, &items)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	}

	var raw []byte
	var err error
	if s.cache != nil {
		raw, err = s.cache.Do(ctx, "bestsellers.list", nil, fetch)
	} else {
		raw, err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	var items []Bestseller
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apierr.Wrap(apierr.CodeAPIError, "decoding cached bestsellers", err)
	}
	return items, nil
}
