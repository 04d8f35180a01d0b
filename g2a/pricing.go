package g2a

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/keymarket/g2a-connect/apierr"
)

// PricingService quotes current purchase prices without committing to
// an order.
type PricingService struct {
	t *transport
}

// Simulate asks the partner what buying qty units of a product would
// cost right now. qty<=0 quotes a single unit.
func (s *PricingService) Simulate(ctx context.Context, productID string, qty int) (*PriceSimulation, error) {
	if productID == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "product id is required")
	}
	q := url.Values{}
	if qty > 0 {
		q.Set("qty", strconv.Itoa(qty))
	}

	var sim PriceSimulation
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "products/" + url.PathEscape(productID) + "/price",
		query:    q,
		endpoint: "pricing.simulate",
		notFound: apierr.CodeProductNotFound,
	}, &sim)
	if err != nil {
		return nil, err
	}
	return &sim, nil
}
