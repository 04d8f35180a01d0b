package g2a

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/keymarket/g2a-connect/apierr"
)

// Partner sub-codes for payment outcomes. They arrive under the same
// HTTP status, so branching happens at the sub-code level.
const (
	subCodePaymentInProgress = "order_payment_in_progress"
	subCodeInsufficientFunds = "insufficient_funds"
	subCodePaymentTooLate    = "payment_too_late"

	// SubCodeKeyAlreadyDownloaded marks a second key fetch for the same
	// order. Distinct from the order not existing at all.
	SubCodeKeyAlreadyDownloaded = "key_already_downloaded"
)

// defaultPayRetryDelay is the fixed pause before the single Pay retry
// when the partner reports payment processing still in progress.
const defaultPayRetryDelay = 2 * time.Second

// OrdersService creates and pays purchases and downloads keys.
type OrdersService struct {
	t             *transport
	payRetryDelay time.Duration
}

// Create places an order for a product.
func (s *OrdersService) Create(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.ProductID == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "product id is required")
	}
	var order Order
	err := s.t.do(ctx, request{
		method:   http.MethodPost,
		path:     "order",
		body:     req,
		endpoint: "orders.create",
		notFound: apierr.CodeProductNotFound,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Get fetches order details.
func (s *OrdersService) Get(ctx context.Context, id string) (*Order, error) {
	if id == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "order id is required")
	}
	var order Order
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "order/details/" + url.PathEscape(id),
		endpoint: "orders.get",
		notFound: apierr.CodeOrderNotFound,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Pay triggers payment for an order.
//
// The partner distinguishes payment outcomes by sub-code, not status:
// "order_payment_in_progress" means the payment pipeline has not caught
// up yet and is worth exactly one more attempt after a fixed delay;
// "insufficient_funds" and "payment_too_late" are terminal and fail
// immediately.
func (s *OrdersService) Pay(ctx context.Context, id string) error {
	if id == "" {
		return apierr.New(apierr.CodeInvalidRequest, "order id is required")
	}

	err := s.payOnce(ctx, id)
	if err == nil || apierr.SubCodeOf(err) != subCodePaymentInProgress {
		return err
	}

	if serr := sleepCtx(ctx, s.payRetryDelay); serr != nil {
		return apierr.Wrap(apierr.CodeTimeout, "payment retry cancelled", serr)
	}
	return s.payOnce(ctx, id)
}

func (s *OrdersService) payOnce(ctx context.Context, id string) error {
	return s.t.do(ctx, request{
		method:   http.MethodPut,
		path:     "order/pay/" + url.PathEscape(id),
		endpoint: "orders.pay",
		notFound: apierr.CodeOrderNotFound,
	}, nil)
}

type orderKeyResponse struct {
	Key string `json:"key"`
}

// GetKey downloads the purchased game key. The partner serves a key
// exactly once; a repeat fetch fails with the
// SubCodeKeyAlreadyDownloaded sub-code, which is distinct from the
// order not being found.
func (s *OrdersService) GetKey(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", apierr.New(apierr.CodeInvalidRequest, "order id is required")
	}
	var resp orderKeyResponse
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "order/key/" + url.PathEscape(id),
		endpoint: "orders.getkey",
		notFound: apierr.CodeOrderNotFound,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Key, nil
}

// IsKeyAlreadyDownloaded reports whether err is the repeat key fetch
// failure.
func IsKeyAlreadyDownloaded(err error) bool {
	return apierr.SubCodeOf(err) == SubCodeKeyAlreadyDownloaded
}
