package g2a

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/keymarket/g2a-connect/apierr"
)

// Polling defaults for WaitForInventoryReady.
const (
	defaultReservationPoll    = 500 * time.Millisecond
	defaultReservationMaxWait = 30 * time.Second
)

// ReservationsService holds inventory during checkout. Every call runs
// under the fixed reservation timeout rather than the global request
// timeout; the partner's reservation window is short and a slow call is
// as good as a failed one.
type ReservationsService struct {
	t *transport
}

// Create reserves quantity units of an offer.
func (s *ReservationsService) Create(ctx context.Context, req ReservationRequest) (*Reservation, error) {
	if req.OfferID == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "offer id is required")
	}
	if req.Quantity <= 0 {
		return nil, apierr.New(apierr.CodeInvalidRequest, "quantity must be positive")
	}

	var res Reservation
	err := s.t.do(ctx, request{
		method:   http.MethodPost,
		path:     "reservations",
		body:     req,
		endpoint: "reservations.create",
		notFound: apierr.CodeProductNotFound,
		tight:    true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Get fetches the reservation's current state.
func (s *ReservationsService) Get(ctx context.Context, id string) (*Reservation, error) {
	if id == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "reservation id is required")
	}
	var res Reservation
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "reservations/" + url.PathEscape(id),
		endpoint: "reservations.get",
		notFound: apierr.CodeOrderNotFound,
		tight:    true,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Release frees a reservation before it expires.
func (s *ReservationsService) Release(ctx context.Context, id string) error {
	if id == "" {
		return apierr.New(apierr.CodeInvalidRequest, "reservation id is required")
	}
	return s.t.do(ctx, request{
		method:   http.MethodDelete,
		path:     "reservations/" + url.PathEscape(id),
		endpoint: "reservations.release",
		notFound: apierr.CodeOrderNotFound,
		tight:    true,
	}, nil)
}

// WaitForInventoryReady polls the reservation at pollInterval until it
// reports ready, fails terminally, or maxWait elapses. The wait is
// always bounded; hitting the bound raises a timeout-class error.
func (s *ReservationsService) WaitForInventoryReady(ctx context.Context, id string, pollInterval, maxWait time.Duration) (*Reservation, error) {
	if pollInterval <= 0 {
		pollInterval = defaultReservationPoll
	}
	if maxWait <= 0 {
		maxWait = defaultReservationMaxWait
	}
	deadline := time.Now().Add(maxWait)

	for {
		res, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		switch res.Status {
		case ReservationStatusReady:
			return res, nil
		case ReservationStatusExpired, ReservationStatusReleased:
			return nil, apierr.New(apierr.CodeOutOfStock, "reservation no longer holds inventory").
				WithContext("reservation_id", id).
				WithContext("status", res.Status)
		}

		if time.Now().Add(pollInterval).After(deadline) {
			return nil, apierr.New(apierr.CodeTimeout, "reservation did not become ready in time").
				WithContext("reservation_id", id).
				WithContext("max_wait", maxWait.String())
		}
		if err := sleepCtx(ctx, pollInterval); err != nil {
			return nil, apierr.Wrap(apierr.CodeTimeout, "reservation wait cancelled", err)
		}
	}
}
