package g2a

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/keymarket/g2a-connect/apierr"
)

// OffersService manages the seller's listings on the Export API. All
// calls use the signature auth scheme. Mutations are asynchronous on
// the partner side and return a Job to track.
type OffersService struct {
	t *transport
}

// List fetches one page of the seller's offers.
func (s *OffersService) List(ctx context.Context, page int) (*OfferPage, error) {
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var result OfferPage
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "offers",
		query:    q,
		endpoint: "offers.list",
		scheme:   authSignature,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches a single offer.
func (s *OffersService) Get(ctx context.Context, id string) (*Offer, error) {
	if id == "" {
		return nil, apierr.New(apierr.CodeInvalidRequest, "offer id is required")
	}
	var offer Offer
	err := s.t.do(ctx, request{
		method:   http.MethodGet,
		path:     "offers/" + url.PathEscape(id),
		endpoint: "offers.get",
		notFound: apierr.CodeProductNotFound,
		scheme:   authSignature,
	}, &offer)
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

type jobAccepted struct {
	JobID string `json:"jobId"`
}

// Create submits a new offer. The partner processes it asynchronously;
// the returned job id feeds Jobs.WaitForCompletion.
func (s *OffersService) Create(ctx context.Context, req OfferRequest) (string, error) {
	if req.ProductID == "" {
		return "", apierr.New(apierr.CodeInvalidRequest, "product id is required")
	}
	if req.Quantity < 0 {
		return "", apierr.New(apierr.CodeInvalidRequest, "quantity must not be negative")
	}

	var resp jobAccepted
	err := s.t.do(ctx, request{
		method:   http.MethodPost,
		path:     "offers",
		body:     req,
		endpoint: "offers.create",
		scheme:   authSignature,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// Update modifies an existing offer. Asynchronous like Create.
func (s *OffersService) Update(ctx context.Context, id string, req OfferRequest) (string, error) {
	if id == "" {
		return "", apierr.New(apierr.CodeInvalidRequest, "offer id is required")
	}
	var resp jobAccepted
	err := s.t.do(ctx, request{
		method:   http.MethodPatch,
		path:     "offers/" + url.PathEscape(id),
		body:     req,
		endpoint: "offers.update",
		notFound: apierr.CodeProductNotFound,
		scheme:   authSignature,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// Delete removes an offer.
func (s *OffersService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apierr.New(apierr.CodeInvalidRequest, "offer id is required")
	}
	return s.t.do(ctx, request{
		method:   http.MethodDelete,
		path:     "offers/" + url.PathEscape(id),
		endpoint: "offers.delete",
		notFound: apierr.CodeProductNotFound,
		scheme:   authSignature,
	}, nil)
}

// UpdateInventory replaces an offer's key inventory. The payload shape
// is decided by inv.Kind at this boundary: inline keys or an uploaded
// file reference, never both.
func (s *OffersService) UpdateInventory(ctx context.Context, id string, inv Inventory) (string, error) {
	if id == "" {
		return "", apierr.New(apierr.CodeInvalidRequest, "offer id is required")
	}
	if err := inv.Validate(); err != nil {
		return "", apierr.Wrap(apierr.CodeInvalidRequest, "invalid inventory payload", err)
	}

	var resp jobAccepted
	err := s.t.do(ctx, request{
		method:   http.MethodPost,
		path:     "offers/" + url.PathEscape(id) + "/inventory",
		body:     inv,
		endpoint: "offers.inventory",
		notFound: apierr.CodeProductNotFound,
		scheme:   authSignature,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}
