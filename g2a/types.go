package g2a

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WireTimeFormat is the fixed timestamp format the partner API speaks.
// Second granularity; comparisons must not assume sub-second precision.
const WireTimeFormat = "2006-01-02 15:04:05"

// WireTime wraps time.Time with the partner's JSON representation.
type WireTime struct {
	time.Time
}

// NewWireTime truncates t to the wire format's second granularity.
func NewWireTime(t time.Time) WireTime {
	return WireTime{t.UTC().Truncate(time.Second)}
}

func (w WireTime) MarshalJSON() ([]byte, error) {
	if w.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(w.UTC().Format(WireTimeFormat))
}

func (w *WireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		w.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(WireTimeFormat, s)
	if err != nil {
		return fmt.Errorf("g2a: invalid wire timestamp %q: %w", s, err)
	}
	w.Time = t
	return nil
}

// Category is a product category reference.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product mirrors the partner catalog resource. The client holds only
// transient copies fetched per call; persistence is the caller's
// concern.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	Type       string          `json:"type"`
	Qty        int             `json:"qty"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	Currency   string          `json:"currency"`
	Thumbnail  string          `json:"thumbnail"`
	CoverImage string          `json:"coverImage"`
	Images     []string        `json:"images,omitempty"`
	Categories []Category      `json:"categories,omitempty"`
	Platform   string          `json:"platform"`
	Region     string          `json:"region"`
	CreatedAt  WireTime        `json:"createdAt"`
	UpdatedAt  WireTime        `json:"updatedAt"`
}

// ProductPage is one page of the paginated catalog listing.
type ProductPage struct {
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Products []Product `json:"docs"`
}

// Offer is a seller listing on the Export API.
type Offer struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Quantity  int             `json:"quantity"`
	Active    bool            `json:"active"`
	CreatedAt WireTime        `json:"createdAt"`
	UpdatedAt WireTime        `json:"updatedAt"`
}

// OfferPage is one page of the seller's offer listing.
type OfferPage struct {
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Offers []Offer `json:"docs"`
}

// OfferRequest creates or updates an offer.
type OfferRequest struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency,omitempty"`
	Quantity  int             `json:"quantity"`
	Active    *bool           `json:"active,omitempty"`
}

// InventoryKind discriminates the two inventory payload shapes the
// partner accepts. The kind is decided at the call boundary, never by
// inspecting the payload at runtime.
type InventoryKind int

const (
	// InventoryKeys delivers game keys inline as a string array.
	InventoryKeys InventoryKind = iota + 1
	// InventoryFile points the partner at an uploaded key file.
	InventoryFile
)

// Inventory is the tagged payload for offer inventory updates. Exactly
// the field matching Kind is consulted.
type Inventory struct {
	Kind    InventoryKind
	Keys    []string
	FileURL string
}

// Validate checks that the payload matches its kind.
func (inv Inventory) Validate() error {
	switch inv.Kind {
	case InventoryKeys:
		if len(inv.Keys) == 0 {
			return fmt.Errorf("g2a: keys inventory requires at least one key")
		}
		if inv.FileURL != "" {
			return fmt.Errorf("g2a: keys inventory must not carry a file URL")
		}
	case InventoryFile:
		if inv.FileURL == "" {
			return fmt.Errorf("g2a: file inventory requires a file URL")
		}
		if len(inv.Keys) > 0 {
			return fmt.Errorf("g2a: file inventory must not carry inline keys")
		}
	default:
		return fmt.Errorf("g2a: unknown inventory kind %d", inv.Kind)
	}
	return nil
}

func (inv Inventory) MarshalJSON() ([]byte, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	switch inv.Kind {
	case InventoryFile:
		return json.Marshal(struct {
			FileURL string `json:"fileUrl"`
		}{inv.FileURL})
	default:
		return json.Marshal(struct {
			Keys []string `json:"keys"`
		}{inv.Keys})
	}
}

// Order statuses reported by the partner.
const (
	OrderStatusNew      = "new"
	OrderStatusPaid     = "paid"
	OrderStatusComplete = "complete"
	OrderStatusCanceled = "canceled"
)

// Order is a purchase on the Import API.
type Order struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	CreatedAt WireTime        `json:"createdAt"`
}

// OrderRequest creates an order for a single product.
type OrderRequest struct {
	ProductID string          `json:"productId"`
	Currency  string          `json:"currency,omitempty"`
	// MaxPrice aborts the purchase when the partner price moved above
	// it. Zero means no bound.
	MaxPrice decimal.Decimal `json:"maxPrice,omitempty"`
}

// Reservation holds inventory for a pending checkout.
type Reservation struct {
	ID        string   `json:"id"`
	OfferID   string   `json:"offerId"`
	Quantity  int      `json:"quantity"`
	Status    string   `json:"status"`
	ExpiresAt WireTime `json:"expiresAt"`
}

// Reservation statuses.
const (
	ReservationStatusPending  = "pending"
	ReservationStatusReady    = "ready"
	ReservationStatusReleased = "released"
	ReservationStatusExpired  = "expired"
)

// ReservationRequest reserves quantity units of an offer.
type ReservationRequest struct {
	OfferID  string `json:"offerId"`
	Quantity int    `json:"quantity"`
}

// Job statuses for asynchronous partner operations.
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

// Job tracks an asynchronous partner-side operation, such as an offer
// import.
type Job struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Message    string          `json:"message,omitempty"`
	ResourceID string          `json:"resourceId,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	CreatedAt  WireTime        `json:"createdAt"`
	FinishedAt WireTime        `json:"finishedAt"`
}

// Terminal reports whether the job reached a final status.
func (j Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Bestseller is one entry of the partner's bestselling products feed.
type Bestseller struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

// PriceSimulation is the partner's quote for buying a product now.
type PriceSimulation struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Available bool            `json:"available"`
}
