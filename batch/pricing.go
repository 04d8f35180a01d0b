package batch

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keymarket/g2a-connect/g2a"
)

// PriceSimulator is the slice of the client the updater needs.
type PriceSimulator interface {
	Simulate(ctx context.Context, productID string, qty int) (*g2a.PriceSimulation, error)
}

// PriceUpdate is one requested price change. Current, when supplied,
// enables the delta optimization: an update whose target equals the
// known current price never leaves the process.
type PriceUpdate struct {
	ProductID string
	Target    decimal.Decimal
	Current   *decimal.Decimal
}

// PriceChange is the outcome for one product.
type PriceChange struct {
	ProductID string
	Price     decimal.Decimal
	// Applied means the change passed validation against the partner's
	// current quote.
	Applied bool
	// Skipped means the delta check found nothing to do; no remote call
	// was made.
	Skipped bool
	Reason  string
}

// PriceUpdater validates price changes against partner quotes in bulk.
type PriceUpdater struct {
	sim PriceSimulator
	cfg Config
}

// NewPriceUpdater creates a batch price updater.
func NewPriceUpdater(sim PriceSimulator, cfg Config) *PriceUpdater {
	return &PriceUpdater{sim: sim, cfg: cfg}
}

// Update processes every requested change. Unchanged prices are
// skipped without a partner call; the rest are quoted and then run
// through a validation pass before counting as applied.
func (u *PriceUpdater) Update(ctx context.Context, updates []PriceUpdate) Result[PriceChange] {
	result := Execute(ctx, u.cfg, updates, func(ctx context.Context, upd PriceUpdate) (PriceChange, error) {
		if upd.Current != nil && upd.Current.Equal(upd.Target) {
			return PriceChange{
				ProductID: upd.ProductID,
				Price:     upd.Target,
				Skipped:   true,
				Reason:    "price unchanged",
			}, nil
		}

		sim, err := u.sim.Simulate(ctx, upd.ProductID, 1)
		if err != nil {
			return PriceChange{}, err
		}
		return PriceChange{
			ProductID: upd.ProductID,
			Price:     sim.Price,
			Applied:   sim.Available,
		}, nil
	})

	validate(result.Success)
	return result
}

// validate is the pure second filtering stage: quotes that came back
// unavailable or non-positive are demoted to not-applied.
func validate(changes []PriceChange) {
	for i := range changes {
		if changes[i].Skipped {
			continue
		}
		if !changes[i].Applied {
			if changes[i].Reason == "" {
				changes[i].Reason = "product unavailable"
			}
			continue
		}
		if !changes[i].Price.IsPositive() {
			changes[i].Applied = false
			changes[i].Reason = "non-positive quote"
		}
	}
}
