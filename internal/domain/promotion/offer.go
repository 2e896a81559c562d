package promotion

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/pricing"
)

// Registered offer ids.
const (
	OfferOrderPercentageOff      = "order_percentage_off"
	OfferOrderItemPercentageOff  = "order_item_percentage_off"
	OfferOrderFixedAmountOff     = "order_fixed_amount_off"
	OfferOrderItemFixedAmountOff = "order_item_fixed_amount_off"
	OfferBuyXGetY                = "order_buy_x_get_y"
)

// Offer is a promotion pricing strategy. Apply mutates the order by
// appending adjustments; except for the display-inclusive fixed-amount
// mode, offers never touch price fields directly.
type Offer interface {
	Apply(ctx context.Context, o *order.Order, promo *Promotion) error
}

// Deps are the collaborators injected into offer constructors.
type Deps struct {
	Rounder  *currency.Rounder
	Splitter *pricing.Splitter
}

// OfferFactory builds an offer strategy from a promotion's offer config.
type OfferFactory func(cfg OfferConfig, deps Deps) (Offer, error)

// Registry maps offer ids to their constructors: a closed strategy table
// extensible through Register rather than runtime plugin discovery.
type Registry struct {
	deps      Deps
	factories map[string]OfferFactory
}

// NewRegistry creates a registry with every built-in offer registered.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{
		deps:      deps,
		factories: make(map[string]OfferFactory),
	}
	r.Register(OfferOrderPercentageOff, newOrderPercentageOff)
	r.Register(OfferOrderItemPercentageOff, newOrderItemPercentageOff)
	r.Register(OfferOrderFixedAmountOff, newOrderFixedAmountOff)
	r.Register(OfferOrderItemFixedAmountOff, newOrderItemFixedAmountOff)
	r.Register(OfferBuyXGetY, newBuyXGetY)
	return r
}

// Register adds or replaces an offer constructor.
func (r *Registry) Register(id string, factory OfferFactory) {
	r.factories[id] = factory
}

// Build instantiates the offer strategy for a promotion.
func (r *Registry) Build(promo *Promotion) (Offer, error) {
	factory, ok := r.factories[promo.OfferID]
	if !ok {
		return nil, errors.Errorf("unknown offer %q", promo.OfferID)
	}
	offer, err := factory(promo.Offer, r.deps)
	if err != nil {
		return nil, errors.Wrapf(err, "build offer %q", promo.OfferID)
	}
	return offer, nil
}
