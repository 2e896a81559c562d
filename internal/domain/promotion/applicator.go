package promotion

import (
	"context"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// Applicator recomputes an order's promotion adjustments. Each run starts
// from a clean slate: all existing promotion adjustments are removed and
// every applicable promotion is applied again in weight order, so the
// result depends only on the current order contents and configuration.
type Applicator struct {
	promotions Repository
	offers     *Registry
	now        func() time.Time
}

func NewApplicator(promotions Repository, offers *Registry) *Applicator {
	return &Applicator{
		promotions: promotions,
		offers:     offers,
		now:        time.Now,
	}
}

// Apply strips the order's promotion adjustments and reapplies every
// available promotion for its order type. Promotions gated on coupon codes
// are skipped unless the order carries one of their codes.
func (a *Applicator) Apply(ctx context.Context, o *order.Order) error {
	o.RemoveAdjustments(order.AdjustmentPromotion)

	promos, err := a.promotions.LoadEnabled(ctx, o.Type)
	if err != nil {
		return errors.Wrap(err, "load promotions")
	}

	now := a.now()
	applicable := make([]*Promotion, 0, len(promos))
	for _, promo := range promos {
		if !promo.Available(now) {
			continue
		}
		ok, err := a.couponSatisfied(ctx, promo, o)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		applicable = append(applicable, promo)
	}
	sort.SliceStable(applicable, func(i, j int) bool {
		if applicable[i].Weight != applicable[j].Weight {
			return applicable[i].Weight < applicable[j].Weight
		}
		return applicable[i].ID < applicable[j].ID
	})

	for _, promo := range applicable {
		offer, err := a.offers.Build(promo)
		if err != nil {
			return errors.Wrapf(err, "build offer for promotion %s", promo.ID)
		}
		if err := offer.Apply(ctx, o, promo); err != nil {
			return errors.Wrapf(err, "apply promotion %s", promo.ID)
		}
		zctx.From(ctx).Debug("Applied promotion",
			zap.String("promotion_id", promo.ID),
			zap.String("order_id", o.ID),
		)
	}
	return nil
}

// couponSatisfied checks coupon gating. Inline codes are matched directly;
// a promotion that requires a coupon without listing codes inline (bulk
// ingested codes) resolves the order's codes through the repository.
func (a *Applicator) couponSatisfied(ctx context.Context, promo *Promotion, o *order.Order) (bool, error) {
	if !promo.CouponRequired && len(promo.CouponCodes) == 0 {
		return true, nil
	}
	for _, code := range promo.CouponCodes {
		if o.HasCouponCode(code) {
			return true, nil
		}
	}
	for _, code := range o.CouponCodes {
		owner, err := a.promotions.FindByCouponCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return false, errors.Wrapf(err, "resolve coupon code %q", code)
		}
		if owner.ID == promo.ID {
			return true, nil
		}
	}
	return false, nil
}

// Notify makes the applicator a cart observer: any cart mutation triggers
// a full repricing of the affected order before it is persisted.
func (a *Applicator) Notify(ctx context.Context, event cart.Event) error {
	return a.Apply(ctx, event.EventOrder())
}

var _ cart.Observer = (*Applicator)(nil)
