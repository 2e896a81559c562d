package promotion

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// OrderItemPercentageOff discounts each eligible order item by a percentage
// of its price including prior promotion adjustments, so stacked promotions
// compound instead of each discounting the full price.
type OrderItemPercentageOff struct {
	percentage string
	deps       Deps
}

func newOrderItemPercentageOff(cfg OfferConfig, deps Deps) (Offer, error) {
	if err := money.AssertNumeric(cfg.Percentage); err != nil {
		return nil, errors.Wrap(err, "percentage")
	}
	return &OrderItemPercentageOff{percentage: cfg.Percentage, deps: deps}, nil
}

// Apply appends one promotion adjustment per eligible item with a non-zero
// computed discount.
func (f *OrderItemPercentageOff) Apply(ctx context.Context, o *order.Order, promo *Promotion) error {
	eligible, err := BuildConditions(promo.Conditions)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		if !eligible.Matches(item) {
			continue
		}
		basis, err := item.AdjustedTotalPrice(order.AdjustmentPromotion)
		if err != nil {
			return err
		}
		amount, err := basis.Mul(f.percentage)
		if err != nil {
			return err
		}
		amount, err = f.deps.Rounder.Round(ctx, amount)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			continue
		}
		item.AddAdjustment(order.Adjustment{
			Type:       order.AdjustmentPromotion,
			Label:      promo.Label(),
			Amount:     amount.Negate(),
			SourceID:   promo.ID,
			Percentage: f.percentage,
		})
	}
	return nil
}

// OrderPercentageOff discounts the whole order by a percentage of its
// subtotal, distributing the amount across items with the splitter.
type OrderPercentageOff struct {
	percentage string
	deps       Deps
}

func newOrderPercentageOff(cfg OfferConfig, deps Deps) (Offer, error) {
	if err := money.AssertNumeric(cfg.Percentage); err != nil {
		return nil, errors.Wrap(err, "percentage")
	}
	return &OrderPercentageOff{percentage: cfg.Percentage, deps: deps}, nil
}

// Apply computes the discount off the subtotal, caps it at the order total
// so the total can never go negative, and appends one adjustment per item
// that received a non-zero share.
func (f *OrderPercentageOff) Apply(ctx context.Context, o *order.Order, promo *Promotion) error {
	subtotal, err := o.Subtotal()
	if err != nil {
		return err
	}
	if subtotal.IsEmpty() || !subtotal.IsPositive() {
		return nil
	}
	amount, err := subtotal.Mul(f.percentage)
	if err != nil {
		return err
	}
	amount, err = f.deps.Rounder.Round(ctx, amount)
	if err != nil {
		return err
	}
	amount, err = capAtOrderTotal(o, amount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return nil
	}

	shares, err := f.deps.Splitter.Split(ctx, o, amount, f.percentage)
	if err != nil {
		return err
	}
	appendShareAdjustments(o, shares, promo, f.percentage)
	return nil
}

// capAtOrderTotal clamps a discount amount to the order's current total.
func capAtOrderTotal(o *order.Order, amount money.Money) (money.Money, error) {
	total, err := o.TotalPrice()
	if err != nil {
		return money.Money{}, err
	}
	if total.IsEmpty() {
		return amount, nil
	}
	if total.IsNegative() {
		return money.MustNew("0", amount.CurrencyCode()), nil
	}
	return money.Min(amount, total)
}

// appendShareAdjustments appends one promotion adjustment per item with a
// non-zero share, walking the item list so adjustment order is
// deterministic.
func appendShareAdjustments(o *order.Order, shares map[string]money.Money, promo *Promotion, percentage string) {
	for _, item := range o.Items {
		share, ok := shares[item.ID]
		if !ok || share.IsZero() {
			continue
		}
		item.AddAdjustment(order.Adjustment{
			Type:       order.AdjustmentPromotion,
			Label:      promo.Label(),
			Amount:     share.Negate(),
			SourceID:   promo.ID,
			Percentage: percentage,
		})
	}
}
