package promotion

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// OrderFixedAmountOff discounts the whole order by a fixed amount,
// distributed across items with the splitter.
type OrderFixedAmountOff struct {
	amount money.Money
	deps   Deps
}

func newOrderFixedAmountOff(cfg OfferConfig, deps Deps) (Offer, error) {
	if cfg.Amount.IsEmpty() {
		return nil, errors.New("fixed amount offer requires an amount")
	}
	return &OrderFixedAmountOff{amount: cfg.Amount, deps: deps}, nil
}

// Apply caps the configured amount at the order total and appends one
// adjustment per item that received a non-zero share. Orders in a
// different currency than the configured amount are left untouched.
func (f *OrderFixedAmountOff) Apply(ctx context.Context, o *order.Order, promo *Promotion) error {
	if o.CurrencyCode() != f.amount.CurrencyCode() {
		return nil
	}
	amount, err := capAtOrderTotal(o, f.amount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return nil
	}

	shares, err := f.deps.Splitter.Split(ctx, o, amount, "")
	if err != nil {
		return err
	}
	appendShareAdjustments(o, shares, promo, "")
	return nil
}

// OrderItemFixedAmountOff discounts each eligible order item by a fixed
// amount per unit. In display-inclusive mode the unit price itself is
// reduced (never below zero) and the adjustment is marked included; in
// exclusive mode the price stays and an itemized adjustment is appended.
type OrderItemFixedAmountOff struct {
	amount           money.Money
	displayInclusive bool
	deps             Deps
}

func newOrderItemFixedAmountOff(cfg OfferConfig, deps Deps) (Offer, error) {
	if cfg.Amount.IsEmpty() {
		return nil, errors.New("fixed amount offer requires an amount")
	}
	return &OrderItemFixedAmountOff{
		amount:           cfg.Amount,
		displayInclusive: cfg.DisplayInclusive,
		deps:             deps,
	}, nil
}

// Apply discounts every eligible item, skipping items in other currencies
// and items where the computed discount comes out zero.
func (f *OrderItemFixedAmountOff) Apply(ctx context.Context, o *order.Order, promo *Promotion) error {
	eligible, err := BuildConditions(promo.Conditions)
	if err != nil {
		return err
	}

	for _, item := range o.Items {
		if !eligible.Matches(item) {
			continue
		}
		if item.UnitPrice.CurrencyCode() != f.amount.CurrencyCode() {
			continue
		}
		if f.displayInclusive {
			err = f.applyInclusive(ctx, item, promo)
		} else {
			err = f.applyExclusive(ctx, item, promo)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyInclusive subtracts the per-unit discount from the unit price
// directly, capped so the unit price never goes negative. The itemized
// adjustment records delta × quantity and is marked included since it is
// already folded into the price.
func (f *OrderItemFixedAmountOff) applyInclusive(ctx context.Context, item *order.OrderItem, promo *Promotion) error {
	delta, err := money.Min(f.amount, item.UnitPrice)
	if err != nil {
		return err
	}
	if !delta.IsPositive() {
		return nil
	}
	reduced, err := item.UnitPrice.Sub(delta)
	if err != nil {
		return err
	}
	item.SetUnitPrice(reduced)

	amount, err := delta.Mul(item.Quantity.String())
	if err != nil {
		return err
	}
	amount, err = f.deps.Rounder.Round(ctx, amount)
	if err != nil {
		return err
	}
	item.AddAdjustment(order.Adjustment{
		Type:     order.AdjustmentPromotion,
		Label:    promo.Label(),
		Amount:   amount.Negate(),
		SourceID: promo.ID,
		Included: true,
	})
	return nil
}

// applyExclusive appends an adjustment of amount × quantity. The per-unit
// discount is capped at the item's promotion-adjusted unit price, so
// stacked offers stop once the item is fully discounted.
func (f *OrderItemFixedAmountOff) applyExclusive(ctx context.Context, item *order.OrderItem, promo *Promotion) error {
	basis, err := item.AdjustedUnitPrice(order.AdjustmentPromotion)
	if err != nil {
		return err
	}
	delta, err := money.Min(f.amount, basis)
	if err != nil {
		return err
	}
	if !delta.IsPositive() {
		return nil
	}
	amount, err := delta.Mul(item.Quantity.String())
	if err != nil {
		return err
	}
	amount, err = f.deps.Rounder.Round(ctx, amount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return nil
	}
	item.AddAdjustment(order.Adjustment{
		Type:     order.AdjustmentPromotion,
		Label:    promo.Label(),
		Amount:   amount.Negate(),
		SourceID: promo.ID,
	})
	return nil
}
