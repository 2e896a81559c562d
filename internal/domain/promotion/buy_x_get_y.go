package promotion

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// Buy X get Y discount types.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// BuyXGetY grants a discount on Y units of get-eligible items for every X
// units of buy-eligible items in the order. Items may satisfy both
// condition sets, but a physical unit is never simultaneously bought and
// gotten: quantity consumed by a buy group is removed from the get pool
// and vice versa, in strict buy/get alternation.
type BuyXGetY struct {
	buyQuantity   decimal.Decimal
	getQuantity   decimal.Decimal
	buyConditions Condition
	getConditions Condition
	discountType  string
	percentage    string
	amount        money.Money
	deps          Deps
}

func newBuyXGetY(cfg OfferConfig, deps Deps) (Offer, error) {
	buyQty, err := parseQuantity(cfg.BuyQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "buy quantity")
	}
	getQty, err := parseQuantity(cfg.GetQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "get quantity")
	}
	buyConditions, err := BuildConditions(cfg.BuyConditions)
	if err != nil {
		return nil, errors.Wrap(err, "buy conditions")
	}
	getConditions, err := BuildConditions(cfg.GetConditions)
	if err != nil {
		return nil, errors.Wrap(err, "get conditions")
	}

	offer := &BuyXGetY{
		buyQuantity:   buyQty,
		getQuantity:   getQty,
		buyConditions: buyConditions,
		getConditions: getConditions,
		discountType:  cfg.DiscountType,
		percentage:    cfg.Percentage,
		amount:        cfg.Amount,
		deps:          deps,
	}
	switch cfg.DiscountType {
	case DiscountPercentage:
		if err := money.AssertNumeric(cfg.Percentage); err != nil {
			return nil, errors.Wrap(err, "discount percentage")
		}
	case DiscountFixedAmount:
		if cfg.Amount.IsEmpty() {
			return nil, errors.New("fixed amount discount requires an amount")
		}
	default:
		return nil, errors.Errorf("unknown discount type %q", cfg.DiscountType)
	}
	return offer, nil
}

func parseQuantity(s string) (decimal.Decimal, error) {
	if err := money.AssertNumeric(s); err != nil {
		return decimal.Decimal{}, err
	}
	qty, _ := decimal.NewFromString(s)
	if !qty.IsPositive() {
		return decimal.Decimal{}, errors.Errorf("quantity must be positive, got %s", s)
	}
	return qty, nil
}

// poolEntry tracks how much quantity of one order item remains available
// in a buy or get pool.
type poolEntry struct {
	item     *order.OrderItem
	quantity decimal.Decimal
}

type quantityPool []poolEntry

func (p quantityPool) total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range p {
		total = total.Add(e.quantity)
	}
	return total
}

// take slices the requested quantity off the front of the pool, splitting
// an entry across the boundary when needed. It returns the consumed
// (item id, quantity) pairs.
func (p *quantityPool) take(requested decimal.Decimal) map[string]decimal.Decimal {
	taken := make(map[string]decimal.Decimal)
	remaining := requested
	for remaining.IsPositive() && len(*p) > 0 {
		entry := &(*p)[0]
		if entry.quantity.GreaterThan(remaining) {
			taken[entry.item.ID] = taken[entry.item.ID].Add(remaining)
			entry.quantity = entry.quantity.Sub(remaining)
			return taken
		}
		taken[entry.item.ID] = taken[entry.item.ID].Add(entry.quantity)
		remaining = remaining.Sub(entry.quantity)
		*p = (*p)[1:]
	}
	return taken
}

// remove drops up to the given quantity of an item from the pool,
// regardless of its position.
func (p *quantityPool) remove(itemID string, quantity decimal.Decimal) {
	for idx := range *p {
		entry := &(*p)[idx]
		if entry.item.ID != itemID {
			continue
		}
		entry.quantity = entry.quantity.Sub(quantity)
		if !entry.quantity.IsPositive() {
			*p = append((*p)[:idx], (*p)[idx+1:]...)
		}
		return
	}
}

// Apply selects the buy and get pools, walks them in alternating buy/get
// slices with reciprocal exclusion, and discounts the accumulated get
// quantity per item.
func (f *BuyXGetY) Apply(ctx context.Context, o *order.Order, promo *Promotion) error {
	if f.discountType == DiscountFixedAmount && f.amount.CurrencyCode() != o.CurrencyCode() {
		return nil
	}
	buyPool, err := f.buildPool(o, f.buyConditions, sortMostExpensiveFirst)
	if err != nil {
		return err
	}
	// The discount must land on the customer's cheapest matching units,
	// so the get pool is consumed least-expensive-first.
	getPool, err := f.buildPool(o, f.getConditions, sortCheapestFirst)
	if err != nil {
		return err
	}
	if buyPool.total().LessThan(f.buyQuantity) {
		return nil
	}

	discounted := make(map[string]decimal.Decimal)
	for buyPool.total().GreaterThanOrEqual(f.buyQuantity) {
		buyGroup := buyPool.take(f.buyQuantity)
		// Units just bought cannot also be gotten.
		for id, qty := range buyGroup {
			getPool.remove(id, qty)
		}
		// No partial get cycles: when the remaining get pool cannot fill
		// a full get group, the promotion stops granting units.
		if getPool.total().LessThan(f.getQuantity) {
			break
		}
		getGroup := getPool.take(f.getQuantity)
		for id, qty := range getGroup {
			// Reciprocal exclusion: gotten units leave the buy pool too.
			buyPool.remove(id, qty)
			discounted[id] = discounted[id].Add(qty)
		}
	}

	return f.appendAdjustments(ctx, o, promo, discounted)
}

type sortOrder int

const (
	sortMostExpensiveFirst sortOrder = iota
	sortCheapestFirst
)

// buildPool selects the eligible items (non-zero post-adjustment total,
// matching the OR-combined conditions) and orders them for consumption.
// Price ties break on item id ascending for determinism.
func (f *BuyXGetY) buildPool(o *order.Order, cond Condition, ord sortOrder) (quantityPool, error) {
	pool := make(quantityPool, 0, len(o.Items))
	for _, item := range o.Items {
		adjusted, err := item.AdjustedTotalPrice(order.AdjustmentPromotion)
		if err != nil {
			return nil, err
		}
		if !adjusted.IsPositive() || !cond.Matches(item) {
			continue
		}
		pool = append(pool, poolEntry{item: item, quantity: item.Quantity})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		cmp := pool[i].item.UnitPrice.Decimal().Cmp(pool[j].item.UnitPrice.Decimal())
		if cmp == 0 {
			return pool[i].item.ID < pool[j].item.ID
		}
		if ord == sortMostExpensiveFirst {
			return cmp > 0
		}
		return cmp < 0
	})
	return pool, nil
}

// appendAdjustments discounts each accumulated (item, quantity) pair:
// a percentage of that quantity's total price, or the fixed amount per
// unit, rounded and capped at the quantity's total.
func (f *BuyXGetY) appendAdjustments(ctx context.Context, o *order.Order, promo *Promotion, discounted map[string]decimal.Decimal) error {
	for _, item := range o.Items {
		qty, ok := discounted[item.ID]
		if !ok || qty.IsZero() {
			continue
		}
		total, err := item.UnitPrice.Mul(qty.String())
		if err != nil {
			return err
		}

		var amount money.Money
		if f.discountType == DiscountPercentage {
			amount, err = total.Mul(f.percentage)
		} else {
			amount, err = f.amount.Mul(qty.String())
		}
		if err != nil {
			return err
		}
		amount, err = f.deps.Rounder.Round(ctx, amount)
		if err != nil {
			return err
		}
		amount, err = money.Min(amount, total)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			continue
		}

		adjustment := order.Adjustment{
			Type:     order.AdjustmentPromotion,
			Label:    promo.Label(),
			Amount:   amount.Negate(),
			SourceID: promo.ID,
		}
		if f.discountType == DiscountPercentage {
			adjustment.Percentage = f.percentage
		}
		item.AddAdjustment(adjustment)
	}
	return nil
}
