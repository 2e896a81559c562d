// Package order defines the order/cart data model: orders, order items,
// adjustments, and the persistence collaborator interface. The structures
// are plain data owned by the caller; nothing here lazy-loads from storage.
package order

import (
	"time"

	"github.com/xenking/commerce-core/internal/domain/money"
)

// Order states. A draft order is a cart; a completed order has been placed.
const (
	StateDraft     = "draft"
	StateCompleted = "completed"
)

// Order is a customer's selection of items plus order-level adjustments.
// Item order is insertion order and is significant: the splitter's
// remainder rule and display both depend on it.
type Order struct {
	ID           string
	Type         string
	StoreID      string
	CustomerID   string
	State        string
	CheckoutStep string
	Items        []*OrderItem
	Adjustments  []Adjustment
	// CouponCodes are the promotion coupon codes applied to this order.
	CouponCodes []string
	PlacedAt    time.Time
	CreatedAt   time.Time
}

// HasCouponCode reports whether the given code is applied to the order.
func (o *Order) HasCouponCode(code string) bool {
	for _, c := range o.CouponCodes {
		if c == code {
			return true
		}
	}
	return false
}

// IsDraft reports whether the order is still a mutable cart.
func (o *Order) IsDraft() bool { return o.State == StateDraft }

// IsAnonymous reports whether the order has no owning customer account.
func (o *Order) IsAnonymous() bool { return o.CustomerID == "" }

// CurrencyCode returns the currency of the order's items, or empty for an
// order with no items.
func (o *Order) CurrencyCode() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].UnitPrice.CurrencyCode()
}

// Subtotal returns the sum of all item total prices. An order with no items
// returns an empty Money.
func (o *Order) Subtotal() (money.Money, error) {
	if len(o.Items) == 0 {
		return money.Money{}, nil
	}
	sum := money.MustNew("0", o.CurrencyCode())
	for _, item := range o.Items {
		var err error
		sum, err = sum.Add(item.TotalPrice)
		if err != nil {
			return money.Money{}, err
		}
	}
	return sum, nil
}

// TotalPrice returns the subtotal plus every non-included item-level and
// order-level adjustment.
func (o *Order) TotalPrice() (money.Money, error) {
	subtotal, err := o.Subtotal()
	if err != nil || subtotal.IsEmpty() {
		return subtotal, err
	}
	total := subtotal
	for _, item := range o.Items {
		sum, err := SumAdjustments(item.Adjustments, total.CurrencyCode())
		if err != nil {
			return money.Money{}, err
		}
		total, err = total.Add(sum)
		if err != nil {
			return money.Money{}, err
		}
	}
	orderSum, err := SumAdjustments(o.Adjustments, total.CurrencyCode())
	if err != nil {
		return money.Money{}, err
	}
	return total.Add(orderSum)
}

// ResetCheckoutStep clears checkout progress. Every cart mutation calls
// this: stale checkout state referencing changed order content must never
// be trusted.
func (o *Order) ResetCheckoutStep() { o.CheckoutStep = "" }

// AddAdjustment appends an order-level adjustment.
func (o *Order) AddAdjustment(a Adjustment) {
	o.Adjustments = append(o.Adjustments, a)
}

// RemoveAdjustments drops order-level and item-level adjustments matching
// the given types (all when empty).
func (o *Order) RemoveAdjustments(types ...AdjustmentType) {
	kept := o.Adjustments[:0]
	for _, a := range o.Adjustments {
		if !a.matchesType(types) {
			kept = append(kept, a)
		}
	}
	o.Adjustments = kept
	for _, item := range o.Items {
		item.RemoveAdjustments(types...)
	}
}

// AppendItem adds the item to the end of the order's item list and binds it
// to this order.
func (o *Order) AppendItem(item *OrderItem) {
	item.OrderID = o.ID
	o.Items = append(o.Items, item)
}

// RemoveItem deletes the item with the given id from the order's item list.
// It returns false when the id is not present.
func (o *Order) RemoveItem(itemID string) bool {
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			return true
		}
	}
	return false
}

// FindItem returns the item with the given id, or nil.
func (o *Order) FindItem(itemID string) *OrderItem {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}
