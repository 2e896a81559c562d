package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-core/internal/domain/money"
)

// OrderItem is one line of an order: a purchasable (optional), a decimal
// quantity, and prices. TotalPrice is derived from UnitPrice and Quantity;
// mutate those through SetQuantity and SetUnitPrice so it stays consistent.
type OrderItem struct {
	ID          string
	OrderID     string
	Type        string
	PurchasedID string
	Title       string
	Quantity    decimal.Decimal
	UnitPrice   money.Money
	TotalPrice  money.Money
	Adjustments []Adjustment
	// Attributes carries custom comparison data (for example an engraving
	// text) consulted by the cart item matcher's extended field set.
	Attributes map[string]string
}

// NewItem creates an order item with a derived total price. Quantity must be
// a plain decimal string; fractional quantities are supported.
func NewItem(itemType, purchasedID, title, quantity string, unitPrice money.Money) (*OrderItem, error) {
	if err := money.AssertNumeric(quantity); err != nil {
		return nil, err
	}
	qty, _ := decimal.NewFromString(quantity)
	item := &OrderItem{
		ID:          uuid.New().String(),
		Type:        itemType,
		PurchasedID: purchasedID,
		Title:       title,
		Quantity:    qty,
		UnitPrice:   unitPrice,
	}
	item.recalculateTotal()
	return item, nil
}

func (i *OrderItem) recalculateTotal() {
	total, err := i.UnitPrice.Mul(i.Quantity.String())
	if err != nil {
		// UnitPrice and Quantity are validated on the way in, so a failure
		// here means the item was mutated behind the setters.
		panic(err)
	}
	i.TotalPrice = total
}

// SetQuantity updates the quantity and recomputes the total price.
func (i *OrderItem) SetQuantity(quantity decimal.Decimal) {
	i.Quantity = quantity
	i.recalculateTotal()
}

// SetUnitPrice updates the unit price and recomputes the total price.
func (i *OrderItem) SetUnitPrice(unitPrice money.Money) {
	i.UnitPrice = unitPrice
	i.recalculateTotal()
}

// AddAdjustment appends an adjustment to the item.
func (i *OrderItem) AddAdjustment(a Adjustment) {
	i.Adjustments = append(i.Adjustments, a)
}

// RemoveAdjustments drops all adjustments matching the given types.
// With no types given, every adjustment is removed.
func (i *OrderItem) RemoveAdjustments(types ...AdjustmentType) {
	kept := i.Adjustments[:0]
	for _, a := range i.Adjustments {
		if !a.matchesType(types) {
			kept = append(kept, a)
		}
	}
	i.Adjustments = kept
}

// AdjustedTotalPrice returns the total price plus the sum of all
// non-included adjustments matching the given types (all types when empty).
func (i *OrderItem) AdjustedTotalPrice(types ...AdjustmentType) (money.Money, error) {
	sum, err := SumAdjustments(i.Adjustments, i.UnitPrice.CurrencyCode(), types...)
	if err != nil {
		return money.Money{}, err
	}
	return i.TotalPrice.Add(sum)
}

// AdjustedUnitPrice returns the adjusted total price divided by the
// quantity, used when a discount basis has to be expressed per unit.
func (i *OrderItem) AdjustedUnitPrice(types ...AdjustmentType) (money.Money, error) {
	adjusted, err := i.AdjustedTotalPrice(types...)
	if err != nil {
		return money.Money{}, err
	}
	if i.Quantity.IsZero() {
		return i.UnitPrice, nil
	}
	return adjusted.Div(i.Quantity.String())
}
