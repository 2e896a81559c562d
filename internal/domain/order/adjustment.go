package order

import "github.com/xenking/commerce-core/internal/domain/money"

// AdjustmentType classifies a priced modifier attached to an order or an
// order item.
type AdjustmentType string

const (
	// AdjustmentPromotion is a promotional discount (usually negative).
	AdjustmentPromotion AdjustmentType = "promotion"
	// AdjustmentTax is a tax charge.
	AdjustmentTax AdjustmentType = "tax"
	// AdjustmentFee is an extra fee (shipping, handling).
	AdjustmentFee AdjustmentType = "fee"
	// AdjustmentCustom is a caller-defined modifier.
	AdjustmentCustom AdjustmentType = "custom"
)

// Adjustment is an immutable priced modifier. Included marks an adjustment
// already folded into the unit price (display-inclusive) as opposed to a
// separately itemized one.
type Adjustment struct {
	Type       AdjustmentType `json:"type"`
	Label      string         `json:"label"`
	Amount     money.Money    `json:"amount"`
	SourceID   string         `json:"source_id,omitempty"`
	Percentage string         `json:"percentage,omitempty"`
	Included   bool           `json:"included,omitempty"`
}

// IsCharge reports whether the adjustment increases the price.
func (a Adjustment) IsCharge() bool { return a.Amount.IsPositive() }

// IsCredit reports whether the adjustment decreases the price.
func (a Adjustment) IsCredit() bool { return a.Amount.IsNegative() }

// matchesType reports whether the adjustment matches any of the given
// types. An empty filter matches everything.
func (a Adjustment) matchesType(types []AdjustmentType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if a.Type == t {
			return true
		}
	}
	return false
}

// SumAdjustments adds up the amounts of all non-included adjustments
// matching the given types, in the given currency. Included adjustments are
// skipped since they are already part of the unit price.
func SumAdjustments(adjustments []Adjustment, currencyCode string, types ...AdjustmentType) (money.Money, error) {
	sum := money.MustNew("0", currencyCode)
	for _, a := range adjustments {
		if a.Included || !a.matchesType(types) {
			continue
		}
		var err error
		sum, err = sum.Add(a.Amount)
		if err != nil {
			return money.Money{}, err
		}
	}
	return sum, nil
}
