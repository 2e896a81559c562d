// Package promotion implements the offer engine: promotion configuration,
// offer strategies (percentage off, fixed amount off, buy X get Y), item
// eligibility conditions, and the applicator that recomputes an order's
// promotion adjustments whenever its contents change.
package promotion

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/commerce-core/internal/domain/money"
)

// ErrNotFound is returned when a requested promotion does not exist.
var ErrNotFound = errors.New("promotion not found")

// DefaultLabel is the adjustment label used when a promotion has no display
// name of its own.
const DefaultLabel = "Discount"

// OfferConfig carries the offer-specific parameters of a promotion. Which
// fields matter depends on the offer: percentage offers read Percentage (a
// fraction, "0.1" for 10%), fixed-amount offers read Amount, buy X get Y
// reads the quantities, the condition sets, and the discount fields.
type OfferConfig struct {
	Percentage       string      `json:"percentage,omitempty"`
	Amount           money.Money `json:"amount"`
	DisplayInclusive bool        `json:"display_inclusive,omitempty"`

	BuyQuantity   string          `json:"buy_quantity,omitempty"`
	GetQuantity   string          `json:"get_quantity,omitempty"`
	BuyConditions []ConditionSpec `json:"buy_conditions,omitempty"`
	GetConditions []ConditionSpec `json:"get_conditions,omitempty"`
	// DiscountType selects how a buy X get Y offer prices the get group:
	// "percentage" (Percentage of the discounted quantity's total) or
	// "fixed_amount" (Amount per discounted unit).
	DiscountType string `json:"discount_type,omitempty"`
}

// Promotion is the read-only configuration the engine applies. It is loaded
// by the repository collaborator and never mutated by the offers.
type Promotion struct {
	ID          string
	Name        string
	DisplayName string
	OfferID     string
	Offer       OfferConfig
	// Conditions select the eligible order items for item-scoped offers,
	// OR-combined. Order-scoped offers ignore them.
	Conditions []ConditionSpec
	// CouponCodes gates the promotion on one of the codes being applied
	// to the order. Empty means the promotion applies unconditionally
	// unless CouponRequired is set.
	CouponCodes []string
	// CouponRequired gates the promotion on a coupon code even when no
	// inline codes are configured: bulk-ingested codes are resolved
	// through the repository instead of being listed here.
	CouponRequired bool
	// OrderTypes restricts which order types the promotion applies to.
	OrderTypes []string
	Weight     int
	Enabled    bool
	StartsAt   *time.Time
	EndsAt     *time.Time
}

// Label returns the adjustment label for this promotion.
func (p *Promotion) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return DefaultLabel
}

// Available reports whether the promotion is enabled and inside its
// validity window at the given time.
func (p *Promotion) Available(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return false
	}
	return true
}

// Repository provides promotion lookup for the applicator and coupon-code
// resolution for checkout.
type Repository interface {
	// LoadEnabled returns the enabled promotions for an order type,
	// sorted by ascending weight then id.
	LoadEnabled(ctx context.Context, orderType string) ([]*Promotion, error)
	// FindByCouponCode resolves a coupon code to its promotion, or
	// ErrNotFound.
	FindByCouponCode(ctx context.Context, code string) (*Promotion, error)
}
