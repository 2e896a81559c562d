package currency

import (
	"context"

	"github.com/xenking/commerce-core/internal/domain/money"
)

// Rounder rounds monetary amounts to the fraction-digit precision of their
// currency, as defined by the registry.
type Rounder struct {
	registry Registry
}

// NewRounder creates a Rounder backed by the given currency registry.
func NewRounder(registry Registry) *Rounder {
	return &Rounder{registry: registry}
}

// Round rounds m to its currency precision using half-up, the default
// commerce rounding mode.
func (r *Rounder) Round(ctx context.Context, m money.Money) (money.Money, error) {
	return r.RoundMode(ctx, m, money.RoundHalfUp)
}

// RoundMode rounds m to its currency precision under the given mode.
// An unregistered currency fails with UnknownCurrencyError.
func (r *Rounder) RoundMode(ctx context.Context, m money.Money, mode money.RoundMode) (money.Money, error) {
	c, err := r.registry.Get(ctx, m.CurrencyCode())
	if err != nil {
		return money.Money{}, err
	}
	return m.Round(c.FractionDigits, mode), nil
}
