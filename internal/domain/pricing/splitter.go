// Package pricing holds the arithmetic services shared by the promotion
// offers: proportional price splitting with exact reconciliation.
package pricing

import (
	"context"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

// Splitter apportions a lump amount across an order's items in proportion
// to each item's share of the subtotal.
type Splitter struct {
	rounder *currency.Rounder
}

// NewSplitter creates a Splitter that rounds per-item shares with the given
// rounder.
func NewSplitter(rounder *currency.Rounder) *Splitter {
	return &Splitter{rounder: rounder}
}

// Split distributes amount across the order's items, returning the share
// per item id. When percentage is a non-empty numeric string the share of
// each item is round(item total × percentage); otherwise it is
// round(amount × item total / subtotal).
//
// Independent per-item rounding can drift the sum away from amount by a few
// minimal currency units, so the last participating item (in item list
// order) receives amount minus the sum of all previously assigned shares.
// The returned shares therefore always sum to amount exactly. Items with a
// zero total price receive no share.
func (s *Splitter) Split(ctx context.Context, o *order.Order, amount money.Money, percentage string) (map[string]money.Money, error) {
	participating := make([]*order.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.TotalPrice.IsZero() {
			continue
		}
		participating = append(participating, item)
	}
	if len(participating) == 0 {
		return map[string]money.Money{}, nil
	}

	subtotal, err := o.Subtotal()
	if err != nil {
		return nil, err
	}

	shares := make(map[string]money.Money, len(participating))
	assigned := money.MustNew("0", amount.CurrencyCode())
	for idx, item := range participating {
		if idx == len(participating)-1 {
			last, err := amount.Sub(assigned)
			if err != nil {
				return nil, err
			}
			shares[item.ID] = last
			break
		}

		share, err := s.itemShare(ctx, item, amount, subtotal, percentage)
		if err != nil {
			return nil, err
		}
		shares[item.ID] = share
		assigned, err = assigned.Add(share)
		if err != nil {
			return nil, err
		}
	}
	return shares, nil
}

func (s *Splitter) itemShare(ctx context.Context, item *order.OrderItem, amount, subtotal money.Money, percentage string) (money.Money, error) {
	if percentage != "" {
		share, err := item.TotalPrice.Mul(percentage)
		if err != nil {
			return money.Money{}, err
		}
		return s.rounder.Round(ctx, share)
	}

	ratio, err := money.Div(item.TotalPrice.Number(), subtotal.Number())
	if err != nil {
		return money.Money{}, err
	}
	share, err := amount.Mul(ratio)
	if err != nil {
		return money.Money{}, err
	}
	return s.rounder.Round(ctx, share)
}
