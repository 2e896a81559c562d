package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/commerce-core/internal/domain/cart"
	"github.com/xenking/commerce-core/internal/domain/order"
)

type memPromoRepo struct {
	promos []*Promotion
	// codes maps bulk-ingested coupon codes to promotion ids.
	codes map[string]string
	err   error
}

func (r *memPromoRepo) LoadEnabled(_ context.Context, orderType string) ([]*Promotion, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*Promotion
	for _, p := range r.promos {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPromoRepo) FindByCouponCode(_ context.Context, code string) (*Promotion, error) {
	for _, p := range r.promos {
		for _, c := range p.CouponCodes {
			if c == code {
				return p, nil
			}
		}
		if r.codes[code] == p.ID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func newTestApplicator(promos ...*Promotion) *Applicator {
	return NewApplicator(&memPromoRepo{promos: promos}, NewRegistry(testDeps()))
}

func TestApplicatorAppliesOrderPercentage(t *testing.T) {
	a := testItem(t, "a", "P1", "1", "999.00")
	o := testOrder(a)

	applicator := newTestApplicator(testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"}))
	require.NoError(t, applicator.Apply(context.Background(), o))

	total, err := o.TotalPrice()
	require.NoError(t, err)
	assertMoney(t, "899.10", total)
}

func TestApplicatorIsIdempotent(t *testing.T) {
	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)

	applicator := newTestApplicator(testPromo(OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"}))
	for i := 0; i < 3; i++ {
		require.NoError(t, applicator.Apply(context.Background(), o))
	}

	// Each run starts from a clean slate, so repeated runs never stack.
	adjustments := promotionAdjustments(a)
	require.Len(t, adjustments, 1)
	assertMoney(t, "-10", adjustments[0].Amount)
}

func TestApplicatorAppliesInWeightOrder(t *testing.T) {
	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)

	second := testPromo(OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"})
	second.ID = "promo-2"
	second.Weight = 20
	first := testPromo(OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"})
	first.Weight = 10

	// Registered out of order on purpose.
	applicator := newTestApplicator(second, first)
	require.NoError(t, applicator.Apply(context.Background(), o))

	adjustments := promotionAdjustments(a)
	require.Len(t, adjustments, 2)
	assert.Equal(t, "promo-1", adjustments[0].SourceID)
	assertMoney(t, "-10", adjustments[0].Amount)
	assert.Equal(t, "promo-2", adjustments[1].SourceID)
	assertMoney(t, "-9", adjustments[1].Amount)
}

func TestApplicatorCouponGating(t *testing.T) {
	promo := testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"})
	promo.CouponCodes = []string{"SAVE10"}
	applicator := newTestApplicator(promo)

	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)
	require.NoError(t, applicator.Apply(context.Background(), o))
	assert.Empty(t, promotionAdjustments(a), "gated promotion needs its coupon code")

	o.CouponCodes = append(o.CouponCodes, "SAVE10")
	require.NoError(t, applicator.Apply(context.Background(), o))
	adjustments := promotionAdjustments(a)
	require.Len(t, adjustments, 1)
	assertMoney(t, "-10", adjustments[0].Amount)
}

func TestApplicatorBulkCouponGating(t *testing.T) {
	promo := testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"})
	promo.CouponRequired = true
	repo := &memPromoRepo{
		promos: []*Promotion{promo},
		codes:  map[string]string{"BULK-0001": "promo-1"},
	}
	applicator := NewApplicator(repo, NewRegistry(testDeps()))

	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)
	require.NoError(t, applicator.Apply(context.Background(), o))
	assert.Empty(t, promotionAdjustments(a))

	o.CouponCodes = append(o.CouponCodes, "BULK-0001")
	require.NoError(t, applicator.Apply(context.Background(), o))
	require.Len(t, promotionAdjustments(a), 1)
}

func TestApplicatorSkipsUnavailablePromotions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	disabled := testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"})
	disabled.Enabled = false
	expired := testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"})
	expired.ID = "promo-2"
	expired.EndsAt = &past
	upcoming := testPromo(OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"})
	upcoming.ID = "promo-3"
	upcoming.StartsAt = &future

	applicator := newTestApplicator(disabled, expired, upcoming)
	applicator.now = func() time.Time { return now }

	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)
	require.NoError(t, applicator.Apply(context.Background(), o))

	assert.Empty(t, promotionAdjustments(a))
	total, err := o.TotalPrice()
	require.NoError(t, err)
	assertMoney(t, "100", total)
}

func TestApplicatorReplacesStaleAdjustments(t *testing.T) {
	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)
	a.AddAdjustment(order.Adjustment{
		Type:     order.AdjustmentPromotion,
		Label:    "old discount",
		SourceID: "gone",
	})
	tax := order.Adjustment{Type: order.AdjustmentTax, Label: "VAT"}
	a.AddAdjustment(tax)

	applicator := newTestApplicator(testPromo(OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"}))
	require.NoError(t, applicator.Apply(context.Background(), o))

	adjustments := promotionAdjustments(a)
	require.Len(t, adjustments, 1)
	assert.Equal(t, "promo-1", adjustments[0].SourceID)
	assert.Contains(t, a.Adjustments, tax, "non-promotion adjustments survive")
}

func TestApplicatorObservesCartEvents(t *testing.T) {
	a := testItem(t, "a", "P1", "1", "100")
	o := testOrder(a)

	applicator := newTestApplicator(testPromo(OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"}))
	event := cart.ItemAddedEvent{Order: o, Item: a, PurchasedID: "P1"}
	require.NoError(t, applicator.Notify(context.Background(), event))

	adjustments := promotionAdjustments(a)
	require.Len(t, adjustments, 1)
	assertMoney(t, "-10", adjustments[0].Amount)
}

func TestApplicatorPropagatesRepositoryError(t *testing.T) {
	applicator := NewApplicator(&memPromoRepo{err: assert.AnError}, NewRegistry(testDeps()))

	o := testOrder(testItem(t, "a", "P1", "1", "100"))
	err := applicator.Apply(context.Background(), o)
	require.ErrorIs(t, err, assert.AnError)
}
