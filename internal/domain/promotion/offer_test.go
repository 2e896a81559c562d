package promotion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
	"github.com/xenking/commerce-core/internal/domain/pricing"
)

func testDeps() Deps {
	rounder := currency.NewRounder(currency.NewStaticRegistry())
	return Deps{
		Rounder:  rounder,
		Splitter: pricing.NewSplitter(rounder),
	}
}

func testItem(t *testing.T, id, purchasedID, quantity, unitPrice string) *order.OrderItem {
	t.Helper()
	item, err := order.NewItem("default", purchasedID, "Item "+id, quantity, money.MustNew(unitPrice, "USD"))
	require.NoError(t, err)
	item.ID = id
	return item
}

func testOrder(items ...*order.OrderItem) *order.Order {
	o := &order.Order{
		ID:    "order-1",
		Type:  "default",
		State: order.StateDraft,
	}
	for _, item := range items {
		o.AppendItem(item)
	}
	return o
}

func testPromo(offerID string, cfg OfferConfig) *Promotion {
	return &Promotion{
		ID:          "promo-1",
		Name:        "test promotion",
		DisplayName: "Test Discount",
		OfferID:     offerID,
		Offer:       cfg,
		Enabled:     true,
	}
}

func assertMoney(t *testing.T, expected string, m money.Money) {
	t.Helper()
	assert.True(t, m.Equal(money.MustNew(expected, "USD")),
		"expected %s USD, got %s", expected, m)
}

func promotionAdjustments(item *order.OrderItem) []order.Adjustment {
	var out []order.Adjustment
	for _, a := range item.Adjustments {
		if a.Type == order.AdjustmentPromotion {
			out = append(out, a)
		}
	}
	return out
}

func TestRegistryBuildsAllBuiltins(t *testing.T) {
	registry := NewRegistry(testDeps())

	tests := []struct {
		offerID string
		cfg     OfferConfig
	}{
		{OfferOrderPercentageOff, OfferConfig{Percentage: "0.1"}},
		{OfferOrderItemPercentageOff, OfferConfig{Percentage: "0.1"}},
		{OfferOrderFixedAmountOff, OfferConfig{Amount: money.MustNew("5", "USD")}},
		{OfferOrderItemFixedAmountOff, OfferConfig{Amount: money.MustNew("5", "USD")}},
		{OfferBuyXGetY, OfferConfig{
			BuyQuantity:  "3",
			GetQuantity:  "1",
			DiscountType: DiscountPercentage,
			Percentage:   "1",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.offerID, func(t *testing.T) {
			offer, err := registry.Build(testPromo(tt.offerID, tt.cfg))
			require.NoError(t, err)
			assert.NotNil(t, offer)
		})
	}
}

func TestRegistryUnknownOffer(t *testing.T) {
	registry := NewRegistry(testDeps())

	_, err := registry.Build(testPromo("free_shipping", OfferConfig{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "free_shipping")
}

func TestRegistryRegisterCustomOffer(t *testing.T) {
	registry := NewRegistry(testDeps())
	registry.Register("noop", func(cfg OfferConfig, deps Deps) (Offer, error) {
		return noopOffer{}, nil
	})

	offer, err := registry.Build(testPromo("noop", OfferConfig{}))
	require.NoError(t, err)
	assert.NoError(t, offer.Apply(context.Background(), testOrder(), nil))
}

type noopOffer struct{}

func (noopOffer) Apply(context.Context, *order.Order, *Promotion) error { return nil }
