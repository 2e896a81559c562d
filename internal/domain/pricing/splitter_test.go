package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/commerce-core/internal/domain/currency"
	"github.com/xenking/commerce-core/internal/domain/money"
	"github.com/xenking/commerce-core/internal/domain/order"
)

func newSplitter() *Splitter {
	return NewSplitter(currency.NewRounder(currency.NewStaticRegistry()))
}

func newOrderWithItems(t *testing.T, prices ...string) *order.Order {
	t.Helper()
	o := &order.Order{ID: "o1", Type: "default", State: order.StateDraft}
	for i, price := range prices {
		item, err := order.NewItem("default", "p", "Item", "1", money.MustNew(price, "USD"))
		require.NoError(t, err)
		item.ID = string(rune('a' + i))
		o.AppendItem(item)
	}
	return o
}

func sumShares(t *testing.T, shares map[string]money.Money, currencyCode string) money.Money {
	t.Helper()
	sum := money.MustNew("0", currencyCode)
	for _, share := range shares {
		var err error
		sum, err = sum.Add(share)
		require.NoError(t, err)
	}
	return sum
}

func TestSplitProportional(t *testing.T) {
	o := newOrderWithItems(t, "10.00", "20.00", "30.00")
	amount := money.MustNew("6.00", "USD")

	shares, err := newSplitter().Split(context.Background(), o, amount, "")
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.True(t, shares["a"].Equal(money.MustNew("1.00", "USD")))
	assert.True(t, shares["b"].Equal(money.MustNew("2.00", "USD")))
	assert.True(t, shares["c"].Equal(money.MustNew("3.00", "USD")))
}

func TestSplitRemainderGoesToLastItem(t *testing.T) {
	// Naive thirds of $0.10 are $0.0333... each; the last item must absorb
	// the rounding drift so the shares reconcile exactly.
	o := newOrderWithItems(t, "10.00", "10.00", "10.00")
	amount := money.MustNew("0.10", "USD")

	shares, err := newSplitter().Split(context.Background(), o, amount, "")
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.True(t, shares["a"].Equal(money.MustNew("0.03", "USD")), "first share %s", shares["a"])
	assert.True(t, shares["b"].Equal(money.MustNew("0.03", "USD")), "second share %s", shares["b"])
	assert.True(t, shares["c"].Equal(money.MustNew("0.04", "USD")), "last share absorbs remainder, got %s", shares["c"])
	assert.True(t, sumShares(t, shares, "USD").Equal(amount))
}

func TestSplitPercentage(t *testing.T) {
	o := newOrderWithItems(t, "499.50", "499.50")
	amount := money.MustNew("99.90", "USD")

	shares, err := newSplitter().Split(context.Background(), o, amount, "0.1")
	require.NoError(t, err)

	require.Len(t, shares, 2)
	assert.True(t, shares["a"].Equal(money.MustNew("49.95", "USD")))
	assert.True(t, shares["b"].Equal(money.MustNew("49.95", "USD")))
	assert.True(t, sumShares(t, shares, "USD").Equal(amount))
}

func TestSplitSkipsZeroPricedItems(t *testing.T) {
	o := newOrderWithItems(t, "10.00", "0.00", "10.00")
	amount := money.MustNew("5.00", "USD")

	shares, err := newSplitter().Split(context.Background(), o, amount, "")
	require.NoError(t, err)

	require.Len(t, shares, 2)
	_, hasZeroItem := shares["b"]
	assert.False(t, hasZeroItem, "zero-priced item must not receive a share")
	assert.True(t, sumShares(t, shares, "USD").Equal(amount))
}

func TestSplitSingleItem(t *testing.T) {
	o := newOrderWithItems(t, "19.99")
	amount := money.MustNew("7.77", "USD")

	shares, err := newSplitter().Split(context.Background(), o, amount, "")
	require.NoError(t, err)

	require.Len(t, shares, 1)
	assert.True(t, shares["a"].Equal(amount))
}

func TestSplitEmptyOrder(t *testing.T) {
	o := &order.Order{ID: "o1", State: order.StateDraft}

	shares, err := newSplitter().Split(context.Background(), o, money.MustNew("5.00", "USD"), "")
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestSplitExactnessUnderAwkwardAmounts(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
		amount string
	}{
		{name: "seven way penny", prices: []string{"1.00", "1.00", "1.00", "1.00", "1.00", "1.00", "1.00"}, amount: "0.01"},
		{name: "uneven weights", prices: []string{"3.33", "7.77", "11.11"}, amount: "5.55"},
		{name: "full subtotal", prices: []string{"12.34", "56.78"}, amount: "69.12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrderWithItems(t, tt.prices...)
			amount := money.MustNew(tt.amount, "USD")

			shares, err := newSplitter().Split(context.Background(), o, amount, "")
			require.NoError(t, err)
			assert.True(t, sumShares(t, shares, "USD").Equal(amount), "shares must sum to the split amount")
		})
	}
}
