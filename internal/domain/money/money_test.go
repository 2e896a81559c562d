package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		wantErr  error
	}{
		{name: "valid integer", amount: "10", currency: "USD"},
		{name: "valid fraction", amount: "10.99", currency: "EUR"},
		{name: "negative amount", amount: "-5.00", currency: "USD"},
		{name: "float notation rejected", amount: "1e2", currency: "USD", wantErr: ErrInvalidAmount},
		{name: "non-numeric rejected", amount: "abc", currency: "USD", wantErr: ErrInvalidAmount},
		{name: "empty amount rejected", amount: "", currency: "USD", wantErr: ErrInvalidAmount},
		{name: "bad currency rejected", amount: "10", currency: "US", wantErr: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.amount, tt.currency)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.currency, m.CurrencyCode())
		})
	}
}

func TestMoneyAddSub(t *testing.T) {
	a := MustNew("10.50", "USD")
	b := MustNew("2.25", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustNew("12.75", "USD")))

	diff, err := sum.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Equal(a), "add then subtract must round-trip")
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := MustNew("10", "USD")
	eur := MustNew("10", "EUR")

	_, err := usd.Add(eur)
	var mismatch *CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "USD", mismatch.Left)
	assert.Equal(t, "EUR", mismatch.Right)

	_, err = usd.Sub(eur)
	require.ErrorAs(t, err, &mismatch)

	_, err = usd.Compare(eur)
	require.ErrorAs(t, err, &mismatch)
}

func TestMoneyMulDiv(t *testing.T) {
	m := MustNew("10.00", "USD")

	tripled, err := m.Mul("3")
	require.NoError(t, err)
	assert.True(t, tripled.Equal(MustNew("30", "USD")))

	third, err := m.Div("3")
	require.NoError(t, err)
	assert.Equal(t, "3.333333", third.Number())

	_, err = m.Div("0")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = m.Mul("1e3")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMoneyComparisons(t *testing.T) {
	small := MustNew("1", "USD")
	big := MustNew("2", "USD")

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := small.LessThan(big)
	require.NoError(t, err)
	assert.True(t, lt)

	gte, err := big.GreaterThanOrEqual(MustNew("2.00", "USD"))
	require.NoError(t, err)
	assert.True(t, gte)

	assert.True(t, MustNew("0", "USD").IsZero())
	assert.True(t, small.IsPositive())
	assert.True(t, small.Negate().IsNegative())
	assert.True(t, MustNew("2.0", "USD").Equal(big))
	assert.False(t, MustNew("2", "EUR").Equal(big))
}

func TestMoneyConvert(t *testing.T) {
	usd := MustNew("10", "USD")

	eur, err := usd.Convert("EUR", "0.9")
	require.NoError(t, err)
	assert.Equal(t, "EUR", eur.CurrencyCode())
	assert.True(t, eur.Equal(MustNew("9", "EUR")))

	_, err = usd.Convert("EUR", "bogus")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMoneyRound(t *testing.T) {
	m := MustNew("10.005", "USD")

	assert.Equal(t, "10.01", m.Round(2, RoundHalfUp).Number())
	assert.True(t, m.Round(2, RoundHalfEven).Equal(MustNew("10.00", "USD")))
}

func TestMin(t *testing.T) {
	a := MustNew("3", "USD")
	b := MustNew("5", "USD")

	got, err := Min(a, b)
	require.NoError(t, err)
	assert.True(t, got.Equal(a))

	_, err = Min(a, MustNew("5", "EUR"))
	var mismatch *CurrencyMismatchError
	require.ErrorAs(t, err, &mismatch)
}
