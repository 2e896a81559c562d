// Package money provides exact base-10 monetary arithmetic: a string-level
// calculator and an immutable currency-aware Money value type, both built on
// shopspring/decimal so no binary floating point ever touches an amount.
package money

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCurrency is returned when a currency code is not a three-letter
// ISO 4217 code.
var ErrInvalidCurrency = errors.New("invalid currency code")

// CurrencyMismatchError indicates arithmetic was attempted between two Money
// values of different currencies. Amounts are never auto-converted; use
// Convert with an explicit rate instead.
type CurrencyMismatchError struct {
	Left  string
	Right string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("currency mismatch: %s vs %s", e.Left, e.Right)
}

// Money is an immutable (amount, currency code) pair. Every operation
// returns a new value; the zero value is empty and unusable.
type Money struct {
	amount       decimal.Decimal
	currencyCode string
}

// New creates a Money from a numeric string amount and a three-letter
// currency code. Float-formatted or non-numeric amounts fail with
// ErrInvalidAmount.
func New(amount, currencyCode string) (Money, error) {
	d, err := parse(amount)
	if err != nil {
		return Money{}, err
	}
	if len(currencyCode) != 3 {
		return Money{}, errors.Wrapf(ErrInvalidCurrency, "%q", currencyCode)
	}
	return Money{amount: d, currencyCode: currencyCode}, nil
}

// MustNew is New that panics on error, for statically known amounts.
func MustNew(amount, currencyCode string) Money {
	m, err := New(amount, currencyCode)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps an already-parsed decimal into a Money.
func FromDecimal(amount decimal.Decimal, currencyCode string) (Money, error) {
	if len(currencyCode) != 3 {
		return Money{}, errors.Wrapf(ErrInvalidCurrency, "%q", currencyCode)
	}
	return Money{amount: amount, currencyCode: currencyCode}, nil
}

// Number returns the amount as a numeric string.
func (m Money) Number() string { return m.amount.String() }

// Decimal returns the underlying decimal amount.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// CurrencyCode returns the three-letter currency code.
func (m Money) CurrencyCode() string { return m.currencyCode }

// IsEmpty reports whether m is the zero value (no currency assigned).
func (m Money) IsEmpty() bool { return m.currencyCode == "" }

func (m Money) String() string {
	return m.amount.String() + " " + m.currencyCode
}

func (m Money) assertSameCurrency(other Money) error {
	if m.currencyCode != other.currencyCode {
		return &CurrencyMismatchError{Left: m.currencyCode, Right: other.currencyCode}
	}
	return nil
}

// Add returns m + other. The currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currencyCode: m.currencyCode}, nil
}

// Sub returns m - other. The currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currencyCode: m.currencyCode}, nil
}

// Mul returns m multiplied by the numeric string scalar.
func (m Money) Mul(scalar string) (Money, error) {
	d, err := parse(scalar)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Mul(d), currencyCode: m.currencyCode}, nil
}

// Div returns m divided by the numeric string scalar, at DefaultScale.
func (m Money) Div(scalar string) (Money, error) {
	d, err := parse(scalar)
	if err != nil {
		return Money{}, err
	}
	if d.IsZero() {
		return Money{}, errors.Wrap(ErrInvalidAmount, "division by zero")
	}
	return Money{amount: m.amount.DivRound(d, DefaultScale), currencyCode: m.currencyCode}, nil
}

// Compare returns -1, 0 or 1 when m is less than, equal to, or greater than
// other. The currencies must match.
func (m Money) Compare(other Money) (int, error) {
	if err := m.assertSameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether m and other have the same currency and amount.
func (m Money) Equal(other Money) bool {
	return m.currencyCode == other.currencyCode && m.amount.Equal(other.amount)
}

// GreaterThan reports m > other. The currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c == 1, err
}

// GreaterThanOrEqual reports m >= other. The currencies must match.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c >= 0, err
}

// LessThan reports m < other. The currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c == -1, err
}

// LessThanOrEqual reports m <= other. The currencies must match.
func (m Money) LessThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c <= 0, err
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Negate returns m with the sign of the amount flipped.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currencyCode: m.currencyCode}
}

// Convert produces a Money in the target currency using the given exchange
// rate. This is an explicit conversion, so no currency match is required.
func (m Money) Convert(currencyCode, rate string) (Money, error) {
	d, err := parse(rate)
	if err != nil {
		return Money{}, err
	}
	if len(currencyCode) != 3 {
		return Money{}, errors.Wrapf(ErrInvalidCurrency, "%q", currencyCode)
	}
	return Money{amount: m.amount.Mul(d), currencyCode: currencyCode}, nil
}

// Round rounds the amount to scale fraction digits under the given mode.
func (m Money) Round(scale int32, mode RoundMode) Money {
	return Money{amount: roundHalf(m.amount, scale, mode), currencyCode: m.currencyCode}
}

// Min returns the smaller of a and b. The currencies must match.
func Min(a, b Money) (Money, error) {
	less, err := a.LessThan(b)
	if err != nil {
		return Money{}, err
	}
	if less {
		return a, nil
	}
	return b, nil
}
