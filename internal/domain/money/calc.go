package money

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultScale is the number of fractional digits kept by division results
// unless the caller asks for a different scale.
const DefaultScale int32 = 6

// ErrInvalidAmount is returned when a numeric string cannot be used for
// monetary arithmetic: empty, non-numeric, or float-formatted (exponent
// notation) input. Floats are rejected outright rather than coerced, so
// binary floating point can never leak into a calculation.
var ErrInvalidAmount = errors.New("invalid amount")

// AssertNumeric validates that s is a plain decimal numeric string.
// It returns ErrInvalidAmount for empty strings, exponent notation
// ("1e5", "1.2E-3"), and anything decimal.NewFromString rejects.
func AssertNumeric(s string) error {
	if s == "" {
		return errors.Wrap(ErrInvalidAmount, "empty string")
	}
	if strings.ContainsAny(s, "eE") {
		return errors.Wrapf(ErrInvalidAmount, "float notation %q", s)
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return errors.Wrapf(ErrInvalidAmount, "parse %q", s)
	}
	return nil
}

func parse(s string) (decimal.Decimal, error) {
	if err := AssertNumeric(s); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

// Add returns a + b as a numeric string.
func Add(a, b string) (string, error) {
	x, y, err := parsePair(a, b)
	if err != nil {
		return "", err
	}
	return x.Add(y).String(), nil
}

// Sub returns a - b as a numeric string.
func Sub(a, b string) (string, error) {
	x, y, err := parsePair(a, b)
	if err != nil {
		return "", err
	}
	return x.Sub(y).String(), nil
}

// Mul returns a * b as a numeric string. Multiplication of two decimal
// strings is exact, no scale is applied.
func Mul(a, b string) (string, error) {
	x, y, err := parsePair(a, b)
	if err != nil {
		return "", err
	}
	return x.Mul(y).String(), nil
}

// Div returns a / b rounded half-up to the given scale (DefaultScale when
// omitted). Division by zero is an error.
func Div(a, b string, scale ...int32) (string, error) {
	x, y, err := parsePair(a, b)
	if err != nil {
		return "", err
	}
	if y.IsZero() {
		return "", errors.Wrap(ErrInvalidAmount, "division by zero")
	}
	s := DefaultScale
	if len(scale) > 0 {
		s = scale[0]
	}
	return x.DivRound(y, s).String(), nil
}

// Compare returns -1, 0 or 1 when a is less than, equal to, or greater
// than b.
func Compare(a, b string) (int, error) {
	x, y, err := parsePair(a, b)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

// Ceil returns the smallest integer value greater than or equal to a.
func Ceil(a string) (string, error) {
	x, err := parse(a)
	if err != nil {
		return "", err
	}
	return x.Ceil().String(), nil
}

// Floor returns the largest integer value less than or equal to a.
func Floor(a string) (string, error) {
	x, err := parse(a)
	if err != nil {
		return "", err
	}
	return x.Floor().String(), nil
}

// Round rounds a to the given scale under the given rounding mode.
func Round(a string, scale int32, mode RoundMode) (string, error) {
	x, err := parse(a)
	if err != nil {
		return "", err
	}
	return roundHalf(x, scale, mode).String(), nil
}

func parsePair(a, b string) (decimal.Decimal, decimal.Decimal, error) {
	x, err := parse(a)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	y, err := parse(b)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, err
	}
	return x, y, nil
}
