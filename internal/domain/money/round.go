package money

import "github.com/shopspring/decimal"

// RoundMode selects how a value exactly halfway between two neighbours is
// resolved when rounding to a fixed number of fraction digits.
type RoundMode string

const (
	// RoundHalfUp rounds ties away from zero (the default commerce mode).
	RoundHalfUp RoundMode = "half_up"
	// RoundHalfDown rounds ties towards zero.
	RoundHalfDown RoundMode = "half_down"
	// RoundHalfEven rounds ties to the neighbour with an even last digit.
	RoundHalfEven RoundMode = "half_even"
	// RoundHalfOdd rounds ties to the neighbour with an odd last digit.
	RoundHalfOdd RoundMode = "half_odd"
)

var two = decimal.NewFromInt(2)

// roundHalf rounds d to scale fraction digits under the given mode.
// Unknown modes fall back to half-up.
func roundHalf(d decimal.Decimal, scale int32, mode RoundMode) decimal.Decimal {
	switch mode {
	case RoundHalfEven:
		return d.RoundBank(scale)
	case RoundHalfDown, RoundHalfOdd:
		if !isHalf(d, scale) {
			return d.Round(scale)
		}
		trunc := d.Truncate(scale)
		if mode == RoundHalfDown {
			return trunc
		}
		// Ties go to the odd neighbour: the truncated value and the value
		// one step away from zero differ by one in the last digit, so
		// exactly one of them is odd.
		if lastDigitOdd(trunc, scale) {
			return trunc
		}
		return stepAwayFromZero(trunc, scale, d.Sign())
	default:
		return d.Round(scale)
	}
}

// isHalf reports whether d sits exactly halfway between the two nearest
// values representable at the given scale.
func isHalf(d decimal.Decimal, scale int32) bool {
	shifted := d.Shift(scale)
	frac := shifted.Sub(shifted.Truncate(0)).Abs()
	return frac.Equal(decimal.New(5, -1))
}

func lastDigitOdd(d decimal.Decimal, scale int32) bool {
	digit := d.Shift(scale).Abs().Mod(two)
	return !digit.IsZero()
}

func stepAwayFromZero(d decimal.Decimal, scale int32, sign int) decimal.Decimal {
	step := decimal.New(1, -scale)
	if sign < 0 {
		return d.Sub(step)
	}
	return d.Add(step)
}
