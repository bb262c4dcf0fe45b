package numeric

import "math"

// SafeAmount coerces a monetary input to a safe value before persistence.
// NaN and infinities become 0; negative amounts are clamped to 0.
// Idempotent: SafeAmount(SafeAmount(x)) == SafeAmount(x).
func SafeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	return v
}

// SafeQuantity coerces a count input to a non-negative integer.
// Fractional values are floored; NaN, infinities and negatives become 0.
func SafeQuantity(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Floor(v))
}

// SafePrice coerces a unit price, allowing zero but never negative,
// non-finite or sub-cent noise beyond two decimal places. Rounding to the
// nearest cent, not flooring: exact two-decimal inputs like 19.99 sit just
// below their value in float64 and flooring would drop them a cent.
func SafePrice(v float64) float64 {
	v = SafeAmount(v)
	return math.Round(v*100) / 100
}
