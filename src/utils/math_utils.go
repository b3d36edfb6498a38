package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places,
// half away from zero.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundMoney rounds a monetary value to 2 decimal places, half away from
// zero. Every persisted amount goes through this, so storage and display
// always agree.
func RoundMoney(val float64) float64 {
	return RoundFloat(val, 2)
}

// ClampPercent forces p into [0,100] and reports whether a correction was
// applied. NaN counts as out of range and clamps to 0.
func ClampPercent(p float64) (float64, bool) {
	if math.IsNaN(p) || p < 0 {
		return 0, true
	}
	if p > 100 {
		return 100, true
	}
	return p, false
}

// DiscountedAmount computes original * (1 - percent/100) rounded to 2
// decimals. The percentage is clamped into [0,100] first, so the result is
// never negative for a non-negative original and never exceeds the original.
func DiscountedAmount(original, percent float64) float64 {
	percent, _ = ClampPercent(percent)
	return RoundMoney(original * (1 - percent/100))
}

// InstallmentAmount divides the discounted total into count monthly
// installments, rounded to 2 decimals. A count below 1 is treated as a single
// installment rather than rejected, matching how the aggregation defaults it.
func InstallmentAmount(totalDiscounted float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	return RoundMoney(totalDiscounted / float64(count))
}
