package scoring

import "math"

// sanitizeNonNegative maps NaN, infinities and negatives to 0.
func sanitizeNonNegative(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ratio divides, returning 0 for a non-positive denominator or a
// non-finite quotient.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// finite maps NaN to 0 and saturates infinities at ±MaxFloat64.
func finite(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return math.MaxFloat64
	case math.IsInf(x, -1):
		return -math.MaxFloat64
	}
	return x
}

// add sums minute totals without overflowing to +Inf.
func add(a, b float64) float64 {
	return finite(a + b)
}

// Round rounds x to the given number of decimal places. It is meant for
// presentation only.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
