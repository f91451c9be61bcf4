// Package numeric holds small shared numeric helpers used by the scoring,
// synergy, and pipeline engines.
package numeric

import "math"

// Clamp restricts v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds v to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// Slope returns the least-squares slope of ys over xs. Returns 0 when fewer
// than two points are supplied or when all xs coincide.
func Slope(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	mx := Mean(xs)
	my := Mean(ys)
	var num, den float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// NPVMonthly discounts a value spread into equal monthly installments over
// the given horizon. The monthly rate is annualRate/12 and month m is
// discounted by (1+monthlyRate)^m for m = 1..months, so for a 12-month
// horizon each installment is value/12. A non-positive horizon yields 0.
func NPVMonthly(value float64, months int, annualRate float64) float64 {
	if months <= 0 {
		return 0
	}
	installment := value / float64(months)
	monthlyRate := annualRate / 12
	var npv float64
	for m := 1; m <= months; m++ {
		npv += installment / math.Pow(1+monthlyRate, float64(m))
	}
	return npv
}
