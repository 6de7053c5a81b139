// Package formulas provides the reusable float64 statistics the simulation
// pipeline aggregates with. All functions are pure and never mutate their
// inputs.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Percentile returns the p-th quantile (p in [0, 1]) of values using linear
// interpolation between order statistics: rank = p*(n-1), interpolating
// between floor(rank) and ceil(rank). This matches NumPy's default
// "linear" method and is fixed here so results are reproducible across
// reimplementations.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}
	if p <= 0 {
		p = 0
	} else if p >= 1 {
		p = 1
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ValueAtRisk returns the balance level at the (1-confidence) quantile of
// outcomes: with confidence 0.95, 5% of outcomes fall at or below it.
func ValueAtRisk(values []float64, confidence float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Percentile(values, 1-confidence)
}

// ConditionalValueAtRisk returns the mean of the worst (1-confidence) tail
// of outcomes: the expected value given that the outcome is at or below the
// VaR threshold.
func ConditionalValueAtRisk(values []float64, confidence float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	// 1-confidence is inexact in float64 (1-0.95 is 0.050000000000000044);
	// nudge below the ceiling so an exact tail boundary is not pushed up a
	// whole element.
	tailCount := int(math.Ceil(float64(n)*(1-confidence) - 1e-9))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > n {
		tailCount = n
	}

	sum := 0.0
	for _, v := range sorted[:tailCount] {
		sum += v
	}
	return sum / float64(tailCount)
}

// MaxDrawdown returns the worst peak-to-trough decline of a balance series
// as a fraction of the peak, in [0, 1]. Zero for flat or monotonically
// rising series.
func MaxDrawdown(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}

	peak := series[0]
	worst := 0.0
	for _, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
