package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{5}))
	// Sample std dev of {2, 4, 4, 4, 5, 5, 7, 9} is ~2.138.
	assert.InDelta(t, 2.1381, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-4)
}

func TestPercentileLinearInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}

	assert.Equal(t, 10.0, Percentile(values, 0))
	assert.Equal(t, 30.0, Percentile(values, 0.5))
	assert.Equal(t, 50.0, Percentile(values, 1))
	// rank = 0.1 * 4 = 0.4 -> 10 + 0.4*(20-10).
	assert.InDelta(t, 14.0, Percentile(values, 0.10), 1e-12)
	// rank = 0.9 * 4 = 3.6 -> 40 + 0.6*(50-40).
	assert.InDelta(t, 46.0, Percentile(values, 0.90), 1e-12)
}

func TestPercentileUnsortedInputAndEdgeCases(t *testing.T) {
	assert.Zero(t, Percentile(nil, 0.5))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 0.99))

	unsorted := []float64{50, 10, 40, 20, 30}
	assert.Equal(t, 30.0, Percentile(unsorted, 0.5))
	// Input slice must not be mutated.
	assert.Equal(t, []float64{50, 10, 40, 20, 30}, unsorted)
}

func TestPercentileMonotoneInP(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	prev := Percentile(values, 0)
	for p := 0.05; p <= 1.0; p += 0.05 {
		cur := Percentile(values, p)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestValueAtRisk(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	// 5% quantile of 0..99: rank = 0.05*99 = 4.95.
	assert.InDelta(t, 4.95, ValueAtRisk(values, 0.95), 1e-12)
	assert.Zero(t, ValueAtRisk(nil, 0.95))
}

func TestConditionalValueAtRisk(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	// Worst 5% of 0..99 is exactly {0,1,2,3,4}, mean 2 — the inexact
	// float64 value of 1-0.95 must not widen the tail to 6 elements.
	assert.InDelta(t, 2.0, ConditionalValueAtRisk(values, 0.95), 1e-12)

	// Worst 10% of 0..199 is {0..19}, mean 9.5.
	wide := make([]float64, 200)
	for i := range wide {
		wide[i] = float64(i)
	}
	assert.InDelta(t, 9.5, ConditionalValueAtRisk(wide, 0.90), 1e-12)
	// CVaR is never above VaR for the same confidence.
	assert.LessOrEqual(t, ConditionalValueAtRisk(values, 0.95), ValueAtRisk(values, 0.95))
	assert.Zero(t, ConditionalValueAtRisk(nil, 0.95))
	assert.Equal(t, 42.0, ConditionalValueAtRisk([]float64{42}, 0.95))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, MaxDrawdown(nil))
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3, 4}))
	// Peak 100 to trough 60 is a 40% drawdown.
	assert.InDelta(t, 0.40, MaxDrawdown([]float64{80, 100, 70, 60, 90}), 1e-12)
	// Full depletion.
	assert.InDelta(t, 1.0, MaxDrawdown([]float64{50, 100, 0}), 1e-12)
}
