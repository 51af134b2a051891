package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Exact(t *testing.T) {
	r := Analyze([]float64{0, 1, 1.5, -2.5, 65504})
	assert.Equal(t, 5, r.Total)
	assert.Zero(t, r.Inexact)
	assert.Zero(t, r.MaxAbsError)
	assert.False(t, r.Lossy())
}

func TestAnalyze_Empty(t *testing.T) {
	r := Analyze(nil)
	assert.Equal(t, Report{}, r)
}

func TestAnalyze_Counts(t *testing.T) {
	values := []float64{
		math.NaN(),
		math.Inf(-1),
		1e9,   // overflow
		1e-12, // underflow
		6e-8,  // subnormal, inexact
		0.1,   // inexact
		0,     // exact zero, not an underflow
	}
	r := Analyze(values)

	assert.Equal(t, 7, r.Total)
	assert.Equal(t, 1, r.NaN)
	assert.Equal(t, 1, r.Inf)
	assert.Equal(t, 1, r.Overflow)
	assert.Equal(t, 1, r.Underflow)
	assert.Equal(t, 1, r.Subnormal)
	assert.Equal(t, 4, r.Inexact)
	assert.True(t, r.Lossy())

	// 0.1 -> 0.0999755859375
	assert.InDelta(t, 0.1-0.0999755859375, r.MaxAbsError, 1e-15)
	assert.Equal(t, 1.0, r.MaxRelError) // 1e-12 -> 0
	assert.Greater(t, r.MeanAbsError, 0.0)
}
