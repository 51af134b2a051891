package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/23skdu/longbow-fp16/internal/fp16"
)

// Report summarises what narrowing a batch of decimals to binary16 does to it.
type Report struct {
	Total     int `json:"total"`
	NaN       int `json:"nan_count"`
	Inf       int `json:"inf_count"`
	Overflow  int `json:"overflow_count"`
	Underflow int `json:"underflow_count"`
	Subnormal int `json:"subnormal_count"`
	Inexact   int `json:"inexact_count"`

	MaxAbsError  float64 `json:"max_abs_error"`
	MeanAbsError float64 `json:"mean_abs_error"`
	MaxRelError  float64 `json:"max_rel_error"`
}

// Lossy reports whether any value changed or lost its range.
func (r Report) Lossy() bool {
	return r.Inexact > 0 || r.Overflow > 0 || r.Underflow > 0
}

// Analyze encodes values and measures the conversion error. Error statistics
// only cover finite inputs whose result is finite.
func Analyze(values []float64) Report {
	r := Report{Total: len(values)}
	absErrs := make([]float64, 0, len(values))
	relErrs := make([]float64, 0, len(values))

	for _, v := range values {
		if math.IsNaN(v) {
			r.NaN++
			continue
		}
		if math.IsInf(v, 0) {
			r.Inf++
			continue
		}

		h := fp16.Encode(v)
		switch fp16.Classify(h) {
		case fp16.ClassInfinity:
			r.Overflow++
			r.Inexact++
			continue
		case fp16.ClassZero:
			if v != 0 {
				r.Underflow++
			}
		case fp16.ClassSubnormal:
			r.Subnormal++
		}

		got := fp16.Decode(h)
		diff := math.Abs(got - v)
		if diff != 0 {
			r.Inexact++
		}
		absErrs = append(absErrs, diff)
		if v != 0 {
			relErrs = append(relErrs, diff/math.Abs(v))
		}
	}

	if len(absErrs) > 0 {
		r.MaxAbsError = floats.Max(absErrs)
		r.MeanAbsError = stat.Mean(absErrs, nil)
	}
	if len(relErrs) > 0 {
		r.MaxRelError = floats.Max(relErrs)
	}
	return r
}
