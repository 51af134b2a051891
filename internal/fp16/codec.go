// Package fp16 converts between float64 and IEEE 754 binary16 (half precision)
// bit patterns, and between bit patterns and their 0xHHHH text form.
package fp16

import "math"

const (
	signMask  = 0x8000
	expMask   = 0x7C00
	fracMask  = 0x03FF
	quietNaN  = 0x7E00
	expBias   = 15
	fracBits  = 10
	maxExp    = 0x1F
	posInf    = expMask
	f64Bias   = 1023
	f64Frac   = 52
	f64ExpAll = 0x7FF
)

const (
	// MaxValue is the largest finite binary16 value.
	MaxValue = 65504.0
	// SmallestNormal is 2^-14.
	SmallestNormal = 0x1p-14
	// SmallestSubnormal is 2^-24.
	SmallestSubnormal = 0x1p-24
)

// Encode rounds f to the nearest binary16 value (ties to even) and returns its
// bit pattern. Magnitudes above MaxValue after rounding become infinity, NaN
// becomes the quiet NaN 0x7E00 with the sign of f.
func Encode(f float64) uint16 {
	b := math.Float64bits(f)
	sign := uint16(b>>48) & signMask
	exp := int(b>>f64Frac) & f64ExpAll
	frac := b & (1<<f64Frac - 1)

	switch {
	case exp == f64ExpAll:
		if frac != 0 {
			return sign | quietNaN
		}
		return sign | posInf
	case exp == 0:
		// float64 zero or subnormal, far below 2^-25
		return sign
	}

	e := exp - f64Bias
	if e > expBias {
		return sign | posInf
	}

	// 53-bit significand, value = mant * 2^(e-52)
	mant := frac | 1<<f64Frac
	shift := uint(f64Frac - fracBits)
	if e < 1-expBias {
		// subnormal result, counted in units of 2^-24
		shift += uint(1 - expBias - e)
		if shift > f64Frac+1 {
			return sign
		}
	}

	m := uint32(mant >> shift)
	rem := mant & (1<<shift - 1)
	half := uint64(1) << (shift - 1)
	if rem > half || (rem == half && m&1 == 1) {
		m++
	}

	var bits uint32
	if e < 1-expBias {
		// m <= 0x400; a carry into bit 10 yields the smallest normal
		bits = m
	} else {
		// m carries the implicit bit, so it lifts the exponent by one and a
		// rounding carry to 0x800 lifts it once more
		bits = uint32(e+expBias-1)<<fracBits + m
	}
	if bits >= posInf {
		return sign | posInf
	}
	return sign | uint16(bits)
}

// Decode returns the exact float64 value of a binary16 bit pattern. NaN
// patterns keep their sign and payload.
func Decode(h uint16) float64 {
	sign := uint64(h&signMask) << 48
	exp := int(h&expMask) >> fracBits
	frac := uint64(h & fracMask)

	switch exp {
	case 0:
		v := float64(frac) * SmallestSubnormal
		if sign != 0 {
			return math.Copysign(v, -1)
		}
		return v
	case maxExp:
		return math.Float64frombits(sign | f64ExpAll<<f64Frac | frac<<(f64Frac-fracBits))
	}
	return math.Float64frombits(sign | uint64(exp-expBias+f64Bias)<<f64Frac | frac<<(f64Frac-fracBits))
}

// Class is the IEEE 754 category of a binary16 pattern.
type Class int

const (
	ClassZero Class = iota
	ClassSubnormal
	ClassNormal
	ClassInfinity
	ClassNaN
)

func (c Class) String() string {
	switch c {
	case ClassZero:
		return "zero"
	case ClassSubnormal:
		return "subnormal"
	case ClassNormal:
		return "normal"
	case ClassInfinity:
		return "infinity"
	case ClassNaN:
		return "nan"
	}
	return "unknown"
}

// Classify reports the category of h.
func Classify(h uint16) Class {
	exp := (h & expMask) >> fracBits
	frac := h & fracMask
	switch {
	case exp == 0 && frac == 0:
		return ClassZero
	case exp == 0:
		return ClassSubnormal
	case exp == maxExp && frac == 0:
		return ClassInfinity
	case exp == maxExp:
		return ClassNaN
	}
	return ClassNormal
}

// IsNaN reports whether h is a NaN pattern.
func IsNaN(h uint16) bool { return Classify(h) == ClassNaN }

// Signbit reports whether the sign bit of h is set.
func Signbit(h uint16) bool { return h&signMask != 0 }
