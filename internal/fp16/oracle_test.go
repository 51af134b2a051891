package fp16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// x448/float16 converts from float32 with round-to-nearest-even, so every
// float32 input gives an independent reference for Encode.

func TestDecode_MatchesReference(t *testing.T) {
	for i := 0; i <= math.MaxUint16; i++ {
		h := uint16(i)
		want := float64(float16.Frombits(h).Float32())
		got := Decode(h)
		if math.IsNaN(want) {
			require.True(t, math.IsNaN(got), "pattern %s", ToHex(h))
			continue
		}
		require.Equal(t, math.Float64bits(want), math.Float64bits(got), "pattern %s", ToHex(h))
	}
}

func TestEncode_MatchesReference(t *testing.T) {
	const stride = 4099
	for i := uint64(0); i <= math.MaxUint32; i += stride {
		f := math.Float32frombits(uint32(i))
		if math.IsNaN(float64(f)) {
			continue
		}
		want := float16.Fromfloat32(f).Bits()
		require.Equal(t, want, Encode(float64(f)), "float32 bits %#08x (%v)", uint32(i), f)
	}
}

func TestEncode_MatchesReferenceNearBoundaries(t *testing.T) {
	for i := 0; i < 0x7C00; i++ {
		f := float16.Frombits(uint16(i)).Float32()
		for _, v := range []float32{
			f,
			math.Nextafter32(f, float32(math.Inf(1))),
			math.Nextafter32(f, float32(math.Inf(-1))),
			-f,
		} {
			require.Equal(t, float16.Fromfloat32(v).Bits(), Encode(float64(v)), "input %v", v)
		}
	}
}
