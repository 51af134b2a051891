package fp16

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHex(t *testing.T) {
	assert.Equal(t, "0x3C00", ToHex(0x3C00))
	assert.Equal(t, "0x0000", ToHex(0))
	assert.Equal(t, "0x000A", ToHex(0xA))
	assert.Equal(t, "0xFFFF", ToHex(0xFFFF))
}

func TestFromHex(t *testing.T) {
	valid := []struct {
		in   string
		want uint16
	}{
		{"0x3C00", 0x3C00},
		{"0X3c00", 0x3C00},
		{"3c00", 0x3C00},
		{"0x1", 0x0001},
		{"F", 0x000F},
		{"0xffff", 0xFFFF},
		{"0", 0},
	}
	for _, tt := range valid {
		got, err := FromHex(tt.in)
		require.NoError(t, err, "FromHex(%q)", tt.in)
		assert.Equal(t, tt.want, got, "FromHex(%q)", tt.in)
	}

	invalid := []string{"", "0x", "0X", "0xGGGG", "0x12345", "12345", " 0x3C00", "0x3C00 ", "-0x1", "+1", "0x_1", "0x3C.0"}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, err := FromHex(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidHexFormat))

			var hexErr *InvalidHexFormatError
			require.True(t, errors.As(err, &hexErr))
			assert.Equal(t, in, hexErr.Token)
			assert.NotEmpty(t, hexErr.Reason)
		})
	}
}

func TestHexRoundTrip_AllPatterns(t *testing.T) {
	for i := 0; i <= math.MaxUint16; i++ {
		h := uint16(i)
		got, err := FromHex(ToHex(h))
		require.NoError(t, err)
		require.Equal(t, h, got)
	}
}

func TestEncodeHex_DecodeHex(t *testing.T) {
	assert.Equal(t, "0x3C00", EncodeHex(1))
	assert.Equal(t, "0xBE00", EncodeHex(-1.5))

	v, err := DecodeHex("0x4200")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = DecodeHex("0xZZ")
	assert.ErrorIs(t, err, ErrInvalidHexFormat)
}
