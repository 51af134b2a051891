package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Decode")
	require.NoError(t, err)
	assert.Equal(t, ModeDecode, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeEncode, m)

	_, err = ParseMode("hex")
	assert.Error(t, err)
}

func TestConvert_Encode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Convert(ModeEncode, "0.0, 1.5, -2.5", &out))

	s := out.String()
	assert.Contains(t, s, "Output FP16 Hex Array:  [0x0000 0x3E00 0xC100]")
	assert.Contains(t, s, "  [0]     0.000000 -> 0x0000")
	assert.Contains(t, s, "  [2]    -2.500000 -> 0xC100")
	assert.NotContains(t, s, "Precision Loss")
}

func TestConvert_EncodeLossy(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Convert(ModeEncode, "0.1, 1e9", &out))

	s := out.String()
	assert.Contains(t, s, "-> 0x2E66")
	assert.Contains(t, s, "-> 0x7C00")
	assert.Contains(t, s, "inexact: 2/2  overflow: 1")
}

func TestConvert_Decode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Convert(ModeDecode, "0x0000, 0x3C00, 0xBE00, 0x7E00", &out))

	s := out.String()
	assert.Contains(t, s, "Input FP16 Hex Array:    [0x0000 0x3C00 0xBE00 0x7E00]")
	assert.Contains(t, s, "  [1] 0x3C00 ->     1.000000  (normal)")
	assert.Contains(t, s, "  [2] 0xBE00 ->    -1.500000  (normal)")
	assert.Contains(t, s, "(nan)")
}

func TestSession_Run(t *testing.T) {
	t.Run("converts, retries on error and exits on no", func(t *testing.T) {
		in := strings.NewReader("1.5, abc\nyes\n1.5, -2.5\nno\n")
		var out bytes.Buffer

		err := NewSession(ModeEncode, in, &out).Run(context.Background())
		require.NoError(t, err)

		s := out.String()
		assert.Contains(t, s, "Decimal Array to FP16 Hexadecimal Converter")
		assert.Contains(t, s, "Error: Invalid input. Please enter numbers separated by commas.")
		assert.Contains(t, s, `"abc" is not a decimal number`)
		assert.Contains(t, s, "[0x3E00 0xC100]")
		assert.True(t, strings.HasSuffix(s, "Exiting...\n"))
	})

	t.Run("quit", func(t *testing.T) {
		var out bytes.Buffer
		err := NewSession(ModeDecode, strings.NewReader("QUIT\n"), &out).Run(context.Background())
		require.NoError(t, err)
		assert.Contains(t, out.String(), "FP16 Hexadecimal to Decimal Converter")
		assert.NotContains(t, out.String(), "CONVERSION RESULTS")
	})

	t.Run("end of input", func(t *testing.T) {
		var out bytes.Buffer
		err := NewSession(ModeDecode, strings.NewReader("0x3C00\n"), &out).Run(context.Background())
		require.NoError(t, err)
		assert.Contains(t, out.String(), "[0] 0x3C00 ->     1.000000")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var out bytes.Buffer
		err := NewSession(ModeEncode, strings.NewReader("1\n"), &out).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
