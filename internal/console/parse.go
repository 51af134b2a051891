package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/23skdu/longbow-fp16/internal/fp16"
)

// SplitTokens splits a comma separated line and trims each token. Tokens are
// NFKC normalised first, so full-width digits and non-breaking spaces typed by
// some keyboards read like their ASCII forms.
func SplitTokens(line string) []string {
	// Chained transformers keep state between calls; build one per call.
	tform := transform.Chain(norm.NFKC, runes.Remove(runes.In(unicode.Cc)))
	cleaned, _, err := transform.String(tform, line)
	if err != nil {
		cleaned = line
	}

	parts := strings.Split(cleaned, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ParseDecimals parses every token of line as a float64. Literals outside the
// float64 range saturate to infinity or zero. All bad tokens are reported.
func ParseDecimals(line string) ([]float64, error) {
	tokens := SplitTokens(line)
	values := make([]float64, len(tokens))
	var result *multierror.Error

	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			result = multierror.Append(result, fmt.Errorf("[%d] %q is not a decimal number", i, tok))
			continue
		}
		values[i] = v
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return values, nil
}

// ParseHex parses every token of line as a binary16 hex literal and returns
// the trimmed tokens alongside their patterns. All bad tokens are reported.
func ParseHex(line string) ([]string, []uint16, error) {
	tokens := SplitTokens(line)
	bits := make([]uint16, len(tokens))
	var result *multierror.Error

	for i, tok := range tokens {
		h, err := fp16.FromHex(tok)
		if err != nil {
			result = multierror.Append(result, &fp16.BatchError{Index: i, Err: err})
			continue
		}
		bits[i] = h
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, nil, err
	}
	return tokens, bits, nil
}
