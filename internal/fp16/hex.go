package fp16

import (
	"fmt"
	"strconv"
)

const maxHexDigits = 4

// ToHex formats h as 0x followed by four uppercase hex digits.
func ToHex(h uint16) string {
	return fmt.Sprintf("0x%04X", h)
}

// FromHex parses an optional 0x/0X prefix followed by one to four hex digits.
// The token is not trimmed.
func FromHex(token string) (uint16, error) {
	if token == "" {
		return 0, &InvalidHexFormatError{Token: token, Reason: "empty token"}
	}
	digits := token
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
		if digits == "" {
			return 0, &InvalidHexFormatError{Token: token, Reason: "missing digits after prefix"}
		}
	}
	for i := 0; i < len(digits); i++ {
		if !isHexDigit(digits[i]) {
			return 0, &InvalidHexFormatError{
				Token:  token,
				Reason: fmt.Sprintf("non-hex character %q", digits[i]),
			}
		}
	}
	if len(digits) > maxHexDigits {
		return 0, &InvalidHexFormatError{
			Token:  token,
			Reason: fmt.Sprintf("%d digits exceed 16 bits", len(digits)),
		}
	}

	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, &InvalidHexFormatError{Token: token, Reason: err.Error()}
	}
	return uint16(v), nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
