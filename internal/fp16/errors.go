package fp16

import (
	"errors"
	"fmt"
)

// ErrInvalidHexFormat is matched by every error FromHex returns.
var ErrInvalidHexFormat = errors.New("invalid hex format")

// InvalidHexFormatError reports a token that is not a 16-bit hex literal.
type InvalidHexFormatError struct {
	Token  string
	Reason string
}

func (e *InvalidHexFormatError) Error() string {
	return fmt.Sprintf("invalid hex format %q: %s", e.Token, e.Reason)
}

func (e *InvalidHexFormatError) Is(target error) bool {
	return target == ErrInvalidHexFormat
}

// BatchError identifies the element that failed a batch conversion.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
