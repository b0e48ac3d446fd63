package line

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferOverflow indicates a line exceeds LineBufferSize before a
	// terminator is seen.
	ErrBufferOverflow = errors.New("line buffer overflow")
	// ErrTooShort indicates the line is empty, a single stray byte, or
	// starts with an empty field.
	ErrTooShort = errors.New("line too short")
	// ErrFieldCountMismatch indicates the line doesn't have exactly
	// FieldCount-1 tab separators.
	ErrFieldCountMismatch = errors.New("field count mismatch")
	// ErrNotDecimal indicates a token has no decimal point or no integer
	// digits before it.
	ErrNotDecimal = errors.New("not a decimal")
	// ErrTokenTooLong indicates the integer part of a token exceeds
	// MaxIntegerDigits.
	ErrTokenTooLong = errors.New("token too long")
	// ErrDecodeFailure indicates one of the fields failed to decode.
	ErrDecodeFailure = errors.New("decode failure")
)

// FieldError wraps the decoder error of a single field.
type FieldError struct {
	Index int
	Token []byte
	Err   error
}

// Error implements error.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %d %q: %v", e.Index, e.Token, e.Err)
}

// Unwrap returns the decoder error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is reports FieldError as ErrDecodeFailure.
func (e *FieldError) Is(target error) bool {
	return target == ErrDecodeFailure
}
