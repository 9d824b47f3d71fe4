package capcode

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrReservedRune    = errors.New("capcode: input contains reserved marker")
	ErrInvalidAlphabet = errors.New("capcode: invalid alphabet")
	ErrMalformed       = errors.New("capcode: malformed encoded text")
	ErrClosed          = errors.New("capcode: writer closed")
)

// InputError reports a reserved marker found in text passed to Encode.
// Offset is the byte offset for string input and the rune index for rune
// input.
type InputError struct {
	Rune   rune
	Offset int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("capcode: reserved marker %U at offset %d", e.Rune, e.Offset)
}

func (e *InputError) Unwrap() error {
	return ErrReservedRune
}

// SyntaxError reports a malformed token sequence found by Check.
type SyntaxError struct {
	Reason string
	Offset int
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("capcode: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("capcode: %s", e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}
