package binary

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidByte        = errors.New("invalid byte")
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("invalid version header")
	ErrInvalidSectionID   = errors.New("invalid section id")

	// ErrSectionOrder is returned when a known section is out of order or repeated.
	ErrSectionOrder = errors.New("unexpected section")
	// ErrSectionSize is returned when a section or function body does not end where its size says it does.
	ErrSectionSize = errors.New("section size mismatch")

	ErrIllegalOpcode     = errors.New("illegal opcode")
	ErrInvalidLaneIndex  = errors.New("invalid lane index")
	ErrTooManyLocals     = errors.New("too many locals")
	ErrMalformedUTF8     = errors.New("malformed UTF-8 encoding")
	ErrEndOpcodeExpected = errors.New("END opcode expected")
)

// DecodeError is returned by DecodeModule when the input is rejected. Offset is the number of bytes consumed before
// decoding stopped.
type DecodeError struct {
	Offset int
	Err    error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

// Unwrap allows errors.Is against the sentinel errors of this package.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
