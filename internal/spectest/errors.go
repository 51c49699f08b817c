package spectest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCorpusConfiguration is returned when the corpus can't be read, or yields no test case at all.
	ErrCorpusConfiguration = errors.New("corpus configuration error")

	// ErrConfig is returned for an invalid run configuration.
	ErrConfig = errors.New("invalid configuration")
)

// UnexpectedSuccessError is a module expected to be rejected, which decoded without error.
type UnexpectedSuccessError struct {
	// Expected is the message the module was expected to be rejected with.
	Expected string
	// Parsed are the bytes the codec consumed.
	Parsed []byte
	// Module is a dump of the decoded module.
	Module string
}

func (e *UnexpectedSuccessError) Error() string {
	return fmt.Sprintf("expected an invalid module definition with an error: %s\nparsed part: %s\ngot module: %s",
		e.Expected, hexBytes(e.Parsed), e.Module)
}

// UnexpectedDecodeError is a module expected to decode, which the codec rejected.
type UnexpectedDecodeError struct {
	// Parsed is the prefix of the module the codec consumed before failing.
	Parsed []byte
	// Unparsed is the remainder.
	Unparsed []byte
	Err      error
}

func (e *UnexpectedDecodeError) Error() string {
	return fmt.Sprintf("expected a valid module definition, but got an error\nparsed part: %s\nunparsed part: %s\nerror: %v",
		hexBytes(e.Parsed), hexBytes(e.Unparsed), e.Err)
}

func (e *UnexpectedDecodeError) Unwrap() error {
	return e.Err
}

// RoundtripMismatchError is a module whose re-encoding neither matches its bytes nor decodes to an equal module.
type RoundtripMismatchError struct {
	// Old and New are dumps of the decoded module and of the decoded re-encoding.
	Old, New string
	// Diff is the structural difference between the two, or empty when the re-encoding didn't decode.
	Diff string
	// Reason is set when the modules are equal but the round trip was still rejected.
	Reason string
	// Err is the error decoding the re-encoding, if any.
	Err error
}

func (e *RoundtripMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("roundtrip mismatch")
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": re-encoded module doesn't decode: %v", e.Err)
	}
	fmt.Fprintf(&b, "\nold: %s", e.Old)
	if e.New != "" {
		fmt.Fprintf(&b, "\nnew: %s", e.New)
	}
	if e.Diff != "" {
		fmt.Fprintf(&b, "\ndiff (-old +new):\n%s", e.Diff)
	}
	return b.String()
}

func (e *RoundtripMismatchError) Unwrap() error {
	return e.Err
}

// hexBytes formats bytes as bracketed upper-case hex pairs, ex. [00 61 73 6D].
func hexBytes(b []byte) string {
	return fmt.Sprintf("[% X]", b)
}
