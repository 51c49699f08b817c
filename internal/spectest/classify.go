// Package spectest drives a WebAssembly binary codec through the module-defining directives of the WebAssembly
// script test suite: each module is decoded, fully materialized and re-encoded, and the result is checked against
// the outcome the directive asserts.
package spectest

import (
	"fmt"

	"github.com/sunjito/wasmbin/internal/wast"
)

// Outcome is the expected result of decoding a test case's module.
type Outcome struct {
	// Fail is true when the module must be rejected.
	Fail bool
	// Message is the failure the directive asserts. It is advisory: the codec's error text is not compared.
	Message string
}

// Pass is the outcome of a module that must decode and round trip.
var Pass = Outcome{}

// Fail returns the outcome of a module that must be rejected with the given message.
func Fail(message string) Outcome {
	return Outcome{Fail: true, Message: message}
}

func (o Outcome) String() string {
	if o.Fail {
		return fmt.Sprintf("fail(%q)", o.Message)
	}
	return "pass"
}

// TestCase is a module and the outcome expected of decoding it.
type TestCase struct {
	// Name is "<path>:<line>:<col>" of the directive that defined the module.
	Name string
	// Module is the binary encoding of the module. It must not be modified.
	Module   []byte
	Expected Outcome
	// Ignored is set once by Policy.Annotate.
	Ignored bool
	// Extension is the extension suite the case was loaded from, or empty for the base suite.
	Extension string
}

// InScopeInvalidMessages are the assert_invalid messages that correspond to checks made while decoding, rather than
// during validation. Any other assert_invalid module must decode.
//
// Lane indices are part of the instruction encoding of the SIMD proposal, so they are checked when decoding.
// See https://github.com/WebAssembly/simd/issues/256
var InScopeInvalidMessages = []string{
	"invalid lane index",
}

// Classify returns the expected outcome of decoding the module of a directive, or false if the directive is not
// relevant to the codec.
func Classify(d *wast.Directive) (Outcome, bool) {
	// A quoted module tests the text format, which isn't a concern of a binary codec.
	if d.Module != nil && d.Module.Form == wast.ModuleFormQuote {
		return Outcome{}, false
	}

	switch d.Kind {
	case wast.DirectiveModule:
		return Pass, true
	case wast.DirectiveAssertMalformed:
		return Fail(d.Message), true
	case wast.DirectiveAssertInvalid:
		if contains(InScopeInvalidMessages, d.Message) {
			return Fail(d.Message), true
		}
		// Validation isn't performed by the codec, so the module must still decode.
		return Pass, true
	case wast.DirectiveAssertUnlinkable:
		return Pass, true
	}
	return Outcome{}, false
}
