package wast

import (
	"errors"
	"fmt"

	"github.com/sunjito/wasmbin/internal/wat"
)

// DirectiveKind is the closed set of script directive classes the driver distinguishes.
type DirectiveKind byte

const (
	// DirectiveOther is any directive not listed below, such as assert_return or register.
	DirectiveOther DirectiveKind = iota
	DirectiveModule
	DirectiveAssertMalformed
	DirectiveAssertInvalid
	DirectiveAssertUnlinkable
)

var directiveKindNames = [...]string{
	DirectiveOther:            "other",
	DirectiveModule:           "module",
	DirectiveAssertMalformed:  "assert_malformed",
	DirectiveAssertInvalid:    "assert_invalid",
	DirectiveAssertUnlinkable: "assert_unlinkable",
}

func (k DirectiveKind) String() string {
	return directiveKindNames[k]
}

// directiveKinds maps the keyword at the head of a directive to its kind.
var directiveKinds = map[string]DirectiveKind{
	"module":            DirectiveModule,
	"assert_malformed":  DirectiveAssertMalformed,
	"assert_invalid":    DirectiveAssertInvalid,
	"assert_unlinkable": DirectiveAssertUnlinkable,
}

// Directive is one top-level form of a script.
type Directive struct {
	Kind DirectiveKind
	// Keyword is the head of the directive as written, ex. "assert_trap".
	Keyword string
	// Line and Col are the 1-based position of the directive's opening paren.
	Line, Col uint32
	// Module is the module the directive defines or asserts about, or nil when it has none.
	Module *ModuleSource
	// Message is the expected failure message of an assertion.
	Message string
}

// ModuleForm is the way a module is written in a script.
type ModuleForm byte

const (
	// ModuleFormText is a module in the text format, ex. (module (func)).
	ModuleFormText ModuleForm = iota
	// ModuleFormBinary is a module given as string literals of its binary encoding, ex. (module binary "\00asm").
	ModuleFormBinary
	// ModuleFormQuote is a module given as string literals of its text format, ex. (module quote "(func)").
	ModuleFormQuote
)

func (f ModuleForm) String() string {
	switch f {
	case ModuleFormText:
		return "text"
	case ModuleFormBinary:
		return "binary"
	case ModuleFormQuote:
		return "quote"
	}
	return "unknown"
}

// ModuleSource is the syntax of a module as it appears in a script.
type ModuleSource struct {
	Form ModuleForm
	// ID is the optional $name of the module, without the dollar sign.
	ID string
	// Text is the source of the whole (module ...) form for ModuleFormText, or the concatenated strings for
	// ModuleFormQuote.
	Text string
	// Binary is the concatenated strings for ModuleFormBinary.
	Binary []byte
}

// ErrQuoteModule is returned when encoding a quoted module, whose text is meant to be rejected by a text parser.
var ErrQuoteModule = errors.New("quote modules are not encoded")

// Encode returns the binary encoding of the module, using the encoder for the text format.
func (m *ModuleSource) Encode(encoder wat.Encoder) ([]byte, error) {
	switch m.Form {
	case ModuleFormBinary:
		return m.Binary, nil
	case ModuleFormText:
		b, err := encoder.Wat2Wasm(m.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", encoder.Name(), err)
		}
		return b, nil
	}
	return nil, ErrQuoteModule
}
