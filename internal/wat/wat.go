// Package wat converts modules in the WebAssembly Text Format to the Binary Format, using an existing runtime's
// text parser.
package wat

import (
	"errors"
	"fmt"
	"sort"
)

// Encoder converts a module in the text format to the binary format.
type Encoder interface {
	// Name is the name the encoder is selected by.
	Name() string

	// Wat2Wasm returns the binary encoding of the module in text format.
	Wat2Wasm(wat string) ([]byte, error)
}

// DefaultEncoder is the name of the encoder used when none is configured.
const DefaultEncoder = "wasmtime"

// ErrUnavailable is returned when an encoder is not compiled into this binary, such as when cgo is disabled.
var ErrUnavailable = errors.New("text format encoder unavailable")

var encoders = map[string]func() Encoder{}

// New returns the encoder registered under the given name.
func New(name string) (Encoder, error) {
	if name == "" {
		name = DefaultEncoder
	}
	newEncoder, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown text format encoder %q, expected one of %v", name, Names())
	}
	return newEncoder(), nil
}

// Names returns the registered encoder names, sorted.
func Names() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
