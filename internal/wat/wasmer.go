//go:build cgo

package wat

import "github.com/wasmerio/wasmer-go/wasmer"

func init() {
	encoders["wasmer"] = func() Encoder { return wasmerEncoder{} }
}

// wasmerEncoder converts with wasmer's text parser.
//
// Note: wasmer.Wat2Wasm calls wasmer via cgo which is eventually implemented by wasm-tools, like wasmtime.
type wasmerEncoder struct{}

func (wasmerEncoder) Name() string { return "wasmer" }

func (wasmerEncoder) Wat2Wasm(wat string) ([]byte, error) {
	return wasmer.Wat2Wasm(wat)
}
