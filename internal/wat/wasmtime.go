//go:build cgo

package wat

import "github.com/bytecodealliance/wasmtime-go"

func init() {
	encoders["wasmtime"] = func() Encoder { return wasmtimeEncoder{} }
}

// wasmtimeEncoder converts with wasmtime's text parser, which is implemented by wasm-tools via cgo.
type wasmtimeEncoder struct{}

func (wasmtimeEncoder) Name() string { return "wasmtime" }

func (wasmtimeEncoder) Wat2Wasm(wat string) ([]byte, error) {
	return wasmtime.Wat2Wasm(wat)
}
