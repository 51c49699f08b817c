//go:build !cgo

package wat

func init() {
	encoders["wasmtime"] = func() Encoder { return unavailable("wasmtime") }
	encoders["wasmer"] = func() Encoder { return unavailable("wasmer") }
}

// unavailable stands in for the cgo encoders, failing every conversion.
type unavailable string

func (u unavailable) Name() string { return string(u) }

func (u unavailable) Wat2Wasm(string) ([]byte, error) {
	return nil, ErrUnavailable
}
