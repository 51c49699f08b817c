package spectest

import (
	"errors"

	"github.com/sunjito/wasmbin/internal/wasm"
	"github.com/sunjito/wasmbin/internal/wasm/binary"
)

// Codec is the binary codec under test. M is its decoded module, which must be comparable by go-cmp.
type Codec[M any] interface {
	// DecodeModule decodes a module, returning the count of bytes consumed. On error, that's the length of the
	// prefix accepted before failing.
	DecodeModule(b []byte) (m M, consumed int, err error)

	// Materialize decodes any part of the module deferred by DecodeModule. Its errors are decode errors.
	Materialize(m M) error

	// EncodeModule encodes a decoded module.
	EncodeModule(m M) []byte
}

// SectionLister is implemented by codecs that can list the section IDs of a binary in order, which strict round
// trips compare.
type SectionLister interface {
	SectionIDs(b []byte) []byte
}

// WasmbinCodec is the Codec of the binary package.
type WasmbinCodec struct {
	// Features are the features enabled when decoding.
	Features wasm.Features
}

var (
	_ Codec[*wasm.Module] = (*WasmbinCodec)(nil)
	_ SectionLister       = (*WasmbinCodec)(nil)
)

// DecodeModule implements Codec.DecodeModule
func (c *WasmbinCodec) DecodeModule(b []byte) (*wasm.Module, int, error) {
	m, err := binary.DecodeModule(b, c.Features)
	if err != nil {
		var de *binary.DecodeError
		if errors.As(err, &de) {
			return nil, de.Offset, err
		}
		return nil, 0, err
	}
	return m, len(b), nil
}

// Materialize implements Codec.Materialize
func (c *WasmbinCodec) Materialize(m *wasm.Module) error {
	return binary.MaterializeModule(m, c.Features)
}

// EncodeModule implements Codec.EncodeModule
func (c *WasmbinCodec) EncodeModule(m *wasm.Module) []byte {
	return binary.EncodeModule(m)
}

// SectionIDs implements SectionLister.SectionIDs
func (c *WasmbinCodec) SectionIDs(b []byte) []byte {
	return binary.SectionIDs(b)
}
