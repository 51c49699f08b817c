package binary

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// decodeValueType reads one value type, failing if it needs a feature that is not enabled.
func decodeValueType(r *bytes.Reader, features wasm.Features) (wasm.ValueType, error) {
	vt, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read value type: %w", err)
	}
	if err = checkValueType(vt, features); err != nil {
		return 0, err
	}
	return vt, nil
}

func checkValueType(vt wasm.ValueType, features wasm.Features) error {
	switch vt {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return nil
	case wasm.ValueTypeV128:
		if err := features.Require(wasm.FeatureSIMD); err != nil {
			return fmt.Errorf("value type v128 invalid as %w", err)
		}
		return nil
	case wasm.ValueTypeFuncref, wasm.ValueTypeExternref:
		if err := features.Require(wasm.FeatureReferenceTypes); err != nil {
			return fmt.Errorf("value type %s invalid as %w", wasm.ValueTypeName(vt), err)
		}
		return nil
	}
	return fmt.Errorf("%w: invalid value type: %#x", ErrInvalidByte, vt)
}

func decodeValueTypes(r *bytes.Reader, features wasm.Features) ([]wasm.ValueType, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if int64(vs) > int64(r.Len()) {
		return nil, fmt.Errorf("value type count %d exceeds remaining %d bytes", vs, r.Len())
	}
	ret := make([]wasm.ValueType, vs)
	for i := range ret {
		if ret[i], err = decodeValueType(r, features); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func encodeValueTypes(vt []wasm.ValueType) []byte {
	return append(leb128.EncodeUint32(uint32(len(vt))), vt...)
}

// decodeRefType reads a reference type, where externref needs wasm.FeatureReferenceTypes.
func decodeRefType(r *bytes.Reader, features wasm.Features) (wasm.RefType, error) {
	rt, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read ref type: %w", err)
	}
	switch rt {
	case wasm.RefTypeFuncref:
		return rt, nil
	case wasm.RefTypeExternref:
		if err = features.Require(wasm.FeatureReferenceTypes); err != nil {
			return 0, fmt.Errorf("ref type externref invalid as %w", err)
		}
		return rt, nil
	}
	return 0, fmt.Errorf("%w: malformed reference type: %#x", ErrInvalidByte, rt)
}

// decodeUTF8 decodes a size prefixed string from the reader, returning it and the count of bytes read.
// contextFormat and contextArgs apply an error format when present
func decodeUTF8(r *bytes.Reader, contextFormat string, contextArgs ...interface{}) (string, uint32, error) {
	size, sizeOfSize, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s size: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	if int64(size) > int64(r.Len()) {
		return "", 0, fmt.Errorf("%s of size %d exceeds remaining %d bytes", fmt.Sprintf(contextFormat, contextArgs...), size, r.Len())
	}

	buf := make([]byte, size)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	if !utf8.Valid(buf) {
		return "", 0, fmt.Errorf("%s is not valid UTF-8: %w", fmt.Sprintf(contextFormat, contextArgs...), ErrMalformedUTF8)
	}

	return string(buf), size + uint32(sizeOfSize), nil
}

// decodeBytes reads a size prefixed byte vector.
func decodeBytes(r *bytes.Reader, what string) ([]byte, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of %s: %w", what, err)
	}
	if int64(size) > int64(r.Len()) {
		return nil, fmt.Errorf("%s of size %d exceeds remaining %d bytes", what, size, r.Len())
	}
	b := make([]byte, size)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
	return b, nil
}

// encodeSizePrefixed encodes the data prefixed by its size.
func encodeSizePrefixed(data []byte) []byte {
	size := leb128.EncodeUint32(uint32(len(data)))
	return append(size, data...)
}
