package binary

import (
	"bytes"
	"fmt"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// decodeLimitsType returns the wasm.Limits decoded with the WebAssembly 1.0 (20191205) Binary Format, extended with
// the shared flags of the threads proposal when allowShared.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#limits%E2%91%A6
func decodeLimitsType(r *bytes.Reader, allowShared bool, features wasm.Features) (*wasm.Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	ret := &wasm.Limits{}
	switch flag {
	case 0x00, 0x01:
	case 0x02, 0x03:
		if !allowShared {
			return nil, fmt.Errorf("%w: invalid limits flags: %#x", ErrInvalidByte, flag)
		}
		if err = features.Require(wasm.FeatureThreads); err != nil {
			return nil, fmt.Errorf("shared memory invalid as %w", err)
		}
		ret.Shared = true
	default:
		return nil, fmt.Errorf("%w: invalid limits flags: %#x", ErrInvalidByte, flag)
	}

	if ret.Min, _, err = leb128.DecodeUint32(r); err != nil {
		return nil, fmt.Errorf("read min of limit: %w", err)
	}
	if flag&0x01 != 0 {
		max, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read max of limit: %w", err)
		}
		ret.Max = &max
	}
	return ret, nil
}

// encodeLimitsType returns the wasm.Limits encoded in WebAssembly 1.0 (20191205) Binary Format.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#limits%E2%91%A6
func encodeLimitsType(l *wasm.Limits) []byte {
	var flag byte
	if l.Shared {
		flag = 0x02
	}
	if l.Max == nil {
		return append([]byte{flag}, leb128.EncodeUint32(l.Min)...)
	}
	return append(append([]byte{flag | 0x01}, leb128.EncodeUint32(l.Min)...), leb128.EncodeUint32(*l.Max)...)
}

// decodeTableType returns the wasm.Table decoded with the WebAssembly Binary Format.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/types.html#table-types
func decodeTableType(r *bytes.Reader, features wasm.Features) (*wasm.Table, error) {
	rt, err := decodeRefType(r, features)
	if err != nil {
		return nil, err
	}
	limits, err := decodeLimitsType(r, false, features)
	if err != nil {
		return nil, fmt.Errorf("read limits: %w", err)
	}
	return &wasm.Table{Type: rt, Limits: *limits}, nil
}

func encodeTableType(t *wasm.Table) []byte {
	return append([]byte{t.Type}, encodeLimitsType(&t.Limits)...)
}

// decodeMemoryType returns the wasm.Memory decoded with the WebAssembly Binary Format.
//
// Note: Page counts are not range checked here, as that is validation.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/types.html#memory-types
func decodeMemoryType(r *bytes.Reader, features wasm.Features) (*wasm.Memory, error) {
	limits, err := decodeLimitsType(r, true, features)
	if err != nil {
		return nil, err
	}
	return &wasm.Memory{Limits: *limits}, nil
}

func encodeMemoryType(m *wasm.Memory) []byte {
	return encodeLimitsType(&m.Limits)
}
