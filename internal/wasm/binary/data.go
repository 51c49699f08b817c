package binary

import (
	"bytes"
	"fmt"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

func decodeDataSegment(r *bytes.Reader, features wasm.Features) (*wasm.DataSegment, error) {
	prefix, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read data segment prefix: %w", err)
	}

	if prefix != 0 {
		if err = features.Require(wasm.FeatureBulkMemoryOperations); err != nil {
			return nil, fmt.Errorf("non-zero prefix for data segment is invalid as %w", err)
		}
	}

	ret := &wasm.DataSegment{Prefix: prefix}
	switch prefix {
	case 0x0:
	case 0x1:
	case 0x2:
		if ret.MemoryIndex, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read memory index: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid data segment prefix: 0x%x", ErrInvalidByte, prefix)
	}

	if !ret.IsPassive() {
		if ret.OffsetExpr, err = decodeConstantExpression(r, features); err != nil {
			return nil, fmt.Errorf("read offset expression: %w", err)
		}
	}

	if ret.Init, err = decodeBytes(r, "data segment init"); err != nil {
		return nil, err
	}
	return ret, nil
}

func encodeDataSegment(d *wasm.DataSegment) (ret []byte) {
	ret = leb128.EncodeUint32(d.Prefix)
	if d.Prefix == 0x2 {
		ret = append(ret, leb128.EncodeUint32(d.MemoryIndex)...)
	}
	if !d.IsPassive() {
		ret = append(ret, encodeConstantExpression(d.OffsetExpr)...)
	}
	return append(ret, encodeSizePrefixed(d.Init)...)
}
