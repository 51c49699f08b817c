package binary

import (
	"bytes"
	"fmt"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

func ensureElementKindFuncRef(r *bytes.Reader) error {
	elemKind, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read element kind: %w", err)
	}
	if elemKind != 0x0 { // ElemKind is fixed to 0x0 now: https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#element-section
		return fmt.Errorf("%w: element kind must be zero but was 0x%x", ErrInvalidByte, elemKind)
	}
	return nil
}

func decodeElementInitValueVector(r *bytes.Reader) ([]wasm.Index, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if int64(vs) > int64(r.Len()) {
		return nil, fmt.Errorf("function index count %d exceeds remaining %d bytes", vs, r.Len())
	}

	vec := make([]wasm.Index, vs)
	for i := range vec {
		if vec[i], _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read function index: %w", err)
		}
	}
	return vec, nil
}

func decodeElementConstExprVector(r *bytes.Reader, features wasm.Features) ([]*wasm.ConstantExpression, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	if int64(vs) > int64(r.Len()) {
		return nil, fmt.Errorf("element expression count %d exceeds remaining %d bytes", vs, r.Len())
	}
	vec := make([]*wasm.ConstantExpression, vs)
	for i := range vec {
		if vec[i], err = decodeConstantExpression(r, features); err != nil {
			return nil, err
		}
	}
	return vec, nil
}

// decodeElementSegment decodes any of the eight encodings selected by the leading prefix. Only prefix zero is
// WebAssembly 1.0, the others arrived with bulk memory operations and reference types.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#element-section
func decodeElementSegment(r *bytes.Reader, features wasm.Features) (*wasm.ElementSegment, error) {
	prefix, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read element prefix: %w", err)
	}

	if prefix != 0 {
		if !features.Get(wasm.FeatureBulkMemoryOperations) && !features.Get(wasm.FeatureReferenceTypes) {
			return nil, fmt.Errorf("non-zero prefix for element segment is invalid as %w",
				features.Require(wasm.FeatureBulkMemoryOperations))
		}
	}

	ret := &wasm.ElementSegment{Prefix: prefix, Type: wasm.RefTypeFuncref}
	switch prefix {
	case 0, 2, 4, 6:
		ret.Mode = wasm.ElementModeActive
	case 1, 5:
		ret.Mode = wasm.ElementModePassive
	case 3, 7:
		ret.Mode = wasm.ElementModeDeclarative
	default:
		return nil, fmt.Errorf("%w: invalid element segment prefix: 0x%x", ErrInvalidByte, prefix)
	}

	// Prefixes 2 and 6 carry an explicit table index.
	if prefix&0x2 != 0 && ret.Mode == wasm.ElementModeActive {
		if ret.TableIndex, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("get table index: %w", err)
		}
	}

	if ret.Mode == wasm.ElementModeActive {
		if ret.OffsetExpr, err = decodeConstantExpression(r, features); err != nil {
			return nil, fmt.Errorf("read expr for offset: %w", err)
		}
	}

	// Prefix 0 and 4 have neither an element kind nor a ref type: the table holds funcref.
	explicitType := prefix != 0 && prefix != 4
	if ret.UsesExpressions() {
		if explicitType {
			if ret.Type, err = decodeRefType(r, features); err != nil {
				return nil, err
			}
		}
		if ret.InitExprs, err = decodeElementConstExprVector(r, features); err != nil {
			return nil, err
		}
		return ret, nil
	}

	if explicitType {
		if err = ensureElementKindFuncRef(r); err != nil {
			return nil, err
		}
	}
	if ret.Init, err = decodeElementInitValueVector(r); err != nil {
		return nil, err
	}
	return ret, nil
}

// encodeElement returns the wasm.ElementSegment encoded in the form selected by its Prefix.
func encodeElement(e *wasm.ElementSegment) (ret []byte) {
	ret = leb128.EncodeUint32(e.Prefix)
	if e.Prefix&0x2 != 0 && e.Mode == wasm.ElementModeActive {
		ret = append(ret, leb128.EncodeUint32(e.TableIndex)...)
	}
	if e.Mode == wasm.ElementModeActive {
		ret = append(ret, encodeConstantExpression(e.OffsetExpr)...)
	}
	explicitType := e.Prefix != 0 && e.Prefix != 4
	if e.UsesExpressions() {
		if explicitType {
			ret = append(ret, e.Type)
		}
		ret = append(ret, leb128.EncodeUint32(uint32(len(e.InitExprs)))...)
		for _, expr := range e.InitExprs {
			ret = append(ret, encodeConstantExpression(expr)...)
		}
		return
	}
	if explicitType {
		ret = append(ret, 0x00) // element kind funcref
	}
	ret = append(ret, leb128.EncodeUint32(uint32(len(e.Init)))...)
	for _, idx := range e.Init {
		ret = append(ret, leb128.EncodeUint32(idx)...)
	}
	return
}
