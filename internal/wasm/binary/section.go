package binary

import (
	"bytes"
	"fmt"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// decodeVectorSize reads the element count of a vector, rejecting counts that could not fit in the remaining bytes
// before allocating for them.
func decodeVectorSize(r *bytes.Reader) (uint32, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return 0, fmt.Errorf("get size of vector: %w", err)
	}
	if int64(vs) > int64(r.Len()) {
		return 0, fmt.Errorf("vector size %d exceeds remaining %d bytes", vs, r.Len())
	}
	return vs, nil
}

func decodeTypeSection(r *bytes.Reader, features wasm.Features) ([]*wasm.FunctionType, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.FunctionType, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeFunctionType(r, features); err != nil {
			return nil, fmt.Errorf("read %d-th type: %w", i, err)
		}
	}
	return result, nil
}

func decodeFunctionType(r *bytes.Reader, features wasm.Features) (*wasm.FunctionType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}

	if b != 0x60 {
		return nil, fmt.Errorf("%w: %#x != 0x60", ErrInvalidByte, b)
	}

	params, err := decodeValueTypes(r, features)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter types: %w", err)
	}

	results, err := decodeValueTypes(r, features)
	if err != nil {
		return nil, fmt.Errorf("could not read result types: %w", err)
	}

	if len(results) > 1 {
		if err = features.Require(wasm.FeatureMultiValue); err != nil {
			return nil, fmt.Errorf("multiple result types invalid as %w", err)
		}
	}

	return &wasm.FunctionType{Params: params, Results: results}, nil
}

func decodeImportSection(r *bytes.Reader, features wasm.Features) ([]*wasm.Import, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.Import, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeImport(r, i, features); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func decodeFunctionSection(r *bytes.Reader) ([]wasm.Index, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]wasm.Index, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("get type index: %w", err)
		}
	}
	return result, nil
}

func decodeTableSection(r *bytes.Reader, features wasm.Features) ([]*wasm.Table, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	ret := make([]*wasm.Table, vs)
	for i := range ret {
		if ret[i], err = decodeTableType(r, features); err != nil {
			return nil, fmt.Errorf("read table[%d]: %w", i, err)
		}
	}
	return ret, nil
}

func decodeMemorySection(r *bytes.Reader, features wasm.Features) ([]*wasm.Memory, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	ret := make([]*wasm.Memory, vs)
	for i := range ret {
		if ret[i], err = decodeMemoryType(r, features); err != nil {
			return nil, fmt.Errorf("read memory[%d]: %w", i, err)
		}
	}
	return ret, nil
}

func decodeGlobalSection(r *bytes.Reader, features wasm.Features) ([]*wasm.Global, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.Global, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeGlobal(r, features); err != nil {
			return nil, fmt.Errorf("global[%d]: %w", i, err)
		}
	}
	return result, nil
}

func decodeExportSection(r *bytes.Reader) ([]*wasm.Export, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.Export, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeExport(r, i); err != nil {
			return nil, fmt.Errorf("read export: %w", err)
		}
	}
	return result, nil
}

func decodeStartSection(r *bytes.Reader) (*wasm.Index, error) {
	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get function index: %w", err)
	}
	return &vs, nil
}

func decodeElementSection(r *bytes.Reader, features wasm.Features) ([]*wasm.ElementSegment, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.ElementSegment, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeElementSegment(r, features); err != nil {
			return nil, fmt.Errorf("read element: %w", err)
		}
	}
	return result, nil
}

func decodeDataCountSection(r *bytes.Reader, features wasm.Features) (*uint32, error) {
	if err := features.Require(wasm.FeatureBulkMemoryOperations); err != nil {
		return nil, fmt.Errorf("data count section not supported as %w", err)
	}
	v, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get data count: %w", err)
	}
	return &v, nil
}

func decodeCodeSection(r *bytes.Reader) ([]*wasm.Code, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.Code, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeCode(r); err != nil {
			return nil, fmt.Errorf("read %d-th code segment: %w", i, err)
		}
	}
	return result, nil
}

func decodeDataSection(r *bytes.Reader, features wasm.Features) ([]*wasm.DataSegment, error) {
	vs, err := decodeVectorSize(r)
	if err != nil {
		return nil, err
	}

	result := make([]*wasm.DataSegment, vs)
	for i := uint32(0); i < vs; i++ {
		if result[i], err = decodeDataSegment(r, features); err != nil {
			return nil, fmt.Errorf("read data segment: %w", err)
		}
	}
	return result, nil
}

// decodeCustomSection reads the name of a custom section, keeping the rest of the section as its data.
func decodeCustomSection(r *bytes.Reader, after wasm.SectionID) (*wasm.CustomSection, error) {
	name, _, err := decodeUTF8(r, "custom section name")
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.Len())
	_, _ = r.Read(data)
	return &wasm.CustomSection{Name: name, Data: data, After: after}, nil
}

// encodeSection encodes the sectionID, the size of its contents in bytes, followed by the contents.
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
func encodeSection(sectionID wasm.SectionID, contents []byte) []byte {
	return append([]byte{sectionID}, encodeSizePrefixed(contents)...)
}

// encodeVector encodes the count of items followed by each encoded item.
func encodeVector[T any](items []T, encode func(T) []byte) []byte {
	contents := leb128.EncodeUint32(uint32(len(items)))
	for _, item := range items {
		contents = append(contents, encode(item)...)
	}
	return contents
}

func encodeFunctionType(t *wasm.FunctionType) []byte {
	data := append([]byte{0x60}, encodeValueTypes(t.Params)...)
	return append(data, encodeValueTypes(t.Results)...)
}

func encodeCustomSection(c *wasm.CustomSection) []byte {
	contents := append(encodeSizePrefixed([]byte(c.Name)), c.Data...)
	return encodeSection(wasm.SectionIDCustom, contents)
}
