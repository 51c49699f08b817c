package binary

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// decodeCode reads the size of a code entry and keeps its contents in wasm.Code Raw, to be decoded by
// MaterializeModule.
func decodeCode(r *bytes.Reader) (*wasm.Code, error) {
	ss, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get the size of code: %w", err)
	}
	if int64(ss) > int64(r.Len()) {
		return nil, fmt.Errorf("code of size %d exceeds remaining %d bytes: %w", ss, r.Len(), ErrSectionSize)
	}

	raw := make([]byte, ss)
	if _, err = io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read code: %w", err)
	}
	return &wasm.Code{Raw: raw}, nil
}

// MaterializeModule decodes every lazy function body of the module, verifying each instruction against the
// enabled features. Decode errors deferred by DecodeModule surface here.
func MaterializeModule(m *wasm.Module, features wasm.Features) error {
	for i, c := range m.CodeSection {
		if !c.IsLazy() {
			continue
		}
		if err := materializeCode(c, features); err != nil {
			return fmt.Errorf("code[%d]: %w", i, err)
		}
	}
	return nil
}

func materializeCode(c *wasm.Code, features wasm.Features) error {
	r := bytes.NewReader(c.Raw)

	groups, err := decodeLocalGroups(r, features)
	if err != nil {
		return err
	}

	body := c.Raw[len(c.Raw)-r.Len():]
	if err = scanBody(body, features); err != nil {
		return err
	}

	c.LocalGroups = groups
	c.Body = body
	c.Raw = nil
	return nil
}

func decodeLocalGroups(r *bytes.Reader, features wasm.Features) ([]wasm.LocalGroup, error) {
	ls, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get the size locals: %w", err)
	}
	if int64(ls) > int64(r.Len()) {
		return nil, fmt.Errorf("local group count %d exceeds remaining %d bytes", ls, r.Len())
	}

	groups := make([]wasm.LocalGroup, ls)
	var sum uint64
	for i := range groups {
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read n of locals: %w", err)
		}
		sum += uint64(n)
		if sum > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d", ErrTooManyLocals, sum)
		}

		vt, err := decodeValueType(r, features)
		if err != nil {
			return nil, fmt.Errorf("read type of local: %w", err)
		}
		groups[i] = wasm.LocalGroup{Count: n, Type: vt}
	}
	return groups, nil
}

// encodeCode returns the wasm.Code encoded in WebAssembly 1.0 (20191205) Binary Format. Lazy entries are written
// back as they were read.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-code
func encodeCode(c *wasm.Code) []byte {
	if c.IsLazy() {
		return encodeSizePrefixed(c.Raw)
	}

	code := leb128.EncodeUint32(uint32(len(c.LocalGroups)))
	for _, g := range c.LocalGroups {
		code = append(code, leb128.EncodeUint32(g.Count)...)
		code = append(code, g.Type)
	}
	code = append(code, c.Body...)
	return encodeSizePrefixed(code)
}
