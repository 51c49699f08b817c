package binary

import (
	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// EncodeModule implements wasm.EncodeModule for the WebAssembly Binary Format.
//
// Known sections are written in wasm.SectionOrder when present (non-nil), each followed by the custom sections
// recorded after it. Integers are written in their minimal LEB128 form, so the result can be shorter than the binary
// a module was decoded from.
//
// Note: If saving to a file, the conventional extension is wasm
// See https://www.w3.org/TR/wasm-core-1/#binary-format%E2%91%A0
func EncodeModule(m *wasm.Module) (bytes []byte) {
	bytes = append(append([]byte{}, Magic...), version...)
	bytes = appendCustomSections(bytes, m, wasm.SectionIDCustom)
	for _, id := range wasm.SectionOrder {
		if contents, ok := encodeSectionContents(m, id); ok {
			bytes = append(bytes, encodeSection(id, contents)...)
		}
		bytes = appendCustomSections(bytes, m, id)
	}
	return
}

func appendCustomSections(bytes []byte, m *wasm.Module, after wasm.SectionID) []byte {
	for _, c := range m.CustomSections {
		if c.After == after {
			bytes = append(bytes, encodeCustomSection(c)...)
		}
	}
	return bytes
}

// encodeSectionContents returns the contents of a known section, or false if the module doesn't have it.
func encodeSectionContents(m *wasm.Module, id wasm.SectionID) ([]byte, bool) {
	switch id {
	case wasm.SectionIDType:
		if m.TypeSection != nil {
			return encodeVector(m.TypeSection, encodeFunctionType), true
		}
	case wasm.SectionIDImport:
		if m.ImportSection != nil {
			return encodeVector(m.ImportSection, encodeImport), true
		}
	case wasm.SectionIDFunction:
		if m.FunctionSection != nil {
			return encodeVector(m.FunctionSection, leb128.EncodeUint32), true
		}
	case wasm.SectionIDTable:
		if m.TableSection != nil {
			return encodeVector(m.TableSection, encodeTableType), true
		}
	case wasm.SectionIDMemory:
		if m.MemorySection != nil {
			return encodeVector(m.MemorySection, encodeMemoryType), true
		}
	case wasm.SectionIDGlobal:
		if m.GlobalSection != nil {
			return encodeVector(m.GlobalSection, encodeGlobal), true
		}
	case wasm.SectionIDExport:
		if m.ExportSection != nil {
			return encodeVector(m.ExportSection, encodeExport), true
		}
	case wasm.SectionIDStart:
		if m.StartSection != nil {
			return leb128.EncodeUint32(*m.StartSection), true
		}
	case wasm.SectionIDElement:
		if m.ElementSection != nil {
			return encodeVector(m.ElementSection, encodeElement), true
		}
	case wasm.SectionIDDataCount:
		if m.DataCountSection != nil {
			return leb128.EncodeUint32(*m.DataCountSection), true
		}
	case wasm.SectionIDCode:
		if m.CodeSection != nil {
			return encodeVector(m.CodeSection, encodeCode), true
		}
	case wasm.SectionIDData:
		if m.DataSection != nil {
			return encodeVector(m.DataSection, encodeDataSegment), true
		}
	}
	return nil, false
}
