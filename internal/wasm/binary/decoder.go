package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

var (
	// Magic is the preamble of every module, "\0asm".
	Magic = []byte{0x00, 0x61, 0x73, 0x6D}
	// version is the only version of the binary format.
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// headerSize is the length of Magic and version together.
const headerSize = 8

// DecodeModule decodes a module in the WebAssembly Binary Format, leaving function bodies lazy. Call
// MaterializeModule to decode them.
//
// Errors are *DecodeError, whose Offset is how far decoding got.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#binary-module
func DecodeModule(binary []byte, features wasm.Features) (*wasm.Module, error) {
	r := bytes.NewReader(binary)
	offset := func() int { return len(binary) - r.Len() }

	// Magic number.
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, Magic) {
		return nil, &DecodeError{Offset: 0, Err: ErrInvalidMagicNumber}
	}

	// Version.
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, version) {
		return nil, &DecodeError{Offset: 4, Err: ErrInvalidVersion}
	}

	m := &wasm.Module{}
	lastKnown := wasm.SectionIDCustom
	lastOrder := -1
	for {
		sectionID, err := r.ReadByte()
		if err == io.EOF {
			break
		}

		start := offset()
		sectionSize, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, &DecodeError{Offset: start, Err: fmt.Errorf("get size of section %s: %w", wasm.SectionIDName(sectionID), err)}
		}

		contentStart := offset()
		if int64(sectionSize) > int64(r.Len()) {
			return nil, &DecodeError{Offset: contentStart, Err: fmt.Errorf("section %s of size %d exceeds remaining %d bytes: %w",
				wasm.SectionIDName(sectionID), sectionSize, r.Len(), ErrSectionSize)}
		}

		if sectionID != wasm.SectionIDCustom {
			order := sectionOrder(sectionID)
			if order < 0 {
				return nil, &DecodeError{Offset: start - 1, Err: fmt.Errorf("%w: %#x", ErrInvalidSectionID, sectionID)}
			}
			if order <= lastOrder {
				return nil, &DecodeError{Offset: start - 1, Err: fmt.Errorf("%w: %s after %s",
					ErrSectionOrder, wasm.SectionIDName(sectionID), wasm.SectionIDName(lastKnown))}
			}
			lastOrder, lastKnown = order, sectionID
		}

		sr := bytes.NewReader(binary[contentStart : contentStart+int(sectionSize)])
		err = decodeSection(m, sectionID, lastKnown, sr, features)
		if err == nil && sr.Len() != 0 {
			err = fmt.Errorf("%w: expected %d bytes but read %d", ErrSectionSize, sectionSize, int(sectionSize)-sr.Len())
		}
		if err != nil {
			return nil, &DecodeError{
				Offset: contentStart + int(sectionSize) - sr.Len(),
				Err:    fmt.Errorf("section %s: %w", wasm.SectionIDName(sectionID), err),
			}
		}

		if _, err = r.Seek(int64(sectionSize), io.SeekCurrent); err != nil {
			return nil, &DecodeError{Offset: contentStart, Err: err}
		}
	}
	return m, nil
}

func decodeSection(m *wasm.Module, sectionID, lastKnown wasm.SectionID, r *bytes.Reader, features wasm.Features) (err error) {
	switch sectionID {
	case wasm.SectionIDCustom:
		var c *wasm.CustomSection
		if c, err = decodeCustomSection(r, lastKnown); err == nil {
			m.CustomSections = append(m.CustomSections, c)
		}
	case wasm.SectionIDType:
		m.TypeSection, err = decodeTypeSection(r, features)
	case wasm.SectionIDImport:
		m.ImportSection, err = decodeImportSection(r, features)
	case wasm.SectionIDFunction:
		m.FunctionSection, err = decodeFunctionSection(r)
	case wasm.SectionIDTable:
		m.TableSection, err = decodeTableSection(r, features)
	case wasm.SectionIDMemory:
		m.MemorySection, err = decodeMemorySection(r, features)
	case wasm.SectionIDGlobal:
		m.GlobalSection, err = decodeGlobalSection(r, features)
	case wasm.SectionIDExport:
		m.ExportSection, err = decodeExportSection(r)
	case wasm.SectionIDStart:
		m.StartSection, err = decodeStartSection(r)
	case wasm.SectionIDElement:
		m.ElementSection, err = decodeElementSection(r, features)
	case wasm.SectionIDDataCount:
		m.DataCountSection, err = decodeDataCountSection(r, features)
	case wasm.SectionIDCode:
		m.CodeSection, err = decodeCodeSection(r)
	case wasm.SectionIDData:
		m.DataSection, err = decodeDataSection(r, features)
	}
	return
}

// sectionOrder returns the position of a known section in wasm.SectionOrder, or -1 if the ID is unknown.
func sectionOrder(id wasm.SectionID) int {
	for i, s := range wasm.SectionOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// SectionIDs returns the ID of each section in a binary, in order, including custom sections. It stops at the first
// section it cannot frame.
func SectionIDs(binary []byte) (ids []wasm.SectionID) {
	if len(binary) < headerSize {
		return nil
	}
	r := bytes.NewReader(binary[headerSize:])
	for {
		id, err := r.ReadByte()
		if err != nil {
			return
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil || int64(size) > int64(r.Len()) {
			return
		}
		ids = append(ids, id)
		if _, err = r.Seek(int64(size), io.SeekCurrent); err != nil {
			return
		}
	}
}
