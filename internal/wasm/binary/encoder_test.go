package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunjito/wasmbin/internal/wasm"
)

func TestEncodeModule(t *testing.T) {
	i32, f32 := wasm.ValueTypeI32, wasm.ValueTypeF32
	zero, one := uint32(0), uint32(1)

	tests := []struct {
		name     string
		input    *wasm.Module
		expected []byte
	}{
		{
			name:     "empty",
			input:    &wasm.Module{},
			expected: header,
		},
		{
			name:     "empty but present sections",
			input:    &wasm.Module{TypeSection: []*wasm.FunctionType{}, DataSection: []*wasm.DataSegment{}},
			expected: binaryOf([]byte{wasm.SectionIDType, 0x01, 0x00}, []byte{wasm.SectionIDData, 0x01, 0x00}),
		},
		{
			name: "type section",
			input: &wasm.Module{
				TypeSection: []*wasm.FunctionType{
					{},
					{Params: []wasm.ValueType{i32, i32}, Results: []wasm.ValueType{i32}},
				},
			},
			expected: binaryOf([]byte{
				wasm.SectionIDType, 0x0a, // 10 bytes in this section
				0x02,             // 2 types
				0x60, 0x00, 0x00, // func=0x60 no param no result
				0x60, 0x02, i32, i32, 0x01, i32, // func=0x60 2 params and 1 result
			}),
		},
		{
			name: "import and export",
			input: &wasm.Module{
				ImportSection: []*wasm.Import{
					{Module: "m", Name: "g", Type: wasm.ExternTypeGlobal, DescGlobal: &wasm.GlobalType{ValType: f32, Mutable: true}},
				},
				ExportSection: []*wasm.Export{
					{Name: "b", Type: wasm.ExternTypeFunc, Index: 1},
					{Name: "a", Type: wasm.ExternTypeFunc, Index: 0},
				},
			},
			expected: binaryOf(
				[]byte{wasm.SectionIDImport, 0x08, 0x01, 0x01, 'm', 0x01, 'g', wasm.ExternTypeGlobal, f32, 0x01},
				[]byte{wasm.SectionIDExport, 0x09, 0x02, 0x01, 'b', wasm.ExternTypeFunc, 0x01, 0x01, 'a', wasm.ExternTypeFunc, 0x00},
			),
		},
		{
			name: "canonical order with data count",
			input: &wasm.Module{
				DataSection:      []*wasm.DataSegment{{Prefix: 1, Init: []byte{0xaa}}},
				CodeSection:      []*wasm.Code{},
				DataCountSection: &one,
				StartSection:     &zero,
			},
			expected: binaryOf(
				[]byte{wasm.SectionIDStart, 0x01, 0x00},
				[]byte{wasm.SectionIDDataCount, 0x01, 0x01},
				[]byte{wasm.SectionIDCode, 0x01, 0x00},
				[]byte{wasm.SectionIDData, 0x04, 0x01, 0x01, 0x01, 0xaa},
			),
		},
		{
			name: "custom sections keep their placement",
			input: &wasm.Module{
				StartSection: &zero,
				CustomSections: []*wasm.CustomSection{
					{Name: "late", After: wasm.SectionIDData},
					{Name: "early", After: wasm.SectionIDCustom},
					{Name: "mid", After: wasm.SectionIDStart},
				},
			},
			expected: binaryOf(
				[]byte{wasm.SectionIDCustom, 0x06, 0x05, 'e', 'a', 'r', 'l', 'y'},
				[]byte{wasm.SectionIDStart, 0x01, 0x00},
				[]byte{wasm.SectionIDCustom, 0x04, 0x03, 'm', 'i', 'd'},
				[]byte{wasm.SectionIDCustom, 0x05, 0x04, 'l', 'a', 't', 'e'},
			),
		},
		{
			name: "lazy code is written verbatim",
			input: &wasm.Module{
				CodeSection: []*wasm.Code{{Raw: []byte{0x00, wasm.OpcodeNop, wasm.OpcodeEnd}}},
			},
			expected: binaryOf([]byte{wasm.SectionIDCode, 0x05, 0x01, 0x03, 0x00, wasm.OpcodeNop, wasm.OpcodeEnd}),
		},
		{
			name: "materialized code",
			input: &wasm.Module{
				CodeSection: []*wasm.Code{{
					LocalGroups: []wasm.LocalGroup{{Count: 2, Type: i32}},
					Body:        []byte{wasm.OpcodeEnd},
				}},
			},
			expected: binaryOf([]byte{wasm.SectionIDCode, 0x06, 0x01, 0x04, 0x01, 0x02, i32, wasm.OpcodeEnd}),
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, EncodeModule(tc.input))
		})
	}
}

// TestRoundtrip decodes, materializes and re-encodes binaries that are already in canonical form.
func TestRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{
			name: "function, code and custom",
			input: binaryOf(
				[]byte{wasm.SectionIDFunction, 0x01, 0x00},
				[]byte{wasm.SectionIDCode, 0x01, 0x00},
				[]byte{wasm.SectionIDCustom, 0x04, 0x03, 'f', 'o', 'o'},
			),
		},
		{
			name: "table, element and global",
			input: binaryOf(
				[]byte{wasm.SectionIDTable, 0x04, 0x01, wasm.RefTypeFuncref, 0x00, 0x01},
				[]byte{wasm.SectionIDGlobal, 0x06, 0x01, wasm.ValueTypeI64, 0x01, wasm.OpcodeI64Const, 0x7f, wasm.OpcodeEnd},
				[]byte{wasm.SectionIDElement, 0x07, 0x01, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd, 0x01, 0x00},
			),
		},
		{
			name: "element expressions",
			input: binaryOf(
				[]byte{wasm.SectionIDElement, 0x07, 0x01, 0x05, wasm.RefTypeExternref, 0x01, wasm.OpcodeRefNull, wasm.RefTypeExternref, wasm.OpcodeEnd},
			),
		},
		{
			name: "active data with memory index",
			input: binaryOf(
				[]byte{wasm.SectionIDMemory, 0x03, 0x01, 0x00, 0x01},
				[]byte{wasm.SectionIDData, 0x08, 0x01, 0x02, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd, 0x01, 'x'},
			),
		},
		{
			name: "function with locals and block",
			input: binaryOf(
				[]byte{wasm.SectionIDType, 0x04, 0x01, 0x60, 0x00, 0x00},
				[]byte{wasm.SectionIDFunction, 0x02, 0x01, 0x00},
				[]byte{wasm.SectionIDCode, 0x0a, 0x01, 0x08, 0x01, 0x01, wasm.ValueTypeI32,
					wasm.OpcodeBlock, 0x40, wasm.OpcodeNop, wasm.OpcodeEnd, wasm.OpcodeEnd},
			),
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			m, err := DecodeModule(tc.input, wasm.Features20220419)
			require.NoError(t, err)
			require.NoError(t, MaterializeModule(m, wasm.Features20220419))
			require.Equal(t, tc.input, EncodeModule(m))
		})
	}
}

// TestRoundtrip_ConstantExpressions shows initializers decode as any instruction sequence up to end, as whether
// they are constant or well typed is validation.
func TestRoundtrip_ConstantExpressions(t *testing.T) {
	f32, i32 := wasm.ValueTypeF32, wasm.ValueTypeI32
	const f32Neg = 0x8c
	tests := []struct {
		name         string
		input        []byte
		expectedExpr []byte
	}{
		{
			name: "non-constant instruction",
			input: binaryOf(
				[]byte{wasm.SectionIDGlobal, 0x0a, 0x01, f32, 0x00,
					wasm.OpcodeF32Const, 0x00, 0x00, 0x00, 0x00, f32Neg, wasm.OpcodeEnd},
			),
			expectedExpr: []byte{wasm.OpcodeF32Const, 0x00, 0x00, 0x00, 0x00, f32Neg, wasm.OpcodeEnd},
		},
		{
			name:         "local.get",
			input:        binaryOf([]byte{wasm.SectionIDGlobal, 0x06, 0x01, f32, 0x00, wasm.OpcodeLocalGet, 0x00, wasm.OpcodeEnd}),
			expectedExpr: []byte{wasm.OpcodeLocalGet, 0x00, wasm.OpcodeEnd},
		},
		{
			name:         "empty",
			input:        binaryOf([]byte{wasm.SectionIDGlobal, 0x04, 0x01, i32, 0x00, wasm.OpcodeEnd}),
			expectedExpr: []byte{wasm.OpcodeEnd},
		},
		{
			name: "two values",
			input: binaryOf(
				[]byte{wasm.SectionIDGlobal, 0x08, 0x01, i32, 0x00,
					wasm.OpcodeI32Const, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd},
			),
			expectedExpr: []byte{wasm.OpcodeI32Const, 0x00, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd},
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			m, err := DecodeModule(tc.input, wasm.Features20191205)
			require.NoError(t, err)
			require.Equal(t, &wasm.ConstantExpression{Data: tc.expectedExpr}, m.GlobalSection[0].Init)
			require.Equal(t, tc.input, EncodeModule(m))
		})
	}

	t.Run("data offset", func(t *testing.T) {
		input := binaryOf(
			[]byte{wasm.SectionIDMemory, 0x03, 0x01, 0x00, 0x01},
			[]byte{wasm.SectionIDData, 0x07, 0x01, 0x00, wasm.OpcodeNop, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd, 0x00},
		)
		m, err := DecodeModule(input, wasm.Features20191205)
		require.NoError(t, err)
		require.Equal(t, []byte{wasm.OpcodeNop, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd}, m.DataSection[0].OffsetExpr.Data)
		require.Equal(t, input, EncodeModule(m))
	})

	t.Run("unterminated", func(t *testing.T) {
		_, err := DecodeModule(binaryOf([]byte{wasm.SectionIDGlobal, 0x05, 0x01, i32, 0x00, wasm.OpcodeI32Const, 0x00}),
			wasm.Features20191205)
		require.ErrorIs(t, err, ErrEndOpcodeExpected)
	})
}

func TestRoundtrip_TwentyByteModule(t *testing.T) {
	input := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x03, 0x01, 0x00,
		0x0a, 0x01, 0x00,
		0x00, 0x04, 0x03, 'f', 'o', 'o',
	}
	require.Equal(t, 20, len(input))

	m, err := DecodeModule(input, wasm.Features20220419)
	require.NoError(t, err)
	require.NoError(t, MaterializeModule(m, wasm.Features20220419))
	require.Equal(t, input, EncodeModule(m))
}

// TestRoundtrip_NonMinimalLEB128 shows a section size encoded in two bytes re-encodes to one byte, while decoding to
// the same module.
func TestRoundtrip_NonMinimalLEB128(t *testing.T) {
	input := binaryOf([]byte{wasm.SectionIDFunction, 0x82, 0x00, 0x01, 0x00})

	m, err := DecodeModule(input, wasm.Features20220419)
	require.NoError(t, err)

	encoded := EncodeModule(m)
	require.Equal(t, binaryOf([]byte{wasm.SectionIDFunction, 0x02, 0x01, 0x00}), encoded)

	redecoded, err := DecodeModule(encoded, wasm.Features20220419)
	require.NoError(t, err)
	require.Equal(t, m, redecoded)
}

func TestEncodeModule_Idempotent(t *testing.T) {
	input := binaryOf(
		[]byte{wasm.SectionIDCustom, 0x02, 0x01, 'a'},
		[]byte{wasm.SectionIDFunction, 0x82, 0x00, 0x01, 0x00},
		[]byte{wasm.SectionIDCode, 0x04, 0x01, 0x02, 0x00, wasm.OpcodeEnd},
	)
	m, err := DecodeModule(input, wasm.Features20220419)
	require.NoError(t, err)
	require.NoError(t, MaterializeModule(m, wasm.Features20220419))

	once := EncodeModule(m)
	m2, err := DecodeModule(once, wasm.Features20220419)
	require.NoError(t, err)
	require.NoError(t, MaterializeModule(m2, wasm.Features20220419))
	require.Equal(t, once, EncodeModule(m2))
}
