package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunjito/wasmbin/internal/wasm"
)

var v128Zero = append([]byte{wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecV128Const)}, make([]byte, 16)...)

func TestMaterializeModule(t *testing.T) {
	m := &wasm.Module{CodeSection: []*wasm.Code{
		{Raw: []byte{0x02, 0x01, wasm.ValueTypeI32, 0x02, wasm.ValueTypeF64, wasm.OpcodeNop, wasm.OpcodeEnd}},
		{LocalGroups: []wasm.LocalGroup{}, Body: []byte{wasm.OpcodeEnd}},
	}}

	require.NoError(t, MaterializeModule(m, wasm.Features20220419))
	require.Equal(t, []*wasm.Code{
		{
			LocalGroups: []wasm.LocalGroup{{Count: 1, Type: wasm.ValueTypeI32}, {Count: 2, Type: wasm.ValueTypeF64}},
			Body:        []byte{wasm.OpcodeNop, wasm.OpcodeEnd},
		},
		{LocalGroups: []wasm.LocalGroup{}, Body: []byte{wasm.OpcodeEnd}},
	}, m.CodeSection)
	require.Equal(t, uint64(3), m.CodeSection[0].NumLocals())
}

func TestMaterializeModule_TooManyLocals(t *testing.T) {
	m := &wasm.Module{CodeSection: []*wasm.Code{{Raw: []byte{
		0x02,
		0xff, 0xff, 0xff, 0xff, 0x0f, wasm.ValueTypeI32,
		0x01, wasm.ValueTypeI64,
		wasm.OpcodeEnd,
	}}}}

	err := MaterializeModule(m, wasm.Features20220419)
	require.ErrorIs(t, err, ErrTooManyLocals)
	require.True(t, m.CodeSection[0].IsLazy())
}

func TestScanBody(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		features wasm.Features
	}{
		{
			name: "nested blocks",
			body: []byte{
				wasm.OpcodeBlock, 0x40,
				wasm.OpcodeLoop, wasm.ValueTypeI32, wasm.OpcodeI32Const, 0x00, wasm.OpcodeEnd,
				wasm.OpcodeIf, 0x40, wasm.OpcodeElse, wasm.OpcodeEnd,
				wasm.OpcodeEnd,
				wasm.OpcodeEnd,
			},
		},
		{
			name: "block with type index",
			body: []byte{wasm.OpcodeBlock, 0x00, wasm.OpcodeEnd, wasm.OpcodeEnd},
		},
		{
			name: "br_table",
			body: []byte{wasm.OpcodeBrTable, 0x02, 0x00, 0x01, 0x00, wasm.OpcodeEnd},
		},
		{
			name: "memory instructions with a non-zero reserved byte",
			body: []byte{
				wasm.OpcodeI32Load, 0x02, 0x00,
				wasm.OpcodeMemorySize, 0x01,
				wasm.OpcodeCallIndirect, 0x00, 0x01,
				wasm.OpcodeEnd,
			},
		},
		{
			name: "floats",
			body: []byte{
				wasm.OpcodeF32Const, 0x00, 0x00, 0x80, 0x3f,
				wasm.OpcodeF64Const, 0, 0, 0, 0, 0, 0, 0xf0, 0x3f,
				wasm.OpcodeEnd,
			},
		},
		{
			name: "bulk memory and reference types",
			body: []byte{
				wasm.OpcodeMiscPrefix, byte(wasm.OpcodeMiscMemoryInit), 0x00, 0x00,
				wasm.OpcodeMiscPrefix, byte(wasm.OpcodeMiscTableSize), 0x00,
				wasm.OpcodeRefNull, wasm.RefTypeFuncref,
				wasm.OpcodeTypedSelect, 0x01, wasm.ValueTypeI32,
				wasm.OpcodeEnd,
			},
		},
		{
			name: "vector lanes",
			body: append(append([]byte{}, v128Zero...),
				wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecI8x16ExtractLaneS), 15,
				wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecF64x2ReplaceLane), 1,
				wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecV128Load8Lane), 0x00, 0x00, 15,
				wasm.OpcodeEnd,
			),
		},
		{
			name:     "tail calls",
			body:     []byte{wasm.OpcodeReturnCall, 0x00, wasm.OpcodeReturnCallIndirect, 0x00, 0x00, wasm.OpcodeEnd},
			features: wasm.Features20220419 | wasm.FeatureTailCall,
		},
		{
			name: "atomics",
			body: []byte{
				wasm.OpcodeAtomicPrefix, 0x10, 0x02, 0x00,
				wasm.OpcodeAtomicPrefix, byte(wasm.OpcodeAtomicFence), 0x00,
				wasm.OpcodeEnd,
			},
			features: wasm.Features20220419 | wasm.FeatureThreads,
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			features := tc.features
			if features == 0 {
				features = wasm.Features20220419
			}
			require.NoError(t, scanBody(tc.body, features))
		})
	}
}

func TestScanBody_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		features    wasm.Features
		expectedErr error
		expectedMsg string
	}{
		{
			name:        "illegal opcode",
			body:        []byte{0x06, wasm.OpcodeEnd},
			expectedErr: ErrIllegalOpcode,
		},
		{
			name:        "missing end",
			body:        []byte{wasm.OpcodeBlock, 0x40, wasm.OpcodeEnd},
			expectedErr: ErrEndOpcodeExpected,
		},
		{
			name:        "bytes after end",
			body:        []byte{wasm.OpcodeEnd, wasm.OpcodeNop},
			expectedErr: ErrSectionSize,
		},
		{
			name:        "extract lane out of range",
			body:        append(append([]byte{}, v128Zero...), wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecI8x16ExtractLaneS), 16, wasm.OpcodeEnd),
			expectedErr: ErrInvalidLaneIndex,
		},
		{
			name: "shuffle lane out of range",
			body: append(append(append(append([]byte{}, v128Zero...), v128Zero...),
				wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecI8x16Shuffle)),
				0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 32, wasm.OpcodeEnd),
			expectedErr: ErrInvalidLaneIndex,
		},
		{
			name:        "store lane out of range",
			body:        []byte{wasm.OpcodeVecPrefix, byte(wasm.OpcodeVecV128Store64Lane), 0x00, 0x00, 2, wasm.OpcodeEnd},
			expectedErr: ErrInvalidLaneIndex,
		},
		{
			name:        "tail call disabled",
			body:        []byte{wasm.OpcodeReturnCall, 0x00, wasm.OpcodeEnd},
			expectedMsg: `feature "tail-call" is disabled`,
		},
		{
			name:        "sign extension disabled",
			body:        []byte{wasm.OpcodeI32Extend8S, wasm.OpcodeEnd},
			features:    wasm.Features20191205,
			expectedMsg: `feature "sign-extension-ops" is disabled`,
		},
		{
			name:        "vector instructions disabled",
			body:        append(append([]byte{}, v128Zero...), wasm.OpcodeEnd),
			features:    wasm.Features20191205,
			expectedMsg: `feature "simd" is disabled`,
		},
		{
			name:        "unknown misc opcode",
			body:        []byte{wasm.OpcodeMiscPrefix, 0x12, wasm.OpcodeEnd},
			expectedErr: ErrIllegalOpcode,
		},
		{
			name:        "negative block type",
			body:        []byte{wasm.OpcodeBlock, 0x7e - 0x10, wasm.OpcodeEnd, wasm.OpcodeEnd},
			expectedErr: ErrInvalidByte,
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			features := tc.features
			if features == 0 {
				features = wasm.Features20220419
			}
			err := scanBody(tc.body, features)
			require.Error(t, err)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			}
			if tc.expectedMsg != "" {
				require.Contains(t, err.Error(), tc.expectedMsg)
			}
		})
	}
}
