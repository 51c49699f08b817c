package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/sunjito/wasmbin/internal/leb128"
	"github.com/sunjito/wasmbin/internal/wasm"
)

// scanBody walks every instruction of a function body, checking opcodes, immediates and block nesting. It does not
// type check: operand stacks and index bounds are validation.
func scanBody(body []byte, features wasm.Features) error {
	r := bytes.NewReader(body)
	if err := scanExpr(r, features); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%d bytes after the end of function body: %w", r.Len(), ErrSectionSize)
	}
	return nil
}

// scanExpr reads the instructions of an expression up to and including the end that closes it. Positions in errors
// are relative to the start of the expression.
func scanExpr(r *bytes.Reader, features wasm.Features) error {
	start := r.Len()
	depth := 1 // the expression is an implicit block
	for depth > 0 {
		pc := start - r.Len()
		op, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: expression ended inside a block", ErrEndOpcodeExpected)
		}
		switch op {
		case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
			err = scanBlockType(r, features)
			depth++
		case wasm.OpcodeEnd:
			depth--
		default:
			err = scanImmediates(op, r, features)
		}
		if err != nil {
			return fmt.Errorf("%s at pc %d: %w", wasm.InstructionName(op), pc, err)
		}
	}
	return nil
}

// scanBlockType reads the empty type, a single value type, or a signed 33-bit type index.
func scanBlockType(r *bytes.Reader, features wasm.Features) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read block type: %w", err)
	}
	if b == 0x40 {
		return nil
	}
	if checkValueType(b, features) == nil {
		return nil
	}
	if err = r.UnreadByte(); err != nil {
		return err
	}
	idx, _, err := leb128.DecodeInt33AsInt64(r)
	if err != nil {
		return fmt.Errorf("read block type index: %w", err)
	}
	if idx < 0 {
		return fmt.Errorf("%w: invalid block type: %d", ErrInvalidByte, idx)
	}
	if err = features.Require(wasm.FeatureMultiValue); err != nil {
		return fmt.Errorf("block with function type return invalid as %w", err)
	}
	return nil
}

func scanImmediates(op wasm.Opcode, r *bytes.Reader, features wasm.Features) (err error) {
	switch {
	case op == wasm.OpcodeUnreachable, op == wasm.OpcodeNop, op == wasm.OpcodeElse, op == wasm.OpcodeReturn,
		op == wasm.OpcodeDrop, op == wasm.OpcodeSelect:
		return nil
	case op >= wasm.OpcodeI32Eqz && op <= wasm.OpcodeF64ReinterpretI64:
		return nil
	case op == wasm.OpcodeBr, op == wasm.OpcodeBrIf, op == wasm.OpcodeCall,
		op >= wasm.OpcodeLocalGet && op <= wasm.OpcodeGlobalSet:
		return skipUint32s(r, 1)
	case op == wasm.OpcodeBrTable:
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("read label count: %w", err)
		}
		if int64(n) > int64(r.Len()) {
			return fmt.Errorf("label count %d exceeds remaining %d bytes", n, r.Len())
		}
		return skipUint32s(r, int(n)+1)
	case op == wasm.OpcodeCallIndirect:
		// The table index is read as an index so that a non-zero reserved byte is not rejected here.
		return skipUint32s(r, 2)
	case op == wasm.OpcodeReturnCall, op == wasm.OpcodeReturnCallIndirect:
		if err = features.Require(wasm.FeatureTailCall); err != nil {
			return err
		}
		if op == wasm.OpcodeReturnCall {
			return skipUint32s(r, 1)
		}
		return skipUint32s(r, 2)
	case op == wasm.OpcodeTypedSelect:
		if err = features.Require(wasm.FeatureReferenceTypes); err != nil {
			return err
		}
		_, err = decodeValueTypes(r, features)
		return err
	case op == wasm.OpcodeTableGet, op == wasm.OpcodeTableSet, op == wasm.OpcodeRefFunc:
		if err = features.Require(wasm.FeatureReferenceTypes); err != nil {
			return err
		}
		return skipUint32s(r, 1)
	case op >= wasm.OpcodeI32Load && op <= wasm.OpcodeI64Store32:
		return skipUint32s(r, 2)
	case op == wasm.OpcodeMemorySize, op == wasm.OpcodeMemoryGrow:
		return skipUint32s(r, 1)
	case op == wasm.OpcodeI32Const:
		_, _, err = leb128.DecodeInt32(r)
		return err
	case op == wasm.OpcodeI64Const:
		_, _, err = leb128.DecodeInt64(r)
		return err
	case op == wasm.OpcodeF32Const:
		return skipBytes(r, 4)
	case op == wasm.OpcodeF64Const:
		return skipBytes(r, 8)
	case op >= wasm.OpcodeI32Extend8S && op <= wasm.OpcodeI64Extend32S:
		return features.Require(wasm.FeatureSignExtensionOps)
	case op == wasm.OpcodeRefNull:
		if err = features.Require(wasm.FeatureReferenceTypes); err != nil {
			return err
		}
		_, err = decodeRefType(r, features)
		return err
	case op == wasm.OpcodeRefIsNull:
		return features.Require(wasm.FeatureReferenceTypes)
	case op == wasm.OpcodeMiscPrefix:
		return scanMisc(r, features)
	case op == wasm.OpcodeVecPrefix:
		if err = features.Require(wasm.FeatureSIMD); err != nil {
			return err
		}
		return scanVec(r)
	case op == wasm.OpcodeAtomicPrefix:
		if err = features.Require(wasm.FeatureThreads); err != nil {
			return err
		}
		return scanAtomic(r)
	}
	return fmt.Errorf("%w: %#x", ErrIllegalOpcode, op)
}

func scanMisc(r *bytes.Reader, features wasm.Features) error {
	sub, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read misc opcode: %w", err)
	}
	switch {
	case sub <= wasm.OpcodeMiscI64TruncSatF64U:
		return features.Require(wasm.FeatureNonTrappingFloatToIntConversion)
	case sub >= wasm.OpcodeMiscMemoryInit && sub <= wasm.OpcodeMiscTableCopy:
		if err = features.Require(wasm.FeatureBulkMemoryOperations); err != nil {
			return err
		}
		switch sub {
		case wasm.OpcodeMiscDataDrop, wasm.OpcodeMiscMemoryFill, wasm.OpcodeMiscElemDrop:
			return skipUint32s(r, 1)
		}
		// memory.init, memory.copy, table.init and table.copy carry two indices, some of them reserved.
		return skipUint32s(r, 2)
	case sub <= wasm.OpcodeMiscTableFill:
		if err = features.Require(wasm.FeatureReferenceTypes); err != nil {
			return err
		}
		return skipUint32s(r, 1)
	}
	return fmt.Errorf("%w: 0xfc %#x", ErrIllegalOpcode, sub)
}

func scanVec(r *bytes.Reader) error {
	sub, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read vector opcode: %w", err)
	}
	switch {
	case sub <= wasm.OpcodeVecV128Store, sub == wasm.OpcodeVecV128Load32Zero, sub == wasm.OpcodeVecV128Load64Zero:
		return skipUint32s(r, 2)
	case sub == wasm.OpcodeVecV128Const:
		return skipBytes(r, 16)
	case sub == wasm.OpcodeVecI8x16Shuffle:
		for i := 0; i < 16; i++ {
			if err = scanLane(r, 32); err != nil {
				return err
			}
		}
		return nil
	case sub >= wasm.OpcodeVecI8x16ExtractLaneS && sub <= wasm.OpcodeVecF64x2ReplaceLane:
		return scanLane(r, wasm.VecLaneCount(sub))
	case sub >= wasm.OpcodeVecV128Load8Lane && sub <= wasm.OpcodeVecV128Store64Lane:
		if err = skipUint32s(r, 2); err != nil {
			return err
		}
		return scanLane(r, wasm.VecLaneCount(sub))
	case sub <= 0xff:
		return nil
	}
	return fmt.Errorf("%w: 0xfd %#x", ErrIllegalOpcode, sub)
}

func scanLane(r *bytes.Reader, lanes byte) error {
	lane, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("read lane index: %w", err)
	}
	if lane >= lanes {
		return fmt.Errorf("%w: %d >= %d", ErrInvalidLaneIndex, lane, lanes)
	}
	return nil
}

func scanAtomic(r *bytes.Reader) error {
	sub, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("read atomic opcode: %w", err)
	}
	switch {
	case sub == wasm.OpcodeAtomicFence:
		// The reserved byte is not required to be zero.
		return skipBytes(r, 1)
	case sub <= 0x02, sub >= 0x10 && sub <= 0x4e:
		return skipUint32s(r, 2)
	}
	return fmt.Errorf("%w: 0xfe %#x", ErrIllegalOpcode, sub)
}

func skipUint32s(r *bytes.Reader, n int) error {
	for i := 0; i < n; i++ {
		if _, _, err := leb128.DecodeUint32(r); err != nil {
			return fmt.Errorf("read immediate: %w", err)
		}
	}
	return nil
}

func skipBytes(r *bytes.Reader, n int64) error {
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("read immediate: %w", err)
	}
	return nil
}
