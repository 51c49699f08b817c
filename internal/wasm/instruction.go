package wasm

import "fmt"

// Opcode is the binary Opcode of an instruction. See also InstructionName
type Opcode = byte

const (
	// OpcodeUnreachable causes an unconditional trap.
	OpcodeUnreachable Opcode = 0x00
	// OpcodeNop does nothing
	OpcodeNop Opcode = 0x01
	// OpcodeBlock brackets a sequence of instructions. A branch instruction on an if label breaks out to after its
	// OpcodeEnd.
	OpcodeBlock Opcode = 0x02
	// OpcodeLoop brackets a sequence of instructions. A branch instruction on a loop label will jump back to the
	// beginning of its block.
	OpcodeLoop Opcode = 0x03
	// OpcodeIf brackets a sequence of instructions. When the top of the stack evaluates to 1, the block is executed.
	// Zero jumps to the optional OpcodeElse. A branch instruction on an if label breaks out to after its OpcodeEnd.
	OpcodeIf Opcode = 0x04
	// OpcodeElse brackets a sequence of instructions enclosed by an OpcodeIf. A branch instruction on a then label
	// breaks out to after the OpcodeEnd on the enclosing OpcodeIf.
	OpcodeElse Opcode = 0x05
	// OpcodeEnd terminates a control instruction OpcodeBlock, OpcodeLoop or OpcodeIf.
	OpcodeEnd Opcode = 0x0b

	OpcodeBr           Opcode = 0x0c
	OpcodeBrIf         Opcode = 0x0d
	OpcodeBrTable      Opcode = 0x0e
	OpcodeReturn       Opcode = 0x0f
	OpcodeCall         Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11

	// OpcodeReturnCall and OpcodeReturnCallIndirect require FeatureTailCall.
	OpcodeReturnCall         Opcode = 0x12
	OpcodeReturnCallIndirect Opcode = 0x13

	// parametric instructions

	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b
	// OpcodeTypedSelect is select with a vector of value types, which requires FeatureReferenceTypes.
	OpcodeTypedSelect Opcode = 0x1c

	// variable instructions

	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24

	// OpcodeTableGet and OpcodeTableSet require FeatureReferenceTypes.
	OpcodeTableGet Opcode = 0x25
	OpcodeTableSet Opcode = 0x26

	// memory instructions: OpcodeI32Load through OpcodeI64Store32 all carry a memarg.

	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	// const instructions

	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44

	// OpcodeI32Eqz through OpcodeF64ReinterpretI64 are numeric instructions with no immediates.
	OpcodeI32Eqz            Opcode = 0x45
	OpcodeF64ReinterpretI64 Opcode = 0xbf

	// OpcodeI32Extend8S through OpcodeI64Extend32S require FeatureSignExtensionOps.
	OpcodeI32Extend8S  Opcode = 0xc0
	OpcodeI64Extend32S Opcode = 0xc4

	// OpcodeRefNull, OpcodeRefIsNull and OpcodeRefFunc require FeatureReferenceTypes.
	OpcodeRefNull   Opcode = 0xd0
	OpcodeRefIsNull Opcode = 0xd1
	OpcodeRefFunc   Opcode = 0xd2

	// OpcodeMiscPrefix is the prefix of various multi-byte opcodes introduced by the non-trapping float-to-int
	// conversion, bulk memory operations and reference types proposals. The sub-opcode is a LEB128 u32.
	OpcodeMiscPrefix Opcode = 0xfc

	// OpcodeVecPrefix is the prefix of all vector instructions, which require FeatureSIMD.
	OpcodeVecPrefix Opcode = 0xfd

	// OpcodeAtomicPrefix is the prefix of atomic memory instructions, which require FeatureThreads.
	OpcodeAtomicPrefix Opcode = 0xfe
)

// OpcodeMisc is the sub-opcode of OpcodeMiscPrefix.
type OpcodeMisc = uint32

const (
	// OpcodeMiscI32TruncSatF32S through OpcodeMiscI64TruncSatF64U require FeatureNonTrappingFloatToIntConversion.
	OpcodeMiscI32TruncSatF32S OpcodeMisc = 0x00
	OpcodeMiscI64TruncSatF64U OpcodeMisc = 0x07

	// The following require FeatureBulkMemoryOperations.

	OpcodeMiscMemoryInit OpcodeMisc = 0x08
	OpcodeMiscDataDrop   OpcodeMisc = 0x09
	OpcodeMiscMemoryCopy OpcodeMisc = 0x0a
	OpcodeMiscMemoryFill OpcodeMisc = 0x0b
	OpcodeMiscTableInit  OpcodeMisc = 0x0c
	OpcodeMiscElemDrop   OpcodeMisc = 0x0d
	OpcodeMiscTableCopy  OpcodeMisc = 0x0e

	// The following require FeatureReferenceTypes.

	OpcodeMiscTableGrow OpcodeMisc = 0x0f
	OpcodeMiscTableSize OpcodeMisc = 0x10
	OpcodeMiscTableFill OpcodeMisc = 0x11
)

// OpcodeVec is the sub-opcode of OpcodeVecPrefix.
type OpcodeVec = uint32

const (
	// OpcodeVecV128Load through OpcodeVecV128Store carry a memarg.
	OpcodeVecV128Load  OpcodeVec = 0x00
	OpcodeVecV128Store OpcodeVec = 0x0b
	// OpcodeVecV128Const is followed by 16 bytes.
	OpcodeVecV128Const OpcodeVec = 0x0c
	// OpcodeVecI8x16Shuffle is followed by 16 lane indices, each less than 32.
	OpcodeVecI8x16Shuffle OpcodeVec = 0x0d

	// OpcodeVecI8x16ExtractLaneS through OpcodeVecF64x2ReplaceLane are followed by a lane index.
	OpcodeVecI8x16ExtractLaneS OpcodeVec = 0x15
	OpcodeVecF64x2ReplaceLane  OpcodeVec = 0x22

	// OpcodeVecV128Load8Lane through OpcodeVecV128Store64Lane carry a memarg and a lane index.
	OpcodeVecV128Load8Lane   OpcodeVec = 0x54
	OpcodeVecV128Store64Lane OpcodeVec = 0x5b

	// OpcodeVecV128Load32Zero and OpcodeVecV128Load64Zero carry a memarg.
	OpcodeVecV128Load32Zero OpcodeVec = 0x5c
	OpcodeVecV128Load64Zero OpcodeVec = 0x5d
)

// OpcodeAtomicFence is the only atomic sub-opcode not followed by a memarg. It is followed by a reserved byte instead.
const OpcodeAtomicFence uint32 = 0x03

// vecLaneCount is the lane count for the lane index immediates of extract_lane, replace_lane and load/store lane
// instructions, keyed by sub-opcode.
var vecLaneCount = map[OpcodeVec]byte{
	0x15: 16, 0x16: 16, 0x17: 16, // i8x16.extract_lane_s/u, i8x16.replace_lane
	0x18: 8, 0x19: 8, 0x1a: 8, // i16x8.extract_lane_s/u, i16x8.replace_lane
	0x1b: 4, 0x1c: 4, // i32x4
	0x1d: 2, 0x1e: 2, // i64x2
	0x1f: 4, 0x20: 4, // f32x4
	0x21: 2, 0x22: 2, // f64x2
	0x54: 16, 0x55: 8, 0x56: 4, 0x57: 2, // v128.loadN_lane
	0x58: 16, 0x59: 8, 0x5a: 4, 0x5b: 2, // v128.storeN_lane
}

// VecLaneCount returns the number of lanes addressed by the lane index immediate of the given vector sub-opcode, or
// zero if it has none.
func VecLaneCount(op OpcodeVec) byte {
	return vecLaneCount[op]
}

var instructionNames = map[Opcode]string{
	OpcodeUnreachable:        "unreachable",
	OpcodeNop:                "nop",
	OpcodeBlock:              "block",
	OpcodeLoop:               "loop",
	OpcodeIf:                 "if",
	OpcodeElse:               "else",
	OpcodeEnd:                "end",
	OpcodeBr:                 "br",
	OpcodeBrIf:               "br_if",
	OpcodeBrTable:            "br_table",
	OpcodeReturn:             "return",
	OpcodeCall:               "call",
	OpcodeCallIndirect:       "call_indirect",
	OpcodeReturnCall:         "return_call",
	OpcodeReturnCallIndirect: "return_call_indirect",
	OpcodeDrop:               "drop",
	OpcodeSelect:             "select",
	OpcodeTypedSelect:        "select",
	OpcodeLocalGet:           "local.get",
	OpcodeLocalSet:           "local.set",
	OpcodeLocalTee:           "local.tee",
	OpcodeGlobalGet:          "global.get",
	OpcodeGlobalSet:          "global.set",
	OpcodeTableGet:           "table.get",
	OpcodeTableSet:           "table.set",
	OpcodeMemorySize:         "memory.size",
	OpcodeMemoryGrow:         "memory.grow",
	OpcodeI32Const:           "i32.const",
	OpcodeI64Const:           "i64.const",
	OpcodeF32Const:           "f32.const",
	OpcodeF64Const:           "f64.const",
	OpcodeRefNull:            "ref.null",
	OpcodeRefIsNull:          "ref.is_null",
	OpcodeRefFunc:            "ref.func",
	OpcodeMiscPrefix:         "misc_prefix",
	OpcodeVecPrefix:          "vec_prefix",
	OpcodeAtomicPrefix:       "atomic_prefix",
}

// InstructionName returns the instruction corresponding to this binary Opcode, or its hex form for those without a
// name here, such as plain numeric instructions.
func InstructionName(oc Opcode) string {
	if name, ok := instructionNames[oc]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", oc)
}
