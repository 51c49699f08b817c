package wasm

// Module is a WebAssembly binary representation which keeps enough of the source encoding to re-encode it without
// loss, apart from the width of LEB128 integers.
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/syntax/modules.html#modules
//
// Differences from the WebAssembly Core Specification:
// * A nil section field means the section was absent, while an empty non-nil one means it was present but empty.
// * Custom sections are kept verbatim, including the one named "name", with their position among known sections.
// * CodeSection entries may be lazy: see Code.Raw.
type Module struct {
	// TypeSection contains the unique FunctionType of functions imported or defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDType.
	//
	// See https://www.w3.org/TR/wasm-core-1/#types%E2%91%A0%E2%91%A0
	TypeSection []*FunctionType

	// ImportSection contains imported functions, tables, memories or globals in their order of declaration.
	//
	// Note: In the Binary Format, this is SectionIDImport.
	//
	// See https://www.w3.org/TR/wasm-core-1/#import-section%E2%91%A0
	ImportSection []*Import

	// FunctionSection contains the index in TypeSection of each function defined in this module.
	//
	// Note: FunctionSection is index correlated with the CodeSection, but their lengths are not checked against each
	// other here: that is a cross-section analysis.
	//
	// Note: In the Binary Format, this is SectionIDFunction.
	//
	// See https://www.w3.org/TR/wasm-core-1/#function-section%E2%91%A0
	FunctionSection []Index

	// TableSection contains each table defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDTable.
	//
	// See https://www.w3.org/TR/wasm-core-1/#table-section%E2%91%A0
	TableSection []*Table

	// MemorySection contains each memory defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDMemory.
	//
	// See https://www.w3.org/TR/wasm-core-1/#memory-section%E2%91%A0
	MemorySection []*Memory

	// GlobalSection contains each global defined in this module.
	//
	// Note: In the Binary Format, this is SectionIDGlobal.
	//
	// See https://www.w3.org/TR/wasm-core-1/#global-section%E2%91%A0
	GlobalSection []*Global

	// ExportSection contains each export defined in this module, in the order they were declared.
	//
	// Note: Export names are not checked for uniqueness: that is validation, not decoding.
	//
	// Note: In the Binary Format, this is SectionIDExport.
	//
	// See https://www.w3.org/TR/wasm-core-1/#exports%E2%91%A0
	ExportSection []*Export

	// StartSection is the index of a function to call on instantiation, or nil if there was no start section.
	//
	// Note: In the Binary Format, this is SectionIDStart.
	//
	// See https://www.w3.org/TR/wasm-core-1/#start-section%E2%91%A0
	StartSection *Index

	// Note: In the Binary Format, this is SectionIDElement.
	ElementSection []*ElementSegment

	// DataCountSection is the declared number of data segments, or nil if there was no data count section.
	//
	// Note: In the Binary Format, this is SectionIDDataCount, which was added by the bulk memory operations proposal.
	//
	// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#data-count-section
	DataCountSection *uint32

	// CodeSection contains each function's locals and body.
	//
	// Note: In the Binary Format, this is SectionIDCode.
	//
	// See https://www.w3.org/TR/wasm-core-1/#code-section%E2%91%A0
	CodeSection []*Code

	// Note: In the Binary Format, this is SectionIDData.
	DataSection []*DataSegment

	// CustomSections are all custom sections in the order they were decoded.
	//
	// See https://www.w3.org/TR/wasm-core-1/#custom-section%E2%91%A0
	CustomSections []*CustomSection
}

// Index is the offset in an index namespace, not necessarily an absolute position in a Module section. This is
// because index namespaces are often preceded by a corresponding type in the Module.ImportSection.
//
// For example, the function index namespace starts with any ExternTypeFunc in the Module.ImportSection followed by
// the Module.FunctionSection
//
// See https://www.w3.org/TR/wasm-core-1/#binary-index
type Index = uint32

// SectionID identifies the sections of a Module in the WebAssembly Binary Format.
//
// Note: these are defined in the wasm package, instead of the binary package, as a key per section is needed
// regardless of format, and deferring to the binary type avoids confusion.
//
// See https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
type SectionID = byte

const (
	// SectionIDCustom includes the standard defined NameSection and possibly others not defined in the standard.
	SectionIDCustom SectionID = iota // don't add anything not in https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData

	// SectionIDDataCount may exist in WebAssembly 2.0 or WebAssembly 1.0 with FeatureBulkMemoryOperations enabled.
	//
	// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#data-count-section
	SectionIDDataCount
)

// SectionIDName returns the canonical name of a module section.
// https://www.w3.org/TR/wasm-core-1/#sections%E2%91%A0
func SectionIDName(sectionID SectionID) string {
	switch sectionID {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	case SectionIDDataCount:
		return "data_count"
	}
	return "unknown"
}

// SectionOrder lists the known (non-custom) sections in the order they must appear in a binary.
//
// Note: SectionIDDataCount sits between SectionIDElement and SectionIDCode even though its ID is larger.
var SectionOrder = []SectionID{
	SectionIDType,
	SectionIDImport,
	SectionIDFunction,
	SectionIDTable,
	SectionIDMemory,
	SectionIDGlobal,
	SectionIDExport,
	SectionIDStart,
	SectionIDElement,
	SectionIDDataCount,
	SectionIDCode,
	SectionIDData,
}

// ValueType is the binary encoding of a type such as i32
// See https://www.w3.org/TR/wasm-core-1/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	// ValueTypeV128 is only valid with FeatureSIMD.
	ValueTypeV128 ValueType = 0x7b
	// ValueTypeFuncref is only valid as a value type with FeatureReferenceTypes.
	ValueTypeFuncref ValueType = 0x70
	// ValueTypeExternref is only valid with FeatureReferenceTypes.
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the type name of the given ValueType as a string.
// These type names match the names used in the WebAssembly text format.
//
// Note: This returns "unknown", if an undefined ValueType value is passed.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return "unknown"
}

// RefType is either RefTypeFuncref or RefTypeExternref as of WebAssembly core 2.0.
type RefType = byte

const (
	RefTypeFuncref   = ValueTypeFuncref
	RefTypeExternref = ValueTypeExternref
)

// FunctionType is a possibly empty function signature.
//
// See https://www.w3.org/TR/wasm-core-1/#function-types%E2%91%A0
type FunctionType struct {
	// Params are the possibly empty sequence of value types accepted by a function with this signature.
	Params []ValueType

	// Results are the possibly empty sequence of value types returned by a function with this signature.
	//
	// Note: In WebAssembly 1.0 (20191205), there can be at most one result, unless FeatureMultiValue is enabled.
	Results []ValueType
}

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/wasm-core-1/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternTypeName returns the name of the WebAssembly 1.0 (20191205) Text Format field of the given type.
//
// See https://www.w3.org/TR/wasm-core-1/#imports%E2%91%A4
// See https://www.w3.org/TR/wasm-core-1/#exports%E2%91%A3
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	}
	return "unknown"
}

// Import is the binary representation of an import indicated by Type
// See https://www.w3.org/TR/wasm-core-1/#binary-import
type Import struct {
	Type ExternType
	// Module is the possibly empty primary namespace of this import
	Module string
	// Name is the possibly empty secondary namespace of this import
	Name string
	// DescFunc is the index in Module.TypeSection when Type equals ExternTypeFunc
	DescFunc Index
	// DescTable is the inlined Table when Type equals ExternTypeTable
	DescTable *Table
	// DescMem is the inlined Memory when Type equals ExternTypeMemory
	DescMem *Memory
	// DescGlobal is the inlined GlobalType when Type equals ExternTypeGlobal
	DescGlobal *GlobalType
}

// Limits are the size bounds of a Table or Memory.
//
// See https://www.w3.org/TR/wasm-core-1/#limits%E2%91%A6
type Limits struct {
	Min uint32
	Max *uint32
	// Shared is only valid for memories with FeatureThreads.
	Shared bool
}

// Table describes the limits of elements and its type in a table.
type Table struct {
	Type RefType
	Limits
}

// Memory describes the limits of pages (64KB) in a memory.
type Memory struct {
	Limits
}

type GlobalType struct {
	ValType ValueType
	Mutable bool
}

type Global struct {
	Type *GlobalType
	Init *ConstantExpression
}

// ConstantExpression is an initializer expression as encoded. Data holds its instructions, including the end that
// terminates it. Whether the instructions are constant, or of the right type, is validation and not checked.
//
// See https://www.w3.org/TR/wasm-core-1/#constant-expressions%E2%91%A0
type ConstantExpression struct {
	Data []byte
}

// Export is the binary representation of an export indicated by Type
// See https://www.w3.org/TR/wasm-core-1/#binary-export
type Export struct {
	Type ExternType

	// Name is what the host refers to this definition as.
	Name string

	// Index is the index of the definition to export, the index namespace is by Type
	// Ex. If ExternTypeFunc, this is a position in the function index namespace.
	Index Index
}

// ElementMode represents a mode of element segment which is either active, passive or declarative.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/syntax/modules.html#element-segments
type ElementMode = byte

const (
	// ElementModeActive is the mode which requires the runtime to initialize table with the contents in .Init field
	// combined with OffsetExpr.
	ElementModeActive ElementMode = iota
	// ElementModePassive is the mode which doesn't require the runtime to initialize table, and only used with
	// OpcodeTableInitName.
	ElementModePassive
	// ElementModeDeclarative is introduced in reference-types proposal which can be used to declare function indexes
	// used by OpcodeRefFunc.
	ElementModeDeclarative
)

// ElementSegment are initialization instructions for a TableInstance
//
// The Prefix is the leading flags field of the binary encoding (0 to 7). It decides which of the remaining fields
// are encoded, so it is kept for a lossless re-encoding.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#element-section
type ElementSegment struct {
	Prefix uint32

	Mode ElementMode

	// TableIndex is the table's index to which this element segment is applied.
	// Only encoded when Prefix is 2 or 6.
	TableIndex Index

	// OffsetExpr returns the table element offset to apply to Init indices, for active segments.
	OffsetExpr *ConstantExpression

	// Type is the ref type of the elements: RefTypeFuncref unless the prefix encodes a reference type.
	Type RefType

	// Init holds function indices when the prefix encodes an element kind (prefixes 0 to 3).
	Init []Index

	// InitExprs holds element expressions when the prefix encodes them (prefixes 4 to 7).
	InitExprs []*ConstantExpression
}

// UsesExpressions returns true when the segment's elements are constant expressions rather than function indices.
func (e *ElementSegment) UsesExpressions() bool {
	return e.Prefix&0x4 != 0
}

// DataSegment is the binary representation of a data segment.
//
// The Prefix is 0 (active, memory 0), 1 (passive) or 2 (active with explicit memory index).
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/binary/modules.html#data-section
type DataSegment struct {
	Prefix      uint32
	MemoryIndex Index
	OffsetExpr  *ConstantExpression
	Init        []byte
}

// IsPassive returns true if this data segment is "passive" in the sense that memory offset and index is determined at
// runtime and used by OpcodeMemoryInitName instruction in the bulk memory operations proposal.
//
// See https://www.w3.org/TR/2022/WD-wasm-core-2-20220419/syntax/modules.html#data-segments
func (d *DataSegment) IsPassive() bool {
	return d.Prefix == 1
}

// LocalGroup is a run of Count locals of the same type, as declared in the binary format.
type LocalGroup struct {
	Count uint32
	Type  ValueType
}

// Code is an entry in the Module.CodeSection containing the locals and body of the function.
//
// Function bodies are decoded lazily: after binary.DecodeModule, Raw holds the undecoded entry (locals and body) and
// LocalGroups and Body are nil. binary.MaterializeModule decodes Raw, verifying every instruction, and clears it.
//
// See https://www.w3.org/TR/wasm-core-1/#binary-code
type Code struct {
	// LocalGroups are the local declarations as encoded, rather than the flattened local types of the WebAssembly
	// Core Specification.
	LocalGroups []LocalGroup

	// Body is a sequence of expressions ending in OpcodeEnd
	// See https://www.w3.org/TR/wasm-core-1/#binary-expr
	Body []byte

	// Raw is the size-less encoding of this entry when it has not been materialized yet.
	Raw []byte
}

// IsLazy returns true when the entry has not been materialized.
func (c *Code) IsLazy() bool {
	return c.Raw != nil
}

// NumLocals returns the number of locals declared, not including parameters.
func (c *Code) NumLocals() (n uint64) {
	for _, g := range c.LocalGroups {
		n += uint64(g.Count)
	}
	return
}

// CustomSection contains the name and raw contents of a custom section.
//
// After is the ID of the last known section preceding this one, or SectionIDCustom if none did.
type CustomSection struct {
	Name  string
	Data  []byte
	After SectionID
}
