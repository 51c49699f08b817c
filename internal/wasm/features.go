package wasm

import (
	"fmt"
	"strings"
)

// Features are the currently enabled features.
//
// Note: This is a bit flag until we have too many (>64). Flags are not guaranteed to be stable between releases.
type Features uint64

// Features20191205 include those finished in WebAssembly 1.0 (20191205).
//
// See https://github.com/WebAssembly/proposals/blob/main/finished-proposals.md
const Features20191205 = FeatureMutableGlobal

// Features20220419 include those finished in WebAssembly 2.0 (20220419).
//
// See https://github.com/WebAssembly/proposals/blob/main/finished-proposals.md
const Features20220419 = Features20191205 |
	FeatureBulkMemoryOperations |
	FeatureMultiValue |
	FeatureNonTrappingFloatToIntConversion |
	FeatureReferenceTypes |
	FeatureSignExtensionOps |
	FeatureSIMD

const (
	// FeatureBulkMemoryOperations decides if parsing should succeed on the glossary.BulkMemoryOperations proposal.
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/bulk-memory-operations/Overview.md
	FeatureBulkMemoryOperations Features = 1 << iota

	// FeatureMultiValue decides if parsing should succeed on the following:
	//
	// * FunctionType.Results length greater than one.
	// * `block`, `loop` and `if` can have a type index.
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/multi-value/Overview.md
	FeatureMultiValue

	// FeatureMutableGlobal decides if global vars are allowed to be imported or exported (ExternTypeGlobal)
	// See https://github.com/WebAssembly/mutable-global
	FeatureMutableGlobal

	// FeatureNonTrappingFloatToIntConversion decides if parsing should succeed on the saturating truncation
	// instructions (OpcodeMiscPrefix 0 to 7).
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/nontrapping-float-to-int-conversion/Overview.md
	FeatureNonTrappingFloatToIntConversion

	// FeatureReferenceTypes enables various features related to reference types and tables.
	// * Introduction of new value types: ValueTypeFuncref and ValueTypeExternref
	// * Introduction of new table instructions and typed select.
	// * Element segments with expressions.
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/reference-types/Overview.md
	FeatureReferenceTypes

	// FeatureSignExtensionOps decides if parsing should succeed on OpcodeI32Extend8S and friends.
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/sign-extension-ops/Overview.md
	FeatureSignExtensionOps

	// FeatureSIMD enables the vector value type and vector instructions (OpcodeVecPrefix).
	//
	// See https://github.com/WebAssembly/spec/blob/main/proposals/simd/SIMD.md
	FeatureSIMD

	// FeatureTailCall enables OpcodeReturnCall and OpcodeReturnCallIndirect.
	//
	// See https://github.com/WebAssembly/tail-call/blob/main/proposals/tail-call/Overview.md
	FeatureTailCall

	// FeatureThreads enables shared memories and atomic instructions (OpcodeAtomicPrefix).
	//
	// See https://github.com/WebAssembly/threads/blob/main/proposals/threads/Overview.md
	FeatureThreads
)

// featureNames is index-coordinated with the bit positions of Features.
var featureNames = [...]string{
	"bulk-memory-operations",
	"multi-value",
	"mutable-global",
	"nontrapping-float-to-int-conversion",
	"reference-types",
	"sign-extension-ops",
	"simd",
	"tail-call",
	"threads",
}

// Set assigns the value for the given feature.
func (f Features) Set(feature Features, val bool) Features {
	if val {
		return f | feature
	}
	return f &^ feature
}

// Get returns the value of the given feature.
func (f Features) Get(feature Features) bool {
	return f&feature != 0
}

// Require fails with a configuration error if the given feature is not enabled
func (f Features) Require(feature Features) error {
	if f&feature == 0 {
		return fmt.Errorf("feature %q is disabled", feature)
	}
	return nil
}

// String implements fmt.Stringer by returning each enabled feature.
func (f Features) String() string {
	var builder strings.Builder
	for i, name := range featureNames {
		if f&(1<<i) != 0 {
			if builder.Len() > 0 {
				builder.WriteByte('|')
			}
			builder.WriteString(name)
		}
	}
	return builder.String()
}

// FeatureByName returns the feature of the given name, or false if there is none.
func FeatureByName(name string) (Features, bool) {
	for i, n := range featureNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}

// FeatureNames returns the names of all known features.
func FeatureNames() []string {
	return append([]string(nil), featureNames[:]...)
}
