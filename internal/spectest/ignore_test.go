package spectest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// memorySizeNonZero is a function calling memory.size with a reserved byte that isn't zero, which is malformed with
// "zero flag expected", but accepted by the codec.
var memorySizeNonZero = binaryOf(
	// type section: () -> ()
	[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
	// function section: type 0
	[]byte{0x03, 0x02, 0x01, 0x00},
	// memory section: min 0
	[]byte{0x05, 0x03, 0x01, 0x00, 0x00},
	// code section: memory.size 1, drop, end
	[]byte{0x0a, 0x07, 0x01, 0x05, 0x00, 0x3f, 0x01, 0x1a, 0x0b},
)

func TestPolicy_IsIgnored(t *testing.T) {
	sharedMemory := IgnoredModules[2].Binary

	tests := []struct {
		name        string
		extensions  []string
		tc          *TestCase
		suppression bool
		expected    bool
	}{
		{
			name:     "pass",
			tc:       &TestCase{Module: header, Expected: Pass},
			expected: false,
		},
		{
			name:        "pass under suppression",
			tc:          &TestCase{Module: header, Expected: Pass},
			suppression: true,
			expected:    false,
		},
		{
			name:     "fail",
			tc:       &TestCase{Module: header, Expected: Fail("unexpected end")},
			expected: false,
		},
		{
			name:        "fail under suppression",
			tc:          &TestCase{Module: header, Expected: Fail("unexpected end")},
			suppression: true,
			expected:    true,
		},
		{
			name:     "zero flag expected",
			tc:       &TestCase{Module: memorySizeNonZero, Expected: Fail("zero flag expected")},
			expected: true,
		},
		{
			name:     "too many locals",
			tc:       &TestCase{Module: header, Expected: Fail("too many locals")},
			expected: true,
		},
		{
			name:     "ignored error messages match exactly",
			tc:       &TestCase{Module: header, Expected: Fail("zero flag expected!")},
			expected: false,
		},
		{
			name:     "bulk memory issue 153",
			tc:       &TestCase{Module: IgnoredModules[0].Binary, Expected: Pass},
			expected: true,
		},
		{
			name:     "bulk memory issue 153 expected to fail",
			tc:       &TestCase{Module: IgnoredModules[1].Binary, Expected: Fail("unknown table")},
			expected: true,
		},
		{
			name:       "shared memory without threads",
			extensions: []string{"bulk-memory-operations"},
			tc:         &TestCase{Module: sharedMemory, Expected: Pass},
			expected:   false,
		},
		{
			name:       "shared memory with threads",
			extensions: []string{"threads", "bulk-memory-operations"},
			tc:         &TestCase{Module: sharedMemory, Expected: Pass},
			expected:   true,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, NewPolicy(tc.extensions).IsIgnored(tc.tc, tc.suppression))
		})
	}
}

func TestPolicy_IgnoredModulesNeverFail(t *testing.T) {
	p := NewPolicy(Extensions)
	for _, m := range IgnoredModules {
		for _, expected := range []Outcome{Pass, Fail("malformed")} {
			for _, suppression := range []bool{false, true} {
				require.True(t, p.IsIgnored(&TestCase{Module: m.Binary, Expected: expected}, suppression))
			}
		}
	}
}

func TestSuppressed(t *testing.T) {
	require.False(t, Suppressed(nil))
	require.False(t, Suppressed([]*TestCase{{Name: "a"}, {Name: "b"}}))
	require.True(t, Suppressed([]*TestCase{{Name: "a"}, {Name: "b", Extension: "simd"}}))
}

func TestPolicy_Annotate(t *testing.T) {
	t.Run("base suite only", func(t *testing.T) {
		cases := []*TestCase{
			{Name: "pass", Module: header, Expected: Pass},
			{Name: "fail", Module: header, Expected: Fail("unexpected end")},
			{Name: "zero flag", Module: memorySizeNonZero, Expected: Fail("zero flag expected")},
		}
		require.False(t, NewPolicy(nil).Annotate(cases))
		require.False(t, cases[0].Ignored)
		require.False(t, cases[1].Ignored)
		require.True(t, cases[2].Ignored)
	})

	t.Run("with an extension", func(t *testing.T) {
		cases := []*TestCase{
			{Name: "ext pass", Module: header, Expected: Pass, Extension: "simd"},
			{Name: "ext fail", Module: header, Expected: Fail("invalid lane index"), Extension: "simd"},
			{Name: "pass", Module: header, Expected: Pass},
			{Name: "fail", Module: header, Expected: Fail("unexpected end")},
		}
		require.True(t, NewPolicy([]string{"simd"}).Annotate(cases))
		require.False(t, cases[0].Ignored)
		require.False(t, cases[1].Ignored) // suppression only applies to the base suite
		require.False(t, cases[2].Ignored)
		require.True(t, cases[3].Ignored)
	})
}
