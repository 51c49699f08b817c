package spectest

import "bytes"

// IgnoredErrors are the messages of checks the codec intentionally doesn't perform. A case expected to fail with one
// of them is ignored.
var IgnoredErrors = []string{
	// Cross-section analysis.
	"function and code section have inconsistent lengths",
	"data count section required",
	"data count and data section have inconsistent lengths",
	// Table and memory indices other than zero are accepted.
	"zero flag expected",
	// Function analysis.
	"too many locals",
}

// IgnoredModule is a module whose expected outcome is ambiguous.
type IgnoredModule struct {
	Binary []byte
	// Extensions are the extensions that must all be enabled for the module to be ignored.
	Extensions []string
}

// IgnoredModules are modules which suites of different extensions disagree on.
var IgnoredModules = []IgnoredModule{
	// See https://github.com/WebAssembly/bulk-memory-operations/issues/153
	{Binary: []byte{
		0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x05, 0x03, 0x01, 0x00, 0x00, 0x0b, 0x07,
		0x01, 0x80, 0x00, 0x41, 0x00, 0x0b, 0x00,
	}},
	// See https://github.com/WebAssembly/bulk-memory-operations/issues/153
	{Binary: []byte{
		0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x04, 0x04, 0x01, 0x70, 0x00, 0x00, 0x09,
		0x07, 0x01, 0x80, 0x00, 0x41, 0x00, 0x0b, 0x00,
	}},
	// Malformed for bulk-memory-operations, but a shared memory when threads are enabled too.
	{
		Binary:     []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00, 0x05, 0x03, 0x01, 0x02, 0x00},
		Extensions: []string{"bulk-memory-operations", "threads"},
	},
}

// Policy decides which test cases are ignored. It is read-only once created.
type Policy struct {
	errors  map[string]struct{}
	modules [][]byte
}

// NewPolicy returns the policy of IgnoredErrors and IgnoredModules for the enabled extensions.
func NewPolicy(extensions []string) *Policy {
	enabled := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		enabled[e] = struct{}{}
	}

	p := &Policy{errors: make(map[string]struct{}, len(IgnoredErrors))}
	for _, msg := range IgnoredErrors {
		p.errors[msg] = struct{}{}
	}

IgnoredModules:
	for _, m := range IgnoredModules {
		for _, e := range m.Extensions {
			if _, ok := enabled[e]; !ok {
				continue IgnoredModules
			}
		}
		p.modules = append(p.modules, m.Binary)
	}
	return p
}

// IsIgnored returns true if the test case's result must not affect the outcome of the run:
//
// * its module is an ignored module, whatever its expected outcome.
// * otherwise it is expected to fail, and either suppression is active or its message is an ignored error.
func (p *Policy) IsIgnored(tc *TestCase, suppression bool) bool {
	for _, m := range p.modules {
		if bytes.Equal(m, tc.Module) {
			return true
		}
	}
	if !tc.Expected.Fail {
		return false
	}
	if suppression {
		return true
	}
	_, ok := p.errors[tc.Expected.Message]
	return ok
}

// Suppressed returns true if any test case came from an extension suite. Extension suites redefine some of the
// malformed modules of the base suite, so failures expected by the base suite are then ignored.
func Suppressed(cases []*TestCase) bool {
	for _, tc := range cases {
		if tc.Extension != "" {
			return true
		}
	}
	return false
}

// Annotate sets TestCase.Ignored on all cases, and returns whether suppression was active. It must be called once,
// after all cases are loaded.
//
// Suppression only applies to the base suite: extension suites are the ones redefining expectations.
func (p *Policy) Annotate(cases []*TestCase) (suppression bool) {
	suppression = Suppressed(cases)
	for _, tc := range cases {
		tc.Ignored = p.IsIgnored(tc, suppression && tc.Extension == "")
	}
	return
}
