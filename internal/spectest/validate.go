package spectest

import (
	"bytes"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

// dumper renders decoded modules in failure messages. Addresses are left out so that dumps of equal modules are
// equal.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// ValidateOptions configure Validate.
type ValidateOptions struct {
	// Strict rejects a round trip that re-encodes to different bytes unless both have the same sections in the same
	// order. Without it, any re-encoding that decodes to an equal module passes.
	Strict bool
}

// Validate decodes and materializes a module with the codec, and checks the result against the expected outcome.
// Modules expected to pass must also round trip: their re-encoding is either the same bytes or decodes to an equal
// module.
//
// The error is nil on success, otherwise one of *UnexpectedSuccessError, *UnexpectedDecodeError or
// *RoundtripMismatchError.
func Validate[M any](codec Codec[M], module []byte, expected Outcome, opts ValidateOptions) error {
	m, consumed, err := decode(codec, module)
	switch {
	case err == nil && expected.Fail:
		return &UnexpectedSuccessError{Expected: expected.Message, Parsed: module[:consumed], Module: dumper.Sdump(m)}
	case err != nil && !expected.Fail:
		return &UnexpectedDecodeError{Parsed: module[:consumed], Unparsed: module[consumed:], Err: err}
	case err != nil:
		// Rejected as expected. The message isn't compared as codecs word their errors differently.
		return nil
	}

	out := codec.EncodeModule(m)
	if bytes.Equal(out, module) {
		return nil
	}

	// The module may use a longer encoding of an integer than needed, which re-encodes shorter. If so, the
	// re-encoding must at least decode to the same module.
	m2, _, err := decode(codec, out)
	if err != nil {
		return &RoundtripMismatchError{Old: dumper.Sdump(m), Err: err}
	}
	if diff := cmp.Diff(m, m2); diff != "" {
		return &RoundtripMismatchError{Old: dumper.Sdump(m), New: dumper.Sdump(m2), Diff: diff}
	}

	if opts.Strict {
		lister, ok := codec.(SectionLister)
		if !ok {
			return &RoundtripMismatchError{Old: dumper.Sdump(m), Reason: "bytes differ and sections can't be listed"}
		}
		if before, after := lister.SectionIDs(module), lister.SectionIDs(out); !bytes.Equal(before, after) {
			return &RoundtripMismatchError{
				Old:    dumper.Sdump(m),
				Reason: fmt.Sprintf("section order changed from %v to %v", before, after),
			}
		}
	}
	return nil
}

// decode decodes then materializes, clamping consumed to the module length.
func decode[M any](codec Codec[M], module []byte) (m M, consumed int, err error) {
	m, consumed, err = codec.DecodeModule(module)
	if err == nil {
		err = codec.Materialize(m)
	}
	if consumed < 0 {
		consumed = 0
	} else if consumed > len(module) {
		consumed = len(module)
	}
	return
}
