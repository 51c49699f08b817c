package wast

import (
	"fmt"
	"strings"
)

// ScriptErrorKind is the stage at which a script failed.
type ScriptErrorKind byte

const (
	// ScriptParse is a script that could not be lexed or parsed into directives.
	ScriptParse ScriptErrorKind = iota
	// ModuleEncode is a module in a script that could not be converted to the binary format.
	ModuleEncode
)

func (k ScriptErrorKind) String() string {
	if k == ModuleEncode {
		return "module encode error"
	}
	return "script parse error"
}

// ScriptError is a failure attributed to a position in a script. It is fatal for the run, as the rest of the file
// can't be trusted.
type ScriptError struct {
	Kind ScriptErrorKind
	Path string
	// Source is the script text, used to render the offending line.
	Source    []byte
	Line, Col uint32
	Err       error
}

// Error renders the position, the cause and the offending line with a caret under the column.
func (e *ScriptError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %v", e.Path, e.Line, e.Col, e.Kind, e.Err)
	if text, ok := sourceLine(e.Source, e.Line); ok {
		b.WriteByte('\n')
		b.WriteString(text)
		b.WriteByte('\n')
		b.WriteString(caretIndent(text, e.Col))
		b.WriteByte('^')
	}
	return b.String()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// sourceLine returns the 1-based line of the source without its line ending.
func sourceLine(source []byte, line uint32) (string, bool) {
	if line == 0 || len(source) == 0 {
		return "", false
	}
	lines := strings.Split(string(source), "\n")
	if int(line) > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// caretIndent returns the whitespace that puts a caret under the 1-based UTF-8 column of text, keeping tabs so the
// caret lines up however they render.
func caretIndent(text string, col uint32) string {
	var b strings.Builder
	n := uint32(1)
	for _, r := range text {
		if n >= col {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		n++
	}
	return b.String()
}
