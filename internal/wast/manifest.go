package wast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// manifest is the JSON wast2json writes for a script, listing its commands with the modules written aside.
type manifest struct {
	SourceFile string    `json:"source_filename"`
	Commands   []command `json:"commands"`
}

type command struct {
	CommandType string `json:"type"`
	Line        uint32 `json:"line"`

	// Name is the name of the module, if any.
	Name string `json:"name,omitempty"`

	// Filename is the file name of the module, relative to the manifest.
	Filename string `json:"filename,omitempty"`

	// Text is the expected failure message of an assertion.
	Text string `json:"text,omitempty"`

	// ModuleType is "binary" or "text", where text is the output of a (module quote ...).
	ModuleType string `json:"module_type,omitempty"`
}

// ParseManifest parses the directives of a wast2json manifest at the given path, loading binary modules with
// readFile. Errors are *ScriptError.
//
// Manifests only record the line of each command. The column of a directive is the 1-based position of its command
// among those starting on the same line, which keeps positions unique.
func ParseManifest(manifestPath string, source []byte, readFile func(string) ([]byte, error)) ([]*Directive, error) {
	var m manifest
	if err := json.Unmarshal(source, &m); err != nil {
		line, col := uint32(1), uint32(1)
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) {
			// Offset counts the offending byte.
			line, col = offsetPosition(source, syntaxErr.Offset-1)
		} else if errors.As(err, &typeErr) {
			line, col = offsetPosition(source, typeErr.Offset)
		}
		return nil, &ScriptError{Kind: ScriptParse, Path: manifestPath, Source: source, Line: line, Col: col, Err: err}
	}

	dir := filepath.Dir(manifestPath)
	perLine := map[uint32]uint32{}
	directives := make([]*Directive, 0, len(m.Commands))
	for _, c := range m.Commands {
		perLine[c.Line]++
		d := &Directive{Kind: directiveKinds[c.CommandType], Keyword: c.CommandType, Line: c.Line, Col: perLine[c.Line]}
		if d.Kind == DirectiveOther {
			directives = append(directives, d)
			continue
		}

		d.Message = c.Text
		if c.ModuleType == "text" {
			d.Module = &ModuleSource{Form: ModuleFormQuote}
		} else {
			b, err := readFile(filepath.Join(dir, c.Filename))
			if err != nil {
				return nil, &ScriptError{Kind: ScriptParse, Path: manifestPath, Line: c.Line, Col: d.Col,
					Err: fmt.Errorf("read module %s: %w", c.Filename, err)}
			}
			d.Module = &ModuleSource{Form: ModuleFormBinary, ID: strings.TrimPrefix(c.Name, "$"), Binary: b}
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// offsetPosition converts a byte offset in the source to a 1-based line and column.
func offsetPosition(source []byte, offset int64) (line, col uint32) {
	if offset > int64(len(source)) {
		offset = int64(len(source))
	} else if offset < 0 {
		offset = 0
	}
	before := source[:offset]
	line = uint32(bytes.Count(before, []byte{'\n'})) + 1
	col = uint32(len(before)-bytes.LastIndexByte(before, '\n')-1) + 1
	return
}
