package spectest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sunjito/wasmbin/internal/wast"
	"github.com/sunjito/wasmbin/internal/wat"
)

// Script is a script file of a corpus.
type Script struct {
	Path string
	// Extension is the extension suite the script belongs to, or empty for the base suite.
	Extension string
}

// ListScripts returns the scripts directly under the root, and under the directory of each enabled extension.
// Extension suites come first, in the order given, and the scripts of each directory are sorted by name.
func ListScripts(cfg *Config) ([]Script, error) {
	var scripts []Script
	for _, e := range cfg.Extensions {
		dir := filepath.Join(cfg.Root, cfg.ExtensionsDir, e)
		names, err := listDir(dir, cfg.Format.fileExtension())
		if err != nil {
			return nil, fmt.Errorf("%w: extension %s: %v", ErrCorpusConfiguration, e, err)
		}
		for _, n := range names {
			scripts = append(scripts, Script{Path: filepath.Join(dir, n), Extension: e})
		}
	}

	names, err := listDir(cfg.Root, cfg.Format.fileExtension())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusConfiguration, err)
	}
	for _, n := range names {
		scripts = append(scripts, Script{Path: filepath.Join(cfg.Root, n)})
	}
	return scripts, nil
}

// listDir returns the sorted names of the regular files in dir with the given extension.
func listDir(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Corpus are the test cases of a run.
type Corpus struct {
	Cases []*TestCase
	// Suppression is true when extension suites were loaded, so the failures expected by the base suite are ignored.
	Suppression bool
}

// LoadCorpus loads the test cases of all scripts, then annotates them with the ignore policy of the enabled
// extensions. Script errors are *wast.ScriptError. verbose, if not nil, receives a line per script.
func LoadCorpus(cfg *Config, encoder wat.Encoder, verbose io.Writer) (*Corpus, error) {
	scripts, err := ListScripts(cfg)
	if err != nil {
		return nil, err
	}

	var cases []*TestCase
	for _, s := range scripts {
		loaded, err := LoadScript(s, cfg.Format, encoder)
		if err != nil {
			return nil, err
		}
		if verbose != nil {
			fmt.Fprintf(verbose, "loaded %d test cases from %s\n", len(loaded), s.Path)
		}
		cases = append(cases, loaded...)
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no test cases found under %s: was the test suite fetched?",
			ErrCorpusConfiguration, cfg.Root)
	}

	c := &Corpus{Cases: cases}
	c.Suppression = NewPolicy(cfg.Extensions).Annotate(cases)
	return c, nil
}

// LoadScript parses a script and returns a test case per relevant directive, in source order.
func LoadScript(s Script, format Format, encoder wat.Encoder) ([]*TestCase, error) {
	source, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusConfiguration, err)
	}

	var directives []*wast.Directive
	if format == FormatWast2JSON {
		directives, err = wast.ParseManifest(s.Path, source, os.ReadFile)
	} else {
		directives, err = wast.ParseScript(s.Path, source)
	}
	if err != nil {
		return nil, err
	}

	var cases []*TestCase
	for _, d := range directives {
		expected, ok := Classify(d)
		if !ok {
			continue
		}
		module, err := d.Module.Encode(encoder)
		if err != nil {
			return nil, &wast.ScriptError{
				Kind: wast.ModuleEncode, Path: s.Path, Source: source, Line: d.Line, Col: d.Col, Err: err,
			}
		}
		cases = append(cases, &TestCase{
			Name:      fmt.Sprintf("%s:%d:%d", s.Path, d.Line, d.Col),
			Module:    module,
			Expected:  expected,
			Extension: s.Extension,
		})
	}
	return cases, nil
}
