// Package wast extracts the module-defining directives of WebAssembly script tests, from .wast sources or from the
// JSON manifests wast2json derives from them.
package wast

import (
	"errors"
	"fmt"
)

// sexpr is an atom or a parenthesized list of a script, with its position.
type sexpr struct {
	tok tokenType
	// text is the atom as written, or nil for a list.
	text []byte
	list []*sexpr
	// start and end are the byte range of the expression in the source, end exclusive.
	start, end int
	line, col  uint32
}

func (s *sexpr) isList() bool {
	return s.tok == tokenLParen
}

// keyword returns the text of a keyword atom, or "" for any other expression.
func (s *sexpr) keyword() string {
	if s.tok != tokenKeyword {
		return ""
	}
	return string(s.text)
}

// head returns the keyword at the start of a list, or "".
func (s *sexpr) head() string {
	if !s.isList() || len(s.list) == 0 {
		return ""
	}
	return s.list[0].keyword()
}

// sexprParser builds sexpr trees from tokens, keeping the open lists on a stack.
type sexprParser struct {
	stack []*sexpr
	top   []*sexpr
}

func (p *sexprParser) parse(tok tokenType, tokenBytes []byte, pos int, line, col uint32) (tokenParser, error) {
	switch tok {
	case tokenLParen:
		p.stack = append(p.stack, &sexpr{tok: tokenLParen, start: pos, line: line, col: col})
	case tokenRParen: // lex guarantees a matching tokenLParen
		n := len(p.stack) - 1
		s := p.stack[n]
		s.end = pos + 1
		p.stack = p.stack[:n]
		p.add(s)
	default:
		if len(p.stack) == 0 {
			return nil, fmt.Errorf("unexpected %s outside of a directive: %s", tok, tokenBytes)
		}
		p.add(&sexpr{tok: tok, text: tokenBytes, start: pos, end: pos + len(tokenBytes), line: line, col: col})
	}
	return p.parse, nil
}

func (p *sexprParser) add(s *sexpr) {
	if n := len(p.stack); n > 0 {
		parent := p.stack[n-1]
		parent.list = append(parent.list, s)
	} else {
		p.top = append(p.top, s)
	}
}

// ParseScript parses the directives of a .wast script. Errors are *ScriptError.
//
// Directives other than those of DirectiveKind are returned as DirectiveOther without inspecting their contents, so
// scripts using syntax this parser doesn't know still parse as long as they are well-formed S-expressions.
func ParseScript(path string, source []byte) ([]*Directive, error) {
	p := &sexprParser{}
	if line, col, err := lex(p.parse, source); err != nil {
		return nil, &ScriptError{Kind: ScriptParse, Path: path, Source: source, Line: line, Col: col, Err: err}
	}

	directives := make([]*Directive, 0, len(p.top))
	for _, s := range p.top {
		d, err := toDirective(source, s)
		if err != nil {
			var se *sexprError
			if errors.As(err, &se) {
				s = se.at
				err = se.err
			}
			return nil, &ScriptError{Kind: ScriptParse, Path: path, Source: source, Line: s.line, Col: s.col, Err: err}
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// sexprError attributes an error to a position more precise than the directive.
type sexprError struct {
	at  *sexpr
	err error
}

func (e *sexprError) Error() string {
	return e.err.Error()
}

func errorAt(at *sexpr, format string, args ...interface{}) error {
	return &sexprError{at: at, err: fmt.Errorf(format, args...)}
}

func toDirective(source []byte, s *sexpr) (*Directive, error) {
	keyword := s.head()
	if keyword == "" {
		return nil, errorAt(s, "expected a directive keyword")
	}

	d := &Directive{Kind: directiveKinds[keyword], Keyword: keyword, Line: s.line, Col: s.col}
	switch d.Kind {
	case DirectiveModule:
		m, err := toModuleSource(source, s)
		if err != nil {
			return nil, err
		}
		d.Module = m
	case DirectiveAssertMalformed, DirectiveAssertInvalid, DirectiveAssertUnlinkable:
		if len(s.list) != 3 {
			return nil, errorAt(s, "%s: expected a module and a message", keyword)
		}
		if s.list[1].head() != "module" {
			return nil, errorAt(s.list[1], "%s: expected a module", keyword)
		}
		m, err := toModuleSource(source, s.list[1])
		if err != nil {
			return nil, err
		}
		d.Module = m

		msg := s.list[2]
		if msg.tok != tokenString {
			return nil, errorAt(msg, "%s: expected a message string, but found %s", keyword, msg.tok)
		}
		b, err := decodeString(msg.text)
		if err != nil {
			return nil, errorAt(msg, "%s: %v", keyword, err)
		}
		d.Message = string(b)
	}
	return d, nil
}

// toModuleSource reads the form of a (module ...) expression.
func toModuleSource(source []byte, s *sexpr) (*ModuleSource, error) {
	m := &ModuleSource{}
	fields := s.list[1:]
	if len(fields) > 0 && fields[0].tok == tokenID {
		m.ID = string(fields[0].text[1:])
		fields = fields[1:]
	}

	var form string
	if len(fields) > 0 {
		form = fields[0].keyword()
	}

	switch form {
	case "binary", "quote":
		var data []byte
		for _, f := range fields[1:] {
			if f.tok != tokenString {
				return nil, errorAt(f, "module %s: expected a string, but found %s", form, f.tok)
			}
			b, err := decodeString(f.text)
			if err != nil {
				return nil, errorAt(f, "module %s: %v", form, err)
			}
			data = append(data, b...)
		}
		if form == "binary" {
			m.Form = ModuleFormBinary
			if data == nil {
				data = []byte{}
			}
			m.Binary = data
		} else {
			m.Form = ModuleFormQuote
			m.Text = string(data)
		}
	default:
		m.Form = ModuleFormText
		m.Text = string(source[s.start:s.end])
	}
	return m, nil
}
