package wast

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// tokenParser parses the current token and returns a parser for the next.
//
// * tokenType is the token type
// * tokenBytes are the UTF-8 bytes representing the token. Do not modify this.
// * pos is the byte offset of the token in the source.
// * line is the source line number determined by unescaped '\n' characters.
// * col is the UTF-8 column number.
//
// Returning an error will short-circuit any future invocations.
type tokenParser func(tok tokenType, tokenBytes []byte, pos int, line, col uint32) (tokenParser, error)

var (
	constantLParen = []byte{'('}
	constantRParen = []byte{')'}
)

// lex invokes the parser function for the given source. This function returns when the source is exhausted or an error
// occurs.
//
// Here's a description of the return values:
// * line is the source line number determined by unescaped '\n' characters of the error or EOF
// * col is the UTF-8 column number of the error or EOF
// * err is an error invoking the parser, dangling block comments or unexpected characters.
func lex(parser tokenParser, source []byte) (line, col uint32, err error) {
	// i is the source index to begin reading, inclusive.
	i := 0
	// end is the source index to stop reading, exclusive.
	end := len(source)
	line = 1
	col = 1

	parenDepth := 0

	// Block comments, ex. (; comment ;), can span multiple lines and also nest, ex. (; one (; two ;) ).
	blockCommentDepth := 0

	for ; i < end; i, col = i+1, col+1 {
		b1 := source[i]

		// The WebAssembly text format does not consider newlines apart from '\n'. Notably, a bare '\r' is not a newline here.
		// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#text-comment
		if b1 == '\n' {
			line++
			col = 0  // for loop will + 1
			continue // next line
		}

		if b1 == ' ' || b1 == '\t' || b1 == '\r' {
			continue
		}

		switch b1 {
		case '(':
			peek := i + 1
			if peek == end {
				return line, col, errors.New("found '(' at end of input")
			}
			if source[peek] == ';' { // next block comment
				i = peek // continue after "(;"
				col++
				blockCommentDepth++
				continue
			} else if blockCommentDepth == 0 {
				if parser, err = parser(tokenLParen, constantLParen, i, line, col); err != nil {
					return line, col, err
				}
				parenDepth++
				continue
			}
		case ')':
			if blockCommentDepth == 0 {
				if parenDepth == 0 {
					return line, col, errors.New("found ')' before '('")
				}
				if parser, err = parser(tokenRParen, constantRParen, i, line, col); err != nil {
					return line, col, err
				}
				parenDepth--
				continue
			}
		case ';': // possible line comment or block comment end
			peek := i + 1
			if peek < end {
				b2 := source[peek]
				if blockCommentDepth > 0 && b2 == ')' {
					i = peek // continue after ";)"
					col++
					blockCommentDepth--
					continue
				}

				if b2 == ';' && blockCommentDepth == 0 { // line comment
					peek++
					col++

				LineComment:
					for peek < end {
						peeked := source[peek]
						if peeked == '\n' {
							break LineComment // EOL bookkeeping will proceed on the next iteration
						}

						col++
						s := utf8Size[peeked]
						if s == 0 {
							return line, col, fmt.Errorf("found an invalid byte in line comment: 0x%x", peeked)
						}
						peek = peek + s
					}

					i = peek - 1 // at the '\n'
					continue
				}
			}
		}

		// non-ASCII is only supported in comments and strings.
		if blockCommentDepth > 0 {
			s := utf8Size[b1]
			if s == 0 {
				return line, col, fmt.Errorf("found an invalid byte in block comment: 0x%x", b1)
			}
			i = i + s - 1 // -1 because for loop will + 1
			continue
		}

		tok := firstTokenByte[b1]
		b := i        // the start position of the token (fixed)
		peek := i + 1 // when finished scanning, this becomes end (the position after the token).
		c := col      // the start column of the token (fixed)

		switch tok {
		case tokenString: // min 2 bytes for empty string ("")
			hitQuote := false
		String:
			for peek < end {
				peeked := source[peek]
				switch peeked {
				case '"':
					hitQuote = true
					break String
				case '\n':
					return line, col, errors.New("found a newline in string token")
				case '\\':
					// Skip the escaped character so that \" doesn't end the string. Longer escapes are plain
					// characters here and decoded by decodeString.
					if peek+1 < end && (source[peek+1] == '"' || source[peek+1] == '\\') {
						peek++
						col++
					}
				}

				col++
				s := utf8Size[peeked]
				if s == 0 {
					return line, col, fmt.Errorf("found an invalid byte in string token: 0x%x", peeked)
				}
				peek = peek + s
			}

			if !hitQuote {
				return line, col, errors.New("expected end quote")
			}

			i = peek
			// set the position to after the quote
			peek++
			col++
		case tokenKeyword, tokenID, tokenReserved, tokenUN, tokenSN: // end with zero or more idChar
		IdChars:
			for ; peek < end; peek++ {
				if !idChar[source[peek]] {
					break IdChars // end of this token (or malformed, which the next loop will notice)
				}
				col++
			}
			i = peek - 1
		default:
			if b1 > 0x7F { // non-ASCII
				r, _ := utf8.DecodeRune(source[i:])
				return line, col, fmt.Errorf("expected an ASCII character, not %s", string(r))
			}
			return line, col, fmt.Errorf("unexpected character %s", string(b1))
		}

		if parser, err = parser(tok, source[b:peek], b, line, c); err != nil {
			return line, c, err
		}
	}

	if blockCommentDepth > 0 {
		return line, col, errors.New("expected block comment end ';)', but reached end of input")
	}
	if parenDepth > 0 {
		return line, col, errors.New("expected ')', but reached end of input")
	}
	return line, col, nil
}

// utf8Size returns the size of the UTF-8 rune based on its first byte, or zero.
//
// Note: The null byte (0x00) is here as it is valid in string tokens and comments. See WebAssembly/spec#1372
var utf8Size = [256]int{
	// 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x00-0x0F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x10-0x1F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x20-0x2F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x30-0x3F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x40-0x4F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x50-0x5F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x60-0x6F
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, // 0x70-0x7F
	// 1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x80-0x8F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0x90-0x9F
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xA0-0xAF
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xB0-0xBF
	0, 0, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xC0-0xCF
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, // 0xD0-0xDF
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, // 0xE0-0xEF
	4, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 0xF0-0xFF
}
