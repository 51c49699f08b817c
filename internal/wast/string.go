package wast

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// decodeString returns the bytes a string token represents, given the token including its quotes.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#strings%E2%91%A0
func decodeString(token []byte) ([]byte, error) {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return nil, errors.New("expected a quoted string")
	}
	s := token[1 : len(token)-1]

	ret := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			ret = append(ret, c)
			continue
		}

		i++
		if i == len(s) {
			return nil, errors.New("unterminated escape")
		}
		switch c = s[i]; c {
		case 't':
			ret = append(ret, '\t')
		case 'n':
			ret = append(ret, '\n')
		case 'r':
			ret = append(ret, '\r')
		case '"', '\'', '\\':
			ret = append(ret, c)
		case 'u':
			// \u{hexnum}
			if i+1 >= len(s) || s[i+1] != '{' {
				return nil, errors.New("expected '{' after \\u")
			}
			end := i + 2
			for end < len(s) && s[end] != '}' {
				end++
			}
			if end == len(s) {
				return nil, errors.New("expected '}' after \\u{")
			}
			v, err := strconv.ParseUint(removeUnderscores(s[i+2:end]), 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return nil, fmt.Errorf("invalid unicode escape \\u{%s}", s[i+2:end])
			}
			ret = utf8.AppendRune(ret, rune(v))
			i = end
		default:
			// \hh
			if i+1 >= len(s) {
				return nil, fmt.Errorf("invalid escape \\%c", c)
			}
			hi, ok1 := hexValue(c)
			lo, ok2 := hexValue(s[i+1])
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("invalid escape \\%c%c", c, s[i+1])
			}
			ret = append(ret, hi<<4|lo)
			i++
		}
	}
	return ret, nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func removeUnderscores(b []byte) string {
	ret := make([]byte, 0, len(b))
	for _, c := range b {
		if c != '_' {
			ret = append(ret, c)
		}
	}
	return string(ret)
}
