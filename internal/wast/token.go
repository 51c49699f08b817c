package wast

// tokenType is the set of tokens defined by the WebAssembly Text Format, as used in scripts.
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#tokens%E2%91%A0
type tokenType byte

const (
	tokenInvalid tokenType = iota
	// tokenKeyword is a potentially empty sequence of idChar characters prefixed by a lowercase letter.
	//
	// For example, in the below, 'assert_malformed' 'module' and 'binary' are keywords:
	//		(assert_malformed (module binary "") "unexpected end")
	//
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#text-keyword
	tokenKeyword

	// tokenUN is an unsigned number: a sequence of idChar characters starting with a digit. Floating point forms such
	// as 1.5e10 or 0x1p-1 are lexed as this token too, as scripts only need them skipped.
	tokenUN

	// tokenSN is a signed number: a sequence of idChar characters starting with '+' or '-', such as -0x1p+0 or +inf.
	tokenSN

	// tokenString is a sequence enclosed by quotation marks, representing an encoded byte string. Escapes are
	// decoded by decodeString.
	//
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#strings%E2%91%A0
	tokenString

	// tokenID is a sequence of idChar characters prefixed by a '$', such as $M1.
	//
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#text-id
	tokenID

	// tokenLParen is a left paren: '('
	tokenLParen

	// tokenRParen is a right paren: ')'
	tokenRParen

	// tokenReserved is a sequence of idChar characters which are neither a tokenID nor a tokenString.
	//
	// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#text-reserved
	tokenReserved
)

// tokenNames is index-coordinated with tokenType
var tokenNames = [...]string{
	"invalid",
	"keyword",
	"uN",
	"sN",
	"string",
	"ID",
	"(",
	")",
	"reserved",
}

// String returns the string name of this token.
func (t tokenType) String() string {
	return tokenNames[t]
}

// constants below help format a somewhat readable lookup table that eases identification of tokens.
const (
	// xx is an invalid token start byte
	xx = tokenInvalid
	// xs is the start of tokenString ('"')
	xs = tokenString
	// xi is the start of tokenID ('$')
	xi = tokenID
	// lp is the start of tokenLParen ('(')
	lp = tokenLParen
	// rp is the start of tokenRParen (')')
	rp = tokenRParen
	// un is the start of a tokenUN
	un = tokenUN
	// sn is the start of a tokenSN
	sn = tokenSN
	// xk is the start of a tokenKeyword
	xk = tokenKeyword
	// xr is the start of tokenReserved
	xr = tokenReserved
)

// firstTokenByte is the token type implied by the first byte of a token. All token starts are ASCII.
var firstTokenByte = [256]tokenType{
	//   1   2   3   4   5   6   7   8   9   A   B   C   D   E   F
	xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, // 0x00-0x0F
	xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, xx, // 0x10-0x1F
	xx, xr, xs, xr, xi, xr, xr, xr, lp, rp, xr, sn, xx, sn, xr, xr, // 0x20-0x2F
	un, un, un, un, un, un, un, un, un, un, xr, xx, xr, xr, xr, xr, // 0x30-0x3F
	xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, // 0x40-0x4F
	xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xr, xx, xr, xx, xr, xr, // 0x50-0x5F
	xr, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, // 0x60-0x6F
	xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xk, xx, xr, xx, xr, xx, // 0x70-0x7F
}

// idChar is a printable ASCII character that does not contain a space, quotation mark, comma, semicolon, or bracket.
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#text-idchar
var idChar = buildIdChars()

func buildIdChars() (result [256]bool) {
	for i := 0; i < 128; i++ {
		result[i] = isIdChar(byte(i))
	}
	return
}

func isIdChar(ch byte) bool {
	switch ch {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '/', ':', '<', '=', '>', '?', '@', '\\', '^', '_', '`', '|', '~':
		return true
	}
	switch {
	case ch >= '0' && ch <= '9':
		fallthrough
	case ch >= 'a' && ch <= 'z':
		fallthrough
	case ch >= 'A' && ch <= 'Z':
		return true
	}
	return false
}
