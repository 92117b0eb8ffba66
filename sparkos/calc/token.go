package calc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownKey is returned by ParseKeys for input outside the key alphabet.
var ErrUnknownKey = errors.New("calc: unknown key")

type TokenKind uint8

const (
	TokenNone TokenKind = iota
	TokenDigit
	TokenDecimalPoint
	TokenOperator
	TokenEquals
	TokenClearAll
	TokenClearEntry
)

// Token is one discrete calculator input.
type Token struct {
	Kind  TokenKind
	Digit byte
	Op    Operator
}

var (
	DecimalPointToken = Token{Kind: TokenDecimalPoint}
	EqualsToken       = Token{Kind: TokenEquals}
	ClearAllToken     = Token{Kind: TokenClearAll}
	ClearEntryToken   = Token{Kind: TokenClearEntry}
)

// DigitToken returns the token for digit key d ('0'..'9').
func DigitToken(d byte) Token { return Token{Kind: TokenDigit, Digit: d} }

// OperatorToken returns the token for op.
func OperatorToken(op Operator) Token { return Token{Kind: TokenOperator, Op: op} }

// String returns the key-script spelling of t.
func (t Token) String() string {
	switch t.Kind {
	case TokenDigit:
		return string(t.Digit)
	case TokenDecimalPoint:
		return "."
	case TokenOperator:
		return t.Op.String()
	case TokenEquals:
		return "="
	case TokenClearAll:
		return "{Escape}"
	case TokenClearEntry:
		return "{Backspace}"
	default:
		return ""
	}
}

// TokenForRune maps a single key character to its token. Control characters follow the VT100
// bytes produced by the keyboard service: CR/LF is equals, ESC clears all, DEL/BS clears the entry.
func TokenForRune(r rune) (Token, bool) {
	switch {
	case r >= '0' && r <= '9':
		return DigitToken(byte(r)), true
	case r == '.':
		return DecimalPointToken, true
	case r == '=' || r == '\r' || r == '\n':
		return EqualsToken, true
	case r == 0x1b:
		return ClearAllToken, true
	case r == 0x7f || r == 0x08:
		return ClearEntryToken, true
	}
	if op, ok := OperatorFor(r); ok {
		return OperatorToken(op), true
	}
	return Token{}, false
}

var namedKeys = map[string]Token{
	"enter":     EqualsToken,
	"return":    EqualsToken,
	"escape":    ClearAllToken,
	"esc":       ClearAllToken,
	"backspace": ClearEntryToken,
	"bs":        ClearEntryToken,
}

// ParseKeys parses a key script such as "12+7{Enter}" into tokens.
//
// Digits, '.', '+', '-', '*', '/' and '=' stand for themselves. Named keys go in braces:
// {Enter}, {Escape} (or {Esc}) and {Backspace} (or {BS}). Whitespace is ignored.
func ParseKeys(script string) ([]Token, error) {
	var out []Token
	for i := 0; i < len(script); {
		r, sz := utf8.DecodeRuneInString(script[i:])
		if unicode.IsSpace(r) {
			i += sz
			continue
		}
		if r == '{' {
			end := strings.IndexByte(script[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated %q at offset %d", ErrUnknownKey, script[i:], i)
			}
			name := script[i+1 : i+end]
			tok, ok := namedKeys[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, fmt.Errorf("%w: {%s} at offset %d", ErrUnknownKey, name, i)
			}
			out = append(out, tok)
			i += end + 1
			continue
		}
		if r < 0x20 || r == 0x7f {
			return nil, fmt.Errorf("%w: control byte 0x%02x at offset %d", ErrUnknownKey, r, i)
		}
		tok, ok := TokenForRune(r)
		if !ok {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrUnknownKey, r, i)
		}
		out = append(out, tok)
		i += sz
	}
	return out, nil
}
