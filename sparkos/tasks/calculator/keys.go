package calculator

import (
	"unicode/utf8"

	"sparkcalc/sparkos/calc"
)

type keyKind uint8

const (
	keyRune keyKind = iota
	keyEnter
	keyBackspace
	keyDelete
	keyTab
	keyEsc
	keyUp
	keyDown
	keyOther
)

type key struct {
	kind keyKind
	r    rune
}

// nextKey decodes one key from VT100 input. It returns ok=false when b holds only the
// prefix of a longer sequence.
func nextKey(b []byte) (consumed int, k key, ok bool) {
	if len(b) == 0 {
		return 0, key{}, false
	}

	if b[0] == 0x1b {
		return parseEscapeKey(b)
	}

	switch b[0] {
	case '\r', '\n':
		return 1, key{kind: keyEnter}, true
	case 0x7f, 0x08:
		return 1, key{kind: keyBackspace}, true
	case '\t':
		return 1, key{kind: keyTab}, true
	}

	if b[0] < 0x20 {
		return 1, key{kind: keyOther}, true
	}
	if !utf8.FullRune(b) {
		return 0, key{}, false
	}
	r, sz := utf8.DecodeRune(b)
	if r == utf8.RuneError && sz == 1 {
		return 1, key{kind: keyOther}, true
	}
	return sz, key{kind: keyRune, r: r}, true
}

func parseEscapeKey(b []byte) (consumed int, k key, ok bool) {
	if len(b) < 2 || b[1] != '[' {
		return 1, key{kind: keyEsc}, true
	}
	if len(b) < 3 {
		return 0, key{}, false
	}

	switch b[2] {
	case 'A':
		return 3, key{kind: keyUp}, true
	case 'B':
		return 3, key{kind: keyDown}, true
	case 'C', 'D', 'H', 'F':
		return 3, key{kind: keyOther}, true
	case '3':
		if len(b) < 4 {
			return 0, key{}, false
		}
		if b[3] == '~' {
			return 4, key{kind: keyDelete}, true
		}
		return 1, key{kind: keyEsc}, true
	default:
		return 1, key{kind: keyEsc}, true
	}
}

// tokenForKey maps a decoded key to a calculator token.
func tokenForKey(k key) (calc.Token, bool) {
	switch k.kind {
	case keyEnter:
		return calc.EqualsToken, true
	case keyEsc:
		return calc.ClearAllToken, true
	case keyBackspace, keyDelete:
		return calc.ClearEntryToken, true
	case keyRune:
		switch k.r {
		case 'c', 'C':
			return calc.ClearAllToken, true
		case 'x', 'X':
			return calc.OperatorToken(calc.OpMul), true
		}
		return calc.TokenForRune(k.r)
	default:
		return calc.Token{}, false
	}
}
