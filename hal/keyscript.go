package hal

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var namedKeys = map[string]KeyEvent{
	"enter":     {Code: KeyEnter},
	"esc":       {Code: KeyEscape},
	"escape":    {Code: KeyEscape},
	"backspace": {Code: KeyBackspace},
	"bs":        {Code: KeyBackspace},
	"delete":    {Code: KeyDelete},
	"del":       {Code: KeyDelete},
	"tab":       {Code: KeyTab},
	"up":        {Code: KeyUp},
	"down":      {Code: KeyDown},
	"ctrl+g":    {Rune: 0x07},
}

// ParseKeyScript turns a typed key script into keyboard events.
//
// Plain characters are typed as runes. Named keys go in braces, for example
// "12+7{Enter}" or "{Ctrl+G}". Named keys produce a press and a release.
func ParseKeyScript(script string) ([]KeyEvent, error) {
	var out []KeyEvent
	for i := 0; i < len(script); {
		if script[i] != '{' {
			r, size := utf8.DecodeRuneInString(script[i:])
			out = append(out, KeyEvent{Press: true, Rune: r})
			i += size
			continue
		}
		end := strings.IndexByte(script[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("keyscript: unterminated key name at offset %d", i)
		}
		name := strings.ToLower(strings.TrimSpace(script[i+1 : i+end]))
		ev, ok := namedKeys[name]
		if !ok {
			return nil, fmt.Errorf("keyscript: unknown key %q", script[i+1:i+end])
		}
		ev.Press = true
		out = append(out, ev)
		if ev.Code != KeyUnknown {
			ev.Press = false
			out = append(out, ev)
		}
		i += end + 1
	}
	return out, nil
}
