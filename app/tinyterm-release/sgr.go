package tinyterm

import "image/color"

// Select Graphic Rendition parameters (ECMA-48).
const (
	SGRReset          = 0
	SGRBold           = 1
	SGRFgBlack        = 30
	SGRFgRed          = 31
	SGRFgGreen        = 32
	SGRFgYellow       = 33
	SGRFgBlue         = 34
	SGRFgMagenta      = 35
	SGRFgCyan         = 36
	SGRFgWhite        = 37
	SGRSetFgColor     = 38
	SGRDefaultFgColor = 39
	SGRBgBlack        = 40
	SGRBgRed          = 41
	SGRBgGreen        = 42
	SGRBgYellow       = 43
	SGRBgBlue         = 44
	SGRBgMagenta      = 45
	SGRBgCyan         = 46
	SGRBgWhite        = 47
	SGRSetBgColor     = 48
	SGRDefaultBgColor = 49
)

// Color is one of the eight basic terminal colors.
type Color uint8

const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

var palette = [...]color.RGBA{
	ColorBlack:   {R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	ColorRed:     {R: 0xCD, G: 0x31, B: 0x31, A: 0xFF},
	ColorGreen:   {R: 0x0D, G: 0xBC, B: 0x79, A: 0xFF},
	ColorYellow:  {R: 0xE5, G: 0xE5, B: 0x10, A: 0xFF},
	ColorBlue:    {R: 0x24, G: 0x72, B: 0xC8, A: 0xFF},
	ColorMagenta: {R: 0xBC, G: 0x3F, B: 0xBC, A: 0xFF},
	ColorCyan:    {R: 0x11, G: 0xA8, B: 0xCD, A: 0xFF},
	ColorWhite:   {R: 0xE5, G: 0xE5, B: 0xE5, A: 0xFF},
}

// RGBA returns the display color for c. Out-of-range values map to white.
func (c Color) RGBA() color.RGBA {
	if int(c) >= len(palette) {
		return palette[ColorWhite]
	}
	return palette[c]
}

type sgrAttrs struct {
	attrs byte
	fgcol color.RGBA
	bgcol color.RGBA
}

func (a *sgrAttrs) reset() {
	a.attrs = 0
	a.fgcol = ColorWhite.RGBA()
	a.bgcol = ColorBlack.RGBA()
}

func (a *sgrAttrs) setFG(c Color) { a.fgcol = c.RGBA() }
func (a *sgrAttrs) setBG(c Color) { a.bgcol = c.RGBA() }
