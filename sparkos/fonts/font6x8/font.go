package font6x8

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

const (
	Width  = 6
	Height = 8
	// Offset is the baseline offset from the top of a text row.
	Offset = 7

	glyphFirst = 0x20
	glyphCount = 0x7f - glyphFirst
)

// Font is the shared monospace bitmap font (6x8, printable ASCII).
//
// It implements tinyfont.Fonter. Concurrent access is not safe due to internal glyph reuse;
// tasks that draw concurrently should each call New.
var Font tinyfont.Fonter = New()

// New returns a fresh font instance with its own glyph scratch space.
func New() tinyfont.Fonter {
	return &font6x8{}
}

type font6x8 struct {
	g glyph
}

type glyph struct {
	r rune
}

func (g *glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	base := glyphIndex(g.r) * Height
	for row := 0; row < Height; row++ {
		b := glyphData[base+row]
		for col := 0; col < Width; col++ {
			if b&(0x20>>col) == 0 {
				continue
			}
			display.SetPixel(x+int16(col), y-int16(Offset-row), c)
		}
	}
}

func (g *glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    Width,
		Height:   Height,
		XAdvance: Width,
		XOffset:  0,
		YOffset:  -Offset,
	}
}

func (f *font6x8) GetYAdvance() uint8 { return Height }

func (f *font6x8) GetGlyph(r rune) tinyfont.Glypher {
	f.g.r = r
	return &f.g
}

// glyphIndex maps r to its glyph. Unprintable runes render as '?', a few typographic runes
// fall back to their ASCII look-alikes.
func glyphIndex(r rune) int {
	switch r {
	case '\u00a0':
		r = ' '
	case '\u2212', '\u2013', '\u2014':
		r = '-'
	case '\u00d7':
		r = '*'
	case '\u00f7':
		r = '/'
	}
	if r < glyphFirst || r >= glyphFirst+glyphCount {
		r = '?'
	}
	return int(r - glyphFirst)
}
