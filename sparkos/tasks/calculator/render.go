package calculator

import (
	"image/color"

	"sparkcalc/hal"
	"sparkcalc/internal/buildinfo"
	"sparkcalc/sparkos/calc"
	"sparkcalc/sparkos/fonts/font6x8"

	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
)

var (
	colorBG       = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	colorFG       = color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
	colorDim      = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xFF}
	colorHeaderBG = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
	colorPanelBG  = color.RGBA{R: 0x10, G: 0x18, B: 0x10, A: 0xFF}
	colorDisplay  = color.RGBA{R: 0x7F, G: 0xFF, B: 0x7F, A: 0xFF}
	colorError    = color.RGBA{R: 0xFF, G: 0x55, B: 0x55, A: 0xFF}
	colorKeyEdge  = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xFF}
	colorKeyHot   = color.RGBA{R: 0x4A, G: 0xD1, B: 0xFF, A: 0xFF}
)

const displayScale = 2

type keyCap struct {
	label string
	tok   calc.Token
}

// keypad mirrors the on-screen calculator layout, row by row.
var keypad = [][]keyCap{
	{{"C", calc.ClearAllToken}, {"CE", calc.ClearEntryToken}, {"/", calc.OperatorToken(calc.OpDiv)}, {"*", calc.OperatorToken(calc.OpMul)}},
	{{"7", calc.DigitToken('7')}, {"8", calc.DigitToken('8')}, {"9", calc.DigitToken('9')}, {"-", calc.OperatorToken(calc.OpSub)}},
	{{"4", calc.DigitToken('4')}, {"5", calc.DigitToken('5')}, {"6", calc.DigitToken('6')}, {"+", calc.OperatorToken(calc.OpAdd)}},
	{{"1", calc.DigitToken('1')}, {"2", calc.DigitToken('2')}, {"3", calc.DigitToken('3')}, {"=", calc.EqualsToken}},
	{{"0", calc.DigitToken('0')}, {".", calc.DecimalPointToken}},
}

func (t *Task) initFont() bool {
	t.font = font6x8.New()
	t.fontHeight = font6x8.Height
	t.fontOffset = font6x8.Offset
	_, outboxWidth := tinyfont.LineWidth(t.font, "0")
	t.fontWidth = int16(outboxWidth)
	return t.fontWidth > 0 && t.fontHeight > 0
}

func (t *Task) render() {
	if !t.active || t.fb == nil || t.d == nil {
		return
	}
	w := int16(t.fb.Width())
	h := int16(t.fb.Height())
	if w <= 0 || h <= 0 {
		return
	}

	_ = t.d.FillRectangle(0, 0, w, h, colorBG)

	_ = t.d.FillRectangle(0, 0, w, t.fontHeight, colorHeaderBG)
	t.drawStringClipped(0, 0, " SparkCalc "+buildinfo.Short(), colorFG, t.cols)
	phase := t.engine.State().Phase().String()
	t.drawStringRight(w, 0, phase+" ", colorDim)

	y := t.fontHeight + 4
	y = t.renderDisplay(y, w)
	y = t.renderKeypad(y+4, w)
	t.renderHistory(y+4, h-t.fontHeight)

	statusY := h - t.fontHeight
	_ = t.d.FillRectangle(0, statusY, w, t.fontHeight, colorHeaderBG)
	t.drawStringClipped(0, statusY, t.statusText(), colorFG, t.cols)

	_ = t.fb.Present()
}

// renderDisplay draws the previous-operation line and the main display. It returns the y
// coordinate below the panel.
func (t *Task) renderDisplay(y, w int16) int16 {
	panelH := 3*t.fontHeight + displayScale*t.fontHeight
	_ = t.d.FillRectangle(2, y, w-4, panelH, colorPanelBG)
	_ = tinydraw.Rectangle(t.d, 2, y, w-4, panelH, colorKeyEdge)

	t.drawStringRight(w-6, y+t.fontHeight/2, t.engine.PreviousLine(), colorDim)

	text := t.engine.Display()
	fg := colorDisplay
	if text == calc.ErrorDisplay {
		fg = colorError
	}
	cellW := t.fontWidth * displayScale
	maxChars := int((w - 12) / cellW)
	text = clipLeft(text, maxChars)
	x := w - 6 - int16(len([]rune(text)))*cellW
	t.drawScaled(x, y+2*t.fontHeight, text, fg, displayScale)

	return y + panelH
}

func (t *Task) renderKeypad(y, w int16) int16 {
	cellW := (w - 4) / 4
	cellH := 2 * t.fontHeight
	for row, caps := range keypad {
		cy := y + int16(row)*cellH
		for col, kc := range caps {
			cx := 2 + int16(col)*cellW
			fg := colorFG
			if kc.tok == t.lastKey {
				_ = tinydraw.FilledRectangle(t.d, cx+1, cy+1, cellW-2, cellH-2, colorKeyHot)
				fg = colorBG
			}
			_ = tinydraw.Rectangle(t.d, cx, cy, cellW, cellH, colorKeyEdge)
			lx := cx + (cellW-int16(len(kc.label))*t.fontWidth)/2
			ly := cy + (cellH-t.fontHeight)/2
			t.drawStringClipped(lx, ly, kc.label, fg, len(kc.label))
		}
	}
	return y + int16(len(keypad))*cellH
}

func (t *Task) renderHistory(y, bottom int16) {
	if y+t.fontHeight > bottom {
		return
	}
	t.drawStringClipped(4, y, "History", colorDim, t.cols)
	y += t.fontHeight + 2
	for _, line := range t.engine.History() {
		if y+t.fontHeight > bottom {
			return
		}
		t.drawStringClipped(4, y, line, colorFG, t.cols-1)
		y += t.fontHeight
	}
}

func (t *Task) statusText() string {
	if t.message != "" {
		return " " + t.message
	}
	return " Enter = | Esc C | Bksp CE | Tab tape"
}

func (t *Task) drawStringClipped(x, y int16, s string, fg color.RGBA, cols int) {
	col := int16(0)
	for _, r := range s {
		if int(col) >= cols {
			return
		}
		tinyfont.DrawChar(t.d, t.font, x+col*t.fontWidth, y+t.fontOffset, r, fg)
		col++
	}
}

func (t *Task) drawStringRight(right, y int16, s string, fg color.RGBA) {
	if s == "" {
		return
	}
	s = clipLeft(s, int(right/t.fontWidth))
	x := right - int16(len([]rune(s)))*t.fontWidth
	t.drawStringClipped(x, y, s, fg, len(s))
}

func (t *Task) drawScaled(x, y int16, s string, fg color.RGBA, scale int16) {
	sd := &scaledDisplay{d: t.d, x0: x, y0: y, scale: scale}
	col := int16(0)
	for _, r := range s {
		tinyfont.DrawChar(sd, t.font, col*t.fontWidth, t.fontOffset, r, fg)
		col++
	}
}

// clipLeft keeps the last max runes of s, marking the cut with '<'.
func clipLeft(s string, max int) string {
	rs := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(rs) <= max {
		return s
	}
	if max == 1 {
		return "<"
	}
	return "<" + string(rs[len(rs)-max+1:])
}

type fbDisplay struct {
	fb hal.Framebuffer
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	return &fbDisplay{fb: fb}
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	_ = d.FillRectangle(x, y, 1, 1, c)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	buf := d.fb.Buffer()
	if buf == nil {
		return nil
	}

	w := d.fb.Width()
	h := d.fb.Height()

	x0 := clampInt(int(x), 0, w)
	y0 := clampInt(int(y), 0, h)
	x1 := clampInt(int(x)+int(width), 0, w)
	y1 := clampInt(int(y)+int(height), 0, h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565From888(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)

	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := py * stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			if off < 0 || off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
	return nil
}

// scaledDisplay magnifies glyph coordinates by scale around (x0, y0).
type scaledDisplay struct {
	d      *fbDisplay
	x0, y0 int16
	scale  int16
}

func (s *scaledDisplay) Size() (x, y int16) { return s.d.Size() }
func (s *scaledDisplay) Display() error     { return nil }

func (s *scaledDisplay) SetPixel(x, y int16, c color.RGBA) {
	_ = s.d.FillRectangle(s.x0+x*s.scale, s.y0+y*s.scale, s.scale, s.scale, c)
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
