//go:build tinygo && bootdebug

package app

import (
	"image/color"

	"sparkcalc/hal"
	"sparkcalc/sparkos/fonts/font6x8"

	"tinygo.org/x/tinyfont"
)

func bootScreen(h hal.HAL, msg string) {
	bootDiagSetStep(msg)
	if h == nil {
		return
	}
	disp := h.Display()
	if disp == nil {
		return
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return
	}

	fb.ClearRGB(0, 0, 0)

	d := panicDisplay{fb: fb}
	font := font6x8.New()

	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(d, font, 0, font6x8.Offset, "SparkCalc boot", fg)
	tinyfont.WriteLine(d, font, 0, 2*font6x8.Height+font6x8.Offset, msg, fg)
	_ = fb.Present()
}
