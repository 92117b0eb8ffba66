package app

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type fakeLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *fakeLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *fakeLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *fakeLogger) has(line string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, got := range l.lines {
		if got == line {
			return true
		}
	}
	return false
}

func (l *fakeLogger) dump() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

type fakeFramebuffer struct {
	mu  sync.Mutex
	w   int
	h   int
	buf []byte
}

func newFakeFramebuffer(w, h int) *fakeFramebuffer {
	return &fakeFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *fakeFramebuffer) Width() int              { return f.w }
func (f *fakeFramebuffer) Height() int             { return f.h }
func (f *fakeFramebuffer) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *fakeFramebuffer) StrideBytes() int        { return f.w * 2 }
func (f *fakeFramebuffer) Buffer() []byte          { return f.buf }
func (f *fakeFramebuffer) Present() error          { return nil }

func (f *fakeFramebuffer) ClearRGB(r, g, b uint8) {
	p := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i] = byte(p)
		f.buf[i+1] = byte(p >> 8)
	}
}

type fakeKeyboard struct{ ch chan hal.KeyEvent }

func (k *fakeKeyboard) Events() <-chan hal.KeyEvent { return k.ch }

type fakeTime struct{ ch chan uint64 }

func (t *fakeTime) Ticks() <-chan uint64 { return t.ch }

type fakeHAL struct {
	log *fakeLogger
	fb  *fakeFramebuffer
	kbd *fakeKeyboard
	t   *fakeTime
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		log: &fakeLogger{},
		fb:  newFakeFramebuffer(320, 320),
		kbd: &fakeKeyboard{ch: make(chan hal.KeyEvent, 64)},
		t:   &fakeTime{ch: make(chan uint64, 64)},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Display() hal.Display { return h }
func (h *fakeHAL) Input() hal.Input     { return h }
func (h *fakeHAL) Time() hal.Time       { return h.t }

func (h *fakeHAL) Framebuffer() hal.Framebuffer { return h.fb }
func (h *fakeHAL) Keyboard() hal.Keyboard       { return h.kbd }

func waitForLine(t *testing.T, l *fakeLogger, line string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if l.has(line) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %q; log:\n%s", line, l.dump())
}

func TestSystemRunsBootScript(t *testing.T) {
	h := newFakeHAL()
	_ = NewWithConfig(h, Config{Script: "12*3="})

	waitForLine(t, h.log, "calc: 12 * 3 = 36")
	waitForLine(t, h.log, "calc: display 36")
}

func TestSystemTypedKeysReachCalculator(t *testing.T) {
	h := newFakeHAL()
	_ = NewWithConfig(h, Config{})

	waitForLine(t, h.log, "focus: calc")
	for _, r := range "2+3=" {
		h.kbd.ch <- hal.KeyEvent{Press: true, Rune: r}
	}
	waitForLine(t, h.log, "calc: 2 + 3 = 5")
}

func TestSystemCtrlGSwitchesToTape(t *testing.T) {
	h := newFakeHAL()
	_ = NewWithConfig(h, Config{})

	waitForLine(t, h.log, "focus: calc")
	h.kbd.ch <- hal.KeyEvent{Press: true, Rune: 0x07}
	waitForLine(t, h.log, "focus: tape")
}

func TestSystemStartsOnConfiguredApp(t *testing.T) {
	h := newFakeHAL()
	_ = NewWithConfig(h, Config{StartApp: proto.AppTape})

	waitForLine(t, h.log, "focus: tape")
	h.kbd.ch <- hal.KeyEvent{Press: true, Rune: 0x07}
	waitForLine(t, h.log, "focus: calc")
}

func TestNewStartsOnCalculator(t *testing.T) {
	h := newFakeHAL()
	_ = New(h)

	waitForLine(t, h.log, "focus: calc")
}

func TestScriptChunksKeepsKeysWhole(t *testing.T) {
	chunks, err := scriptChunks("1{Esc}23", 4)
	if err != nil {
		t.Fatalf("scriptChunks: %v", err)
	}
	got := strings.Join(chunks, "|")
	if got != "1|{Escape}|23" {
		t.Fatalf("chunks=%q", got)
	}
	if _, err := scriptChunks("1+q", 16); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestPanicLines(t *testing.T) {
	lines := panicLines(kernel.PanicInfo{TaskID: 3, Value: errors.New("boom")})
	want := []string{"SparkCalc panic", "task: 3", "panic: boom", "stack: unavailable"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("lines=%q", lines)
	}

	lines = panicLines(kernel.PanicInfo{TaskID: 1, Value: "x", Stack: []byte("a\n\nb\n")})
	if n := len(lines); n != 6 || lines[4] != "a" || lines[5] != "b" {
		t.Fatalf("lines=%q", lines)
	}
}

func TestDrawPanicPaintsText(t *testing.T) {
	fb := newFakeFramebuffer(60, 16)
	drawPanic(fb, []string{strings.Repeat("W", 40)})

	bg := fb.buf[0] | fb.buf[1]
	white := 0
	for i := 0; i+1 < len(fb.buf); i += 2 {
		if fb.buf[i] == 0xFF && fb.buf[i+1] == 0xFF {
			white++
		}
	}
	if bg == 0 || white == 0 {
		t.Fatalf("bg=%x white=%d", bg, white)
	}
}

func TestTakeRunes(t *testing.T) {
	p, r := takeRunes("héllo", 2)
	if p != "hé" || r != "llo" {
		t.Fatalf("takeRunes=%q,%q", p, r)
	}
	if p, r := takeRunes("ab", 5); p != "ab" || r != "" {
		t.Fatalf("takeRunes=%q,%q", p, r)
	}
}
