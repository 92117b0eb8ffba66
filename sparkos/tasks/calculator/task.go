package calculator

import (
	"sparkcalc/hal"
	"sparkcalc/sparkos/calc"
	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"

	"tinygo.org/x/tinyfont"
)

// Task is the foreground calculator app. It renders the engine into the framebuffer and
// forwards every completed operation to the tape and the logger.
//
// Keyboard input reaches the engine only through a calc.Binding that exists while the focus
// service has the task activated.
type Task struct {
	disp    hal.Display
	ep      kernel.Capability
	logCap  kernel.Capability
	tapeCap kernel.Capability

	fb hal.Framebuffer
	d  *fbDisplay

	font       tinyfont.Fonter
	fontWidth  int16
	fontHeight int16
	fontOffset int16

	cols int
	rows int

	active   bool
	focusCap kernel.Capability

	engine  *calc.Engine
	feed    calc.Feed
	binding *calc.Binding

	inbuf []byte

	// before is the state a token was applied to, for describing failed operations.
	before calc.State
	events []tapeEvent

	lastKey calc.Token
	message string
}

type tapeEvent struct {
	kind proto.TapeEntryKind
	line string
}

func New(disp hal.Display, ep, logCap, tapeCap kernel.Capability) *Task {
	t := &Task{
		disp:    disp,
		ep:      ep,
		logCap:  logCap,
		tapeCap: tapeCap,
		engine:  calc.NewEngine(),
	}
	t.engine.OnRecord(func(r calc.Record) {
		t.events = append(t.events, tapeEvent{kind: proto.TapeRecord, line: r.String()})
	})
	t.engine.OnError(func() {
		t.events = append(t.events, tapeEvent{kind: proto.TapeError, line: failedLine(t.before)})
	})
	return t
}

func (t *Task) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(t.ep)
	if !ok {
		return
	}
	t.initDisplay()

	for msg := range ch {
		switch proto.Kind(msg.Kind) {
		case proto.MsgAppShutdown:
			t.setActive(ctx, false)
			ctx.CloseEndpoint(t.ep)
			return

		case proto.MsgAppControl:
			if msg.Cap.Valid() {
				t.focusCap = msg.Cap
			}
			active, ok := proto.DecodeAppControlPayload(msg.Payload())
			if !ok {
				continue
			}
			t.setActive(ctx, active)

		case proto.MsgAppSelect:
			appID, arg, ok := proto.DecodeAppSelectPayload(msg.Payload())
			if !ok || appID != proto.AppCalc {
				continue
			}
			if arg != "" {
				t.runScript(ctx, arg)
			}
			t.render()

		case proto.MsgTermInput:
			if !t.active {
				continue
			}
			t.handleInput(ctx, msg.Payload())
			t.render()
		}
	}
}

func (t *Task) initDisplay() {
	if t.disp == nil {
		return
	}
	t.fb = t.disp.Framebuffer()
	if t.fb == nil {
		return
	}
	if !t.initFont() {
		t.fb = nil
		return
	}
	t.d = newFBDisplay(t.fb)
	t.cols = t.fb.Width() / int(t.fontWidth)
	t.rows = t.fb.Height() / int(t.fontHeight)
}

func (t *Task) setActive(ctx *kernel.Context, active bool) {
	if active == t.active {
		return
	}
	t.active = active
	t.inbuf = t.inbuf[:0]

	if !active {
		if t.binding != nil {
			t.binding.Release()
			t.binding = nil
		}
		return
	}

	t.binding = calc.Attach(&t.feed, t.engine)
	t.message = ""
	t.render()
}

func (t *Task) handleInput(ctx *kernel.Context, b []byte) {
	t.inbuf = append(t.inbuf, b...)
	buf := t.inbuf

	for len(buf) > 0 {
		n, k, ok := nextKey(buf)
		if !ok {
			break
		}
		buf = buf[n:]

		t.handleKey(ctx, k)
		if !t.active {
			t.inbuf = t.inbuf[:0]
			t.flushEvents(ctx)
			return
		}
	}

	t.inbuf = append(t.inbuf[:0], buf...)
	t.flushEvents(ctx)
}

func (t *Task) handleKey(ctx *kernel.Context, k key) {
	if k.kind == keyTab {
		t.requestApp(ctx, proto.AppTape)
		return
	}
	tok, ok := tokenForKey(k)
	if !ok {
		if k.kind == keyRune {
			t.message = "unknown key " + string(k.r)
		}
		return
	}
	t.message = ""
	t.press(tok)
}

// press sends tok through the keyboard binding. It is dropped when the task holds no binding.
func (t *Task) press(tok calc.Token) {
	t.before = t.engine.State()
	if t.feed.Emit(tok) {
		t.lastKey = tok
	}
}

// runScript applies a key script directly to the engine, bypassing the keyboard binding.
func (t *Task) runScript(ctx *kernel.Context, script string) {
	toks, err := calc.ParseKeys(script)
	if err != nil {
		t.message = "bad script"
		if t.logCap.Valid() {
			_ = logclient.Logf(ctx, t.logCap, "calc: script: %v", err)
		}
		return
	}
	for _, tok := range toks {
		t.before = t.engine.State()
		t.engine.Press(tok)
		t.lastKey = tok
	}
	t.flushEvents(ctx)
	if t.logCap.Valid() {
		_ = logclient.Logf(ctx, t.logCap, "calc: display %s", t.engine.Display())
	}
}

func (t *Task) requestApp(ctx *kernel.Context, id proto.AppID) {
	if !t.focusCap.Valid() {
		return
	}
	_ = ctx.SendToCapRetry(t.focusCap, uint16(proto.MsgAppSelect), proto.AppSelectPayload(id, ""), kernel.Capability{}, 0)
}

// flushEvents delivers pending tape lines. Both destinations are best-effort.
func (t *Task) flushEvents(ctx *kernel.Context) {
	for _, ev := range t.events {
		if t.tapeCap.Valid() {
			_ = ctx.SendToCapRetry(t.tapeCap, uint16(proto.MsgTapeRecord), proto.TapeRecordPayload(ev.kind, ev.line, kernel.MaxMessageBytes), kernel.Capability{}, tapeRetryTicks)
		}
		if t.logCap.Valid() {
			_ = logclient.Log(ctx, t.logCap, "calc: "+ev.line)
		}
	}
	t.events = t.events[:0]
}

const tapeRetryTicks = 50

func failedLine(s calc.State) string {
	if s.PendingOperator == calc.OpNone {
		return calc.ErrorDisplay
	}
	return s.PendingOperand + " " + s.PendingOperator.String() + " " + s.Display + " = " + calc.ErrorDisplay
}
