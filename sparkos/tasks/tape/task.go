package tape

import (
	"fmt"

	"sparkcalc/hal"
	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/fonts/font6x8"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"

	"tinygo.org/x/tinyterm"
)

// MaxLines is the number of tape entries kept in memory.
const MaxLines = 64

type entry struct {
	seq  int
	kind proto.TapeEntryKind
	text string
}

// Task is a paper-tape view of completed calculations. It collects MsgTapeRecord lines all
// the time and draws them through a tinyterm terminal while it has the foreground.
type Task struct {
	disp   hal.Display
	ep     kernel.Capability
	logCap kernel.Capability

	fb   hal.Framebuffer
	d    *fbDisplay
	term *tinyterm.Terminal

	active   bool
	focusCap kernel.Capability

	entries []entry
	seq     int
}

func New(disp hal.Display, ep, logCap kernel.Capability) *Task {
	return &Task{disp: disp, ep: ep, logCap: logCap}
}

func (t *Task) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(t.ep)
	if !ok {
		return
	}
	if t.disp != nil {
		t.fb = t.disp.Framebuffer()
	}
	if t.fb != nil {
		t.d = newFBDisplay(t.fb)
	}

	for msg := range ch {
		switch proto.Kind(msg.Kind) {
		case proto.MsgAppShutdown:
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
			t.setActive(active)

		case proto.MsgTapeRecord:
			kind, line, ok := proto.DecodeTapeRecordPayload(msg.Payload())
			if !ok {
				t.replyError(ctx, msg.Cap, proto.ErrBadMessage, proto.MsgTapeRecord)
				continue
			}
			t.add(kind, line)

		case proto.MsgTapeClear:
			t.clear(ctx)

		case proto.MsgTermInput:
			if !t.active {
				continue
			}
			t.handleInput(ctx, msg.Payload())
		}
	}
}

// replyError answers a bad request when the sender attached a reply capability.
func (t *Task) replyError(ctx *kernel.Context, reply kernel.Capability, code proto.ErrCode, ref proto.Kind) {
	if !reply.Valid() {
		return
	}
	_ = ctx.SendToCapRetry(reply, uint16(proto.MsgError), proto.ErrorPayload(code, ref, nil), kernel.Capability{}, 0)
}

func (t *Task) setActive(active bool) {
	if active == t.active {
		return
	}
	t.active = active
	if active {
		t.redraw()
	}
}

func (t *Task) handleInput(ctx *kernel.Context, b []byte) {
	for _, c := range b {
		switch c {
		case 'c', 'C':
			t.clear(ctx)
		case '\t':
			if t.focusCap.Valid() {
				_ = ctx.SendToCapRetry(t.focusCap, uint16(proto.MsgAppSelect), proto.AppSelectPayload(proto.AppCalc, ""), kernel.Capability{}, 0)
			}
		}
	}
}

func (t *Task) add(kind proto.TapeEntryKind, text string) {
	t.seq++
	e := entry{seq: t.seq, kind: kind, text: text}
	if len(t.entries) == MaxLines {
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:MaxLines-1]
	}
	t.entries = append(t.entries, e)

	if t.active && t.term != nil {
		t.writeEntry(e)
		t.term.Display()
	}
}

func (t *Task) clear(ctx *kernel.Context) {
	n := len(t.entries)
	t.entries = t.entries[:0]
	t.seq = 0
	if t.active {
		t.redraw()
	}
	if t.logCap.Valid() && ctx != nil {
		_ = logclient.Logf(ctx, t.logCap, "tape: cleared %d lines", n)
	}
}

// Lines returns the tape as printed, oldest first.
func (t *Task) Lines() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = formatEntry(e)
	}
	return out
}

func (t *Task) redraw() {
	if t.d == nil {
		return
	}
	t.fb.ClearRGB(0, 0, 0)
	t.term = tinyterm.NewTerminal(t.d)
	t.term.Configure(&tinyterm.Config{
		Font:              font6x8.New(),
		FontHeight:        font6x8.Height,
		FontOffset:        font6x8.Offset,
		UseSoftwareScroll: true,
	})

	_, _ = t.term.Write([]byte("\x1b[36mTape\x1b[0m  c clear | Tab calc\n"))
	for _, e := range t.entries {
		t.writeEntry(e)
	}
	t.term.Display()
}

func (t *Task) writeEntry(e entry) {
	line := formatEntry(e)
	if e.kind == proto.TapeError {
		line = "\x1b[31m" + line + "\x1b[0m"
	}
	_, _ = t.term.Write([]byte(line + "\n"))
}

func formatEntry(e entry) string {
	return fmt.Sprintf("%3d  %s", e.seq, e.text)
}
