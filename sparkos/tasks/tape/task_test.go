package tape

import (
	"fmt"
	"testing"
	"time"

	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type memFramebuffer struct {
	w, h     int
	buf      []byte
	presents int
}

func newMemFramebuffer(w, h int) *memFramebuffer {
	return &memFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *memFramebuffer) Width() int                   { return f.w }
func (f *memFramebuffer) Height() int                  { return f.h }
func (f *memFramebuffer) Format() hal.PixelFormat      { return hal.PixelFormatRGB565 }
func (f *memFramebuffer) StrideBytes() int             { return f.w * 2 }
func (f *memFramebuffer) Buffer() []byte               { return f.buf }
func (f *memFramebuffer) Present() error               { f.presents++; return nil }
func (f *memFramebuffer) Framebuffer() hal.Framebuffer { return f }

func (f *memFramebuffer) ClearRGB(r, g, b uint8) {
	for i := range f.buf {
		f.buf[i] = 0
	}
}

func (f *memFramebuffer) lit() int {
	n := 0
	for _, b := range f.buf {
		if b != 0 {
			n++
		}
	}
	return n
}

func TestTapeKeepsLastLines(t *testing.T) {
	tk := New(nil, kernel.Capability{}, kernel.Capability{})
	for i := 1; i <= MaxLines+6; i++ {
		tk.add(proto.TapeRecord, fmt.Sprintf("%d + 0 = %d", i, i))
	}

	lines := tk.Lines()
	if len(lines) != MaxLines {
		t.Fatalf("expected %d lines, got %d", MaxLines, len(lines))
	}
	if lines[0] != "  7  7 + 0 = 7" {
		t.Fatalf("unexpected oldest line %q", lines[0])
	}
	if want := fmt.Sprintf("%3d  %d + 0 = %d", MaxLines+6, MaxLines+6, MaxLines+6); lines[len(lines)-1] != want {
		t.Fatalf("unexpected newest line %q, want %q", lines[len(lines)-1], want)
	}
}

func TestTapeClearKey(t *testing.T) {
	tk := New(nil, kernel.Capability{}, kernel.Capability{})
	tk.add(proto.TapeRecord, "1 + 1 = 2")
	tk.setActive(true)

	tk.handleInput(nil, []byte("xc"))
	if n := len(tk.Lines()); n != 0 {
		t.Fatalf("expected empty tape, got %d lines", n)
	}

	tk.add(proto.TapeError, "8 / 0 = Error")
	if got := tk.Lines(); len(got) != 1 || got[0] != "  1  8 / 0 = Error" {
		t.Fatalf("unexpected lines after clear: %q", got)
	}
}

func TestTapeDrawsOnlyWhileActive(t *testing.T) {
	fb := newMemFramebuffer(320, 320)
	tk := New(fb, kernel.Capability{}, kernel.Capability{})
	tk.fb = fb
	tk.d = newFBDisplay(fb)

	tk.add(proto.TapeRecord, "2 + 2 = 4")
	if fb.lit() != 0 || fb.presents != 0 {
		t.Fatal("inactive tape must not draw")
	}

	tk.setActive(true)
	if fb.lit() == 0 || fb.presents == 0 {
		t.Fatal("expected tape to draw when activated")
	}

	// Enough lines to force software scrolling.
	for i := 0; i < 50; i++ {
		tk.add(proto.TapeRecord, "1 * 1 = 1")
	}
	tk.add(proto.TapeError, "1 / 0 = Error")
	if fb.lit() == 0 {
		t.Fatal("expected pixels after scrolling")
	}
}

type sendReq struct {
	kind    proto.Kind
	payload []byte
	xfer    kernel.Capability
	done    chan<- kernel.SendResult
}

type senderTask struct {
	to   kernel.Capability
	reqs <-chan sendReq
}

func (t *senderTask) Run(ctx *kernel.Context) {
	for req := range t.reqs {
		req.done <- ctx.SendToCapResult(t.to, uint16(req.kind), req.payload, req.xfer)
	}
}

type recvTask struct {
	cap kernel.Capability
	out chan<- kernel.Message
}

func (t *recvTask) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(t.cap)
	if !ok {
		return
	}
	for msg := range ch {
		t.out <- msg
	}
}

func TestTapeTabRequestsCalc(t *testing.T) {
	k := kernel.New()
	tapeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	focusEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	k.AddTask(New(nil, tapeEP.Restrict(kernel.RightRecv), kernel.Capability{}))

	focusOut := make(chan kernel.Message, 4)
	k.AddTask(&recvTask{cap: focusEP.Restrict(kernel.RightRecv), out: focusOut})

	reqs := make(chan sendReq, 4)
	k.AddTask(&senderTask{to: tapeEP.Restrict(kernel.RightSend), reqs: reqs})

	send := func(kind proto.Kind, payload []byte, xfer kernel.Capability) {
		done := make(chan kernel.SendResult, 1)
		reqs <- sendReq{kind: kind, payload: payload, xfer: xfer, done: done}
		select {
		case res := <-done:
			if res != kernel.SendOK {
				t.Fatalf("send %s: %s", kind, res)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out sending")
		}
	}

	// Input before activation is ignored.
	send(proto.MsgTermInput, []byte("\t"), kernel.Capability{})
	send(proto.MsgAppControl, proto.AppControlPayload(true), focusEP.Restrict(kernel.RightSend))
	send(proto.MsgTermInput, []byte("\t"), kernel.Capability{})

	select {
	case msg := <-focusOut:
		id, _, ok := proto.DecodeAppSelectPayload(msg.Payload())
		if proto.Kind(msg.Kind) != proto.MsgAppSelect || !ok || id != proto.AppCalc {
			t.Fatalf("unexpected message %s id=%s", proto.Kind(msg.Kind), id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for app select")
	}

	select {
	case msg := <-focusOut:
		t.Fatalf("unexpected extra message %s", proto.Kind(msg.Kind))
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTapeRepliesToBadRecord(t *testing.T) {
	k := kernel.New()
	tapeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	replyEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	k.AddTask(New(nil, tapeEP.Restrict(kernel.RightRecv), kernel.Capability{}))

	replies := make(chan kernel.Message, 4)
	k.AddTask(&recvTask{cap: replyEP.Restrict(kernel.RightRecv), out: replies})

	reqs := make(chan sendReq, 4)
	k.AddTask(&senderTask{to: tapeEP.Restrict(kernel.RightSend), reqs: reqs})

	done := make(chan kernel.SendResult, 1)
	reqs <- sendReq{kind: proto.MsgTapeRecord, payload: []byte{0xEE, 'x'}, xfer: replyEP.Restrict(kernel.RightSend), done: done}
	if res := <-done; res != kernel.SendOK {
		t.Fatalf("send: %s", res)
	}

	select {
	case msg := <-replies:
		code, ref, _, ok := proto.DecodeErrorPayload(msg.Payload())
		if proto.Kind(msg.Kind) != proto.MsgError || !ok || code != proto.ErrBadMessage || ref != proto.MsgTapeRecord {
			t.Fatalf("unexpected reply %s code=%s ref=%s", proto.Kind(msg.Kind), code, ref)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error reply")
	}
}

func TestTapeClosesEndpointOnShutdown(t *testing.T) {
	k := kernel.New()
	tapeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	k.AddTask(New(nil, tapeEP.Restrict(kernel.RightRecv), kernel.Capability{}))

	reqs := make(chan sendReq, 4)
	k.AddTask(&senderTask{to: tapeEP.Restrict(kernel.RightSend), reqs: reqs})

	kind := proto.MsgAppShutdown
	deadline := time.Now().Add(time.Second)
	for {
		done := make(chan kernel.SendResult, 1)
		reqs <- sendReq{kind: kind, done: done}
		res := <-done
		if res == kernel.SendErrNoEndpoint {
			return
		}
		if res != kernel.SendOK || time.Now().After(deadline) {
			t.Fatalf("expected endpoint closed after shutdown, last send %s", res)
		}
		kind = proto.MsgTapeRecord
		time.Sleep(time.Millisecond)
	}
}
