package termkbd

import (
	"testing"
	"time"

	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

type fakeKeyboard struct{ ch chan hal.KeyEvent }

func (k *fakeKeyboard) Events() <-chan hal.KeyEvent { return k.ch }

type fakeInput struct{ kbd *fakeKeyboard }

func (i *fakeInput) Keyboard() hal.Keyboard { return i.kbd }

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

func recvInput(t *testing.T, ch <-chan kernel.Message) string {
	t.Helper()
	select {
	case msg := <-ch:
		if proto.Kind(msg.Kind) != proto.MsgTermInput {
			t.Fatalf("expected MsgTermInput, got %s", proto.Kind(msg.Kind))
		}
		return string(msg.Payload())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for input")
		return ""
	}
}

func TestVT100FromKey(t *testing.T) {
	tests := []struct {
		ev   hal.KeyEvent
		want string
	}{
		{hal.KeyEvent{Press: true, Rune: '7'}, "7"},
		{hal.KeyEvent{Press: true, Rune: 0x07}, "\x07"},
		{hal.KeyEvent{Press: true, Code: hal.KeyEnter}, "\n"},
		{hal.KeyEvent{Press: true, Code: hal.KeyEscape}, "\x1b"},
		{hal.KeyEvent{Press: true, Code: hal.KeyBackspace}, "\x7f"},
		{hal.KeyEvent{Press: true, Code: hal.KeyDelete}, "\x1b[3~"},
		{hal.KeyEvent{Press: true, Code: hal.KeyF1}, ""},
	}
	for _, tt := range tests {
		if got := string(vt100FromKey(tt.ev)); got != tt.want {
			t.Fatalf("vt100FromKey(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestServiceForwardsAndRepeats(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	kbd := &fakeKeyboard{ch: make(chan hal.KeyEvent, 8)}
	k.AddTask(New(&fakeInput{kbd: kbd}, ep.Restrict(kernel.RightSend)))

	out := make(chan kernel.Message, 16)
	k.AddTask(&recvTask{cap: ep.Restrict(kernel.RightRecv), out: out})

	kbd.ch <- hal.KeyEvent{Press: true, Rune: '4'}
	if got := recvInput(t, out); got != "4" {
		t.Fatalf("expected %q, got %q", "4", got)
	}

	kbd.ch <- hal.KeyEvent{Press: true, Code: hal.KeyBackspace}
	if got := recvInput(t, out); got != "\x7f" {
		t.Fatalf("expected backspace, got %q", got)
	}

	k.TickTo(repeatDelayTicks + 1)
	if got := recvInput(t, out); got != "\x7f" {
		t.Fatalf("expected repeated backspace, got %q", got)
	}

	kbd.ch <- hal.KeyEvent{Press: false, Code: hal.KeyBackspace}
	kbd.ch <- hal.KeyEvent{Press: true, Rune: '='}
	if got := recvInput(t, out); got != "=" {
		t.Fatalf("expected %q after release, got %q", "=", got)
	}
}

func TestServiceShutsDownWhenKeyboardCloses(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	kbd := &fakeKeyboard{ch: make(chan hal.KeyEvent, 8)}
	k.AddTask(New(&fakeInput{kbd: kbd}, ep.Restrict(kernel.RightSend)))

	out := make(chan kernel.Message, 16)
	k.AddTask(&recvTask{cap: ep.Restrict(kernel.RightRecv), out: out})

	kbd.ch <- hal.KeyEvent{Press: true, Rune: '7'}
	close(kbd.ch)

	if got := recvInput(t, out); got != "7" {
		t.Fatalf("expected %q, got %q", "7", got)
	}
	select {
	case msg := <-out:
		if proto.Kind(msg.Kind) != proto.MsgAppShutdown {
			t.Fatalf("expected MsgAppShutdown, got %s", proto.Kind(msg.Kind))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown")
	}
}
