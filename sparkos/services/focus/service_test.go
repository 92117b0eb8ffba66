package focus

import (
	"testing"
	"time"

	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const testTimeout = 1 * time.Second

type sendReq struct {
	kind    proto.Kind
	payload []byte
	done    chan<- kernel.SendResult
}

type senderTask struct {
	to   kernel.Capability
	reqs <-chan sendReq
}

func (t *senderTask) Run(ctx *kernel.Context) {
	for req := range t.reqs {
		res := ctx.SendToCapResult(t.to, uint16(req.kind), req.payload, kernel.Capability{})
		req.done <- res
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

func recvWithTimeout[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for message")
		var zero T
		return zero
	}
}

func sendTo(t *testing.T, ch chan<- sendReq, kind proto.Kind, payload []byte) {
	t.Helper()
	done := make(chan kernel.SendResult, 1)
	ch <- sendReq{kind: kind, payload: payload, done: done}
	res := recvWithTimeout(t, done)
	if res != kernel.SendOK {
		t.Fatalf("send %s: %s", kind, res)
	}
}

func expectControl(t *testing.T, ch <-chan kernel.Message, wantActive bool, wantCap kernel.Capability) {
	t.Helper()
	msg := recvWithTimeout(t, ch)
	if proto.Kind(msg.Kind) != proto.MsgAppControl {
		t.Fatalf("expected MsgAppControl, got %s", proto.Kind(msg.Kind))
	}
	active, ok := proto.DecodeAppControlPayload(msg.Payload())
	if !ok || active != wantActive {
		t.Fatalf("expected active=%v, got active=%v ok=%v", wantActive, active, ok)
	}
	if msg.Cap != wantCap {
		t.Fatalf("unexpected capability transfer: valid=%v", msg.Cap.Valid())
	}
}

func expectInput(t *testing.T, ch <-chan kernel.Message, want string) {
	t.Helper()
	msg := recvWithTimeout(t, ch)
	if proto.Kind(msg.Kind) != proto.MsgTermInput {
		t.Fatalf("expected MsgTermInput, got %s", proto.Kind(msg.Kind))
	}
	if got := string(msg.Payload()); got != want {
		t.Fatalf("expected payload %q, got %q", want, got)
	}
}

func expectQuiet(t *testing.T, ch <-chan kernel.Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %s", proto.Kind(msg.Kind))
	case <-time.After(20 * time.Millisecond):
	}
}

type harness struct {
	ctl   kernel.Capability
	calc  <-chan kernel.Message
	tape  <-chan kernel.Message
	input chan<- sendReq
}

func newHarness(t *testing.T) harness {
	t.Helper()
	k := kernel.New()

	focusEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	calcEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	tapeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	ctl := focusEP.Restrict(kernel.RightSend)
	svc := New(
		focusEP.Restrict(kernel.RightRecv),
		ctl,
		kernel.Capability{},
		calcEP.Restrict(kernel.RightSend),
		tapeEP.Restrict(kernel.RightSend),
		proto.AppCalc,
	)
	k.AddTask(svc)

	calcOut := make(chan kernel.Message, 16)
	tapeOut := make(chan kernel.Message, 16)
	k.AddTask(&recvTask{cap: calcEP.Restrict(kernel.RightRecv), out: calcOut})
	k.AddTask(&recvTask{cap: tapeEP.Restrict(kernel.RightRecv), out: tapeOut})

	reqs := make(chan sendReq, 16)
	k.AddTask(&senderTask{to: ctl, reqs: reqs})

	return harness{ctl: ctl, calc: calcOut, tape: tapeOut, input: reqs}
}

func TestCtrlGSwitchesApps(t *testing.T) {
	h := newHarness(t)

	// The start app is activated and handed the control capability.
	expectControl(t, h.calc, true, h.ctl)

	sendTo(t, h.input, proto.MsgTermInput, []byte("12+"))
	expectInput(t, h.calc, "12+")
	expectQuiet(t, h.tape)

	// Ctrl+G: calc is deactivated before tape is activated; trailing bytes go to tape.
	sendTo(t, h.input, proto.MsgTermInput, []byte{'3', interruptByte, 'c'})
	expectInput(t, h.calc, "3")
	expectControl(t, h.calc, false, kernel.Capability{})
	expectControl(t, h.tape, true, h.ctl)
	expectInput(t, h.tape, "c")
	expectQuiet(t, h.calc)

	sendTo(t, h.input, proto.MsgTermInput, []byte{interruptByte})
	expectControl(t, h.tape, false, kernel.Capability{})
	expectControl(t, h.calc, true, h.ctl)
}

func TestAppSelect(t *testing.T) {
	h := newHarness(t)
	expectControl(t, h.calc, true, h.ctl)

	sendTo(t, h.input, proto.MsgAppSelect, proto.AppSelectPayload(proto.AppTape, ""))
	expectControl(t, h.calc, false, kernel.Capability{})
	expectControl(t, h.tape, true, h.ctl)

	// Selecting the active app is a no-op; unknown apps are ignored.
	sendTo(t, h.input, proto.MsgAppSelect, proto.AppSelectPayload(proto.AppTape, ""))
	sendTo(t, h.input, proto.MsgAppSelect, proto.AppSelectPayload(proto.AppID(9), ""))
	expectQuiet(t, h.tape)
	expectQuiet(t, h.calc)

	sendTo(t, h.input, proto.MsgTermInput, []byte("x"))
	expectInput(t, h.tape, "x")
}

func TestShutdownReachesBothApps(t *testing.T) {
	h := newHarness(t)
	expectControl(t, h.calc, true, h.ctl)

	sendTo(t, h.input, proto.MsgAppShutdown, nil)
	for _, ch := range []<-chan kernel.Message{h.calc, h.tape} {
		msg := recvWithTimeout(t, ch)
		if proto.Kind(msg.Kind) != proto.MsgAppShutdown {
			t.Fatalf("expected MsgAppShutdown, got %s", proto.Kind(msg.Kind))
		}
	}
	deadline := time.Now().Add(testTimeout)
	for {
		done := make(chan kernel.SendResult, 1)
		h.input <- sendReq{kind: proto.MsgTermInput, payload: []byte("1"), done: done}
		res := recvWithTimeout(t, done)
		if res == kernel.SendErrNoEndpoint {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected input endpoint closed after shutdown, last send %s", res)
		}
		time.Sleep(time.Millisecond)
	}
}
