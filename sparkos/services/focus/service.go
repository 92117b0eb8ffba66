package focus

import (
	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const interruptByte = 0x07 // Ctrl+G

// sendRetryTicks bounds how long a full app queue may hold up input routing.
const sendRetryTicks = 1000

// Service owns the keyboard and routes input to exactly one foreground app.
//
// Switching apps deactivates the old one before the new one is activated, so two apps never
// hold the keyboard at the same time. The newly active app receives ctlCap in its
// MsgAppControl message and may use it to ask for a switch.
type Service struct {
	inCap  kernel.Capability
	ctlCap kernel.Capability
	logCap kernel.Capability

	calcCap kernel.Capability
	tapeCap kernel.Capability

	active proto.AppID
}

func New(inCap, ctlCap, logCap, calcCap, tapeCap kernel.Capability, start proto.AppID) *Service {
	if start == proto.AppNone {
		start = proto.AppCalc
	}
	return &Service{
		inCap:   inCap,
		ctlCap:  ctlCap,
		logCap:  logCap,
		calcCap: calcCap,
		tapeCap: tapeCap,
		active:  start,
	}
}

func (s *Service) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(s.inCap)
	if !ok {
		return
	}

	start := s.active
	s.active = proto.AppNone
	s.switchTo(ctx, start)

	for msg := range ch {
		switch proto.Kind(msg.Kind) {
		case proto.MsgTermInput:
			s.handleInput(ctx, msg.Payload())
		case proto.MsgAppSelect:
			id, _, ok := proto.DecodeAppSelectPayload(msg.Payload())
			if !ok {
				continue
			}
			s.switchTo(ctx, id)
		case proto.MsgAppShutdown:
			s.shutdown(ctx)
			ctx.CloseEndpoint(s.inCap)
			return
		}
	}
}

func (s *Service) handleInput(ctx *kernel.Context, b []byte) {
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] != interruptByte {
			continue
		}
		s.flushInput(ctx, b[start:i])
		start = i + 1
		s.switchTo(ctx, s.next())
	}
	s.flushInput(ctx, b[start:])
}

func (s *Service) flushInput(ctx *kernel.Context, b []byte) {
	if len(b) == 0 {
		return
	}
	_ = s.send(ctx, s.appCapByID(s.active), proto.MsgTermInput, b, kernel.Capability{})
}

func (s *Service) next() proto.AppID {
	if s.active == proto.AppCalc {
		return proto.AppTape
	}
	return proto.AppCalc
}

func (s *Service) switchTo(ctx *kernel.Context, id proto.AppID) {
	if id == s.active {
		return
	}
	appCap := s.appCapByID(id)
	if !appCap.Valid() {
		return
	}

	if old := s.appCapByID(s.active); old.Valid() {
		_ = s.send(ctx, old, proto.MsgAppControl, proto.AppControlPayload(false), kernel.Capability{})
	}
	s.active = id

	var xfer kernel.Capability
	if s.ctlCap.Valid() {
		xfer = s.ctlCap
	}
	_ = s.send(ctx, appCap, proto.MsgAppControl, proto.AppControlPayload(true), xfer)

	if s.logCap.Valid() {
		_ = logclient.Logf(ctx, s.logCap, "focus: %s", id)
	}
}

func (s *Service) shutdown(ctx *kernel.Context) {
	for _, c := range []kernel.Capability{s.calcCap, s.tapeCap} {
		_ = s.send(ctx, c, proto.MsgAppShutdown, nil, kernel.Capability{})
	}
	s.active = proto.AppNone
}

func (s *Service) appCapByID(id proto.AppID) kernel.Capability {
	switch id {
	case proto.AppCalc:
		return s.calcCap
	case proto.AppTape:
		return s.tapeCap
	default:
		return kernel.Capability{}
	}
}

func (s *Service) send(ctx *kernel.Context, toCap kernel.Capability, kind proto.Kind, payload []byte, xfer kernel.Capability) kernel.SendResult {
	if !toCap.Valid() {
		return kernel.SendErrInvalidToCap
	}
	if len(payload) == 0 {
		return ctx.SendToCapRetry(toCap, uint16(kind), nil, xfer, sendRetryTicks)
	}
	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > kernel.MaxMessageBytes {
			chunk = chunk[:kernel.MaxMessageBytes]
		}
		if res := ctx.SendToCapRetry(toCap, uint16(kind), chunk, xfer, sendRetryTicks); res != kernel.SendOK {
			return res
		}
		payload = payload[len(chunk):]
	}
	return kernel.SendOK
}
