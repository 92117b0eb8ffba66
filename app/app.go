package app

import (
	"sparkcalc/hal"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
	"sparkcalc/sparkos/services/focus"
	"sparkcalc/sparkos/services/logger"
	"sparkcalc/sparkos/services/termkbd"
	"sparkcalc/sparkos/tasks/calculator"
	"sparkcalc/sparkos/tasks/tape"
)

type system struct {
	k *kernel.Kernel
}

// Config selects what the calculator system does at boot.
type Config struct {
	// StartApp is the app that owns the keyboard first. Zero means AppCalc.
	StartApp proto.AppID

	// Script is a key script pressed into the engine once the tasks are up.
	Script string
}

// New initializes and starts the OS with default config.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{})
}

// Run starts the OS and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, Config{})
}

// NewWithConfig initializes and starts the OS with cfg.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	_ = newSystem(h, cfg)
	return func() error { return nil }
}

// RunWithConfig starts the OS with cfg and blocks forever.
func RunWithConfig(h hal.HAL, cfg Config) {
	_ = NewWithConfig(h, cfg)
	select {}
}

func newSystem(h hal.HAL, cfg Config) *system {
	installPanicHandler(h)
	bootDiagStart(h)
	bootScreen(h, "kernel")

	if cfg.StartApp == proto.AppNone {
		cfg.StartApp = proto.AppCalc
	}

	k := kernel.New()

	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	focusEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	calcEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	tapeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	logSend := logEP.Restrict(kernel.RightSend)
	focusSend := focusEP.Restrict(kernel.RightSend)
	calcSend := calcEP.Restrict(kernel.RightSend)
	tapeSend := tapeEP.Restrict(kernel.RightSend)

	bootScreen(h, "tasks")
	k.AddTask(logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)))
	k.AddTask(calculator.New(h.Display(), calcEP.Restrict(kernel.RightRecv), logSend, tapeSend))
	k.AddTask(tape.New(h.Display(), tapeEP.Restrict(kernel.RightRecv), logSend))
	k.AddTask(focus.New(focusEP.Restrict(kernel.RightRecv), focusSend, logSend, calcSend, tapeSend, cfg.StartApp))
	k.AddTask(termkbd.New(h.Input(), focusSend))

	if cfg.Script != "" {
		k.AddTask(newScriptTask(cfg.Script, calcSend, logSend))
	}

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					k.TickTo(seq)
				}
			}()
		}
	}

	return &system{k: k}
}
