//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sparkcalc/app"
	"sparkcalc/hal"
	"sparkcalc/sparkos/proto"
)

func main() {
	var cfg hal.HeadlessConfig
	var appCfg app.Config
	var startTape bool
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Tick rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&cfg.Script, "type", "", "Type keys into the keyboard in headless mode, e.g. '2+3{Enter}{Ctrl+G}'.")
	flag.StringVar(&appCfg.Script, "keys", "", "Press a key script into the calculator at boot, e.g. '12+7='.")
	flag.BoolVar(&startTape, "tape", false, "Start with the tape app focused.")
	flag.Parse()

	if startTape {
		appCfg.StartApp = proto.AppTape
	}

	newApp := func(h hal.HAL) func() error {
		return app.NewWithConfig(h, appCfg)
	}

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if err == context.Canceled {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
