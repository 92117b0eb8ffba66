//go:build tinygo

package main

import (
	"sparkcalc/app"
	"sparkcalc/hal"
	"sparkcalc/sparkos/proto"
)

func main() {
	app.RunWithConfig(hal.New(), app.Config{StartApp: proto.AppCalc})
}
