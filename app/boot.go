//go:build !(tinygo && bootdebug)

package app

import "sparkcalc/hal"

func bootDiagStart(hal.HAL) {}

func bootScreen(hal.HAL, string) {}
