// Package pinio abstracts the digital inputs a homing/limit system reads
// and normalizes them into the engaged/not-engaged bitmask the rest of
// this module consumes. It replaces the compile-time MIN_LIMIT_PIN(n)/
// MAX_LIMIT_PIN(n) macro pairs with a runtime table of optional bindings,
// so an axis with no wired max switch simply carries a nil Pin instead of
// needing its own preprocessor branch.
package pinio

import "tinygo.org/x/cncmotion/axis"

// Pin is the minimal digital input this package needs. It is satisfied
// directly by machine.Pin on a real board and by a trivial fake in
// tests.
type Pin interface {
	Get() bool
}

// Configurable is implemented by Pin values that need explicit input
// setup (direction, pull resistor). Pins that are already configured by
// their owner (or that are test fakes) may simply not implement it.
type Configurable interface {
	Configure(pullUp bool)
}

// Config describes one machine's limit-switch wiring. Min and Max are
// indexed by axis; a nil entry means "no switch wired for this axis on
// this set" and always samples as not engaged, which is how this
// package models the source's compile-time absence of MAX_LIMIT_PIN(n).
type Config struct {
	NAxis int
	Min   [axis.MaxAxes]Pin
	Max   [axis.MaxAxes]Pin

	// InvertMinMask/InvertMaxMask are the per-set invert masks from
	// spec.md 4.1, applied after the fixed normally-high-with-pull-up
	// inversion.
	InvertMinMask uint8
	InvertMaxMask uint8

	// PullUp selects internal pull-up vs external pull-down wiring at
	// Init time. It does not change the read-time inversion logic
	// (grbl's DISABLE_LIMIT_PIN_PULL_UP only changes the idle port
	// state written at init, not limits_get_state's logic); boards
	// wired for external pull-downs instead invert the relevant bit in
	// InvertMinMask/InvertMaxMask.
	PullUp bool
}

// Init configures every wired pin as an input with the selected pull
// resistor. Call it once at startup and again from Reinit whenever the
// hard-limit-enable setting is toggled (spec.md 4.1).
func Init(cfg Config) {
	Reinit(cfg)
}

// Reinit re-applies Configure to every wired pin. It is the runtime
// stand-in for grbl's practice of calling limits_init() again whenever
// $21 (hard limit enable) changes.
func Reinit(cfg Config) {
	for i := 0; i < cfg.NAxis; i++ {
		if p, ok := cfg.Min[i].(Configurable); ok && cfg.Min[i] != nil {
			p.Configure(cfg.PullUp)
		}
		if p, ok := cfg.Max[i].(Configurable); ok && cfg.Max[i] != nil {
			p.Configure(cfg.PullUp)
		}
	}
}

func engaged(p Pin, invertBit bool) bool {
	if p == nil {
		return false
	}
	e := !p.Get() // normally-high-with-pull-up: not engaged reads high
	if invertBit {
		e = !e
	}
	return e
}

// LimitState samples every wired pin and returns the per-axis engaged
// bitmask, applying the dual-set combination rule from spec.md 4.1.
// invertGlobal is settings.FlagInvertLimitPins; it is passed as a bool
// rather than the raw settings flags byte to keep this package free of
// a dependency on the settings package.
func LimitState(cfg Config, invertGlobal bool) uint8 {
	var min, max uint8
	for i := 0; i < cfg.NAxis; i++ {
		if engaged(cfg.Min[i], cfg.InvertMinMask&axis.MinLimitMask(i) != 0) {
			min |= axis.MinLimitMask(i)
		}
		if engaged(cfg.Max[i], cfg.InvertMaxMask&axis.MaxLimitMask(i) != 0) {
			max |= axis.MaxLimitMask(i)
		}
	}
	if invertGlobal {
		return ^((max & min) | axis.UnusedMask(cfg.NAxis))
	}
	return max | min
}
