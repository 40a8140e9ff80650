// Package hardlimit implements the hard-limit watcher of spec.md 4.2: a
// pin-change triggered check that raises an immediate alarm if a limit
// switch engages outside of a homing cycle. It is grounded on
// original_source/grbl/limits.c's limit pin-change ISR, which calls
// mc_reset() and sets EXEC_ALARM_HARD_LIMIT as soon as it sees any
// switch engaged while not homing.
package hardlimit

import (
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/pinio"
	"tinygo.org/x/cncmotion/settings"
)

// DefaultDebounceMs is the recheck delay used when DebounceRecheck is
// set but Watcher.DebounceDelayMs is left zero.
const DefaultDebounceMs uint16 = 40

// Watcher samples limit-switch state and raises machinestate.AlarmHardLimit
// when a switch is found engaged outside of a homing cycle. Call Check
// from whatever pin-change notification a board's Pin implementations
// provide; it is safe to call speculatively (e.g. on every stepper
// interrupt) since it is a no-op when hard limits are disabled or the
// machine is homing.
type Watcher struct {
	State    *machinestate.State
	Pins     pinio.Config
	Settings *settings.Settings

	// DebounceRecheck replaces the source's compile-time
	// HARD_LIMIT_FORCE_STATE_CHECK toggle: when true, a triggered read
	// is re-sampled once after DebounceDelayMs before the alarm is
	// raised, to ride out switch bounce.
	DebounceRecheck bool
	DebounceDelayMs uint16

	// Sleep pauses for approximately ms milliseconds. Required only
	// when DebounceRecheck is true.
	Sleep func(ms uint16)
}

// Check samples the wired limit pins once and raises an alarm if any
// configured axis reads engaged.
func (w *Watcher) Check() {
	if !w.Settings.Flags.Has(settings.FlagHardLimitEnable) {
		return
	}
	switch w.State.Run() {
	case machinestate.StateHoming, machinestate.StateAlarm:
		return
	}

	invert := w.Settings.Flags.Has(settings.FlagInvertLimitPins)
	state := pinio.LimitState(w.Pins, invert)
	if state == 0 {
		return
	}

	if w.DebounceRecheck {
		delay := w.DebounceDelayMs
		if delay == 0 {
			delay = DefaultDebounceMs
		}
		if w.Sleep != nil {
			w.Sleep(delay)
		}
		state = pinio.LimitState(w.Pins, invert)
		if state == 0 {
			return
		}
	}

	w.State.RaiseAlarm(machinestate.AlarmHardLimit)
}
