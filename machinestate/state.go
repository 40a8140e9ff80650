// Package machinestate holds the process-wide mutable state spec.md
// Design Notes calls out as needing unmediated interrupt access:
// sys_position, homing_axis_lock, the realtime flag bitset, and the
// alarm register. They are collected into a single State object so the
// homing engine, the hard/soft-limit packages, and a board's interrupt
// handlers all share one reference instead of several free-floating
// globals.
//
// Position and AxisLock are plain fields: spec.md 5 requires they be
// mutated only by the foreground while the stepper is idle or executing
// a system motion that expects them to change, with no explicit lock —
// do not add a mutex around them, that would contradict the state
// discipline this type exists to document. RealtimeFlags and Alarm are
// the two fields interrupts write directly, so they are backed by
// sync/atomic (spec.md 5: "single-word stores; set by interrupts,
// cleared by the foreground").
package machinestate

import (
	"sync/atomic"

	"tinygo.org/x/cncmotion/axis"
)

// RunState mirrors grbl's sys.state enum.
type RunState uint32

const (
	StateIdle RunState = iota
	StateCycle
	StateHold
	StateHoming
	StateAlarm
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCycle:
		return "CYCLE"
	case StateHold:
		return "HOLD"
	case StateHoming:
		return "HOMING"
	case StateAlarm:
		return "ALARM"
	default:
		return "UNKNOWN"
	}
}

// RealtimeFlag is a bit in the realtime-exec flag register.
type RealtimeFlag uint32

const (
	FlagReset RealtimeFlag = 1 << iota
	FlagSafetyDoor
	FlagCycleStop
	FlagFeedHold
)

// AlarmCode is the single pending-alarm cause code.
type AlarmCode uint32

const (
	AlarmNone AlarmCode = iota
	AlarmHardLimit
	AlarmSoftLimit
	AlarmHomingFailReset
	AlarmHomingFailDoor
	AlarmHomingFailApproach
	AlarmHomingFailPulloff
	AlarmHomingFailTravel
)

func (a AlarmCode) String() string {
	switch a {
	case AlarmNone:
		return "NONE"
	case AlarmHardLimit:
		return "HARD_LIMIT"
	case AlarmSoftLimit:
		return "SOFT_LIMIT"
	case AlarmHomingFailReset:
		return "HOMING_FAIL_RESET"
	case AlarmHomingFailDoor:
		return "HOMING_FAIL_DOOR"
	case AlarmHomingFailApproach:
		return "HOMING_FAIL_APPROACH"
	case AlarmHomingFailPulloff:
		return "HOMING_FAIL_PULLOFF"
	case AlarmHomingFailTravel:
		return "HOMING_FAIL_TRAVEL"
	default:
		return "UNKNOWN"
	}
}

// Observer receives notifications of state transitions. It is optional:
// nothing in this module requires one to be attached. telemetry.MQTTPublisher
// implements it to forward events to a broker.
type Observer interface {
	OnStateChange(old, new RunState)
	OnAlarm(code AlarmCode)
	OnHomingComplete(cycleMask uint8)
}

// State is the shared machine state. The zero value is ready to use
// (Idle, no flags, no alarm, position and lock all zero).
type State struct {
	// Position is sys_position: the machine position in step units,
	// indexed by axis.
	Position [axis.MaxAxes]int32

	// AxisLock is homing_axis_lock: the per-axis step-pin permission
	// byte the stepper interrupt reads every pulse cycle. Only the
	// homing engine writes it; the stepper only reads it.
	AxisLock [axis.MaxAxes]uint8

	run   atomic.Uint32
	flags atomic.Uint32
	alarm atomic.Uint32

	observers []Observer
}

// AddObserver registers obs to receive future state-change, alarm, and
// homing-complete notifications.
func (s *State) AddObserver(obs Observer) {
	s.observers = append(s.observers, obs)
}

// Run returns the current run state.
func (s *State) Run() RunState {
	return RunState(s.run.Load())
}

// SetRun transitions the run state and notifies observers.
func (s *State) SetRun(r RunState) {
	old := RunState(s.run.Swap(uint32(r)))
	if old == r {
		return
	}
	for _, obs := range s.observers {
		obs.OnStateChange(old, r)
	}
}

// SetFlag raises f in the realtime flag register. Safe to call from an
// interrupt context.
func (s *State) SetFlag(f RealtimeFlag) {
	s.flags.Or(uint32(f))
}

// ClearFlag lowers f in the realtime flag register. Only the foreground
// clears flags.
func (s *State) ClearFlag(f RealtimeFlag) {
	s.flags.And(^uint32(f))
}

// HasFlag reports whether f is currently raised.
func (s *State) HasFlag(f RealtimeFlag) bool {
	return s.flags.Load()&uint32(f) != 0
}

// Flags returns the full realtime flag register.
func (s *State) Flags() RealtimeFlag {
	return RealtimeFlag(s.flags.Load())
}

// RaiseAlarm sets the pending alarm cause code, transitions to
// StateAlarm, and notifies observers. Safe to call from an interrupt
// context (the alarm register itself); the state transition and
// notification are expected to run on the foreground, matching
// spec.md 7's "system enters ALARM" language.
func (s *State) RaiseAlarm(code AlarmCode) {
	s.alarm.Store(uint32(code))
	s.SetRun(StateAlarm)
	for _, obs := range s.observers {
		obs.OnAlarm(code)
	}
}

// Alarm returns the pending alarm cause code, or AlarmNone.
func (s *State) Alarm() AlarmCode {
	return AlarmCode(s.alarm.Load())
}

// ClearAlarm clears the pending alarm register, e.g. after an unlock
// command or a successful homing retry.
func (s *State) ClearAlarm() {
	s.alarm.Store(uint32(AlarmNone))
}

// NotifyHomingComplete tells observers a homing cycle finished
// successfully for the given axis mask.
func (s *State) NotifyHomingComplete(cycleMask uint8) {
	for _, obs := range s.observers {
		obs.OnHomingComplete(cycleMask)
	}
}
