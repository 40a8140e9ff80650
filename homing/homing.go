// Package homing implements the homing-cycle state machine of spec.md
// 4.4: repeated seek/locate/pull-off sub-cycles against one or more
// axes at once, axis-lock bookkeeping so only the axes named in a
// cycle step, and the realtime-flag supervision (reset, safety door,
// cycle stop) that can abort a cycle mid-flight. It is grounded on
// original_source/grbl/limits.c's limits_go_home(), translated from its
// do/while loop with inline globals into an Engine holding explicit
// collaborators.
package homing

import (
	"github.com/orsinium-labs/tinymath"

	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/corexy"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/pinio"
	"tinygo.org/x/cncmotion/planner"
	"tinygo.org/x/cncmotion/settings"
	"tinygo.org/x/cncmotion/stepper"
)

const (
	// homingAxisSearchScalar multiplies the configured max travel to
	// get the first, fast seek sub-cycle's travel budget.
	homingAxisSearchScalar = 1.5
	// homingAxisLocateScalar multiplies pull-off distance to get the
	// shortened travel budget of a locate (slow re-approach) sub-cycle.
	homingAxisLocateScalar = 5.0
)

// CustomError is a leaf error type for the handful of precondition and
// outcome failures GoHome can report without going through
// machinestate's alarm channel.
type CustomError string

func (e CustomError) Error() string { return string(e) }

// ErrAborted is returned if a reset is already pending when GoHome is
// called.
const ErrAborted = CustomError("homing: reset pending, cycle not started")

// Engine runs homing cycles against a shared machine state, settings,
// limit-pin wiring, and the planner/stepper collaborators it drives
// directly while a cycle is in progress.
type Engine struct {
	State    *machinestate.State
	Pins     pinio.Config
	Settings *settings.Settings
	Planner  planner.Planner
	Stepper  stepper.Stepper

	// NLocate is N_HOMING_LOCATE_CYCLE: how many extra slow
	// seek/pull-off passes follow the first fast seek. 1 is typical.
	NLocate int

	// CoreXY routes axis.Axis1/axis.Axis2 through the corexy package's
	// virtual-axis decomposition instead of treating them as ordinary
	// independent axes.
	CoreXY bool

	// ForceSetOrigin, when true, commits the homed position as exactly
	// zero rather than one pull-off distance in from the switch side
	// (-pull-off, or max travel + pull-off when the axis's
	// HomingDirMask bit is set) (a machine-wide convention fixed at build time in
	// the source; exposed here as a field instead).
	ForceSetOrigin bool

	// Sleep pauses for approximately ms milliseconds between
	// sub-cycles, matching homing_debounce_delay. Tests substitute a
	// no-op or counting stub; nil is only valid if HomingDebounceDelay
	// is always zero.
	Sleep func(ms uint16)
}

// GoHome runs a full homing cycle against the axes set in cycleMask (one
// bit per axis index). It blocks until the cycle completes, fails, or is
// aborted by a realtime flag.
func (e *Engine) GoHome(cycleMask uint8) error {
	st := e.State
	s := e.Settings
	nAxis := s.NAxis

	if st.HasFlag(machinestate.FlagReset) {
		return ErrAborted
	}

	stepPinMask := make([]uint8, nAxis)
	for i := 0; i < nAxis; i++ {
		if e.CoreXY {
			stepPinMask[i] = corexy.StepMask(i)
		} else {
			stepPinMask[i] = axis.StepMask(i)
		}
	}

	var maxTravelSearch float32
	for i := 0; i < nAxis; i++ {
		if cycleMask&(1<<uint(i)) == 0 {
			continue
		}
		t := homingAxisSearchScalar * (-s.MaxTravel[i])
		if t > maxTravelSearch {
			maxTravelSearch = t
		}
	}
	if maxTravelSearch < homingAxisLocateScalar {
		st.RaiseAlarm(machinestate.AlarmHomingFailTravel)
		return CustomError("homing: configured travel too small for a locate cycle")
	}

	st.SetRun(machinestate.StateHoming)
	e.Stepper.SetControl(stepper.ControlExecuteSysMotion)

	approach := true
	homingRate := s.HomingSeekRate
	maxTravel := maxTravelSearch
	nCycle := 2*e.NLocate + 1

	for {
		finalPulloff := nCycle == 0

		target := stepsToMM(st.Position, s)
		nActive := 0

		for i := 0; i < nAxis; i++ {
			if cycleMask&(1<<uint(i)) == 0 {
				st.AxisLock[i] = 0
				continue
			}
			nActive++
			if e.CoreXY && corexy.IsVirtualAxis(i) {
				corexy.DecomposeForHome(&st.Position, i)
			} else {
				st.Position[i] = 0
			}

			var axisOffset float32
			if finalPulloff && s.NAxis == 6 && s.EndstopAdj[i] > 0 {
				axisOffset = s.EndstopAdj[i]
			}

			dirInverted := s.HomingDirMask&(1<<uint(i)) != 0
			switch {
			case dirInverted && approach:
				target[i] = -maxTravel
			case dirInverted && !approach:
				target[i] = maxTravel + axisOffset
			case !dirInverted && approach:
				target[i] = maxTravel
			default:
				target[i] = -maxTravel - axisOffset
			}

			st.AxisLock[i] = stepPinMask[i]
		}

		rate := homingRate * tinymath.Sqrt(float32(nActive))
		e.Planner.BufferLine(target, planner.Data{
			FeedRate:   rate,
			LineNumber: planner.HomingCycleLineNumber,
			Condition:  planner.ConditionSystemMotion | planner.ConditionNoFeedOverride,
		})

		if err := e.superviseSubCycle(cycleMask, stepPinMask, approach); err != nil {
			e.Stepper.SetControl(stepper.ControlNormalOp)
			return err
		}

		e.Stepper.Reset()
		if e.Sleep != nil {
			e.Sleep(s.HomingDebounceDelay)
		}

		approach = !approach
		if approach {
			maxTravel = s.HomingPulloff * homingAxisLocateScalar
			homingRate = s.HomingFeedRate
		} else {
			maxTravel = s.HomingPulloff
			homingRate = s.HomingSeekRate
		}

		cont := nCycle > 0
		nCycle--
		if !cont {
			break
		}
	}

	for i := 0; i < nAxis; i++ {
		if cycleMask&(1<<uint(i)) == 0 {
			continue
		}
		var setPos int32
		switch {
		case e.ForceSetOrigin:
			setPos = 0
		case s.HomingDirMask&(1<<uint(i)) != 0:
			setPos = roundToSteps((s.MaxTravel[i] + s.HomingPulloff) * s.StepsPerMm[i])
		default:
			setPos = roundToSteps(-s.HomingPulloff * s.StepsPerMm[i])
		}
		if e.CoreXY && corexy.IsVirtualAxis(i) {
			corexy.Commit(&st.Position, i, setPos)
		} else {
			st.Position[i] = setPos
		}
	}

	e.Stepper.SetControl(stepper.ControlNormalOp)
	st.SetRun(machinestate.StateIdle)
	st.NotifyHomingComplete(cycleMask)
	return nil
}

// superviseSubCycle drives the stepper through one sub-cycle, clearing
// axisLock bits as limit switches trip during an approach, and watching
// for the realtime conditions that must abort the cycle. It returns nil
// once the sub-cycle completes (all locks cleared, or a clean pull-off
// observed after a cycle-stop request).
func (e *Engine) superviseSubCycle(cycleMask uint8, stepPinMask []uint8, approach bool) error {
	st := e.State
	s := e.Settings
	nAxis := s.NAxis

	for anyLocked(st.AxisLock[:nAxis]) {
		if approach {
			limitState := pinio.LimitState(e.Pins, s.Flags.Has(settings.FlagInvertLimitPins))
			for i := 0; i < nAxis; i++ {
				if cycleMask&(1<<uint(i)) == 0 {
					continue
				}
				if st.AxisLock[i]&stepPinMask[i] != 0 && limitState&(1<<uint(i)) != 0 {
					st.AxisLock[i] &^= stepPinMask[i]
				}
			}
		}
		e.Stepper.PrepBuffer()

		flags := st.Flags()
		if flags&(machinestate.FlagSafetyDoor|machinestate.FlagReset|machinestate.FlagCycleStop) == 0 {
			continue
		}

		alarm := machinestate.AlarmNone
		if flags&machinestate.FlagReset != 0 {
			alarm = machinestate.AlarmHomingFailReset
		}
		if flags&machinestate.FlagSafetyDoor != 0 {
			alarm = machinestate.AlarmHomingFailDoor
		}
		if !approach && pinio.LimitState(e.Pins, s.Flags.Has(settings.FlagInvertLimitPins))&cycleMask != 0 {
			alarm = machinestate.AlarmHomingFailPulloff
		}
		if approach && flags&machinestate.FlagCycleStop != 0 {
			alarm = machinestate.AlarmHomingFailApproach
		}

		if alarm != machinestate.AlarmNone {
			e.Stepper.Reset()
			st.RaiseAlarm(alarm)
			return CustomError("homing: aborted, see machinestate.State.Alarm()")
		}
		st.ClearFlag(machinestate.FlagCycleStop)
		return nil
	}
	return nil
}

func anyLocked(axisLock []uint8) bool {
	for _, l := range axisLock {
		if l != 0 {
			return true
		}
	}
	return false
}

func stepsToMM(pos [axis.MaxAxes]int32, s *settings.Settings) [axis.MaxAxes]float32 {
	var mm [axis.MaxAxes]float32
	for i := 0; i < s.NAxis; i++ {
		mm[i] = float32(pos[i]) / s.StepsPerMm[i]
	}
	return mm
}

// roundToSteps rounds mm*1 to the nearest integer, away from zero on a
// tie, matching the source's use of lround() when committing a homed
// position to step units.
func roundToSteps(v float32) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return int32(v - 0.5)
}
