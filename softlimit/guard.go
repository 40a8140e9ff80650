// Package softlimit implements the soft-limit envelope guard of
// spec.md 4.3: before a program motion block is buffered, check its
// target against the configured travel envelope, and, on violation,
// request a feed hold, wait for motion to actually stop, then raise an
// alarm. It is grounded on original_source/grbl/limits.c's
// limits_soft_check(), which spins calling protocol_exec_rt_system()
// until sys.state drops out of STATE_CYCLE before alarming.
package softlimit

import (
	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/settings"
)

// CustomError is the leaf error type Check returns on a violation.
type CustomError string

func (e CustomError) Error() string { return string(e) }

// Guard checks planned motion against the configured soft-limit
// envelope. Homing moves bypass it by construction: the homing engine
// talks to planner.Planner directly and never routes through Guard.
type Guard struct {
	Settings *settings.Settings
	State    *machinestate.State

	// Yield is polled while waiting for an in-progress cycle to stop
	// after a feed hold is requested. It returns true to abandon the
	// wait immediately (e.g. a reset flag got asserted). nil is
	// equivalent to always returning false.
	Yield func() bool
}

// Check validates target (mm, one entry per configured axis) against
// the machine's travel envelope, per axis i:
// [MaxTravel[i]+HomingPulloff, -HomingPulloff] when HomingDirMask bit i
// is clear, and the mirrored interval otherwise — the workspace is
// shifted inward by the pull-off distance on the homed side, since the
// origin sits one pull-off short of the switch, not at the switch
// itself. It is a no-op when soft limits are disabled.
func (g *Guard) Check(target [axis.MaxAxes]float32) error {
	s := g.Settings
	if !s.Flags.Has(settings.FlagSoftLimitEnable) {
		return nil
	}

	violated := false
	for i := 0; i < s.NAxis; i++ {
		lo, hi := s.MaxTravel[i]+s.HomingPulloff, -s.HomingPulloff
		if s.HomingDirMask&(1<<uint(i)) != 0 {
			lo, hi = -hi, -lo
		}
		if target[i] > hi || target[i] < lo {
			violated = true
			break
		}
	}
	if !violated {
		return nil
	}

	g.waitForFeedHold()
	g.State.RaiseAlarm(machinestate.AlarmSoftLimit)
	return CustomError("softlimit: target position outside configured travel envelope")
}

func (g *Guard) waitForFeedHold() {
	st := g.State
	st.SetFlag(machinestate.FlagFeedHold)
	for st.Run() == machinestate.StateCycle {
		if g.Yield != nil && g.Yield() {
			return
		}
	}
}
