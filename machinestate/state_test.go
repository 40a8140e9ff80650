package machinestate

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

type recordingObserver struct {
	states  []RunState
	alarms  []AlarmCode
	homed   []uint8
}

func (r *recordingObserver) OnStateChange(old, new RunState) { r.states = append(r.states, new) }
func (r *recordingObserver) OnAlarm(code AlarmCode)          { r.alarms = append(r.alarms, code) }
func (r *recordingObserver) OnHomingComplete(mask uint8)     { r.homed = append(r.homed, mask) }

func TestStateTransitionsNotifyObservers(t *testing.T) {
	c := qt.New(t)
	var s State
	obs := &recordingObserver{}
	s.AddObserver(obs)

	c.Assert(s.Run(), qt.Equals, StateIdle)
	s.SetRun(StateHoming)
	c.Assert(s.Run(), qt.Equals, StateHoming)
	s.RaiseAlarm(AlarmHomingFailApproach)
	c.Assert(s.Run(), qt.Equals, StateAlarm)
	c.Assert(s.Alarm(), qt.Equals, AlarmHomingFailApproach)

	s.NotifyHomingComplete(0x07)

	c.Assert(obs.states, qt.DeepEquals, []RunState{StateHoming, StateAlarm})
	c.Assert(obs.alarms, qt.DeepEquals, []AlarmCode{AlarmHomingFailApproach})
	c.Assert(obs.homed, qt.DeepEquals, []uint8{0x07})

	s.ClearAlarm()
	c.Assert(s.Alarm(), qt.Equals, AlarmNone)
}

func TestRealtimeFlags(t *testing.T) {
	c := qt.New(t)
	var s State
	c.Assert(s.HasFlag(FlagReset), qt.IsFalse)
	s.SetFlag(FlagReset)
	s.SetFlag(FlagCycleStop)
	c.Assert(s.HasFlag(FlagReset), qt.IsTrue)
	c.Assert(s.HasFlag(FlagCycleStop), qt.IsTrue)
	c.Assert(s.HasFlag(FlagSafetyDoor), qt.IsFalse)
	s.ClearFlag(FlagReset)
	c.Assert(s.HasFlag(FlagReset), qt.IsFalse)
	c.Assert(s.HasFlag(FlagCycleStop), qt.IsTrue)
}
