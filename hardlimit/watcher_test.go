package hardlimit

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/pinio"
	"tinygo.org/x/cncmotion/settings"
)

type fakePin struct{ high bool }

func (f *fakePin) Get() bool { return f.high }

func TestCheckIgnoredWhenDisabled(t *testing.T) {
	c := qt.New(t)
	s := settings.Defaults(3)
	s.Flags &^= settings.FlagHardLimitEnable
	st := &machinestate.State{}
	pin := &fakePin{high: false} // engaged
	pins := pinio.Config{NAxis: 3}
	pins.Max[0] = pin

	w := &Watcher{State: st, Pins: pins, Settings: &s}
	w.Check()
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmNone)
}

func TestCheckIgnoredWhileHoming(t *testing.T) {
	c := qt.New(t)
	s := settings.Defaults(3)
	st := &machinestate.State{}
	st.SetRun(machinestate.StateHoming)
	pin := &fakePin{high: false}
	pins := pinio.Config{NAxis: 3}
	pins.Max[0] = pin

	w := &Watcher{State: st, Pins: pins, Settings: &s}
	w.Check()
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmNone)
}

func TestCheckRaisesAlarm(t *testing.T) {
	c := qt.New(t)
	s := settings.Defaults(3)
	st := &machinestate.State{}
	pin := &fakePin{high: false} // engaged
	pins := pinio.Config{NAxis: 3}
	pins.Max[axis.Axis2] = pin

	w := &Watcher{State: st, Pins: pins, Settings: &s}
	w.Check()
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmHardLimit)
	c.Assert(st.Run(), qt.Equals, machinestate.StateAlarm)
}

type countingObserver struct{ alarms int }

func (o *countingObserver) OnStateChange(old, new machinestate.RunState) {}
func (o *countingObserver) OnAlarm(code machinestate.AlarmCode)          { o.alarms++ }
func (o *countingObserver) OnHomingComplete(mask uint8)                  {}

func TestCheckIsNoOpOnceAlreadyAlarmed(t *testing.T) {
	c := qt.New(t)
	s := settings.Defaults(3)
	st := &machinestate.State{}
	obs := &countingObserver{}
	st.AddObserver(obs)
	st.RaiseAlarm(machinestate.AlarmSoftLimit) // some earlier, unrelated alarm latched

	pin := &fakePin{high: false} // engaged
	pins := pinio.Config{NAxis: 3}
	pins.Max[axis.Axis2] = pin

	w := &Watcher{State: st, Pins: pins, Settings: &s}
	w.Check()

	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmSoftLimit)
	c.Assert(obs.alarms, qt.Equals, 1) // only the original RaiseAlarm call, Check did not re-fire
}

func TestCheckDebounceRechecksBeforeAlarming(t *testing.T) {
	c := qt.New(t)
	s := settings.Defaults(3)
	st := &machinestate.State{}
	pin := &fakePin{high: false} // looks engaged on first sample
	pins := pinio.Config{NAxis: 3}
	pins.Max[0] = pin

	sleptCalls := 0
	w := &Watcher{
		State: st, Pins: pins, Settings: &s,
		DebounceRecheck: true,
		Sleep: func(ms uint16) {
			sleptCalls++
			pin.high = true // switch bounce clears before the recheck
		},
	}
	w.Check()
	c.Assert(sleptCalls, qt.Equals, 1)
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmNone)
}
