package homing

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/planner"
	"tinygo.org/x/cncmotion/settings"
	"tinygo.org/x/cncmotion/stepper"
)

type fakePin struct{ high bool }

func (f *fakePin) Get() bool { return f.high }

type plannerCall struct {
	target [axis.MaxAxes]float32
	data   planner.Data
}

type fakePlanner struct {
	calls []plannerCall
}

func (f *fakePlanner) BufferLine(target [axis.MaxAxes]float32, data planner.Data) error {
	f.calls = append(f.calls, plannerCall{target, data})
	return nil
}

// fakeStepper simulates a segment generator that completes every
// buffered homing move within a single PrepBuffer call: it clears the
// axis-lock bit for the axes under test directly (standing in for the
// real interrupt-driven step-count completion) and, if a limit pin is
// wired, engages it too so the approach-phase sampling path is
// exercised alongside the direct clear.
type fakeStepper struct {
	st      *machinestate.State
	axes    []int
	pin     *fakePin
	onPrep  func(calls int)
	prepN   int
	resetN  int
	control []stepper.Control
}

func (f *fakeStepper) PrepBuffer() {
	f.prepN++
	if f.onPrep != nil {
		f.onPrep(f.prepN)
	}
	if f.pin != nil {
		f.pin.high = false
	}
	for _, idx := range f.axes {
		f.st.AxisLock[idx] = 0
	}
}
func (f *fakeStepper) WakeUp() {}
func (f *fakeStepper) Reset()  { f.resetN++ }
func (f *fakeStepper) SetControl(c stepper.Control) { f.control = append(f.control, c) }

func baseSettings(nAxis int) *settings.Settings {
	s := &settings.Settings{NAxis: nAxis}
	s.HomingSeekRate = 500
	s.HomingFeedRate = 25
	s.HomingPulloff = 1
	for i := 0; i < nAxis; i++ {
		s.MaxTravel[i] = -200
		s.StepsPerMm[i] = 80
	}
	return s
}

func TestGoHomeSingleAxis(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	fp := &fakePlanner{}
	fs := &fakeStepper{st: st, axes: []int{2}}

	eng := &Engine{State: st, Settings: s, Planner: fp, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}

	err := eng.GoHome(1 << uint(axis.Axis3))
	c.Assert(err, qt.IsNil)
	c.Assert(st.Run(), qt.Equals, machinestate.StateIdle)
	c.Assert(st.AxisLock[2], qt.Equals, uint8(0))

	want := roundToSteps(-s.HomingPulloff * s.StepsPerMm[2])
	c.Assert(st.Position[2], qt.Equals, want)
	c.Assert(len(fp.calls) > 0, qt.IsTrue)
	c.Assert(fs.resetN > 0, qt.IsTrue)
}

func TestGoHomeCommitsInvertedDirection(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	s.HomingDirMask = 1 << uint(axis.Axis3)
	st := &machinestate.State{}
	fs := &fakeStepper{st: st, axes: []int{2}}

	eng := &Engine{State: st, Settings: s, Planner: &fakePlanner{}, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}
	c.Assert(eng.GoHome(1<<uint(axis.Axis3)), qt.IsNil)

	want := roundToSteps((s.MaxTravel[2] + s.HomingPulloff) * s.StepsPerMm[2])
	c.Assert(st.Position[2], qt.Equals, want)
}

func TestGoHomeTravelTooSmallAlarm(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	s.MaxTravel[2] = -1 // search travel = 1.5mm, below the 5mm locate floor
	st := &machinestate.State{}

	eng := &Engine{State: st, Settings: s, Planner: &fakePlanner{}, Stepper: &fakeStepper{st: st}, NLocate: 1}
	err := eng.GoHome(1 << uint(axis.Axis3))
	c.Assert(err, qt.IsNotNil)
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmHomingFailTravel)
}

func TestGoHomeRejectsWhenResetAlreadyPending(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	st.SetFlag(machinestate.FlagReset)

	eng := &Engine{State: st, Settings: s, Planner: &fakePlanner{}, Stepper: &fakeStepper{st: st}, NLocate: 1}
	err := eng.GoHome(1 << uint(axis.Axis3))
	c.Assert(err, qt.Equals, ErrAborted)
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmNone)
}

func TestGoHomeAbortsOnCycleStopDuringApproach(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	fs := &fakeStepper{st: st, axes: []int{2}, onPrep: func(n int) {
		st.SetFlag(machinestate.FlagCycleStop)
	}}

	eng := &Engine{State: st, Settings: s, Planner: &fakePlanner{}, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}
	err := eng.GoHome(1 << uint(axis.Axis3))
	c.Assert(err, qt.IsNotNil)
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmHomingFailApproach)
	c.Assert(fs.resetN > 0, qt.IsTrue)
}

func TestGoHomeAbortsOnSafetyDoor(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	fs := &fakeStepper{st: st, axes: []int{2}, onPrep: func(n int) {
		st.SetFlag(machinestate.FlagSafetyDoor)
	}}

	eng := &Engine{State: st, Settings: s, Planner: &fakePlanner{}, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}
	err := eng.GoHome(1 << uint(axis.Axis3))
	c.Assert(err, qt.IsNotNil)
	c.Assert(st.Alarm(), qt.Equals, machinestate.AlarmHomingFailDoor)
}

func TestGoHomeMultiAxisRateScaling(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	fp := &fakePlanner{}
	fs := &fakeStepper{st: st, axes: []int{0, 1}}

	eng := &Engine{State: st, Settings: s, Planner: fp, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}
	cycleMask := uint8(1<<uint(axis.Axis1) | 1<<uint(axis.Axis2))
	c.Assert(eng.GoHome(cycleMask), qt.IsNil)

	c.Assert(len(fp.calls) > 0, qt.IsTrue)
	first := fp.calls[0]
	c.Assert(first.data.FeedRate > s.HomingSeekRate, qt.IsTrue) // sqrt(2) scaling
}

func TestGoHomeEndstopAdjOnlyOnFinalPulloffSixAxis(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(6)
	s.EndstopAdj[2] = 0.3
	st := &machinestate.State{}
	fp := &fakePlanner{}
	fs := &fakeStepper{st: st, axes: []int{2}}

	eng := &Engine{State: st, Settings: s, Planner: fp, Stepper: fs, NLocate: 1, Sleep: func(uint16) {}}
	c.Assert(eng.GoHome(1<<uint(axis.Axis3)), qt.IsNil)

	c.Assert(len(fp.calls), qt.Equals, 4) // seek, pull-off, locate, final pull-off
	final := fp.calls[3]
	want := -s.HomingPulloff - s.EndstopAdj[2]
	c.Assert(final.target[2], qt.Equals, want)

	// The earlier pull-off (index 1) must not carry the offset.
	earlier := fp.calls[1]
	c.Assert(earlier.target[2], qt.Equals, -s.HomingPulloff)
}

func TestGoHomeCoreXYPreservesOtherVirtualAxis(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	st.Position[axis.AMotor], st.Position[axis.BMotor] = 140, 60 // X=100,Y=40 pre-cycle
	fs := &fakeStepper{st: st, axes: []int{int(axis.Axis1)}}

	eng := &Engine{
		State: st, Settings: s, Planner: &fakePlanner{}, Stepper: fs,
		NLocate: 1, CoreXY: true, Sleep: func(uint16) {},
	}
	c.Assert(eng.GoHome(1<<uint(axis.Axis1)), qt.IsNil)

	gotA, gotB := st.Position[axis.AMotor], st.Position[axis.BMotor]
	x := (gotA + gotB) / 2
	y := (gotA - gotB) / 2
	want := roundToSteps(-s.HomingPulloff * s.StepsPerMm[axis.Axis1])
	c.Assert(x, qt.Equals, want)
	c.Assert(y, qt.Equals, int32(40))
}

func TestGoHomeForceSetOrigin(t *testing.T) {
	c := qt.New(t)
	s := baseSettings(3)
	st := &machinestate.State{}
	fs := &fakeStepper{st: st, axes: []int{2}}

	eng := &Engine{
		State: st, Settings: s, Planner: &fakePlanner{}, Stepper: fs,
		NLocate: 1, ForceSetOrigin: true, Sleep: func(uint16) {},
	}
	c.Assert(eng.GoHome(1<<uint(axis.Axis3)), qt.IsNil)
	c.Assert(st.Position[2], qt.Equals, int32(0))
}
