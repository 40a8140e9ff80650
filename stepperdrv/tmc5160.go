// Package stepperdrv adapts the register-level TMC5160/TMC2209
// drivers into concrete stepper.Stepper backends. It is additive:
// nothing in homing, hardlimit, or softlimit imports it, matching
// spec.md 6's requirement that the core logic stay independent of any
// particular stepper silicon. It imports tinygo.org/x/drivers/tmc5160
// and tinygo.org/x/drivers/tmc2209 directly, reusing their
// RegisterComm interfaces and Register pack/unpack tables rather than
// their tinygo-only Driver/Begin hardware setup (which depends on the
// "machine" package and has no host-testable form).
package stepperdrv

import (
	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/settings"
	"tinygo.org/x/cncmotion/stepper"
	"tinygo.org/x/drivers/tmc5160"
)

// TMC5160Stepper drives up to axis.MaxAxes TMC5160 drivers in internal
// positioning mode (RAMPMODE=PositioningMode, target position written
// to XTARGET), one register interface per physical axis. A nil Comm
// entry leaves that axis unconnected, the same "optional binding"
// convention pinio.Config uses for limit switches.
type TMC5160Stepper struct {
	State    *machinestate.State
	Settings *settings.Settings

	Comm [axis.MaxAxes]tmc5160.RegisterComm
	Addr [axis.MaxAxes]uint8

	control stepper.Control
}

// SetControl switches between normal program motion and system motion
// (homing/parking) tracking.
func (d *TMC5160Stepper) SetControl(c stepper.Control) {
	d.control = c
}

// WakeUp puts every wired driver into positioning mode, ready to track
// XTARGET writes from PrepBuffer.
func (d *TMC5160Stepper) WakeUp() {
	for i := range d.Comm {
		if d.Comm[i] == nil {
			continue
		}
		rm := tmc5160.NewRAMPMODE(d.Comm[i], d.Addr[i])
		rm.SetMode(tmc5160.PositioningMode)
	}
}

// Reset stops all motion immediately by zeroing VMAX on every wired
// driver and returns tracking to normal operation.
func (d *TMC5160Stepper) Reset() {
	for i := range d.Comm {
		if d.Comm[i] == nil {
			continue
		}
		tmc5160.WriteRegister(d.Comm[i], tmc5160.VMAX, d.Addr[i], 0)
	}
	d.control = stepper.ControlNormalOp
}

// PrepBuffer pushes the shared machine position to every wired axis
// not currently withheld by machinestate.State.AxisLock. During a
// homing cycle (ControlExecuteSysMotion) an axis whose lock bit has
// been cleared (its switch tripped, or its move completed) is skipped
// so it holds its last commanded position instead of chasing a stale
// target.
func (d *TMC5160Stepper) PrepBuffer() {
	nAxis := d.Settings.NAxis
	for i := 0; i < nAxis && i < axis.MaxAxes; i++ {
		if d.Comm[i] == nil {
			continue
		}
		if d.control == stepper.ControlExecuteSysMotion && d.State.AxisLock[i] == 0 {
			continue
		}
		tmc5160.WriteRegister(d.Comm[i], tmc5160.XTARGET, d.Addr[i], uint32(d.State.Position[i]))
	}
}
