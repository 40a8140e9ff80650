package stepperdrv

import (
	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/machinestate"
	"tinygo.org/x/cncmotion/settings"
	"tinygo.org/x/cncmotion/stepper"
	"tinygo.org/x/drivers/tmc2209"
)

// TMC2209Stepper drives TMC2209s over UART in legacy step/dir mode:
// the driver only configures run/hold current and microstepping: the
// actual step pulses are produced by board-specific step/dir hardware
// outside this module's scope. WakeUp pushes the configured current
// settings; Reset drops the run current to zero; PrepBuffer does
// nothing, matching how a standalone step/dir driver is used in practice.
type TMC2209Stepper struct {
	State    *machinestate.State
	Settings *settings.Settings

	Comm [axis.MaxAxes]tmc2209.RegisterComm
	Addr [axis.MaxAxes]uint8

	// HoldCurrent/RunCurrent are 0-31 IHOLD_IRUN field values applied
	// to every wired axis at WakeUp.
	HoldCurrent, RunCurrent uint32

	control stepper.Control
}

func (d *TMC2209Stepper) SetControl(c stepper.Control) { d.control = c }

// WakeUp writes the configured hold/run current to every wired driver.
func (d *TMC2209Stepper) WakeUp() {
	ir := tmc2209.NewIholdIrun()
	ir.Ihold = d.HoldCurrent
	ir.Irun = d.RunCurrent
	ir.Iholddelay = 7
	value := ir.Pack()
	for i := range d.Comm {
		if d.Comm[i] == nil {
			continue
		}
		tmc2209.WriteRegister(d.Comm[i], tmc2209.IHOLD_IRUN, d.Addr[i], value)
	}
}

// Reset drops every wired driver to zero run current, relying on the
// board's external step/dir generator to have already stopped pulsing.
func (d *TMC2209Stepper) Reset() {
	ir := tmc2209.NewIholdIrun()
	ir.Ihold = d.HoldCurrent
	ir.Irun = 0
	value := ir.Pack()
	for i := range d.Comm {
		if d.Comm[i] == nil {
			continue
		}
		tmc2209.WriteRegister(d.Comm[i], tmc2209.IHOLD_IRUN, d.Addr[i], value)
	}
	d.control = stepper.ControlNormalOp
}

// PrepBuffer is a no-op: step pulses for a step/dir driver come from
// the board's pulse generator, not from register writes. It exists so
// TMC2209Stepper satisfies stepper.Stepper for boards that still want
// homing's axis-lock bookkeeping to drive an external pulse generator
// directly, rather than through this type.
func (d *TMC2209Stepper) PrepBuffer() {}
