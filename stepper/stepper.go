// Package stepper declares the segment-generator collaborator the
// homing engine drives directly (spec.md 6). A concrete implementation
// adapts a real stepper driver; see stepperdrv for backends built on
// top of the tmc5160/tmc2209 register interfaces.
package stepper

// Control selects which position-tracking mode the segment generator
// runs in.
type Control uint8

const (
	// ControlNormalOp is the default: motion follows the planner's
	// program buffer under normal feed/rate control.
	ControlNormalOp Control = iota
	// ControlExecuteSysMotion marks machine-internal motion (homing,
	// parking): the generator consumes exactly one planner block and
	// stops, and reports against machinestate.State.Position directly
	// rather than the program's running position.
	ControlExecuteSysMotion
)

// Stepper is the segment generator homing drives directly to move
// axes during a homing cycle, outside the normal cycle-start path.
type Stepper interface {
	// PrepBuffer refills the segment buffer from the planner, honoring
	// the per-axis lock mask in machinestate.State.AxisLock: a locked
	// axis's step pulses are withheld even though its motion is
	// present in the buffered block.
	PrepBuffer()
	// WakeUp starts the stepper interrupt running.
	WakeUp()
	// Reset stops the stepper interrupt and discards the segment
	// buffer and any in-flight planner block.
	Reset()
	// SetControl switches between normal and system-motion tracking.
	SetControl(c Control)
}
