// Package corexy implements the belt-kinematic coupling spec.md calls
// out in its glossary: two physical motors A and B together produce
// virtual X/Y motion, with A=X+Y and B=X-Y (so X=(A+B)/2, Y=(A-B)/2). It is the kinematic adapter
// Design Notes asks for, sitting at the step-pin and position-commit
// boundary so the homing engine above it only ever deals with virtual
// axes (axis.Axis1, axis.Axis2) and never needs to know CoreXY is in
// play.
package corexy

import "tinygo.org/x/cncmotion/axis"

// ToMotors converts a virtual (X, Y) pair into physical (A, B) motor
// step counts.
func ToMotors(x, y int32) (a, b int32) {
	return x + y, x - y
}

// ToVirtual converts physical (A, B) motor step counts into a virtual
// (X, Y) pair. Integer division truncates toward zero; this mirrors the
// source's use of signed integer division for the same conversion and
// only matters for odd A-B differences, which homing's own pull-off
// commit never produces (it always sets one of the pair from a multiple
// of 2 via ToMotors).
func ToVirtual(a, b int32) (x, y int32) {
	return (a + b) / 2, (a - b) / 2
}

// IsVirtualAxis reports whether idx is one of the two CoreXY virtual
// axes (AXIS_1/AXIS_2 in spec.md's terms) whose step pulses are actually
// emitted by the A/B motor pair rather than a dedicated motor.
func IsVirtualAxis(idx int) bool {
	return idx == axis.Axis1 || idx == axis.Axis2
}

// StepMask returns the step-pin mask that must be locked/unlocked to
// control axis idx: for a virtual axis this is both motor bits at once
// (spec.md invariant (v): "both step-bits must be locked/unlocked
// atomically"), otherwise the axis's own single bit.
func StepMask(idx int) uint8 {
	if IsVirtualAxis(idx) {
		return axis.StepMask(axis.AMotor) | axis.StepMask(axis.BMotor)
	}
	return axis.StepMask(idx)
}

// DecomposeForHome resets the virtual contribution of idx (AXIS_1 or
// AXIS_2) to zero in pos while preserving the other virtual axis's
// current physical position — the CoreXY branch of spec.md 4.4 step 2,
// "reset sys_position[i] to 0 ... or, on CoreXY, to the appropriate
// virtual decomposition so the current physical position is preserved
// for unhomed axes". idx must be axis.Axis1 or axis.Axis2.
func DecomposeForHome(pos *[axis.MaxAxes]int32, idx int) {
	x, y := ToVirtual(pos[axis.AMotor], pos[axis.BMotor])
	switch idx {
	case axis.Axis1:
		pos[axis.AMotor], pos[axis.BMotor] = ToMotors(0, y)
	case axis.Axis2:
		pos[axis.AMotor], pos[axis.BMotor] = ToMotors(x, 0)
	}
}

// Commit folds a freshly computed machine position (setPos, in steps)
// for virtual axis idx into pos, preserving the other virtual axis's
// current physical contribution — the CoreXY branch of spec.md 4.4's
// commit phase. idx must be axis.Axis1 or axis.Axis2.
func Commit(pos *[axis.MaxAxes]int32, idx int, setPos int32) {
	x, y := ToVirtual(pos[axis.AMotor], pos[axis.BMotor])
	switch idx {
	case axis.Axis1:
		pos[axis.AMotor], pos[axis.BMotor] = ToMotors(setPos, y)
	case axis.Axis2:
		pos[axis.AMotor], pos[axis.BMotor] = ToMotors(x, setPos)
	}
}
