// Package axis defines the machine's axis-numbering convention and the
// pure bit-lookup helpers (step, direction, min-limit, max-limit masks)
// that the rest of the module indexes by axis number.
//
// N_AXIS is a compile-time constant in the source this module is based
// on, conditioned on N_AXIS being 3, 4, 5 or 6 and exploding every limit
// and homing routine into per-count variants. Here it is a runtime value
// (MaxAxes is the fixed array capacity; NAxis, carried on the types that
// need it, is the configured axis count) so one binary supports any
// machine from 3 to 6 axes without a recompile.
package axis

// MaxAxes is the largest axis count this module supports. Per-axis
// arrays are always sized to MaxAxes; callers bound their loops with a
// runtime NAxis instead of a build tag.
const MaxAxes = 6

// Axis indices, 0-based. Axis1/Axis2 double as the CoreXY virtual X/Y
// axes; AMotor/BMotor are the physical motor slots they decompose into
// (see package corexy).
const (
	Axis1 = iota // X, or CoreXY virtual axis 1
	Axis2        // Y, or CoreXY virtual axis 2
	Axis3        // Z
	Axis4
	Axis5
	Axis6
)

const (
	AMotor = Axis1
	BMotor = Axis2
)

// Valid reports whether n is a supported axis count.
func Valid(n int) bool {
	return n >= 3 && n <= MaxAxes
}

// StepMask returns the single-bit step-pin mask for axis idx.
func StepMask(idx int) uint8 {
	return 1 << uint(idx)
}

// DirMask returns the single-bit direction-pin mask for axis idx.
func DirMask(idx int) uint8 {
	return 1 << uint(idx)
}

// MinLimitMask returns the single-bit min-limit-pin mask for axis idx.
func MinLimitMask(idx int) uint8 {
	return 1 << uint(idx)
}

// MaxLimitMask returns the single-bit max-limit-pin mask for axis idx.
func MaxLimitMask(idx int) uint8 {
	return 1 << uint(idx)
}

// UnusedMask returns the bits at and above position n that don't
// correspond to a configured axis, e.g. for n=3 this is 0xF8. It is used
// to force those bits to zero when the global invert-limit-pins path
// complements a byte (spec.md 4.1 / grbl limits_get_state's unused_bits).
func UnusedMask(n int) uint8 {
	return 0xFF - (1 << uint(n)) + 1
}
