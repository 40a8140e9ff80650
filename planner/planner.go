// Package planner declares the motion-planning collaborator homing and
// soft-limit checking drive but do not implement (spec.md 6: "external
// collaborators this module drives but does not implement"). A real
// look-ahead planner lives outside this module's scope; homing only
// ever needs the one privileged entry point below.
package planner

import "tinygo.org/x/cncmotion/axis"

// Condition flags a buffered line with execution semantics that bypass
// the normal feed-rate and soft-limit pipeline.
type Condition uint8

const (
	// ConditionSystemMotion marks a line as machine-internal motion
	// (homing, parking) rather than a program move: it is exempt from
	// soft-limit checking (spec.md 4.4: "homing moves bypass the
	// soft-limit guard by construction").
	ConditionSystemMotion Condition = 1 << iota
	// ConditionNoFeedOverride pins the line's feed rate exactly, with
	// no feed-override scaling applied.
	ConditionNoFeedOverride
)

// HomingCycleLineNumber is the dedicated line number homing-generated
// blocks are tagged with, so a status report can distinguish them from
// program motion.
const HomingCycleLineNumber = -1

// Data carries the per-line metadata BufferLine needs alongside the
// target position.
type Data struct {
	FeedRate   float32
	LineNumber int32
	Condition  Condition
}

// Planner is the privileged entry point used to queue a single line of
// motion. target holds one coordinate per axis, in mm.
type Planner interface {
	BufferLine(target [axis.MaxAxes]float32, data Data) error
}
