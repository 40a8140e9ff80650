package axis

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestValid(t *testing.T) {
	c := qt.New(t)
	c.Assert(Valid(2), qt.IsFalse)
	c.Assert(Valid(3), qt.IsTrue)
	c.Assert(Valid(6), qt.IsTrue)
	c.Assert(Valid(7), qt.IsFalse)
}

func TestMasks(t *testing.T) {
	c := qt.New(t)
	for i := 0; i < MaxAxes; i++ {
		v := uint8(1) << uint(i)
		c.Assert(StepMask(i), qt.Equals, v)
		c.Assert(DirMask(i), qt.Equals, v)
		c.Assert(MinLimitMask(i), qt.Equals, v)
		c.Assert(MaxLimitMask(i), qt.Equals, v)
	}
}

func TestUnusedMask(t *testing.T) {
	c := qt.New(t)
	c.Assert(UnusedMask(3), qt.Equals, uint8(0xF8))
	c.Assert(UnusedMask(6), qt.Equals, uint8(0xC0))
	c.Assert(UnusedMask(4), qt.Equals, uint8(0xF0))
}
