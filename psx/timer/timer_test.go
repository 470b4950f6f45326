package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceSelection(t *testing.T) {
	t0 := New(Timer0)
	t0.WriteMode(0)
	assert.Equal(t, SourceSystem, t0.Source())
	t0.WriteMode(1 << 8)
	assert.Equal(t, SourceDotclock, t0.Source())

	t2 := New(Timer2)
	t2.WriteMode(0)
	assert.Equal(t, SourceSystem, t2.Source())
	t2.WriteMode(1 << 9)
	assert.Equal(t, SourceSystemDiv8, t2.Source())
}

func TestTargetIRQAndReset(t *testing.T) {
	tm := New(Timer0)
	tm.WriteTarget(10)
	tm.WriteMode(modeResetOnTarget | modeIRQOnTarget)

	fired := false
	tm.Advance(10, func(i Index) { fired = true })

	assert.True(t, fired)
	assert.Equal(t, uint32(0), tm.ReadValue(), "reset-on-target should wrap value back to 0")

	mode := tm.ReadMode()
	assert.NotZero(t, mode&modeReachedTarget)
	assert.Zero(t, tm.ReadMode()&modeReachedTarget, "reading mode clears the latch")
}

func TestOverflowWraps(t *testing.T) {
	tm := New(Timer1)
	tm.WriteMode(modeIRQOnOverflow)
	fired := 0
	tm.Advance(0x10000, func(Index) { fired++ })
	assert.Equal(t, 1, fired)
	assert.Equal(t, uint32(0), tm.ReadValue())
}
