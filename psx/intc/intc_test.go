package intc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-psxcore/psx/addr"
)

func TestWriteOneToClear(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank)
	c.Raise(addr.IRQGPU)
	assert.Equal(t, uint32(0b11), c.ReadStatus())

	c.WriteStatus(0b01)
	assert.Equal(t, uint32(0b10), c.ReadStatus(), "clears exactly the bits set in V and preserves the rest")
}

func TestPendingRequiresMask(t *testing.T) {
	c := New()
	c.Raise(addr.IRQVBlank)
	assert.False(t, c.Pending())

	c.WriteMask(1 << addr.IRQVBlank.Bit())
	assert.True(t, c.Pending())
}
