package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestController() (*Controller, map[uint32]uint32) {
	mem := make(map[uint32]uint32)
	c := New()
	c.Ports.ReadWord = func(a uint32) uint32 { return mem[a] }
	c.Ports.WriteWord = func(a uint32, v uint32) { mem[a] = v }
	return c, mem
}

// Covers the BIOS's OTC linked-list initialization at boot.
func TestOTCInitialization(t *testing.T) {
	c, mem := newTestController()
	c.DPCR = 0xFFFFFFFF // BIOS enables every channel's DPCR master-enable bit at boot
	c.Channels[ChanOTC] = Channel{
		BaseAddr: 0x1000,
		Block:    4,
		Control:  0x11000002,
	}

	c.Run()

	assert.Equal(t, uint32(0x00FFFFFF), mem[0x1000])
	assert.Equal(t, uint32(0x0FF8), mem[0x0FFC])
	assert.Equal(t, uint32(0x0FF4), mem[0x0FF8])
	assert.Equal(t, uint32(0x0FF0), mem[0x0FF4])
	assert.False(t, c.Channels[ChanOTC].Busy())
}

func TestWriteDICRAcknowledge(t *testing.T) {
	c := New()
	c.WriteDICR(0xFFFFFFFF)
	assert.Equal(t, uint32(0), c.ReadDICR()&0x7F000000)

	c.WriteDICR(0x7F000001)
	assert.Equal(t, uint32(1), c.ReadDICR()&0xFFFFFF)
}
