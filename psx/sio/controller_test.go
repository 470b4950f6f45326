package sio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigitalByteActiveLow(t *testing.T) {
	b := ButtonState{}
	assert.Equal(t, uint8(0xFF), b.DigitalLowByte())
	b.Select = true
	assert.Equal(t, uint8(0xFE), b.DigitalLowByte())
}

func TestTransferSequence(t *testing.T) {
	c := New()
	c.WriteCtrl(1)
	c.Buttons.X = true

	c.WriteData(0x01)
	assert.Equal(t, uint8(0), c.ReadData())

	c.WriteData(0x42)
	assert.Equal(t, uint8(0x41), c.ReadData())

	c.WriteData(0x00)
	assert.Equal(t, uint8(0x5A), c.ReadData())

	c.WriteData(0x00)
	assert.Equal(t, c.Buttons.DigitalLowByte(), c.ReadData())

	c.WriteData(0x00)
	assert.Equal(t, c.Buttons.DigitalHighByte(), c.ReadData())
}

func TestAcknowledgeIRQAfterDelay(t *testing.T) {
	c := New()
	c.WriteCtrl(1)
	c.WriteData(0x01)

	fired := false
	c.Advance(349, func() { fired = true })
	assert.False(t, fired)
	c.Advance(1, func() { fired = true })
	assert.True(t, fired)
}
