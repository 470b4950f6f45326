package mdec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetClearsStatusAndFIFOs(t *testing.T) {
	d := New()
	d.inputFIFO = append(d.inputFIFO, 1, 2, 3)
	d.WriteControl(1 << 31)
	assert.Equal(t, uint32(0x80000000), d.ReadStatus())
	assert.Empty(t, d.inputFIFO)
}

func TestSetQuantTableLumaOnly(t *testing.T) {
	d := New()
	d.PushCommand(2 << 29) // SetQuantTable, bit0=0 -> luma only, 64 bytes = 16 words
	for i := 0; i < 16; i++ {
		d.PushCommand(0x01010101)
	}
	assert.Equal(t, byte(1), d.lumaQuant[0])
	assert.Equal(t, byte(1), d.lumaQuant[63])
}

func TestSetScaleTableLoadsAllCoefficients(t *testing.T) {
	d := New()
	d.PushCommand(3 << 29) // SetScaleTable, 32 words = 64 halfwords
	for i := 0; i < 32; i++ {
		d.PushCommand(0x00020002)
	}
	for _, v := range d.scale {
		assert.Equal(t, int32(2), v)
	}
}

func TestDecodeMacroblockWithZeroCoefficientsProducesMidGray(t *testing.T) {
	d := New()
	// All-zero DC/AC blocks decode to a flat mid-gray macroblock once
	// the IDCT output (0) is offset by 128 in yCbCrToRGB.
	d.PushCommand(uint32(CmdDecodeMacroblock)<<29 | 12) // 6 blocks * (1 DC word + 1 EOB word) = 12 words
	for b := 0; b < 6; b++ {
		d.PushCommand(0x00000000) // DC=0
		d.PushCommand(0xFE000000) // zero AC in the low halfword, EOB in the high halfword
	}
	// decodeMacroblock only runs once wordsSeen reaches wordsNeeded; it
	// produces 256 output pixels (4 luma sub-blocks * 64), each 128>>3 = 16
	// in every 5-bit channel.
	assert.Len(t, d.outputFIFO, 256)
	assert.Equal(t, uint16(0x4210), d.outputFIFO[0])
}
