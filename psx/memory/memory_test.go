package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-psxcore/psx/addr"
)

func TestRAMWordRoundTrip(t *testing.T) {
	r := NewRAM()
	r.WriteWord(0x100, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), r.ReadWord(0x100))
	assert.Equal(t, uint8(0xEF), r.ReadByte(0x100))
}

func TestBIOSRejectsWrongSize(t *testing.T) {
	_, err := NewBIOS(make([]byte, 100))
	assert.Error(t, err)

	b, err := NewBIOS(make([]byte, addr.BIOSSize))
	assert.NoError(t, err)
	assert.NotNil(t, b)
}
