package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStatReportsMotorOn(t *testing.T) {
	d := New()
	d.motorOn = true

	d.WriteRegister(0, 1)
	d.WriteRegister(2, 0x1F) // enable every INT cause
	d.WriteRegister(0, 0)
	d.WriteRegister(1, 0x01) // GetStat

	var fired bool
	d.Advance(avgFirstResponse, func() { fired = true })

	assert.True(t, fired)
	assert.Equal(t, IntComplete, int(d.interruptFlag))
	// No disc is loaded, so the shell-open bit accompanies motor-on.
	assert.Equal(t, byte(statMotorOn|statShellOpen), d.popResponse())
}

func TestGetIDNoDiscReportsError(t *testing.T) {
	d := New()

	d.WriteRegister(0, 0)
	d.WriteRegister(1, 0x1A) // GetID

	d.Advance(avgFirstResponse, func() {})
	assert.Equal(t, IntAck, int(d.interruptFlag))
	d.popResponse() // ack stat byte

	d.Advance(getIDFirst, func() {})
	assert.Equal(t, IntError, int(d.interruptFlag))
	assert.Equal(t, byte(0x08), d.popResponse())
}

func TestSetLocThenReadNStreamsSectors(t *testing.T) {
	disc := NewDisc("test")
	sector := make([]byte, 2352)
	sector[30] = 0x42 // inside the 2048-byte data payload after the 24-byte header
	disc.AddTrack(sector)

	d := New()
	d.SetDisc(disc)

	d.WriteRegister(0, 1)
	d.WriteRegister(2, 0x1F) // enable every INT cause
	d.WriteRegister(0, 0)

	d.WriteRegister(2, 0x00) // M
	d.WriteRegister(2, 0x02) // S
	d.WriteRegister(2, 0x00) // F
	d.WriteRegister(1, 0x02) // SetLoc
	d.Advance(avgFirstResponse, func() {})
	d.popResponse()

	d.WriteRegister(1, 0x06) // ReadN
	d.Advance(readFirst, func() {})
	d.popResponse()

	var fired bool
	d.Advance(readSecondPeriod, func() { fired = true })
	assert.True(t, fired)
	assert.Equal(t, IntDataReady, int(d.interruptFlag))

	data := make([]byte, 2048)
	for i := range data {
		data[i] = d.popData()
	}
	assert.Equal(t, byte(0x42), data[6])
}

func TestTestCommandReportsBIOSDate(t *testing.T) {
	d := New()
	d.WriteRegister(2, 0x20) // sub-function
	d.WriteRegister(1, 0x19)

	d.Advance(avgFirstResponse, func() {})
	assert.Equal(t, []byte{0x94, 0x09, 0x19, 0xC0}, d.responseFIFO)
}

func TestLocationByteOffsetMatchesLeadIn(t *testing.T) {
	loc := Location{Minutes: 0, Seconds: 2, Sectors: 0}
	assert.Equal(t, 0, loc.ByteOffset())
}
