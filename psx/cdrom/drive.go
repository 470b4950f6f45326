package cdrom

import "log/slog"

// driveState tracks what the mechanism is presently doing, independent
// of the command/response protocol's pending-packet queue.
type driveState int

const (
	stateIdle driveState = iota
	stateSeeking
	stateReading
	statePlaying
)

// pendingPacket is a response queued to fire after a cycle delay.
type pendingPacket struct {
	response
	remaining uint32
}

// Drive is the CD-ROM controller at 0x1F801800..0x1F801803: a 1-byte
// status/index register plus 3 banked data registers, driving a
// two-stage command/response state machine grounded on the
// original source's cdrom.rs dispatch loop.
type Drive struct {
	index byte // low 2 bits of the status register select the bank

	parameterFIFO []byte
	responseFIFO  []byte
	dataFIFO      []byte

	interruptEnable byte
	interruptFlag   byte

	pending []pendingPacket

	state      driveState
	motorOn    bool
	mode       byte
	position   Location
	seekTarget Location

	filterFile, filterChannel byte

	disc *Disc

	// onSectorReady is invoked once a ReadN/data-ready interrupt fires;
	// it is the drive's own PushSectorData, which refills dataFIFO from
	// the disc.
	onSectorReady func()
}

func New() *Drive {
	d := &Drive{}
	d.onSectorReady = d.PushSectorData
	return d
}

func (d *Drive) Reset() {
	disc := d.disc
	*d = Drive{disc: disc}
	d.onSectorReady = d.PushSectorData
}

func (d *Drive) SetDisc(disc *Disc) { d.disc = disc }

// ReadStatus is register 0: index in bits 0-1, plus FIFO-empty flags.
func (d *Drive) ReadStatus() byte {
	s := d.index & 0x3
	if len(d.parameterFIFO) == 0 {
		s |= 1 << 3
	}
	s |= 1 << 2 // parameter FIFO never reports "full" in this stub
	if len(d.responseFIFO) > 0 {
		s |= 1 << 5
	}
	if len(d.dataFIFO) > 0 {
		s |= 1 << 6
	}
	return s
}

// ReadRegister dispatches register reads 1-3 by the current bank
// (index), matching the PSX's register-bank aliasing.
func (d *Drive) ReadRegister(reg int) byte {
	switch reg {
	case 1:
		return d.popResponse()
	case 2:
		return d.popData()
	case 3:
		switch d.index & 1 {
		case 0:
			return d.interruptEnable
		default:
			return d.interruptFlag | 0xE0
		}
	}
	return 0xFF
}

func (d *Drive) popResponse() byte {
	if len(d.responseFIFO) == 0 {
		return 0
	}
	b := d.responseFIFO[0]
	d.responseFIFO = d.responseFIFO[1:]
	return b
}

func (d *Drive) popData() byte {
	if len(d.dataFIFO) == 0 {
		return 0
	}
	b := d.dataFIFO[0]
	d.dataFIFO = d.dataFIFO[1:]
	return b
}

// PopDataWord drains 4 bytes for the DMA channel 3 path.
func (d *Drive) PopDataWord() uint32 {
	var w uint32
	for i := 0; i < 4; i++ {
		w |= uint32(d.popData()) << (8 * i)
	}
	return w
}

// WriteRegister dispatches register writes 0-3 by bank, per the
// drive's register table.
func (d *Drive) WriteRegister(reg int, value byte) {
	switch reg {
	case 0:
		d.index = value & 0x3
	case 1:
		switch d.index {
		case 0:
			d.dispatch(value)
		case 3: // ATV2 volume, unused (audio out of scope)
		}
	case 2:
		switch d.index {
		case 0:
			d.parameterFIFO = append(d.parameterFIFO, value)
		case 1:
			d.interruptEnable = value & 0x1F
		}
	case 3:
		switch d.index {
		case 1:
			d.interruptFlag &^= value & 0x1F
			if value&0x40 != 0 {
				d.parameterFIFO = d.parameterFIFO[:0]
			}
		}
	}
}

// dispatch executes a command opcode against the latched parameter
// FIFO and schedules its reply packet(s).
func (d *Drive) dispatch(opcode byte) {
	params := d.parameterFIFO
	d.parameterFIFO = nil

	var cmd command
	switch opcode {
	case 0x01:
		cmd = d.execGetStat()
	case 0x02:
		cmd = d.execSetLoc(params)
	case 0x06:
		cmd = d.execReadN()
	case 0x08:
		cmd = d.execStop()
	case 0x09:
		cmd = d.execPause()
	case 0x0A:
		cmd = d.execInit()
	case 0x0B:
		cmd = d.execMute()
	case 0x0C:
		cmd = d.execDemute()
	case 0x0D:
		cmd = d.execSetFilter(params)
	case 0x0E:
		cmd = d.execSetMode(params)
	case 0x13:
		cmd = d.execGetTN()
	case 0x14:
		cmd = d.execGetTD()
	case 0x15:
		cmd = d.execSeekL()
	case 0x19:
		cmd = d.execTest(params)
	case 0x1A:
		cmd = d.execGetID()
	case 0x1C, 0x1D:
		cmd = d.execEndSCEx()
	case 0x1E:
		cmd = d.execGetTOC()
	default:
		slog.Warn("cdrom: unimplemented command", "opcode", opcode)
		cmd = command{first: response{IntError, []byte{d.stat(), 0x40}, avgFirstResponse}}
	}

	d.queue(cmd.first)
	if cmd.second != nil {
		d.queue(*cmd.second)
	}
}

func (d *Drive) queue(r response) {
	d.pending = append(d.pending, pendingPacket{response: r, remaining: r.cycles})
}

// Advance steps the pending-packet queue by cpuCycles, firing the
// next response (and, for IRQ-enabled causes, invoking raiseIRQ) once
// its delay elapses. Only one packet is in flight at a time, matching
// the drive's serial protocol.
func (d *Drive) Advance(cpuCycles uint32, raiseIRQ func()) {
	if len(d.pending) == 0 {
		return
	}
	p := &d.pending[0]
	if cpuCycles < p.remaining {
		p.remaining -= cpuCycles
		return
	}
	fired := d.pending[0]
	d.pending = d.pending[1:]

	d.interruptFlag = byte(fired.cause) & 0x7
	d.responseFIFO = append(d.responseFIFO, fired.data...)

	if fired.cause == IntDataReady && d.onSectorReady != nil {
		d.onSectorReady()
	}
	// While the drive is still reading, the data-ready packet re-queues
	// itself so the next sector arrives one sector period later.
	if fired.cause == IntDataReady && d.state == stateReading {
		d.queue(fired.response)
	}

	if d.interruptEnable&d.interruptFlag != 0 && raiseIRQ != nil {
		raiseIRQ()
	}
}

// PushSectorData loads a freshly read sector into the data FIFO, sized
// per the mode register's bit 5.
func (d *Drive) PushSectorData() {
	if d.disc == nil {
		return
	}
	size := SectorDataOnly
	if d.mode&(1<<5) != 0 {
		size = SectorWholeSector
	}
	d.dataFIFO = append(d.dataFIFO[:0], d.disc.ReadSector(d.position, size)...)
	d.position = d.position.PlusSectors(1)
	d.seekTarget = d.position
}
