package cdrom

// Interrupt cause codes the drive reports in the low 3 bits of the
// INT flag register.
const (
	IntNone      = 0
	IntDataReady = 1
	IntComplete  = 2
	IntAck       = 3
	IntDataEnd   = 4
	IntError     = 5
)

// stat bits.
const (
	statError      = 1 << 0
	statMotorOn    = 1 << 1
	statSeekError  = 1 << 2
	statIDError    = 1 << 3
	statShellOpen  = 1 << 4
	statRead       = 1 << 5
	statSeek       = 1 << 6
	statPlay       = 1 << 7
)

// response is one stage of a command's reply: the interrupt cause to
// raise, the data bytes to push into the response FIFO, and the delay
// (in CPU cycles) before it fires.
type response struct {
	cause  int
	data   []byte
	cycles uint32
}

// command holds the full (possibly two-stage) reply a command
// produces. second, when non-nil, is queued right behind first at
// dispatch and starts counting down its delay once first has fired.
type command struct {
	first  response
	second *response
}

const (
	avgFirstResponse  = 0xc4e1
	getIDFirst        = 0x4a00
	initFirst         = 0x13cce
	initSecond        = 0x3a0000
	seekLSecond       = 0xa81
	pauseFirstFast    = 0x1df2
	pauseSecondFast   = 0x1df2 * 6
	pauseSecondSlow   = 0x10bd93
	readFirst         = 0x6e1cd
	readSecondPeriod  = 0x9c41
)

func (d *Drive) stat() byte {
	s := byte(0)
	if d.motorOn {
		s |= statMotorOn
	}
	switch d.state {
	case stateReading:
		s |= statRead
	case stateSeeking:
		s |= statSeek
	case statePlaying:
		s |= statPlay
	}
	if d.disc == nil {
		s |= statShellOpen
	}
	return s
}

// execGetStat implements command 0x01.
func (d *Drive) execGetStat() command {
	return command{first: response{IntComplete, []byte{d.stat()}, avgFirstResponse}}
}

// execSetLoc implements command 0x02: latches M/S/F parameters as BCD.
func (d *Drive) execSetLoc(params []byte) command {
	if len(params) < 3 {
		return command{first: response{IntError, []byte{d.stat(), 0x80}, avgFirstResponse}}
	}
	d.seekTarget = NewLocationBCD(params[0], params[1], params[2])
	return command{first: response{IntComplete, []byte{d.stat()}, avgFirstResponse}}
}

// execReadN implements command 0x06: seeks then begins streaming
// sectors, one INT1 "data ready" interrupt per sector thereafter.
func (d *Drive) execReadN() command {
	d.position = d.seekTarget
	d.state = stateReading
	second := response{IntDataReady, nil, readSecondPeriod}
	return command{
		first:  response{IntComplete, []byte{d.stat()}, readFirst},
		second: &second,
	}
}

// execPause implements command 0x09. The delay differs depending on
// whether the drive was already spinning a read/play sequence.
func (d *Drive) execPause() command {
	wasActive := d.state == stateReading || d.state == statePlaying
	d.state = stateIdle
	second := response{IntComplete, []byte{d.stat()}, pauseSecondSlow}
	if !wasActive {
		second.cycles = pauseSecondFast
	}
	return command{
		first:  response{IntAck, []byte{d.stat()}, pauseFirstFast},
		second: &second,
	}
}

// execStop implements command 0x08.
func (d *Drive) execStop() command {
	d.state = stateIdle
	d.motorOn = false
	second := response{IntComplete, []byte{d.stat()}, 0x0d38ed}
	return command{
		first:  response{IntAck, []byte{d.stat()}, avgFirstResponse},
		second: &second,
	}
}

// execInit implements command 0x0A: resets the mode register and spins
// the motor up.
func (d *Drive) execInit() command {
	d.mode = 0
	d.motorOn = true
	d.state = stateIdle
	second := response{IntComplete, []byte{d.stat()}, initSecond}
	return command{
		first:  response{IntAck, []byte{d.stat()}, initFirst},
		second: &second,
	}
}

// execMute / execDemute implement 0x0B / 0x0C; audio mixing is out of
// scope so these only ack.
func (d *Drive) execMute() command {
	return command{first: response{IntAck, []byte{d.stat()}, avgFirstResponse}}
}

func (d *Drive) execDemute() command {
	return command{first: response{IntAck, []byte{d.stat()}, avgFirstResponse}}
}

// execSetFilter implements 0x0D: stereo ADPCM channel filtering, which
// this stub records but never applies (audio mixing is out of scope).
func (d *Drive) execSetFilter(params []byte) command {
	if len(params) >= 2 {
		d.filterFile, d.filterChannel = params[0], params[1]
	}
	return command{first: response{IntAck, []byte{d.stat()}, avgFirstResponse}}
}

// execSetMode implements 0x0E.
func (d *Drive) execSetMode(params []byte) command {
	if len(params) >= 1 {
		d.mode = params[0]
	}
	return command{first: response{IntAck, []byte{d.stat()}, avgFirstResponse}}
}

// execSeekL implements 0x15: data-mode seek to the latched SetLoc
// target.
func (d *Drive) execSeekL() command {
	d.position = d.seekTarget
	d.state = stateSeeking
	second := response{IntComplete, []byte{d.stat()}, seekLSecond}
	return command{
		first:  response{IntAck, []byte{d.stat()}, avgFirstResponse},
		second: &second,
	}
}

// execTest implements 0x19, sub-function 0x20: reports a BIOS build
// date/version, matching the original's canned response.
func (d *Drive) execTest(params []byte) command {
	if len(params) >= 1 && params[0] == 0x20 {
		return command{first: response{IntAck, []byte{0x94, 0x09, 0x19, 0xC0}, avgFirstResponse}}
	}
	return command{first: response{IntAck, []byte{d.stat()}, avgFirstResponse}}
}

// execGetID implements 0x1A: reports a licensed SCEA disc, or a "no
// disk" error if none is loaded.
func (d *Drive) execGetID() command {
	if d.disc == nil {
		second := response{IntError, []byte{0x08, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, getIDFirst}
		return command{
			first:  response{IntAck, []byte{d.stat()}, avgFirstResponse},
			second: &second,
		}
	}
	second := response{IntComplete, []byte{0x02, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A'}, getIDFirst}
	return command{
		first:  response{IntAck, []byte{d.stat()}, avgFirstResponse},
		second: &second,
	}
}

// execGetTN implements 0x13: first/last track numbers, BCD-encoded.
func (d *Drive) execGetTN() command {
	if d.disc == nil {
		return command{first: response{IntError, []byte{d.stat(), 0x80}, avgFirstResponse}}
	}
	return command{first: response{IntComplete, []byte{d.stat(), decToBCD(1), decToBCD(d.disc.TrackCount())}, avgFirstResponse}}
}

// execGetTD implements 0x14: start M:S of the requested track. This
// stub always reports track 1 starting at 00:02, matching disc images
// without a parsed TOC.
func (d *Drive) execGetTD() command {
	return command{first: response{IntComplete, []byte{d.stat(), 0x00, 0x02}, avgFirstResponse}}
}

// execGetTOC implements 0x1E.
func (d *Drive) execGetTOC() command {
	second := response{IntComplete, []byte{d.stat()}, 0x13cce}
	return command{
		first:  response{IntAck, []byte{d.stat()}, avgFirstResponse},
		second: &second,
	}
}

// execEndSCEx implements 0x1C/0x1D (unlock region/end-of-disc markers
// used by some licensing checks). The original reports an empty
// two-byte payload for these and this stub matches it.
func (d *Drive) execEndSCEx() command {
	return command{first: response{IntAck, []byte{0x00, 0x00}, avgFirstResponse}}
}
