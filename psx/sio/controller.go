// Package sio implements the JOY_CTRL/JOY_STAT/JOY_MODE/JOY_BAUD
// register interface and the digital-pad transfer state machine,
// grounded on the original source's controller.rs for the exact
// active-low button byte packing and the ~350-cycle post-byte
// acknowledge delay.
package sio

import "log/slog"

// ButtonState is the button vector the host supplies once per frame.
type ButtonState struct {
	Up, Down, Left, Right   bool
	Triangle, Circle        bool
	X, Square                bool
	L1, L2, L3               bool
	R1, R2, R3               bool
	Select, Start            bool
}

// DigitalLowByte packs select/l3/r3/start/up/right/down/left into the
// active-low low byte of the digital-pad response.
func (b ButtonState) DigitalLowByte() uint8 {
	var v uint8 = 0xFF
	clear := func(bit uint, pressed bool) {
		if pressed {
			v &^= 1 << bit
		}
	}
	clear(0, b.Select)
	clear(1, b.L3)
	clear(2, b.R3)
	clear(3, b.Start)
	clear(4, b.Up)
	clear(5, b.Right)
	clear(6, b.Down)
	clear(7, b.Left)
	return v
}

// DigitalHighByte packs l2/r2/l1/r1/triangle/circle/x/square.
func (b ButtonState) DigitalHighByte() uint8 {
	var v uint8 = 0xFF
	clear := func(bit uint, pressed bool) {
		if pressed {
			v &^= 1 << bit
		}
	}
	clear(0, b.L2)
	clear(1, b.R2)
	clear(2, b.L1)
	clear(3, b.R1)
	clear(4, b.Triangle)
	clear(5, b.Circle)
	clear(6, b.X)
	clear(7, b.Square)
	return v
}

type txState int

const (
	stateDisabled txState = iota
	stateReady
	stateTransferring
)

const ackDelayCycles = 350

// Controller models a single controller port's transfer state machine.
type Controller struct {
	state  txState
	step   int
	slot   uint8
	ctrl   uint16
	mode   uint16
	baud   uint16
	stat   uint32
	rxFIFO []byte

	ackCounter int
	Buttons    ButtonState
}

func New() *Controller {
	return &Controller{}
}

func (c *Controller) Reset() {
	*c = Controller{}
}

func (c *Controller) ReadStat() uint32 { return c.stat | 0x5 /* TX ready, TX finished */ }
func (c *Controller) ReadCtrl() uint16 { return c.ctrl }
func (c *Controller) ReadMode() uint16 { return c.mode }
func (c *Controller) ReadBaud() uint16 { return c.baud }

func (c *Controller) WriteMode(v uint16) { c.mode = v }
func (c *Controller) WriteBaud(v uint16) { c.baud = v }

// WriteCtrl handles JOY_CTRL: bit 0 enable/disable, bit 4 IRQ
// acknowledge, bit 6 reset.
func (c *Controller) WriteCtrl(v uint16) {
	c.ctrl = v
	if v&(1<<6) != 0 {
		c.Reset()
		return
	}
	if v&(1<<4) != 0 {
		c.stat &^= 1 << 9 // acknowledge IRQ
	}
	if v&1 != 0 {
		if c.state == stateDisabled {
			c.state = stateReady
		}
	} else {
		c.state = stateDisabled
	}
}

// ReadData pops the next byte deposited into the RX FIFO, or 0xFF if empty.
func (c *Controller) ReadData() uint8 {
	if len(c.rxFIFO) == 0 {
		return 0xFF
	}
	b := c.rxFIFO[0]
	c.rxFIFO = c.rxFIFO[1:]
	return b
}

// WriteData drives the transfer state machine per the controller's
// byte-exchange table.
func (c *Controller) WriteData(v uint8) {
	switch c.state {
	case stateReady:
		c.slot = v
		c.step = 0
		c.rxFIFO = append(c.rxFIFO, 0)
		if v == 0x01 {
			c.state = stateTransferring
		}
		c.queueIRQ()
	case stateTransferring:
		var response uint8
		switch c.step {
		case 0:
			response = 0x41
		case 1:
			response = 0x5A
		case 2:
			response = c.Buttons.DigitalLowByte()
		case 3:
			response = c.Buttons.DigitalHighByte()
			c.state = stateReady
		}
		c.rxFIFO = append(c.rxFIFO, response)
		if c.step < 3 {
			c.queueIRQ()
		}
		c.step++
	default:
		slog.Debug("sio: data write while disabled, ignored", "value", v)
	}
}

func (c *Controller) queueIRQ() {
	c.ackCounter = ackDelayCycles
}

// Advance counts down the pending acknowledge delay; when it reaches
// zero the controller IRQ is requested via raiseIRQ.
func (c *Controller) Advance(cycles int, raiseIRQ func()) {
	if c.ackCounter <= 0 {
		return
	}
	c.ackCounter -= cycles
	if c.ackCounter <= 0 {
		c.ackCounter = 0
		c.stat |= 1 << 9
		raiseIRQ()
	}
}
