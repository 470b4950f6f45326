// Package dma implements the seven-channel PSX DMA controller, grounded
// on the original source's dma.rs for the DICR write-one-to-clear bit
// math and the OTC/linked-list/CDROM channel quirks.
package dma

import (
	"log/slog"

	"github.com/valerio/go-psxcore/psx/bit"
)

// Channel index constants, in scan order.
const (
	ChanMDECIn = iota
	ChanMDECOut
	ChanGPU
	ChanCDROM
	ChanSPU
	ChanPIO
	ChanOTC
)

// SyncMode values.
const (
	SyncImmediate = iota
	SyncBlock
	SyncLinkedList
)

// Channel is one of the seven DMA channels' register triple.
type Channel struct {
	BaseAddr uint32 // 24 bit
	Block    uint32 // BC (low 16) | BA<<16
	Control  uint32
}

func (c *Channel) SyncMode() uint32 { return bit.Extract(c.Control, 10, 9) }
func (c *Channel) Busy() bool       { return bit.IsSet(24, c.Control) }
func (c *Channel) Triggered() bool  { return bit.IsSet(28, c.Control) }
func (c *Channel) ToDevice() bool   { return bit.IsSet(0, c.Control) }

// Enabled reports whether the channel is armed to run: start/busy set
// and (sync mode isn't immediate, or the immediate trigger bit is set).
func (c *Channel) Enabled() bool {
	return c.Busy() && (c.SyncMode() != SyncImmediate || c.Triggered())
}

func (c *Channel) BlockSize() uint32 {
	bc := c.Block & 0xFFFF
	if bc == 0 {
		return 0x10000
	}
	return bc
}

func (c *Channel) BlockCount() uint32 { return c.Block >> 16 }

// complete clears start/busy and the trigger bit on finish.
func (c *Channel) complete() {
	c.Control &^= 1 << 24
	c.Control &^= 1 << 28
}

// Ports collects the per-channel device hooks a Controller needs to
// actually move words. Channels not relevant to a port may leave the
// corresponding field nil.
type Ports struct {
	ReadWord  func(addr uint32) uint32
	WriteWord func(addr uint32, v uint32)

	GPUPushGP0   func(word uint32)
	GPUReadGP0   func() uint32
	GPULinkedAcceptsMore func() bool

	CDROMPopWord func() uint32

	MDECPushWord func(word uint32)
	MDECPopWord  func() uint32

	SPUPushWord func(word uint32)
	SPUPopWord  func() uint32

	RaiseIRQ func()
}

// Controller owns all 7 channels plus DPCR (priority/enable) and DICR
// (interrupt control).
type Controller struct {
	Channels [7]Channel
	DPCR     uint32
	dicr     uint32

	Ports Ports
}

func New() *Controller {
	return &Controller{DPCR: 0x07654321}
}

func (c *Controller) Reset() {
	*c = Controller{DPCR: 0x07654321, Ports: c.Ports}
}

func (c *Controller) masterEnabled(ch int) bool {
	return bit.IsSet(uint(ch*4+3), c.DPCR)
}

// ReadDICR / WriteDICR implement the register at 0x1F8010F4.
func (c *Controller) ReadDICR() uint32 { return c.dicr }

func (c *Controller) WriteDICR(value uint32) {
	normalBits := value & 0xFFFFFF
	ackBits := (value >> 24) & 0x7F
	ackedBits := ((c.dicr >> 24) & 0x7F) &^ ackBits
	c.dicr = normalBits | (ackedBits << 24)
	c.updateMasterFlag()
}

func (c *Controller) updateMasterFlag() {
	forced := bit.IsSet(15, c.dicr)
	masterEnable := bit.IsSet(23, c.dicr)
	enableBits := (c.dicr >> 16) & 0x7F
	flagBits := (c.dicr >> 24) & 0x7F
	anyFired := masterEnable && (enableBits&flagBits) != 0

	c.dicr &^= 1 << 31
	if forced || anyFired {
		c.dicr |= 1 << 31
	}
}

// raiseChannelIRQ sets a channel's flag bit in DICR and fires the
// system DMA interrupt if the master flag rises 0->1.
func (c *Controller) raiseChannelIRQ(ch int) {
	before := bit.IsSet(31, c.dicr)
	c.dicr |= 1 << (24 + uint(ch))
	c.updateMasterFlag()
	after := bit.IsSet(31, c.dicr)
	if !before && after && c.Ports.RaiseIRQ != nil {
		c.Ports.RaiseIRQ()
	}
}

// Run scans every channel in index order and executes any channel whose
// DPCR master-enable bit and local enable are both set, to completion,
// synchronously.
func (c *Controller) Run() {
	for i := range c.Channels {
		if !c.masterEnabled(i) {
			continue
		}
		ch := &c.Channels[i]
		if !ch.Enabled() {
			continue
		}
		c.execute(i, ch)
	}
}

func (c *Controller) execute(index int, ch *Channel) {
	switch index {
	case ChanMDECIn:
		c.runMDECIn(ch)
	case ChanMDECOut:
		c.runMDECOut(ch)
	case ChanGPU:
		c.runGPU(ch)
	case ChanCDROM:
		c.runCDROM(ch)
	case ChanSPU:
		c.runSPU(ch)
	case ChanPIO:
		// Not wired to any device; the PSX never uses this in practice.
	case ChanOTC:
		c.runOTC(ch)
	}
	ch.complete()
	c.raiseChannelIRQ(index)
}

func (c *Controller) runMDECIn(ch *Channel) {
	count := ch.BlockCount() * ch.BlockSize()
	addr := ch.BaseAddr & 0x1FFFFC
	for i := uint32(0); i < count; i++ {
		word := c.Ports.ReadWord(addr)
		if c.Ports.MDECPushWord != nil {
			c.Ports.MDECPushWord(word)
		}
		addr += 4
	}
}

func (c *Controller) runMDECOut(ch *Channel) {
	count := ch.BlockCount() * ch.BlockSize()
	addr := ch.BaseAddr & 0x1FFFFC
	for i := uint32(0); i < count; i++ {
		var word uint32
		if c.Ports.MDECPopWord != nil {
			word = c.Ports.MDECPopWord()
		}
		c.Ports.WriteWord(addr, word)
		addr += 4
	}
}

func (c *Controller) runGPU(ch *Channel) {
	switch ch.SyncMode() {
	case SyncLinkedList:
		c.runGPULinkedList(ch)
	default:
		c.runGPUBlock(ch)
	}
}

func (c *Controller) runGPULinkedList(ch *Channel) {
	addr := ch.BaseAddr & 0x1FFFFC
	for {
		header := c.Ports.ReadWord(addr)
		size := header >> 24
		next := header & 0xFFFFFF

		nodeAddr := addr + 4
		for i := uint32(0); i < size; i++ {
			word := c.Ports.ReadWord(nodeAddr)
			c.Ports.GPUPushGP0(word)
			nodeAddr += 4
		}

		if next&0x800000 != 0 || next == 0xFFFFFF {
			break
		}
		addr = next & 0x1FFFFC
	}
}

func (c *Controller) runGPUBlock(ch *Channel) {
	count := ch.BlockCount() * ch.BlockSize()
	addr := ch.BaseAddr & 0x1FFFFC
	toDevice := ch.ToDevice()
	for i := uint32(0); i < count; i++ {
		if toDevice {
			c.Ports.GPUPushGP0(c.Ports.ReadWord(addr))
		} else {
			c.Ports.WriteWord(addr, c.Ports.GPUReadGP0())
		}
		addr += 4
	}
}

// runCDROM drains the CD drive's data queue into RAM, one word per
// block entry. A queue shorter than the block is not wrapped around:
// once it is empty, the remaining words are whatever CDROMPopWord
// returns for an empty queue (zero from the drive).
func (c *Controller) runCDROM(ch *Channel) {
	count := ch.BlockCount() * ch.BlockSize()
	addr := ch.BaseAddr & 0x1FFFFC
	var first uint32
	for i := uint32(0); i < count; i++ {
		word := c.Ports.CDROMPopWord()
		if i == 0 {
			first = word
		}
		c.Ports.WriteWord(addr, word)
		addr += 4
	}
	_ = first
}

func (c *Controller) runSPU(ch *Channel) {
	count := ch.BlockCount() * ch.BlockSize()
	addr := ch.BaseAddr & 0x1FFFFC
	toDevice := ch.ToDevice()
	for i := uint32(0); i < count; i++ {
		if toDevice {
			if c.Ports.SPUPushWord != nil {
				c.Ports.SPUPushWord(c.Ports.ReadWord(addr))
			}
		} else {
			var word uint32
			if c.Ports.SPUPopWord != nil {
				word = c.Ports.SPUPopWord()
			}
			c.Ports.WriteWord(addr, word)
		}
		addr += 4
	}
}

// runOTC reverse-initializes a GPU ordering table: the entry at the
// base address (the highest address in the table) becomes the list
// terminator; every entry below it points at the next lower word,
// descending by 4 bytes per entry, all masked to 24 bits.
func (c *Controller) runOTC(ch *Channel) {
	entries := ch.BlockSize()
	base := ch.BaseAddr & 0x1FFFFC

	if entries == 0 {
		return
	}
	for i := uint32(0); i < entries; i++ {
		address := base - i*4
		if i == 0 {
			c.Ports.WriteWord(address, 0x00FFFFFF)
		} else {
			c.Ports.WriteWord(address, (address-4)&0x00FFFFFF)
		}
	}
	slog.Debug("dma: OTC initialized", "base", base, "entries", entries)
}
