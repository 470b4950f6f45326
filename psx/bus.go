package psx

import (
	"log/slog"

	"github.com/valerio/go-psxcore/psx/addr"
	"github.com/valerio/go-psxcore/psx/cdrom"
	"github.com/valerio/go-psxcore/psx/dma"
	"github.com/valerio/go-psxcore/psx/gpu"
	"github.com/valerio/go-psxcore/psx/intc"
	"github.com/valerio/go-psxcore/psx/mdec"
	"github.com/valerio/go-psxcore/psx/memory"
	"github.com/valerio/go-psxcore/psx/sio"
	"github.com/valerio/go-psxcore/psx/spu"
	"github.com/valerio/go-psxcore/psx/timer"
)

// Bus is the PSX address decoder: it masks KUSEG/
// KSEG0/KSEG1 down to a single physical range and dispatches every
// cpu.Bus call to the owning device. Grounded on go-jeebie's Bus,
// generalized from a single flat MMU read/write pair into a real
// device-range decode table.
type Bus struct {
	RAM        *memory.RAM
	Scratchpad *memory.Scratchpad
	BIOS       *memory.BIOS

	INTC  *intc.Controller
	Timer *timer.State
	DMA   *dma.Controller
	GPU   *gpu.GPU
	CDROM *cdrom.Drive
	MDEC  *mdec.Decoder
	SIO   *sio.Controller
	SPU   *spu.SPU

	cacheIsolated func() bool
}

func NewBus() *Bus {
	b := &Bus{
		RAM:        memory.NewRAM(),
		Scratchpad: memory.NewScratchpad(),
		INTC:       intc.New(),
		Timer:      timer.NewState(),
		DMA:        dma.New(),
		GPU:        gpu.New(),
		CDROM:      cdrom.New(),
		MDEC:       mdec.New(),
		SIO:        sio.New(),
		SPU:        spu.New(),
	}
	b.DMA.Ports = dma.Ports{
		ReadWord:             b.ReadWord,
		WriteWord:            b.dmaTargetWriteWord,
		GPUPushGP0:           b.GPU.PushGP0,
		GPUReadGP0:           b.GPU.ReadGP0,
		GPULinkedAcceptsMore: b.GPU.GPULinkedAcceptsMore,
		CDROMPopWord:         b.CDROM.PopDataWord,
		MDECPushWord:         b.MDEC.PushCommand,
		MDECPopWord:          b.MDEC.PopData,
		SPUPushWord:          b.SPU.WriteDMA,
		SPUPopWord:           b.SPU.ReadDMA,
		RaiseIRQ:             func() { b.INTC.Raise(addr.IRQDMA) },
	}
	return b
}

// SetBIOS installs the BIOS ROM image; the CPU can't fetch its reset
// vector until this is called.
func (b *Bus) SetBIOS(bios *memory.BIOS) { b.BIOS = bios }

// SetCacheIsolateCheck lets the CPU report COP0 STATUS bit 16 without
// the bus importing the cpu package back (avoiding an import cycle).
func (b *Bus) SetCacheIsolateCheck(f func() bool) { b.cacheIsolated = f }

func (b *Bus) Reset() {
	b.INTC.Reset()
	b.Timer.Reset()
	b.DMA.Reset()
	b.GPU.Reset()
	b.CDROM.Reset()
	b.MDEC.Reset()
	b.SIO.Reset()
	b.SPU.Reset()
}

func mask(address uint32) uint32 { return address & addr.RegionMask }

func inRange(a, lo, hi uint32) bool { return a >= lo && a <= hi }

// ReadWord implements cpu.Bus. Unaligned accesses are the CPU
// interpreter's responsibility to reject before calling here.
func (b *Bus) ReadWord(address uint32) uint32 {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		return b.RAM.ReadWord(a)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		return b.Scratchpad.ReadWord(a - addr.ScratchpadStart)
	case inRange(a, addr.BIOSStart, addr.BIOSEnd):
		return b.BIOS.ReadWord(a - addr.BIOSStart)
	case a == addr.IStatus:
		return b.INTC.ReadStatus()
	case a == addr.IMask:
		return b.INTC.ReadMask()
	case inRange(a, addr.DMAStart, addr.DMAEnd):
		return b.dmaReadWord(a)
	case inRange(a, addr.TimerStart, addr.TimerEnd):
		return b.Timer.ReadWord(a)
	case a == addr.GP0:
		return b.GPU.ReadGP0()
	case a == addr.GP1:
		return b.GPU.Status()
	case a == addr.MDECCommand:
		return b.MDEC.PopData()
	case a == addr.MDECControl:
		return b.MDEC.ReadStatus()
	case inRange(a, addr.ParallelPortStart, addr.ParallelPortEnd):
		return 0
	case a == addr.SIOStart+4: // JOY_STAT, the one SIO register that's genuinely 32-bit
		return b.SIO.ReadStat()
	case inRange(a, addr.SIOStart, addr.SIOEnd):
		return uint32(b.ReadHalf(a))
	case inRange(a, addr.CDRomStart, addr.CDRomEnd), inRange(a, addr.SPUStart, addr.SPUEnd):
		return uint32(b.ReadByte(a))
	default:
		slog.Debug("bus: unmapped word read", "addr", address)
		return 0
	}
}

func (b *Bus) WriteWord(address uint32, v uint32) {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		if b.cacheIsolated != nil && b.cacheIsolated() {
			return
		}
		b.RAM.WriteWord(a, v)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		b.Scratchpad.WriteWord(a-addr.ScratchpadStart, v)
	case inRange(a, addr.BIOSStart, addr.BIOSEnd):
		// BIOS is read-only.
	case a == addr.IStatus:
		b.INTC.WriteStatus(v)
	case a == addr.IMask:
		b.INTC.WriteMask(v)
	case inRange(a, addr.DMAStart, addr.DMAEnd):
		b.dmaTargetWriteWord(a, v)
	case inRange(a, addr.TimerStart, addr.TimerEnd):
		b.Timer.WriteWord(a, v)
	case a == addr.GP0:
		b.GPU.PushGP0(v)
	case a == addr.GP1:
		b.GPU.HandleGP1(v)
	case a == addr.MDECCommand:
		b.MDEC.PushCommand(v)
	case a == addr.MDECControl:
		b.MDEC.WriteControl(v)
	case inRange(a, addr.ParallelPortStart, addr.ParallelPortEnd):
		// ignored
	default:
		slog.Debug("bus: unmapped word write", "addr", address, "value", v)
	}
}

// dmaReadWord/dmaTargetWriteWord decode the per-channel base/block/
// control registers plus DPCR/DICR, following the
// `{base,block,control}` channel layout: each channel occupies 0x10
// bytes starting at addr.DMAStart, with DPCR/DICR as a virtual eighth
// slot. Named dmaTargetWriteWord (not dmaWriteWord) so it reads
// distinctly from dma.Ports.WriteWord, which is the DMA engine's own
// callback into this same bus for moving payload words.
func (b *Bus) dmaReadWord(a uint32) uint32 {
	off := a - addr.DMAStart
	ch := off / 0x10
	reg := off % 0x10
	if ch == 7 {
		if reg == 0x0 {
			return b.DMA.DPCR
		}
		return b.DMA.ReadDICR()
	}
	c := &b.DMA.Channels[ch]
	switch reg {
	case 0x0:
		return c.BaseAddr
	case 0x4:
		return c.Block
	case 0x8:
		return c.Control
	default:
		return 0
	}
}

func (b *Bus) dmaTargetWriteWord(a uint32, v uint32) {
	off := a - addr.DMAStart
	ch := off / 0x10
	reg := off % 0x10
	if ch == 7 {
		if reg == 0x0 {
			b.DMA.DPCR = v
		} else {
			b.DMA.WriteDICR(v)
		}
		return
	}
	c := &b.DMA.Channels[ch]
	switch reg {
	case 0x0:
		c.BaseAddr = v & 0xFFFFFF
	case 0x4:
		c.Block = v
	case 0x8:
		c.Control = v
	}
	b.DMA.Run()
}

func (b *Bus) ReadHalf(address uint32) uint16 {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		return b.RAM.ReadHalf(a)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		return b.Scratchpad.ReadHalf(a - addr.ScratchpadStart)
	case inRange(a, addr.BIOSStart, addr.BIOSEnd):
		return b.BIOS.ReadHalf(a - addr.BIOSStart)
	case inRange(a, addr.SPUStart, addr.SPUEnd):
		return b.SPU.ReadHalf(a)
	case a == addr.SIOStart: // JOY_DATA
		return uint16(b.SIO.ReadData())
	case a == addr.SIOStart+4: // JOY_STAT low half
		return uint16(b.SIO.ReadStat())
	case a == addr.SIOStart+6: // JOY_STAT high half
		return uint16(b.SIO.ReadStat() >> 16)
	case a == addr.SIOStart+8:
		return b.SIO.ReadMode()
	case a == addr.SIOStart+0xA:
		return b.SIO.ReadCtrl()
	case a == addr.SIOStart+0xE:
		return b.SIO.ReadBaud()
	case inRange(a, addr.SIOStart, addr.SIOEnd):
		return 0 // reserved SIO sub-register
	default:
		return uint16(b.ReadWord(a &^ 1))
	}
}

func (b *Bus) WriteHalf(address uint32, v uint16) {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		if b.cacheIsolated != nil && b.cacheIsolated() {
			return
		}
		b.RAM.WriteHalf(a, v)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		b.Scratchpad.WriteHalf(a-addr.ScratchpadStart, v)
	case inRange(a, addr.SPUStart, addr.SPUEnd):
		b.SPU.WriteHalf(a, v)
	case a == addr.SIOStart+8:
		b.SIO.WriteMode(v)
	case a == addr.SIOStart+0xA:
		b.SIO.WriteCtrl(v)
	case a == addr.SIOStart+0xE:
		b.SIO.WriteBaud(v)
	case a == addr.IStatus:
		b.INTC.WriteStatus(uint32(v))
	case a == addr.IMask:
		b.INTC.WriteMask(uint32(v))
	default:
		slog.Debug("bus: unmapped half write", "addr", address, "value", v)
	}
}

func (b *Bus) ReadByte(address uint32) byte {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		return b.RAM.ReadByte(a)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		return b.Scratchpad.ReadByte(a - addr.ScratchpadStart)
	case inRange(a, addr.BIOSStart, addr.BIOSEnd):
		return b.BIOS.ReadByte(a - addr.BIOSStart)
	case a == addr.CDRomStart:
		return b.CDROM.ReadStatus()
	case inRange(a, addr.CDRomStart+1, addr.CDRomEnd):
		return b.CDROM.ReadRegister(int(a - addr.CDRomStart))
	case a == addr.SIOStart: // JOY_DATA low byte
		return b.SIO.ReadData()
	default:
		return byte(b.ReadWord(a &^ 3) >> ((a & 3) * 8))
	}
}

func (b *Bus) WriteByte(address uint32, v byte) {
	a := mask(address)
	switch {
	case inRange(a, addr.RAMStart, addr.RAMEnd):
		if b.cacheIsolated != nil && b.cacheIsolated() {
			return
		}
		b.RAM.WriteByte(a, v)
	case inRange(a, addr.ScratchpadStart, addr.ScratchpadEnd):
		b.Scratchpad.WriteByte(a-addr.ScratchpadStart, v)
	case a == addr.CDRomStart:
		b.CDROM.WriteRegister(0, v)
	case inRange(a, addr.CDRomStart+1, addr.CDRomEnd):
		b.CDROM.WriteRegister(int(a-addr.CDRomStart), v)
	case a == addr.SIOStart: // JOY_DATA low byte
		b.SIO.WriteData(v)
	default:
		slog.Debug("bus: unmapped byte write", "addr", address, "value", v)
	}
}

// ConsumeVBlankEdge and InterruptPending implement the two cpu.Bus
// hooks the instruction step polls each cycle: the one-shot vblank
// edge and the Int exception gate.
func (b *Bus) ConsumeVBlankEdge() bool {
	edge := b.GPU.ConsumeVBlankEdge()
	if edge {
		b.INTC.Raise(addr.IRQVBlank)
	}
	return edge
}

func (b *Bus) InterruptPending() bool { return b.INTC.Pending() }

// Tick advances every cycle-driven device by one step: the DMA scan,
// the GPU pixel counter, hblank- and system-clock-sourced timers, the
// CD-ROM packet queue, and the SIO ACK delay. Called once per
// three CPU instructions from the Emulator's fixed tick order.
func (b *Bus) Tick() {
	b.DMA.Run()
	b.GPU.Tick()
	if b.GPU.ConsumeHBlankEdge() {
		b.advanceHBlankTimers()
	}
	b.advanceSystemTimers()
	b.CDROM.Advance(1, func() { b.INTC.Raise(addr.IRQCDROM) })
	b.SIO.Advance(1, func() { b.INTC.Raise(addr.IRQController) })
}

// advanceHBlankTimers feeds one hblank period's worth of ticks to any
// timer sourced from hblank, per the per-timer source table.
func (b *Bus) advanceHBlankTimers() {
	t1 := b.Timer.Timers[timer.Timer1]
	if t1.Source() == timer.SourceHblank {
		t1.Advance(1, b.raiseTimerIRQ)
	}
}

// advanceSystemTimers feeds one system-clock cycle to every timer
// sourced from it (dot-clock and sysclock/8 are approximated at the
// same rate, since this core doesn't model the GPU dot-clock divider
// per timer).
func (b *Bus) advanceSystemTimers() {
	for _, t := range b.Timer.Timers {
		switch t.Source() {
		case timer.SourceSystem, timer.SourceDotclock, timer.SourceSystemDiv8:
			t.Advance(1, b.raiseTimerIRQ)
		}
	}
}

func (b *Bus) raiseTimerIRQ(idx timer.Index) {
	switch idx {
	case timer.Timer0:
		b.INTC.Raise(addr.IRQTimer0)
	case timer.Timer1:
		b.INTC.Raise(addr.IRQTimer1)
	case timer.Timer2:
		b.INTC.Raise(addr.IRQTimer2)
	}
}
