// Package spu is a register-backed stub for the SPU audio mixer.
// Audio mixing is out of scope; this package exists so the bus has
// somewhere to route 0x1F801C00..0x1F801E80 without special-casing
// "ignore" at the bus layer, and so DMA channel 4 has a destination to
// write into.
package spu

import "github.com/valerio/go-psxcore/psx/addr"

// SPU holds the raw register file; nothing it stores is interpreted.
type SPU struct {
	registers [(addr.SPUEnd - addr.SPUStart + 1) / 2]uint16
	irqAddr   uint16
}

func New() *SPU {
	return &SPU{}
}

func (s *SPU) Reset() {
	for i := range s.registers {
		s.registers[i] = 0
	}
	s.irqAddr = 0
}

func (s *SPU) ReadHalf(address uint32) uint16 {
	idx := (address - addr.SPUStart) / 2
	if int(idx) >= len(s.registers) {
		return 0
	}
	return s.registers[idx]
}

func (s *SPU) WriteHalf(address uint32, value uint16) {
	idx := (address - addr.SPUStart) / 2
	if int(idx) >= len(s.registers) {
		return
	}
	s.registers[idx] = value
}

// WriteDMA accepts a word from DMA channel 4 and drops it: SPU DMA is
// stubbed to no-op writes.
func (s *SPU) WriteDMA(uint32) {}

// ReadDMA supplies a word to DMA channel 4 reads from the SPU; the stub
// always returns silence.
func (s *SPU) ReadDMA() uint32 { return 0 }
