// Package memory implements the PSX's raw byte-addressed backing
// stores: main RAM, the CPU scratchpad and the BIOS ROM. It mirrors the
// teacher's memory package in spirit (byte slices with little-endian
// word/half/byte accessors) but drops the Game Boy cartridge/MBC model,
// which has no PSX equivalent.
package memory

import (
	"encoding/binary"
	"fmt"

	"github.com/valerio/go-psxcore/psx/addr"
)

// RAM is the 2 MiB main memory plane.
type RAM struct {
	data [addr.RAMSize]byte
}

func NewRAM() *RAM { return &RAM{} }

func (r *RAM) ReadByte(offset uint32) uint8 { return r.data[offset%addr.RAMSize] }
func (r *RAM) ReadHalf(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(r.data[offset%addr.RAMSize:])
}
func (r *RAM) ReadWord(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(r.data[offset%addr.RAMSize:])
}

func (r *RAM) WriteByte(offset uint32, v uint8) { r.data[offset%addr.RAMSize] = v }
func (r *RAM) WriteHalf(offset uint32, v uint16) {
	binary.LittleEndian.PutUint16(r.data[offset%addr.RAMSize:], v)
}
func (r *RAM) WriteWord(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(r.data[offset%addr.RAMSize:], v)
}

// Scratchpad is the 1 KiB CPU-local fast RAM.
type Scratchpad struct {
	data [addr.ScratchpadSize]byte
}

func NewScratchpad() *Scratchpad { return &Scratchpad{} }

func (s *Scratchpad) ReadByte(offset uint32) uint8 { return s.data[offset%addr.ScratchpadSize] }
func (s *Scratchpad) ReadHalf(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(s.data[offset%addr.ScratchpadSize:])
}
func (s *Scratchpad) ReadWord(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(s.data[offset%addr.ScratchpadSize:])
}
func (s *Scratchpad) WriteByte(offset uint32, v uint8) { s.data[offset%addr.ScratchpadSize] = v }
func (s *Scratchpad) WriteHalf(offset uint32, v uint16) {
	binary.LittleEndian.PutUint16(s.data[offset%addr.ScratchpadSize:], v)
}
func (s *Scratchpad) WriteWord(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(s.data[offset%addr.ScratchpadSize:], v)
}

// BIOS is the read-only 512 KiB BIOS ROM.
type BIOS struct {
	data [addr.BIOSSize]byte
}

// NewBIOS loads a BIOS image, requiring exactly 512 KiB.
func NewBIOS(image []byte) (*BIOS, error) {
	if len(image) != int(addr.BIOSSize) {
		return nil, fmt.Errorf("bios image must be exactly %d bytes, got %d", addr.BIOSSize, len(image))
	}
	b := &BIOS{}
	copy(b.data[:], image)
	return b, nil
}

func (b *BIOS) ReadByte(offset uint32) uint8 { return b.data[offset%addr.BIOSSize] }
func (b *BIOS) ReadHalf(offset uint32) uint16 {
	return binary.LittleEndian.Uint16(b.data[offset%addr.BIOSSize:])
}
func (b *BIOS) ReadWord(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(b.data[offset%addr.BIOSSize:])
}
