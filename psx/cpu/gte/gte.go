// Package gte implements the Geometry Transformation Engine, the
// fixed-point vector/matrix coprocessor (COP2) used for 3D projection
// and lighting. Grounded on the original source's
// cpu/gte module for register layout, command set, and the exact
// saturation/overflow bit assignments PSX software depends on.
package gte

// color is the packed RGBC/RGB0-2 register: three 8-bit channels plus
// a per-vertex code byte (used as a texture-blend mode selector
// downstream in the GPU, not interpreted here).
type color struct {
	r, g, b, c uint8
}

func (c color) word() uint32 {
	return uint32(c.r) | uint32(c.g)<<8 | uint32(c.b)<<16 | uint32(c.c)<<24
}

func (c *color) setWord(val uint32) {
	c.r = uint8(val)
	c.g = uint8(val >> 8)
	c.b = uint8(val >> 16)
	c.c = uint8(val >> 24)
}

// GTE holds every control and data register the real hardware exposes
// through MTC2/MFC2/CTC2/CFC2 and the command FIFO. Field types match
// the hardware's own signedness so Go's shift/compare operators do the
// right thing without extra masking at each use site.
type GTE struct {
	// Rotation matrix.
	RT11, RT12, RT13 int16
	RT21, RT22, RT23 int16
	RT31, RT32, RT33 int16

	// Translation vector.
	TRX, TRY, TRZ int32

	// Light matrix.
	L11, L12, L13 int16
	L21, L22, L23 int16
	L31, L32, L33 int16

	// Background color.
	RBK, GBK, BBK int32

	// Light color matrix.
	LR1, LR2, LR3 int16
	LG1, LG2, LG3 int16
	LB1, LB2, LB3 int16

	// Far color.
	RFC, GFC, BFC int32

	// Screen offset / projection plane / depth cueing.
	OFX, OFY int32
	H        uint16
	DQA      int16
	DQB      int32
	ZSF3     int16
	ZSF4     int16

	FLAG uint32
	LZCS int32

	// Input vectors V0..V2.
	VX0, VY0, VZ0 int16
	VX1, VY1, VZ1 int16
	VX2, VY2, VZ2 int16

	IR0, IR1, IR2, IR3 int16

	MAC0, MAC1, MAC2, MAC3 int32

	SZ0, SZ1, SZ2, SZ3 uint16
	SX0, SX1, SX2      int16
	SY0, SY1, SY2      int16

	RGBC, RGB0, RGB1, RGB2 color

	RES1 uint32
	OTZ  uint16
	IRGB uint32
}

func New() *GTE {
	g := &GTE{}
	g.Reset()
	return g
}

// Reset clears every register to zero, matching power-on/soft reset:
// the GTE carries no reset-time identity values the way COP0's
// STATUS.BEV does.
func (g *GTE) Reset() {
	*g = GTE{}
}

// Command runs one COP2 GTE opcode (the low 6 bits of the instruction
// word passed to a COP2 instruction with bit 25 set). FLAG is cleared
// before every command: flags reflect only the most recently executed
// instruction.
func (g *GTE) Command(word uint32) {
	g.FLAG = 0
	switch word & 0x3F {
	case 0x01:
		g.rtps(word)
	case 0x06:
		g.nclip()
	case 0x0c:
		g.op(word)
	case 0x10:
		g.dpcs(word)
	case 0x11:
		g.intpl(word)
	case 0x12:
		g.mvmva(word)
	case 0x13:
		g.ncds(word)
	case 0x14:
		g.cdp(word)
	case 0x16:
		g.ncdt(word)
	case 0x1b:
		g.nccs(word)
	case 0x1c:
		g.cc(word)
	case 0x1e:
		g.ncs(word)
	case 0x20:
		g.nct(word)
	case 0x2d:
		g.avsz3()
	case 0x2e:
		g.avsz4()
	case 0x30:
		g.rtpt(word)
	case 0x3f:
		g.ncct(word)
	}
}

// ReadData implements MFC2 for the 32 GTE data registers.
func (g *GTE) ReadData(reg uint32) uint32 {
	switch reg & 0x1F {
	case 0:
		return uint32(uint16(g.VY0))<<16 | uint32(uint16(g.VX0))
	case 1:
		return uint32(uint32(int32(g.VZ0)))
	case 2:
		return uint32(uint16(g.VY1))<<16 | uint32(uint16(g.VX1))
	case 3:
		return uint32(int32(g.VZ1))
	case 4:
		return uint32(uint16(g.VY2))<<16 | uint32(uint16(g.VX2))
	case 5:
		return uint32(int32(g.VZ2))
	case 6:
		return g.RGBC.word()
	case 7:
		return uint32(g.OTZ)
	case 8:
		return uint32(int32(g.IR0))
	case 9:
		return uint32(int32(g.IR1))
	case 10:
		return uint32(int32(g.IR2))
	case 11:
		return uint32(int32(g.IR3))
	case 12:
		return uint32(uint16(g.SY0))<<16 | uint32(uint16(g.SX0))
	case 13:
		return uint32(uint16(g.SY1))<<16 | uint32(uint16(g.SX1))
	case 14, 15:
		return uint32(uint16(g.SY2))<<16 | uint32(uint16(g.SX2))
	case 16:
		return uint32(g.SZ0)
	case 17:
		return uint32(g.SZ1)
	case 18:
		return uint32(g.SZ2)
	case 19:
		return uint32(g.SZ3)
	case 20:
		return g.RGB0.word()
	case 21:
		return g.RGB1.word()
	case 22:
		return g.RGB2.word()
	case 23:
		return g.RES1
	case 24:
		return uint32(g.MAC0)
	case 25:
		return uint32(g.MAC1)
	case 26:
		return uint32(g.MAC2)
	case 27:
		return uint32(g.MAC3)
	case 28, 29:
		return g.orgb()
	case 30:
		return uint32(g.LZCS)
	case 31:
		return g.lzcr()
	}
	return 0
}

// WriteData implements MTC2 for the 32 GTE data registers.
func (g *GTE) WriteData(reg uint32, val uint32) {
	switch reg & 0x1F {
	case 0:
		g.VX0 = int16(val)
		g.VY0 = int16(val >> 16)
	case 1:
		g.VZ0 = int16(val)
	case 2:
		g.VX1 = int16(val)
		g.VY1 = int16(val >> 16)
	case 3:
		g.VZ1 = int16(val)
	case 4:
		g.VX2 = int16(val)
		g.VY2 = int16(val >> 16)
	case 5:
		g.VZ2 = int16(val)
	case 6:
		g.RGBC.setWord(val)
	case 7:
		g.OTZ = uint16(val)
	case 8:
		g.IR0 = int16(val)
	case 9:
		g.IR1 = int16(val)
	case 10:
		g.IR2 = int16(val)
	case 11:
		g.IR3 = int16(val)
	case 12:
		g.SX0 = int16(val)
		g.SY0 = int16(val >> 16)
	case 13:
		g.SX1 = int16(val)
		g.SY1 = int16(val >> 16)
	case 14:
		g.SX2 = int16(val)
		g.SY2 = int16(val >> 16)
	case 15:
		g.pushSX(int16(val))
		g.pushSY(int16(val >> 16))
	case 16:
		g.SZ0 = uint16(val)
	case 17:
		g.SZ1 = uint16(val)
	case 18:
		g.SZ2 = uint16(val)
	case 19:
		g.SZ3 = uint16(val)
	case 20:
		g.RGB0.setWord(val)
	case 21:
		g.RGB1.setWord(val)
	case 22:
		g.RGB2.setWord(val)
	case 23:
		g.RES1 = val
	case 24:
		g.MAC0 = int32(val)
	case 25:
		g.MAC1 = int32(val)
	case 26:
		g.MAC2 = int32(val)
	case 27:
		g.MAC3 = int32(val)
	case 28:
		g.irgb(val)
		g.IRGB = val & 0x7FFF
	case 29:
		// ORGB is read-only.
	case 30:
		g.LZCS = int32(val)
	case 31:
		// LZCR is read-only.
	}
}

// ReadControl implements CFC2 for the 32 GTE control registers.
func (g *GTE) ReadControl(reg uint32) uint32 {
	switch reg & 0x1F {
	case 0:
		return uint32(uint16(g.RT12))<<16 | uint32(uint16(g.RT11))
	case 1:
		return uint32(uint16(g.RT21))<<16 | uint32(uint16(g.RT13))
	case 2:
		return uint32(uint16(g.RT23))<<16 | uint32(uint16(g.RT22))
	case 3:
		return uint32(uint16(g.RT32))<<16 | uint32(uint16(g.RT31))
	case 4:
		return uint32(int32(g.RT33))
	case 5:
		return uint32(g.TRX)
	case 6:
		return uint32(g.TRY)
	case 7:
		return uint32(g.TRZ)
	case 8:
		return uint32(uint16(g.L11)) | uint32(uint16(g.L12))<<16
	case 9:
		return uint32(uint16(g.L13)) | uint32(uint16(g.L21))<<16
	case 10:
		return uint32(uint16(g.L22)) | uint32(uint16(g.L23))<<16
	case 11:
		return uint32(uint16(g.L31)) | uint32(uint16(g.L32))<<16
	case 12:
		return uint32(int32(g.L33))
	case 13:
		return uint32(g.RBK)
	case 14:
		return uint32(g.GBK)
	case 15:
		return uint32(g.BBK)
	case 16:
		return uint32(uint16(g.LR1)) | uint32(uint16(g.LR2))<<16
	case 17:
		return uint32(uint16(g.LR3)) | uint32(uint16(g.LG1))<<16
	case 18:
		return uint32(uint16(g.LG2)) | uint32(uint16(g.LG3))<<16
	case 19:
		return uint32(uint16(g.LB1)) | uint32(uint16(g.LB2))<<16
	case 20:
		return uint32(int32(g.LB3))
	case 21:
		return uint32(g.RFC)
	case 22:
		return uint32(g.GFC)
	case 23:
		return uint32(g.BFC)
	case 24:
		return uint32(g.OFX)
	case 25:
		return uint32(g.OFY)
	case 26:
		return uint32(int32(int16(g.H))) // replicates hardware's sign-extension of H on readback
	case 27:
		return uint32(g.DQA)
	case 28:
		return uint32(g.DQB)
	case 29:
		return uint32(g.ZSF3)
	case 30:
		return uint32(g.ZSF4)
	case 31:
		hasError := g.FLAG&0x7F87E000 != 0
		flag := g.FLAG
		if hasError {
			flag |= 1 << 31
		}
		return flag
	}
	return 0
}

// WriteControl implements CTC2 for the 32 GTE control registers.
func (g *GTE) WriteControl(reg uint32, val uint32) {
	switch reg & 0x1F {
	case 0:
		g.RT11 = int16(val)
		g.RT12 = int16(val >> 16)
	case 1:
		g.RT13 = int16(val)
		g.RT21 = int16(val >> 16)
	case 2:
		g.RT22 = int16(val)
		g.RT23 = int16(val >> 16)
	case 3:
		g.RT31 = int16(val)
		g.RT32 = int16(val >> 16)
	case 4:
		g.RT33 = int16(val)
	case 5:
		g.TRX = int32(val)
	case 6:
		g.TRY = int32(val)
	case 7:
		g.TRZ = int32(val)
	case 8:
		g.L11 = int16(val)
		g.L12 = int16(val >> 16)
	case 9:
		g.L13 = int16(val)
		g.L21 = int16(val >> 16)
	case 10:
		g.L22 = int16(val)
		g.L23 = int16(val >> 16)
	case 11:
		g.L31 = int16(val)
		g.L32 = int16(val >> 16)
	case 12:
		g.L33 = int16(val)
	case 13:
		g.RBK = int32(val)
	case 14:
		g.GBK = int32(val)
	case 15:
		g.BBK = int32(val)
	case 16:
		g.LR1 = int16(val)
		g.LR2 = int16(val >> 16)
	case 17:
		g.LR3 = int16(val)
		g.LG1 = int16(val >> 16)
	case 18:
		g.LG2 = int16(val)
		g.LG3 = int16(val >> 16)
	case 19:
		g.LB1 = int16(val)
		g.LB2 = int16(val >> 16)
	case 20:
		g.LB3 = int16(val)
	case 21:
		g.RFC = int32(val)
	case 22:
		g.GFC = int32(val)
	case 23:
		g.BFC = int32(val)
	case 24:
		g.OFX = int32(val)
	case 25:
		g.OFY = int32(val)
	case 26:
		g.H = uint16(val)
	case 27:
		g.DQA = int16(val)
	case 28:
		g.DQB = int32(val)
	case 29:
		g.ZSF3 = int16(val)
	case 30:
		g.ZSF4 = int16(val)
	case 31:
		g.FLAG = (g.FLAG &^ (0x7FFFF << 12)) | (((val >> 12) & 0x7FFFF) << 12)
	}
}

func (g *GTE) pushSZ(val uint16) { g.SZ0, g.SZ1, g.SZ2, g.SZ3 = g.SZ1, g.SZ2, g.SZ3, val }
func (g *GTE) pushSX(val int16)  { g.SX0, g.SX1, g.SX2 = g.SX1, g.SX2, val }
func (g *GTE) pushSY(val int16)  { g.SY0, g.SY1, g.SY2 = g.SY1, g.SY2, val }
func (g *GTE) pushColor(c color) { g.RGB0, g.RGB1, g.RGB2 = g.RGB1, g.RGB2, c }

// lzcr answers the LZCS leading zero/one count (sign-dependent), the
// classic PSX "count leading same-sign bits" instruction the BIOS uses
// for fast normalization.
func (g *GTE) lzcr() uint32 {
	if g.LZCS >= 0 {
		return leadingZeros32(uint32(g.LZCS))
	}
	return leadingOnes32(uint32(g.LZCS))
}

func leadingZeros32(v uint32) uint32 {
	n := uint32(0)
	for i := 31; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

func leadingOnes32(v uint32) uint32 {
	return leadingZeros32(^v)
}

// irgb unpacks a 15-bit RGB555 value into IR1/2/3, the inverse of orgb.
func (g *GTE) irgb(val uint32) {
	r := val & 0x1F
	gg := (val >> 5) & 0x1F
	b := (val >> 10) & 0x1F
	g.truncateWriteIr1(int32(r)*0x80, false)
	g.truncateWriteIr2(int32(gg)*0x80, false)
	g.truncateWriteIr3(int32(b)*0x80, false)
}

// orgb packs IR1/2/3 (each divided by 0x80, clamped to 5 bits) into a
// 15-bit RGB555 value.
func (g *GTE) orgb() uint32 {
	clamp5 := func(v int16) uint32 {
		x := int32(v) / 0x80
		if x < 0 {
			x = 0
		}
		if x > 0x1F {
			x = 0x1F
		}
		return uint32(x)
	}
	r := clamp5(g.IR1)
	gg := clamp5(g.IR2)
	b := clamp5(g.IR3)
	return r | gg<<5 | b<<10
}
