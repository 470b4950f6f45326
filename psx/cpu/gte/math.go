package gte

// mac identifies which of MAC1/2/3's FLAG overflow bit pair a 44-bit
// accumulation check applies to.
type mac int

const (
	mac1 mac = iota
	mac2
	mac3
)

// i64ToI44 truncates an intermediate dot-product accumulator to the
// hardware's 44-bit-wide MAC path, setting the matching overflow FLAG
// bit pair when the pre-truncation value didn't fit. Used between each
// term of a matrix-vector multiply, not just on the final sum.
func (g *GTE) i64ToI44(val int64, m mac) int64 {
	var gtBit, ltBit uint
	switch m {
	case mac1:
		gtBit, ltBit = 30, 27
	case mac2:
		gtBit, ltBit = 29, 26
	case mac3:
		gtBit, ltBit = 28, 25
	}
	if val > 0x7ffffffffff {
		g.FLAG |= 1 << gtBit
	} else if val < -0x80000000000 {
		g.FLAG |= 1 << ltBit
	}
	return signExtend(val, 44)
}

// signExtend sign-extends the low nbits of x to a full int64.
func signExtend(x int64, nbits uint) int64 {
	shift := 64 - nbits
	return x << shift >> shift
}

func (g *GTE) mulMatrix(vx, vy, vz int16, m11, m12, m13, m21, m22, m23, m31, m32, m33 int64) (int64, int64, int64) {
	subX := g.i64ToI44(m12*int64(vy)+m11*int64(vx), mac1)
	x := g.i64ToI44(m13*int64(vz)+subX, mac1)

	subY := g.i64ToI44(m22*int64(vy)+m21*int64(vx), mac2)
	y := g.i64ToI44(m23*int64(vz)+subY, mac2)

	subZ := g.i64ToI44(m32*int64(vy)+m31*int64(vx), mac3)
	z := g.i64ToI44(m33*int64(vz)+subZ, mac3)

	return x, y, z
}

func (g *GTE) mulMatrixWithOffset(vx, vy, vz int16, ox, oy, oz int32, m11, m12, m13, m21, m22, m23, m31, m32, m33 int64) (int64, int64, int64) {
	subX := g.i64ToI44(m11*int64(vx)+int64(ox)<<12, mac1)
	subX = g.i64ToI44(m12*int64(vy)+subX, mac1)
	x := g.i64ToI44(m13*int64(vz)+subX, mac1)

	subY := g.i64ToI44(m21*int64(vx)+int64(oy)<<12, mac2)
	subY = g.i64ToI44(m22*int64(vy)+subY, mac2)
	y := g.i64ToI44(m23*int64(vz)+subY, mac2)

	subZ := g.i64ToI44(m31*int64(vx)+int64(oz)<<12, mac3)
	subZ = g.i64ToI44(m32*int64(vy)+subZ, mac3)
	z := g.i64ToI44(m33*int64(vz)+subZ, mac3)

	return x, y, z
}

func (g *GTE) mulMatrixLight(vx, vy, vz int16) (int64, int64, int64) {
	return g.mulMatrix(vx, vy, vz,
		int64(g.L11), int64(g.L12), int64(g.L13),
		int64(g.L21), int64(g.L22), int64(g.L23),
		int64(g.L31), int64(g.L32), int64(g.L33))
}

func (g *GTE) mulMatrixRTWithOffset(vx, vy, vz int16, ox, oy, oz int32) (int64, int64, int64) {
	return g.mulMatrixWithOffset(vx, vy, vz, ox, oy, oz,
		int64(g.RT11), int64(g.RT12), int64(g.RT13),
		int64(g.RT21), int64(g.RT22), int64(g.RT23),
		int64(g.RT31), int64(g.RT32), int64(g.RT33))
}

func (g *GTE) mulMatrixColorWithOffset(vx, vy, vz int16, ox, oy, oz int32) (int64, int64, int64) {
	return g.mulMatrixWithOffset(vx, vy, vz, ox, oy, oz,
		int64(g.LR1), int64(g.LR2), int64(g.LR3),
		int64(g.LG1), int64(g.LG2), int64(g.LG3),
		int64(g.LB1), int64(g.LB2), int64(g.LB3))
}

func (g *GTE) truncateWriteMac0(val int64, shift uint) {
	if val > 0x7FFFFFFF {
		g.FLAG |= 1 << 16
	} else if val < -0x80000000 {
		g.FLAG |= 1 << 15
	}
	g.MAC0 = int32(val >> shift)
}

func (g *GTE) truncateWriteMac1(val int64, shift uint) {
	if val > 0x7ffffffffff {
		g.FLAG |= 1 << 30
	} else if val < -0x80000000000 {
		g.FLAG |= 1 << 27
	}
	g.MAC1 = int32(uint32(val >> shift))
}

func (g *GTE) truncateWriteMac2(val int64, shift uint) {
	if val > 0x7ffffffffff {
		g.FLAG |= 1 << 29
	} else if val < -0x80000000000 {
		g.FLAG |= 1 << 26
	}
	g.MAC2 = int32(uint32(val >> shift))
}

func (g *GTE) truncateWriteMac3(val int64, shift uint) {
	if val > 0x7ffffffffff {
		g.FLAG |= 1 << 28
	} else if val < -0x80000000000 {
		g.FLAG |= 1 << 25
	}
	g.MAC3 = int32(uint32(val >> shift))
}

func (g *GTE) truncateWriteOtz(val int64) {
	switch {
	case val > 0xFFFF:
		g.OTZ = 0xFFFF
		g.FLAG |= 1 << 18
	case val < 0:
		g.OTZ = 0
		g.FLAG |= 1 << 18
	default:
		g.OTZ = uint16(val)
	}
}

func (g *GTE) truncateWriteIr1(val int32, lmSet bool) {
	switch {
	case lmSet && val < 0:
		g.FLAG |= 1 << 24
		g.IR1 = 0
	case !lmSet && val < -0x8000:
		g.FLAG |= 1 << 24
		g.IR1 = -0x8000
	case val > 0x7FFF:
		g.FLAG |= 1 << 24
		g.IR1 = 0x7FFF
	default:
		g.IR1 = int16(val)
	}
}

func (g *GTE) truncateWriteIr2(val int32, lmSet bool) {
	switch {
	case lmSet && val < 0:
		g.FLAG |= 1 << 23
		g.IR2 = 0
	case !lmSet && val < -0x8000:
		g.FLAG |= 1 << 23
		g.IR2 = -0x8000
	case val > 0x7FFF:
		g.FLAG |= 1 << 23
		g.IR2 = 0x7FFF
	default:
		g.IR2 = int16(val)
	}
}

func (g *GTE) truncateWriteIr3(val int32, lmSet bool) {
	switch {
	case lmSet && val < 0:
		g.FLAG |= 1 << 22
		g.IR3 = 0
	case !lmSet && val < -0x8000:
		g.FLAG |= 1 << 22
		g.IR3 = -0x8000
	case val > 0x7FFF:
		g.FLAG |= 1 << 22
		g.IR3 = 0x7FFF
	default:
		g.IR3 = int16(val)
	}
}

func (g *GTE) saturatePushSx(val int64) {
	switch {
	case val < -0x400:
		g.FLAG |= 1 << 14
		val = -0x400
	case val > 0x3FF:
		g.FLAG |= 1 << 14
		val = 0x3FF
	}
	g.pushSX(int16(val))
}

func (g *GTE) saturatePushSy(val int64) {
	switch {
	case val < -0x400:
		g.FLAG |= 1 << 13
		val = -0x400
	case val > 0x3FF:
		g.FLAG |= 1 << 13
		val = 0x3FF
	}
	g.pushSY(int16(val))
}

func (g *GTE) truncatePushSz3(val int32) {
	switch {
	case val > 0xFFFF:
		g.pushSZ(0xFFFF)
		g.FLAG |= 1 << 18
	case val < 0:
		g.pushSZ(0)
		g.FLAG |= 1 << 18
	default:
		g.pushSZ(uint16(val))
	}
}

// unrTable is the 257-entry Newton-Raphson reciprocal seed table the
// real GTE divider uses; a copy of the table every accurate PSX
// emulator carries verbatim since the hardware result isn't a plain
// division.
var unrTable = [0x101]uint32{
	0xFF, 0xFD, 0xFB, 0xF9, 0xF7, 0xF5, 0xF3, 0xF1, 0xEF, 0xEE, 0xEC, 0xEA, 0xE8, 0xE6, 0xE4, 0xE3,
	0xE1, 0xDF, 0xDD, 0xDC, 0xDA, 0xD8, 0xD6, 0xD5, 0xD3, 0xD1, 0xD0, 0xCE, 0xCD, 0xCB, 0xC9, 0xC8,
	0xC6, 0xC5, 0xC3, 0xC1, 0xC0, 0xBE, 0xBD, 0xBB, 0xBA, 0xB8, 0xB7, 0xB5, 0xB4, 0xB2, 0xB1, 0xB0,
	0xAE, 0xAD, 0xAB, 0xAA, 0xA9, 0xA7, 0xA6, 0xA4, 0xA3, 0xA2, 0xA0, 0x9F, 0x9E, 0x9C, 0x9B, 0x9A,
	0x99, 0x97, 0x96, 0x95, 0x94, 0x92, 0x91, 0x90, 0x8F, 0x8D, 0x8C, 0x8B, 0x8A, 0x89, 0x87, 0x86,
	0x85, 0x84, 0x83, 0x82, 0x81, 0x7F, 0x7E, 0x7D, 0x7C, 0x7B, 0x7A, 0x79, 0x78, 0x77, 0x75, 0x74,
	0x73, 0x72, 0x71, 0x70, 0x6F, 0x6E, 0x6D, 0x6C, 0x6B, 0x6A, 0x69, 0x68, 0x67, 0x66, 0x65, 0x64,
	0x63, 0x62, 0x61, 0x60, 0x5F, 0x5E, 0x5D, 0x5D, 0x5C, 0x5B, 0x5A, 0x59, 0x58, 0x57, 0x56, 0x55,
	0x54, 0x53, 0x53, 0x52, 0x51, 0x50, 0x4F, 0x4E, 0x4D, 0x4D, 0x4C, 0x4B, 0x4A, 0x49, 0x48, 0x48,
	0x47, 0x46, 0x45, 0x44, 0x43, 0x43, 0x42, 0x41, 0x40, 0x3F, 0x3F, 0x3E, 0x3D, 0x3C, 0x3C, 0x3B,
	0x3A, 0x39, 0x39, 0x38, 0x37, 0x36, 0x36, 0x35, 0x34, 0x33, 0x33, 0x32, 0x31, 0x31, 0x30, 0x2F,
	0x2E, 0x2E, 0x2D, 0x2C, 0x2C, 0x2B, 0x2A, 0x2A, 0x29, 0x28, 0x28, 0x27, 0x26, 0x26, 0x25, 0x24,
	0x24, 0x23, 0x22, 0x22, 0x21, 0x20, 0x20, 0x1F, 0x1E, 0x1E, 0x1D, 0x1D, 0x1C, 0x1B, 0x1B, 0x1A,
	0x19, 0x19, 0x18, 0x18, 0x17, 0x16, 0x16, 0x15, 0x15, 0x14, 0x14, 0x13, 0x12, 0x12, 0x11, 0x11,
	0x10, 0x0F, 0x0F, 0x0E, 0x0E, 0x0D, 0x0D, 0x0C, 0x0C, 0x0B, 0x0A, 0x0A, 0x09, 0x09, 0x08, 0x08,
	0x07, 0x07, 0x06, 0x06, 0x05, 0x05, 0x04, 0x04, 0x03, 0x03, 0x02, 0x02, 0x01, 0x01, 0x00, 0x00,
	0x00,
}

func leadingZeros16(v uint16) uint {
	n := uint(0)
	for i := 15; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			break
		}
		n++
	}
	return n
}

// unrDivide implements the GTE's hardware divider: a Newton-Raphson
// reciprocal approximation of rhs followed by a fixed-point multiply,
// not an exact division. Ported from the UNR_TABLE formula used by
// accurate PSX emulators (Duckstation among them).
func (g *GTE) unrDivide(lhs, rhs uint32) uint32 {
	if lhs >= rhs*2 {
		g.FLAG |= 1 << 17
		return 0x1FFFF
	}
	shift := leadingZeros16(uint16(rhs))
	lhsShift := lhs << shift
	rhsShift := rhs << shift
	divisor := rhsShift | 0x8000
	x := int32(0x101) + int32(unrTable[((divisor&0x7FFF)+0x40)>>7])
	d := (int32(divisor)*(-x) + 0x80) >> 8
	recip := uint32((x*(0x20000+d) + 0x80) >> 8)
	result := (uint64(lhsShift)*uint64(recip) + 0x8000) >> 16
	if result > 0x1FFFF {
		result = 0x1FFFF
	}
	return uint32(result)
}
