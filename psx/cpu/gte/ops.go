package gte

func bit(word uint32, n uint) bool { return word&(1<<n) != 0 }

func bits(word uint32, lo, hi uint) uint32 {
	mask := uint32(1)<<(hi-lo+1) - 1
	return (word >> lo) & mask
}

func shiftAndLm(word uint32) (uint, bool) {
	shift := uint(0)
	if bit(word, 19) {
		shift = 12
	}
	return shift, bit(word, 10)
}

// rtps perspective-transforms V0 and projects it to screen space.
func (g *GTE) rtps(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doRtps(g.VX0, g.VY0, g.VZ0, shift, true, lm)
}

// rtpt perspective-transforms V0..V2; only the last call produces the
// depth-cued IR0 result, matching the hardware's single-vertex
// interpolation factor per triangle.
func (g *GTE) rtpt(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doRtps(g.VX0, g.VY0, g.VZ0, shift, false, lm)
	g.doRtps(g.VX1, g.VY1, g.VZ1, shift, false, lm)
	g.doRtps(g.VX2, g.VY2, g.VZ2, shift, true, lm)
}

func (g *GTE) doRtps(vx, vy, vz int16, shift uint, last bool, lm bool) {
	x, y, z := g.mulMatrixRTWithOffset(vx, vy, vz, g.TRX, g.TRY, g.TRZ)

	g.truncateWriteMac1(x, shift)
	g.truncateWriteMac2(y, shift)
	g.truncateWriteMac3(z, shift)
	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)

	// Lazily sets the error flags only; overwritten below with the real
	// unshifted value, reproducing the hardware's double IR3 write.
	g.truncateWriteIr3(int32(z>>12), false)

	switch {
	case lm && g.MAC3 < 0:
		g.IR3 = 0
	case !lm && int64(g.MAC3) < -0x8000:
		g.IR3 = -0x8000
	case int64(g.MAC3) > 0x7FFF:
		g.IR3 = 0x7FFF
	default:
		g.IR3 = int16(g.MAC3)
	}

	g.truncatePushSz3(int32(z >> 12))

	divVal := int64(g.unrDivide(uint32(g.H), uint32(g.SZ3)))

	sx := divVal*int64(g.IR1) + int64(g.OFX)
	g.truncateWriteMac0(sx, 0)
	g.saturatePushSx(sx >> 16)

	sy := divVal*int64(g.IR2) + int64(g.OFY)
	g.truncateWriteMac0(sy, 0)
	g.saturatePushSy(sy >> 16)

	if last {
		depth := divVal*int64(g.DQA) + int64(g.DQB)
		g.truncateWriteMac0(depth, 0)
		ir0 := depth >> 12
		if ir0 < 0 {
			ir0 = 0
			g.FLAG |= 1 << 12
		}
		if ir0 > 0x1000 {
			ir0 = 0x1000
			g.FLAG |= 1 << 12
		}
		g.IR0 = int16(ir0)
	}
}

func (g *GTE) nclip() {
	sx0, sx1, sx2 := int64(g.SX0), int64(g.SX1), int64(g.SX2)
	sy0, sy1, sy2 := int64(g.SY0), int64(g.SY1), int64(g.SY2)
	g.truncateWriteMac0(sx0*sy1+sx1*sy2+sx2*sy0-sx0*sy2-sx1*sy0-sx2*sy1, 0)
}

// op is the outer-product ("cross-product") command: IR x RT's
// diagonal, used by the BIOS for surface-normal work.
func (g *GTE) op(word uint32) {
	shift, lm := shiftAndLm(word)

	x := int32(g.IR3)*int32(g.RT22) - int32(g.IR2)*int32(g.RT33)
	y := int32(g.IR1)*int32(g.RT33) - int32(g.IR3)*int32(g.RT11)
	z := int32(g.IR2)*int32(g.RT11) - int32(g.IR1)*int32(g.RT22)

	g.truncateWriteMac1(int64(x), shift)
	g.truncateWriteMac2(int64(y), shift)
	g.truncateWriteMac3(int64(z), shift)

	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)
	g.truncateWriteIr3(g.MAC3, lm)
}

// mvmva is the general matrix*vector(+translation) multiply command.
// Bits 17-18 select the matrix, 15-16 the vector, 13-14 the
// translation; selector value 3 for the matrix builds the documented
// "bugged color matrix" out of RGBC/IR0/RT columns, and selector 2 for
// the translation reproduces the hardware's well-known FC-offset bug
// where only the first matrix column is added before the translation,
// with the remaining columns applied (and IR re-written) afterward.
func (g *GTE) mvmva(word uint32) {
	mx := bits(word, 17, 18)
	vxSel := bits(word, 15, 16)
	tx := bits(word, 13, 14)

	var m11, m12, m13, m21, m22, m23, m31, m32, m33 int16
	switch mx {
	case 0:
		m11, m12, m13 = g.RT11, g.RT12, g.RT13
		m21, m22, m23 = g.RT21, g.RT22, g.RT23
		m31, m32, m33 = g.RT31, g.RT32, g.RT33
	case 1:
		m11, m12, m13 = g.L11, g.L12, g.L13
		m21, m22, m23 = g.L21, g.L22, g.L23
		m31, m32, m33 = g.L31, g.L32, g.L33
	case 2:
		m11, m12, m13 = g.LR1, g.LR2, g.LR3
		m21, m22, m23 = g.LG1, g.LG2, g.LG3
		m31, m32, m33 = g.LB1, g.LB2, g.LB3
	case 3:
		m11 = -int16(uint16(g.RGBC.r) << 4)
		m12 = int16(uint16(g.RGBC.r) << 4)
		m13 = g.IR0
		m21, m22, m23 = g.RT13, g.RT13, g.RT13
		m31, m32, m33 = g.RT22, g.RT22, g.RT22
	}

	var mvx, mvy, mvz int16
	switch vxSel {
	case 0:
		mvx, mvy, mvz = g.VX0, g.VY0, g.VZ0
	case 1:
		mvx, mvy, mvz = g.VX1, g.VY1, g.VZ1
	case 2:
		mvx, mvy, mvz = g.VX2, g.VY2, g.VZ2
	case 3:
		mvx, mvy, mvz = g.IR1, g.IR2, g.IR3
	}

	var tvx, tvy, tvz int32
	switch tx {
	case 0:
		tvx, tvy, tvz = g.TRX, g.TRY, g.TRZ
	case 1:
		tvx, tvy, tvz = g.RBK, g.GBK, g.BBK
	case 2:
		tvx, tvy, tvz = g.RFC, g.GFC, g.BFC
	case 3:
		tvx, tvy, tvz = 0, 0, 0
	}

	shift, lm := shiftAndLm(word)

	if tx == 2 {
		x := int64(tvx)<<12 + int64(m11)*int64(mvx)
		y := int64(tvy)<<12 + int64(m21)*int64(mvx)
		z := int64(tvz)<<12 + int64(m31)*int64(mvx)

		g.truncateWriteMac1(x, shift)
		g.truncateWriteMac2(y, shift)
		g.truncateWriteMac3(z, shift)
		g.truncateWriteIr1(g.MAC1, false)
		g.truncateWriteIr2(g.MAC2, false)
		g.truncateWriteIr3(g.MAC3, false)

		x = int64(m12)*int64(mvy) + int64(m13)*int64(mvz)
		y = int64(m22)*int64(mvy) + int64(m23)*int64(mvz)
		z = int64(m32)*int64(mvy) + int64(m33)*int64(mvz)

		g.truncateWriteMac1(x, shift)
		g.truncateWriteMac2(y, shift)
		g.truncateWriteMac3(z, shift)
		g.truncateWriteIr1(g.MAC1, lm)
		g.truncateWriteIr2(g.MAC2, lm)
		g.truncateWriteIr3(g.MAC3, lm)
		return
	}

	x, y, z := g.mulMatrixWithOffset(mvx, mvy, mvz, tvx, tvy, tvz,
		int64(m11), int64(m12), int64(m13),
		int64(m21), int64(m22), int64(m23),
		int64(m31), int64(m32), int64(m33))

	g.truncateWriteMac1(x, shift)
	g.truncateWriteMac2(y, shift)
	g.truncateWriteMac3(z, shift)
	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)
	g.truncateWriteIr3(g.MAC3, lm)
}

func (g *GTE) ncs(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNcs(g.VX0, g.VY0, g.VZ0, shift, lm)
}

func (g *GTE) nct(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNcs(g.VX0, g.VY0, g.VZ0, shift, lm)
	g.doNcs(g.VX1, g.VY1, g.VZ1, shift, lm)
	g.doNcs(g.VX2, g.VY2, g.VZ2, shift, lm)
}

// doNcs runs the lighting dot product and the background-color offset
// step, then pushes the result to the RGB FIFO without the RGBC
// multiply and far-color interpolation that NCDS adds; used by plain
// (non-textured, non-depth-cued) normal-color commands.
func (g *GTE) doNcs(vx, vy, vz int16, shift uint, lm bool) {
	dx, dy, dz := g.mulMatrixLight(vx, vy, vz)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	dx, dy, dz = g.mulMatrixColorWithOffset(g.IR1, g.IR2, g.IR3, g.RBK, g.GBK, g.BBK)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) ncds(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNcds(g.VX0, g.VY0, g.VZ0, shift, lm)
}

func (g *GTE) ncdt(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNcds(g.VX0, g.VY0, g.VZ0, shift, lm)
	g.doNcds(g.VX1, g.VY1, g.VZ1, shift, lm)
	g.doNcds(g.VX2, g.VY2, g.VZ2, shift, lm)
}

// doNcds is NCS's lighting pipeline plus the RGBC-multiply/FC
// interpolation tail that produces a depth-cued normal color.
func (g *GTE) doNcds(vx, vy, vz int16, shift uint, lm bool) {
	dx, dy, dz := g.mulMatrixLight(vx, vy, vz)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	dx, dy, dz = g.mulMatrixColorWithOffset(g.IR1, g.IR2, g.IR3, g.RBK, g.GBK, g.BBK)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	g.truncateWriteMac1(int64(g.RGBC.r)*int64(g.IR1)<<4, 0)
	g.truncateWriteMac2(int64(g.RGBC.g)*int64(g.IR2)<<4, 0)
	g.truncateWriteMac3(int64(g.RGBC.b)*int64(g.IR3)<<4, 0)

	g.interpolateColor(g.MAC1, g.MAC2, g.MAC3, lm, shift)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) nccs(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNccs(g.VX0, g.VY0, g.VZ0, shift, lm)
}

func (g *GTE) ncct(word uint32) {
	shift, lm := shiftAndLm(word)
	g.doNccs(g.VX0, g.VY0, g.VZ0, shift, lm)
	g.doNccs(g.VX1, g.VY1, g.VZ1, shift, lm)
	g.doNccs(g.VX2, g.VY2, g.VZ2, shift, lm)
}

// doNccs is NCDS's lighting+background pipeline but multiplies by
// shift rather than 0 in the RGBC step and skips the FC interpolation,
// matching the hardware's distinct NCC color path.
func (g *GTE) doNccs(vx, vy, vz int16, shift uint, lm bool) {
	dx, dy, dz := g.mulMatrixLight(vx, vy, vz)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	dx, dy, dz = g.mulMatrixColorWithOffset(g.IR1, g.IR2, g.IR3, g.RBK, g.GBK, g.BBK)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	g.truncateWriteMac1(int64(g.RGBC.r)*int64(g.IR1)<<4, shift)
	g.truncateWriteMac2(int64(g.RGBC.g)*int64(g.IR2)<<4, shift)
	g.truncateWriteMac3(int64(g.RGBC.b)*int64(g.IR3)<<4, shift)

	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)
	g.truncateWriteIr3(g.MAC3, lm)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) cdp(word uint32) {
	shift, lm := shiftAndLm(word)

	dx, dy, dz := g.mulMatrixColorWithOffset(g.IR1, g.IR2, g.IR3, g.RBK, g.GBK, g.BBK)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	g.truncateWriteMac1(int64(g.RGBC.r)*int64(g.IR1)<<4, 0)
	g.truncateWriteMac2(int64(g.RGBC.g)*int64(g.IR2)<<4, 0)
	g.truncateWriteMac3(int64(g.RGBC.b)*int64(g.IR3)<<4, 0)

	g.interpolateColor(g.MAC1, g.MAC2, g.MAC3, lm, shift)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) cc(word uint32) {
	shift, lm := shiftAndLm(word)

	dx, dy, dz := g.mulMatrixColorWithOffset(g.IR1, g.IR2, g.IR3, g.RBK, g.GBK, g.BBK)
	g.truncateWriteMac1(dx, shift)
	g.truncateWriteMac2(dy, shift)
	g.truncateWriteMac3(dz, shift)
	g.truncateWriteIr1(int32(dx>>shift), lm)
	g.truncateWriteIr2(int32(dy>>shift), lm)
	g.truncateWriteIr3(int32(dz>>shift), lm)

	g.truncateWriteMac1(int64(g.RGBC.r)*int64(g.IR1)<<4, shift)
	g.truncateWriteMac2(int64(g.RGBC.g)*int64(g.IR2)<<4, shift)
	g.truncateWriteMac3(int64(g.RGBC.b)*int64(g.IR3)<<4, shift)

	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)
	g.truncateWriteIr3(g.MAC3, lm)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) dpcs(word uint32) {
	shift, lm := shiftAndLm(word)

	g.truncateWriteMac1(int64(g.RGBC.r)<<16, 0)
	g.truncateWriteMac2(int64(g.RGBC.g)<<16, 0)
	g.truncateWriteMac3(int64(g.RGBC.b)<<16, 0)

	g.interpolateColor(g.MAC1, g.MAC2, g.MAC3, lm, shift)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

func (g *GTE) intpl(word uint32) {
	shift, lm := shiftAndLm(word)

	g.truncateWriteMac1(int64(g.IR1)<<12, 0)
	g.truncateWriteMac2(int64(g.IR2)<<12, 0)
	g.truncateWriteMac3(int64(g.IR3)<<12, 0)

	g.interpolateColor(g.MAC1, g.MAC2, g.MAC3, lm, shift)

	g.pushColor(g.makeColor(g.MAC1>>4, g.MAC2>>4, g.MAC3>>4, g.RGBC.c))
}

// interpolateColor blends toward the far color (RFC/GFC/BFC) by IR0,
// the shared tail of DPCS/INTPL/CDP/NCDS.
func (g *GTE) interpolateColor(inMac1, inMac2, inMac3 int32, lm bool, shift uint) {
	cx := int64(g.RFC)<<12 - int64(inMac1)
	cy := int64(g.GFC)<<12 - int64(inMac2)
	cz := int64(g.BFC)<<12 - int64(inMac3)

	g.truncateWriteMac1(cx, shift)
	g.truncateWriteMac2(cy, shift)
	g.truncateWriteMac3(cz, shift)

	g.truncateWriteIr1(int32(cx>>shift), false)
	g.truncateWriteIr2(int32(cy>>shift), false)
	g.truncateWriteIr3(int32(cz>>shift), false)

	g.truncateWriteMac1(int64(g.IR1)*int64(g.IR0)+int64(inMac1), shift)
	g.truncateWriteMac2(int64(g.IR2)*int64(g.IR0)+int64(inMac2), shift)
	g.truncateWriteMac3(int64(g.IR3)*int64(g.IR0)+int64(inMac3), shift)

	g.truncateWriteIr1(g.MAC1, lm)
	g.truncateWriteIr2(g.MAC2, lm)
	g.truncateWriteIr3(g.MAC3, lm)
}

func (g *GTE) makeColor(r, g2, b int32, c uint8) color {
	if r < 0 || r > 0xFF {
		g.FLAG |= 1 << 21
	}
	if g2 < 0 || g2 > 0xFF {
		g.FLAG |= 1 << 20
	}
	if b < 0 || b > 0xFF {
		g.FLAG |= 1 << 19
	}
	return color{r: uint8(clamp32(r, 0, 0xFF)), g: uint8(clamp32(g2, 0, 0xFF)), b: uint8(clamp32(b, 0, 0xFF)), c: c}
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *GTE) avsz3() {
	result := int64(g.ZSF3) * int64(uint32(g.SZ1)+uint32(g.SZ2)+uint32(g.SZ3))
	g.truncateWriteMac0(result, 0)
	g.truncateWriteOtz(result >> 12)
}

func (g *GTE) avsz4() {
	result := int64(g.ZSF3) * int64(uint32(g.SZ0)+uint32(g.SZ1)+uint32(g.SZ2)+uint32(g.SZ3))
	g.truncateWriteMac0(result, 0)
	g.truncateWriteOtz(result >> 12)
}
