package cpu

// execute dispatches one decoded instruction. Overflow-trapping
// arithmetic (ADD/ADDI/SUB), branch/jump delay-slot arming, the
// load-delay contract, and COP0/COP2 routing happen here.
func (c *CPU) execute(i instruction) {
	switch i.opcode {
	case 0x00:
		c.execSpecial(i)
	case 0x01:
		c.execRegimm(i)
	case 0x02:
		c.jump(i)
	case 0x03:
		c.link(31)
		c.jump(i)
	case 0x04:
		c.branch(i, c.reg(i.rs) == c.reg(i.rt))
	case 0x05:
		c.branch(i, c.reg(i.rs) != c.reg(i.rt))
	case 0x06:
		c.branch(i, int32(c.reg(i.rs)) <= 0)
	case 0x07:
		c.branch(i, int32(c.reg(i.rs)) > 0)
	case 0x08:
		c.addImmediate(i, true)
	case 0x09:
		c.addImmediate(i, false)
	case 0x0A:
		v := int32(0)
		if int32(c.reg(i.rs)) < int32(i.signExtendImm()) {
			v = 1
		}
		c.setReg(i.rt, uint32(v))
	case 0x0B:
		v := uint32(0)
		if c.reg(i.rs) < i.signExtendImm() {
			v = 1
		}
		c.setReg(i.rt, v)
	case 0x0C:
		c.setReg(i.rt, c.reg(i.rs)&i.imm16)
	case 0x0D:
		c.setReg(i.rt, c.reg(i.rs)|i.imm16)
	case 0x0E:
		c.setReg(i.rt, c.reg(i.rs)^i.imm16)
	case 0x0F:
		c.setReg(i.rt, i.imm16<<16)
	case 0x10:
		c.execCop0(i)
	case 0x12:
		c.execCop2(i)
	case 0x20:
		c.load(i, 1, true)
	case 0x21:
		c.load(i, 2, true)
	case 0x22:
		c.lwl(i)
	case 0x23:
		c.load(i, 4, true)
	case 0x24:
		c.load(i, 1, false)
	case 0x25:
		c.load(i, 2, false)
	case 0x26:
		c.lwr(i)
	case 0x28:
		c.store(i, 1)
	case 0x29:
		c.store(i, 2)
	case 0x2A:
		c.swl(i)
	case 0x2B:
		c.store(i, 4)
	case 0x2E:
		c.swr(i)
	default:
		c.warnUnimplemented("reserved opcode 0x%02X", i.opcode)
		c.fireExceptionHere(ExcRI)
	}
}

func (c *CPU) reg(index uint32) uint32 { return c.regs[index&0x1F] }

func (c *CPU) execSpecial(i instruction) {
	switch i.funct {
	case 0x00:
		c.setReg(i.rd, c.reg(i.rt)<<i.shamt)
	case 0x02:
		c.setReg(i.rd, c.reg(i.rt)>>i.shamt)
	case 0x03:
		c.setReg(i.rd, uint32(int32(c.reg(i.rt))>>i.shamt))
	case 0x04:
		c.setReg(i.rd, c.reg(i.rt)<<(c.reg(i.rs)&0x1F))
	case 0x06:
		c.setReg(i.rd, c.reg(i.rt)>>(c.reg(i.rs)&0x1F))
	case 0x07:
		c.setReg(i.rd, uint32(int32(c.reg(i.rt))>>(c.reg(i.rs)&0x1F)))
	case 0x08:
		c.jumpRegister(i.rs, 0)
	case 0x09:
		c.jumpRegister(i.rs, i.rd)
	case 0x0C:
		c.fireExceptionHere(ExcSys)
	case 0x0D:
		c.fireExceptionHere(ExcBp)
	case 0x10:
		c.setReg(i.rd, c.hi)
	case 0x11:
		c.hi = c.reg(i.rs)
	case 0x12:
		c.setReg(i.rd, c.lo)
	case 0x13:
		c.lo = c.reg(i.rs)
	case 0x18:
		result := int64(int32(c.reg(i.rs))) * int64(int32(c.reg(i.rt)))
		c.hi, c.lo = uint32(uint64(result)>>32), uint32(uint64(result))
	case 0x19:
		result := uint64(c.reg(i.rs)) * uint64(c.reg(i.rt))
		c.hi, c.lo = uint32(result>>32), uint32(result)
	case 0x1A:
		c.div(i)
	case 0x1B:
		c.divu(i)
	case 0x20:
		c.addTrap(int32(c.reg(i.rs)), int32(c.reg(i.rt)), i.rd)
	case 0x21:
		c.setReg(i.rd, c.reg(i.rs)+c.reg(i.rt))
	case 0x22:
		c.subTrap(int32(c.reg(i.rs)), int32(c.reg(i.rt)), i.rd)
	case 0x23:
		c.setReg(i.rd, c.reg(i.rs)-c.reg(i.rt))
	case 0x24:
		c.setReg(i.rd, c.reg(i.rs)&c.reg(i.rt))
	case 0x25:
		c.setReg(i.rd, c.reg(i.rs)|c.reg(i.rt))
	case 0x26:
		c.setReg(i.rd, c.reg(i.rs)^c.reg(i.rt))
	case 0x27:
		c.setReg(i.rd, ^(c.reg(i.rs) | c.reg(i.rt)))
	case 0x2A:
		v := uint32(0)
		if int32(c.reg(i.rs)) < int32(c.reg(i.rt)) {
			v = 1
		}
		c.setReg(i.rd, v)
	case 0x2B:
		v := uint32(0)
		if c.reg(i.rs) < c.reg(i.rt) {
			v = 1
		}
		c.setReg(i.rd, v)
	default:
		c.warnUnimplemented("reserved SPECIAL funct 0x%02X", i.funct)
		c.fireExceptionHere(ExcRI)
	}
}

func (c *CPU) execRegimm(i instruction) {
	rs := int32(c.reg(i.rs))
	switch i.rt {
	case 0x00:
		c.branch(i, rs < 0)
	case 0x01:
		c.branch(i, rs >= 0)
	case 0x10:
		c.link(31)
		c.branch(i, rs < 0)
	case 0x11:
		c.link(31)
		c.branch(i, rs >= 0)
	}
}

// div implements the MIPS-I divide edge cases: division by zero
// yields LO=-1 (or 1 for a negative dividend) and
// HI=dividend; INT_MIN/-1 yields LO=INT_MIN, HI=0, without trapping.
func (c *CPU) div(i instruction) {
	n := int32(c.reg(i.rs))
	d := int32(c.reg(i.rt))
	switch {
	case d == 0:
		c.hi = uint32(n)
		if n >= 0 {
			c.lo = 0xFFFFFFFF
		} else {
			c.lo = 1
		}
	case n == -0x80000000 && d == -1:
		c.hi = 0
		c.lo = 0x80000000
	default:
		c.lo = uint32(n / d)
		c.hi = uint32(n % d)
	}
}

func (c *CPU) divu(i instruction) {
	n := c.reg(i.rs)
	d := c.reg(i.rt)
	if d == 0 {
		c.hi = n
		c.lo = 0xFFFFFFFF
		return
	}
	c.lo = n / d
	c.hi = n % d
}

func overflows(a, b, result int32) bool {
	return (a >= 0) == (b >= 0) && (result >= 0) != (a >= 0)
}

func (c *CPU) addTrap(a, b int32, dest uint32) {
	result := a + b
	if overflows(a, b, result) {
		c.fireExceptionHere(ExcOvf)
		return
	}
	c.setReg(dest, uint32(result))
}

func (c *CPU) subTrap(a, b int32, dest uint32) {
	result := a - b
	if overflows(a, -b, result) {
		c.fireExceptionHere(ExcOvf)
		return
	}
	c.setReg(dest, uint32(result))
}

func (c *CPU) addImmediate(i instruction, trapping bool) {
	a := int32(c.reg(i.rs))
	b := int32(i.signExtendImm())
	if trapping {
		c.addTrap(a, b, i.rt)
		return
	}
	c.setReg(i.rt, uint32(a+b))
}

// branch computes the target from the instruction *after* the branch
// (c.pc, already advanced by runOne) and arms the delay slot; it never
// takes effect until the following instruction has executed.
func (c *CPU) branch(i instruction, taken bool) {
	if !taken {
		return
	}
	c.branchDelayPC = c.pc + (i.signExtendImm() << 2)
	c.hasBranchDelay = true
}

// link stores the return address, which is simply c.pc: runOne has
// already advanced it past the jump/branch-and-link instruction to the
// delay slot, exactly the address MIPS call conventions expect.
func (c *CPU) link(reg uint32) {
	c.setReg(reg, c.pc)
}

func (c *CPU) jump(i instruction) {
	c.branchDelayPC = (c.pc & 0xF0000000) | (i.imm26 << 2)
	c.hasBranchDelay = true
}

func (c *CPU) jumpRegister(rsIdx, rdIdx uint32) {
	target := c.reg(rsIdx)
	if target%4 != 0 {
		c.fireException(ExcAdEL, c.inBranchDelaySlot, target, true)
		return
	}
	if rdIdx != 0 {
		c.link(rdIdx)
	}
	c.branchDelayPC = target
	c.hasBranchDelay = true
}

func (c *CPU) load(i instruction, size int, signed bool) {
	addr := c.reg(i.rs) + i.signExtendImm()
	if (size == 2 && addr%2 != 0) || (size == 4 && addr%4 != 0) {
		c.fireException(ExcAdEL, c.inBranchDelaySlot, addr, true)
		return
	}
	var value uint32
	switch size {
	case 1:
		b := c.bus.ReadByte(addr)
		if signed {
			value = uint32(int32(int8(b)))
		} else {
			value = uint32(b)
		}
	case 2:
		h := c.bus.ReadHalf(addr)
		if signed {
			value = uint32(int32(int16(h)))
		} else {
			value = uint32(h)
		}
	case 4:
		value = c.bus.ReadWord(addr)
	}
	c.installLoadDelay(i.rt, value)
}

func (c *CPU) store(i instruction, size int) {
	addr := c.reg(i.rs) + i.signExtendImm()
	if (size == 2 && addr%2 != 0) || (size == 4 && addr%4 != 0) {
		c.fireException(ExcAdES, c.inBranchDelaySlot, addr, true)
		return
	}
	v := c.reg(i.rt)
	switch size {
	case 1:
		c.bus.WriteByte(addr, byte(v))
	case 2:
		c.bus.WriteHalf(addr, uint16(v))
	case 4:
		c.bus.WriteWord(addr, v)
	}
}

// lwl/lwr/swl/swr are the classic little-endian unaligned-access
// recipes: the load variants merge into whatever value
// is already in flight for rt's load-delay slot rather than the
// committed register file.
func (c *CPU) lwl(i instruction) {
	addr := c.reg(i.rs) + i.signExtendImm()
	aligned := addr &^ 3
	word := c.bus.ReadWord(aligned)
	cur := c.mergeBaseForLoad(i.rt)
	var result uint32
	switch addr & 3 {
	case 0:
		result = (cur & 0x00FFFFFF) | (word << 24)
	case 1:
		result = (cur & 0x0000FFFF) | (word << 16)
	case 2:
		result = (cur & 0x000000FF) | (word << 8)
	case 3:
		result = word
	}
	c.installLoadDelay(i.rt, result)
}

func (c *CPU) lwr(i instruction) {
	addr := c.reg(i.rs) + i.signExtendImm()
	aligned := addr &^ 3
	word := c.bus.ReadWord(aligned)
	cur := c.mergeBaseForLoad(i.rt)
	var result uint32
	switch addr & 3 {
	case 0:
		result = word
	case 1:
		result = (cur & 0xFF000000) | (word >> 8)
	case 2:
		result = (cur & 0xFFFF0000) | (word >> 16)
	case 3:
		result = (cur & 0xFFFFFF00) | (word >> 24)
	}
	c.installLoadDelay(i.rt, result)
}

func (c *CPU) swl(i instruction) {
	addr := c.reg(i.rs) + i.signExtendImm()
	aligned := addr &^ 3
	old := c.bus.ReadWord(aligned)
	rt := c.reg(i.rt)
	var result uint32
	switch addr & 3 {
	case 0:
		result = (old & 0xFFFFFF00) | (rt >> 24)
	case 1:
		result = (old & 0xFFFF0000) | (rt >> 16)
	case 2:
		result = (old & 0xFF000000) | (rt >> 8)
	case 3:
		result = rt
	}
	c.bus.WriteWord(aligned, result)
}

func (c *CPU) swr(i instruction) {
	addr := c.reg(i.rs) + i.signExtendImm()
	aligned := addr &^ 3
	old := c.bus.ReadWord(aligned)
	rt := c.reg(i.rt)
	var result uint32
	switch addr & 3 {
	case 0:
		result = rt
	case 1:
		result = (old & 0x000000FF) | (rt << 8)
	case 2:
		result = (old & 0x0000FFFF) | (rt << 16)
	case 3:
		result = (old & 0x00FFFFFF) | (rt << 24)
	}
	c.bus.WriteWord(aligned, result)
}

func (c *CPU) execCop0(i instruction) {
	switch i.rs {
	case 0x00: // MFC0
		c.installLoadDelay(i.rt, c.cop0.Read(i.rd))
	case 0x04: // MTC0
		c.cop0.Write(i.rd, c.reg(i.rt))
	case 0x10: // RFE (and other CO-class ops; only RFE is implemented in hardware use)
		if i.funct == 0x10 {
			c.cop0.rfe()
		}
	default:
		c.warnUnimplemented("unhandled COP0 rs field 0x%02X", i.rs)
	}
}

// execCop2 routes GTE register moves and the full command set: bit 25
// of the instruction word set means "this word is a GTE command",
// matching real COP2 instruction encoding.
func (c *CPU) execCop2(i instruction) {
	if i.raw&0x02000000 != 0 {
		c.gte.Command(i.raw & 0x01FFFFFF)
		return
	}
	switch i.rs {
	case 0x00: // MFC2
		c.installLoadDelay(i.rt, c.gte.ReadData(i.rd))
	case 0x02: // CFC2
		c.installLoadDelay(i.rt, c.gte.ReadControl(i.rd))
	case 0x04: // MTC2
		c.gte.WriteData(i.rd, c.reg(i.rt))
	case 0x06: // CTC2
		c.gte.WriteControl(i.rd, c.reg(i.rt))
	}
}
