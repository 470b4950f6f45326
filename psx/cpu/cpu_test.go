package cpu

import "testing"

// fakeBus is a flat 64KiB little-endian memory used only to drive the
// interpreter in isolation; the real address decoding lives in the
// module-root Bus.
type fakeBus struct {
	mem [0x10000]byte
}

func (b *fakeBus) off(addr uint32) uint32 { return addr & 0xFFFF }

func (b *fakeBus) ReadByte(addr uint32) byte { return b.mem[b.off(addr)] }
func (b *fakeBus) ReadHalf(addr uint32) uint16 {
	o := b.off(addr)
	return uint16(b.mem[o]) | uint16(b.mem[o+1])<<8
}
func (b *fakeBus) ReadWord(addr uint32) uint32 {
	o := b.off(addr)
	return uint32(b.mem[o]) | uint32(b.mem[o+1])<<8 | uint32(b.mem[o+2])<<16 | uint32(b.mem[o+3])<<24
}
func (b *fakeBus) WriteByte(addr uint32, v byte) { b.mem[b.off(addr)] = v }
func (b *fakeBus) WriteHalf(addr uint32, v uint16) {
	o := b.off(addr)
	b.mem[o] = byte(v)
	b.mem[o+1] = byte(v >> 8)
}
func (b *fakeBus) WriteWord(addr uint32, v uint32) {
	o := b.off(addr)
	b.mem[o] = byte(v)
	b.mem[o+1] = byte(v >> 8)
	b.mem[o+2] = byte(v >> 16)
	b.mem[o+3] = byte(v >> 24)
}
func (b *fakeBus) ConsumeVBlankEdge() bool { return false }
func (b *fakeBus) InterruptPending() bool  { return false }

// load writes a little-endian instruction stream starting at the
// reset vector so StepInstruction can fetch it without a real BIOS.
func (b *fakeBus) load(words ...uint32) {
	for idx, w := range words {
		b.WriteWord(resetPC+uint32(idx*4), w)
	}
}

func encodeI(opcode, rs, rt uint32, imm16 uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (imm16 & 0xFFFF)
}

func encodeR(rs, rt, rd, shamt, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeJ(opcode, target uint32) uint32 {
	return opcode<<26 | (target>>2)&0x03FFFFFF
}

func TestResetState(t *testing.T) {
	bus := &fakeBus{}
	c := New(bus)

	if c.GetPC() != resetPC {
		t.Fatalf("pc = 0x%08X, want 0x%08X", c.GetPC(), resetPC)
	}
	for r := 0; r < 32; r++ {
		if c.Reg(r) != 0 {
			t.Fatalf("r%d = 0x%08X, want 0", r, c.Reg(r))
		}
	}
	if c.Status()&statusBEV == 0 {
		t.Fatalf("STATUS.BEV should be set at reset")
	}
}

func TestLoadDelaySlot(t *testing.T) {
	bus := &fakeBus{}
	bus.WriteWord(0x1000, 0xAABBCCDD)
	bus.load(
		encodeI(0x09, 0, 8, 0x1000),  // ADDIU r8, r0, 0x1000
		encodeI(0x23, 8, 9, 0),       // LW r9, 0(r8)
		encodeR(0, 9, 10, 0, 0x25),   // OR r10, r0, r9  -- r9 not yet visible
		encodeR(0, 9, 11, 0, 0x25),   // OR r11, r0, r9  -- now visible
	)
	c := New(bus)

	c.StepInstruction() // ADDIU
	c.StepInstruction() // LW (installs delay)
	c.StepInstruction() // OR r10, r9 -- reads stale (0) value
	if c.Reg(10) != 0 {
		t.Fatalf("r10 = 0x%08X, want 0 (load not yet visible)", c.Reg(10))
	}
	c.StepInstruction() // OR r11, r9 -- now the load has landed
	if c.Reg(11) != 0xAABBCCDD {
		t.Fatalf("r11 = 0x%08X, want 0xAABBCCDD", c.Reg(11))
	}
}

func TestBranchDelaySlot(t *testing.T) {
	bus := &fakeBus{}
	bus.load(
		encodeI(0x09, 0, 1, 1),     // ADDIU r1, r0, 1
		encodeI(0x04, 0, 0, 2),     // BEQ r0, r0, +2 (skips one instruction past delay slot)
		encodeI(0x09, 0, 2, 0x11),  // ADDIU r2, r0, 0x11  -- delay slot, always executes
		encodeI(0x09, 0, 3, 0x22),  // ADDIU r3, r0, 0x22  -- skipped by the branch
		encodeI(0x09, 0, 4, 0x33),  // ADDIU r4, r0, 0x33  -- branch target
	)
	c := New(bus)

	c.StepInstruction() // ADDIU r1
	c.StepInstruction() // BEQ arms the branch, runs the delay slot ADDIU r2, then jumps
	if c.Reg(2) != 0x11 {
		t.Fatalf("r2 = 0x%X, want delay slot to have executed", c.Reg(2))
	}
	if c.GetPC() != resetPC+4*4 {
		t.Fatalf("pc = 0x%08X, want branch target 0x%08X", c.GetPC(), resetPC+4*4)
	}
	c.StepInstruction() // ADDIU r4 at the branch target
	if c.Reg(3) != 0 {
		t.Fatalf("r3 = 0x%X, want 0 (instruction was skipped)", c.Reg(3))
	}
	if c.Reg(4) != 0x33 {
		t.Fatalf("r4 = 0x%X, want 0x33", c.Reg(4))
	}
}

func TestMisalignedLoadRaisesAdEL(t *testing.T) {
	bus := &fakeBus{}
	bus.load(
		encodeI(0x09, 0, 8, 0x1001), // ADDIU r8, r0, 0x1001 (misaligned word address)
		encodeI(0x23, 8, 9, 0),      // LW r9, 0(r8)
	)
	c := New(bus)
	c.StepInstruction()
	c.StepInstruction()

	if c.cop0.Cause()>>2&0x1F != ExcAdEL {
		t.Fatalf("CAUSE.ExcCode = %d, want ExcAdEL", c.cop0.Cause()>>2&0x1F)
	}
	if c.cop0.Read(cop0BadVAddr) != 0x1001 {
		t.Fatalf("BadVAddr = 0x%X, want 0x1001", c.cop0.Read(cop0BadVAddr))
	}
	// STATUS.BEV is still set this early (nothing has cleared it), so
	// the fault vectors into the BIOS's own handler address.
	if c.GetPC() != 0xBFC00180 {
		t.Fatalf("pc = 0x%08X, want exception vector 0xBFC00180", c.GetPC())
	}
}

func TestAddOverflowTraps(t *testing.T) {
	bus := &fakeBus{}
	bus.load(
		encodeI(0x0F, 0, 8, 0x7FFF),       // LUI r8, 0x7FFF
		encodeI(0x0D, 8, 8, 0xFFFF),       // ORI r8, r8, 0xFFFF -> 0x7FFFFFFF
		encodeI(0x09, 0, 9, 1),            // ADDIU r9, r0, 1
		encodeR(8, 9, 10, 0, 0x20),        // ADD r10, r8, r9 -- overflows
	)
	c := New(bus)
	c.StepInstruction()
	c.StepInstruction()
	c.StepInstruction()
	c.StepInstruction()

	if c.cop0.Cause()>>2&0x1F != ExcOvf {
		t.Fatalf("CAUSE.ExcCode = %d, want ExcOvf", c.cop0.Cause()>>2&0x1F)
	}
	if c.Reg(10) != 0 {
		t.Fatalf("r10 = 0x%X, want 0 (ADD must not commit on overflow)", c.Reg(10))
	}
}

func TestAddUDoesNotTrapOnOverflow(t *testing.T) {
	bus := &fakeBus{}
	bus.load(
		encodeI(0x0F, 0, 8, 0x7FFF), // LUI r8, 0x7FFF
		encodeI(0x0D, 8, 8, 0xFFFF), // ORI r8, r8, 0xFFFF -> 0x7FFFFFFF
		encodeI(0x09, 0, 9, 1),      // ADDIU r9, r0, 1
		encodeR(8, 9, 10, 0, 0x21),  // ADDU r10, r8, r9
	)
	c := New(bus)
	for range [4]struct{}{} {
		c.StepInstruction()
	}
	if c.Reg(10) != 0x80000000 {
		t.Fatalf("r10 = 0x%X, want 0x80000000", c.Reg(10))
	}
	if c.cop0.Cause()>>2&0x1F == ExcOvf {
		t.Fatalf("ADDU must not trap on overflow")
	}
}

func TestDivideByZero(t *testing.T) {
	bus := &fakeBus{}
	bus.load(
		encodeI(0x09, 0, 8, 5), // ADDIU r8, r0, 5
		encodeR(8, 0, 0, 0, 0x1A),
	)
	c := New(bus)
	c.StepInstruction()
	c.StepInstruction()

	if c.LO() != 0xFFFFFFFF {
		t.Fatalf("LO = 0x%X, want 0xFFFFFFFF", c.LO())
	}
	if c.HI() != 5 {
		t.Fatalf("HI = 0x%X, want 5", c.HI())
	}
}
