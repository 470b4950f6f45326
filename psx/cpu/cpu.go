// Package cpu implements the interpreted MIPS R3000A core: general
// registers, HI/LO, the load-delay and branch-delay slots, COP0
// system control, and COP2 (GTE) dispatch. Grounded on go-jeebie's
// cpu package for the interpreter's
// overall shape (a decode step followed by one big execute switch)
// generalized from the Game Boy's Z80 to MIPS-I.
package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-psxcore/psx/cpu/gte"
)

const resetPC = 0xBFC00000

// pendingLoad is the one-slot deferred register write every load
// instruction installs under the load-delay contract.
type pendingLoad struct {
	reg   uint32
	value uint32
	valid bool
}

// CPU holds architectural state: 32 GPRs (r0 hardwired to zero on
// read), HI/LO, PC, the current instruction's own address, an armed
// branch-delay target, and the pending load-delay slot.
type CPU struct {
	regs [32]uint32
	hi   uint32
	lo   uint32

	pc        uint32
	currentPC uint32

	branchDelayPC     uint32
	hasBranchDelay    bool
	inBranchDelaySlot bool

	pending pendingLoad

	// writeback is the load-delay slot the instruction *currently
	// executing* installs; it isn't visible until the step after next,
	// matching the MIPS-I contract that a load's target is stale for
	// exactly one instruction.
	writeback pendingLoad

	cop0 COP0
	gte  *gte.GTE

	bus Bus

	haltedUnimplemented string
}

func New(bus Bus) *CPU {
	c := &CPU{bus: bus, gte: gte.New()}
	c.Reset()
	return c
}

func (c *CPU) Reset() {
	for i := range c.regs {
		c.regs[i] = 0
	}
	c.hi, c.lo = 0, 0
	c.pc = resetPC
	c.currentPC = resetPC
	c.hasBranchDelay = false
	c.pending = pendingLoad{}
	c.writeback = pendingLoad{}
	c.cop0.Reset()
	c.gte.Reset()
	c.haltedUnimplemented = ""
}

func (c *CPU) GetPC() uint32    { return c.pc }
func (c *CPU) Reg(i int) uint32 { return c.regs[i&0x1F] }
func (c *CPU) HI() uint32       { return c.hi }
func (c *CPU) LO() uint32       { return c.lo }
func (c *CPU) Status() uint32   { return c.cop0.Status() }

// setReg writes a GPR immediately (used for everything except load
// results, which must go through the delay slot).
func (c *CPU) setReg(index uint32, value uint32) {
	if index == 0 {
		return
	}
	c.regs[index&0x1F] = value
}

// installLoadDelay arms a load's result in the writeback slot;
// commitPendingLoad promotes it to the pending slot at the start of the
// next instruction.
func (c *CPU) installLoadDelay(reg uint32, value uint32) {
	if reg == 0 {
		return
	}
	c.writeback = pendingLoad{reg: reg, value: value, valid: true}
}

// mergeBaseForLoad is used by LWL/LWR: the new partial-word result
// combines with whatever load-delay value is already in flight for
// the same register, rather than discarding it.
func (c *CPU) mergeBaseForLoad(reg uint32) uint32 {
	if c.pending.valid && c.pending.reg == reg {
		return c.pending.value
	}
	return c.regs[reg&0x1F]
}

// StepInstruction runs exactly one fetch/execute cycle:
// poll vblank into I_STATUS, commit the previous instruction's load
// delay, fetch, execute, then run any armed branch-delay instruction.
func (c *CPU) StepInstruction() {
	if c.haltedUnimplemented != "" {
		return
	}

	c.bus.ConsumeVBlankEdge() // latches into I_STATUS on the bus/intc side

	if c.cop0.InterruptsEnabled() && c.bus.InterruptPending() {
		c.fireException(ExcInt, false, 0, false)
		return
	}

	c.inBranchDelaySlot = false
	if !c.runOne(c.pc) {
		return
	}

	if c.hasBranchDelay {
		target := c.branchDelayPC
		c.hasBranchDelay = false
		c.inBranchDelaySlot = true
		ok := c.runOne(c.pc)
		c.inBranchDelaySlot = false
		if ok {
			c.pc = target
		}
	}
}

// runOne commits the prior instruction's load delay, fetches the word
// at addr, advances pc to addr+4, and executes it. Returns false if an
// exception was raised instead (a fetch alignment fault or a fault
// raised while executing). A fault raised by an instruction sitting
// just before its own exception vector address is not detected.
func (c *CPU) runOne(addr uint32) bool {
	c.commitPendingLoad()

	c.currentPC = addr
	if addr%4 != 0 {
		c.fireException(ExcAdEL, c.inBranchDelaySlot, addr, true)
		return false
	}

	word := c.bus.ReadWord(addr)
	c.pc = addr + 4
	c.execute(decode(word))
	// execute only moves pc away from addr+4 when fireException vectors it.
	return c.pc == addr+4
}

// commitPendingLoad moves the previous instruction's load-delay value
// into the register file and promotes this instruction's own load (if
// any) into the pending slot for the next step.
func (c *CPU) commitPendingLoad() {
	if c.pending.valid {
		c.setReg(c.pending.reg, c.pending.value)
	}
	c.pending = c.writeback
	c.writeback = pendingLoad{}
}

func (c *CPU) warnUnimplemented(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Error("cpu: unimplemented", "detail", msg, "pc", fmt.Sprintf("0x%08X", c.currentPC))
	c.haltedUnimplemented = msg
}
