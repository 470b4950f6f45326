package cpu

// fireException sets CAUSE.ExcCode, writes EPC (rolling back 4 bytes
// if the faulting
// instruction was itself a branch-delay slot), push the STATUS
// mode/IE pair, and vector PC to the BEV-selected handler address.
func (c *CPU) fireException(excCode uint32, inDelaySlot bool, badVAddr uint32, hasBadVAddr bool) {
	vector := c.cop0.enterException(excCode, c.currentPC, inDelaySlot, badVAddr, hasBadVAddr)
	c.pc = vector
	c.hasBranchDelay = false
}

// fireExceptionHere is used by instructions (SYSCALL, BREAK, overflow
// traps, reserved opcode) that fault during their own execution; the
// branch-delay-slot flag carries over from whether this instruction
// was itself entered as a delay slot.
func (c *CPU) fireExceptionHere(excCode uint32) {
	c.fireException(excCode, c.inBranchDelaySlot, 0, false)
}
