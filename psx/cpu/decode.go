package cpu

// instruction is a decoded MIPS-I word, split into every field format
// (R/I/J) needs. A tagged-variant decode step feeding a single
// execute switch is the natural shape here; a plain field struct
// plays the same
// role here without the allocation a sum type would cost in Go.
type instruction struct {
	raw    uint32
	opcode uint32
	rs     uint32
	rt     uint32
	rd     uint32
	shamt  uint32
	funct  uint32
	imm16  uint32
	imm26  uint32
}

func decode(word uint32) instruction {
	return instruction{
		raw:    word,
		opcode: word >> 26,
		rs:     (word >> 21) & 0x1F,
		rt:     (word >> 16) & 0x1F,
		rd:     (word >> 11) & 0x1F,
		shamt:  (word >> 6) & 0x1F,
		funct:  word & 0x3F,
		imm16:  word & 0xFFFF,
		imm26:  word & 0x03FFFFFF,
	}
}

func (i instruction) signExtendImm() uint32 {
	return uint32(int32(int16(i.imm16)))
}
