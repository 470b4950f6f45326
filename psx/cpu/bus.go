package cpu

// Bus is everything the interpreter needs from the system bus: plain
// little-endian word/half/byte accessors, plus the vblank edge and
// interrupt-pending signals it must poll once per instruction. Kept
// as an interface, the way go-jeebie's
// BusInterface decouples cpu from memory/video, so the concrete psx.Bus
// can live at the module root without an import cycle.
type Bus interface {
	ReadByte(address uint32) byte
	ReadHalf(address uint32) uint16
	ReadWord(address uint32) uint32

	WriteByte(address uint32, value byte)
	WriteHalf(address uint32, value uint16)
	WriteWord(address uint32, value uint32)

	// ConsumeVBlankEdge reports, at most once per actual transition,
	// that the GPU has just entered vblank.
	ConsumeVBlankEdge() bool

	// InterruptPending reports I_STATUS & I_MASK != 0.
	InterruptPending() bool
}
