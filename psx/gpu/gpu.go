// Package gpu implements the GP0/GP1 command machine, the 1024x512
// VRAM framebuffer, and the rasterizer — the single
// largest subsystem in the core. Grounded on go-jeebie's
// internal/video package for the overall shape of a pixel-tick-driven
// GPU object owned by the bus and polled once per system tick, adapted
// from the Game Boy's fixed background/sprite pipeline to the PSX's
// programmable GP0 command stream.
package gpu

const (
	VRAMWidth  = 1024
	VRAMHeight = 512

	// CyclesPerScanline and TotalScanlines are the NTSC timing
	// constants.
	CyclesPerScanline = 2500
	TotalScanlines    = 245
)

// TextureColorMode selects how GP0 texture reads interpret VRAM bytes.
type TextureColorMode uint32

const (
	TexMode4Bit TextureColorMode = iota
	TexMode8Bit
	TexMode15Bit
)

// SemiTransparencyMode selects the blend equation applied when the
// destination pixel's mask bit and the draw command's transparent flag
// are both set.
type SemiTransparencyMode uint32

const (
	BlendHalfPlusHalf SemiTransparencyMode = iota // B/2 + F/2
	BlendAdd                                      // B + F
	BlendSubtract                                 // B - F
	BlendAddQuarter                               // B + F/4
)

// drawMode is everything GP0 0xE1 configures, plus the texture window
// and drawing-area/offset registers the other 0xE2-0xE5 commands set.
type drawMode struct {
	texPageX, texPageY     uint32
	texColorMode           TextureColorMode
	semiTransparency       SemiTransparencyMode
	dither                 bool
	drawToDisplay          bool
	textureDisable         bool
	rectTextureFlipX       bool
	rectTextureFlipY       bool
	texWindowMaskX         uint32
	texWindowMaskY         uint32
	texWindowOffsetX       uint32
	texWindowOffsetY       uint32
	drawAreaLeft, drawAreaTop     int32
	drawAreaRight, drawAreaBottom int32
	drawOffsetX, drawOffsetY      int32
	forceMaskBit           bool
	checkMaskBit           bool
}

// displayConfig is everything GP1 0x05/0x07/0x08 configure.
type displayConfig struct {
	originX, originY   uint32
	rangeY1, rangeY2   uint32
	horizontalRes      uint32
	verticalRes240     bool
	interlace          bool
	colorDepth24       bool
	displayDisabled    bool
	videoModePAL       bool
}

// GPU owns the VRAM framebuffer, the GP0 command decoder's pending
// word buffer, drawing/display state, and the video-timing pixel
// counter.
type GPU struct {
	vram [VRAMWidth * VRAMHeight]uint16

	mode    drawMode
	display displayConfig

	gp0Buffer []uint32

	// vramWrite/vramRead track an in-progress CPU<->VRAM transfer that
	// spans multiple PushGP0/ReadGP0 calls.
	vramWrite *rectTransfer
	vramRead  *rectTransfer

	irqRequested bool

	pixelCount       int64
	wasVblank        bool
	vblankEdgePending bool
	hblankEdgePending bool
	frameReadyPending bool

	droppedOversizedDraws uint64
}

// rectTransfer is the cursor over an in-flight CPU<->VRAM rectangle
// transfer: the destination/source rectangle plus how many of the
// w*h pixels (packed two per word) have been consumed so far.
type rectTransfer struct {
	x, y, w, h   uint32
	pixelsDone   uint32
	halfWordLow  uint16
	haveHalfWord bool
}

func New() *GPU {
	g := &GPU{}
	g.Reset()
	return g
}

// Reset matches GP1(0x00): clears the command buffer and in-flight
// transfers and restores default drawing/display state, but leaves
// VRAM contents untouched (real hardware doesn't clear VRAM on a GPU
// reset either).
func (g *GPU) Reset() {
	g.mode = drawMode{}
	g.display = displayConfig{horizontalRes: 256, verticalRes240: true}
	g.gp0Buffer = g.gp0Buffer[:0]
	g.vramWrite = nil
	g.vramRead = nil
	g.irqRequested = false
}

// Status assembles GPUSTAT. Bit 31 is defined here as
// "DMA/data ready" tracking !is_vblank(), overriding the odd/even
// interlace-line meaning real hardware gives that bit — simpler, and
// sufficient since this core doesn't model interlaced field parity.
func (g *GPU) Status() uint32 {
	var s uint32
	s |= (g.mode.texPageX / 64) & 0xF
	if g.mode.texPageY == 256 {
		s |= 1 << 4
	}
	s |= uint32(g.mode.semiTransparency) << 5
	s |= uint32(g.mode.texColorMode) << 7
	if g.mode.dither {
		s |= 1 << 9
	}
	if g.mode.drawToDisplay {
		s |= 1 << 10
	}
	if g.mode.forceMaskBit {
		s |= 1 << 11
	}
	if g.mode.checkMaskBit {
		s |= 1 << 12
	}
	if g.mode.textureDisable {
		s |= 1 << 15
	}
	switch g.display.horizontalRes {
	case 368:
		s |= 1 << 16
	case 320:
		s |= 1 << 17
	case 512:
		s |= 2 << 17
	case 640:
		s |= 3 << 17
	}
	if !g.display.verticalRes240 {
		s |= 1 << 19
	}
	if g.display.videoModePAL {
		s |= 1 << 20
	}
	if g.display.colorDepth24 {
		s |= 1 << 21
	}
	if g.display.interlace {
		s |= 1 << 22
	}
	if g.display.displayDisabled {
		s |= 1 << 23
	}
	if g.irqRequested {
		s |= 1 << 24
	}
	s |= 1 << 26 // always ready for a new GP0 command word
	s |= 1 << 27 // always ready to send VRAM->CPU data
	s |= 1 << 28 // always ready to receive a DMA block
	if !g.isVblank() {
		s |= 1 << 31
	}
	return s
}

// isVblank checks the pixel counter against the
// configured display range rather than a hardcoded scanline band, so
// GP1(0x07) actually changes the vblank window.
func (g *GPU) isVblank() bool {
	y1, y2 := g.display.rangeY1, g.display.rangeY2
	if y2 <= y1 {
		y1, y2 = 0x10, 0x100
	}
	return g.pixelCount > int64(CyclesPerScanline)*int64(y2-y1)
}

// Tick advances the pixel counter by one step, the "one GPU
// pixel" slot in the fixed per-instruction tick order.
// It edge-detects vblank/hblank and wraps the counter at field end.
func (g *GPU) Tick() {
	g.pixelCount++

	total := int64(CyclesPerScanline) * int64(TotalScanlines)
	if g.pixelCount >= total {
		g.pixelCount -= total
		g.frameReadyPending = true
	}

	vb := g.isVblank()
	if vb && !g.wasVblank {
		g.vblankEdgePending = true
	}
	g.wasVblank = vb

	if g.pixelCount%CyclesPerScanline == 0 {
		g.hblankEdgePending = true
	}
}

// ConsumeVBlankEdge implements the cpu.Bus-facing one-shot vblank
// signal.
func (g *GPU) ConsumeVBlankEdge() bool {
	v := g.vblankEdgePending
	g.vblankEdgePending = false
	return v
}

func (g *GPU) ConsumeHBlankEdge() bool {
	v := g.hblankEdgePending
	g.hblankEdgePending = false
	return v
}

func (g *GPU) ConsumeFrameReady() bool {
	v := g.frameReadyPending
	g.frameReadyPending = false
	return v
}

// VRAM exposes the framebuffer for the host/debug TUI to read; callers
// must not retain the slice across a Reset.
func (g *GPU) VRAM() []uint16 { return g.vram[:] }

func (g *GPU) pixelAt(x, y uint32) uint16 {
	x &= VRAMWidth - 1
	y &= VRAMHeight - 1
	return g.vram[y*VRAMWidth+x]
}

func (g *GPU) setPixel(x, y uint32, v uint16) {
	x &= VRAMWidth - 1
	y &= VRAMHeight - 1
	g.vram[y*VRAMWidth+x] = v
}

// DroppedOversizedDraws counts polygon/rectangle commands skipped for
// exceeding the 1023x511 bounding-box limit, counted rather than
// silently discarded; the drops are not logged.
func (g *GPU) DroppedOversizedDraws() uint64 { return g.droppedOversizedDraws }
