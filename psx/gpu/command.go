package gpu

// PushGP0 feeds one word into the command stream. This is deliberately
// an append-only buffer plus a decoder that reports "need more" or
// "consumed N" — no coroutine, no goroutine-per-command.
func (g *GPU) PushGP0(word uint32) {
	if g.vramWrite != nil {
		g.feedVRAMWrite(word)
		return
	}

	g.gp0Buffer = append(g.gp0Buffer, word)
	for {
		consumed := g.tryDecodeGP0()
		if consumed == 0 {
			return
		}
		g.gp0Buffer = g.gp0Buffer[consumed:]
	}
}

// ReadGP0 drains a pending VRAM->CPU transfer two pixels at a time.
// Outside of such a transfer it returns 0; the last VRAM word read is
// not retained.
func (g *GPU) ReadGP0() uint32 {
	if g.vramRead == nil {
		return 0
	}
	lo := g.nextTransferPixel(g.vramRead)
	hi := uint32(0)
	if g.vramRead.pixelsDone < g.vramRead.w*g.vramRead.h {
		hi = uint32(g.nextTransferPixel(g.vramRead))
	}
	if g.vramRead.pixelsDone >= g.vramRead.w*g.vramRead.h {
		g.vramRead = nil
	}
	return uint32(lo) | uint32(hi)<<16
}

func (g *GPU) nextTransferPixel(tr *rectTransfer) uint16 {
	row := tr.pixelsDone / tr.w
	col := tr.pixelsDone % tr.w
	tr.pixelsDone++
	return g.pixelAt(tr.x+col, tr.y+row)
}

// GPULinkedAcceptsMore backs dma.Ports.GPULinkedAcceptsMore: it always
// reports true, matching the "always ready" GP0-FIFO bits this core
// reports in Status().
func (g *GPU) GPULinkedAcceptsMore() bool {
	return true
}

func classOf(word uint32) uint32   { return word >> 29 }
func cmdByteOf(word uint32) uint32 { return (word >> 24) & 0xFF }

// tryDecodeGP0 inspects g.gp0Buffer[0] and, if enough words have
// accumulated to fully decode the command, executes it and returns
// the word count consumed. It returns 0 if more words are needed.
func (g *GPU) tryDecodeGP0() int {
	buf := g.gp0Buffer
	if len(buf) == 0 {
		return 0
	}
	header := buf[0]

	switch classOf(header) {
	case 0x0:
		return g.decodeMisc(buf)
	case 0x1:
		return g.decodePolygon(buf)
	case 0x2:
		return g.decodeLine(buf)
	case 0x3:
		return g.decodeRectangle(buf)
	case 0x4:
		return g.decodeVRAMToVRAM(buf)
	case 0x5:
		return g.decodeCPUToVRAM(buf)
	case 0x6:
		return g.decodeVRAMToCPU(buf)
	case 0x7:
		return g.decodeEnvironment(buf)
	default:
		return 1
	}
}

func (g *GPU) decodeMisc(buf []uint32) int {
	switch cmdByteOf(buf[0]) {
	case 0x02: // quick fill
		if len(buf) < 3 {
			return 0
		}
		g.quickFill(buf[0], buf[1], buf[2])
		return 3
	default: // NOP, clear cache, IRQ request, and reserved codes: all single-word no-ops
		return 1
	}
}

func (g *GPU) decodeLine(buf []uint32) int {
	header := buf[0]
	gouraud := header&(1<<28) != 0
	polyline := header&(1<<27) != 0

	if !polyline {
		need := 2
		if gouraud {
			need = 3
		}
		if len(buf) < need {
			return 0
		}
		return need
	}

	// Polylines terminate on a 0x55555555 sentinel vertex word; scan
	// forward without drawing anything (line rendering is a documented
	// non-goal — this core only needs to keep the FIFO in sync).
	step := 1
	if gouraud {
		step = 2
	}
	for i := 1; i+step-1 < len(buf); i += step {
		term := buf[i]
		if step == 2 {
			term = buf[i+1]
		}
		if term&0xF000F000 == 0x50005000 {
			return i + step
		}
	}
	return 0
}

func (g *GPU) decodeEnvironment(buf []uint32) int {
	g.applyEnvironment(buf[0])
	return 1
}
