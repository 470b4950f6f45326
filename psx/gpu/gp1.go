package gpu

// HandleGP1 executes a GP1 display-control word. Unlike GP0, every
// GP1 command is exactly one word — no buffering is needed.
func (g *GPU) HandleGP1(word uint32) {
	switch (word >> 24) & 0xFF {
	case 0x00:
		g.Reset()
	case 0x01:
		g.gp0Buffer = g.gp0Buffer[:0]
	case 0x02:
		g.irqRequested = false
	case 0x03:
		g.display.displayDisabled = word&1 != 0
	case 0x05:
		g.display.originX = word & 0x3FF
		g.display.originY = (word >> 10) & 0x1FF
	case 0x07:
		g.display.rangeY1 = word & 0x3FF
		g.display.rangeY2 = (word >> 10) & 0x3FF
	case 0x08:
		hres1 := word & 3
		hres2 := (word >> 6) & 1
		if hres2 == 1 {
			g.display.horizontalRes = 368
		} else {
			switch hres1 {
			case 0:
				g.display.horizontalRes = 256
			case 1:
				g.display.horizontalRes = 320
			case 2:
				g.display.horizontalRes = 512
			case 3:
				g.display.horizontalRes = 640
			}
		}
		g.display.verticalRes240 = (word>>2)&1 == 0
		g.display.videoModePAL = (word>>3)&1 != 0
		g.display.colorDepth24 = (word>>4)&1 != 0
		g.display.interlace = (word>>5)&1 != 0
	default:
		// GP1(04h) DMA direction, GP1(06h) horizontal range, GP1(10h)
		// GPU info queries: not observable through Status() in this
		// core, so left as no-ops.
	}
}
