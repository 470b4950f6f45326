package gpu

import "testing"

func TestQuickFillAndReadback(t *testing.T) {
	g := New()
	g.PushGP0(0x02FF00FF)
	g.PushGP0(0x00000000)
	g.PushGP0(0x00100010)

	for y := uint32(0); y < 16; y++ {
		for x := uint32(0); x < 16; x++ {
			if got := g.pixelAt(x, y); got != 0x7C1F {
				t.Fatalf("pixel(%d,%d) = 0x%04X, want 0x7C1F", x, y, got)
			}
		}
	}
}

func TestGP0BufferWaitsForFullCommand(t *testing.T) {
	g := New()
	g.PushGP0(0x02FF00FF)
	g.PushGP0(0x00000000)
	if len(g.gp0Buffer) != 2 {
		t.Fatalf("expected the quick-fill command to still be buffered after 2/3 words")
	}
	g.PushGP0(0x00100010)
	if len(g.gp0Buffer) != 0 {
		t.Fatalf("expected the buffer to drain once the full command arrived")
	}
}

func TestOversizedPolygonIsDroppedNotDrawn(t *testing.T) {
	g := New()
	// Flat opaque triangle command (class 1, not gouraud, not quad, not textured).
	header := uint32(0x20000000) | 0x00FF00
	g.PushGP0(header)
	g.PushGP0(0x00000000)      // v0 = (0,0)
	g.PushGP0(uint32(uint16(2000))<<16 | 0) // v1 = (0, 2000) -- exceeds the 511-tall limit
	g.PushGP0(uint32(uint16(2000))<<16 | uint32(uint16(2000)))

	if g.DroppedOversizedDraws() != 1 {
		t.Fatalf("DroppedOversizedDraws() = %d, want 1", g.DroppedOversizedDraws())
	}
	if g.pixelAt(1, 1) != 0 {
		t.Fatalf("oversized triangle must not touch VRAM")
	}
}

func TestFlatTriangleFillsInterior(t *testing.T) {
	g := New()
	header := uint32(0x20000000) | 0x0000FF // red
	g.PushGP0(header)
	g.PushGP0(packPos(0, 0))
	g.PushGP0(packPos(20, 0))
	g.PushGP0(packPos(0, 20))

	if got := g.pixelAt(5, 5); got == 0 {
		t.Fatalf("interior pixel (5,5) was not rasterized")
	}
	if got := g.pixelAt(100, 100); got != 0 {
		t.Fatalf("pixel far outside the triangle should be untouched, got 0x%04X", got)
	}
}

func packPos(x, y int16) uint32 {
	return uint32(uint16(x)) | uint32(uint16(y))<<16
}

func TestStatusBit31TracksVblank(t *testing.T) {
	g := New()
	g.HandleGP1(0x07000000 | 0x10 | 0x40<<10) // rangeY1=0x10, rangeY2=0x40 -- a short active window

	sawDroppedToLow := false
	for i := 0; i < CyclesPerScanline*TotalScanlines; i++ {
		g.Tick()
		if g.Status()&(1<<31) == 0 {
			sawDroppedToLow = true
			break
		}
	}
	if !sawDroppedToLow {
		t.Fatalf("expected Status() bit 31 to clear once the pixel counter enters vblank")
	}
}

func TestVblankEdgeIsOneShot(t *testing.T) {
	g := New()
	g.HandleGP1(0x07000000 | 0x10 | 0x11<<10) // a one-scanline active window

	fired := 0
	for i := 0; i < CyclesPerScanline*TotalScanlines; i++ {
		g.Tick()
		if g.ConsumeVBlankEdge() {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("ConsumeVBlankEdge fired %d times in one field, want 1", fired)
	}
}

func TestCPUToVRAMTransferRoundTrips(t *testing.T) {
	g := New()
	g.PushGP0(0xA0000000) // CPU->VRAM header
	g.PushGP0(0x00000000) // dest (0,0)
	g.PushGP0(0x00020002) // 2x2

	g.PushGP0(0x7C1F0000) // pixel0 = 0x0000, pixel1 = 0x7C1F
	g.PushGP0(0x7C1F7C1F) // pixel2 = 0x7C1F, pixel3 = 0x7C1F

	if g.pixelAt(1, 0) != 0x7C1F {
		t.Fatalf("pixel(1,0) = 0x%04X, want 0x7C1F", g.pixelAt(1, 0))
	}
	if g.pixelAt(0, 1) != 0x7C1F {
		t.Fatalf("pixel(0,1) = 0x%04X, want 0x7C1F", g.pixelAt(0, 1))
	}

	g.PushGP0(0xC0000000) // VRAM->CPU header
	g.PushGP0(0x00000000)
	g.PushGP0(0x00020002)
	w0 := g.ReadGP0()
	w1 := g.ReadGP0()
	if w0 != 0x7C1F0000 {
		t.Fatalf("ReadGP0() word0 = 0x%08X, want 0x7C1F0000", w0)
	}
	if w1 != 0x7C1F7C1F {
		t.Fatalf("ReadGP0() word1 = 0x%08X, want 0x7C1F7C1F", w1)
	}
}
