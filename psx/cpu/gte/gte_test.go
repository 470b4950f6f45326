package gte

import "testing"

func TestResetClearsState(t *testing.T) {
	g := New()
	g.WriteData(0, 0x00010002)
	g.WriteControl(5, 0x1000)
	g.Reset()

	if g.ReadData(0) != 0 {
		t.Fatalf("VXY0 = 0x%X after reset, want 0", g.ReadData(0))
	}
	if g.ReadControl(5) != 0 {
		t.Fatalf("TRX = 0x%X after reset, want 0", g.ReadControl(5))
	}
}

func TestVertexRegisterPacking(t *testing.T) {
	g := New()
	g.WriteData(0, 0xFFFF0005) // VY0 = -1, VX0 = 5
	if g.VX0 != 5 || g.VY0 != -1 {
		t.Fatalf("VX0/VY0 = %d/%d, want 5/-1", g.VX0, g.VY0)
	}
	if got := g.ReadData(0); got != 0xFFFF0005 {
		t.Fatalf("ReadData(0) = 0x%X, want 0xFFFF0005", got)
	}
}

func TestAvsz3AveragesAndScales(t *testing.T) {
	g := New()
	g.ZSF3 = 1
	g.SZ1, g.SZ2, g.SZ3 = 0x1000, 0x1000, 0x1000
	g.avsz3()

	if g.OTZ != 0x1000 {
		t.Fatalf("OTZ = 0x%X, want 0x1000", g.OTZ)
	}
}

func TestAvsz3SetsOverflowFlagBit18OnClamp(t *testing.T) {
	g := New()
	g.ZSF3 = 0x7FFF
	g.SZ1, g.SZ2, g.SZ3 = 0xFFFF, 0xFFFF, 0xFFFF
	g.avsz3()

	if g.OTZ != 0xFFFF {
		t.Fatalf("OTZ = 0x%X, want clamped 0xFFFF", g.OTZ)
	}
	if g.FLAG&(1<<18) == 0 {
		t.Fatalf("FLAG bit 18 not set on OTZ clamp")
	}
}

func TestIrgbOrgbRoundTrip(t *testing.T) {
	g := New()
	g.WriteData(28, 0x1F|0x00<<5|0x00<<10) // pure red at max intensity
	if g.IR1 != 0x1F*0x80 {
		t.Fatalf("IR1 = %d, want %d", g.IR1, 0x1F*0x80)
	}
	packed := g.orgb()
	if packed&0x1F != 0x1F {
		t.Fatalf("orgb red channel = 0x%X, want 0x1F", packed&0x1F)
	}
}

func TestNclipCrossProduct(t *testing.T) {
	g := New()
	g.SX0, g.SY0 = 0, 0
	g.SX1, g.SY1 = 10, 0
	g.SX2, g.SY2 = 0, 10
	g.nclip()
	if g.MAC0 != 100 {
		t.Fatalf("MAC0 = %d, want 100 (positive winding area)", g.MAC0)
	}
}

func TestUnrDivideSaturatesWhenDivisorTooSmall(t *testing.T) {
	g := New()
	result := g.unrDivide(0xFFFF, 1)
	if result != 0x1FFFF {
		t.Fatalf("unrDivide = 0x%X, want saturated 0x1FFFF", result)
	}
	if g.FLAG&(1<<17) == 0 {
		t.Fatalf("FLAG bit 17 not set on divide saturation")
	}
}

func TestUnrDivideEqualOperandsIsOne(t *testing.T) {
	g := New()
	result := g.unrDivide(0x1000, 0x1000)
	if result < 0xFFF0 || result > 0x10010 {
		t.Fatalf("unrDivide(0x1000, 0x1000) = 0x%X, want close to 0x10000", result)
	}
}

func TestMvmvaWithZeroVectorIsJustOffset(t *testing.T) {
	g := New()
	g.TRX, g.TRY, g.TRZ = 100, 200, 300
	g.VX0, g.VY0, g.VZ0 = 0, 0, 0
	// mx=0 (RT), vx=0 (V0), tx=0 (TR), sf=1 (shift back down to integer), lm=0
	g.Command(0x12 | 1<<19)
	if g.MAC1 != 100 || g.MAC2 != 200 || g.MAC3 != 300 {
		t.Fatalf("MAC = (%d,%d,%d), want (100,200,300)", g.MAC1, g.MAC2, g.MAC3)
	}
}
