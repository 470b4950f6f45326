package bit

import "testing"

func TestIsSet(t *testing.T) {
	tests := []struct {
		value    uint32
		index    uint
		expected bool
	}{
		{0b10101010, 0, false},
		{0b10101010, 1, true},
		{0b10101010, 2, false},
		{0b10101010, 7, true},
	}

	for _, tt := range tests {
		if result := IsSet(tt.index, tt.value); result != tt.expected {
			t.Errorf("IsSet(%d, %032b) = %v; want %v", tt.index, tt.value, result, tt.expected)
		}
	}
}

func TestSetAndClear(t *testing.T) {
	v := uint32(0b1010)
	if got := Set(0, v); got != 0b1011 {
		t.Errorf("Set(0, %b) = %b; want 1011", v, got)
	}
	if got := Clear(1, v); got != 0b1000 {
		t.Errorf("Clear(1, %b) = %b; want 1000", v, got)
	}
}

func TestExtract(t *testing.T) {
	if got := Extract(0b11010110, 6, 4); got != 0b101 {
		t.Errorf("Extract(0b11010110, 6, 4) = %b; want 101", got)
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend(0x1F, 5); got != -1 {
		t.Errorf("SignExtend(0x1F, 5) = %d; want -1", got)
	}
	if got := SignExtend(0x0F, 5); got != 15 {
		t.Errorf("SignExtend(0x0F, 5) = %d; want 15", got)
	}
}

func TestSignExtend16(t *testing.T) {
	if got := SignExtend16(0xFFFF); got != 0xFFFFFFFF {
		t.Errorf("SignExtend16(0xFFFF) = %#x; want 0xFFFFFFFF", got)
	}
	if got := SignExtend16(0x7FFF); got != 0x7FFF {
		t.Errorf("SignExtend16(0x7FFF) = %#x; want 0x7FFF", got)
	}
}

func TestBCDRoundTrip(t *testing.T) {
	for dec := uint8(0); dec < 100; dec++ {
		bcd := DecToBCD(dec)
		if got := BCDToDec(bcd); got != dec {
			t.Errorf("BCDToDec(DecToBCD(%d)) = %d; want %d", dec, got, dec)
		}
	}
}

func TestAligned(t *testing.T) {
	if !AlignedWord(0x1000) || AlignedWord(0x1001) {
		t.Errorf("AlignedWord mismatch")
	}
	if !AlignedHalf(0x1002) || AlignedHalf(0x1003) {
		t.Errorf("AlignedHalf mismatch")
	}
}
