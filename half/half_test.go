package half

import (
	"math"
	"testing"
)

func TestFloat32(t *testing.T) {
	tests := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0},
		{0x3C00, 1},
		{0xC000, -2},
		{0x3800, 0.5},
		{0x7BFF, 65504},
		{0x0001, 5.9604645e-08},
		{0x7C00, float32(math.Inf(1))},
	}
	for _, tt := range tests {
		if got := FromBits(tt.bits).Float32(); got != tt.want {
			t.Errorf("Half(0x%04X).Float32() = %v, want %v", tt.bits, got, tt.want)
		}
	}
	if !FromBits(0x7E00).IsNaN() {
		t.Error("0x7E00 should be NaN")
	}
}
