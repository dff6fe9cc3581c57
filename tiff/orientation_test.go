package tiff

import (
	"slices"
	"testing"
)

func TestOrientationFlip(t *testing.T) {
	tests := []struct {
		stored, requested uint16
		want              flipMask
	}{
		{OrientationTopLeft, OrientationTopLeft, 0},
		{OrientationTopLeft, OrientationBotLeft, flipVertically},
		{OrientationTopLeft, OrientationTopRight, flipHorizontally},
		{OrientationBotRight, OrientationTopLeft, flipHorizontally | flipVertically},
		{OrientationBotLeft, OrientationBotLeft, 0},
		{OrientationLeftTop, OrientationBotLeft, flipVertically},
		{OrientationRightBot, OrientationBotRight, 0},
		{OrientationLeftBot, OrientationTopLeft, flipVertically},
	}
	for _, tt := range tests {
		if got := orientationFlip(tt.stored, tt.requested); got != tt.want {
			t.Errorf("orientationFlip(%d, %d) = %b, want %b", tt.stored, tt.requested, got, tt.want)
		}
	}
	// Flipping is its own inverse, so the table is symmetric.
	for s := range flipTable {
		for r := range flipTable[s] {
			if flipTable[s][r] != flipTable[r][s] {
				t.Errorf("flipTable[%d][%d] != flipTable[%d][%d]", s, r, r, s)
			}
		}
	}
}

func TestApplyFlip(t *testing.T) {
	// 3 x 2 raster:
	//   1 2 3
	//   4 5 6
	tests := []struct {
		name string
		m    flipMask
		want []uint32
	}{
		{"none", 0, []uint32{1, 2, 3, 4, 5, 6}},
		{"horizontal", flipHorizontally, []uint32{3, 2, 1, 6, 5, 4}},
		{"vertical", flipVertically, []uint32{4, 5, 6, 1, 2, 3}},
		{"both", flipHorizontally | flipVertically, []uint32{6, 5, 4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raster := []uint32{1, 2, 3, 4, 5, 6}
			applyFlip(raster, 3, 2, tt.m)
			if !slices.Equal(raster, tt.want) {
				t.Errorf("applyFlip = %v, want %v", raster, tt.want)
			}
		})
	}

	// An odd row count leaves the middle row in place.
	raster := []uint32{1, 2, 3}
	applyFlip(raster, 1, 3, flipVertically)
	if !slices.Equal(raster, []uint32{3, 2, 1}) {
		t.Errorf("applyFlip on 1x3 = %v", raster)
	}
}
