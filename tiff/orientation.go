package tiff

import "slices"

type flipMask uint8

const (
	flipHorizontally flipMask = 1 << iota
	flipVertically
)

// orientationGroup folds the eight orientations onto the four corners
// their row 0 and column 0 meet at. Transposed orientations are treated
// like their untransposed partners.
func orientationGroup(o uint16) int {
	switch o {
	case OrientationTopRight, OrientationRightTop:
		return 1
	case OrientationBotRight, OrientationRightBot:
		return 2
	case OrientationBotLeft, OrientationLeftBot:
		return 3
	}
	return 0
}

// flipTable[stored][requested] is the mirroring that turns a raster in
// stored order into the requested orientation.
var flipTable = [4][4]flipMask{
	// TOPLEFT
	{0, flipHorizontally, flipHorizontally | flipVertically, flipVertically},
	// TOPRIGHT
	{flipHorizontally, 0, flipVertically, flipHorizontally | flipVertically},
	// BOTRIGHT
	{flipHorizontally | flipVertically, flipVertically, 0, flipHorizontally},
	// BOTLEFT
	{flipVertically, flipHorizontally | flipVertically, flipHorizontally, 0},
}

func orientationFlip(stored, requested uint16) flipMask {
	return flipTable[orientationGroup(stored)][orientationGroup(requested)]
}

// applyFlip mirrors the w x h raster in place.
func applyFlip(raster []uint32, w, h int, m flipMask) {
	if m&flipVertically != 0 {
		for top, bot := 0, h-1; top < bot; top, bot = top+1, bot-1 {
			a := raster[top*w : top*w+w]
			b := raster[bot*w : bot*w+w]
			for i := range a {
				a[i], b[i] = b[i], a[i]
			}
		}
	}
	if m&flipHorizontally != 0 {
		for y := 0; y < h; y++ {
			slices.Reverse(raster[y*w : y*w+w])
		}
	}
}
