package tiff

// ycbcrShift is the fixed-point precision of the conversion tables.
const ycbcrShift = 16

func fix(x float32) int32 { return int32(x*(1<<ycbcrShift) + 0.5) }

// ycbcrConverter turns 8-bit YCbCr codes into RGB with integer tables
// built from the luma coefficients and reference black and white.
type ycbcrConverter struct {
	crR, cbB [256]int32
	crG, cbG [256]int32
	y        [256]int32
}

func clampf(v, lo, hi float32) float32 {
	return max(lo, min(hi, v))
}

// code2V maps code c into [0, cr] given the codes of reference black rb
// and white rw.
func code2V(c, rb, rw, cr float32) float32 {
	d := rw - rb
	if d == 0 {
		d = 1
	}
	return (c - rb) * cr / d
}

func newYCbCrConverter(luma, refBW []float64) *ycbcrConverter {
	if len(luma) < 3 {
		luma = []float64{0.299, 0.587, 0.114}
	}
	if len(refBW) < 6 {
		refBW = []float64{0, 255, 128, 255, 128, 255}
	}
	lumaRed, lumaGreen, lumaBlue := float32(luma[0]), float32(luma[1]), float32(luma[2])
	if lumaGreen == 0 {
		lumaGreen = 1
	}
	var rb [6]float32
	for i := range rb {
		rb[i] = float32(refBW[i])
	}

	f1 := 2 - 2*lumaRed
	d1 := fix(clampf(f1, 0, 2))
	f2 := lumaRed * f1 / lumaGreen
	d2 := -fix(clampf(f2, 0, 2))
	f3 := 2 - 2*lumaBlue
	d3 := fix(clampf(f3, 0, 2))
	f4 := lumaBlue * f3 / lumaGreen
	d4 := -fix(clampf(f4, 0, 2))

	c := &ycbcrConverter{}
	const half = int32(1) << (ycbcrShift - 1)
	for i := 0; i < 256; i++ {
		x := float32(i - 128)
		cr := int32(clampf(code2V(x, rb[4]-128, rb[5]-128, 127), -128*32, 128*32))
		cb := int32(clampf(code2V(x, rb[2]-128, rb[3]-128, 127), -128*32, 128*32))
		c.crR[i] = (d1*cr + half) >> ycbcrShift
		c.cbB[i] = (d3*cb + half) >> ycbcrShift
		c.crG[i] = d2 * cr
		c.cbG[i] = d4*cb + half
		c.y[i] = int32(clampf(code2V(x+128, rb[0], rb[1], 255), -128*32, 128*32))
	}
	return c
}

func clamp8(v int32) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func (c *ycbcrConverter) rgb(y, cb, cr uint8) (r, g, b uint8) {
	yv := c.y[y]
	r = clamp8(yv + c.crR[cr])
	g = clamp8(yv + (c.cbG[cb]+c.crG[cr])>>ycbcrShift)
	b = clamp8(yv + c.cbB[cb])
	return r, g, b
}

func (c *ycbcrConverter) pack(y, cb, cr uint8) uint32 {
	r, g, b := c.rgb(y, cb, cr)
	return Pack(r, g, b, 0xff)
}

// ycbcrSubsamplings are the block shapes the converter reconstructs.
var ycbcrSubsamplings = map[[2]uint16]bool{
	{1, 1}: true,
	{1, 2}: true,
	{2, 1}: true,
	{2, 2}: true,
	{4, 1}: true,
	{4, 2}: true,
	{4, 4}: true,
}

func (img *RGBAImage) setupYCbCr() error {
	d := img.f.dir
	img.ycbcr = newYCbCrConverter(d.floatsOrDefault(TagYCbCrCoefficients), d.floatsOrDefault(TagReferenceBlackWhite))
	if !img.isContig {
		img.put = putYCbCrSeparate
		return nil
	}
	sub := d.ycbcrSubsampling
	if !ycbcrSubsamplings[sub] {
		return unsupportedf("can not handle YCbCr subsampling %d:%d", sub[0], sub[1])
	}
	if sub == [2]uint16{1, 1} {
		img.put = putYCbCr11
		return nil
	}
	img.ycbcrH, img.ycbcrV = int(sub[0]), int(sub[1])
	return nil
}

func putYCbCr11(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[x*spp:]
		dst[x] = img.ycbcr.pack(p[0], p[1], p[2])
	}
}

func putYCbCrSeparate(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	for x := 0; x < n; x++ {
		dst[x] = img.ycbcr.pack(src[0][x], src[1][x], src[2][x])
	}
}

// putYCbCrBlocks converts a segment of w x h pixels coded as
// subsampling blocks: hs*vs luma samples in row order, then Cb and Cr.
// The chroma pair of a block is shared by all its pixels; blocks hanging
// over the right or bottom edge are clipped.
func (img *RGBAImage) putYCbCrBlocks(dst []uint32, data []byte, w, h int) {
	hs, vs := img.ycbcrH, img.ycbcrV
	blockBytes := hs*vs + 2
	across := (w + hs - 1) / hs
	down := (h + vs - 1) / vs
	for by := 0; by < down; by++ {
		for bx := 0; bx < across; bx++ {
			off := (by*across + bx) * blockBytes
			if off+blockBytes > len(data) {
				return
			}
			blk := data[off : off+blockBytes]
			cb, cr := blk[hs*vs], blk[hs*vs+1]
			for j := 0; j < vs; j++ {
				y := by*vs + j
				if y >= h {
					break
				}
				for i := 0; i < hs; i++ {
					x := bx*hs + i
					if x >= w {
						break
					}
					dst[y*w+x] = img.ycbcr.pack(blk[j*hs+i], cb, cr)
				}
			}
		}
	}
}
