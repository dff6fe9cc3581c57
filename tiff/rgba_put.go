package tiff

import (
	"encoding/binary"
	"math"

	"github.com/mrjoshuak/go-tiff/half"
)

var native = binary.NativeEndian

// pick selects the row converter for the image layout.
func (img *RGBAImage) pick() error {
	bps := img.bitsPerSample
	float := img.sampleFormat == SampleFormatIEEEFP
	img.planes = 1
	if !img.isContig {
		img.planes = img.colorChannels
		if img.alpha != 0 {
			img.planes++
		}
		if img.planes > int(img.samplesPerPixel) {
			img.planes = int(img.samplesPerPixel)
		}
	}

	switch img.photometric {
	case PhotometricMinIsWhite, PhotometricMinIsBlack:
		img.buildGrayMap()
		switch {
		case float:
			img.put = putGrayFloat
		case !img.isContig:
			img.put = putGraySeparate
		case bps < 8:
			img.buildBWMap()
			img.put = putPackedBW
		case img.alpha != 0 && img.samplesPerPixel == 2 && bps == 8:
			img.put = putGrayAlpha8
		case bps == 8:
			img.put = putGray8
		case bps == 16:
			img.put = putGray16
		}
	case PhotometricPalette:
		img.buildPalMap()
		img.put = putPalette
	case PhotometricRGB:
		switch {
		case float:
			img.put = putRGBFloat
		case bps == 8 && img.isContig:
			img.put = putRGB8
		case bps == 16 && img.isContig:
			img.put = putRGB16
		case bps == 8:
			img.put = putRGBSeparate8
		case bps == 16:
			img.put = putRGBSeparate16
		}
	case PhotometricSeparated:
		switch {
		case bps == 8 && img.isContig:
			img.put = putCMYK8
		case bps == 16 && img.isContig:
			img.put = putCMYK16
		case bps == 8:
			img.put = putCMYKSeparate8
		}
	case PhotometricYCbCr:
		if err := img.setupYCbCr(); err != nil {
			return err
		}
	case PhotometricCIELab, PhotometricICCLab, PhotometricITULab:
		img.cielab = newLabConverter(img.f.dir.floatsOrDefault(TagWhitePoint), img.photometric)
		if bps == 8 {
			img.put = putLab8
		} else {
			img.put = putLab16
		}
	}
	if img.put == nil && img.ycbcrH == 0 {
		return unsupportedf("can not handle format: Photometric=%s, Bits/Sample=%d, Samples/pixel=%d, separate planes=%v",
			PhotometricName(img.photometric), bps, img.samplesPerPixel, !img.isContig)
	}
	return nil
}

// buildGrayMap maps every sample value to an 8-bit intensity, inverted
// for MinIsWhite. 16-bit samples index the map by their high byte.
func (img *RGBAImage) buildGrayMap() {
	bps := img.bitsPerSample
	top := 1<<bps - 1
	if bps == 16 {
		top = 255
	}
	img.graymap = make([]uint8, top+1)
	for x := 0; x <= top; x++ {
		v := x * 255 / top
		if img.photometric == PhotometricMinIsWhite {
			v = (top - x) * 255 / top
		}
		img.graymap[x] = uint8(v)
	}
}

// buildBWMap expands each byte of packed 1, 2 or 4-bit samples into
// the pixels it holds.
func (img *RGBAImage) buildBWMap() {
	bps := int(img.bitsPerSample)
	n := 8 / bps
	mask := 1<<bps - 1
	img.perByte = n
	img.bwmap = make([]uint32, 256*n)
	for b := 0; b < 256; b++ {
		for i := 0; i < n; i++ {
			x := b >> (8 - bps*(i+1)) & mask
			c := img.graymap[x]
			img.bwmap[b*n+i] = Pack(c, c, c, 0xff)
		}
	}
}

// buildPalMap converts the colormap to packed pixels, downscaling 16-bit
// entries. Colormaps with no entry above 255 are taken as 8-bit.
func (img *RGBAImage) buildPalMap() {
	d := img.f.dir
	bps := int(img.bitsPerSample)
	n := 1 << bps
	cm := d.colormap
	shift := 8
	if isEightBitColormap(cm, n) {
		img.f.warnf("RGBAImage", "assuming 8-bit colormap")
		shift = 0
	}
	colors := make([]uint32, n)
	for i := 0; i < n && i < len(cm[0]); i++ {
		colors[i] = Pack(uint8(cm[0][i]>>shift), uint8(cm[1][i]>>shift), uint8(cm[2][i]>>shift), 0xff)
	}
	per := 8 / bps
	mask := n - 1
	img.perByte = per
	img.palmap = make([]uint32, 256*per)
	for b := 0; b < 256; b++ {
		for i := 0; i < per; i++ {
			img.palmap[b*per+i] = colors[b>>(8-bps*(i+1))&mask]
		}
	}
}

func isEightBitColormap(cm [3][]uint16, n int) bool {
	for c := range cm {
		for i := 0; i < n && i < len(cm[c]); i++ {
			if cm[c][i] >= 256 {
				return false
			}
		}
	}
	return true
}

// to8 scales a 16-bit sample to 8 bits with rounding.
func to8(v uint16) uint8 { return uint8((uint32(v)*255 + 32767) / 65535) }

// unassoc premultiplies an unassociated color component.
func unassoc(c, a uint8) uint8 { return uint8((uint32(c)*uint32(a) + 127) / 255) }

// packAlpha packs a pixel according to the image's alpha kind.
func (img *RGBAImage) packAlpha(r, g, b, a uint8) uint32 {
	if img.alpha == ExtraSampleUnassAlpha {
		r, g, b = unassoc(r, a), unassoc(g, a), unassoc(b, a)
	}
	return Pack(r, g, b, a)
}

// floatTo8 clamps a half-float sample to [0,1] and scales it to 8 bits.
func floatTo8(bits uint16) uint8 {
	h := half.FromBits(bits)
	v := h.Float32()
	switch {
	case h.IsNaN() || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}

func putPackedBW(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	per := img.perByte
	row := src[0]
	for x, i := 0, 0; x < n && i < len(row); i++ {
		entry := img.bwmap[int(row[i])*per:]
		k := min(per, n-x)
		copy(dst[x:x+k], entry[:k])
		x += k
	}
}

func putGray8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		c := img.graymap[row[x*spp]]
		dst[x] = Pack(c, c, c, 0xff)
	}
}

func putGrayAlpha8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	row := src[0]
	for x := 0; x < n; x++ {
		c := img.graymap[row[2*x]]
		dst[x] = img.packAlpha(c, c, c, row[2*x+1])
	}
}

func putGray16(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		c := img.graymap[native.Uint16(row[2*x*spp:])>>8]
		dst[x] = Pack(c, c, c, 0xff)
	}
}

func putGrayFloat(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	stride := int(img.samplesPerPixel)
	if !img.isContig {
		stride = 1
	}
	row := src[0]
	for x := 0; x < n; x++ {
		c := floatTo8(native.Uint16(row[2*x*stride:]))
		if img.photometric == PhotometricMinIsWhite {
			c = 255 - c
		}
		dst[x] = Pack(c, c, c, 0xff)
	}
}

func putGraySeparate(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	for x := 0; x < n; x++ {
		var c uint8
		if img.bitsPerSample == 16 {
			c = img.graymap[native.Uint16(src[0][2*x:])>>8]
		} else {
			c = img.graymap[sampleAt(src[0], x, int(img.bitsPerSample))]
		}
		a := uint8(0xff)
		if len(src) > 1 {
			a = planeSample8(src[1], x, img.bitsPerSample)
		}
		dst[x] = img.packAlpha(c, c, c, a)
	}
}

// sampleAt returns sample x of a row of packed samples of up to 8 bits.
func sampleAt(row []byte, x, bps int) int {
	if bps == 8 {
		return int(row[x])
	}
	bit := x * bps
	return int(row[bit/8]>>(8-bps-bit%8)) & (1<<bps - 1)
}

// planeSample8 returns sample x of a separate plane scaled to 8 bits.
func planeSample8(row []byte, x int, bps uint16) uint8 {
	switch bps {
	case 16:
		return to8(native.Uint16(row[2*x:]))
	case 8:
		return row[x]
	}
	top := 1<<bps - 1
	return uint8(sampleAt(row, x, int(bps)) * 255 / top)
}

func putPalette(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	per := img.perByte
	row := src[0]
	for x, i := 0, 0; x < n && i < len(row); i++ {
		entry := img.palmap[int(row[i])*per:]
		k := min(per, n-x)
		copy(dst[x:x+k], entry[:k])
		x += k
	}
}

func putRGB8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[x*spp:]
		a := uint8(0xff)
		if img.alpha != 0 {
			a = p[3]
		}
		dst[x] = img.packAlpha(p[0], p[1], p[2], a)
	}
}

func putRGB16(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[2*x*spp:]
		a := uint8(0xff)
		if img.alpha != 0 {
			a = to8(native.Uint16(p[6:]))
		}
		dst[x] = img.packAlpha(to8(native.Uint16(p)), to8(native.Uint16(p[2:])), to8(native.Uint16(p[4:])), a)
	}
}

func putRGBFloat(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	if !img.isContig {
		for x := 0; x < n; x++ {
			a := uint8(0xff)
			if len(src) > 3 {
				a = floatTo8(native.Uint16(src[3][2*x:]))
			}
			dst[x] = img.packAlpha(floatTo8(native.Uint16(src[0][2*x:])),
				floatTo8(native.Uint16(src[1][2*x:])), floatTo8(native.Uint16(src[2][2*x:])), a)
		}
		return
	}
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[2*x*spp:]
		a := uint8(0xff)
		if img.alpha != 0 {
			a = floatTo8(native.Uint16(p[6:]))
		}
		dst[x] = img.packAlpha(floatTo8(native.Uint16(p)), floatTo8(native.Uint16(p[2:])), floatTo8(native.Uint16(p[4:])), a)
	}
}

func putRGBSeparate8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	r, g, b := src[0], src[1], src[2]
	for x := 0; x < n; x++ {
		a := uint8(0xff)
		if len(src) > 3 {
			a = src[3][x]
		}
		dst[x] = img.packAlpha(r[x], g[x], b[x], a)
	}
}

func putRGBSeparate16(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	r, g, b := src[0], src[1], src[2]
	for x := 0; x < n; x++ {
		a := uint8(0xff)
		if len(src) > 3 {
			a = to8(native.Uint16(src[3][2*x:]))
		}
		dst[x] = img.packAlpha(to8(native.Uint16(r[2*x:])), to8(native.Uint16(g[2*x:])), to8(native.Uint16(b[2*x:])), a)
	}
}

// cmyk converts with the plain subtractive formula; no color management.
func cmyk(c, m, y, k uint8) uint32 {
	kk := 255 - uint32(k)
	return Pack(
		uint8(kk*(255-uint32(c))/255),
		uint8(kk*(255-uint32(m))/255),
		uint8(kk*(255-uint32(y))/255),
		0xff)
}

func putCMYK8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[x*spp:]
		dst[x] = cmyk(p[0], p[1], p[2], p[3])
	}
}

func putCMYK16(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	spp := int(img.samplesPerPixel)
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[2*x*spp:]
		dst[x] = cmyk(to8(native.Uint16(p)), to8(native.Uint16(p[2:])), to8(native.Uint16(p[4:])), to8(native.Uint16(p[6:])))
	}
}

func putCMYKSeparate8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	for x := 0; x < n; x++ {
		dst[x] = cmyk(src[0][x], src[1][x], src[2][x], src[3][x])
	}
}

func putLab8(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[3*x:]
		l, a, b := img.cielab.decode8(p[0], p[1], p[2])
		r, g, bl := img.cielab.toRGB(l, a, b)
		dst[x] = Pack(r, g, bl, 0xff)
	}
}

func putLab16(img *RGBAImage, dst []uint32, src [][]byte, n int) {
	row := src[0]
	for x := 0; x < n; x++ {
		p := row[6*x:]
		l, a, b := img.cielab.decode16(native.Uint16(p), native.Uint16(p[2:]), native.Uint16(p[4:]))
		r, g, bl := img.cielab.toRGB(l, a, b)
		dst[x] = Pack(r, g, bl, 0xff)
	}
}
