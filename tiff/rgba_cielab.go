package tiff

import "math"

// labTableRange is the number of steps in the luminance to code value
// tables.
const labTableRange = 1500

// display describes the output device L*a*b* values are rendered for.
type display struct {
	mat                    [3][3]float32 // XYZ to luminance
	yCR, yCG, yCB          float32       // light output for reference white
	vrwr, vrwg, vrwb       float32       // pixel values for reference white
	y0R, y0G, y0B          float32       // residual light for black
	gammaR, gammaG, gammaB float32
}

var displaySRGB = display{
	mat: [3][3]float32{
		{3.2410, -1.5374, -0.4986},
		{-0.9692, 1.8760, 0.0416},
		{0.0556, -0.2040, 1.0570},
	},
	yCR: 100, yCG: 100, yCB: 100,
	vrwr: 255, vrwg: 255, vrwb: 255,
	y0R: 1, y0G: 1, y0B: 1,
	gammaR: 2.4, gammaG: 2.4, gammaB: 2.4,
}

// labConverter renders CIE L*a*b* samples as sRGB. The reference white
// comes from the WhitePoint chromaticity.
type labConverter struct {
	d                   display
	photometric         uint16
	x0, y0, z0          float32
	rstep, gstep, bstep float32
	yr2r, yg2g, yb2b    [labTableRange + 1]float32
}

func newLabConverter(whitePoint []float64, photometric uint16) *labConverter {
	wx, wy := float32(d50X), float32(d50Y)
	if len(whitePoint) >= 2 && whitePoint[1] != 0 {
		wx, wy = float32(whitePoint[0]), float32(whitePoint[1])
	}
	c := &labConverter{d: displaySRGB, photometric: photometric}
	c.y0 = 100
	c.x0 = wx / wy * c.y0
	c.z0 = (1 - wx - wy) / wy * c.y0

	build := func(t *[labTableRange + 1]float32, vrw, gamma float32) {
		g := 1 / float64(gamma)
		for i := range t {
			t[i] = vrw * float32(math.Pow(float64(i)/labTableRange, g))
		}
	}
	c.rstep = (c.d.yCR - c.d.y0R) / labTableRange
	c.gstep = (c.d.yCG - c.d.y0G) / labTableRange
	c.bstep = (c.d.yCB - c.d.y0B) / labTableRange
	build(&c.yr2r, c.d.vrwr, c.d.gammaR)
	build(&c.yg2g, c.d.vrwg, c.d.gammaG)
	build(&c.yb2b, c.d.vrwb, c.d.gammaB)
	return c
}

// decode8 turns 8-bit codes into L* in [0,100] and a*, b*.
func (c *labConverter) decode8(l, a, b uint8) (float32, float32, float32) {
	L := float32(l) * 100 / 255
	switch c.photometric {
	case PhotometricICCLab:
		return L, float32(a) - 128, float32(b) - 128
	case PhotometricITULab:
		return L, -85 + float32(a)*170/255, -75 + float32(b)*200/255
	}
	return L, float32(int8(a)), float32(int8(b))
}

// decode16 is decode8 for 16-bit codes.
func (c *labConverter) decode16(l, a, b uint16) (float32, float32, float32) {
	L := float32(l) * 100 / 65535
	switch c.photometric {
	case PhotometricICCLab:
		return L, float32(a)/256 - 128, float32(b)/256 - 128
	case PhotometricITULab:
		return L, -85 + float32(a)*170/65535, -75 + float32(b)*200/65535
	}
	return L, float32(int16(a)) / 256, float32(int16(b)) / 256
}

func (c *labConverter) toXYZ(L, a, b float32) (x, y, z float32) {
	var cby float32
	if L < 8.856 {
		y = L * c.y0 / 903.292
		cby = 7.787*(y/c.y0) + 16.0/116.0
	} else {
		cby = (L + 16) / 116
		y = c.y0 * cby * cby * cby
	}
	t := a/500 + cby
	if t < 0.2069 {
		x = c.x0 * (t - 0.13793) / 7.787
	} else {
		x = c.x0 * t * t * t
	}
	t = cby - b/200
	if t < 0.2069 {
		z = c.z0 * (t - 0.13793) / 7.787
	} else {
		z = c.z0 * t * t * t
	}
	return x, y, z
}

func (c *labConverter) toRGB(L, a, b float32) (uint8, uint8, uint8) {
	x, y, z := c.toXYZ(L, a, b)
	m := &c.d.mat
	level := func(v, y0, yc, step float32, table *[labTableRange + 1]float32, vrw float32) uint8 {
		v = min(max(v, y0), yc)
		i := int((v - y0) / step)
		i = min(max(i, 0), labTableRange)
		out := min(float32(math.Round(float64(table[i]))), vrw)
		return uint8(out)
	}
	r := level(m[0][0]*x+m[0][1]*y+m[0][2]*z, c.d.y0R, c.d.yCR, c.rstep, &c.yr2r, c.d.vrwr)
	g := level(m[1][0]*x+m[1][1]*y+m[1][2]*z, c.d.y0G, c.d.yCG, c.gstep, &c.yg2g, c.d.vrwg)
	bl := level(m[2][0]*x+m[2][1]*y+m[2][2]*z, c.d.y0B, c.d.yCB, c.bstep, &c.yb2b, c.d.vrwb)
	return r, g, bl
}
