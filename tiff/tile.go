package tiff

import "fmt"

// TileRowSize returns the decoded size of one row of a tile.
func (f *File) TileRowSize() int {
	d := f.dir
	if d.tileWidth == 0 || d.tileLength == 0 {
		return 0
	}
	bits := uint64(d.tileWidth) * uint64(d.bitsPerSample)
	if d.planarConfig == PlanarContig {
		bits *= uint64(d.samplesPerPixel)
	}
	return int(howMany8(bits))
}

// VTileSize returns the decoded size of a tile of nrows rows.
func (f *File) VTileSize(nrows uint32) int {
	d := f.dir
	dx, dy, dz := d.tileDims()
	if dx == 0 || dy == 0 || dz == 0 {
		return 0
	}
	if d.isContigYCbCr(f.IsUpSampled()) {
		hs, vs := uint32(d.ycbcrSubsampling[0]), uint32(d.ycbcrSubsampling[1])
		rowSize := howMany8(uint64(howMany32(dx, hs)) * uint64(hs*vs+2) * uint64(d.bitsPerSample))
		return int(rowSize * uint64(howMany32(nrows, vs)) * uint64(dz))
	}
	return int(uint64(nrows) * uint64(f.TileRowSize()) * uint64(dz))
}

// TileSize returns the decoded size of one tile.
func (f *File) TileSize() int {
	_, dy, _ := f.dir.tileDims()
	return f.VTileSize(dy)
}

// NumberOfTiles returns the number of tiles in the current directory.
func (f *File) NumberOfTiles() uint32 { return f.dir.numberOfTiles() }

// ComputeTile returns the tile holding pixel (x, y, z) of sample plane s.
func (f *File) ComputeTile(x, y, z uint32, s uint16) uint32 {
	d := f.dir
	dx, dy, dz := d.tileDims()
	if dx == 0 || dy == 0 || dz == 0 {
		return 0
	}
	if d.depth == 1 {
		z = 0
	}
	xpt := howMany32(d.width, dx)
	ypt := howMany32(d.length, dy)
	zpt := howMany32(d.depth, dz)
	tile := xpt*ypt*(z/dz) + xpt*(y/dy) + x/dx
	if d.planarConfig == PlanarSeparate {
		tile += xpt * ypt * zpt * uint32(s)
	}
	return tile
}

// CheckTile reports whether (x, y, z, s) lies inside the image.
func (f *File) CheckTile(x, y, z uint32, s uint16) error {
	d := f.dir
	switch {
	case x >= d.width:
		return fmt.Errorf("%w: col %d out of range, max %d", ErrBadValue, x, d.width-1)
	case y >= d.length:
		return fmt.Errorf("%w: row %d out of range, max %d", ErrBadValue, y, d.length-1)
	case z >= d.depth:
		return fmt.Errorf("%w: depth %d out of range, max %d", ErrBadValue, z, d.depth-1)
	case d.planarConfig == PlanarSeparate && s >= d.samplesPerPixel:
		return fmt.Errorf("%w: sample %d out of range, max %d", ErrBadValue, s, d.samplesPerPixel-1)
	}
	return nil
}

// DefaultTileSize returns a tile size no smaller than requested, rounded
// up to a multiple of 16. Zero requests become 256.
func DefaultTileSize(w, h uint32) (uint32, uint32) {
	if w < 1 {
		w = 256
	}
	if h < 1 {
		h = 256
	}
	round := func(v uint32) uint32 { return (v + 15) &^ 15 }
	return round(w), round(h)
}

// tilesAcrossDown returns the number of tile columns and rows.
func (f *File) tilesAcrossDown() (across, down uint32) {
	dx, dy, _ := f.dir.tileDims()
	return howMany32(f.dir.width, dx), howMany32(f.dir.length, dy)
}
