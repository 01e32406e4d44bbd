// Package raster provides the in-memory raster type shared by the
// compositing and mosaicking stages.
package raster

import "fmt"

// VINoData is the fill sentinel carried by vegetation-index output
// rasters (composites and mosaics). -3000 is the MODIS VI fill value
// and sits outside the valid scaled VI range of -2000..10000.
const VINoData int32 = -3000

// Georef describes where a raster sits in its spatial reference system.
// OriginX/OriginY are the coordinates of the outer corner of the
// top-left pixel. PixelSize is the edge length of one square pixel in
// the units of the spatial reference (meters for sinusoidal grids,
// degrees for CMG).
type Georef struct {
	OriginX   float64 `json:"origin_x"`
	OriginY   float64 `json:"origin_y"`
	PixelSize float64 `json:"pixel_size"`
	SRS       string  `json:"srs"`
}

// Raster is a single-band 2-D array with a nodata sentinel and
// georeferencing. Pixels are stored row-major, top row first.
//
// Values are either vegetation-index samples scaled by 10000 (valid
// range -2000..10000, matching the MODIS convention) or raw QA words;
// int32 accommodates both.
type Raster struct {
	Width  int
	Height int
	Pixels []int32
	NoData int32
	Geo    Georef
}

// New allocates a raster of the given dimensions with every pixel set
// to the nodata sentinel.
func New(width, height int, noData int32, geo Georef) *Raster {
	r := &Raster{
		Width:  width,
		Height: height,
		Pixels: make([]int32, width*height),
		NoData: noData,
		Geo:    geo,
	}
	if noData != 0 {
		for i := range r.Pixels {
			r.Pixels[i] = noData
		}
	}
	return r
}

// At returns the pixel value at (row, col). No bounds checking beyond
// the slice's own.
func (r *Raster) At(row, col int) int32 {
	return r.Pixels[row*r.Width+col]
}

// Set writes the pixel value at (row, col).
func (r *Raster) Set(row, col int, v int32) {
	r.Pixels[row*r.Width+col] = v
}

// Size returns the total pixel count.
func (r *Raster) Size() int {
	return r.Width * r.Height
}

// SameShape reports whether two rasters have identical pixel dimensions.
func (r *Raster) SameShape(other *Raster) bool {
	return r.Width == other.Width && r.Height == other.Height
}

// SameGrid reports whether two rasters share pixel size and spatial
// reference. Rasters on different grids must never be combined; callers
// treat a mismatch as fatal rather than resampling.
func (r *Raster) SameGrid(other *Raster) bool {
	return r.Geo.PixelSize == other.Geo.PixelSize && r.Geo.SRS == other.Geo.SRS
}

// ValidFraction returns the fraction of pixels that are not nodata.
func (r *Raster) ValidFraction() float64 {
	if len(r.Pixels) == 0 {
		return 0
	}
	valid := 0
	for _, v := range r.Pixels {
		if v != r.NoData {
			valid++
		}
	}
	return float64(valid) / float64(len(r.Pixels))
}

// CheckCombinable verifies that two rasters may participate in the same
// compositing or mosaicking operation. It wraps ErrGeometryMismatch
// with a description of the disagreement.
func (r *Raster) CheckCombinable(other *Raster) error {
	if !r.SameShape(other) {
		return fmt.Errorf("%w: shape %dx%d vs %dx%d",
			ErrGeometryMismatch, r.Width, r.Height, other.Width, other.Height)
	}
	if !r.SameGrid(other) {
		return fmt.Errorf("%w: pixel size %g/%q vs %g/%q",
			ErrGeometryMismatch, r.Geo.PixelSize, r.Geo.SRS, other.Geo.PixelSize, other.Geo.SRS)
	}
	return nil
}
