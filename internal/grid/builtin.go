package grid

import "github.com/robert-malhotra/vi-mosaic/internal/raster"

// Built-in scheme IDs.
const (
	SchemeSinusoidal    = "modis-sin-250m"
	SchemeSinusoidal500 = "modis-sin-500m"
	SchemeCMG           = "cmg-0.05deg"
)

const (
	sinTileSize250 = 4800
	sinTileSize500 = 2400
	sinPixel250    = 231.65635826375 // meters
	sinPixel500    = 463.3127165275
	sinOriginX     = -20015109.354
	sinOriginY     = 10007554.677
	sinSRS         = "ESRI:54008"
	cmgWidth       = 7200
	cmgHeight      = 3600
	cmgPixelSize   = 0.05 // degrees
	cmgSRS         = "EPSG:4326"
)

// SinusoidalTiles returns the 36x18 MODIS sinusoidal tile grid used by
// the 250 m tiled surface-reflectance and VI products. Tile IDs follow
// the h00v00..h35v17 convention.
func SinusoidalTiles() *Grid {
	g, err := NewUniform(SchemeSinusoidal, 18, 36, sinTileSize250, sinTileSize250, raster.Georef{
		OriginX:   sinOriginX,
		OriginY:   sinOriginY,
		PixelSize: sinPixel250,
		SRS:       sinSRS,
	})
	if err != nil {
		// Construction is static; a failure here is a programming error.
		panic(err)
	}
	return g
}

// SinusoidalTiles500 returns the same 36x18 tile layout at 500 m
// resolution (2400x2400 px tiles), used by the VIIRS H1 products.
func SinusoidalTiles500() *Grid {
	g, err := NewUniform(SchemeSinusoidal500, 18, 36, sinTileSize500, sinTileSize500, raster.Georef{
		OriginX:   sinOriginX,
		OriginY:   sinOriginY,
		PixelSize: sinPixel500,
		SRS:       sinSRS,
	})
	if err != nil {
		panic(err)
	}
	return g
}

// CMG returns the single-cell 0.05 degree climate-modeling-grid scheme
// used by the daily CMG products. The whole globe is one 7200x3600 tile.
func CMG() *Grid {
	g, err := New(SchemeCMG, []Cell{{
		ID:     "global",
		Row:    0,
		Col:    0,
		Width:  cmgWidth,
		Height: cmgHeight,
	}}, raster.Georef{
		OriginX:   -180,
		OriginY:   90,
		PixelSize: cmgPixelSize,
		SRS:       cmgSRS,
	})
	if err != nil {
		panic(err)
	}
	return g
}
