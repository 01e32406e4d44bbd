// Package mosaic assembles per-cell rasters into one global raster.
package mosaic

import (
	"fmt"
	"sort"

	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// Assemble copies each supplied cell raster into its declared pixel
// offset within a mosaic sized to the grid's full extent. Cells are
// assumed pre-aligned to the shared pixel grid; no resampling or seam
// blending happens here.
//
// Cells the grid declares but the map omits stay nodata in the output;
// their IDs come back sorted in the second return value so callers can
// decide whether partial coverage is acceptable. A raster that does not
// match its cell's declared extent, or that disagrees with its siblings
// on pixel size, spatial reference, or nodata sentinel, returns
// raster.ErrGeometryMismatch.
func Assemble(cells map[string]*raster.Raster, g *grid.Grid) (*raster.Raster, []string, error) {
	noData := raster.VINoData
	var ref *raster.Raster
	for _, id := range g.CellIDs() {
		r, ok := cells[id]
		if !ok {
			continue
		}
		cell, _ := g.Cell(id)
		if r.Width != cell.Width || r.Height != cell.Height {
			return nil, nil, fmt.Errorf("%w: cell %s is %dx%d, grid %s declares %dx%d",
				raster.ErrGeometryMismatch, id, r.Width, r.Height, g.ID, cell.Width, cell.Height)
		}
		if ref == nil {
			ref = r
			noData = r.NoData
			continue
		}
		if !ref.SameGrid(r) {
			return nil, nil, fmt.Errorf("%w: cell %s pixel size %g/%q differs from siblings %g/%q",
				raster.ErrGeometryMismatch, id, r.Geo.PixelSize, r.Geo.SRS, ref.Geo.PixelSize, ref.Geo.SRS)
		}
		if r.NoData != ref.NoData {
			return nil, nil, fmt.Errorf("%w: cell %s nodata %d differs from siblings %d",
				raster.ErrGeometryMismatch, id, r.NoData, ref.NoData)
		}
	}

	out := raster.New(g.TotalWidth(), g.TotalHeight(), noData, g.Geo)

	missing := make([]string, 0)
	for _, cell := range g.Cells {
		r, ok := cells[cell.ID]
		if !ok {
			missing = append(missing, cell.ID)
			continue
		}
		for row := 0; row < cell.Height; row++ {
			src := r.Pixels[row*r.Width : (row+1)*r.Width]
			dstStart := (cell.Row+row)*out.Width + cell.Col
			copy(out.Pixels[dstStart:dstStart+cell.Width], src)
		}
	}
	sort.Strings(missing)
	return out, missing, nil
}
