// Package source defines the tile source the engine fetches from.
//
// URL resolution, archive authentication, and hierarchical-format
// extraction all live behind this interface; the engine only ever sees
// decoded rasters or a definitive "not available".
package source

import (
	"context"
	"errors"
	"time"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// Subdataset names the band a fetch asks for.
type Subdataset string

const (
	// SubVI is the vegetation-index band.
	SubVI Subdataset = "vi"
	// SubQA is the quality-assurance band paired with SubVI.
	SubQA Subdataset = "qa"
)

// ErrNotAvailable signals that the archive has nothing for the
// requested product, date, and cell. The engine treats it as a coverage
// gap, never as a failure of the build.
var ErrNotAvailable = errors.New("tile not available")

// TileSource fetches one decoded subdataset raster for one product,
// date, and grid cell. Implementations own their retry policy and must
// return a definitive result rather than block indefinitely; the
// returned raster's shape must match the grid's declared extent for the
// cell.
type TileSource interface {
	Fetch(ctx context.Context, product string, date time.Time, cellID string, sub Subdataset) (*raster.Raster, error)
}
