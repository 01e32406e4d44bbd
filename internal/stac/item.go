// Package stac describes mosaic build results as STAC items, wrapping
// planetlabs/go-stac for the core types.
package stac

import (
	"fmt"
	"time"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/vi-mosaic/internal/engine"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/pkg/geojson"
)

// Re-export core types from planetlabs/go-stac for convenience.
type (
	Item  = gostac.Item
	Asset = gostac.Asset
	Link  = gostac.Link
)

// Version is the STAC spec version stamped on produced items.
const Version = "1.0.0"

// NewItem describes one build result as a STAC item. The item carries
// the period as start/end datetimes, the grid scheme and native extent
// as properties, plus the coverage statistics callers use to judge
// whether partial coverage is acceptable.
func NewItem(result *engine.Result, g *grid.Grid, baseURL string) (*gostac.Item, error) {
	if result == nil || result.Raster == nil {
		return nil, fmt.Errorf("stac: result has no raster")
	}

	item := &gostac.Item{
		Version:    Version,
		Id:         ItemID(result.Product, result.PeriodStart),
		Collection: result.Product,
		Properties: make(map[string]any),
		Assets:     make(map[string]*gostac.Asset),
		Links:      make([]*gostac.Link, 0),
	}

	// Time ranges use start/end datetimes with a null datetime.
	item.Properties["datetime"] = nil
	item.Properties["start_datetime"] = result.PeriodStart.UTC().Format(time.RFC3339)
	item.Properties["end_datetime"] = result.PeriodEnd.UTC().Format(time.RFC3339)

	item.Properties["grid:code"] = g.ID
	item.Properties["proj:code"] = result.Raster.Geo.SRS
	item.Properties["proj:shape"] = []int{result.Raster.Height, result.Raster.Width}

	nativeWest, nativeSouth, nativeEast, nativeNorth := nativeBounds(result)
	item.Properties["proj:bbox"] = []float64{nativeWest, nativeSouth, nativeEast, nativeNorth}

	item.Properties["vi:nodata"] = result.Raster.NoData
	item.Properties["vi:valid_fraction"] = result.Raster.ValidFraction()
	item.Properties["vi:missing_cells"] = result.MissingCells

	// Geographic footprint. Geographic grids map directly; projected
	// grids (sinusoidal) are global products, so the footprint is the
	// whole earth and the precise native extent lives in proj:bbox.
	west, south, east, north := -180.0, -90.0, 180.0, 90.0
	if result.Raster.Geo.SRS == "EPSG:4326" {
		west, south, east, north = nativeWest, nativeSouth, nativeEast, nativeNorth
	}
	geom, err := geojson.BBoxPolygon(west, south, east, north)
	if err != nil {
		return nil, fmt.Errorf("stac: failed to build footprint: %w", err)
	}
	item.Geometry = geom
	if bbox, err := geojson.ComputeBBox(geom); err == nil {
		item.Bbox = bbox
	}

	if baseURL != "" {
		item.Links = append(item.Links, &gostac.Link{
			Rel:  "self",
			Href: fmt.Sprintf("%s/mosaics/%s", baseURL, item.Id),
			Type: "application/geo+json",
		})
	}

	return item, nil
}

// ItemID is the stable identifier for a product/period build.
func ItemID(product string, periodStart time.Time) string {
	return fmt.Sprintf("%s.%s", product, periodStart.UTC().Format("2006-01-02"))
}

func nativeBounds(result *engine.Result) (west, south, east, north float64) {
	geo := result.Raster.Geo
	west = geo.OriginX
	north = geo.OriginY
	east = geo.OriginX + float64(result.Raster.Width)*geo.PixelSize
	south = geo.OriginY - float64(result.Raster.Height)*geo.PixelSize
	return west, south, east, north
}
