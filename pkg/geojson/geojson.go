// Package geojson provides the GeoJSON geometry helpers the service
// needs for mosaic footprints.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPolygon builds a Polygon geometry from linear rings of
// [lon, lat] positions.
func NewPolygon(rings [][][]float64) (*Geometry, error) {
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon requires at least one ring")
	}
	for i, ring := range rings {
		if len(ring) < 4 {
			return nil, fmt.Errorf("ring %d has %d positions, need at least 4", i, len(ring))
		}
	}
	coords, err := json.Marshal(rings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode polygon coordinates: %w", err)
	}
	return &Geometry{Type: "Polygon", Coordinates: coords}, nil
}

// BBoxPolygon builds the closed rectangle covering
// [west, south, east, north].
func BBoxPolygon(west, south, east, north float64) (*Geometry, error) {
	return NewPolygon([][][]float64{{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
		{west, south},
	}})
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// ComputeBBox computes the bounding box of a Polygon geometry.
// Returns [west, south, east, north].
func ComputeBBox(g *Geometry) ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	rings, err := g.Polygon()
	if err != nil {
		return nil, err
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, ring := range rings {
		for _, pos := range ring {
			if len(pos) < 2 {
				return nil, fmt.Errorf("invalid position with %d values", len(pos))
			}
			minLon = math.Min(minLon, pos[0])
			minLat = math.Min(minLat, pos[1])
			maxLon = math.Max(maxLon, pos[0])
			maxLat = math.Max(maxLat, pos[1])
		}
	}
	if math.IsInf(minLon, 1) {
		return nil, fmt.Errorf("geometry has no positions")
	}
	return []float64{minLon, minLat, maxLon, maxLat}, nil
}
