// Package composite collapses a stack of same-cell daily observations
// into one synthetic-period raster.
package composite

import (
	"fmt"
	"sort"
	"time"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// Observation is one cell's vegetation-index raster for one acquisition
// date, with a precomputed per-pixel usability mask (see the quality
// package). Observations are immutable once built.
type Observation struct {
	CellID string
	Date   time.Time
	Raster *raster.Raster
	Usable []bool
}

// Composite selects, for every pixel, the usable observation value that
// maximizes the rule's score. Ties go to the earliest acquisition date,
// so output is deterministic for a given set of observations regardless
// of the order the caller assembled them in. Pixels with no usable
// observation come out as raster.VINoData.
//
// All observations must share a cell, shape, pixel size, and spatial
// reference; a disagreement returns raster.ErrGeometryMismatch.
func Composite(obs []Observation, rule Rule) (*raster.Raster, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("composite: no observations")
	}
	if rule == nil {
		rule = MaxValue{}
	}

	// Stable date order makes the earliest-wins tie-break reproducible
	// even if the caller collected observations concurrently.
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	first := sorted[0]
	for _, o := range sorted[1:] {
		if o.CellID != first.CellID {
			return nil, fmt.Errorf("%w: observations span cells %q and %q",
				raster.ErrGeometryMismatch, first.CellID, o.CellID)
		}
		if err := first.Raster.CheckCombinable(o.Raster); err != nil {
			return nil, fmt.Errorf("composite cell %s: %w", first.CellID, err)
		}
	}
	for _, o := range sorted {
		if len(o.Usable) != o.Raster.Size() {
			return nil, fmt.Errorf("composite cell %s: usable mask length %d for %d pixels",
				o.CellID, len(o.Usable), o.Raster.Size())
		}
	}

	out := &raster.Raster{
		Width:  first.Raster.Width,
		Height: first.Raster.Height,
		Pixels: make([]int32, first.Raster.Size()),
		NoData: raster.VINoData,
		Geo:    first.Raster.Geo,
	}

	for i := range out.Pixels {
		best := raster.VINoData
		bestScore := int64(0)
		found := false
		for _, o := range sorted {
			if !o.Usable[i] {
				continue
			}
			v := o.Raster.Pixels[i]
			s := rule.Score(v)
			// Strictly greater: on equal scores the earlier date,
			// visited first, is kept.
			if !found || s > bestScore {
				best = v
				bestScore = s
				found = true
			}
		}
		out.Pixels[i] = best
	}
	return out, nil
}
