// Package quality screens raster pixels against product QA encodings.
//
// MODIS and VIIRS products encode per-pixel quality as packed bit
// fields whose meaning differs product to product. Rather than branch
// on product names, the classifier is driven by a table of BitRules
// carried in each product's capability entry, so adding a product is a
// data change.
package quality

import (
	"fmt"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// BitRule marks a pixel usable only when the masked QA word is one of
// the allowed values. A pixel must satisfy every rule in a product's
// rule set to be usable; any word a rule does not allow is unusable,
// which makes unknown or out-of-range QA codes fail safe.
type BitRule struct {
	// Name identifies the screen for logging and product files
	// (e.g. "cloud", "shadow", "aerosol").
	Name string `json:"name"`

	// Mask selects the bits the rule inspects.
	Mask uint32 `json:"mask"`

	// Allowed lists the masked values that pass the screen.
	Allowed []uint32 `json:"allowed"`
}

func (r BitRule) passes(word uint32) bool {
	masked := word & r.Mask
	for _, a := range r.Allowed {
		if masked == a {
			return true
		}
	}
	return false
}

// Classify computes a per-pixel usability mask for a vegetation-index
// raster and its paired QA raster.
//
// A pixel is usable when its VI value is not the VI raster's nodata
// sentinel and its QA word passes every rule. With an empty rule set
// only the nodata screen applies. qa may be nil when rules is empty;
// otherwise the two rasters must share a shape.
func Classify(vi, qa *raster.Raster, rules []BitRule) ([]bool, error) {
	if vi == nil {
		return nil, fmt.Errorf("quality: vi raster is nil")
	}
	if len(rules) > 0 {
		if qa == nil {
			return nil, fmt.Errorf("quality: %d rules configured but no QA raster supplied", len(rules))
		}
		if !vi.SameShape(qa) {
			return nil, fmt.Errorf("%w: vi %dx%d vs qa %dx%d",
				raster.ErrGeometryMismatch, vi.Width, vi.Height, qa.Width, qa.Height)
		}
	}

	mask := make([]bool, vi.Size())
	for i, v := range vi.Pixels {
		if v == vi.NoData {
			continue
		}
		usable := true
		if len(rules) > 0 {
			word := uint32(qa.Pixels[i])
			for _, r := range rules {
				if !r.passes(word) {
					usable = false
					break
				}
			}
		}
		mask[i] = usable
	}
	return mask, nil
}

// Apply writes the raster's nodata sentinel over every pixel the mask
// marks unusable, returning a screened copy. Used for natively periodic
// products, which skip temporal compositing but still get the same
// quality screening a composite would.
func Apply(r *raster.Raster, usable []bool, noData int32) *raster.Raster {
	out := &raster.Raster{
		Width:  r.Width,
		Height: r.Height,
		Pixels: make([]int32, len(r.Pixels)),
		NoData: noData,
		Geo:    r.Geo,
	}
	for i, v := range r.Pixels {
		if usable[i] && v != r.NoData {
			out.Pixels[i] = v
		} else {
			out.Pixels[i] = noData
		}
	}
	return out
}
