package config

import (
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/quality"
)

// surfReflRules screen the 16-bit state-QA word of the MODIS/VIIRS
// surface-reflectance products. Bit positions per the MOD09 user guide:
// cloud state bits 0-1, shadow bit 2, land/water bits 3-5, aerosol
// bits 6-7, internal cloud bit 10, snow/ice bit 12, cloud-adjacent
// bit 13.
func surfReflRules() []quality.BitRule {
	return []quality.BitRule{
		{Name: "cloud", Mask: 0b11, Allowed: []uint32{0}},
		{Name: "internal-cloud", Mask: 0b100_0000_0000, Allowed: []uint32{0}},
		{Name: "shadow", Mask: 0b100, Allowed: []uint32{0}},
		{Name: "cloud-adjacent", Mask: 0b10_0000_0000_0000, Allowed: []uint32{0}},
		{Name: "aerosol", Mask: 0b1100_0000, Allowed: []uint32{64}},
		{Name: "snow-ice", Mask: 0b1_0000_0000_0000, Allowed: []uint32{0}},
		// Three allowed land/water classes; everything else is water
		// or undetermined.
		{Name: "land-water", Mask: 0b11_1000, Allowed: []uint32{8, 16, 32}},
	}
}

// reliabilityRules screen the MOD13-family pixel-reliability word:
// only rank 0 ("good data") passes.
func reliabilityRules() []quality.BitRule {
	return []quality.BitRule{
		{Name: "pixel-reliability", Mask: 0xFFFF, Allowed: []uint32{0}},
	}
}

// viirsCmgRules screen the VNP09CMG state-QA word. The VIIRS CMG
// land/water classes differ from MODIS: 40 ("coastal") counts as land,
// classes above 8 other than that are water.
func viirsCmgRules() []quality.BitRule {
	return []quality.BitRule{
		{Name: "internal-cloud", Mask: 0b100_0000_0000, Allowed: []uint32{0}},
		{Name: "shadow", Mask: 0b100, Allowed: []uint32{0}},
		{Name: "snow-ice", Mask: 0b1000_0000_0000_0000, Allowed: []uint32{0}},
		{Name: "land-water", Mask: 0b11_1000, Allowed: []uint32{0, 8, 40}},
	}
}

// DefaultProducts returns the built-in product capability table. The
// tiled 250 m products are natively periodic; the CMG daily products
// require temporal synthesis over an 8-day window.
func DefaultProducts() []*ProductConfig {
	return []*ProductConfig{
		{
			ID:         "MOD09Q1",
			Title:      "Terra surface reflectance, 8-day, 250m",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 8,
			QARules:    surfReflRules(),
		},
		{
			ID:         "MYD09Q1",
			Title:      "Aqua surface reflectance, 8-day, 250m",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 8,
			QARules:    surfReflRules(),
		},
		{
			ID:         "MOD09Q1N",
			Title:      "Terra surface reflectance, 8-day, 250m (near-real-time)",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 8,
			QARules:    surfReflRules(),
		},
		{
			ID:         "MOD13Q1",
			Title:      "Terra vegetation indices, 16-day, 250m",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 16,
			QARules:    reliabilityRules(),
		},
		{
			ID:         "MYD13Q1",
			Title:      "Aqua vegetation indices, 16-day, 250m",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 16,
			QARules:    reliabilityRules(),
		},
		{
			ID:         "MOD13Q4N",
			Title:      "Terra vegetation indices, 8-day, 250m (near-real-time)",
			GridID:     grid.SchemeSinusoidal,
			PeriodDays: 8,
			QARules:    reliabilityRules(),
		},
		{
			ID:         "VNP09H1",
			Title:      "VIIRS surface reflectance, 8-day, 500m",
			GridID:     grid.SchemeSinusoidal500,
			PeriodDays: 8,
			QARules:    surfReflRules(),
		},
		{
			ID:         "MOD09CMG",
			Title:      "Terra surface reflectance, daily, 0.05 deg CMG",
			GridID:     grid.SchemeCMG,
			Synthesis:  true,
			PeriodDays: 8,
			QARules:    surfReflRules(),
		},
		{
			ID:         "VNP09CMG",
			Title:      "VIIRS surface reflectance, daily, 0.05 deg CMG",
			GridID:     grid.SchemeCMG,
			Synthesis:  true,
			PeriodDays: 8,
			QARules:    viirsCmgRules(),
		},
	}
}
