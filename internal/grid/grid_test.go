package grid

import (
	"strings"
	"testing"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

func testGeo() raster.Georef {
	return raster.Georef{OriginX: 0, OriginY: 0, PixelSize: 1, SRS: "EPSG:4326"}
}

func TestNewUniform(t *testing.T) {
	g, err := NewUniform("test", 2, 3, 10, 20, testGeo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Cells) != 6 {
		t.Fatalf("expected 6 cells, got %d", len(g.Cells))
	}
	if g.TotalWidth() != 30 {
		t.Errorf("TotalWidth() = %d, expected 30", g.TotalWidth())
	}
	if g.TotalHeight() != 40 {
		t.Errorf("TotalHeight() = %d, expected 40", g.TotalHeight())
	}

	c, ok := g.Cell("h02v01")
	if !ok {
		t.Fatal("expected cell h02v01 to exist")
	}
	if c.Col != 20 || c.Row != 20 {
		t.Errorf("h02v01 at (row=%d, col=%d), expected (20, 20)", c.Row, c.Col)
	}
	if c.Width != 10 || c.Height != 20 {
		t.Errorf("h02v01 extent %dx%d, expected 10x20", c.Width, c.Height)
	}
}

func TestNewRejectsDuplicateCells(t *testing.T) {
	cells := []Cell{
		{ID: "a", Row: 0, Col: 0, Width: 5, Height: 5},
		{ID: "a", Row: 0, Col: 5, Width: 5, Height: 5},
	}
	if _, err := New("dup", cells, testGeo()); err == nil {
		t.Fatal("expected error for duplicate cell IDs")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cells   []Cell
		geo     raster.Georef
		wantErr string
	}{
		{
			name: "valid tiling",
			cells: []Cell{
				{ID: "a", Row: 0, Col: 0, Width: 5, Height: 5},
				{ID: "b", Row: 0, Col: 5, Width: 5, Height: 5},
			},
			geo: testGeo(),
		},
		{
			name:    "no cells",
			cells:   nil,
			geo:     testGeo(),
			wantErr: "no cells",
		},
		{
			name: "zero pixel size",
			cells: []Cell{
				{ID: "a", Row: 0, Col: 0, Width: 5, Height: 5},
			},
			geo:     raster.Georef{PixelSize: 0},
			wantErr: "pixel size",
		},
		{
			// Areas sum to the full extent but two cells overlap, so a
			// matching region is left uncovered.
			name: "overlapping cells",
			cells: []Cell{
				{ID: "a", Row: 0, Col: 0, Width: 10, Height: 5},
				{ID: "b", Row: 0, Col: 0, Width: 5, Height: 5},
				{ID: "c", Row: 5, Col: 5, Width: 5, Height: 5},
			},
			geo:     testGeo(),
			wantErr: "overlap",
		},
		{
			name: "coverage gap",
			cells: []Cell{
				{ID: "a", Row: 0, Col: 0, Width: 5, Height: 5},
				{ID: "b", Row: 5, Col: 5, Width: 5, Height: 5},
			},
			geo:     testGeo(),
			wantErr: "cover",
		},
		{
			name: "negative offset",
			cells: []Cell{
				{ID: "a", Row: -1, Col: 0, Width: 5, Height: 5},
			},
			geo:     testGeo(),
			wantErr: "negative offset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", tt.cells, tt.geo)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestBuiltinSchemes(t *testing.T) {
	tests := []struct {
		scheme      string
		cells       int
		totalWidth  int
		totalHeight int
		srs         string
	}{
		{SchemeSinusoidal, 18 * 36, 36 * 4800, 18 * 4800, "ESRI:54008"},
		{SchemeSinusoidal500, 18 * 36, 36 * 2400, 18 * 2400, "ESRI:54008"},
		{SchemeCMG, 1, 7200, 3600, "EPSG:4326"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			g, ok := r.Get(tt.scheme)
			if !ok {
				t.Fatalf("scheme %q not registered", tt.scheme)
			}
			if len(g.Cells) != tt.cells {
				t.Errorf("cells = %d, expected %d", len(g.Cells), tt.cells)
			}
			if g.TotalWidth() != tt.totalWidth {
				t.Errorf("TotalWidth() = %d, expected %d", g.TotalWidth(), tt.totalWidth)
			}
			if g.TotalHeight() != tt.totalHeight {
				t.Errorf("TotalHeight() = %d, expected %d", g.TotalHeight(), tt.totalHeight)
			}
			if g.Geo.SRS != tt.srs {
				t.Errorf("SRS = %q, expected %q", g.Geo.SRS, tt.srs)
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate() failed: %v", err)
			}
		})
	}
}

func TestCMGCoversGlobe(t *testing.T) {
	g := CMG()
	c, ok := g.Cell("global")
	if !ok {
		t.Fatal("expected single cell 'global'")
	}
	if c.Width != 7200 || c.Height != 3600 {
		t.Errorf("global cell %dx%d, expected 7200x3600", c.Width, c.Height)
	}
	if g.Geo.OriginX != -180 || g.Geo.OriginY != 90 {
		t.Errorf("origin (%g, %g), expected (-180, 90)", g.Geo.OriginX, g.Geo.OriginY)
	}
	if g.Geo.PixelSize != 0.05 {
		t.Errorf("pixel size %g, expected 0.05", g.Geo.PixelSize)
	}
}

func TestRegistryIDs(t *testing.T) {
	r := NewRegistry()
	ids := r.IDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 built-in schemes, got %d: %v", len(ids), ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("IDs not sorted: %v", ids)
		}
	}
}
