// Package grid defines the fixed tiling schemes that vegetation-index
// products are distributed on, and the pixel offsets each tile occupies
// in a global mosaic.
package grid

import (
	"fmt"
	"sort"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// Cell is one rectangular tile of a grid. Row and Col are pixel offsets
// of the tile's top-left corner within the global mosaic; Width and
// Height are the tile's pixel extent.
type Cell struct {
	ID     string `json:"id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Grid is an ordered set of cells plus the georeferencing shared by
// every tile. Cells must tile the global extent exactly; Validate
// enforces that.
type Grid struct {
	ID    string
	Cells []Cell
	Geo   raster.Georef

	byID map[string]int
}

// New builds a grid from an explicit cell list. The cell order is
// preserved; it determines fetch order in the engine.
func New(id string, cells []Cell, geo raster.Georef) (*Grid, error) {
	g := &Grid{
		ID:    id,
		Cells: cells,
		Geo:   geo,
		byID:  make(map[string]int, len(cells)),
	}
	for i, c := range cells {
		if _, dup := g.byID[c.ID]; dup {
			return nil, fmt.Errorf("grid %q: duplicate cell %q", id, c.ID)
		}
		g.byID[c.ID] = i
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// NewUniform builds a grid of rows x cols identical tiles. Cell IDs
// follow the MODIS convention h{col}v{row}.
func NewUniform(id string, rows, cols, cellWidth, cellHeight int, geo raster.Georef) (*Grid, error) {
	cells := make([]Cell, 0, rows*cols)
	for v := 0; v < rows; v++ {
		for h := 0; h < cols; h++ {
			cells = append(cells, Cell{
				ID:     fmt.Sprintf("h%02dv%02d", h, v),
				Row:    v * cellHeight,
				Col:    h * cellWidth,
				Width:  cellWidth,
				Height: cellHeight,
			})
		}
	}
	return New(id, cells, geo)
}

// Cell returns the cell with the given ID.
func (g *Grid) Cell(id string) (Cell, bool) {
	i, ok := g.byID[id]
	if !ok {
		return Cell{}, false
	}
	return g.Cells[i], true
}

// TotalWidth returns the pixel width of the full mosaic extent.
func (g *Grid) TotalWidth() int {
	max := 0
	for _, c := range g.Cells {
		if c.Col+c.Width > max {
			max = c.Col + c.Width
		}
	}
	return max
}

// TotalHeight returns the pixel height of the full mosaic extent.
func (g *Grid) TotalHeight() int {
	max := 0
	for _, c := range g.Cells {
		if c.Row+c.Height > max {
			max = c.Row + c.Height
		}
	}
	return max
}

// CellIDs returns the cell identifiers in grid order.
func (g *Grid) CellIDs() []string {
	ids := make([]string, len(g.Cells))
	for i, c := range g.Cells {
		ids[i] = c.ID
	}
	return ids
}

// Validate checks the tiling invariant: every cell has a unique,
// non-overlapping position and the cells jointly cover the full extent
// with no gaps.
func (g *Grid) Validate() error {
	if len(g.Cells) == 0 {
		return fmt.Errorf("grid %q: no cells", g.ID)
	}
	if g.Geo.PixelSize <= 0 {
		return fmt.Errorf("grid %q: pixel size must be positive, got %g", g.ID, g.Geo.PixelSize)
	}
	totalW, totalH := g.TotalWidth(), g.TotalHeight()
	covered := 0
	for _, c := range g.Cells {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("grid %q: cell %q has non-positive extent", g.ID, c.ID)
		}
		if c.Row < 0 || c.Col < 0 {
			return fmt.Errorf("grid %q: cell %q has negative offset", g.ID, c.ID)
		}
		covered += c.Width * c.Height
	}
	// Equal areas plus no pairwise overlap implies complete coverage.
	if covered != totalW*totalH {
		return fmt.Errorf("grid %q: cells cover %d pixels of a %dx%d extent", g.ID, covered, totalW, totalH)
	}
	for i := 0; i < len(g.Cells); i++ {
		for j := i + 1; j < len(g.Cells); j++ {
			if overlaps(g.Cells[i], g.Cells[j]) {
				return fmt.Errorf("grid %q: cells %q and %q overlap", g.ID, g.Cells[i].ID, g.Cells[j].ID)
			}
		}
	}
	return nil
}

func overlaps(a, b Cell) bool {
	return a.Col < b.Col+b.Width && b.Col < a.Col+a.Width &&
		a.Row < b.Row+b.Height && b.Row < a.Row+a.Height
}

// Registry holds the known tiling schemes keyed by ID.
type Registry struct {
	grids map[string]*Grid
}

// NewRegistry creates a registry preloaded with the built-in schemes.
func NewRegistry() *Registry {
	r := &Registry{grids: make(map[string]*Grid)}
	r.Add(SinusoidalTiles())
	r.Add(SinusoidalTiles500())
	r.Add(CMG())
	return r
}

// Add registers a grid, replacing any existing scheme with the same ID.
func (r *Registry) Add(g *Grid) {
	r.grids[g.ID] = g
}

// Get returns the grid with the given scheme ID.
func (r *Registry) Get(id string) (*Grid, bool) {
	g, ok := r.grids[id]
	return g, ok
}

// IDs returns the registered scheme IDs, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.grids))
	for id := range r.grids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
