// Package engine orchestrates temporal compositing and spatial
// mosaicking into global vegetation-index rasters.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/vi-mosaic/internal/composite"
	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/mosaic"
	"github.com/robert-malhotra/vi-mosaic/internal/quality"
	"github.com/robert-malhotra/vi-mosaic/internal/raster"
	"github.com/robert-malhotra/vi-mosaic/internal/source"
)

// Result is one build's output: the global raster plus the cells for
// which the tile source had nothing usable at all. Those cells are
// nodata in the raster, as are individual pixels screened out by QA;
// MissingCells lets callers tell the two apart. The caller owns the
// raster; the engine keeps no reference.
type Result struct {
	Product      string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Raster       *raster.Raster
	MissingCells []string
}

// Engine builds global mosaics for a product and period. It is
// stateless across builds: every call refetches from the tile source,
// so results never go stale.
type Engine struct {
	products    *config.ProductRegistry
	grids       *grid.Registry
	source      source.TileSource
	rule        composite.Rule
	concurrency int
	logger      *slog.Logger
}

// New creates an engine with the default rule and a per-cell
// concurrency of 4.
func New(products *config.ProductRegistry, grids *grid.Registry, src source.TileSource, logger *slog.Logger) *Engine {
	return &Engine{
		products:    products,
		grids:       grids,
		source:      src,
		rule:        composite.MaxValue{},
		concurrency: 4,
		logger:      logger,
	}
}

// WithRule sets the compositing selection rule.
func (e *Engine) WithRule(rule composite.Rule) *Engine {
	if rule != nil {
		e.rule = rule
	}
	return e
}

// WithConcurrency bounds the per-cell worker pool.
func (e *Engine) WithConcurrency(n int) *Engine {
	if n >= 1 {
		e.concurrency = n
	}
	return e
}

// Build assembles the global raster for one product and period.
//
// For natively periodic products exactly one observation per cell is
// fetched at periodStart. For synthesis products one observation per
// day in [periodStart, periodEnd) is fetched per cell and composited.
// A zero periodEnd means "the product's default window from
// periodStart". Cells whose fetches all come back unavailable become
// coverage gaps, never errors; geometry disagreements abort the build.
func (e *Engine) Build(ctx context.Context, product string, periodStart, periodEnd time.Time) (*Result, error) {
	p, ok := e.products.Get(product)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	g, ok := e.grids.Get(p.GridID)
	if !ok {
		return nil, fmt.Errorf("%w: %q (product %q)", ErrUnknownGrid, p.GridID, product)
	}

	periodStart = periodStart.UTC().Truncate(24 * time.Hour)
	if periodEnd.IsZero() {
		periodEnd = periodStart.AddDate(0, 0, p.PeriodDays)
	} else {
		periodEnd = periodEnd.UTC().Truncate(24 * time.Hour)
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("%w: [%s, %s)", ErrInvalidPeriod,
			periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	}

	log := e.logger.With(
		slog.String("product", product),
		slog.String("period_start", periodStart.Format("2006-01-02")),
		slog.String("period_end", periodEnd.Format("2006-01-02")),
	)
	log.Info("building mosaic",
		slog.String("grid", g.ID),
		slog.Int("cells", len(g.Cells)),
		slog.Bool("synthesis", p.Synthesis),
		slog.String("rule", e.rule.Name()),
	)
	start := time.Now()

	// Per-cell fetch and compositing are independent; run them on a
	// bounded pool and join before mosaicking. A worker returns an
	// error only for fatal faults, so one cell's coverage gap never
	// cancels its siblings.
	results := make([]*raster.Raster, len(g.Cells))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, cell := range g.Cells {
		i, cell := i, cell
		eg.Go(func() error {
			r, err := e.buildCell(gctx, p, cell, periodStart, periodEnd, log)
			if err != nil {
				return fmt.Errorf("cell %s: %w", cell.ID, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	cells := make(map[string]*raster.Raster, len(g.Cells))
	for i, r := range results {
		if r != nil {
			cells[g.Cells[i].ID] = r
		}
	}

	out, missing, err := mosaic.Assemble(cells, g)
	if err != nil {
		return nil, err
	}

	log.Info("mosaic complete",
		slog.Int("cells_present", len(cells)),
		slog.Int("cells_missing", len(missing)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Product:      product,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Raster:       out,
		MissingCells: missing,
	}, nil
}

// buildCell produces one cell's period raster, or nil when the source
// had nothing usable for the cell.
func (e *Engine) buildCell(ctx context.Context, p *config.ProductConfig, cell grid.Cell, periodStart, periodEnd time.Time, log *slog.Logger) (*raster.Raster, error) {
	if !p.Synthesis {
		obs, err := e.fetchObservation(ctx, p, cell, periodStart, log)
		if err != nil {
			return nil, err
		}
		if obs == nil {
			return nil, nil
		}
		return quality.Apply(obs.Raster, obs.Usable, raster.VINoData), nil
	}

	var obs []composite.Observation
	for d := periodStart; d.Before(periodEnd); d = d.AddDate(0, 0, 1) {
		o, err := e.fetchObservation(ctx, p, cell, d, log)
		if err != nil {
			return nil, err
		}
		if o != nil {
			obs = append(obs, *o)
		}
	}
	if len(obs) == 0 {
		log.Debug("no usable observations for cell", slog.String("cell", cell.ID))
		return nil, nil
	}
	return composite.Composite(obs, e.rule)
}

// fetchObservation fetches and screens one cell/date observation. A
// definitive "not available" (or any other source failure) is a gap,
// returned as (nil, nil); only context cancellation and geometry faults
// are errors.
func (e *Engine) fetchObservation(ctx context.Context, p *config.ProductConfig, cell grid.Cell, date time.Time, log *slog.Logger) (*composite.Observation, error) {
	vi, err := e.source.Fetch(ctx, p.ID, date, cell.ID, source.SubVI)
	if err != nil {
		return nil, e.sourceGap(ctx, err, cell.ID, date, source.SubVI, log)
	}
	if vi.Width != cell.Width || vi.Height != cell.Height {
		return nil, fmt.Errorf("%w: source returned %dx%d for cell %s, grid declares %dx%d",
			raster.ErrGeometryMismatch, vi.Width, vi.Height, cell.ID, cell.Width, cell.Height)
	}

	var qa *raster.Raster
	if len(p.QARules) > 0 {
		qa, err = e.source.Fetch(ctx, p.ID, date, cell.ID, source.SubQA)
		if err != nil {
			// No QA band means no way to trust the pixels; the
			// observation is dropped rather than passed unscreened.
			return nil, e.sourceGap(ctx, err, cell.ID, date, source.SubQA, log)
		}
	}

	usable, err := quality.Classify(vi, qa, p.QARules)
	if err != nil {
		return nil, err
	}

	return &composite.Observation{
		CellID: cell.ID,
		Date:   date,
		Raster: vi,
		Usable: usable,
	}, nil
}

// sourceGap converts a fetch failure into a recorded gap, preserving
// context cancellation as an error.
func (e *Engine) sourceGap(ctx context.Context, err error, cellID string, date time.Time, sub source.Subdataset, log *slog.Logger) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Warn("tile unavailable",
		slog.String("cell", cellID),
		slog.String("date", date.Format("2006-01-02")),
		slog.String("subdataset", string(sub)),
		slog.String("error", err.Error()),
	)
	return nil
}
