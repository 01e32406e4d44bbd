package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/vi-mosaic/internal/composite"
	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/quality"
	"github.com/robert-malhotra/vi-mosaic/internal/raster"
	"github.com/robert-malhotra/vi-mosaic/internal/source"
)

var (
	testGeo   = raster.Georef{OriginX: 0, OriginY: 0, PixelSize: 1, SRS: "EPSG:4326"}
	testStart = time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
)

// testFixture wires an engine over a two-cell grid and an in-memory
// source. The native product screens against a single low bit of the QA
// word; the synthesis product composites daily observations over a
// 4-day default window.
type testFixture struct {
	engine *Engine
	source *source.MemorySource
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	g, err := grid.NewUniform("test-1x2", 1, 2, 4, 4, testGeo)
	require.NoError(t, err)

	grids := grid.NewRegistry()
	grids.Add(g)

	products := config.NewProductRegistry()
	rules := []quality.BitRule{{Name: "cloud", Mask: 0b1, Allowed: []uint32{0}}}
	require.NoError(t, products.Add(&config.ProductConfig{
		ID: "NATIVE", GridID: "test-1x2", PeriodDays: 8, QARules: rules,
	}))
	require.NoError(t, products.Add(&config.ProductConfig{
		ID: "DAILY", GridID: "test-1x2", Synthesis: true, PeriodDays: 4, QARules: rules,
	}))
	require.NoError(t, products.Add(&config.ProductConfig{
		ID: "UNSCREENED", GridID: "test-1x2", PeriodDays: 8,
	}))

	src := source.NewMemorySource()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testFixture{
		engine: New(products, grids, src, logger).WithConcurrency(2),
		source: src,
	}
}

func (f *testFixture) stage(t *testing.T, product string, date time.Time, cellID string, viValue, qaValue int32) {
	t.Helper()
	vi := raster.New(4, 4, raster.VINoData, testGeo)
	qa := raster.New(4, 4, 0, testGeo)
	for i := range vi.Pixels {
		vi.Pixels[i] = viValue
		qa.Pixels[i] = qaValue
	}
	f.source.Put(product, date, cellID, source.SubVI, vi)
	f.source.Put(product, date, cellID, source.SubQA, qa)
}

func TestBuildNative(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "NATIVE", testStart, "h00v00", 5000, 0)
	f.stage(t, "NATIVE", testStart, "h01v00", 3000, 0)

	result, err := f.engine.Build(context.Background(), "NATIVE", testStart, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "NATIVE", result.Product)
	assert.Equal(t, testStart, result.PeriodStart)
	assert.Equal(t, testStart.AddDate(0, 0, 8), result.PeriodEnd, "zero end uses the product period")
	assert.Empty(t, result.MissingCells)

	require.Equal(t, 8, result.Raster.Width)
	require.Equal(t, 4, result.Raster.Height)
	assert.Equal(t, int32(5000), result.Raster.At(0, 0))
	assert.Equal(t, int32(3000), result.Raster.At(0, 4))
	assert.Equal(t, 1.0, result.Raster.ValidFraction())
}

func TestBuildNativeScreensQA(t *testing.T) {
	f := newFixture(t)
	// Both cells present but the second one fails the cloud screen
	// everywhere, so it survives as a cell of nodata, not a missing cell.
	f.stage(t, "NATIVE", testStart, "h00v00", 5000, 0)
	f.stage(t, "NATIVE", testStart, "h01v00", 9000, 1)

	result, err := f.engine.Build(context.Background(), "NATIVE", testStart, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.MissingCells)
	assert.Equal(t, int32(5000), result.Raster.At(0, 0))
	assert.Equal(t, raster.VINoData, result.Raster.At(0, 4))
	assert.Equal(t, 0.5, result.Raster.ValidFraction())
}

func TestBuildSynthesisPicksMax(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "DAILY", testStart, "h00v00", 3000, 0)
	f.stage(t, "DAILY", testStart.AddDate(0, 0, 1), "h00v00", 7000, 0)
	// Day 3 is cloudy; its higher value must not win.
	f.stage(t, "DAILY", testStart.AddDate(0, 0, 2), "h00v00", 9000, 1)
	f.stage(t, "DAILY", testStart, "h01v00", 4000, 0)

	result, err := f.engine.Build(context.Background(), "DAILY", testStart, time.Time{})
	require.NoError(t, err)

	assert.Empty(t, result.MissingCells)
	assert.Equal(t, int32(7000), result.Raster.At(0, 0))
	assert.Equal(t, int32(4000), result.Raster.At(0, 4))
}

func TestBuildSynthesisExplicitPeriod(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "DAILY", testStart, "h00v00", 3000, 0)
	// Outside the requested 1-day window.
	f.stage(t, "DAILY", testStart.AddDate(0, 0, 1), "h00v00", 9000, 0)
	f.stage(t, "DAILY", testStart, "h01v00", 4000, 0)

	result, err := f.engine.Build(context.Background(), "DAILY", testStart, testStart.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, int32(3000), result.Raster.At(0, 0))
}

func TestBuildMissingCellsAreGapsNotErrors(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "DAILY", testStart, "h00v00", 5000, 0)

	result, err := f.engine.Build(context.Background(), "DAILY", testStart, time.Time{})
	require.NoError(t, err, "one cell's gap must not fail the build")

	assert.Equal(t, []string{"h01v00"}, result.MissingCells)
	assert.Equal(t, int32(5000), result.Raster.At(0, 0))
	assert.Equal(t, raster.VINoData, result.Raster.At(0, 4))
}

func TestBuildAllCellsMissing(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.Build(context.Background(), "NATIVE", testStart, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"h00v00", "h01v00"}, result.MissingCells)
	assert.Equal(t, 0.0, result.Raster.ValidFraction())
}

func TestBuildMissingQAIsAGap(t *testing.T) {
	f := newFixture(t)
	vi := raster.New(4, 4, raster.VINoData, testGeo)
	for i := range vi.Pixels {
		vi.Pixels[i] = 5000
	}
	// VI staged without its QA pair; the observation is dropped rather
	// than passed through unscreened.
	f.source.Put("NATIVE", testStart, "h00v00", source.SubVI, vi)
	f.stage(t, "NATIVE", testStart, "h01v00", 3000, 0)

	result, err := f.engine.Build(context.Background(), "NATIVE", testStart, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"h00v00"}, result.MissingCells)
}

func TestBuildUnscreenedProductNeedsNoQA(t *testing.T) {
	f := newFixture(t)
	vi := raster.New(4, 4, raster.VINoData, testGeo)
	for i := range vi.Pixels {
		vi.Pixels[i] = 5000
	}
	f.source.Put("UNSCREENED", testStart, "h00v00", source.SubVI, vi)
	f.source.Put("UNSCREENED", testStart, "h01v00", source.SubVI, vi)

	result, err := f.engine.Build(context.Background(), "UNSCREENED", testStart, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, result.MissingCells)
}

func TestBuildUnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Build(context.Background(), "NOPE", testStart, time.Time{})
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestBuildUnknownGrid(t *testing.T) {
	f := newFixture(t)
	products := config.NewProductRegistry()
	require.NoError(t, products.Add(&config.ProductConfig{
		ID: "ORPHAN", GridID: "no-such-grid", PeriodDays: 8,
	}))
	eng := New(products, grid.NewRegistry(), f.source, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := eng.Build(context.Background(), "ORPHAN", testStart, time.Time{})
	assert.ErrorIs(t, err, ErrUnknownGrid)
}

func TestBuildInvalidPeriod(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Build(context.Background(), "NATIVE", testStart, testStart)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = f.engine.Build(context.Background(), "NATIVE", testStart, testStart.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBuildGeometryMismatchIsFatal(t *testing.T) {
	f := newFixture(t)
	// A tile that does not match the cell's declared 4x4 extent.
	wrong := raster.New(3, 3, raster.VINoData, testGeo)
	f.source.Put("NATIVE", testStart, "h00v00", source.SubVI, wrong)
	f.stage(t, "NATIVE", testStart, "h01v00", 3000, 0)

	_, err := f.engine.Build(context.Background(), "NATIVE", testStart, time.Time{})
	assert.ErrorIs(t, err, raster.ErrGeometryMismatch)
}

// brokenSource fails every fetch with a non-availability error.
type brokenSource struct{}

func (brokenSource) Fetch(ctx context.Context, product string, date time.Time, cellID string, sub source.Subdataset) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("disk on fire")
}

func TestBuildSourceFailureIsAGap(t *testing.T) {
	f := newFixture(t)
	eng := New(f.engine.products, f.engine.grids, brokenSource{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := eng.Build(context.Background(), "NATIVE", testStart, time.Time{})
	require.NoError(t, err, "source failures degrade to coverage gaps")
	assert.Len(t, result.MissingCells, 2)
}

func TestBuildContextCancelled(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "NATIVE", testStart, "h00v00", 5000, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Build(ctx, "NATIVE", testStart, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTruncatesToUTCDay(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "NATIVE", testStart, "h00v00", 5000, 0)
	f.stage(t, "NATIVE", testStart, "h01v00", 3000, 0)

	// Mid-day timestamp resolves to the same UTC day.
	noon := testStart.Add(15 * time.Hour)
	result, err := f.engine.Build(context.Background(), "NATIVE", noon, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, testStart, result.PeriodStart)
	assert.Empty(t, result.MissingCells)
}

func TestWithRuleAndConcurrencyIgnoreBadValues(t *testing.T) {
	f := newFixture(t)
	eng := f.engine.WithRule(nil).WithConcurrency(0)
	assert.Equal(t, composite.MaxValue{}, eng.rule)
	assert.Equal(t, 2, eng.concurrency)
}
