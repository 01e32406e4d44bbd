// Script to stage synthetic tiles for local testing of the dir source
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/raster"
	"github.com/robert-malhotra/vi-mosaic/internal/source"
)

func main() {
	var (
		dir      = flag.String("dir", "./tiles", "tile directory root")
		product  = flag.String("product", "MOD09CMG", "product ID")
		dateStr  = flag.String("date", time.Now().UTC().Format("2006-01-02"), "acquisition date (YYYY-MM-DD)")
		days     = flag.Int("days", 1, "number of consecutive days to stage")
		cells    = flag.Int("cells", 0, "number of cells to stage (0 = all)")
		validPct = flag.Float64("valid", 0.8, "fraction of pixels given valid VI values")
		seed     = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	products := config.NewProductRegistry()
	p, ok := products.Get(*product)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown product %q\n", *product)
		os.Exit(1)
	}
	g, ok := grid.NewRegistry().Get(p.GridID)
	if !ok {
		fmt.Fprintf(os.Stderr, "product %q references unknown grid %q\n", p.ID, p.GridID)
		os.Exit(1)
	}

	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad date %q: %v\n", *dateStr, err)
		os.Exit(1)
	}

	n := len(g.Cells)
	if *cells > 0 && *cells < n {
		n = *cells
	}

	rng := rand.New(rand.NewSource(*seed))
	staged := 0
	for d := 0; d < *days; d++ {
		day := date.AddDate(0, 0, d)
		for _, cell := range g.Cells[:n] {
			vi := raster.New(cell.Width, cell.Height, raster.VINoData, g.Geo)
			qa := raster.New(cell.Width, cell.Height, 0, g.Geo)
			for i := range vi.Pixels {
				if rng.Float64() < *validPct {
					// Valid scaled VI range.
					vi.Pixels[i] = int32(rng.Intn(12001) - 2000)
					qa.Pixels[i] = clearQAWord(p)
				} else {
					// Leave the pixel as nodata with an arbitrary QA word.
					qa.Pixels[i] = int32(rng.Intn(1 << 14))
				}
			}
			if err := source.WriteTile(*dir, p.ID, day, cell.ID, source.SubVI, vi); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write tile: %v\n", err)
				os.Exit(1)
			}
			if len(p.QARules) > 0 {
				if err := source.WriteTile(*dir, p.ID, day, cell.ID, source.SubQA, qa); err != nil {
					fmt.Fprintf(os.Stderr, "failed to write tile: %v\n", err)
					os.Exit(1)
				}
			}
			staged++
		}
	}

	fmt.Printf("staged %d cell(s) for %s under %s\n", staged, p.ID, *dir)
}

// clearQAWord returns a QA word that passes every one of the product's
// screens, by picking the first allowed value of each rule.
func clearQAWord(p *config.ProductConfig) int32 {
	var word uint32
	for _, r := range p.QARules {
		word = (word &^ r.Mask) | (r.Allowed[0] & r.Mask)
	}
	return int32(word)
}
