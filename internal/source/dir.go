package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// DirSource reads pre-staged tiles from a local directory tree laid out
// as {root}/{product}/{YYYY-MM-DD}/{cellID}.{subdataset}.json. Upstream
// tooling that handles downloading and vendor-format extraction drops
// decoded tiles here; this source only decodes the staging format.
type DirSource struct {
	root string
}

// tileFile is the on-disk staging format for one decoded tile.
type tileFile struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	NoData int32         `json:"nodata"`
	Geo    raster.Georef `json:"geo"`
	Pixels []int32       `json:"pixels"`
}

// NewDirSource creates a source rooted at dir. The directory must
// exist; contents are read lazily per fetch.
func NewDirSource(dir string) (*DirSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("tile directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tile path %q is not a directory", dir)
	}
	return &DirSource{root: dir}, nil
}

// Fetch implements TileSource. A missing file is ErrNotAvailable; a
// present but malformed file is an error, since silently skipping it
// would hide data corruption as a coverage gap.
func (s *DirSource) Fetch(ctx context.Context, product string, date time.Time, cellID string, sub Subdataset) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, product, date.UTC().Format("2006-01-02"),
		fmt.Sprintf("%s.%s.json", cellID, sub))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotAvailable
		}
		return nil, fmt.Errorf("failed to read tile %q: %w", path, err)
	}

	var tf tileFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse tile %q: %w", path, err)
	}
	if tf.Width <= 0 || tf.Height <= 0 {
		return nil, fmt.Errorf("tile %q: non-positive extent %dx%d", path, tf.Width, tf.Height)
	}
	if len(tf.Pixels) != tf.Width*tf.Height {
		return nil, fmt.Errorf("tile %q: %d pixels for a %dx%d raster", path, len(tf.Pixels), tf.Width, tf.Height)
	}

	return &raster.Raster{
		Width:  tf.Width,
		Height: tf.Height,
		Pixels: tf.Pixels,
		NoData: tf.NoData,
		Geo:    tf.Geo,
	}, nil
}

// WriteTile writes a raster in the staging format. Mainly for tests and
// for tools that stage tiles.
func WriteTile(root, product string, date time.Time, cellID string, sub Subdataset, r *raster.Raster) error {
	dir := filepath.Join(root, product, date.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	data, err := json.Marshal(tileFile{
		Width:  r.Width,
		Height: r.Height,
		NoData: r.NoData,
		Geo:    r.Geo,
		Pixels: r.Pixels,
	})
	if err != nil {
		return fmt.Errorf("failed to encode tile: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.json", cellID, sub))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tile %q: %w", path, err)
	}
	return nil
}
