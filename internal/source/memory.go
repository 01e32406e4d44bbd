package source

import (
	"context"
	"sync"
	"time"

	"github.com/robert-malhotra/vi-mosaic/internal/raster"
)

// MemorySource is an in-memory TileSource. It backs tests and embedded
// use, where the caller stages decoded tiles up front.
type MemorySource struct {
	mu    sync.RWMutex
	tiles map[tileKey]*raster.Raster
}

type tileKey struct {
	product string
	date    string
	cellID  string
	sub     Subdataset
}

func key(product string, date time.Time, cellID string, sub Subdataset) tileKey {
	return tileKey{
		product: product,
		date:    date.UTC().Format("2006-01-02"),
		cellID:  cellID,
		sub:     sub,
	}
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tiles: make(map[tileKey]*raster.Raster)}
}

// Put stages a tile. Dates are compared at day granularity, UTC.
func (s *MemorySource) Put(product string, date time.Time, cellID string, sub Subdataset, r *raster.Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[key(product, date, cellID, sub)] = r
}

// Fetch implements TileSource. Unstaged tiles return ErrNotAvailable.
func (s *MemorySource) Fetch(ctx context.Context, product string, date time.Time, cellID string, sub Subdataset) (*raster.Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tiles[key(product, date, cellID, sub)]
	if !ok {
		return nil, ErrNotAvailable
	}
	return r, nil
}

// Len returns the number of staged tiles.
func (s *MemorySource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}
