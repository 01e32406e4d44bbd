package engine

import "errors"

var (
	// ErrUnknownProduct is returned when a build names a product with
	// no capability entry. Surfaced before any fetch is attempted.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrUnknownGrid is returned when a product's capability entry
	// names a tiling scheme the grid registry does not know.
	ErrUnknownGrid = errors.New("unknown grid scheme")

	// ErrInvalidPeriod is returned when the requested period is empty
	// or reversed.
	ErrInvalidPeriod = errors.New("invalid period")
)
