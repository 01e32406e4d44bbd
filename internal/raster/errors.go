package raster

import "errors"

var (
	// ErrGeometryMismatch is returned when rasters with incompatible
	// shape, pixel size, or spatial reference are combined. This is a
	// configuration fault; the pipeline never crops or resamples to
	// reconcile it.
	ErrGeometryMismatch = errors.New("raster geometry mismatch")
)
