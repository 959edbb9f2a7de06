package raster

import "errors"

var (
	ErrEmptySeries     = errors.New("no input rasters")
	ErrGridMismatch    = errors.New("raster grid mismatch")
	ErrMissingMetadata = errors.New("missing georeferencing metadata")
	ErrYearLabels      = errors.New("file names do not carry ascending years")
)
