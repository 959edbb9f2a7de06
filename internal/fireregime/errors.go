package fireregime

import (
	"errors"
	"fmt"

	"github.com/banshee-data/firemap/internal/raster"
)

// Sentinel causes, matchable with errors.Is through the typed errors below.
var (
	ErrEmptySeries     = raster.ErrEmptySeries
	ErrGridMismatch    = raster.ErrGridMismatch
	ErrMissingMetadata = raster.ErrMissingMetadata
	ErrYearLabels      = raster.ErrYearLabels
	ErrNonBinary       = errors.New("value is neither 0 nor 1")
)

// InputError reports an input series that cannot be processed: no files,
// rasters off the reference grid, missing georeferencing or an unreadable
// file.
type InputError struct {
	Path string // offending file or directory, empty when not specific
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error: %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// EncodingError reports a yearly sequence holding something other than 0
// or 1. It indicates a bug in matrix construction rather than bad input.
type EncodingError struct {
	Pixel *Pixel // nil when raised outside a pixel context
	Index int    // position of the offending value
	Value uint8
}

func (e *EncodingError) Error() string {
	if e.Pixel == nil {
		return fmt.Sprintf("encoding error: value %d at position %d: %v", e.Value, e.Index, ErrNonBinary)
	}
	return fmt.Sprintf("encoding error: pixel (%d,%d) value %d at position %d: %v",
		e.Pixel.Row, e.Pixel.Col, e.Value, e.Index, ErrNonBinary)
}

func (e *EncodingError) Unwrap() error { return ErrNonBinary }

// OutputError reports a result raster that could not be written.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output error: %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
