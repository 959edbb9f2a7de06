package geotiff

import "errors"

// Common errors
var (
	ErrNotTIFF     = errors.New("not a TIFF file")
	ErrUnsupported = errors.New("unsupported TIFF feature")
	ErrFormat      = errors.New("malformed TIFF")
	ErrWindow      = errors.New("row window out of range")
)
