// Package geotiff reads and writes single-band GeoTIFF rasters.
//
// The decoder understands classic (non-Big) TIFF in either byte order, strip
// and tile layouts, no/LZW/deflate/PackBits compression and the horizontal
// and floating-point predictors. Only the first sample of each pixel is
// returned. The encoder writes little-endian strip or tile images with
// optional deflate compression and carries the GeoTIFF tags of a GeoInfo
// through unchanged, so outputs stay aligned with the raster they were
// derived from.
//
// Pixel data is held as little-endian bytes in Image.Pix regardless of the
// byte order of the source file.
package geotiff
