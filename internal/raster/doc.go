// Package raster is the file-level adapter shared by both fire-regime
// stages. It discovers the yearly input series, captures the reference grid
// from the first file, verifies every other file against it and writes
// result rasters onto the same grid.
package raster
