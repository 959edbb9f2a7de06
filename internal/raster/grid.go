package raster

import (
	"fmt"
	"math"

	"github.com/banshee-data/firemap/internal/geotiff"
)

// Encoding holds the compression parameters applied to every output.
type Encoding struct {
	Level        int `json:"compression_level"`
	Predictor    int `json:"predictor"`
	RowsPerStrip int `json:"rows_per_strip"`
}

// DefaultEncoding mirrors the defaults file: deflate level 9, horizontal
// predictor, 64-row strips.
var DefaultEncoding = Encoding{Level: 9, Predictor: 2, RowsPerStrip: 64}

// Grid is the spatial frame shared by every input and output of a run. It
// is captured once from the reference raster.
type Grid struct {
	Width      int
	Height     int
	SourceType geotiff.DataType
	Geo        geotiff.GeoInfo
	Encoding   Encoding
	Reference  string

	// BlockRows is the strip or tile height of the reference raster.
	// Tiles are aligned to it so no block is decoded by two tiles.
	BlockRows int
}

// NewImage allocates a zeroed output raster on the grid.
func (g Grid) NewImage(t geotiff.DataType) *geotiff.Image {
	im := geotiff.NewImage(g.Width, g.Height, t)
	im.Geo = g.Geo.Clone()
	return im
}

// EncodeOptions returns the deflate settings for an output raster.
func (g Grid) EncodeOptions() geotiff.EncodeOptions {
	return geotiff.EncodeOptions{
		Compression:  geotiff.CompressionDeflate,
		Level:        g.Encoding.Level,
		Predictor:    g.Encoding.Predictor,
		RowsPerStrip: g.Encoding.RowsPerStrip,
	}
}

// Check verifies that a raster of the given size and georeferencing sits on
// the grid: same dimensions, same CRS keys and the same transform.
func (g Grid) Check(path string, width, height int, geo geotiff.GeoInfo) error {
	if width != g.Width || height != g.Height {
		return fmt.Errorf("%w: %s is %dx%d, %s is %dx%d",
			ErrGridMismatch, path, width, height, g.Reference, g.Width, g.Height)
	}
	if g.Geo.Equal(geo) {
		return nil
	}
	if !g.Geo.SameCRS(geo) {
		return fmt.Errorf("%w: %s has CRS %s, %s has %s",
			ErrGridMismatch, path, crsName(geo), g.Reference, crsName(g.Geo))
	}
	want, ok1 := g.Geo.GeoTransform()
	got, ok2 := geo.GeoTransform()
	switch {
	case ok1 && !ok2:
		return fmt.Errorf("%w: %s has no transform, %s has %v",
			ErrGridMismatch, path, g.Reference, want)
	case ok1 && ok2 && !sameTransform(want, got):
		return fmt.Errorf("%w: %s has transform %v, %s has %v",
			ErrGridMismatch, path, got, g.Reference, want)
	}
	return nil
}

func crsName(geo geotiff.GeoInfo) string {
	if code, ok := geo.EPSG(); ok {
		return fmt.Sprintf("EPSG:%d", code)
	}
	if len(geo.KeyDirectory) == 0 {
		return "none"
	}
	return "user-defined"
}

// sameTransform compares two transforms to a small fraction of a pixel.
func sameTransform(a, b [6]float64) bool {
	tol := 1e-6 * math.Max(math.Abs(a[1]), math.Abs(a[5]))
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// Window is a band of whole grid rows [Row0, Row0+Rows).
type Window struct {
	Row0 int
	Rows int
}

// Tiles splits the grid into row bands of at most rows rows, rounded up to
// a multiple of BlockRows. rows <= 0 returns a single window covering the
// grid.
func (g Grid) Tiles(rows int) []Window {
	if rows > 0 && g.BlockRows > 1 {
		rows = (rows + g.BlockRows - 1) / g.BlockRows * g.BlockRows
	}
	if rows <= 0 || rows >= g.Height {
		return []Window{{Row0: 0, Rows: g.Height}}
	}
	out := make([]Window, 0, (g.Height+rows-1)/rows)
	for r := 0; r < g.Height; r += rows {
		out = append(out, Window{Row0: r, Rows: min(rows, g.Height-r)})
	}
	return out
}
