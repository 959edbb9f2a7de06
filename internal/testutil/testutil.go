// Package testutil provides shared test utilities and fixtures.
//
// Besides small assertion helpers it builds synthetic yearly burned-area
// series: tiny GeoTIFFs on a common grid, written either to a
// MemoryFileSystem or to a real directory.
package testutil

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/banshee-data/firemap/internal/fsutil"
	"github.com/banshee-data/firemap/internal/geotiff"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Geo returns georeferencing for a 1 km WGS84 grid anchored at (-10, 40).
func Geo() geotiff.GeoInfo {
	return geotiff.GeoInfo{
		PixelScale:   []float64{0.008983, 0.008983, 0},
		Tiepoints:    []float64{0, 0, 0, -10, 40, 0},
		KeyDirectory: []uint16{1, 1, 0, 2, 1024, 0, 1, 2, 2048, 0, 1, 4326},
		ASCIIParams:  "WGS 84|",
	}
}

// EncodeYear encodes values (row-major, width*height) as a uint8 GeoTIFF.
func EncodeYear(t testing.TB, width, height int, values []float64, geo geotiff.GeoInfo) []byte {
	t.Helper()
	return EncodeTyped(t, width, height, geotiff.Uint8, values, geo)
}

// EncodeTyped encodes values as a GeoTIFF of the given type.
func EncodeTyped(t testing.TB, width, height int, typ geotiff.DataType, values []float64, geo geotiff.GeoInfo) []byte {
	t.Helper()
	if len(values) != width*height {
		t.Fatalf("EncodeTyped: %d values for %dx%d", len(values), width, height)
	}
	im := geotiff.NewImage(width, height, typ)
	for i, v := range values {
		im.Set(i, v)
	}
	im.Geo = geo
	var buf bytes.Buffer
	if err := geotiff.Encode(&buf, im, geotiff.EncodeOptions{Compression: geotiff.CompressionDeflate, Level: 6, RowsPerStrip: 2}); err != nil {
		t.Fatalf("EncodeTyped: %v", err)
	}
	return buf.Bytes()
}

// Series describes a synthetic stack: Burned[y] holds the row-major pixel
// indices that burned in year Years[y].
type Series struct {
	Width, Height int
	Years         []int
	Burned        [][]int
}

// Layer returns the thresholdable values of year index y: 1 for burned
// pixels, 0 elsewhere.
func (s Series) Layer(y int) []float64 {
	v := make([]float64, s.Width*s.Height)
	for _, px := range s.Burned[y] {
		v[px] = 1
	}
	return v
}

// WriteMem writes the series to dir in mfs as burned_<year>.tif and returns
// the paths in year order.
func (s Series) WriteMem(t testing.TB, mfs fsutil.FileSystem, dir string) []string {
	t.Helper()
	AssertNoError(t, mfs.MkdirAll(dir, 0o755))
	paths := make([]string, len(s.Years))
	for i, year := range s.Years {
		p := filepath.Join(dir, fmt.Sprintf("burned_%d.tif", year))
		if err := mfs.WriteFile(p, EncodeYear(t, s.Width, s.Height, s.Layer(i), Geo()), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", p, err)
		}
		paths[i] = p
	}
	return paths
}

// WriteDir writes the series to a real directory.
func (s Series) WriteDir(t testing.TB, dir string) []string {
	t.Helper()
	return s.WriteMem(t, fsutil.OSFileSystem{}, dir)
}

// ReadImage decodes a raster from mfs.
func ReadImage(t testing.TB, mfs fsutil.FileSystem, path string) *geotiff.Image {
	t.Helper()
	data, err := mfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile %s: %v", path, err)
	}
	im, err := geotiff.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode %s: %v", path, err)
	}
	return im
}
