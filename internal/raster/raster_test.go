package raster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/firemap/internal/fsutil"
	"github.com/banshee-data/firemap/internal/geotiff"
	"github.com/banshee-data/firemap/internal/testutil"
)

func TestNewYearFile(t *testing.T) {
	tests := []struct {
		path    string
		label   string
		year    int
		hasYear bool
	}{
		{"/in/2001.tif", "2001", 2001, true},
		{"/in/burned_2014.tif", "burned_2014", 2014, true},
		{"/in/MCD64A1_2019_sum.tif", "MCD64A1_2019_sum", 2019, true},
		{"/in/tile-12345.tif", "tile-12345", 0, false},
		{"/in/latest.tif", "latest", 0, false},
	}
	for _, tt := range tests {
		yf := NewYearFile(tt.path)
		assert.Equal(t, tt.label, yf.Label, tt.path)
		assert.Equal(t, tt.hasYear, yf.HasYear, tt.path)
		assert.Equal(t, tt.year, yf.Year, tt.path)
	}
}

func TestListSeries(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	for _, name := range []string{"2003.tif", "2001.tif", "2002.tif", "readme.txt"} {
		require.NoError(t, mfs.WriteFile(filepath.Join("/in", name), []byte("x"), 0o644))
	}

	s, err := ListSeries(mfs, "/in", "*.tif")
	require.NoError(t, err)
	assert.Equal(t, []string{"2001", "2002", "2003"}, s.Labels())
	assert.Equal(t, "/in/2003.tif", s[2].Path)

	_, err = ListSeries(mfs, "/empty", "*.tif")
	assert.True(t, errors.Is(err, ErrEmptySeries))
}

func TestSeriesYears(t *testing.T) {
	s := NewSeries([]string{"/in/2005.tif", "/in/2001.tif", "/in/2002.tif"})
	years, ok := s.Years()
	require.True(t, ok)
	assert.Equal(t, []int{2001, 2002, 2005}, years)

	span, err := s.Span()
	require.NoError(t, err)
	assert.Equal(t, 5, span)
	assert.Equal(t, []int{2003, 2004}, s.MissingYears())

	noYears := NewSeries([]string{"/in/a.tif", "/in/b.tif"})
	_, err = noYears.Span()
	assert.ErrorIs(t, err, ErrYearLabels)
	assert.Empty(t, noYears.MissingYears())

	var empty Series
	_, ok = empty.Years()
	assert.False(t, ok)
}

func TestGridTiles(t *testing.T) {
	g := Grid{Width: 4, Height: 10}
	assert.Equal(t, []Window{{0, 10}}, g.Tiles(0))
	assert.Equal(t, []Window{{0, 10}}, g.Tiles(12))
	assert.Equal(t, []Window{{0, 4}, {4, 4}, {8, 2}}, g.Tiles(4))

	// Tiles never split a strip of the reference raster.
	g.BlockRows = 3
	assert.Equal(t, []Window{{0, 6}, {6, 4}}, g.Tiles(4))
	assert.Equal(t, []Window{{0, 3}, {3, 3}, {6, 3}, {9, 1}}, g.Tiles(1))
	g.BlockRows = 10
	assert.Equal(t, []Window{{0, 10}}, g.Tiles(2))
}

func TestStoreLoadGridAndProbe(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	ts := testutil.Series{Width: 4, Height: 3, Years: []int{2001, 2002}, Burned: [][]int{{1}, {2}}}
	paths := ts.WriteMem(t, mfs, "/in")

	store := NewStore(mfs)
	series := NewSeries(paths)
	g, err := store.LoadGrid(series, DefaultEncoding)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Width)
	assert.Equal(t, 3, g.Height)
	assert.Equal(t, geotiff.Uint8, g.SourceType)
	assert.True(t, g.Geo.Equal(testutil.Geo()))
	assert.Equal(t, "/in/burned_2001.tif", g.Reference)
	assert.Equal(t, 2, g.BlockRows)
	for _, p := range paths {
		require.NoError(t, store.Probe(p, g))
	}

	// Different dimensions.
	require.NoError(t, mfs.WriteFile("/in/burned_2003.tif",
		testutil.EncodeYear(t, 5, 3, make([]float64, 15), testutil.Geo()), 0o644))
	err = store.Probe("/in/burned_2003.tif", g)
	assert.ErrorIs(t, err, ErrGridMismatch)

	// Same size, shifted origin.
	shifted := testutil.Geo()
	shifted.Tiepoints[3] += 1
	require.NoError(t, mfs.WriteFile("/in/burned_2004.tif",
		testutil.EncodeYear(t, 4, 3, make([]float64, 12), shifted), 0o644))
	err = store.Probe("/in/burned_2004.tif", g)
	assert.ErrorIs(t, err, ErrGridMismatch)
}

func TestGridCheckGeoreferencing(t *testing.T) {
	g := Grid{Width: 4, Height: 3, Geo: testutil.Geo(), Reference: "/in/2001.tif"}

	utm := testutil.Geo()
	utm.KeyDirectory = []uint16{1, 1, 0, 2, 1024, 0, 1, 1, 3072, 0, 1, 32633}
	utm.ASCIIParams = "WGS 84 / UTM zone 33N|"

	noTransform := testutil.Geo()
	noTransform.PixelScale = nil
	noTransform.Tiepoints = nil

	sameGrid := testutil.Geo()
	sameGrid.NoData = "255"

	matrix := testutil.Geo()
	matrix.PixelScale = nil
	matrix.Tiepoints = nil
	matrix.Transformation = []float64{
		0.008983, 0, 0, -10,
		0, -0.008983, 0, 40,
		0, 0, 0, 0,
		0, 0, 0, 1,
	}

	tests := []struct {
		name    string
		geo     geotiff.GeoInfo
		wantErr string
	}{
		{"identical", testutil.Geo(), ""},
		{"nodata differs", sameGrid, ""},
		{"transform as matrix", matrix, ""},
		{"other crs", utm, "EPSG:32633"},
		{"crs missing", func() geotiff.GeoInfo { g := testutil.Geo(); g.KeyDirectory = nil; g.ASCIIParams = ""; return g }(), "CRS none"},
		{"no georeferencing", geotiff.GeoInfo{}, "CRS none"},
		{"no transform", noTransform, "no transform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check("/in/2002.tif", 4, 3, tt.geo)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrGridMismatch)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreLoadGridErrors(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	store := NewStore(mfs)

	_, err := store.LoadGrid(nil, DefaultEncoding)
	assert.ErrorIs(t, err, ErrEmptySeries)

	require.NoError(t, mfs.WriteFile("/in/2001.tif",
		testutil.EncodeYear(t, 2, 2, make([]float64, 4), geotiff.GeoInfo{}), 0o644))
	_, err = store.LoadGrid(NewSeries([]string{"/in/2001.tif"}), DefaultEncoding)
	assert.ErrorIs(t, err, ErrMissingMetadata)

	require.NoError(t, mfs.WriteFile("/in/2002.tif", []byte("not a tiff"), 0o644))
	_, err = store.LoadGrid(NewSeries([]string{"/in/2002.tif"}), DefaultEncoding)
	assert.ErrorIs(t, err, geotiff.ErrNotTIFF)

	_, err = store.LoadGrid(NewSeries([]string{"/in/missing.tif"}), DefaultEncoding)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreReadWindow(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	ts := testutil.Series{Width: 3, Height: 4, Years: []int{2001}, Burned: [][]int{{0, 4, 11}}}
	paths := ts.WriteMem(t, mfs, "/in")
	store := NewStore(mfs)
	g, err := store.LoadGrid(NewSeries(paths), DefaultEncoding)
	require.NoError(t, err)

	im, err := store.ReadWindow(paths[0], g, Window{Row0: 1, Rows: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, im.Height)
	var got []float64
	for i := 0; i < im.Len(); i++ {
		got = append(got, im.At(i))
	}
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0, 0, 0, 1}, got)
}

func TestStoreWriteReplacesAtomically(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	store := NewStore(mfs)
	g := Grid{Width: 2, Height: 2, Geo: testutil.Geo(), Encoding: DefaultEncoding}

	require.NoError(t, mfs.WriteFile("/out/a.tif", []byte("stale"), 0o644))
	im := g.NewImage(geotiff.Uint8)
	im.Set(3, 9)
	require.NoError(t, store.Write("/out/a.tif", im, g.EncodeOptions()))

	got := testutil.ReadImage(t, mfs, "/out/a.tif")
	assert.Equal(t, float64(9), got.At(3))
	assert.True(t, got.Geo.Equal(g.Geo))
	assert.Equal(t, []string{"/out/a.tif"}, mfs.Files())

	mfs.FailCreate = func(name string) error {
		if strings.HasPrefix(filepath.Base(name), "b.tif") {
			return os.ErrPermission
		}
		return nil
	}
	err := store.Write("/out/b.tif", im, g.EncodeOptions())
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.False(t, mfs.Exists("/out/b.tif"))
	assert.False(t, mfs.Exists("/out/b.tif.partial"))

	// An encode failure removes the partial file.
	bad := &geotiff.Image{Width: 2, Height: 2, Type: geotiff.Uint8, Pix: []byte{1}}
	err = store.Write("/out/c.tif", bad, g.EncodeOptions())
	assert.ErrorIs(t, err, geotiff.ErrFormat)
	assert.False(t, mfs.Exists("/out/c.tif.partial"))
}
