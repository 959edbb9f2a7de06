package report

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/firemap/internal/fireregime"
	"github.com/banshee-data/firemap/internal/fsutil"
)

func testSummary() *fireregime.Summary {
	return &fireregime.Summary{
		RunID:         "run-1",
		Labels:        []string{"2001", "2002", "2003", "2004"},
		BurnedPerYear: []int{3, 0, 5, 2},
		EverBurned:    6,
		WithIntervals: 4,
		MeanFRI:       0.42,
		Intervals: fireregime.IntervalHistograms{
			Min:  fireregime.Histogram{0, 2, 2, 0, 0},
			Mean: fireregime.Histogram{0, 1, 3, 0, 0},
			Max:  fireregime.Histogram{0, 0, 3, 1, 0},
		},
	}
}

func TestHistogramExtent(t *testing.T) {
	assert.Equal(t, 4, histogramExtent(metrics(testSummary())))
	assert.Equal(t, 1, histogramExtent(metrics(&fireregime.Summary{})))
}

func TestPalette(t *testing.T) {
	colors := palette(3)
	require.Len(t, colors, 3)
	assert.NotEqual(t, colors[0], colors[1])
	assert.Nil(t, palette(0))
	assert.Equal(t, "#ff0080", hexColor(color.RGBA{R: 255, G: 0, B: 128, A: 255}))
}

func TestWriter(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w := NewWriter(mfs)
	w.AssetsHost = "/assets/"

	paths, err := w.Write("/report", testSummary())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/report/" + BurnedPlotFile,
		"/report/" + IntervalsPlotFile,
		"/report/" + PageFile,
	}, paths)

	for _, p := range paths[:2] {
		data, err := mfs.ReadFile(p)
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err, p)
		assert.Greater(t, cfg.Width, cfg.Height, p)
	}

	html, err := mfs.ReadFile("/report/" + PageFile)
	require.NoError(t, err)
	page := string(html)
	assert.True(t, strings.Contains(page, "Burned pixels per year"))
	assert.True(t, strings.Contains(page, "Inter-fire intervals"))
	assert.True(t, strings.Contains(page, "/assets/"))
}

func TestRenderHTML_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	sum := &fireregime.Summary{RunID: "empty", Labels: []string{"2001"}, BurnedPerYear: []int{0}}
	require.NoError(t, RenderHTML(&buf, sum, ""))
	assert.Contains(t, buf.String(), "0 ever burned")
}
