package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/firemap/internal/fireregime"
	"github.com/banshee-data/firemap/internal/fsutil"
)

// Writer renders the report files of a run into a directory.
type Writer struct {
	fs fsutil.FileSystem

	// AssetsHost overrides the echarts asset URL prefix in the HTML page.
	AssetsHost string
	// Width and Height size the PNG figures; zero uses 10x4 inches.
	Width, Height vg.Length
}

// NewWriter returns a Writer on fsys, or on the OS when fsys is nil.
func NewWriter(fsys fsutil.FileSystem) *Writer {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Writer{fs: fsys}
}

// Write renders both figures and the HTML page into dir and returns the
// paths written.
func (w *Writer) Write(dir string, sum *fireregime.Summary) ([]string, error) {
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	var written []string
	for _, fig := range []struct {
		name  string
		build func(*fireregime.Summary) (*plot.Plot, error)
	}{
		{BurnedPlotFile, BurnedPerYearPlot},
		{IntervalsPlotFile, IntervalHistogramPlot},
	} {
		p, err := fig.build(sum)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, fig.name)
		if err := w.savePNG(p, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	var buf bytes.Buffer
	if err := RenderHTML(&buf, sum, w.AssetsHost); err != nil {
		return written, fmt.Errorf("render html: %w", err)
	}
	path := filepath.Join(dir, PageFile)
	if err := w.fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return written, fmt.Errorf("write %s: %w", path, err)
	}
	return append(written, path), nil
}

func (w *Writer) savePNG(p *plot.Plot, path string) error {
	width, height := w.Width, w.Height
	if width <= 0 || height <= 0 {
		width, height = 10*vg.Inch, 4*vg.Inch
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := w.fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
