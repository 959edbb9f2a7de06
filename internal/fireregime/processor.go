package fireregime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/firemap/internal/config"
	"github.com/banshee-data/firemap/internal/geotiff"
	"github.com/banshee-data/firemap/internal/monitoring"
	"github.com/banshee-data/firemap/internal/raster"
)

// Output file names.
const (
	FRIFile        = "fire_recurrence_interval.tif"
	MinReturnFile  = "minimum_return.tif"
	MaxReturnFile  = "maximum_return.tif"
	MeanReturnFile = "mean_return.tif"
)

// OutputFiles lists the result rasters in the order they are written.
var OutputFiles = []string{FRIFile, MinReturnFile, MaxReturnFile, MeanReturnFile}

// Fire counts are held as uint16.
const maxInputs = math.MaxUint16

// Processor runs the occurrence and interval stages over a yearly series.
type Processor struct {
	store *raster.Store
	opts  Options
	obs   Observer
	now   func() time.Time
}

// NewProcessor returns a Processor reading and writing through store. A nil
// store uses the OS filesystem and a nil observer discards progress.
func NewProcessor(store *raster.Store, opts Options, obs Observer) *Processor {
	if store == nil {
		store = raster.NewStore(nil)
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &Processor{store: store, opts: opts, obs: obs, now: time.Now}
}

// Run processes the files in inputDir matching the configured pattern and
// writes the results to outputDir.
func (p *Processor) Run(ctx context.Context, inputDir, outputDir string) (*Summary, error) {
	pattern := p.opts.Pattern
	if pattern == "" {
		pattern = config.EmptyRegimeConfig().GetInputPattern()
	}
	series, err := raster.ListSeries(p.store.FS(), inputDir, pattern)
	if err != nil {
		return nil, &InputError{Path: inputDir, Err: err}
	}
	series = skipOwnFiles(series, sameDir(inputDir, outputDir))
	if len(series) == 0 {
		return nil, &InputError{Path: inputDir, Err: fmt.Errorf(
			"%w: only result rasters match %s", ErrEmptySeries, pattern)}
	}
	sum, err := p.Process(ctx, series, outputDir)
	if err != nil {
		return nil, err
	}
	sum.InputDir = inputDir
	return sum, nil
}

// skipOwnFiles drops partial writes and, when the output directory is the
// input directory, the result rasters of an earlier run.
func skipOwnFiles(series raster.Series, sharedDir bool) raster.Series {
	kept := series[:0:0]
	for _, f := range series {
		if raster.IsPartial(f.Path) || (sharedDir && isOutputFile(f.Path)) {
			monitoring.Logf("skipping %s: not a yearly input", f.Path)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func isOutputFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range OutputFiles {
		if base == name {
			return true
		}
	}
	return false
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Process computes the four result rasters for series and writes them to
// outputDir. Every input header is checked against the first before any
// pixels are read, so a mismatched series leaves no output behind.
func (p *Processor) Process(ctx context.Context, series raster.Series, outputDir string) (*Summary, error) {
	started := p.now()
	if len(series) == 0 {
		return nil, &InputError{Err: ErrEmptySeries}
	}
	if len(series) > maxInputs {
		return nil, &InputError{Err: fmt.Errorf("%d input files, at most %d supported", len(series), maxInputs)}
	}

	grid, err := p.store.LoadGrid(series, p.opts.Encoding)
	if err != nil {
		return nil, &InputError{Path: series[0].Path, Err: err}
	}
	for _, f := range series[1:] {
		if err := p.store.Probe(f.Path, grid); err != nil {
			return nil, &InputError{Path: f.Path, Err: err}
		}
	}
	denom, err := p.denominator(series)
	if err != nil {
		return nil, err
	}
	if missing := series.MissingYears(); len(missing) > 0 {
		monitoring.Warnf("series %s..%s has no file for %d year(s): %v",
			series[0].Label, series[len(series)-1].Label, len(missing), missing)
	}

	out := newOutputs(grid, len(series))
	tiles := grid.Tiles(p.opts.TileRows)
	results := make([]*tileResult, len(tiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.workers())
	for i, w := range tiles {
		i, w := i, w
		g.Go(func() error {
			res, err := p.processTile(gctx, series, grid, w, denom, out)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written, err := p.writeOutputs(outputDir, grid, out)
	if err != nil {
		return nil, err
	}

	sum := newSummary(series, grid, denom, results)
	sum.OutputDir = outputDir
	sum.InputDir = filepath.Dir(series[0].Path)
	sum.Outputs = written
	sum.Options = p.opts
	sum.Started = started
	sum.Duration = p.now().Sub(started)
	return sum, nil
}

func (p *Processor) denominator(series raster.Series) (int, error) {
	if p.opts.Denominator != config.DenominatorSpan {
		return len(series), nil
	}
	span, err := series.Span()
	if err != nil {
		return 0, &InputError{Err: fmt.Errorf("fri_denominator %q needs year labels: %w", config.DenominatorSpan, err)}
	}
	return span, nil
}

// outputs are the dense result rasters. Tiles write disjoint row bands.
type outputs struct {
	fri, min, max, mean *geotiff.Image
}

func newOutputs(g raster.Grid, years int) *outputs {
	intervalType := geotiff.Uint8
	if years > math.MaxUint8 {
		intervalType = geotiff.Uint16
	}
	o := &outputs{
		fri:  g.NewImage(geotiff.Float32),
		min:  g.NewImage(intervalType),
		max:  g.NewImage(intervalType),
		mean: g.NewImage(intervalType),
	}
	// Zero marks never-burned pixels; the inputs' nodata value does not
	// apply to the results.
	for _, im := range o.byName() {
		im.Geo.NoData = ""
	}
	return o
}

func (o *outputs) byName() map[string]*geotiff.Image {
	return map[string]*geotiff.Image{
		FRIFile:        o.fri,
		MinReturnFile:  o.min,
		MaxReturnFile:  o.max,
		MeanReturnFile: o.mean,
	}
}

// tileResult is what one tile contributes to the run summary.
type tileResult struct {
	burnedPerYear []int
	index         PixelIndex
	fri           []float64 // parallel to index
	withIntervals int
	hist          IntervalHistograms
}

func (p *Processor) processTile(ctx context.Context, series raster.Series, grid raster.Grid, w raster.Window, denom int, out *outputs) (*tileResult, error) {
	n := len(series)
	width := grid.Width
	res := &tileResult{burnedPerYear: make([]int, n), hist: newIntervalHistograms(n)}

	counts := make([]uint16, width*w.Rows)
	for y, f := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		im, err := p.store.ReadWindow(f.Path, grid, w)
		if err != nil {
			return nil, &InputError{Path: f.Path, Err: err}
		}
		th := thresholdFor(im, p.opts.NoData)
		for i := range counts {
			if th.burned(im, i) {
				counts[i]++
				res.burnedPerYear[y]++
			}
		}
		p.obs.FileProcessed(StageOccurrence, y+1, n, f.Path)
	}

	base := w.Row0 * width
	for i, c := range counts {
		if c == 0 {
			continue
		}
		fri := float64(c) / float64(denom)
		res.index = append(res.index, Pixel{Row: w.Row0 + i/width, Col: i % width})
		res.fri = append(res.fri, fri)
		out.fri.Set(base+i, fri)
	}
	if len(res.index) == 0 {
		return res, nil
	}

	// The window is decoded again rather than kept from the first pass, so
	// memory stays at one window per worker.
	m := NewOccurrenceMatrix(len(res.index), n)
	for y, f := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		im, err := p.store.ReadWindow(f.Path, grid, w)
		if err != nil {
			return nil, &InputError{Path: f.Path, Err: err}
		}
		th := thresholdFor(im, p.opts.NoData)
		for k := range res.index {
			if th.burned(im, res.index.Offset(k, width)-base) {
				m.Mark(k, y)
			}
		}
		p.obs.FileProcessed(StageIntervals, y+1, n, f.Path)
	}

	if err := p.analyze(ctx, res, m, out, width); err != nil {
		return nil, err
	}
	return res, nil
}

// analyze reduces every matrix row to interval metrics and places them in
// the dense outputs.
func (p *Processor) analyze(ctx context.Context, res *tileResult, m *OccurrenceMatrix, out *outputs, width int) error {
	batch := p.opts.pixelBatch()
	total := len(res.index)
	pending := 0

	var runs []Run
	for k := range res.index {
		var err error
		runs, err = appendRuns(runs[:0], m.Row(k))
		if err != nil {
			var encErr *EncodingError
			if errors.As(err, &encErr) {
				px := res.index[k]
				encErr.Pixel = &px
			}
			return err
		}

		pm := metricsFromRuns(runs, p.opts.ExcludeBoundary)
		if pm.HasInterval {
			off := res.index.Offset(k, width)
			mean := roundMean(pm.Mean, p.opts.MeanRounding)
			out.min.Set(off, pm.Min)
			out.max.Set(off, pm.Max)
			out.mean.Set(off, mean)
			res.withIntervals++
			res.hist.add(pm.Min, mean, pm.Max)
		}

		if pending++; pending == batch {
			p.obs.PixelsAnalysed(pending, total)
			pending = 0
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if pending > 0 {
		p.obs.PixelsAnalysed(pending, total)
	}
	return nil
}

// writeOutputs writes the result rasters in OutputFiles order. When one
// fails, the ones already written by this call are removed.
func (p *Processor) writeOutputs(dir string, grid raster.Grid, out *outputs) ([]string, error) {
	if err := p.store.MkdirAll(dir); err != nil {
		return nil, &OutputError{Path: dir, Err: err}
	}
	opt := grid.EncodeOptions()
	images := out.byName()

	written := make([]string, 0, len(OutputFiles))
	for _, name := range OutputFiles {
		path := filepath.Join(dir, name)
		if err := p.store.Write(path, images[name], opt); err != nil {
			for _, done := range written {
				if rmErr := p.store.Remove(done); rmErr != nil {
					monitoring.Warnf("failed to remove %s after write error: %v", done, rmErr)
				}
			}
			return nil, &OutputError{Path: path, Err: err}
		}
		written = append(written, path)
		p.obs.OutputWritten(path)
	}
	return written, nil
}
