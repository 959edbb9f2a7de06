package fireregime

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/firemap/internal/raster"
)

// Histogram counts pixels by interval length; the index is whole years.
type Histogram []int

// Total returns the number of pixels counted.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// IntervalHistograms hold the distributions of the three interval metrics
// over pixels that have at least one interval.
type IntervalHistograms struct {
	Min  Histogram `json:"min"`
	Mean Histogram `json:"mean"`
	Max  Histogram `json:"max"`
}

func newIntervalHistograms(years int) IntervalHistograms {
	return IntervalHistograms{
		Min:  make(Histogram, years+1),
		Mean: make(Histogram, years+1),
		Max:  make(Histogram, years+1),
	}
}

func (h *IntervalHistograms) add(lo, mean, hi float64) {
	h.Min.add(lo)
	h.Mean.add(mean)
	h.Max.add(hi)
}

func (h Histogram) add(v float64) {
	i := int(v)
	if i < 0 {
		i = 0
	}
	if i >= len(h) {
		i = len(h) - 1
	}
	h[i]++
}

func (h Histogram) merge(o Histogram) {
	for i := range o {
		h[i] += o[i]
	}
}

// Summary describes a completed run.
type Summary struct {
	RunID         string             `json:"run_id"`
	InputDir      string             `json:"input_dir"`
	OutputDir     string             `json:"output_dir"`
	Width         int                `json:"width"`
	Height        int                `json:"height"`
	Labels        []string           `json:"labels"`
	BurnedPerYear []int              `json:"burned_per_year"` // parallel to Labels
	MissingYears  []int              `json:"missing_years,omitempty"`
	Denominator   int                `json:"denominator"`
	EverBurned    int                `json:"ever_burned"`
	WithIntervals int                `json:"with_intervals"`
	MeanFRI       float64            `json:"mean_fri"`   // over ever-burned pixels
	MedianFRI     float64            `json:"median_fri"` // over ever-burned pixels
	Intervals     IntervalHistograms `json:"intervals"`
	Outputs       []string           `json:"outputs"`
	Options       Options            `json:"options"`
	Started       time.Time          `json:"started"`
	Duration      time.Duration      `json:"duration"`
}

// Inputs returns the number of yearly rasters processed.
func (s *Summary) Inputs() int {
	return len(s.Labels)
}

// WithoutIntervals returns the ever-burned pixels whose metrics are zero
// because no unburnt run qualified.
func (s *Summary) WithoutIntervals() int {
	return s.EverBurned - s.WithIntervals
}

func newSummary(series raster.Series, grid raster.Grid, denom int, tiles []*tileResult) *Summary {
	s := &Summary{
		RunID:         uuid.New().String(),
		Width:         grid.Width,
		Height:        grid.Height,
		Labels:        series.Labels(),
		BurnedPerYear: make([]int, len(series)),
		MissingYears:  series.MissingYears(),
		Denominator:   denom,
		Intervals:     newIntervalHistograms(len(series)),
	}

	var fri []float64
	for _, t := range tiles {
		for y, c := range t.burnedPerYear {
			s.BurnedPerYear[y] += c
		}
		s.EverBurned += len(t.index)
		s.WithIntervals += t.withIntervals
		fri = append(fri, t.fri...)
		s.Intervals.Min.merge(t.hist.Min)
		s.Intervals.Mean.merge(t.hist.Mean)
		s.Intervals.Max.merge(t.hist.Max)
	}

	if len(fri) > 0 {
		s.MeanFRI = stat.Mean(fri, nil)
		sort.Float64s(fri)
		s.MedianFRI = stat.Quantile(0.5, stat.Empirical, fri, nil)
	}
	return s
}
