package fireregime

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/firemap/internal/config"
)

// PixelMetrics are the statistics of one ever-burned pixel. Intervals are
// in years; Mean is unrounded.
type PixelMetrics struct {
	FRI         float64
	Min         float64
	Mean        float64
	Max         float64
	HasInterval bool // false when the pixel has no qualifying unburnt run
}

// UnburntIntervals returns the lengths of the zero-valued runs. With
// excludeBoundary a leading and a trailing zero run are dropped, since the
// fire that opens or closes them lies outside the record.
func UnburntIntervals(runs []Run, excludeBoundary bool) []float64 {
	if excludeBoundary {
		if len(runs) > 0 && runs[0].Value == 0 {
			runs = runs[1:]
		}
		if n := len(runs); n > 0 && runs[n-1].Value == 0 {
			runs = runs[:n-1]
		}
	}
	var out []float64
	for _, r := range runs {
		if r.Value == 0 {
			out = append(out, float64(r.Length))
		}
	}
	return out
}

// ReduceIntervals returns the minimum, mean and maximum of intervals. An
// empty slice reduces to zeros with ok false.
func ReduceIntervals(intervals []float64) (lo, mean, hi float64, ok bool) {
	if len(intervals) == 0 {
		return 0, 0, 0, false
	}
	return floats.Min(intervals), stat.Mean(intervals, nil), floats.Max(intervals), true
}

// AnalyzeSequence computes the interval metrics of one yearly 0/1 sequence.
// FRI is left for the caller, which knows the run's denominator.
func AnalyzeSequence(seq []uint8, excludeBoundary bool) (PixelMetrics, error) {
	runs, err := EncodeRuns(seq)
	if err != nil {
		return PixelMetrics{}, err
	}
	return metricsFromRuns(runs, excludeBoundary), nil
}

func metricsFromRuns(runs []Run, excludeBoundary bool) PixelMetrics {
	lo, mean, hi, ok := ReduceIntervals(UnburntIntervals(runs, excludeBoundary))
	return PixelMetrics{Min: lo, Mean: mean, Max: hi, HasInterval: ok}
}

// roundMean converts a mean interval to whole years. "round" rounds half
// away from zero; anything else truncates.
func roundMean(mean float64, mode string) float64 {
	if mode == config.RoundingRound {
		return math.Round(mean)
	}
	return math.Trunc(mean)
}
