package fireregime

import (
	"github.com/banshee-data/firemap/internal/config"
	"github.com/banshee-data/firemap/internal/raster"
)

// Options control a Processor run.
type Options struct {
	Pattern         string          `json:"input_pattern"` // input glob, used by Run
	Encoding        raster.Encoding `json:"encoding"`
	ExcludeBoundary bool            `json:"exclude_boundary"` // drop leading and trailing unburnt runs
	Denominator     string          `json:"fri_denominator"`  // config.DenominatorFiles or config.DenominatorSpan
	MeanRounding    string          `json:"mean_rounding"`    // config.RoundingTruncate or config.RoundingRound
	TileRows        int             `json:"tile_rows"`        // 0 processes the grid as one tile
	Workers         int             `json:"workers"`
	PixelBatch      int             `json:"pixel_batch"`
	NoData          *float64        `json:"nodata,omitempty"` // overrides each input's GDAL_NODATA when set
}

// DefaultOptions returns the options of an empty configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.EmptyRegimeConfig())
}

// OptionsFromConfig maps a validated configuration onto Options.
func OptionsFromConfig(cfg *config.RegimeConfig) Options {
	opts := Options{
		Pattern: cfg.GetInputPattern(),
		Encoding: raster.Encoding{
			Level:        cfg.GetCompressionLevel(),
			Predictor:    cfg.GetPredictor(),
			RowsPerStrip: cfg.GetRowsPerStrip(),
		},
		ExcludeBoundary: cfg.GetBoundaryRuns() == config.BoundaryExclude,
		Denominator:     cfg.GetFRIDenominator(),
		MeanRounding:    cfg.GetMeanRounding(),
		TileRows:        cfg.GetTileRows(),
		Workers:         cfg.GetWorkers(),
		PixelBatch:      cfg.GetPixelBatch(),
	}
	if v, ok := cfg.GetNoData(); ok {
		opts.NoData = &v
	}
	return opts
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

func (o Options) pixelBatch() int {
	if o.PixelBatch < 1 {
		return 4096
	}
	return o.PixelBatch
}
