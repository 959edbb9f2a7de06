package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical regime defaults file.
const DefaultConfigPath = "config/regime.defaults.json"

// Accepted values for the enumerated options.
const (
	BoundaryInclude = "include"
	BoundaryExclude = "exclude"

	DenominatorFiles = "files"
	DenominatorSpan  = "span"

	RoundingTruncate = "truncate"
	RoundingRound    = "round"
)

// RegimeConfig holds the options of a fire-regime run. Every field is a
// pointer so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for the rest.
type RegimeConfig struct {
	// Input discovery
	InputPattern *string `json:"input_pattern,omitempty"` // glob relative to the input dir

	// Output encoding
	CompressionLevel *int `json:"compression_level,omitempty"` // deflate level 0-9
	Predictor        *int `json:"predictor,omitempty"`         // 1 = none, 2 = horizontal (integer outputs only)
	RowsPerStrip     *int `json:"rows_per_strip,omitempty"`

	// Input interpretation
	NoData *float64 `json:"nodata,omitempty"` // input value treated as unburnt; overrides GDAL_NODATA

	// Metric semantics
	BoundaryRuns   *string `json:"boundary_runs,omitempty"`   // "include" or "exclude"
	FRIDenominator *string `json:"fri_denominator,omitempty"` // "files" or "span"
	MeanRounding   *string `json:"mean_rounding,omitempty"`   // "truncate" or "round"

	// Execution
	// TileRows bounds the rows held per tile; 0 processes the grid as one
	// tile. It is rounded up to whole input strips, and every tile decodes
	// its strips twice (once per stage).
	TileRows         *int    `json:"tile_rows,omitempty"`
	Workers          *int    `json:"workers,omitempty"`
	PixelBatch       *int    `json:"pixel_batch,omitempty"`
	ProgressInterval *string `json:"progress_interval,omitempty"` // duration string like "2s"
}

func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyRegimeConfig returns a RegimeConfig with all fields set to nil.
func EmptyRegimeConfig() *RegimeConfig {
	return &RegimeConfig{}
}

// DefaultRegimeConfig returns a RegimeConfig with every field populated from
// the built-in defaults.
func DefaultRegimeConfig() *RegimeConfig {
	c := EmptyRegimeConfig()
	return &RegimeConfig{
		InputPattern:     ptrString(c.GetInputPattern()),
		CompressionLevel: ptrInt(c.GetCompressionLevel()),
		Predictor:        ptrInt(c.GetPredictor()),
		RowsPerStrip:     ptrInt(c.GetRowsPerStrip()),
		BoundaryRuns:     ptrString(c.GetBoundaryRuns()),
		FRIDenominator:   ptrString(c.GetFRIDenominator()),
		MeanRounding:     ptrString(c.GetMeanRounding()),
		TileRows:         ptrInt(c.GetTileRows()),
		Workers:          ptrInt(c.GetWorkers()),
		PixelBatch:       ptrInt(c.GetPixelBatch()),
		ProgressInterval: ptrString(c.GetProgressInterval().String()),
	}
}

// LoadRegimeConfig loads a RegimeConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file keep their defaults.
func LoadRegimeConfig(path string) (*RegimeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRegimeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *RegimeConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/firemap/
	}
	for _, path := range candidates {
		if cfg, err := LoadRegimeConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RegimeConfig) Validate() error {
	if c.CompressionLevel != nil {
		if *c.CompressionLevel < 0 || *c.CompressionLevel > 9 {
			return fmt.Errorf("compression_level must be between 0 and 9, got %d", *c.CompressionLevel)
		}
	}

	if c.Predictor != nil && *c.Predictor != 1 && *c.Predictor != 2 {
		return fmt.Errorf("predictor must be 1 or 2, got %d", *c.Predictor)
	}

	if c.RowsPerStrip != nil && *c.RowsPerStrip < 1 {
		return fmt.Errorf("rows_per_strip must be positive, got %d", *c.RowsPerStrip)
	}

	if c.BoundaryRuns != nil {
		switch *c.BoundaryRuns {
		case BoundaryInclude, BoundaryExclude:
		default:
			return fmt.Errorf("boundary_runs must be %q or %q, got %q", BoundaryInclude, BoundaryExclude, *c.BoundaryRuns)
		}
	}

	if c.FRIDenominator != nil {
		switch *c.FRIDenominator {
		case DenominatorFiles, DenominatorSpan:
		default:
			return fmt.Errorf("fri_denominator must be %q or %q, got %q", DenominatorFiles, DenominatorSpan, *c.FRIDenominator)
		}
	}

	if c.MeanRounding != nil {
		switch *c.MeanRounding {
		case RoundingTruncate, RoundingRound:
		default:
			return fmt.Errorf("mean_rounding must be %q or %q, got %q", RoundingTruncate, RoundingRound, *c.MeanRounding)
		}
	}

	if c.TileRows != nil && *c.TileRows < 0 {
		return fmt.Errorf("tile_rows must be non-negative, got %d", *c.TileRows)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.PixelBatch != nil && *c.PixelBatch < 1 {
		return fmt.Errorf("pixel_batch must be positive, got %d", *c.PixelBatch)
	}

	if c.NoData != nil && (math.IsNaN(*c.NoData) || math.IsInf(*c.NoData, 0)) {
		return fmt.Errorf("nodata must be finite, got %v", *c.NoData)
	}

	if c.ProgressInterval != nil && *c.ProgressInterval != "" {
		if _, err := time.ParseDuration(*c.ProgressInterval); err != nil {
			return fmt.Errorf("invalid progress_interval '%s': %w", *c.ProgressInterval, err)
		}
	}

	return nil
}

// GetInputPattern returns the input_pattern value or the default.
func (c *RegimeConfig) GetInputPattern() string {
	if c.InputPattern == nil || *c.InputPattern == "" {
		return "*.tif"
	}
	return *c.InputPattern
}

// GetCompressionLevel returns the compression_level value or the default.
func (c *RegimeConfig) GetCompressionLevel() int {
	if c.CompressionLevel == nil {
		return 9
	}
	return *c.CompressionLevel
}

// GetPredictor returns the predictor value or the default.
func (c *RegimeConfig) GetPredictor() int {
	if c.Predictor == nil {
		return 2
	}
	return *c.Predictor
}

// GetRowsPerStrip returns the rows_per_strip value or the default.
func (c *RegimeConfig) GetRowsPerStrip() int {
	if c.RowsPerStrip == nil {
		return 64
	}
	return *c.RowsPerStrip
}

// GetBoundaryRuns returns the boundary_runs value or the default.
func (c *RegimeConfig) GetBoundaryRuns() string {
	if c.BoundaryRuns == nil {
		return BoundaryInclude
	}
	return *c.BoundaryRuns
}

// GetFRIDenominator returns the fri_denominator value or the default.
func (c *RegimeConfig) GetFRIDenominator() string {
	if c.FRIDenominator == nil {
		return DenominatorFiles
	}
	return *c.FRIDenominator
}

// GetMeanRounding returns the mean_rounding value or the default.
func (c *RegimeConfig) GetMeanRounding() string {
	if c.MeanRounding == nil {
		return RoundingTruncate
	}
	return *c.MeanRounding
}

// GetTileRows returns the tile_rows value or the default.
func (c *RegimeConfig) GetTileRows() int {
	if c.TileRows == nil {
		return 0
	}
	return *c.TileRows
}

// GetWorkers returns the workers value or the default.
func (c *RegimeConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetPixelBatch returns the pixel_batch value or the default.
func (c *RegimeConfig) GetPixelBatch() int {
	if c.PixelBatch == nil {
		return 4096
	}
	return *c.PixelBatch
}

// GetNoData returns the configured nodata value. The second result is false
// when none is set, in which case each input's own GDAL_NODATA tag applies.
func (c *RegimeConfig) GetNoData() (float64, bool) {
	if c.NoData == nil {
		return 0, false
	}
	return *c.NoData, true
}

// GetProgressInterval parses and returns ProgressInterval as a time.Duration.
func (c *RegimeConfig) GetProgressInterval() time.Duration {
	if c.ProgressInterval == nil || *c.ProgressInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.ProgressInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}
