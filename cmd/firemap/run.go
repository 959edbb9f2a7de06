package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/banshee-data/firemap/internal/config"
	"github.com/banshee-data/firemap/internal/db"
	"github.com/banshee-data/firemap/internal/fireregime"
	"github.com/banshee-data/firemap/internal/monitoring"
	"github.com/banshee-data/firemap/internal/raster"
	"github.com/banshee-data/firemap/internal/report"
	"github.com/banshee-data/firemap/internal/version"
)

func versionString() string {
	return version.String()
}

// runFlags are the options of the run subcommand.
type runFlags struct {
	input, output string
	configPath    string
	pattern       string
	dbPath        string
	reportDir     string
	workers       int
	tileRows      int
	quiet         bool
	jsonOut       bool
}

func parseRunFlags(args []string, out io.Writer) (*runFlags, *config.RegimeConfig, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(out)
	f := &runFlags{}
	fs.StringVar(&f.input, "input", "", "Directory of yearly rasters (required)")
	fs.StringVar(&f.output, "output", "", "Directory for the result rasters (required)")
	fs.StringVar(&f.configPath, "config", "", "JSON regime configuration file")
	fs.StringVar(&f.pattern, "pattern", "", "Glob selecting input files (overrides config)")
	fs.StringVar(&f.dbPath, "db", "", "SQLite database recording the run")
	fs.StringVar(&f.reportDir, "report", "", "Directory for PNG and HTML charts")
	fs.IntVar(&f.workers, "workers", 0, "Tiles processed concurrently (overrides config)")
	fs.IntVar(&f.tileRows, "tile-rows", 0, "Rows per tile, 0 for a single tile (overrides config)")
	fs.BoolVar(&f.quiet, "quiet", false, "Suppress progress logging")
	fs.BoolVar(&f.jsonOut, "json", false, "Print the run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if f.input == "" || f.output == "" {
		fs.Usage()
		return nil, nil, fmt.Errorf("%w: -input and -output are required", errUsage)
	}

	cfg := config.EmptyRegimeConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadRegimeConfig(f.configPath); err != nil {
			return nil, nil, err
		}
	}
	// Flags given explicitly override the file.
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pattern":
			cfg.InputPattern = &f.pattern
		case "workers":
			cfg.Workers = &f.workers
		case "tile-rows":
			cfg.TileRows = &f.tileRows
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return f, cfg, nil
}

func handleRun(ctx context.Context, args []string, stdout io.Writer) error {
	f, cfg, err := parseRunFlags(args, stdout)
	if err != nil {
		return err
	}

	var obs fireregime.Observer = fireregime.NopObserver{}
	if !f.quiet {
		obs = monitoring.NewProgressLogger(cfg.GetProgressInterval())
	}

	proc := fireregime.NewProcessor(raster.NewStore(nil), fireregime.OptionsFromConfig(cfg), obs)
	sum, err := proc.Run(ctx, f.input, f.output)
	if err != nil {
		return err
	}

	if f.reportDir != "" {
		paths, err := report.NewWriter(nil).Write(f.reportDir, sum)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		for _, p := range paths {
			log.Printf("wrote report %s", p)
		}
	}

	if f.dbPath != "" {
		if err := recordRun(f.dbPath, sum); err != nil {
			return err
		}
	}

	if f.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	printSummary(stdout, sum)
	return nil
}

func recordRun(path string, sum *fireregime.Summary) error {
	database, err := db.NewDB(path)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}
	defer database.Close()

	rec, err := db.RecordFromSummary(sum)
	if err != nil {
		return err
	}
	if err := db.NewRunStore(database).Insert(rec); err != nil {
		return err
	}
	log.Printf("recorded run %s in %s", sum.RunID, path)
	return nil
}

func printSummary(w io.Writer, sum *fireregime.Summary) {
	fmt.Fprintf(w, "Run %s\n", sum.RunID)
	fmt.Fprintf(w, "  inputs:          %d (%s .. %s)\n", sum.Inputs(), sum.Labels[0], sum.Labels[len(sum.Labels)-1])
	fmt.Fprintf(w, "  grid:            %d x %d\n", sum.Width, sum.Height)
	fmt.Fprintf(w, "  FRI denominator: %d\n", sum.Denominator)
	if len(sum.MissingYears) > 0 {
		fmt.Fprintf(w, "  missing years:   %v\n", sum.MissingYears)
	}
	fmt.Fprintf(w, "  ever burned:     %d pixels (%d with intervals)\n", sum.EverBurned, sum.WithIntervals)
	fmt.Fprintf(w, "  FRI mean/median: %.4f / %.4f\n", sum.MeanFRI, sum.MedianFRI)
	fmt.Fprintf(w, "  duration:        %s\n", sum.Duration.Round(time.Millisecond))
	for _, p := range sum.Outputs {
		fmt.Fprintf(w, "  wrote %s\n", p)
	}
}
