package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/firemap/internal/db"
)

func handleRuns(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "", "SQLite run history database (required)")
	jsonOut := fs.Bool("json", false, "Print JSON instead of a table")
	limit := fs.Int("limit", 0, "Show at most this many runs (0 for all)")
	del := fs.String("delete", "", "Delete the run with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return fmt.Errorf("%w: -db is required", errUsage)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open run database: %w", err)
	}
	defer database.Close()
	store := db.NewRunStore(database)

	switch {
	case *del != "":
		if err := store.Delete(*del); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted run %s\n", *del)
		return nil

	case fs.NArg() > 0:
		rec, err := store.Get(fs.Arg(0))
		if err != nil {
			return err
		}
		if *jsonOut {
			return writeJSON(stdout, rec)
		}
		printRun(stdout, rec)
		return nil
	}

	recs, err := store.List(*limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		if recs == nil {
			recs = []*db.RunRecord{}
		}
		return writeJSON(stdout, recs)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tYEARS\tRANGE\tEVER BURNED\tMEAN FRI\tOUTPUT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s..%s\t%d\t%.4f\t%s\n",
			r.ID, r.Started.Format(time.RFC3339), r.YearCount, r.FirstLabel, r.LastLabel,
			r.EverBurned, r.MeanFRI, r.OutputDir)
	}
	return tw.Flush()
}

func printRun(w io.Writer, r *db.RunRecord) {
	fmt.Fprintf(w, "Run %s\n", r.ID)
	fmt.Fprintf(w, "  input:   %s\n  output:  %s\n", r.InputDir, r.OutputDir)
	fmt.Fprintf(w, "  started: %s (%s)\n", r.Started.Format(time.RFC3339), r.Duration)
	fmt.Fprintf(w, "  grid:    %d x %d, %d inputs, denominator %d\n", r.Width, r.Height, r.YearCount, r.Denominator)
	fmt.Fprintf(w, "  burned:  %d ever, %d with intervals, mean FRI %.4f\n", r.EverBurned, r.WithIntervals, r.MeanFRI)
	for _, y := range r.Years {
		fmt.Fprintf(w, "    %-20s %d\n", y.Label, y.BurnedPixels)
	}
	fmt.Fprintf(w, "  params:  %s\n", r.Params)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func handleMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stdout)
	dbPath := fs.String("db", "", "SQLite run history database (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return fmt.Errorf("%w: -db is required", errUsage)
	}
	return db.RunMigrateCommand(fs.Args(), *dbPath, stdout)
}
