// Command firemap derives fire-regime statistics from a directory of yearly
// burned-area GeoTIFFs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/firemap/internal/fireregime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Printf("%s: %v", errorClass(err), err)
		os.Exit(1)
	}
}

// run dispatches a subcommand. Output meant for the user goes to stdout;
// diagnostics go through the log package.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "run":
		return handleRun(ctx, rest, stdout)
	case "runs":
		return handleRuns(rest, stdout)
	case "migrate":
		return handleMigrate(rest, stdout)
	case "version":
		fmt.Fprintln(stdout, versionString())
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n\n", command)
		printUsage(stdout)
		return errUsage
	}
}

var errUsage = errors.New("invalid usage")

// errorClass names the failure category for the exit message.
func errorClass(err error) string {
	var (
		inErr  *fireregime.InputError
		encErr *fireregime.EncodingError
		outErr *fireregime.OutputError
	)
	switch {
	case errors.As(err, &inErr):
		return "InputError"
	case errors.As(err, &encErr):
		return "EncodingError"
	case errors.As(err, &outErr):
		return "OutputError"
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	case errors.Is(err, errUsage):
		return "UsageError"
	}
	return "Error"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `firemap - fire-regime statistics from yearly burned-area rasters

Usage: firemap <command> [options]

Commands:
  run        Compute FRI and inter-fire interval rasters for a series
  runs       List, show or delete recorded runs
  migrate    Manage the run history database schema
  version    Show the firemap version
  help       Show this help message

Examples:
  firemap run -input ./burned -output ./regime
  firemap run -input ./burned -output ./regime -config regime.json -db runs.db -report ./charts
  firemap runs -db runs.db
  firemap runs -db runs.db -json <run-id>
  firemap migrate -db runs.db up`)
}
