package db

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
)

// ErrUsage is returned for an unknown or incomplete migrate action.
var ErrUsage = errors.New("invalid migrate usage")

// RunMigrateCommand handles the 'migrate' subcommand. Status lines go to out.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return ErrUsage
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()
	migrations := MigrationsFS()

	switch action := args[0]; action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		return printVersion(out, database, migrations)

	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		return printVersion(out, database, migrations)

	case "status", "version":
		if action == "version" && len(args) > 1 {
			target, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: invalid version number %q", ErrUsage, args[1])
			}
			if err := database.MigrateTo(migrations, uint(target)); err != nil {
				return err
			}
		}
		return printVersion(out, database, migrations)

	case "force":
		if len(args) < 2 {
			return fmt.Errorf("%w: force needs a version number", ErrUsage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: invalid version number %q", ErrUsage, args[1])
		}
		if err := database.MigrateForce(migrations, v); err != nil {
			return err
		}
		return printVersion(out, database, migrations)

	case "help":
		PrintMigrateHelp(out)
		return nil

	default:
		fmt.Fprintf(out, "Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp(out)
		return ErrUsage
	}
}

func printVersion(out io.Writer, database *DB, migrations fs.FS) error {
	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	latest, err := LatestMigrationVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Current version: %d (latest %d, dirty: %v)\n", version, latest, dirty)
	if dirty {
		fmt.Fprintln(out, "Database is in a dirty state: inspect it, then run 'firemap migrate force <version>'.")
	}
	return nil
}

// PrintMigrateHelp writes the help message for the migrate command.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: firemap migrate -db <path> <command>")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  up            Apply all pending migrations")
	fmt.Fprintln(out, "  down          Roll back one migration")
	fmt.Fprintln(out, "  status        Show the current schema version")
	fmt.Fprintln(out, "  version [N]   Show the version, or migrate up or down to version N")
	fmt.Fprintln(out, "  force <N>     Record version N without running migrations (recovery only)")
	fmt.Fprintln(out, "  help          Show this help message")
}
