package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/firemap/internal/fireregime"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestPragmasApplied(t *testing.T) {
	database := newTestDB(t)

	var journalMode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout, synchronous, tempStore, foreignKeys int
	require.NoError(t, database.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.NoError(t, database.QueryRow("PRAGMA synchronous").Scan(&synchronous))
	require.NoError(t, database.QueryRow("PRAGMA temp_store").Scan(&tempStore))
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 5000, busyTimeout)
	assert.Equal(t, 1, synchronous) // NORMAL
	assert.Equal(t, 2, tempStore)   // MEMORY
	assert.Equal(t, 1, foreignKeys)
}

func TestMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	database, err := OpenDB(path)
	require.NoError(t, err)
	defer database.Close()
	migrations := MigrationsFS()

	v, dirty, err := database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
	assert.False(t, dirty)

	latest, err := LatestMigrationVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)

	require.NoError(t, database.MigrateUp(migrations))
	v, _, err = database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, latest, v)

	// Already current.
	require.NoError(t, database.MigrateUp(migrations))

	require.NoError(t, database.MigrateDown(migrations))
	v, _, err = database.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	var column int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('regime_runs') WHERE name = 'missing_years'`).Scan(&column))
	assert.Equal(t, 0, column)

	require.NoError(t, database.MigrateTo(migrations, 2))
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('regime_runs') WHERE name = 'missing_years'`).Scan(&column))
	assert.Equal(t, 1, column)
}

func testSummary() *fireregime.Summary {
	return &fireregime.Summary{
		RunID:         "3f1c2d1e-0000-4000-8000-000000000001",
		InputDir:      "/data/in",
		OutputDir:     "/data/out",
		Width:         10,
		Height:        8,
		Labels:        []string{"burned_2001", "burned_2002", "burned_2004"},
		BurnedPerYear: []int{4, 0, 7},
		MissingYears:  []int{2003},
		Denominator:   3,
		EverBurned:    9,
		WithIntervals: 5,
		MeanFRI:       0.41,
		MedianFRI:     1.0 / 3.0,
		Intervals: fireregime.IntervalHistograms{
			Min:  fireregime.Histogram{0, 3, 2, 0},
			Mean: fireregime.Histogram{0, 4, 1, 0},
			Max:  fireregime.Histogram{0, 1, 4, 0},
		},
		Options:  fireregime.DefaultOptions(),
		Started:  time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC),
		Duration: 1500 * time.Millisecond,
	}
}

func TestRecordFromSummary(t *testing.T) {
	rec, err := RecordFromSummary(testSummary())
	require.NoError(t, err)

	assert.Equal(t, 3, rec.YearCount)
	assert.Equal(t, "burned_2001", rec.FirstLabel)
	assert.Equal(t, "burned_2004", rec.LastLabel)
	assert.Equal(t, []YearCount{{"burned_2001", 4}, {"burned_2002", 0}, {"burned_2004", 7}}, rec.Years)
	assert.Equal(t, []IntervalCount{
		{MetricMin, 1, 3}, {MetricMin, 2, 2},
		{MetricMean, 1, 4}, {MetricMean, 2, 1},
		{MetricMax, 1, 1}, {MetricMax, 2, 4},
	}, rec.Intervals)

	var params map[string]any
	require.NoError(t, json.Unmarshal(rec.Params, &params))
	assert.Equal(t, "files", params["fri_denominator"])
}

func TestRunStore(t *testing.T) {
	store := NewRunStore(newTestDB(t))

	first, err := RecordFromSummary(testSummary())
	require.NoError(t, err)
	require.NoError(t, store.Insert(first))

	second := *first
	second.ID = "3f1c2d1e-0000-4000-8000-000000000002"
	second.Started = first.Started.Add(time.Hour)
	second.MissingYears = nil
	second.Years = nil
	second.Intervals = nil
	require.NoError(t, store.Insert(&second))

	// Duplicate ids are rejected and leave no partial rows.
	assert.Error(t, store.Insert(first))

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Empty(t, runs[1].Years, "List does not load child rows")

	limited, err := store.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	got, err := store.Get(first.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, store.Delete(first.ID))
	_, err = store.Get(first.ID)
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.ErrorIs(t, store.Delete(first.ID), ErrRunNotFound)

	var orphans int
	require.NoError(t, store.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM regime_run_years) + (SELECT COUNT(*) FROM regime_run_intervals)`).Scan(&orphans))
	assert.Equal(t, 0, orphans)
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "1"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"status"}, path, &out))
	assert.Contains(t, out.String(), "latest 2")

	assert.ErrorIs(t, RunMigrateCommand(nil, path, &out), ErrUsage)
	assert.ErrorIs(t, RunMigrateCommand([]string{"sideways"}, path, &out), ErrUsage)
	assert.ErrorIs(t, RunMigrateCommand([]string{"force"}, path, &out), ErrUsage)
	assert.ErrorIs(t, RunMigrateCommand([]string{"version", "x"}, path, &out), ErrUsage)

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Usage: firemap migrate"))
}
