package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/firemap/internal/db"
	"github.com/banshee-data/firemap/internal/fireregime"
	"github.com/banshee-data/firemap/internal/monitoring"
	"github.com/banshee-data/firemap/internal/report"
	"github.com/banshee-data/firemap/internal/testutil"
)

func quietLogs(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(nil) })
}

func writeSeries(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "in")
	testutil.Series{
		Width: 2, Height: 2,
		Years:  []int{2001, 2002, 2003, 2004, 2005},
		Burned: [][]int{{0}, {1}, {0, 1}, {}, {0}},
	}.WriteDir(t, dir)
	return dir
}

func TestRun_NoArgs(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), nil, &out)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out.String(), "Usage: firemap <command>")
}

func TestRun_UnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"bogus"}, &out)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out.String(), "Unknown command: bogus")
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "firemap "))
}

func TestRun_RequiresInputAndOutput(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"run", "-input", "x"}, &out)
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, "UsageError", errorClass(err))
}

func TestRun_InvalidConfigOverride(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"run", "-input", "a", "-output", "b", "-workers", "-3"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRun_EndToEnd(t *testing.T) {
	quietLogs(t)
	in := writeSeries(t)
	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	reportDir := filepath.Join(root, "report")
	dbPath := filepath.Join(root, "runs.db")

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"run", "-input", in, "-output", outDir,
		"-db", dbPath, "-report", reportDir, "-quiet", "-json",
	}, &out)
	require.NoError(t, err)

	var sum fireregime.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, 5, sum.Inputs())
	assert.Equal(t, 2, sum.EverBurned)

	for _, name := range fireregime.OutputFiles {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	for _, name := range []string{report.BurnedPlotFile, report.IntervalsPlotFile, report.PageFile} {
		_, err := os.Stat(filepath.Join(reportDir, name))
		assert.NoError(t, err, name)
	}

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"runs", "-db", dbPath, "-json"}, &out))
	var recs []db.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, sum.RunID, recs[0].ID)

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"runs", "-db", dbPath, sum.RunID}, &out))
	assert.Contains(t, out.String(), "Run "+sum.RunID)
	assert.Contains(t, out.String(), "2003")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"runs", "-db", dbPath, "-delete", sum.RunID}, &out))
	err = run(context.Background(), []string{"runs", "-db", dbPath, sum.RunID}, &out)
	assert.ErrorIs(t, err, db.ErrRunNotFound)
}

func TestRun_TextSummary(t *testing.T) {
	quietLogs(t)
	in := writeSeries(t)
	outDir := filepath.Join(t.TempDir(), "out")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"run", "-input", in, "-output", outDir, "-quiet"}, &out))
	assert.Contains(t, out.String(), "FRI denominator: 5")
	assert.Contains(t, out.String(), "ever burned:     2 pixels")
}

func TestRun_InputErrorClass(t *testing.T) {
	quietLogs(t)
	var out bytes.Buffer
	empty := t.TempDir()
	err := run(context.Background(), []string{"run", "-input", empty, "-output", filepath.Join(empty, "out"), "-quiet"}, &out)
	var inErr *fireregime.InputError
	require.True(t, errors.As(err, &inErr), "got %v", err)
	assert.Equal(t, "InputError", errorClass(err))
}

func TestRun_Cancelled(t *testing.T) {
	quietLogs(t)
	in := writeSeries(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := run(ctx, []string{"run", "-input", in, "-output", filepath.Join(t.TempDir(), "out"), "-quiet"}, &out)
	require.Error(t, err)
	assert.Equal(t, "Interrupted", errorClass(err))
}

func TestMigrate(t *testing.T) {
	quietLogs(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"migrate", "-db", dbPath, "up"}, &out))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"migrate", "-db", dbPath, "status"}, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	err := run(context.Background(), []string{"migrate"}, &out)
	assert.ErrorIs(t, err, errUsage)
}
