package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/firemap/internal/fireregime"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// Interval metric names stored in regime_run_intervals.
const (
	MetricMin  = "min"
	MetricMean = "mean"
	MetricMax  = "max"
)

// RunRecord is one stored run.
type RunRecord struct {
	ID            string          `json:"run_id"`
	InputDir      string          `json:"input_dir"`
	OutputDir     string          `json:"output_dir"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	YearCount     int             `json:"year_count"`
	FirstLabel    string          `json:"first_label"`
	LastLabel     string          `json:"last_label"`
	Denominator   int             `json:"denominator"`
	EverBurned    int             `json:"ever_burned"`
	WithIntervals int             `json:"with_intervals"`
	MeanFRI       float64         `json:"mean_fri"`
	MedianFRI     float64         `json:"median_fri"`
	MissingYears  []int           `json:"missing_years,omitempty"`
	Params        json.RawMessage `json:"params"`
	Started       time.Time       `json:"started"`
	Duration      time.Duration   `json:"duration"`

	// Populated by Get only.
	Years     []YearCount     `json:"years,omitempty"`
	Intervals []IntervalCount `json:"intervals,omitempty"`
}

// YearCount is the number of burned pixels of one input.
type YearCount struct {
	Label        string `json:"label"`
	BurnedPixels int    `json:"burned_pixels"`
}

// IntervalCount is one non-empty histogram bin.
type IntervalCount struct {
	Metric string `json:"metric"`
	Years  int    `json:"years"`
	Pixels int    `json:"pixels"`
}

// RecordFromSummary converts a run summary into a storable record.
func RecordFromSummary(sum *fireregime.Summary) (*RunRecord, error) {
	params, err := json.Marshal(sum.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run options: %w", err)
	}
	rec := &RunRecord{
		ID:            sum.RunID,
		InputDir:      sum.InputDir,
		OutputDir:     sum.OutputDir,
		Width:         sum.Width,
		Height:        sum.Height,
		YearCount:     sum.Inputs(),
		Denominator:   sum.Denominator,
		EverBurned:    sum.EverBurned,
		WithIntervals: sum.WithIntervals,
		MeanFRI:       sum.MeanFRI,
		MedianFRI:     sum.MedianFRI,
		MissingYears:  sum.MissingYears,
		Params:        params,
		Started:       sum.Started,
		Duration:      sum.Duration,
	}
	if n := len(sum.Labels); n > 0 {
		rec.FirstLabel, rec.LastLabel = sum.Labels[0], sum.Labels[n-1]
	}
	for i, label := range sum.Labels {
		rec.Years = append(rec.Years, YearCount{Label: label, BurnedPixels: sum.BurnedPerYear[i]})
	}
	for _, h := range []struct {
		metric string
		hist   fireregime.Histogram
	}{
		{MetricMin, sum.Intervals.Min},
		{MetricMean, sum.Intervals.Mean},
		{MetricMax, sum.Intervals.Max},
	} {
		for years, pixels := range h.hist {
			if pixels > 0 {
				rec.Intervals = append(rec.Intervals, IntervalCount{Metric: h.metric, Years: years, Pixels: pixels})
			}
		}
	}
	return rec, nil
}

// RunStore persists run records.
type RunStore struct {
	db *DB
}

// NewRunStore returns a RunStore on a migrated database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Insert stores rec with its per-year counts and histogram bins in one
// transaction.
func (s *RunStore) Insert(rec *RunRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO regime_runs (
			run_id, input_dir, output_dir, width, height, year_count,
			first_label, last_label, denominator, ever_burned, with_intervals,
			mean_fri, median_fri, missing_years, params_json, started_unix, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.InputDir, rec.OutputDir, rec.Width, rec.Height, rec.YearCount,
		rec.FirstLabel, rec.LastLabel, rec.Denominator, rec.EverBurned, rec.WithIntervals,
		rec.MeanFRI, rec.MedianFRI, joinYears(rec.MissingYears), string(rec.Params),
		unixSeconds(rec.Started), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.ID, err)
	}

	for i, y := range rec.Years {
		if _, err := tx.Exec(
			`INSERT INTO regime_run_years (run_id, position, label, burned_pixels) VALUES (?, ?, ?, ?)`,
			rec.ID, i, y.Label, y.BurnedPixels,
		); err != nil {
			return fmt.Errorf("failed to insert year %s: %w", y.Label, err)
		}
	}
	for _, iv := range rec.Intervals {
		if _, err := tx.Exec(
			`INSERT INTO regime_run_intervals (run_id, metric, years, pixels) VALUES (?, ?, ?, ?)`,
			rec.ID, iv.Metric, iv.Years, iv.Pixels,
		); err != nil {
			return fmt.Errorf("failed to insert %s interval bin %d: %w", iv.Metric, iv.Years, err)
		}
	}

	return tx.Commit()
}

const runColumns = `run_id, input_dir, output_dir, width, height, year_count,
	first_label, last_label, denominator, ever_burned, with_intervals,
	mean_fri, median_fri, missing_years, params_json, started_unix, duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		missing    string
		params     string
		started    float64
		durationMs int64
	)
	if err := row.Scan(
		&rec.ID, &rec.InputDir, &rec.OutputDir, &rec.Width, &rec.Height, &rec.YearCount,
		&rec.FirstLabel, &rec.LastLabel, &rec.Denominator, &rec.EverBurned, &rec.WithIntervals,
		&rec.MeanFRI, &rec.MedianFRI, &missing, &params, &started, &durationMs,
	); err != nil {
		return nil, err
	}
	years, err := splitYears(missing)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad missing_years %q: %w", rec.ID, missing, err)
	}
	rec.MissingYears = years
	rec.Params = json.RawMessage(params)
	rec.Started = fromUnixSeconds(started)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return &rec, nil
}

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *RunStore) List(limit int) ([]*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM regime_runs ORDER BY started_unix DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the run with the given id including its per-year counts and
// histogram bins.
func (s *RunStore) Get(id string) (*RunRecord, error) {
	rec, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM regime_runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT label, burned_pixels FROM regime_run_years WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get years of run %s: %w", id, err)
	}
	for rows.Next() {
		var y YearCount
		if err := rows.Scan(&y.Label, &y.BurnedPixels); err != nil {
			rows.Close()
			return nil, err
		}
		rec.Years = append(rec.Years, y)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(`
		SELECT metric, years, pixels FROM regime_run_intervals
		WHERE run_id = ?
		ORDER BY CASE metric WHEN 'min' THEN 0 WHEN 'mean' THEN 1 ELSE 2 END, years`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get intervals of run %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var iv IntervalCount
		if err := rows.Scan(&iv.Metric, &iv.Years, &iv.Pixels); err != nil {
			return nil, err
		}
		rec.Intervals = append(rec.Intervals, iv)
	}
	return rec, rows.Err()
}

// Delete removes a run and its child rows.
func (s *RunStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM regime_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

func fromUnixSeconds(s float64) time.Time {
	if s == 0 {
		return time.Time{}
	}
	sec := int64(s)
	return time.Unix(sec, int64((s-float64(sec))*1e9)).UTC()
}

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}

func splitYears(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}
