package raster

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/firemap/internal/fsutil"
)

// YearFile is one member of a yearly series.
type YearFile struct {
	Label   string // base name without extension
	Year    int    // first four-digit number in Label, when HasYear
	HasYear bool
	Path    string
}

// Series is a list of yearly rasters ordered by file name.
type Series []YearFile

var yearPattern = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)

// NewYearFile derives the label and year of path.
func NewYearFile(path string) YearFile {
	base := filepath.Base(path)
	label := strings.TrimSuffix(base, filepath.Ext(base))
	yf := YearFile{Label: label, Path: path}
	if m := yearPattern.FindStringSubmatch(label); m != nil {
		yf.Year, _ = strconv.Atoi(m[1])
		yf.HasYear = true
	}
	return yf
}

// ListSeries returns the files in dir matching pattern, sorted ascending by
// file name.
func ListSeries(fsys fsutil.FileSystem, dir, pattern string) (Series, error) {
	paths, err := fsys.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s in %s", ErrEmptySeries, pattern, dir)
	}
	return NewSeries(paths), nil
}

// NewSeries builds a series from explicit paths, sorted by base name.
func NewSeries(paths []string) Series {
	s := make(Series, len(paths))
	for i, p := range paths {
		s[i] = NewYearFile(p)
	}
	sort.SliceStable(s, func(i, j int) bool {
		return filepath.Base(s[i].Path) < filepath.Base(s[j].Path)
	})
	return s
}

// Labels returns the labels in series order.
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Label
	}
	return out
}

// Years returns the parsed years when every member has one and they are
// strictly ascending.
func (s Series) Years() ([]int, bool) {
	if len(s) == 0 {
		return nil, false
	}
	out := make([]int, len(s))
	for i, f := range s {
		if !f.HasYear || (i > 0 && f.Year <= out[i-1]) {
			return nil, false
		}
		out[i] = f.Year
	}
	return out, true
}

// Span returns the number of calendar years from the first to the last
// member, inclusive.
func (s Series) Span() (int, error) {
	years, ok := s.Years()
	if !ok {
		return 0, ErrYearLabels
	}
	return years[len(years)-1] - years[0] + 1, nil
}

// MissingYears lists calendar years inside the span with no file. It is
// empty when labels carry no years.
func (s Series) MissingYears() []int {
	years, ok := s.Years()
	if !ok {
		return nil
	}
	var missing []int
	for i := 1; i < len(years); i++ {
		for y := years[i-1] + 1; y < years[i]; y++ {
			missing = append(missing, y)
		}
	}
	return missing
}
