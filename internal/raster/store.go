package raster

import (
	"fmt"
	"strings"

	"github.com/banshee-data/firemap/internal/fsutil"
	"github.com/banshee-data/firemap/internal/geotiff"
)

// partialSuffix marks an output that is still being written.
const partialSuffix = ".partial"

// IsPartial reports whether path is an in-progress output left by Write.
func IsPartial(path string) bool {
	return strings.HasSuffix(path, partialSuffix)
}

// Store reads and writes rasters through a FileSystem.
type Store struct {
	fs fsutil.FileSystem
}

// NewStore returns a Store backed by fsys, or by the OS when fsys is nil.
func NewStore(fsys fsutil.FileSystem) *Store {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Store{fs: fsys}
}

// FS exposes the underlying filesystem.
func (s *Store) FS() fsutil.FileSystem {
	return s.fs
}

// Reader is an open raster whose header has been parsed.
type Reader struct {
	*geotiff.Decoder
	Path string
	f    fsutil.File
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Open parses the header of path.
func (s *Store) Open(path string) (*Reader, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}
	d, err := geotiff.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Reader{Decoder: d, Path: path, f: f}, nil
}

// ReadWindow decodes the rows of w from path, checking it against g first.
func (s *Store) ReadWindow(path string, g Grid, w Window) (*geotiff.Image, error) {
	r, err := s.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := g.Check(path, r.Width(), r.Height(), r.Geo()); err != nil {
		return nil, err
	}
	im, err := r.ReadRows(w.Row0, w.Row0+w.Rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return im, nil
}

// LoadGrid captures the grid of the first member of series.
func (s *Store) LoadGrid(series Series, enc Encoding) (Grid, error) {
	if len(series) == 0 {
		return Grid{}, ErrEmptySeries
	}
	ref := series[0].Path
	r, err := s.Open(ref)
	if err != nil {
		return Grid{}, err
	}
	defer r.Close()

	geo := r.Geo()
	if _, ok := geo.GeoTransform(); !ok {
		return Grid{}, fmt.Errorf("%w: %s has no pixel scale/tiepoint or transformation", ErrMissingMetadata, ref)
	}
	return Grid{
		Width:      r.Width(),
		Height:     r.Height(),
		SourceType: r.Type(),
		Geo:        geo.Clone(),
		Encoding:   enc,
		Reference:  ref,
		BlockRows:  r.BlockRows(),
	}, nil
}

// Probe parses the header of path and verifies it against g without
// decoding pixels.
func (s *Store) Probe(path string, g Grid) error {
	r, err := s.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return g.Check(path, r.Width(), r.Height(), r.Geo())
}

// Write encodes im to path. The data goes to a partial file that is renamed
// over path once complete, replacing any previous output of the same name.
func (s *Store) Write(path string, im *geotiff.Image, opt geotiff.EncodeOptions) (err error) {
	tmp := path + partialSuffix
	w, err := s.fs.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmp)
		}
	}()

	if err = geotiff.Encode(w, im, opt); err != nil {
		w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

// Remove deletes path.
func (s *Store) Remove(path string) error {
	return s.fs.Remove(path)
}

// MkdirAll creates dir and its parents.
func (s *Store) MkdirAll(dir string) error {
	return s.fs.MkdirAll(dir, 0o755)
}
