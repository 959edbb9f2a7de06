package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	raw   []byte
}

// Decoder reads pixel windows from a TIFF held behind an io.ReaderAt. Only
// the first image file directory is used.
type Decoder struct {
	r     io.ReaderAt
	order binary.ByteOrder

	width, height int
	typ           DataType
	spp           int
	planar        int
	compression   uint16
	predictor     uint16

	tiled          bool
	chunkW, chunkH int
	offsets        []uint64
	counts         []uint64

	geo GeoInfo
}

// NewDecoder parses the TIFF header and first IFD.
func NewDecoder(r io.ReaderAt) (*Decoder, error) {
	var hdr [8]byte
	if _, err := r.ReadAt(hdr[:], 0); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrNotTIFF, err)
	}

	d := &Decoder{r: r}
	switch string(hdr[:2]) {
	case "II":
		d.order = binary.LittleEndian
	case "MM":
		d.order = binary.BigEndian
	default:
		return nil, ErrNotTIFF
	}
	switch d.order.Uint16(hdr[2:]) {
	case 42:
	case 43:
		return nil, fmt.Errorf("%w: BigTIFF", ErrUnsupported)
	default:
		return nil, ErrNotTIFF
	}

	entries, err := d.readIFD(int64(d.order.Uint32(hdr[4:])))
	if err != nil {
		return nil, err
	}
	if err := d.configure(entries); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) readIFD(off int64) (map[uint16]ifdEntry, error) {
	var nbuf [2]byte
	if _, err := d.r.ReadAt(nbuf[:], off); err != nil {
		return nil, fmt.Errorf("%w: reading IFD at %d: %v", ErrFormat, off, err)
	}
	n := int(d.order.Uint16(nbuf[:]))
	buf := make([]byte, 12*n)
	if _, err := d.r.ReadAt(buf, off+2); err != nil {
		return nil, fmt.Errorf("%w: reading %d IFD entries: %v", ErrFormat, n, err)
	}

	entries := make(map[uint16]ifdEntry, n)
	for i := 0; i < n; i++ {
		e := buf[12*i : 12*i+12]
		ent := ifdEntry{
			tag:   d.order.Uint16(e[0:]),
			typ:   d.order.Uint16(e[2:]),
			count: d.order.Uint32(e[4:]),
		}
		if int(ent.typ) >= len(fieldSize) || fieldSize[ent.typ] == 0 {
			// Unknown field types are skipped as the TIFF spec requires.
			continue
		}
		size := int64(fieldSize[ent.typ]) * int64(ent.count)
		if size <= 4 {
			ent.raw = append([]byte(nil), e[8:8+size]...)
		} else {
			if size > 1<<30 {
				return nil, fmt.Errorf("%w: tag %d claims %d bytes", ErrFormat, ent.tag, size)
			}
			ent.raw = make([]byte, size)
			if _, err := d.r.ReadAt(ent.raw, int64(d.order.Uint32(e[8:]))); err != nil {
				return nil, fmt.Errorf("%w: reading tag %d: %v", ErrFormat, ent.tag, err)
			}
		}
		entries[ent.tag] = ent
	}
	return entries, nil
}

// uints decodes an integer-typed entry.
func (d *Decoder) uints(e ifdEntry) ([]uint64, error) {
	out := make([]uint64, e.count)
	for i := range out {
		switch e.typ {
		case dtByte, dtUndefined:
			out[i] = uint64(e.raw[i])
		case dtShort:
			out[i] = uint64(d.order.Uint16(e.raw[2*i:]))
		case dtLong:
			out[i] = uint64(d.order.Uint32(e.raw[4*i:]))
		default:
			return nil, fmt.Errorf("%w: tag %d has non-integer type %d", ErrFormat, e.tag, e.typ)
		}
	}
	return out, nil
}

// floats decodes a numeric entry as float64.
func (d *Decoder) floats(e ifdEntry) ([]float64, error) {
	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case dtDouble:
			out[i] = math.Float64frombits(d.order.Uint64(e.raw[8*i:]))
		case dtFloat:
			out[i] = float64(math.Float32frombits(d.order.Uint32(e.raw[4*i:])))
		case dtShort:
			out[i] = float64(d.order.Uint16(e.raw[2*i:]))
		case dtLong:
			out[i] = float64(d.order.Uint32(e.raw[4*i:]))
		default:
			return nil, fmt.Errorf("%w: tag %d has non-numeric type %d", ErrFormat, e.tag, e.typ)
		}
	}
	return out, nil
}

func ascii(e ifdEntry) string {
	return strings.TrimRight(string(e.raw), "\x00")
}

// first returns the first value of an integer tag, or def when absent.
func (d *Decoder) first(entries map[uint16]ifdEntry, tag uint16, def uint64) (uint64, error) {
	e, ok := entries[tag]
	if !ok || e.count == 0 {
		return def, nil
	}
	v, err := d.uints(e)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (d *Decoder) configure(entries map[uint16]ifdEntry) error {
	var err error
	get := func(tag uint16, def uint64) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		v, err = d.first(entries, tag, def)
		return v
	}

	width := get(tagImageWidth, 0)
	height := get(tagImageLength, 0)
	bits := get(tagBitsPerSample, 1)
	format := get(tagSampleFormat, sampleFormatUint)
	spp := get(tagSamplesPerPixel, 1)
	planar := get(tagPlanarConfig, 1)
	compression := get(tagCompression, compressionNone)
	predictor := get(tagPredictor, predictorNone)
	if err != nil {
		return err
	}

	if width == 0 || height == 0 {
		return fmt.Errorf("%w: missing or zero image dimensions", ErrFormat)
	}
	if spp == 0 {
		return fmt.Errorf("%w: zero samples per pixel", ErrFormat)
	}
	if planar != 1 && planar != 2 {
		return fmt.Errorf("%w: planar configuration %d", ErrFormat, planar)
	}
	d.width, d.height = int(width), int(height)
	d.spp, d.planar = int(spp), int(planar)
	d.compression, d.predictor = uint16(compression), uint16(predictor)
	if d.typ, err = dataTypeFor(uint16(bits), uint16(format)); err != nil {
		return err
	}
	switch d.predictor {
	case predictorNone, predictorHorizontal, predictorFloatingPoint:
	default:
		return fmt.Errorf("%w: predictor %d", ErrUnsupported, d.predictor)
	}

	var offTag, cntTag uint16
	if _, ok := entries[tagTileOffsets]; ok {
		d.tiled = true
		tw := get(tagTileWidth, 0)
		th := get(tagTileLength, 0)
		if err != nil {
			return err
		}
		if tw == 0 || th == 0 {
			return fmt.Errorf("%w: tiled image without tile size", ErrFormat)
		}
		d.chunkW, d.chunkH = int(tw), int(th)
		offTag, cntTag = tagTileOffsets, tagTileByteCounts
	} else {
		rps := get(tagRowsPerStrip, height)
		if err != nil {
			return err
		}
		if rps == 0 || rps > height {
			rps = height
		}
		d.chunkW, d.chunkH = d.width, int(rps)
		offTag, cntTag = tagStripOffsets, tagStripByteCounts
	}

	offs, ok := entries[offTag]
	if !ok {
		return fmt.Errorf("%w: missing chunk offsets", ErrFormat)
	}
	if d.offsets, err = d.uints(offs); err != nil {
		return err
	}
	if cnts, ok := entries[cntTag]; ok {
		if d.counts, err = d.uints(cnts); err != nil {
			return err
		}
	}
	if want := d.chunksPerPlane() * d.planes(); len(d.offsets) < want {
		return fmt.Errorf("%w: %d chunk offsets, need %d", ErrFormat, len(d.offsets), want)
	}
	if d.counts != nil && len(d.counts) < len(d.offsets) {
		return fmt.Errorf("%w: %d byte counts for %d chunks", ErrFormat, len(d.counts), len(d.offsets))
	}

	return d.readGeo(entries)
}

func (d *Decoder) readGeo(entries map[uint16]ifdEntry) error {
	var err error
	if e, ok := entries[tagModelPixelScale]; ok {
		if d.geo.PixelScale, err = d.floats(e); err != nil {
			return err
		}
	}
	if e, ok := entries[tagModelTiepoint]; ok {
		if d.geo.Tiepoints, err = d.floats(e); err != nil {
			return err
		}
	}
	if e, ok := entries[tagModelTransformation]; ok {
		if d.geo.Transformation, err = d.floats(e); err != nil {
			return err
		}
	}
	if e, ok := entries[tagGeoKeyDirectory]; ok {
		keys, err := d.uints(e)
		if err != nil {
			return err
		}
		d.geo.KeyDirectory = make([]uint16, len(keys))
		for i, k := range keys {
			d.geo.KeyDirectory[i] = uint16(k)
		}
	}
	if e, ok := entries[tagGeoDoubleParams]; ok {
		if d.geo.DoubleParams, err = d.floats(e); err != nil {
			return err
		}
	}
	if e, ok := entries[tagGeoASCIIParams]; ok {
		d.geo.ASCIIParams = ascii(e)
	}
	if e, ok := entries[tagGDALNoData]; ok {
		d.geo.NoData = ascii(e)
	}
	return nil
}

func (d *Decoder) planes() int {
	if d.planar == 2 {
		return d.spp
	}
	return 1
}

func (d *Decoder) chunksAcross() int { return (d.width + d.chunkW - 1) / d.chunkW }
func (d *Decoder) chunksDown() int   { return (d.height + d.chunkH - 1) / d.chunkH }

func (d *Decoder) chunksPerPlane() int { return d.chunksAcross() * d.chunksDown() }

// Width returns the image width in pixels.
func (d *Decoder) Width() int { return d.width }

// Height returns the image height in pixels.
func (d *Decoder) Height() int { return d.height }

// Type returns the sample type of the first band.
func (d *Decoder) Type() DataType { return d.typ }

// Geo returns the georeferencing tags.
func (d *Decoder) Geo() GeoInfo { return d.geo }

// Tiled reports whether the image uses a tile layout.
func (d *Decoder) Tiled() bool { return d.tiled }

// BlockRows returns the height of a strip or tile, the smallest row band
// that ReadRows can decode without touching its neighbours.
func (d *Decoder) BlockRows() int { return d.chunkH }

// chunk decodes chunk index idx of the first plane and returns its samples
// for the first band only, little-endian, chunkW*rows samples.
func (d *Decoder) chunk(idx, rows int) ([]byte, error) {
	size := d.typ.Size()
	comps := d.spp
	if d.planar == 2 {
		comps = 1
	}
	rowSamples := d.chunkW * comps
	want := rowSamples * rows * size

	off := int64(d.offsets[idx])
	var n int64
	if d.counts != nil {
		n = int64(d.counts[idx])
	} else if d.compression == compressionNone {
		n = int64(want)
	} else {
		return nil, fmt.Errorf("%w: compressed chunks without byte counts", ErrFormat)
	}
	src := make([]byte, n)
	if got, err := d.r.ReadAt(src, off); err != nil && !(errors.Is(err, io.EOF) && got == len(src)) {
		return nil, fmt.Errorf("%w: reading chunk %d: %v", ErrFormat, idx, err)
	}

	buf, err := decompress(d.compression, src, want)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", idx, err)
	}

	switch d.predictor {
	case predictorFloatingPoint:
		undoFloatingPoint(buf, size, rowSamples, comps)
	case predictorHorizontal:
		if d.order == binary.BigEndian {
			swapToLittle(buf, size)
		}
		if err := undoHorizontal(buf, size, rowSamples, comps); err != nil {
			return nil, err
		}
	default:
		if d.order == binary.BigEndian {
			swapToLittle(buf, size)
		}
	}

	if comps == 1 {
		return buf, nil
	}
	band := make([]byte, d.chunkW*rows*size)
	for i := 0; i < d.chunkW*rows; i++ {
		copy(band[i*size:(i+1)*size], buf[i*comps*size:])
	}
	return band, nil
}

// ReadRows decodes rows [y0, y1) of the first band. Only the strips or
// tiles overlapping the window are read.
func (d *Decoder) ReadRows(y0, y1 int) (*Image, error) {
	if y0 < 0 || y1 > d.height || y0 >= y1 {
		return nil, fmt.Errorf("%w: [%d,%d) of %d rows", ErrWindow, y0, y1, d.height)
	}
	size := d.typ.Size()
	out := &Image{
		Width:  d.width,
		Height: y1 - y0,
		Type:   d.typ,
		Pix:    make([]byte, d.width*(y1-y0)*size),
		Geo:    d.geo.Clone(),
	}

	across := d.chunksAcross()
	for cy := y0 / d.chunkH; cy*d.chunkH < y1; cy++ {
		top := cy * d.chunkH
		rows := d.chunkH
		if !d.tiled && top+rows > d.height {
			rows = d.height - top // last strip may be short
		}
		for cx := 0; cx < across; cx++ {
			buf, err := d.chunk(cy*across+cx, rows)
			if err != nil {
				return nil, err
			}
			left := cx * d.chunkW
			cols := min(d.chunkW, d.width-left)
			for y := max(top, y0); y < min(top+rows, y1); y++ {
				src := buf[((y-top)*d.chunkW)*size : ((y-top)*d.chunkW+cols)*size]
				dst := out.Pix[((y-y0)*d.width+left)*size:]
				copy(dst, src)
			}
		}
	}
	return out, nil
}

// ReadAll decodes the whole first band.
func (d *Decoder) ReadAll() (*Image, error) {
	return d.ReadRows(0, d.height)
}

// Decode reads a complete single-band image.
func Decode(r io.ReaderAt) (*Image, error) {
	d, err := NewDecoder(r)
	if err != nil {
		return nil, err
	}
	return d.ReadAll()
}
