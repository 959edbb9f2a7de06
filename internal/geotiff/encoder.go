package geotiff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Compression selects the encoder's chunk compression.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionDeflate
)

// EncodeOptions controls how Encode lays out and compresses an image.
type EncodeOptions struct {
	Compression Compression
	Level       int // zlib level, 0-9
	Predictor   int // 1 = none, 2 = horizontal differencing; floats are never predicted

	// RowsPerStrip sets the strip height. Ignored for tiled output.
	RowsPerStrip int

	// TileWidth and TileHeight switch to a tiled layout when both are set.
	// Both must be multiples of 16.
	TileWidth  int
	TileHeight int
}

type outEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func shortEntry(tag uint16, vals ...uint16) outEntry {
	b := make([]byte, 2*len(vals))
	for i, v := range vals {
		le.PutUint16(b[2*i:], v)
	}
	return outEntry{tag, dtShort, uint32(len(vals)), b}
}

func longEntry(tag uint16, vals ...uint32) outEntry {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		le.PutUint32(b[4*i:], v)
	}
	return outEntry{tag, dtLong, uint32(len(vals)), b}
}

func doubleEntry(tag uint16, vals []float64) outEntry {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		le.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return outEntry{tag, dtDouble, uint32(len(vals)), b}
}

func asciiEntry(tag uint16, s string) outEntry {
	b := append([]byte(s), 0)
	return outEntry{tag, dtASCII, uint32(len(b)), b}
}

// Encode writes im as a little-endian GeoTIFF.
func Encode(w io.Writer, im *Image, opt EncodeOptions) error {
	size := im.Type.Size()
	if size == 0 {
		return fmt.Errorf("%w: data type %v", ErrUnsupported, im.Type)
	}
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("%w: image is %dx%d", ErrFormat, im.Width, im.Height)
	}
	if len(im.Pix) != im.Width*im.Height*size {
		return fmt.Errorf("%w: %d pixel bytes for %dx%d %v", ErrFormat, len(im.Pix), im.Width, im.Height, im.Type)
	}

	tiled := opt.TileWidth > 0 && opt.TileHeight > 0
	if tiled && (opt.TileWidth%16 != 0 || opt.TileHeight%16 != 0) {
		return fmt.Errorf("%w: tile size %dx%d is not a multiple of 16", ErrFormat, opt.TileWidth, opt.TileHeight)
	}
	predict := opt.Predictor == predictorHorizontal && !im.Type.IsFloat()

	chunkW, chunkH := im.Width, opt.RowsPerStrip
	if tiled {
		chunkW, chunkH = opt.TileWidth, opt.TileHeight
	} else if chunkH <= 0 || chunkH > im.Height {
		chunkH = im.Height
	}

	var raw [][]byte
	if tiled {
		raw = tileChunks(im, chunkW, chunkH)
	} else {
		raw = stripChunks(im, chunkH)
	}

	var body bytes.Buffer
	body.Write([]byte{'I', 'I', 42, 0, 0, 0, 0, 0})
	offsets := make([]uint32, len(raw))
	counts := make([]uint32, len(raw))
	for i, data := range raw {
		if predict {
			applyHorizontal(data, size, chunkW)
		}
		if opt.Compression == CompressionDeflate {
			var err error
			if data, err = deflate(data, opt.Level); err != nil {
				return err
			}
		}
		offsets[i] = uint32(body.Len())
		counts[i] = uint32(len(data))
		body.Write(data)
		if body.Len()%2 == 1 {
			body.WriteByte(0)
		}
		if body.Len() > math.MaxUint32/2 {
			return fmt.Errorf("%w: output larger than 2GiB, BigTIFF required", ErrUnsupported)
		}
	}

	compression := uint16(compressionNone)
	if opt.Compression == CompressionDeflate {
		compression = compressionDeflate
	}
	predictor := uint16(predictorNone)
	if predict {
		predictor = predictorHorizontal
	}

	entries := []outEntry{
		longEntry(tagImageWidth, uint32(im.Width)),
		longEntry(tagImageLength, uint32(im.Height)),
		shortEntry(tagBitsPerSample, uint16(8*size)),
		shortEntry(tagCompression, compression),
		shortEntry(tagPhotometric, photometricBlackIsZero),
		shortEntry(tagSamplesPerPixel, 1),
		shortEntry(tagPlanarConfig, 1),
		shortEntry(tagPredictor, predictor),
		shortEntry(tagSampleFormat, im.Type.sampleFormat()),
	}
	if tiled {
		entries = append(entries,
			longEntry(tagTileWidth, uint32(chunkW)),
			longEntry(tagTileLength, uint32(chunkH)),
			longEntry(tagTileOffsets, offsets...),
			longEntry(tagTileByteCounts, counts...),
		)
	} else {
		entries = append(entries,
			longEntry(tagStripOffsets, offsets...),
			longEntry(tagRowsPerStrip, uint32(chunkH)),
			longEntry(tagStripByteCounts, counts...),
		)
	}
	entries = append(entries, geoEntries(im.Geo)...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdOff := body.Len()
	le.PutUint32(body.Bytes()[4:], uint32(ifdOff))

	extraOff := ifdOff + 2 + 12*len(entries) + 4
	var ifd, extra bytes.Buffer
	var n [2]byte
	le.PutUint16(n[:], uint16(len(entries)))
	ifd.Write(n[:])
	for _, e := range entries {
		var rec [12]byte
		le.PutUint16(rec[0:], e.tag)
		le.PutUint16(rec[2:], e.typ)
		le.PutUint32(rec[4:], e.count)
		if len(e.data) <= 4 {
			copy(rec[8:], e.data)
		} else {
			le.PutUint32(rec[8:], uint32(extraOff+extra.Len()))
			extra.Write(e.data)
			if extra.Len()%2 == 1 {
				extra.WriteByte(0)
			}
		}
		ifd.Write(rec[:])
	}
	ifd.Write([]byte{0, 0, 0, 0}) // no further IFDs

	body.Write(ifd.Bytes())
	body.Write(extra.Bytes())
	_, err := w.Write(body.Bytes())
	return err
}

func geoEntries(g GeoInfo) []outEntry {
	var out []outEntry
	if len(g.PixelScale) > 0 {
		out = append(out, doubleEntry(tagModelPixelScale, g.PixelScale))
	}
	if len(g.Tiepoints) > 0 {
		out = append(out, doubleEntry(tagModelTiepoint, g.Tiepoints))
	}
	if len(g.Transformation) > 0 {
		out = append(out, doubleEntry(tagModelTransformation, g.Transformation))
	}
	if len(g.KeyDirectory) > 0 {
		out = append(out, shortEntry(tagGeoKeyDirectory, g.KeyDirectory...))
	}
	if len(g.DoubleParams) > 0 {
		out = append(out, doubleEntry(tagGeoDoubleParams, g.DoubleParams))
	}
	if g.ASCIIParams != "" {
		out = append(out, asciiEntry(tagGeoASCIIParams, g.ASCIIParams))
	}
	if g.NoData != "" {
		out = append(out, asciiEntry(tagGDALNoData, g.NoData))
	}
	return out
}

func stripChunks(im *Image, rps int) [][]byte {
	size := im.Type.Size()
	rowBytes := im.Width * size
	var out [][]byte
	for top := 0; top < im.Height; top += rps {
		rows := min(rps, im.Height-top)
		out = append(out, bytes.Clone(im.Pix[top*rowBytes:(top+rows)*rowBytes]))
	}
	return out
}

func tileChunks(im *Image, tw, th int) [][]byte {
	size := im.Type.Size()
	var out [][]byte
	for top := 0; top < im.Height; top += th {
		for left := 0; left < im.Width; left += tw {
			tile := make([]byte, tw*th*size)
			cols := min(tw, im.Width-left)
			for y := top; y < min(top+th, im.Height); y++ {
				src := im.Pix[(y*im.Width+left)*size : (y*im.Width+left+cols)*size]
				copy(tile[(y-top)*tw*size:], src)
			}
			out = append(out, tile)
		}
	}
	return out
}
