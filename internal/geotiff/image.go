package geotiff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DataType is the storage type of a raster sample.
type DataType uint8

const (
	Uint8 DataType = iota + 1
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
)

// Size returns the number of bytes per sample.
func (t DataType) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// IsFloat reports whether t is a floating point type.
func (t DataType) IsFloat() bool {
	return t == Float32 || t == Float64
}

func (t DataType) sampleFormat() uint16 {
	switch t {
	case Int8, Int16, Int32:
		return sampleFormatInt
	case Float32, Float64:
		return sampleFormatFloat
	}
	return sampleFormatUint
}

func (t DataType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

func dataTypeFor(bits, format uint16) (DataType, error) {
	switch format {
	case sampleFormatUint:
		switch bits {
		case 8:
			return Uint8, nil
		case 16:
			return Uint16, nil
		case 32:
			return Uint32, nil
		}
	case sampleFormatInt:
		switch bits {
		case 8:
			return Int8, nil
		case 16:
			return Int16, nil
		case 32:
			return Int32, nil
		}
	case sampleFormatFloat:
		switch bits {
		case 32:
			return Float32, nil
		case 64:
			return Float64, nil
		}
	}
	return 0, fmt.Errorf("%w: %d-bit samples with sample format %d", ErrUnsupported, bits, format)
}

// Image is a single-band raster held in memory.
type Image struct {
	Width  int
	Height int
	Type   DataType
	Pix    []byte // little-endian samples, row-major
	Geo    GeoInfo
}

// NewImage allocates a zeroed image.
func NewImage(width, height int, t DataType) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Type:   t,
		Pix:    make([]byte, width*height*t.Size()),
	}
}

// Len returns the number of pixels.
func (im *Image) Len() int {
	return im.Width * im.Height
}

// At returns pixel i (row-major) as a float64.
func (im *Image) At(i int) float64 {
	le := binary.LittleEndian
	switch im.Type {
	case Uint8:
		return float64(im.Pix[i])
	case Int8:
		return float64(int8(im.Pix[i]))
	case Uint16:
		return float64(le.Uint16(im.Pix[2*i:]))
	case Int16:
		return float64(int16(le.Uint16(im.Pix[2*i:])))
	case Uint32:
		return float64(le.Uint32(im.Pix[4*i:]))
	case Int32:
		return float64(int32(le.Uint32(im.Pix[4*i:])))
	case Float32:
		return float64(math.Float32frombits(le.Uint32(im.Pix[4*i:])))
	case Float64:
		return math.Float64frombits(le.Uint64(im.Pix[8*i:]))
	}
	return 0
}

// Set stores v at pixel i, converting to the image type. Integer types
// truncate toward zero and saturate at the type bounds.
func (im *Image) Set(i int, v float64) {
	le := binary.LittleEndian
	switch im.Type {
	case Uint8:
		im.Pix[i] = uint8(clamp(v, 0, math.MaxUint8))
	case Int8:
		im.Pix[i] = uint8(int8(clamp(v, math.MinInt8, math.MaxInt8)))
	case Uint16:
		le.PutUint16(im.Pix[2*i:], uint16(clamp(v, 0, math.MaxUint16)))
	case Int16:
		le.PutUint16(im.Pix[2*i:], uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
	case Uint32:
		le.PutUint32(im.Pix[4*i:], uint32(clamp(v, 0, math.MaxUint32)))
	case Int32:
		le.PutUint32(im.Pix[4*i:], uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
	case Float32:
		le.PutUint32(im.Pix[4*i:], math.Float32bits(float32(v)))
	case Float64:
		le.PutUint64(im.Pix[8*i:], math.Float64bits(v))
	}
}

// Positive reports whether pixel i holds a value greater than zero. NaN is
// not positive.
func (im *Image) Positive(i int) bool {
	switch im.Type {
	case Uint8:
		return im.Pix[i] != 0
	case Int8:
		return int8(im.Pix[i]) > 0
	}
	return im.At(i) > 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return math.Trunc(v)
}
