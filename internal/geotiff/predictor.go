package geotiff

import (
	"encoding/binary"
	"fmt"
)

// undoHorizontal reverses horizontal differencing in place. buf holds rows of
// rowSamples samples of the given byte size, little-endian, with spp
// interleaved components per pixel.
func undoHorizontal(buf []byte, size, rowSamples, spp int) error {
	le := binary.LittleEndian
	rowBytes := rowSamples * size
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		row := buf[off : off+rowBytes]
		for i := spp; i < rowSamples; i++ {
			a, b := i*size, (i-spp)*size
			switch size {
			case 1:
				row[a] += row[b]
			case 2:
				le.PutUint16(row[a:], le.Uint16(row[a:])+le.Uint16(row[b:]))
			case 4:
				le.PutUint32(row[a:], le.Uint32(row[a:])+le.Uint32(row[b:]))
			case 8:
				le.PutUint64(row[a:], le.Uint64(row[a:])+le.Uint64(row[b:]))
			default:
				return fmt.Errorf("%w: horizontal predictor on %d-byte samples", ErrUnsupported, size)
			}
		}
	}
	return nil
}

// applyHorizontal is the inverse of undoHorizontal, used when encoding.
func applyHorizontal(buf []byte, size, rowSamples int) {
	le := binary.LittleEndian
	rowBytes := rowSamples * size
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		row := buf[off : off+rowBytes]
		for i := rowSamples - 1; i >= 1; i-- {
			a, b := i*size, (i-1)*size
			switch size {
			case 1:
				row[a] -= row[b]
			case 2:
				le.PutUint16(row[a:], le.Uint16(row[a:])-le.Uint16(row[b:]))
			case 4:
				le.PutUint32(row[a:], le.Uint32(row[a:])-le.Uint32(row[b:]))
			case 8:
				le.PutUint64(row[a:], le.Uint64(row[a:])-le.Uint64(row[b:]))
			}
		}
	}
}

// undoFloatingPoint reverses the floating point predictor (TIFF Technical
// Note 3). Each row is byte-differenced and then stored with the bytes of
// every sample split into planes, most significant plane first. The result
// is little-endian.
func undoFloatingPoint(buf []byte, size, rowSamples, spp int) {
	rowBytes := rowSamples * size
	tmp := make([]byte, rowBytes)
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		row := buf[off : off+rowBytes]
		for i := spp; i < rowBytes; i++ {
			row[i] += row[i-spp]
		}
		copy(tmp, row)
		for s := 0; s < rowSamples; s++ {
			for b := 0; b < size; b++ {
				row[s*size+b] = tmp[(size-b-1)*rowSamples+s]
			}
		}
	}
}

// swapToLittle converts big-endian samples to little-endian in place.
func swapToLittle(buf []byte, size int) {
	if size == 1 {
		return
	}
	for off := 0; off+size <= len(buf); off += size {
		s := buf[off : off+size]
		for i, j := 0, size-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
	}
}
