package geotiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/tiff/lzw"
)

// decompress expands one strip or tile to exactly size bytes.
func decompress(compression uint16, src []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	switch compression {
	case compressionNone:
		if len(src) < size {
			return nil, fmt.Errorf("%w: chunk holds %d bytes, need %d", ErrFormat, len(src), size)
		}
		copy(out, src)
		return out, nil

	case compressionLZW:
		r := lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
		defer r.Close()
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("lzw decompress: %w", err)
		}
		return out, nil

	case compressionDeflate, compressionDeflateX:
		r, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("zlib reader: %w", err)
		}
		defer r.Close()
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("zlib decompress: %w", err)
		}
		return out, nil

	case compressionPackBits:
		if err := unpackBits(out, src); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: compression %d", ErrUnsupported, compression)
}

// unpackBits decodes Apple PackBits run-length data into dst.
func unpackBits(dst, src []byte) error {
	di, si := 0, 0
	for di < len(dst) {
		if si >= len(src) {
			return fmt.Errorf("%w: packbits data ends after %d of %d bytes", ErrFormat, di, len(dst))
		}
		n := int(int8(src[si]))
		si++
		switch {
		case n >= 0:
			cnt := n + 1
			if si+cnt > len(src) || di+cnt > len(dst) {
				return fmt.Errorf("%w: packbits literal overruns buffer", ErrFormat)
			}
			copy(dst[di:], src[si:si+cnt])
			si += cnt
			di += cnt
		case n > -128:
			cnt := 1 - n
			if si >= len(src) || di+cnt > len(dst) {
				return fmt.Errorf("%w: packbits run overruns buffer", ErrFormat)
			}
			b := src[si]
			si++
			for k := 0; k < cnt; k++ {
				dst[di+k] = b
			}
			di += cnt
		}
		// -128 is a no-op
	}
	return nil
}

// deflate compresses src at the given zlib level.
func deflate(src []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	return buf.Bytes(), nil
}
