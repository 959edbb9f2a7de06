package fireregime

// Run is a maximal stretch of equal values in a 0/1 sequence.
type Run struct {
	Value  uint8
	Length int
}

// EncodeRuns run-length encodes a 0/1 sequence in a single left-to-right
// scan. Any other value yields an *EncodingError.
func EncodeRuns(seq []uint8) ([]Run, error) {
	return appendRuns(nil, seq)
}

// appendRuns is EncodeRuns appending to dst, so callers can reuse a buffer
// across pixels.
func appendRuns(dst []Run, seq []uint8) ([]Run, error) {
	for i, v := range seq {
		if v > 1 {
			return dst, &EncodingError{Index: i, Value: v}
		}
		if n := len(dst); n > 0 && dst[n-1].Value == v {
			dst[n-1].Length++
			continue
		}
		dst = append(dst, Run{Value: v, Length: 1})
	}
	return dst, nil
}

// ExpandRuns is the inverse of EncodeRuns.
func ExpandRuns(runs []Run) []uint8 {
	n := 0
	for _, r := range runs {
		n += r.Length
	}
	out := make([]uint8, 0, n)
	for _, r := range runs {
		for i := 0; i < r.Length; i++ {
			out = append(out, r.Value)
		}
	}
	return out
}
