package fireregime

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeRuns(t *testing.T) {
	tests := []struct {
		name string
		seq  []uint8
		want []Run
	}{
		{"empty", nil, nil},
		{"single burn", []uint8{1}, []Run{{1, 1}}},
		{"all unburnt", []uint8{0, 0, 0}, []Run{{0, 3}}},
		{"example", []uint8{1, 0, 0, 0, 1, 0, 1}, []Run{{1, 1}, {0, 3}, {1, 1}, {0, 1}, {1, 1}}},
		{"adjacent burns merge", []uint8{0, 1, 1, 1, 0}, []Run{{0, 1}, {1, 3}, {0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeRuns(tt.seq)
			if err != nil {
				t.Fatalf("EncodeRuns: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("runs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeRuns_RoundTripAllSequences(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for bits := 0; bits < 1<<n; bits++ {
			seq := make([]uint8, n)
			for i := range seq {
				seq[i] = uint8(bits >> i & 1)
			}
			runs, err := EncodeRuns(seq)
			if err != nil {
				t.Fatalf("EncodeRuns(%v): %v", seq, err)
			}
			for i := 1; i < len(runs); i++ {
				if runs[i].Value == runs[i-1].Value {
					t.Fatalf("EncodeRuns(%v) left adjacent equal runs: %v", seq, runs)
				}
			}
			if diff := cmp.Diff(seq, ExpandRuns(runs)); diff != "" {
				t.Fatalf("round trip of %v (-want +got):\n%s", seq, diff)
			}
		}
	}
}

func TestEncodeRuns_NonBinary(t *testing.T) {
	_, err := EncodeRuns([]uint8{0, 1, 2, 0})

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodingError, got %v", err)
	}
	if encErr.Index != 2 || encErr.Value != 2 {
		t.Errorf("error at index %d value %d, want index 2 value 2", encErr.Index, encErr.Value)
	}
	if !errors.Is(err, ErrNonBinary) {
		t.Error("expected errors.Is(err, ErrNonBinary)")
	}
}

func TestOccurrenceMatrix(t *testing.T) {
	m := NewOccurrenceMatrix(2, 3)
	m.Mark(0, 2)
	m.Mark(1, 0)
	m.Mark(1, 1)

	if m.Rows() != 2 || m.Years() != 3 {
		t.Fatalf("matrix is %dx%d, want 2x3", m.Rows(), m.Years())
	}
	if diff := cmp.Diff([]uint8{0, 0, 1}, m.Row(0)); diff != "" {
		t.Errorf("row 0 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint8{1, 1, 0}, m.Row(1)); diff != "" {
		t.Errorf("row 1 (-want +got):\n%s", diff)
	}
	if got := append(m.Row(0), 9); got[3] != 9 || m.Row(1)[0] != 1 {
		t.Error("appending to a row must not overwrite the next row")
	}
	if NewOccurrenceMatrix(0, 0).Rows() != 0 {
		t.Error("empty matrix should have no rows")
	}
}

func TestPixelIndexOffset(t *testing.T) {
	idx := PixelIndex{{Row: 0, Col: 3}, {Row: 2, Col: 1}}
	if got := idx.Offset(0, 5); got != 3 {
		t.Errorf("Offset(0) = %d, want 3", got)
	}
	if got := idx.Offset(1, 5); got != 11 {
		t.Errorf("Offset(1) = %d, want 11", got)
	}
}
