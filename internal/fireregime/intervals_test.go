package fireregime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/firemap/internal/config"
)

func TestAnalyzeSequence(t *testing.T) {
	tests := []struct {
		name            string
		seq             []uint8
		excludeBoundary bool
		want            PixelMetrics
	}{
		{
			name: "two intervals",
			seq:  []uint8{1, 0, 0, 0, 1, 0, 1},
			want: PixelMetrics{Min: 1, Mean: 2, Max: 3, HasInterval: true},
		},
		{
			name: "burned every year",
			seq:  []uint8{1, 1, 1, 1},
			want: PixelMetrics{},
		},
		{
			name: "boundary runs count by default",
			seq:  []uint8{0, 0, 1, 0, 0, 0, 0},
			want: PixelMetrics{Min: 2, Mean: 3, Max: 4, HasInterval: true},
		},
		{
			name:            "boundary runs excluded",
			seq:             []uint8{0, 0, 1, 0, 1, 0, 0, 0},
			excludeBoundary: true,
			want:            PixelMetrics{Min: 1, Mean: 1, Max: 1, HasInterval: true},
		},
		{
			name:            "only boundary runs excluded",
			seq:             []uint8{0, 1, 0, 0},
			excludeBoundary: true,
			want:            PixelMetrics{},
		},
		{
			name: "fractional mean",
			seq:  []uint8{1, 0, 1, 0, 0, 1},
			want: PixelMetrics{Min: 1, Mean: 1.5, Max: 2, HasInterval: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AnalyzeSequence(tt.seq, tt.excludeBoundary)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeSequence_NonBinary(t *testing.T) {
	_, err := AnalyzeSequence([]uint8{1, 3}, false)
	assert.ErrorIs(t, err, ErrNonBinary)
}

func TestUnburntIntervals(t *testing.T) {
	runs := []Run{{0, 2}, {1, 1}, {0, 3}, {1, 2}, {0, 1}}
	assert.Equal(t, []float64{2, 3, 1}, UnburntIntervals(runs, false))
	assert.Equal(t, []float64{3}, UnburntIntervals(runs, true))
	assert.Empty(t, UnburntIntervals(nil, true))
	assert.Empty(t, UnburntIntervals([]Run{{0, 5}}, true))
}

func TestReduceIntervals(t *testing.T) {
	lo, mean, hi, ok := ReduceIntervals([]float64{3, 1})
	assert.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 3.0, hi)

	lo, mean, hi, ok = ReduceIntervals(nil)
	assert.False(t, ok)
	assert.Zero(t, lo+mean+hi)
}

func TestRoundMean(t *testing.T) {
	assert.Equal(t, 2.0, roundMean(2.5, config.RoundingTruncate))
	assert.Equal(t, 3.0, roundMean(2.5, config.RoundingRound))
	assert.Equal(t, 2.0, roundMean(2.49, config.RoundingRound))
	assert.Equal(t, 1.0, roundMean(1.99, ""))
}
