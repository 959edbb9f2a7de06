package fireregime

import (
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/firemap/internal/geotiff"
)

// threshold decides which pixel values mean fire: positive values other
// than the nodata value. NaN is never fire.
type threshold struct {
	nodata    float64
	hasNoData bool
}

// thresholdFor builds the threshold for one input raster. override wins
// over the raster's own GDAL_NODATA tag.
func thresholdFor(im *geotiff.Image, override *float64) threshold {
	v, ok := 0.0, false
	switch {
	case override != nil:
		v, ok = *override, true
	case im.Geo.NoData != "":
		f, err := strconv.ParseFloat(strings.TrimSpace(im.Geo.NoData), 64)
		v, ok = f, err == nil
	}
	// Only a positive nodata value could be mistaken for fire.
	if !ok || math.IsNaN(v) || v <= 0 {
		return threshold{}
	}
	return threshold{nodata: v, hasNoData: true}
}

func (t threshold) burned(im *geotiff.Image, i int) bool {
	if !im.Positive(i) {
		return false
	}
	return !t.hasNoData || im.At(i) != t.nodata
}
