package geotiff

import "slices"

// GeoInfo carries the georeferencing tags of a GeoTIFF verbatim.
type GeoInfo struct {
	PixelScale     []float64 // ModelPixelScaleTag
	Tiepoints      []float64 // ModelTiepointTag
	Transformation []float64 // ModelTransformationTag, 16 values
	KeyDirectory   []uint16  // GeoKeyDirectoryTag
	DoubleParams   []float64 // GeoDoubleParamsTag
	ASCIIParams    string    // GeoAsciiParamsTag
	NoData         string    // GDAL_NODATA
}

// IsZero reports whether no georeferencing is present at all.
func (g GeoInfo) IsZero() bool {
	return len(g.PixelScale) == 0 && len(g.Tiepoints) == 0 && len(g.Transformation) == 0 &&
		len(g.KeyDirectory) == 0 && len(g.DoubleParams) == 0 && g.ASCIIParams == "" && g.NoData == ""
}

// Equal reports whether two GeoInfo values carry identical tags.
func (g GeoInfo) Equal(o GeoInfo) bool {
	return slices.Equal(g.PixelScale, o.PixelScale) &&
		slices.Equal(g.Tiepoints, o.Tiepoints) &&
		slices.Equal(g.Transformation, o.Transformation) &&
		slices.Equal(g.KeyDirectory, o.KeyDirectory) &&
		slices.Equal(g.DoubleParams, o.DoubleParams) &&
		g.ASCIIParams == o.ASCIIParams &&
		g.NoData == o.NoData
}

// SameCRS reports whether both carry the same GeoKey directory and
// parameter values.
func (g GeoInfo) SameCRS(o GeoInfo) bool {
	return slices.Equal(g.KeyDirectory, o.KeyDirectory) &&
		slices.Equal(g.DoubleParams, o.DoubleParams) &&
		g.ASCIIParams == o.ASCIIParams
}

// Clone returns a deep copy.
func (g GeoInfo) Clone() GeoInfo {
	return GeoInfo{
		PixelScale:     slices.Clone(g.PixelScale),
		Tiepoints:      slices.Clone(g.Tiepoints),
		Transformation: slices.Clone(g.Transformation),
		KeyDirectory:   slices.Clone(g.KeyDirectory),
		DoubleParams:   slices.Clone(g.DoubleParams),
		ASCIIParams:    g.ASCIIParams,
		NoData:         g.NoData,
	}
}

// GeoTransform returns the affine transform in GDAL order
// (originX, pixelWidth, rotX, originY, rotY, pixelHeight).
func (g GeoInfo) GeoTransform() ([6]float64, bool) {
	if t := g.Transformation; len(t) == 16 {
		return [6]float64{t[3], t[0], t[1], t[7], t[4], t[5]}, true
	}
	if len(g.PixelScale) >= 2 && len(g.Tiepoints) >= 6 {
		sx, sy := g.PixelScale[0], g.PixelScale[1]
		tp := g.Tiepoints
		return [6]float64{tp[3] - tp[0]*sx, sx, 0, tp[4] + tp[1]*sy, 0, -sy}, true
	}
	return [6]float64{}, false
}

// GeoKey IDs used to identify the coordinate reference system.
const (
	keyGeographicType = 2048
	keyProjectedType  = 3072
)

// EPSG returns the EPSG code declared by the key directory, preferring the
// projected CRS over the geographic one.
func (g GeoInfo) EPSG() (int, bool) {
	kd := g.KeyDirectory
	if len(kd) < 4 {
		return 0, false
	}
	n := int(kd[3])
	code, found := 0, false
	for i := 0; i < n && 4+4*i+3 < len(kd); i++ {
		id, loc, val := kd[4+4*i], kd[4+4*i+1], kd[4+4*i+3]
		if loc != 0 {
			continue
		}
		switch id {
		case keyProjectedType:
			return int(val), true
		case keyGeographicType:
			code, found = int(val), true
		}
	}
	return code, found
}
