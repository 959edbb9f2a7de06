package fireregime

// Pixel is a grid coordinate.
type Pixel struct {
	Row int
	Col int
}

// PixelIndex lists the ever-burned pixels of a grid in row-major order.
// Position k in the index is row k of the OccurrenceMatrix and the k-th
// sparse metric, so it is the bridge between sparse results and dense
// output rasters.
type PixelIndex []Pixel

// Offset returns the row-major offset of pixel k on a grid of the given
// width.
func (idx PixelIndex) Offset(k, width int) int {
	return idx[k].Row*width + idx[k].Col
}

// OccurrenceMatrix holds one 0/1 row per indexed pixel and one column per
// year, in a single backing array.
type OccurrenceMatrix struct {
	years int
	cells []uint8
}

// NewOccurrenceMatrix allocates a zeroed pixels x years matrix.
func NewOccurrenceMatrix(pixels, years int) *OccurrenceMatrix {
	return &OccurrenceMatrix{years: years, cells: make([]uint8, pixels*years)}
}

// Rows returns the number of pixels.
func (m *OccurrenceMatrix) Rows() int {
	if m.years == 0 {
		return 0
	}
	return len(m.cells) / m.years
}

// Years returns the number of columns.
func (m *OccurrenceMatrix) Years() int { return m.years }

// Mark records fire for pixel k in year y.
func (m *OccurrenceMatrix) Mark(k, y int) {
	m.cells[k*m.years+y] = 1
}

// Row returns the yearly sequence of pixel k. The slice aliases the matrix.
func (m *OccurrenceMatrix) Row(k int) []uint8 {
	return m.cells[k*m.years : (k+1)*m.years : (k+1)*m.years]
}
