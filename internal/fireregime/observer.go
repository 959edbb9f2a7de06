package fireregime

// Stage names passed to Observer.FileProcessed.
const (
	StageOccurrence = "occurrence"
	StageIntervals  = "intervals"
)

// Observer receives progress checkpoints from a Processor. Tiles run
// concurrently, so implementations must be safe for concurrent use.
type Observer interface {
	// FileProcessed is called after a stage has consumed one input file
	// for one tile.
	FileProcessed(stage string, done, total int, path string)
	// PixelsAnalysed is called after each batch of interval analysis. done
	// is the batch size and total the ever-burned pixels in the tile.
	PixelsAnalysed(done, total int)
	// OutputWritten is called once a result raster is in place.
	OutputWritten(path string)
}

// NopObserver discards every checkpoint.
type NopObserver struct{}

func (NopObserver) FileProcessed(string, int, int, string) {}
func (NopObserver) PixelsAnalysed(int, int)                {}
func (NopObserver) OutputWritten(string)                   {}
