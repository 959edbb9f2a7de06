package monitoring

import (
	"sync"
	"time"
)

// ProgressLogger reports pipeline checkpoints through Logf. It satisfies
// fireregime.Observer and is safe for use from concurrent tiles.
type ProgressLogger struct {
	mu sync.Mutex

	// Every throttles pixel-batch messages; zero logs every batch.
	Every time.Duration

	now      func() time.Time
	lastLog  time.Time
	started  time.Time
	analysed int
}

// NewProgressLogger returns a ProgressLogger that logs pixel progress at most
// once per interval.
func NewProgressLogger(every time.Duration) *ProgressLogger {
	return &ProgressLogger{Every: every, now: time.Now}
}

func (p *ProgressLogger) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// FileProcessed logs each raster read by a pipeline stage.
func (p *ProgressLogger) FileProcessed(stage string, done, total int, path string) {
	p.mu.Lock()
	if p.started.IsZero() {
		p.started = p.clock()
	}
	p.mu.Unlock()
	Logf("[%s] %d/%d %s", stage, done, total, path)
}

// PixelsAnalysed logs interval-analysis progress. Counts are accumulated
// across tiles, so done is a per-call increment.
func (p *ProgressLogger) PixelsAnalysed(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.analysed += done
	now := p.clock()
	if p.Every > 0 && !p.lastLog.IsZero() && now.Sub(p.lastLog) < p.Every {
		return
	}
	p.lastLog = now
	Logf("[intervals] %d pixels analysed (batch of %d in tile with %d burned pixels)", p.analysed, done, total)
}

// OutputWritten logs each result raster once it is in place.
func (p *ProgressLogger) OutputWritten(path string) {
	p.mu.Lock()
	elapsed := time.Duration(0)
	if !p.started.IsZero() {
		elapsed = p.clock().Sub(p.started)
	}
	p.mu.Unlock()
	Logf("[output] wrote %s (elapsed %s)", path, elapsed.Round(time.Millisecond))
}

// Analysed returns the number of pixels reported so far.
func (p *ProgressLogger) Analysed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analysed
}
