package blob

import (
	"math"
	"time"
)

const mib = 1024 * 1024

// Progress tracks cumulative transfer progress of a single file.
type Progress struct {
	total    int64
	uploaded int64
	started  time.Time
}

func NewProgress(total int64) *Progress {
	return &Progress{total: total, started: time.Now()}
}

// Update records the cumulative number of bytes transferred so far.
func (p *Progress) Update(uploaded int64) {
	p.uploaded = uploaded
}

// Percent returns completion as a percentage rounded to 2 decimal places.
func (p *Progress) Percent() float64 {
	if p.total == 0 {
		return 100
	}
	return math.Round(float64(p.uploaded)/float64(p.total)*100*100) / 100
}

// SpeedMBps returns the mean transfer speed in MB/s (1 MiB = 1024*1024 bytes).
func (p *Progress) SpeedMBps() float64 {
	elapsed := time.Since(p.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.uploaded) / mib / elapsed
}
