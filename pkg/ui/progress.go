package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
)

// LookupProgress tracks a sequence of profile lookups
type LookupProgress struct {
	Total     int
	Done      int
	Failed    int
	StartTime time.Time
}

// NewLookupProgress creates a tracker for total lookups
func NewLookupProgress(total int) *LookupProgress {
	return &LookupProgress{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Advance records one finished lookup
func (p *LookupProgress) Advance(failed bool) {
	p.Done++
	if failed {
		p.Failed++
	}
}

// Bar returns a formatted progress bar
func (p *LookupProgress) Bar() string {
	filled := 0
	if p.Total > 0 {
		filled = p.Done * progressWidth / p.Total
	}
	if filled > progressWidth {
		filled = progressWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, progressWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, p.Done, p.Total)
}

// Elapsed returns the time since tracking started
func (p *LookupProgress) Elapsed() time.Duration {
	return time.Since(p.StartTime)
}

// Print redraws the progress line in place
func (p *LookupProgress) Print() {
	line := fmt.Sprintf("\r%s %s", Green("[LOOKUP]"), p.Bar())
	if p.Failed > 0 {
		line += " " + Yellow(fmt.Sprintf("(%d skipped)", p.Failed))
	}
	Printf("%s", line)
	if p.Done >= p.Total {
		Printf("\n")
	}
}
