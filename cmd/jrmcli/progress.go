package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressTracker renders a row-count progress bar for load-csv, grounded
// on johndauphine-dmt's internal/progress.Tracker.
type progressTracker struct {
	bar       *progressbar.ProgressBar
	startTime time.Time
}

func newProgressTracker(total int64) *progressTracker {
	return &progressTracker{
		startTime: time.Now(),
		bar: progressbar.NewOptions64(
			total,
			progressbar.OptionSetDescription("loading"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionFullWidth(),
		),
	}
}

func (t *progressTracker) finish(n int64) {
	t.bar.Set64(n)
	t.bar.Finish()
	elapsed := time.Since(t.startTime)
	fmt.Printf("\nloaded %d rows in %s\n", n, elapsed.Round(time.Millisecond))
}
