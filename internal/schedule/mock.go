package schedule

import (
	"time"

	"github.com/christopherklint97/slotted/internal/interval"
)

// mockBusy produces the deterministic stand-in busy data used when the
// calendar provider fails: a morning meeting and an afternoon block on each
// day of the horizon. The shape is fixed so degraded-mode output is
// reproducible.
func mockBusy(horizonStart time.Time, daysAhead int) interval.BusySet {
	start := horizonStart.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	var ivs []interval.Interval
	for d := 0; d < daysAhead; d++ {
		date := day.AddDate(0, 0, d)
		ivs = append(ivs,
			interval.Interval{Start: date.Add(9 * time.Hour), End: date.Add(10 * time.Hour)},
			interval.Interval{Start: date.Add(14 * time.Hour), End: date.Add(15*time.Hour + 30*time.Minute)},
		)
	}
	return interval.Merge(ivs)
}
