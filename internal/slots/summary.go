package slots

import (
	"fmt"
	"time"

	"github.com/christopherklint97/slotted/internal/calendar"
)

// Summarize digests past events into the short preference text consumed by
// Score: the most frequent weekday, and whether morning (9–11) or afternoon
// (13–16) starts dominate. A tie between the two goes to afternoon.
func Summarize(events []calendar.Event) string {
	if len(events) == 0 {
		return "No scheduling history yet."
	}

	var weekdays [7]int
	morning, afternoon := 0, 0
	for _, e := range events {
		start := e.StartTime.UTC()
		weekdays[int(start.Weekday())]++
		switch h := start.Hour(); {
		case h >= 9 && h <= 11:
			morning++
		case h >= 13 && h <= 16:
			afternoon++
		}
	}

	best := 0
	for i, n := range weekdays {
		if n > weekdays[best] {
			best = i
		}
	}

	timeOfDay := "afternoon"
	if morning > afternoon {
		timeOfDay = "morning"
	}

	return fmt.Sprintf("Usually schedules on %s and prefers %s meetings.",
		time.Weekday(best), timeOfDay)
}
