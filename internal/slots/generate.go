package slots

import (
	"fmt"
	"time"

	"github.com/christopherklint97/slotted/internal/interval"
)

// Slot is a candidate meeting opening. Its identity is its start instant;
// slots are generated per request and never persisted.
type Slot struct {
	Start    time.Time
	Duration time.Duration
}

func (s Slot) End() time.Time {
	return s.Start.Add(s.Duration)
}

// Policy controls slot generation. The history of this service carried
// several hardcoded variants of these knobs (window end 17/19/21,
// weekday-only vs all days, capped vs uncapped results); callers now choose
// explicitly instead of the generator embedding one variant.
type Policy struct {
	WindowStartHour int
	WindowEndHour   int
	StepMinutes     int
	DurationMinutes int
	IncludeWeekends bool
	MaxResults      int // 0 means unlimited
}

// DefaultPolicy is a 9:00–19:00 window, half-hour grid, one-hour meetings,
// all days of the week, uncapped.
func DefaultPolicy() Policy {
	return Policy{
		WindowStartHour: 9,
		WindowEndHour:   19,
		StepMinutes:     30,
		DurationMinutes: 60,
		IncludeWeekends: true,
	}
}

// Validate rejects a policy the generator cannot enumerate. Config loading
// surfaces the error to the user; Generate refuses such a policy outright.
func (p Policy) Validate() error {
	if p.StepMinutes <= 0 {
		return fmt.Errorf("step_minutes must be positive, got %d", p.StepMinutes)
	}
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive, got %d", p.DurationMinutes)
	}
	if p.WindowStartHour < 0 || p.WindowEndHour > 24 || p.WindowEndHour <= p.WindowStartHour {
		return fmt.Errorf("window [%d,%d) is not a valid hour range", p.WindowStartHour, p.WindowEndHour)
	}
	return nil
}

// Generate enumerates the candidate grid over daysAhead calendar days
// starting at horizonStart's date and drops every slot that is not strictly
// in the future or that collides with a busy interval. The result is
// ascending by start. Pure function: same inputs, same grid — external slot
// suggestions are validated against exactly this output.
func Generate(horizonStart time.Time, daysAhead int, busy interval.BusySet, p Policy) []Slot {
	if p.Validate() != nil {
		return nil
	}

	step := time.Duration(p.StepMinutes) * time.Minute
	duration := time.Duration(p.DurationMinutes) * time.Minute

	horizon := horizonStart.UTC()
	day := time.Date(horizon.Year(), horizon.Month(), horizon.Day(), 0, 0, 0, 0, time.UTC)

	var out []Slot
	for d := 0; d < daysAhead; d++ {
		date := day.AddDate(0, 0, d)
		if !p.IncludeWeekends {
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
		}

		windowEnd := date.Add(time.Duration(p.WindowEndHour) * time.Hour)
		for start := date.Add(time.Duration(p.WindowStartHour) * time.Hour); ; start = start.Add(step) {
			end := start.Add(duration)
			if end.After(windowEnd) {
				break
			}
			if !start.After(horizon) {
				continue
			}
			if busy.Conflicts(start, end) {
				continue
			}
			out = append(out, Slot{Start: start, Duration: duration})
			if p.MaxResults > 0 && len(out) >= p.MaxResults {
				return out
			}
		}
	}

	return out
}
