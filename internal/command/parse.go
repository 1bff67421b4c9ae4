// Package command turns free-text scheduling requests into a structured
// form without any network call. It is the deterministic fallback behind
// the AI interpreter: four independent best-effort scans over the same
// input, each field resolved on its own.
package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	naturaldate "github.com/tj/go-naturaldate"
)

// Request is a parsed scheduling command. Every field is optional; absence
// means unconstrained, not invalid.
type Request struct {
	EventName   string
	TargetDate  *Date
	TargetTime  *TimeOfDay
	Description string
}

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

type TimeOfDay struct {
	Hour   int
	Minute int
	// MinuteSet distinguishes "at 3:00" from "at 3".
	MinuteSet bool
}

var (
	nameRe    = regexp.MustCompile(`(?i)\bschedule\s+(?:(?:a|an|the)\s+)?(.+)$`)
	weekdayRe = regexp.MustCompile(`(?i)\b(?:on|this|next)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timeRe    = regexp.MustCompile(`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	nextRe    = regexp.MustCompile(`(?i)\bnext\b`)
	todayRe   = regexp.MustCompile(`(?i)\btoday\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse extracts a Request from a command like
// "schedule a dentist appointment on Friday at 3pm for checkup".
// now anchors relative dates.
func Parse(cmd string, now time.Time) Request {
	return Request{
		EventName:   parseName(cmd),
		TargetDate:  parseDate(cmd, now),
		TargetTime:  parseTime(cmd),
		Description: parseDescription(cmd),
	}
}

func parseName(cmd string) string {
	m := nameRe.FindStringSubmatch(cmd)
	if m == nil {
		return ""
	}
	name := m[1]

	// The name runs until the first connective that starts another clause.
	lower := strings.ToLower(name)
	cut := len(name)
	for _, sep := range []string{" on ", " at ", " for "} {
		if i := strings.Index(lower, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(name[:cut])
}

func parseDate(cmd string, now time.Time) *Date {
	m := weekdayRe.FindStringSubmatch(cmd)
	if m == nil {
		return relativeDate(cmd, now)
	}

	target := weekdays[strings.ToLower(m[1])]
	delta := (int(target) - int(now.Weekday()) + 7) % 7
	switch {
	case nextRe.MatchString(cmd):
		delta += 7
	case delta == 0 && !todayRe.MatchString(cmd):
		// A bare weekday that lands on today means the one a week out.
		delta += 7
	}

	d := now.AddDate(0, 0, delta)
	return &Date{Year: d.Year(), Month: d.Month(), Day: d.Day()}
}

// relativeDate handles phrases the weekday scan misses ("tomorrow", "in 3
// days") via naturaldate, biased toward the future. naturaldate returns the
// reference time untouched when it finds nothing to parse.
func relativeDate(cmd string, now time.Time) *Date {
	// Drop the time clause first so "at 5" alone can't shift the date.
	cmd = timeRe.ReplaceAllString(cmd, "")

	t, err := naturaldate.Parse(cmd, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil || t.Equal(now) {
		return nil
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return nil
	}
	return &Date{Year: y2, Month: m2, Day: d2}
}

func parseTime(cmd string) *TimeOfDay {
	m := timeRe.FindStringSubmatch(cmd)
	if m == nil {
		return nil
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return nil
	}
	minute, minuteSet := 0, false
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return nil
		}
		minuteSet = true
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		// "at 5" in a business context almost always means 17:00.
		if hour < 8 {
			hour += 12
		}
	}

	return &TimeOfDay{Hour: hour, Minute: minute, MinuteSet: minuteSet}
}

func parseDescription(cmd string) string {
	lower := strings.ToLower(cmd)
	idx, skip := -1, 0
	if i := strings.LastIndex(lower, " for "); i > idx {
		idx, skip = i, len(" for ")
	}
	if i := strings.LastIndex(lower, " to "); i > idx {
		idx, skip = i, len(" to ")
	}
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(cmd[idx+skip:])
}
