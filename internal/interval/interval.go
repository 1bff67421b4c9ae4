package interval

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Interval is a half-open busy range [Start, End) reported by a calendar
// source. Start is never after End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// BusySet is a sorted, merged sequence of intervals. No two members overlap
// or touch; it is read-only once built by Merge.
type BusySet []Interval

// ParseInstant parses an ISO-8601 instant. "Z" and "+00:00" are
// interchangeable, and a value with no offset at all is taken as UTC.
// Calendar providers mix all three forms in the same response, so callers
// must go through this before any comparison.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty instant")
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse instant %q", s)
}

// Canonical renders t in the single comparable form used everywhere: UTC
// RFC 3339 with a "Z" suffix. Two instants are the same slot identity iff
// their canonical strings are equal.
func Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Merge sorts the input by start and folds overlapping or touching
// intervals into maximal runs, producing the minimal non-overlapping cover.
// An empty input yields an empty BusySet.
func Merge(ivs []Interval) BusySet {
	if len(ivs) == 0 {
		return nil
	}

	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := BusySet{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// Overlaps reports whether a slot [slotStart, slotEnd) collides with the
// interval. The three cases are checked separately so the boundary rule
// stays exact: a slot ending at iv.Start or starting at iv.End is free.
func (iv Interval) Overlaps(slotStart, slotEnd time.Time) bool {
	// Slot starts inside the interval.
	if !slotStart.Before(iv.Start) && slotStart.Before(iv.End) {
		return true
	}
	// Slot ends inside the interval.
	if slotEnd.After(iv.Start) && !slotEnd.After(iv.End) {
		return true
	}
	// Slot fully contains the interval.
	if !slotStart.After(iv.Start) && !slotEnd.Before(iv.End) {
		return true
	}
	return false
}

// Conflicts reports whether any member of the set overlaps the slot.
func (b BusySet) Conflicts(slotStart, slotEnd time.Time) bool {
	for _, iv := range b {
		if iv.Overlaps(slotStart, slotEnd) {
			return true
		}
	}
	return false
}
