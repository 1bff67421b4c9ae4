package slots

import (
	"testing"
	"time"

	"github.com/christopherklint97/slotted/internal/interval"
)

func utc(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := interval.ParseInstant(s)
	if err != nil {
		t.Fatalf("bad instant %q: %v", s, err)
	}
	return ts
}

func starts(generated []Slot) []string {
	out := make([]string, len(generated))
	for i, s := range generated {
		out[i] = interval.Canonical(s.Start)
	}
	return out
}

func TestGenerate_ExcludesBusyAndKeepsBoundaries(t *testing.T) {
	// 2025-04-09 is a Wednesday. One busy hour 09:00–10:00; the 10:00 slot
	// starting exactly at the busy end must survive.
	busy := interval.Merge([]interval.Interval{
		{Start: utc(t, "2025-04-09T09:00:00Z"), End: utc(t, "2025-04-09T10:00:00Z")},
	})
	horizon := utc(t, "2025-04-09T08:00:00Z")

	got := Generate(horizon, 1, busy, DefaultPolicy())

	// Grid is 09:00..18:00 in half-hour steps (19 starts); 09:00 and 09:30
	// collide with the busy hour.
	if len(got) != 17 {
		t.Fatalf("expected 17 slots, got %d: %v", len(got), starts(got))
	}
	if s := interval.Canonical(got[0].Start); s != "2025-04-09T10:00:00Z" {
		t.Errorf("first slot = %s, want 10:00Z", s)
	}
	if s := interval.Canonical(got[len(got)-1].Start); s != "2025-04-09T18:00:00Z" {
		t.Errorf("last slot = %s, want 18:00Z", s)
	}
	for _, s := range got {
		if busy.Conflicts(s.Start, s.End()) {
			t.Errorf("generated slot %s conflicts with busy data", interval.Canonical(s.Start))
		}
	}
}

func TestGenerate_StrictFutureOnly(t *testing.T) {
	horizon := utc(t, "2025-04-09T10:00:00Z")

	got := Generate(horizon, 1, nil, DefaultPolicy())

	for _, s := range got {
		if !s.Start.After(horizon) {
			t.Errorf("slot %s is not strictly after the horizon start", interval.Canonical(s.Start))
		}
	}
	// The 10:00 slot equals the horizon and must be dropped; 10:30 is first.
	if s := interval.Canonical(got[0].Start); s != "2025-04-09T10:30:00Z" {
		t.Errorf("first slot = %s, want 10:30Z", s)
	}
}

func TestGenerate_SlotEndStaysInsideWindow(t *testing.T) {
	p := DefaultPolicy()
	p.WindowEndHour = 17

	got := Generate(utc(t, "2025-04-09T08:00:00Z"), 1, nil, p)

	last := got[len(got)-1]
	if h := last.End().UTC().Hour(); h > 17 {
		t.Errorf("slot end %v exceeds the window end", last.End())
	}
	if s := interval.Canonical(last.Start); s != "2025-04-09T16:00:00Z" {
		t.Errorf("last slot = %s, want 16:00Z for a 17:00 window end", s)
	}
}

func TestGenerate_Ascending(t *testing.T) {
	got := Generate(utc(t, "2025-04-09T08:00:00Z"), 3, nil, DefaultPolicy())

	for i := 1; i < len(got); i++ {
		if !got[i-1].Start.Before(got[i].Start) {
			t.Fatalf("slots out of order at %d: %s then %s",
				i, interval.Canonical(got[i-1].Start), interval.Canonical(got[i].Start))
		}
	}
}

func TestGenerate_WeekendPolicy(t *testing.T) {
	// 2025-04-11 is a Friday; three days ahead covers Fri, Sat, Sun.
	horizon := utc(t, "2025-04-11T08:00:00Z")

	p := DefaultPolicy()
	p.IncludeWeekends = false
	weekdaysOnly := Generate(horizon, 3, nil, p)
	for _, s := range weekdaysOnly {
		if wd := s.Start.UTC().Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("weekday-only policy produced a %s slot", wd)
		}
	}

	withWeekends := Generate(horizon, 3, nil, DefaultPolicy())
	if len(withWeekends) <= len(weekdaysOnly) {
		t.Errorf("weekend-inclusive policy should produce more slots (%d vs %d)",
			len(withWeekends), len(weekdaysOnly))
	}
}

func TestGenerate_ResultCap(t *testing.T) {
	p := DefaultPolicy()
	p.MaxResults = 5

	got := Generate(utc(t, "2025-04-09T08:00:00Z"), 7, nil, p)
	if len(got) != 5 {
		t.Errorf("expected cap of 5 slots, got %d", len(got))
	}
}

func TestGenerate_DegeneratePolicyProducesNothing(t *testing.T) {
	horizon := utc(t, "2025-04-09T08:00:00Z")

	zeroStep := DefaultPolicy()
	zeroStep.StepMinutes = 0
	negStep := DefaultPolicy()
	negStep.StepMinutes = -30
	zeroDuration := DefaultPolicy()
	zeroDuration.DurationMinutes = 0
	inverted := DefaultPolicy()
	inverted.WindowStartHour, inverted.WindowEndHour = 19, 9

	for _, p := range []Policy{zeroStep, negStep, zeroDuration, inverted} {
		done := make(chan []Slot, 1)
		go func() { done <- Generate(horizon, 1, nil, p) }()

		select {
		case got := <-done:
			if len(got) != 0 {
				t.Errorf("policy %+v produced %d slots, want none", p, len(got))
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Generate did not terminate for policy %+v", p)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should validate, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"zero step", func(p *Policy) { p.StepMinutes = 0 }},
		{"negative step", func(p *Policy) { p.StepMinutes = -15 }},
		{"zero duration", func(p *Policy) { p.DurationMinutes = 0 }},
		{"inverted window", func(p *Policy) { p.WindowStartHour, p.WindowEndHour = 19, 9 }},
		{"negative window start", func(p *Policy) { p.WindowStartHour = -1 }},
		{"window end past midnight", func(p *Policy) { p.WindowEndHour = 25 }},
	}
	for _, tc := range cases {
		p := DefaultPolicy()
		tc.mutate(&p)
		if p.Validate() == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	busy := interval.Merge([]interval.Interval{
		{Start: utc(t, "2025-04-09T11:00:00Z"), End: utc(t, "2025-04-09T12:30:00Z")},
	})
	horizon := utc(t, "2025-04-09T08:00:00Z")

	a := Generate(horizon, 2, busy, DefaultPolicy())
	b := Generate(horizon, 2, busy, DefaultPolicy())

	if len(a) != len(b) {
		t.Fatalf("two identical generations differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) {
			t.Fatalf("generation not deterministic at %d", i)
		}
	}
}
