package resolve

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/christopherklint97/slotted/internal/ai"
	"github.com/christopherklint97/slotted/internal/interval"
	"github.com/christopherklint97/slotted/internal/slots"
)

// anchor is Tuesday, 2025-04-08 08:00 UTC.
var anchor = time.Date(2025, time.April, 8, 8, 0, 0, 0, time.UTC)

// fakeInterpreter returns a canned suggestion, or an error when failing is set.
type fakeInterpreter struct {
	suggestion *ai.Suggestion
	failing    bool
	gotSlots   []string
}

func (f *fakeInterpreter) Interpret(ctx context.Context, command string, candidates []string) (*ai.Suggestion, error) {
	f.gotSlots = candidates
	if f.failing {
		return nil, fmt.Errorf("interpreter down")
	}
	return f.suggestion, nil
}

func hourlySlots(start time.Time, n int) []slots.Slot {
	out := make([]slots.Slot, n)
	for i := range out {
		out[i] = slots.Slot{Start: start.Add(time.Duration(i) * time.Hour), Duration: time.Hour}
	}
	return out
}

func TestResolve_AcceptsVerifiedSuggestionWithBasisShift(t *testing.T) {
	candidates := hourlySlots(anchor.Add(2*time.Hour), 5) // 10:00..14:00
	chosen := candidates[2].Start                         // 12:00

	interp := &fakeInterpreter{suggestion: &ai.Suggestion{
		FoundSlot:        interval.Canonical(chosen),
		EventName:        "design review",
		EventDescription: "weekly sync",
	}}

	result := New(interp, nil).Resolve(context.Background(), "schedule a design review", candidates, anchor)

	if result.FoundSlot == nil {
		t.Fatal("expected a found slot")
	}
	if want := chosen.Add(interpreterBasisShift); !result.FoundSlot.Equal(want) {
		t.Errorf("found slot = %v, want %v (basis-shifted)", result.FoundSlot, want)
	}
	if result.EventName != "design review" || result.Description != "weekly sync" {
		t.Errorf("name/description not carried through: %+v", result)
	}
	if !strings.Contains(result.Message, "Found a slot for 'design review'") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if !strings.Contains(result.Message, "Click 'Schedule Event' to confirm.") {
		t.Errorf("message missing confirm suffix: %q", result.Message)
	}
}

func TestResolve_AcceptsNumericOffsetForm(t *testing.T) {
	candidates := hourlySlots(anchor.Add(2*time.Hour), 3)

	// Same instant as candidates[0], rendered with +00:00 instead of Z.
	interp := &fakeInterpreter{suggestion: &ai.Suggestion{
		FoundSlot: candidates[0].Start.Format("2006-01-02T15:04:05+00:00"),
		EventName: "standup",
	}}

	result := New(interp, nil).Resolve(context.Background(), "schedule a standup", candidates, anchor)

	if result.FoundSlot == nil {
		t.Fatal("offset-normalized equal instant must be accepted")
	}
}

func TestResolve_DiscardsFabricatedSuggestion(t *testing.T) {
	candidates := hourlySlots(anchor.Add(2*time.Hour), 3)

	// Plausible but unavailable: 03:00 is outside the candidate set.
	interp := &fakeInterpreter{suggestion: &ai.Suggestion{
		FoundSlot: "2025-04-08T03:00:00Z",
		EventName: "call",
	}}

	result := New(interp, nil).Resolve(context.Background(), "please schedule a call", candidates, anchor)

	if result.FoundSlot != nil {
		for _, s := range candidates {
			if result.FoundSlot.Equal(s.Start) {
				return
			}
		}
		t.Fatalf("resolver returned a non-candidate slot %v", result.FoundSlot)
	}
}

func TestResolve_InterpreterFailureFallsBack(t *testing.T) {
	// Candidates on Friday 2025-04-11, 13:00..17:00.
	friday := time.Date(2025, time.April, 11, 13, 0, 0, 0, time.UTC)
	candidates := hourlySlots(friday, 5)

	interp := &fakeInterpreter{failing: true}
	result := New(interp, nil).Resolve(context.Background(),
		"schedule a dentist appointment on Friday at 3pm for checkup", candidates, anchor)

	if result.FoundSlot == nil {
		t.Fatal("fallback should find a Friday slot near 15:00")
	}
	// 13:00 is the first candidate within two hours of 15:00.
	if !result.FoundSlot.Equal(friday) {
		t.Errorf("found slot = %v, want first in-window match %v", result.FoundSlot, friday)
	}
	if result.EventName != "dentist appointment" {
		t.Errorf("name = %q, want 'dentist appointment'", result.EventName)
	}
	if result.Description != "checkup" {
		t.Errorf("description = %q, want 'checkup'", result.Description)
	}
}

func TestResolve_FallbackDateMustMatchExactly(t *testing.T) {
	// Candidates only on Thursday the 10th; the command asks for Friday.
	thursday := time.Date(2025, time.April, 10, 13, 0, 0, 0, time.UTC)
	candidates := hourlySlots(thursday, 5)

	result := New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a call on Friday at 2pm", candidates, anchor)

	if result.FoundSlot != nil {
		t.Fatalf("no candidate is on the requested date, got %v", result.FoundSlot)
	}
	if !strings.Contains(result.Message, "select a date and time manually") {
		t.Errorf("expected manual-selection message, got %q", result.Message)
	}
}

func TestResolve_FallbackHourTolerance(t *testing.T) {
	friday := time.Date(2025, time.April, 11, 9, 0, 0, 0, time.UTC)
	candidates := hourlySlots(friday, 2) // 09:00, 10:00

	result := New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a call on Friday at 5pm", candidates, anchor)

	// 17:00 is more than two hours from both candidates.
	if result.FoundSlot != nil {
		t.Fatalf("candidates too far from requested hour, got %v", result.FoundSlot)
	}
}

func TestResolve_FallbackMinuteTolerance(t *testing.T) {
	friday := time.Date(2025, time.April, 11, 14, 0, 0, 0, time.UTC)
	candidates := []slots.Slot{{Start: friday, Duration: time.Hour}}

	// 15:45 requested: the hour is within two of 14:00, but the explicit
	// minute is 45 away from :00, past the 30-minute tolerance.
	result := New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a call on Friday at 3:45pm", candidates, anchor)
	if result.FoundSlot != nil {
		t.Fatalf("minute tolerance should reject :00 vs :45, got %v", result.FoundSlot)
	}

	// Without an explicit minute the 30-minute rule does not apply.
	result = New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a call on Friday at 3pm", candidates, anchor)
	if result.FoundSlot == nil {
		t.Fatal("hour-only request within tolerance should match")
	}
}

func TestResolve_UnconstrainedCommandTakesFirstSlot(t *testing.T) {
	candidates := hourlySlots(anchor.Add(2*time.Hour), 3)

	result := New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a quick chat", candidates, anchor)

	if result.FoundSlot == nil || !result.FoundSlot.Equal(candidates[0].Start) {
		t.Errorf("unconstrained request should take the earliest slot, got %v", result.FoundSlot)
	}
}

func TestResolve_CandidateListTruncatedForInterpreter(t *testing.T) {
	candidates := hourlySlots(anchor.Add(time.Hour), 40)
	interp := &fakeInterpreter{failing: true}

	New(interp, nil).Resolve(context.Background(), "schedule a chat", candidates, anchor)

	if len(interp.gotSlots) != maxCandidatesShown {
		t.Errorf("interpreter saw %d candidates, want %d", len(interp.gotSlots), maxCandidatesShown)
	}
}

func TestResolve_NilInterpreterUsesFallback(t *testing.T) {
	candidates := hourlySlots(anchor.Add(2*time.Hour), 3)

	result := New(nil, nil).Resolve(context.Background(), "schedule a chat", candidates, anchor)

	if result.FoundSlot == nil {
		t.Fatal("nil interpreter must still resolve via the local parser")
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	result := New(&fakeInterpreter{failing: true}, nil).Resolve(context.Background(),
		"schedule a chat", nil, anchor)

	if result.FoundSlot != nil {
		t.Fatalf("no candidates, got %v", result.FoundSlot)
	}
	if result.Message == "" {
		t.Error("message must always be set")
	}
}

func TestMessageFormats(t *testing.T) {
	at := time.Date(2025, time.April, 11, 15, 0, 0, 0, time.UTC)

	got := foundMessage("dentist appointment", at)
	want := "Found a slot for 'dentist appointment' on Friday, April 11 at 3:00 PM. Click 'Schedule Event' to confirm."
	if got != want {
		t.Errorf("found message:\n got %q\nwant %q", got, want)
	}

	got = notFoundMessage("dentist appointment")
	want = "Could not find an available slot for 'dentist appointment' on the requested date/time. Please select a date and time manually."
	if got != want {
		t.Errorf("not-found message:\n got %q\nwant %q", got, want)
	}
}
