// Package resolve picks a concrete slot for a free-text scheduling command.
// It tries the AI interpreter first and verifies whatever comes back against
// the locally generated candidate set; on any interpreter failure or
// out-of-set suggestion it falls back to deterministic command parsing.
package resolve

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/slotted/internal/ai"
	"github.com/christopherklint97/slotted/internal/command"
	"github.com/christopherklint97/slotted/internal/interval"
	"github.com/christopherklint97/slotted/internal/slots"
)

// interpreterBasisShift compensates a known two-hour discrepancy between
// the time basis the interpreter renders and the provider's stored UTC
// instants. Applied in exactly one place, to interpreter-confirmed slots
// only; locally matched slots are never shifted.
// TODO: drop this once the upstream basis mismatch is confirmed fixed.
const interpreterBasisShift = 2 * time.Hour

// maxCandidatesShown bounds the slot list rendered into the prompt.
const maxCandidatesShown = 20

// Result is the outcome of resolving one command. A nil FoundSlot means the
// user has to pick manually; Message is always set.
type Result struct {
	FoundSlot   *time.Time
	EventName   string
	Description string
	Message     string
}

type Resolver struct {
	interp ai.Interpreter
	logger *slog.Logger
}

func New(interp ai.Interpreter, logger *slog.Logger) *Resolver {
	if interp == nil {
		interp = ai.Disabled{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{interp: interp, logger: logger}
}

// Resolve matches the command to one of the candidates. now anchors
// relative dates in the fallback parser.
func (r *Resolver) Resolve(ctx context.Context, cmd string, candidates []slots.Slot, now time.Time) Result {
	if res, ok := r.tryInterpreter(ctx, cmd, candidates); ok {
		return res
	}
	return r.fallback(cmd, candidates, now)
}

func (r *Resolver) tryInterpreter(ctx context.Context, cmd string, candidates []slots.Slot) (Result, bool) {
	rendered := make([]string, 0, maxCandidatesShown)
	for _, s := range candidates {
		rendered = append(rendered, interval.Canonical(s.Start))
		if len(rendered) == maxCandidatesShown {
			break
		}
	}

	suggestion, err := r.interp.Interpret(ctx, cmd, rendered)
	if err != nil {
		r.logger.Debug("interpreter unavailable, using local parser", "error", err)
		return Result{}, false
	}
	if suggestion == nil || suggestion.FoundSlot == "" {
		r.logger.Debug("interpreter found no matching slot")
		return Result{}, false
	}

	suggested, err := interval.ParseInstant(suggestion.FoundSlot)
	if err != nil {
		r.logger.Warn("interpreter returned unparsable slot", "slot", suggestion.FoundSlot)
		return Result{}, false
	}

	// The model can fabricate plausible-looking times; only an exact member
	// of the generated candidate set is ever accepted.
	if !isCandidate(candidates, suggested) {
		r.logger.Warn("interpreter suggested a slot outside the candidate set, discarding",
			"slot", interval.Canonical(suggested))
		return Result{}, false
	}

	confirmed := suggested.Add(interpreterBasisShift)
	return Result{
		FoundSlot:   &confirmed,
		EventName:   suggestion.EventName,
		Description: suggestion.EventDescription,
		Message:     foundMessage(suggestion.EventName, confirmed),
	}, true
}

func (r *Resolver) fallback(cmd string, candidates []slots.Slot, now time.Time) Result {
	req := command.Parse(cmd, now)

	for _, s := range candidates {
		if !matches(s, req) {
			continue
		}
		start := s.Start
		return Result{
			FoundSlot:   &start,
			EventName:   req.EventName,
			Description: req.Description,
			Message:     foundMessage(req.EventName, start),
		}
	}

	return Result{
		EventName:   req.EventName,
		Description: req.Description,
		Message:     notFoundMessage(req.EventName),
	}
}

// matches applies the fallback tolerance: the date must be exact when
// requested, the hour within two, and the minute within thirty when one was
// actually given.
func matches(s slots.Slot, req command.Request) bool {
	start := s.Start.UTC()

	if d := req.TargetDate; d != nil {
		if start.Year() != d.Year || start.Month() != d.Month || start.Day() != d.Day {
			return false
		}
	}
	if t := req.TargetTime; t != nil {
		if abs(start.Hour()-t.Hour) > 2 {
			return false
		}
		if t.MinuteSet && abs(start.Minute()-t.Minute) > 30 {
			return false
		}
	}
	return true
}

func isCandidate(candidates []slots.Slot, t time.Time) bool {
	want := interval.Canonical(t)
	for _, s := range candidates {
		if interval.Canonical(s.Start) == want {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func foundMessage(name string, t time.Time) string {
	return fmt.Sprintf("Found a slot for '%s' on %s. Click 'Schedule Event' to confirm.",
		name, t.UTC().Format("Monday, January 2 at 3:04 PM"))
}

func notFoundMessage(name string) string {
	return fmt.Sprintf("Could not find an available slot for '%s' on the requested date/time. Please select a date and time manually.", name)
}
