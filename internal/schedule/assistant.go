// Package schedule orchestrates one scheduling query end to end: fetch busy
// data, generate the candidate grid, rank it, and resolve free-text
// commands against it. Everything is computed synchronously per request
// from immutable snapshots; nothing is shared across requests.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/slotted/internal/calendar"
	"github.com/christopherklint97/slotted/internal/gcal"
	"github.com/christopherklint97/slotted/internal/interval"
	"github.com/christopherklint97/slotted/internal/resolve"
	"github.com/christopherklint97/slotted/internal/slots"
	"github.com/christopherklint97/slotted/internal/store"
)

// historyWindow is how far back event history is read for the preference
// summary.
const historyWindow = 30 * 24 * time.Hour

// historySyncKey records when the cached history was last refreshed, so a
// degraded run can say how stale its summary is.
const historySyncKey = "history_synced_at"

type Assistant struct {
	source    Source
	db        *store.DB // optional event-history cache
	resolver  *resolve.Resolver
	policy    slots.Policy
	daysAhead int
	logger    *slog.Logger
}

func NewAssistant(source Source, db *store.DB, resolver *resolve.Resolver, policy slots.Policy, daysAhead int, logger *slog.Logger) *Assistant {
	if daysAhead <= 0 {
		daysAhead = 7
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assistant{
		source:    source,
		db:        db,
		resolver:  resolver,
		policy:    policy,
		daysAhead: daysAhead,
		logger:    logger,
	}
}

// Availability is the computed view for one query. Degraded is set when the
// provider was unreachable and mock busy data was substituted; callers show
// a note, not an error.
type Availability struct {
	Slots    []slots.Slot
	Ranking  slots.Ranking
	Summary  string
	Degraded bool
}

// Availability fetches busy data and history and computes the candidate
// grid and ranking as of now.
func (a *Assistant) Availability(ctx context.Context, now time.Time) Availability {
	horizonEnd := now.Add(time.Duration(a.daysAhead) * 24 * time.Hour)

	av := Availability{}

	busy, err := a.source.Busy(ctx, now, horizonEnd)
	if err != nil {
		a.logger.Warn("calendar source unavailable, substituting mock busy data", "error", err)
		busy = mockBusy(now, a.daysAhead)
		av.Degraded = true
	}

	av.Summary = a.preferenceSummary(ctx, now)
	av.Slots = slots.Generate(now, a.daysAhead, busy, a.policy)
	av.Ranking = slots.Rank(av.Slots, av.Summary)

	a.logger.Debug("availability computed",
		"busy", len(busy),
		"candidates", len(av.Slots),
		"degraded", av.Degraded,
	)
	return av
}

// preferenceSummary derives the ranking bias from recent event history,
// falling back to the cached copy when the provider call fails.
func (a *Assistant) preferenceSummary(ctx context.Context, now time.Time) string {
	events, err := a.source.Events(ctx, now.Add(-historyWindow), now)
	if err != nil {
		a.logger.Warn("event history unavailable, using cached history",
			"error", err, "synced_at", a.lastHistorySync())
		events = a.cachedEvents()
	} else if a.db != nil {
		if cacheErr := a.db.ReplaceEvents(events); cacheErr != nil {
			a.logger.Warn("failed to cache event history", "error", cacheErr)
		} else if stateErr := a.db.SetState(historySyncKey, interval.Canonical(now)); stateErr != nil {
			a.logger.Warn("failed to record history sync time", "error", stateErr)
		}
	}
	return slots.Summarize(events)
}

// lastHistorySync reports when the cache was last refreshed, or "never".
func (a *Assistant) lastHistorySync() string {
	if a.db == nil {
		return "never"
	}
	ts, err := a.db.GetState(historySyncKey)
	if err != nil || ts == "" {
		return "never"
	}
	return ts
}

func (a *Assistant) cachedEvents() []calendar.Event {
	if a.db == nil {
		return nil
	}
	events, err := a.db.CachedEvents()
	if err != nil {
		a.logger.Warn("failed to read cached events", "error", err)
		return nil
	}
	return events
}

// Resolve computes availability and matches the free-text command against
// it. At most one best-effort interpreter call is made.
func (a *Assistant) Resolve(ctx context.Context, cmd string, now time.Time) (resolve.Result, Availability) {
	av := a.Availability(ctx, now)
	return a.resolver.Resolve(ctx, cmd, av.Slots, now), av
}

// Book creates the confirmed event on the calendar.
func (a *Assistant) Book(ctx context.Context, name, description string, start time.Time) (string, error) {
	if name == "" {
		name = "Meeting"
	}
	duration := time.Duration(a.policy.DurationMinutes) * time.Minute

	id, err := a.source.CreateEvent(ctx, gcal.EventRequest{
		Summary:     name,
		Description: description,
		Start:       start,
		End:         start.Add(duration),
	})
	if err != nil {
		return "", fmt.Errorf("booking slot: %w", err)
	}

	a.logger.Debug("event created", "id", id, "start", start)
	return id, nil
}
