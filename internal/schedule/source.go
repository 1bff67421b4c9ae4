package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/christopherklint97/slotted/internal/calendar"
	"github.com/christopherklint97/slotted/internal/gcal"
	"github.com/christopherklint97/slotted/internal/interval"
)

// Source supplies busy data and event history and accepts event creation.
// Implementations: Google Calendar, an ICS feed, and the deterministic mock
// used when the provider is unreachable.
type Source interface {
	Busy(ctx context.Context, timeMin, timeMax time.Time) (interval.BusySet, error)
	Events(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, req gcal.EventRequest) (string, error)
}

// GoogleSource adapts the gcal client, resolving an AuthContext per call.
type GoogleSource struct {
	Auth   *gcal.Auth
	Client *gcal.Client
}

func (g *GoogleSource) Busy(ctx context.Context, timeMin, timeMax time.Time) (interval.BusySet, error) {
	auth, err := g.Auth.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	return g.Client.FreeBusy(ctx, auth, timeMin, timeMax)
}

func (g *GoogleSource) Events(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	auth, err := g.Auth.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	return g.Client.Events(ctx, auth, timeMin, timeMax)
}

func (g *GoogleSource) CreateEvent(ctx context.Context, req gcal.EventRequest) (string, error) {
	auth, err := g.Auth.Authenticated(ctx)
	if err != nil {
		return "", err
	}
	return g.Client.CreateEvent(ctx, auth, req)
}

// ICSSource serves busy data from an iCalendar URL or file. It is read-only.
type ICSSource struct {
	Location string
}

func (s *ICSSource) Busy(ctx context.Context, timeMin, timeMax time.Time) (interval.BusySet, error) {
	events, err := calendar.FetchICS(ctx, s.Location, timeMin, timeMax)
	if err != nil {
		return nil, err
	}
	return calendar.BusyWindows(events), nil
}

func (s *ICSSource) Events(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	return calendar.FetchICS(ctx, s.Location, timeMin, timeMax)
}

func (s *ICSSource) CreateEvent(ctx context.Context, req gcal.EventRequest) (string, error) {
	return "", fmt.Errorf("ICS source %q is read-only — configure a Google calendar to create events", s.Location)
}
