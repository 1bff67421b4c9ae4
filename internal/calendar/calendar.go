package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/slotted/internal/interval"
)

// Event is a calendar event in the provider-neutral shape shared by the
// Google and ICS sources.
type Event struct {
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

// FetchICS retrieves and parses iCalendar events from a URL or file path,
// returning events that overlap the given window. Cancelled events and
// events without usable times are skipped.
func FetchICS(ctx context.Context, source string, windowStart, windowEnd time.Time) ([]Event, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			if status, _ := event.Props.Text(ical.PropStatus); status == "CANCELLED" {
				continue
			}

			start, err := event.DateTimeStart(time.UTC)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(time.UTC)
			if err != nil || !end.After(start) {
				continue
			}

			if start.Before(windowEnd) && end.After(windowStart) {
				summary, _ := event.Props.Text(ical.PropSummary)
				events = append(events, Event{
					Summary:   summary,
					StartTime: start,
					EndTime:   end,
				})
			}
		}
	}

	return events, nil
}

// BusyWindows converts events into the merged busy cover the slot generator
// consumes.
func BusyWindows(events []Event) interval.BusySet {
	ivs := make([]interval.Interval, 0, len(events))
	for _, e := range events {
		ivs = append(ivs, interval.Interval{Start: e.StartTime.UTC(), End: e.EndTime.UTC()})
	}
	return interval.Merge(ivs)
}
