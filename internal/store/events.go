package store

import (
	"fmt"
	"time"

	"github.com/christopherklint97/slotted/internal/calendar"
)

// ReplaceEvents swaps the cached event history for a freshly fetched one.
// The cache exists so the preference summary can still be derived when the
// calendar provider is unreachable.
func (db *DB) ReplaceEvents(events []calendar.Event) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return fmt.Errorf("clearing cached events: %w", err)
	}

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (summary, start_time, end_time) VALUES (?, ?, ?)",
			e.Summary,
			e.StartTime.UTC().Format(time.RFC3339),
			e.EndTime.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("caching event: %w", err)
		}
	}

	return tx.Commit()
}

// CachedEvents returns the cached history, oldest first.
func (db *DB) CachedEvents() ([]calendar.Event, error) {
	rows, err := db.Query("SELECT summary, start_time, end_time FROM events ORDER BY start_time ASC")
	if err != nil {
		return nil, fmt.Errorf("querying cached events: %w", err)
	}
	defer rows.Close()

	var events []calendar.Event
	for rows.Next() {
		var e calendar.Event
		var startStr, endStr string

		if err := rows.Scan(&e.Summary, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, startStr); err == nil {
			e.StartTime = t
		}
		if t, err := time.Parse(time.RFC3339, endStr); err == nil {
			e.EndTime = t
		}

		events = append(events, e)
	}

	return events, rows.Err()
}
