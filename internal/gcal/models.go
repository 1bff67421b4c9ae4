package gcal

import "time"

// EventRequest is the shape for creating an event on the primary calendar.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []busyPeriod `json:"busy"`
	} `json:"calendars"`
}

type busyPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type eventListResponse struct {
	Items []eventResource `json:"items"`
}

type eventResource struct {
	ID          string        `json:"id,omitempty"`
	Status      string        `json:"status,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}
