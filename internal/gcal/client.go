package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/christopherklint97/slotted/internal/calendar"
	"github.com/christopherklint97/slotted/internal/interval"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client talks to the Google Calendar API for the primary calendar. Every
// call takes the AuthContext for the current request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// retryDelay is swapped out in tests to avoid real backoff sleeps.
	retryDelay func(attempt int) time.Duration
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		retryDelay: backoff,
	}
}

// FreeBusy queries busy ranges for [timeMin, timeMax) and returns them as a
// merged BusySet.
func (c *Client) FreeBusy(ctx context.Context, auth AuthContext, timeMin, timeMax time.Time) (interval.BusySet, error) {
	body := freeBusyRequest{
		TimeMin: interval.Canonical(timeMin),
		TimeMax: interval.Canonical(timeMax),
		Items:   []freeBusyItem{{ID: "primary"}},
	}

	data, err := c.doRequest(ctx, auth, http.MethodPost, "/freeBusy", body)
	if err != nil {
		return nil, fmt.Errorf("querying freebusy: %w", err)
	}

	var fbResp freeBusyResponse
	if err := json.Unmarshal(data, &fbResp); err != nil {
		return nil, fmt.Errorf("parsing freebusy response: %w", err)
	}

	var ivs []interval.Interval
	for _, period := range fbResp.Calendars["primary"].Busy {
		start, err := interval.ParseInstant(period.Start)
		if err != nil {
			c.logger.Debug("skipping busy period with unparseable start", "start", period.Start, "error", err)
			continue
		}
		end, err := interval.ParseInstant(period.End)
		if err != nil {
			c.logger.Debug("skipping busy period with unparseable end", "end", period.End, "error", err)
			continue
		}
		ivs = append(ivs, interval.Interval{Start: start, End: end})
	}

	busy := interval.Merge(ivs)
	c.logger.Debug("freebusy fetched", "periods", len(ivs), "merged", len(busy))
	return busy, nil
}

// Events lists non-all-day events on the primary calendar for the window,
// expanded to single instances, ordered by start.
func (c *Client) Events(ctx context.Context, auth AuthContext, timeMin, timeMax time.Time) ([]calendar.Event, error) {
	params := url.Values{
		"timeMin":      {interval.Canonical(timeMin)},
		"timeMax":      {interval.Canonical(timeMax)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {"250"},
	}

	path := "/calendars/primary/events?" + params.Encode()
	data, err := c.doRequest(ctx, auth, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	var listResp eventListResponse
	if err := json.Unmarshal(data, &listResp); err != nil {
		return nil, fmt.Errorf("parsing events response: %w", err)
	}

	var events []calendar.Event
	for _, item := range listResp.Items {
		if item.Status == "cancelled" {
			continue
		}
		// All-day events carry only a date; they don't block meeting slots.
		if item.Start.DateTime == "" || item.End.DateTime == "" {
			continue
		}

		start, err := interval.ParseInstant(item.Start.DateTime)
		if err != nil {
			c.logger.Debug("skipping event with unparseable start", "summary", item.Summary, "error", err)
			continue
		}
		end, err := interval.ParseInstant(item.End.DateTime)
		if err != nil {
			c.logger.Debug("skipping event with unparseable end", "summary", item.Summary, "error", err)
			continue
		}

		events = append(events, calendar.Event{
			Summary:   item.Summary,
			StartTime: start,
			EndTime:   end,
		})
	}

	c.logger.Debug("calendar events fetched", "count", len(events))
	return events, nil
}

// CreateEvent inserts an event on the primary calendar and returns its id.
func (c *Client) CreateEvent(ctx context.Context, auth AuthContext, req EventRequest) (string, error) {
	body := eventResource{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       eventDateTime{DateTime: interval.Canonical(req.Start)},
		End:         eventDateTime{DateTime: interval.Canonical(req.End)},
	}

	data, err := c.doRequest(ctx, auth, http.MethodPost, "/calendars/primary/events", body)
	if err != nil {
		return "", fmt.Errorf("creating event: %w", err)
	}

	var created eventResource
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("parsing create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create response missing event id")
	}

	return created.ID, nil
}

func (c *Client) doRequest(ctx context.Context, auth AuthContext, method, path string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	c.logger.Debug("calendar API request", "method", method, "path", path)

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Build a fresh request each attempt; a reused body reader would
		// already be drained after the first send.
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries {
				c.logger.Error("API request transport error", "method", method, "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
			time.Sleep(c.retryDelay(attempt))
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("API request failed after retries", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("API request retryable error", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			time.Sleep(c.retryDelay(attempt))
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("calendar API response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return respBody, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
