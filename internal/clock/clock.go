// Package clock resolves the current calendar date from an external time
// API, falling back to the local system date whenever the lookup fails.
// The bot prefers the API because the host machine's clock and timezone are
// not trusted to match the audience's.
package clock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultURL is the worldtimeapi endpoint for the audience timezone.
const DefaultURL = "http://worldtimeapi.org/api/timezone/Europe/Moscow"

// Resolver fetches today's date from a time API.
type Resolver struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewResolver creates a Resolver for the given endpoint. An empty url uses
// DefaultURL.
func NewResolver(url string, timeout time.Duration, logger *slog.Logger) *Resolver {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "date_resolver"),
	}
}

// Today returns the current calendar date (midnight UTC). Any failure along
// the way (network, bad status, unexpected payload) degrades to the local
// system date; Today never fails.
func (r *Resolver) Today(ctx context.Context) time.Time {
	date, err := r.fetch(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Time API lookup failed, using system date", "url", r.url, "error", err)
		return dateOnly(time.Now())
	}
	r.logger.DebugContext(ctx, "Resolved current date from time API", "date", date.Format("2006-01-02"))
	return date
}

func (r *Resolver) fetch(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Datetime string `json:"datetime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode response: %w", err)
	}

	// Payload datetime looks like "2022-12-15T00:03:42.431581+03:00";
	// only the date prefix matters here.
	if len(payload.Datetime) < 10 {
		return time.Time{}, fmt.Errorf("unexpected datetime format %q", payload.Datetime)
	}
	date, err := time.Parse("2006-01-02", payload.Datetime[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse datetime %q: %w", payload.Datetime, err)
	}
	return date, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
