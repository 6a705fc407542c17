// Package api fetches daily schedules from the myquran.com v2 API.
//
// The client returns the raw payload so callers can persist it untouched;
// ParsePayload turns a payload into provider timings.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.myquran.com/v2"

	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 5 * time.Second

	maxPayloadBytes = 1 << 20
)

// ErrUpstream marks any failure attributable to the remote source:
// transport errors, non-200 responses and malformed payloads.
var ErrUpstream = errors.New("remote schedule source failed")

// Client talks to the schedule API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	// BaseURL is the API base URL. Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a client with a per-request timeout and a limiter of
// five requests per second, which keeps month listings polite.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		BaseURL:    defaultBaseURL,
	}
}

// FetchSchedule returns the raw payload for a location and date. The payload
// has been checked to decode and to report success, nothing more.
func (c *Client) FetchSchedule(ctx context.Context, locationID string, date time.Time) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "rate limiter"), ErrUpstream)
	}

	endpoint := fmt.Sprintf("%s/sholat/jadwal/%s/%s",
		c.BaseURL, url.PathEscape(locationID), date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "API request failed"), ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "read response"), ErrUpstream)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Mark(
			errors.Newf("API returned status %d: %s", resp.StatusCode, truncate(body, 200)),
			ErrUpstream)
	}

	if _, err := ParsePayload(body); err != nil {
		return nil, err
	}
	return body, nil
}

// ParsePayload decodes a payload and returns its timings, keyed as the
// provider sent them.
func ParsePayload(raw []byte) (map[string]string, error) {
	var r Response
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to decode API response"), ErrUpstream)
	}
	if !r.Status {
		msg := r.Message
		if msg == "" {
			msg = "status false"
		}
		return nil, errors.Mark(errors.Newf("API error: %s", msg), ErrUpstream)
	}
	timings := r.Data.Jadwal.Timings()
	if len(timings) == 0 {
		return nil, errors.Mark(errors.New("API response has no schedule"), ErrUpstream)
	}
	return timings, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
