// Package client is a small SDK for the happyapp HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls the happyapp API.
type Client struct {
	baseURL string
	http    *resty.Client
}

// New constructs a Client for baseURL. Options are applied in order.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "happyctl/1.0").
			SetTimeout(30 * time.Second),
	}
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// do sends a request and decodes a 2xx body into out, or the error envelope into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*APIError)
		if apiErr == nil {
			apiErr = &APIError{}
		}
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return nil
}

func dayPath(date string) string { return "/api/days/" + date }

// Day fetches the bundle of date (YYYY-MM-DD).
func (c *Client) Day(ctx context.Context, date string) (DayBundle, error) {
	var b DayBundle
	err := c.do(ctx, http.MethodGet, dayPath(date), nil, &b)
	return b, err
}

// NextDay fetches the bundle of the day after date.
func (c *Client) NextDay(ctx context.Context, date string) (DayBundle, error) {
	var b DayBundle
	err := c.do(ctx, http.MethodGet, dayPath(date)+"/next", nil, &b)
	return b, err
}

// PrevDay fetches the bundle of the day before date.
func (c *Client) PrevDay(ctx context.Context, date string) (DayBundle, error) {
	var b DayBundle
	err := c.do(ctx, http.MethodGet, dayPath(date)+"/prev", nil, &b)
	return b, err
}

// AddTask appends a task to date.
func (c *Client) AddTask(ctx context.Context, date, text string) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPost, dayPath(date)+"/tasks", map[string]string{"text": text}, &t)
	return t, err
}

// ToggleTask flips the completed flag of task id.
func (c *Client) ToggleTask(ctx context.Context, date string, id int64) (Task, error) {
	var t Task
	err := c.do(ctx, http.MethodPatch, dayPath(date)+"/tasks/"+strconv.FormatInt(id, 10)+"/toggle", nil, &t)
	return t, err
}

// AddNote appends a note to date.
func (c *Client) AddNote(ctx context.Context, date, title, content string) (Note, error) {
	var n Note
	err := c.do(ctx, http.MethodPost, dayPath(date)+"/notes", map[string]string{"title": title, "content": content}, &n)
	return n, err
}

// Fact fetches the fact of the day for month/day.
func (c *Client) Fact(ctx context.Context, month, day int) (Fact, error) {
	var f Fact
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/facts/%d/%d", month, day), nil, &f)
	return f, err
}

// Almanac fetches fact, saint and proverb of date.
func (c *Client) Almanac(ctx context.Context, date string) (Almanac, error) {
	var a Almanac
	err := c.do(ctx, http.MethodGet, "/api/almanac/"+date, nil, &a)
	return a, err
}

// Medications lists medications with their taken flag for date.
func (c *Client) Medications(ctx context.Context, date string) ([]MedicationStatus, error) {
	var out struct {
		Medications []MedicationStatus `json:"medications"`
	}
	err := c.do(ctx, http.MethodGet, "/api/medications?date="+date, nil, &out)
	return out.Medications, err
}

// ToggleMedication marks or unmarks medication id as taken on date.
func (c *Client) ToggleMedication(ctx context.Context, id int64, date string) (MedicationStatus, error) {
	var st MedicationStatus
	err := c.do(ctx, http.MethodPost, "/api/medications/"+strconv.FormatInt(id, 10)+"/toggle?date="+date, nil, &st)
	return st, err
}

// JournalNote fetches the journal note of date; nil when none was written.
func (c *Client) JournalNote(ctx context.Context, date string) (*JournalNote, error) {
	var out struct {
		Note *JournalNote `json:"note"`
	}
	err := c.do(ctx, http.MethodGet, "/api/journal/today?date="+date, nil, &out)
	return out.Note, err
}

// WriteJournal saves today's journal note.
func (c *Client) WriteJournal(ctx context.Context, content string) (JournalNote, error) {
	var n JournalNote
	err := c.do(ctx, http.MethodPut, "/api/journal/today", map[string]string{"content": content}, &n)
	return n, err
}

// Health reports the service status.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var h HealthStatus
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}
