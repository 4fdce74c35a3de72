// Package postgrest implements rowstore.Store against a Supabase/PostgREST endpoint.
package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
)

const driverName = "postgrest"

// Options configure a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// BaseBackoff is the first retry delay; zero means 200ms.
	BaseBackoff time.Duration
}

// Client talks to {BaseURL}/rest/v1/{table}.
type Client struct {
	http       *resty.Client
	maxRetries int
	base       time.Duration
	log        zerolog.Logger
}

var _ rowstore.Store = (*Client)(nil)

// New creates a PostgREST client authenticated with the anon key.
func New(opts Options, log zerolog.Logger) *Client {
	to := opts.Timeout
	if to <= 0 {
		to = 10 * time.Second
	}
	base := opts.BaseBackoff
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/rest/v1").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", opts.APIKey).
		SetAuthToken(opts.APIKey).
		SetTimeout(to)
	return &Client{http: c, maxRetries: opts.MaxRetries, base: base, log: log}
}

// get issues an idempotent GET, retrying recoverable failures with exponential backoff.
func (c *Client) get(ctx context.Context, table string, query map[string]string, out any) error {
	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	return c.getValues(ctx, table, values, out)
}

// getValues is get for queries that repeat a column, such as range filters.
func (c *Client) getValues(ctx context.Context, table string, query url.Values, out any) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.base
	exp.Multiplier = 2
	exp.MaxInterval = 5 * time.Second
	exp.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(c.maxRetries, 0))), ctx)

	attempt := 0
	op := func() error {
		attempt++
		resp, err := c.http.R().SetContext(ctx).SetQueryParamsFromValues(query).Get("/" + table)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.log.Warn().Err(err).Str("table", table).Int("attempt", attempt).Msg("row store request failed")
			return fmt.Errorf("list %s: %w", table, err)
		}
		if resp.StatusCode() != http.StatusOK {
			se := &rowstore.StatusError{Op: "list " + table, StatusCode: resp.StatusCode(), Body: resp.String()}
			if !se.Recoverable() {
				return backoff.Permanent(se)
			}
			c.log.Warn().Int("status", resp.StatusCode()).Str("table", table).Int("attempt", attempt).Msg("row store request failed")
			return se
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s: %w", table, err))
		}
		return nil
	}

	err := backoff.Retry(op, policy)
	rowstore.Observe(driverName, table, err)
	if err != nil {
		return upstream(err)
	}
	return nil
}

// write issues a non-idempotent request once and decodes the returned representation.
func (c *Client) write(ctx context.Context, method, table string, query map[string]string, body, out any) error {
	return c.writePrefer(ctx, method, table, "return=representation", query, body, out)
}

func (c *Client) writePrefer(ctx context.Context, method, table, prefer string, query map[string]string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", prefer).
		SetQueryParams(query)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, "/"+table)
	if err != nil {
		rowstore.Observe(driverName, table, err)
		return upstream(fmt.Errorf("%s %s: %w", strings.ToLower(method), table, err))
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		se := &rowstore.StatusError{Op: strings.ToLower(method) + " " + table, StatusCode: resp.StatusCode(), Body: resp.String()}
		rowstore.Observe(driverName, table, se)
		if resp.StatusCode() == http.StatusBadRequest {
			return model.NewValidationError(table, resp.String())
		}
		return upstream(se)
	}
	rowstore.Observe(driverName, table, nil)
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return upstream(fmt.Errorf("decode %s: %w", table, err))
	}
	return nil
}

func upstream(err error) error {
	return model.UpstreamError{Service: "row store", Err: err}
}

func eq(v any) string { return fmt.Sprintf("eq.%v", v) }

func idFilter(id int64) map[string]string {
	return map[string]string{"id": eq(strconv.FormatInt(id, 10))}
}

func (c *Client) ListMedications(ctx context.Context) ([]model.Medication, error) {
	var rows []model.Medication
	err := c.get(ctx, rowstore.TableMedications, map[string]string{
		"select": "*",
		"order":  "schedule_time.asc",
	}, &rows)
	return rows, err
}

type medicationRow struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ScheduleTime string `json:"schedule_time"`
}

func (c *Client) InsertMedication(ctx context.Context, name, description, scheduleTime string) (model.Medication, error) {
	var rows []model.Medication
	body := []medicationRow{{Name: name, Description: description, ScheduleTime: scheduleTime}}
	if err := c.write(ctx, http.MethodPost, rowstore.TableMedications, nil, body, &rows); err != nil {
		return model.Medication{}, err
	}
	if len(rows) == 0 {
		return model.Medication{}, upstream(errors.New("insert medications: empty representation"))
	}
	return rows[0], nil
}

func medicationPatch(upd model.MedicationUpdate) map[string]any {
	patch := map[string]any{}
	if upd.Name != nil {
		patch["name"] = *upd.Name
	}
	if upd.Description != nil {
		patch["description"] = *upd.Description
	}
	if upd.ScheduleTime != nil {
		patch["schedule_time"] = *upd.ScheduleTime
	}
	if upd.LastTakenDate != nil {
		patch["last_taken_date"] = *upd.LastTakenDate
	}
	if upd.ClearLastTaken {
		patch["last_taken_date"] = nil
	}
	return patch
}

func (c *Client) UpdateMedication(ctx context.Context, id int64, upd model.MedicationUpdate) (model.Medication, error) {
	patch := medicationPatch(upd)
	if len(patch) == 0 {
		return model.Medication{}, model.NewValidationError("medication", "no fields to update")
	}
	var rows []model.Medication
	if err := c.write(ctx, http.MethodPatch, rowstore.TableMedications, idFilter(id), patch, &rows); err != nil {
		return model.Medication{}, err
	}
	if len(rows) == 0 {
		return model.Medication{}, model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
	}
	return rows[0], nil
}

func (c *Client) DeleteMedication(ctx context.Context, id int64) error {
	var rows []model.Medication
	if err := c.write(ctx, http.MethodDelete, rowstore.TableMedications, idFilter(id), nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
	}
	return nil
}

func (c *Client) ListMetrics(ctx context.Context, metricType string) ([]model.Metric, error) {
	q := map[string]string{"select": "*", "order": "created_at.asc"}
	if metricType != "" {
		q["type"] = eq(metricType)
	}
	var rows []model.Metric
	err := c.get(ctx, rowstore.TableMetrics, q, &rows)
	return rows, err
}

func (c *Client) InsertMetric(ctx context.Context, metricType string, value float64, unit string) (model.Metric, error) {
	rows, err := c.InsertMetrics(ctx, []model.NewMetric{{Type: metricType, Value: value, Unit: unit}})
	if err != nil {
		return model.Metric{}, err
	}
	return rows[0], nil
}

func (c *Client) InsertMetrics(ctx context.Context, batch []model.NewMetric) ([]model.Metric, error) {
	if len(batch) == 0 {
		return nil, model.NewValidationError("metrics", "empty batch")
	}
	var rows []model.Metric
	if err := c.write(ctx, http.MethodPost, rowstore.TableMetrics, nil, batch, &rows); err != nil {
		return nil, err
	}
	if len(rows) != len(batch) {
		return nil, upstream(fmt.Errorf("insert health_metrics: got %d rows back, want %d", len(rows), len(batch)))
	}
	return rows, nil
}

func (c *Client) InsertMood(ctx context.Context, mood string) (model.MoodEntry, error) {
	var rows []model.MoodEntry
	body := []map[string]string{{"mood": mood}}
	if err := c.write(ctx, http.MethodPost, rowstore.TableMoods, nil, body, &rows); err != nil {
		return model.MoodEntry{}, err
	}
	if len(rows) == 0 {
		return model.MoodEntry{}, upstream(errors.New("insert moods: empty representation"))
	}
	return rows[0], nil
}

func (c *Client) ListMoods(ctx context.Context) ([]model.MoodEntry, error) {
	var rows []model.MoodEntry
	err := c.get(ctx, rowstore.TableMoods, map[string]string{"select": "*", "order": "created_at.desc"}, &rows)
	return rows, err
}

// filterTime matches the timestamp layout PostgREST returns, so range bounds compare cleanly.
const filterTime = "2006-01-02T15:04:05.000000Z"

func (c *Client) FindJournalNote(ctx context.Context, from, to time.Time) (model.JournalNote, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", "1")
	q.Add("created_at", "gte."+from.UTC().Format(filterTime))
	q.Add("created_at", "lt."+to.UTC().Format(filterTime))
	var rows []model.JournalNote
	if err := c.getValues(ctx, rowstore.TableJournal, q, &rows); err != nil {
		return model.JournalNote{}, err
	}
	if len(rows) == 0 {
		return model.JournalNote{}, model.NewNotFoundError("journal note", from.Format(time.RFC3339))
	}
	return rows[0], nil
}

type journalRow struct {
	ID      int64  `json:"id,omitempty"`
	Content string `json:"content"`
}

// UpsertJournalNote posts the row with merge-duplicates, so a known id updates in place.
func (c *Client) UpsertJournalNote(ctx context.Context, n model.JournalNote) (model.JournalNote, error) {
	var rows []model.JournalNote
	body := []journalRow{{ID: n.ID, Content: n.Content}}
	prefer := "resolution=merge-duplicates,return=representation"
	if err := c.writePrefer(ctx, http.MethodPost, rowstore.TableJournal, prefer, nil, body, &rows); err != nil {
		return model.JournalNote{}, err
	}
	if len(rows) == 0 {
		return model.JournalNote{}, upstream(errors.New("upsert notes: empty representation"))
	}
	return rows[0], nil
}

func (c *Client) ListJournalNotes(ctx context.Context) ([]model.JournalNote, error) {
	var rows []model.JournalNote
	err := c.get(ctx, rowstore.TableJournal, map[string]string{"select": "*", "order": "created_at.desc"}, &rows)
	return rows, err
}

// HealthPing issues a one-row read against medications.
func (c *Client) HealthPing(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{"select": "id", "limit": "1"}).
		Get("/" + rowstore.TableMedications)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &rowstore.StatusError{Op: "ping", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
