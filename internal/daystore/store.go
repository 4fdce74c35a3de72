// Package daystore maps calendar dates to DayBundles persisted in a blob store.
package daystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// MaxRangeDays bounds Range queries.
const MaxRangeDays = 366

// rangeConcurrency caps parallel loads issued by Range.
const rangeConcurrency = 8

// Store loads and saves DayBundles under "<namespace>_<date>" keys.
type Store struct {
	blobs     blob.Store
	namespace string
	log       zerolog.Logger
}

// New returns a Store. An empty namespace falls back to "happyapp".
func New(blobs blob.Store, namespace string, log zerolog.Logger) *Store {
	if namespace == "" {
		namespace = "happyapp"
	}
	return &Store{blobs: blobs, namespace: namespace, log: log}
}

// Key returns the blob key of date.
func (s *Store) Key(date string) string {
	return s.namespace + "_" + date
}

// ErrPartialWrite marks a multi-day save that stopped after some days were written.
var ErrPartialWrite = errors.New("partial write")

// Load returns the bundle saved for date, or an empty default bundle.
// It never fails: unreadable data is logged and replaced by defaults.
func (s *Store) Load(ctx context.Context, date string) model.DayBundle {
	b, err := s.load(ctx, date)
	if err != nil {
		loadFallbacksTotal.WithLabelValues(reasonStoreError).Inc()
		s.log.Error().Err(err).Str("key", s.Key(date)).Msg("blob store read failed, using empty bundle")
		return model.NewDayBundle(date)
	}
	return b
}

// LoadForUpdate is Load for read-modify-write callers. A failed store read is
// returned instead of being replaced by defaults, so the caller never saves an
// empty bundle over data it could not read.
func (s *Store) LoadForUpdate(ctx context.Context, date string) (model.DayBundle, error) {
	if _, err := ParseDate(date); err != nil {
		return model.DayBundle{}, err
	}
	b, err := s.load(ctx, date)
	if err != nil {
		s.log.Error().Err(err).Str("key", s.Key(date)).Msg("blob store read failed, update aborted")
		return model.DayBundle{}, err
	}
	return b, nil
}

// load only fails on store errors; missing and malformed bundles give defaults.
func (s *Store) load(ctx context.Context, date string) (model.DayBundle, error) {
	key := s.Key(date)
	raw, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return model.NewDayBundle(date), nil
	}
	if err != nil {
		return model.DayBundle{}, fmt.Errorf("load %s: %w", date, err)
	}

	b, err := decode(date, raw)
	if err != nil {
		loadFallbacksTotal.WithLabelValues(reasonMalformed).Inc()
		s.log.Error().Err(err).Str("key", key).Int("bytes", len(raw)).Msg("malformed day bundle, using empty bundle")
		s.quarantine(ctx, key, raw)
		return model.NewDayBundle(date), nil
	}
	return b, nil
}

// decode unmarshals raw over a default bundle so missing fields keep their defaults.
func decode(date string, raw []byte) (model.DayBundle, error) {
	b := model.NewDayBundle(date)
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.DayBundle{}, err
	}
	b.Date = date
	b.Normalize()
	return b, nil
}

func (s *Store) quarantine(ctx context.Context, key string, raw []byte) {
	qkey := key + ".corrupt"
	if err := s.blobs.Set(ctx, qkey, raw); err != nil {
		s.log.Error().Err(err).Str("key", qkey).Msg("failed to quarantine malformed bundle")
		return
	}
	s.log.Warn().Str("key", qkey).Msg("malformed bundle copied aside")
}

func encode(date string, b model.DayBundle) ([]byte, error) {
	if err := checkUTF8(b); err != nil {
		return nil, err
	}
	b.Date = date
	b.Normalize()
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode day bundle: %w", err)
	}
	return raw, nil
}

// checkUTF8 rejects strings JSON encoding would rewrite with U+FFFD.
func checkUTF8(b model.DayBundle) error {
	bad := func(field string, values ...string) error {
		for _, v := range values {
			if !utf8.ValidString(v) {
				return model.NewValidationError(field, "must be valid UTF-8")
			}
		}
		return nil
	}
	for _, t := range b.Tasks {
		if err := bad("tasks.text", t.Text); err != nil {
			return err
		}
	}
	for _, n := range b.Notes {
		if err := bad("notes", n.Title, n.Content); err != nil {
			return err
		}
	}
	for _, e := range b.Events {
		if err := bad("events", e.Title, e.Date, e.StartTime, e.EndTime, e.Location, e.Attendees,
			e.Description, e.Link, e.Meet, e.Recurrence, e.Color); err != nil {
			return err
		}
	}
	for _, m := range b.Diary.Media {
		if err := bad("diary.media", string(m.Type), m.URL, m.Name); err != nil {
			return err
		}
	}
	return bad("day", b.Diary.Text, b.Status.Mood, b.Status.Weather, b.Status.Saint, b.Status.Proverb)
}

// Save replaces the bundle stored for date.
func (s *Store) Save(ctx context.Context, date string, b model.DayBundle) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}
	raw, err := encode(date, b)
	if err != nil {
		return err
	}
	if err := s.blobs.Set(ctx, s.Key(date), raw); err != nil {
		return fmt.Errorf("save %s: %w", date, err)
	}
	return nil
}

// SaveMany replaces the bundles of several dates, in one batch when the blob
// store supports it. Otherwise last is written after every other date and a
// failure after the first write wraps ErrPartialWrite.
func (s *Store) SaveMany(ctx context.Context, bundles map[string]model.DayBundle, last string) error {
	raws := make(map[string][]byte, len(bundles))
	dates := make([]string, 0, len(bundles))
	for date, b := range bundles {
		if _, err := ParseDate(date); err != nil {
			return err
		}
		raw, err := encode(date, b)
		if err != nil {
			return err
		}
		raws[date] = raw
		if date != last {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	if _, ok := bundles[last]; ok {
		dates = append(dates, last)
	}

	if b, ok := s.blobs.(blob.Batcher); ok {
		keyed := make(map[string][]byte, len(raws))
		for date, raw := range raws {
			keyed[s.Key(date)] = raw
		}
		if err := b.SetMany(ctx, keyed); err != nil {
			return fmt.Errorf("save %s: %w", strings.Join(dates, ","), err)
		}
		return nil
	}

	for i, date := range dates {
		if err := s.blobs.Set(ctx, s.Key(date), raws[date]); err != nil {
			if i > 0 {
				return fmt.Errorf("save %s: %w: %w", date, ErrPartialWrite, err)
			}
			return fmt.Errorf("save %s: %w", date, err)
		}
	}
	return nil
}

// MoveEvent removes the event with ev.ID from fromDate and appends ev, dated toDate,
// to toDate, replacing an event with the same id there. Both bundles are written
// in one batch when the blob store supports it.
func (s *Store) MoveEvent(ctx context.Context, fromDate, toDate string, ev model.Event) error {
	if _, err := ParseDate(toDate); err != nil {
		return err
	}
	from, err := s.LoadForUpdate(ctx, fromDate)
	if err != nil {
		return err
	}
	idx := from.EventIndex(ev.ID)
	if idx < 0 {
		return model.NewNotFoundError("event", fmt.Sprintf("%d on %s", ev.ID, fromDate))
	}
	ev.Date = toDate

	if fromDate == toDate {
		from.Events[idx] = ev
		return s.Save(ctx, fromDate, from)
	}

	from.Events = append(from.Events[:idx:idx], from.Events[idx+1:]...)
	to, err := s.LoadForUpdate(ctx, toDate)
	if err != nil {
		return err
	}
	UpsertEvent(&to, ev)

	mode := "sequential"
	if _, ok := s.blobs.(blob.Batcher); ok {
		mode = "batch"
	}
	// Source last: a failure in between duplicates the event rather than losing it.
	err = s.SaveMany(ctx, map[string]model.DayBundle{fromDate: from, toDate: to}, fromDate)
	switch {
	case errors.Is(err, ErrPartialWrite):
		moveEventsTotal.WithLabelValues(mode, "partial").Inc()
		s.log.Error().Err(err).
			Int64("event_id", ev.ID).
			Str("from", fromDate).
			Str("to", toDate).
			Msg("event move partially applied, event present on both days")
		return fmt.Errorf("move event %d: %w", ev.ID, err)
	case err != nil:
		moveEventsTotal.WithLabelValues(mode, "error").Inc()
		return fmt.Errorf("move event %d: %w", ev.ID, err)
	}
	moveEventsTotal.WithLabelValues(mode, "ok").Inc()
	return nil
}

// UpsertEvent replaces the event of b with ev.ID, or appends ev.
func UpsertEvent(b *model.DayBundle, ev model.Event) {
	if j := b.EventIndex(ev.ID); j >= 0 {
		b.Events[j] = ev
		return
	}
	b.Events = append(b.Events, ev)
}

// Range loads every date in [from, to] concurrently, in date order.
func (s *Store) Range(ctx context.Context, from, to string) ([]model.DayBundle, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, model.NewValidationError("to", "must not be before from")
	}
	days := int(end.Sub(start)/(24*time.Hour)) + 1
	if days > MaxRangeDays {
		return nil, model.NewValidationError("to", fmt.Sprintf("range exceeds %d days", MaxRangeDays))
	}

	out := make([]model.DayBundle, days)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rangeConcurrency)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format(DateLayout)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.Load(gctx, date)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dates lists every date with a saved bundle, ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	prefix := s.namespace + "_"
	keys, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list day keys: %w", err)
	}
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		d := strings.TrimPrefix(k, prefix)
		if _, err := time.Parse(DateLayout, d); err != nil {
			continue // quarantined copies and foreign keys
		}
		dates = append(dates, d)
	}
	return dates, nil
}
