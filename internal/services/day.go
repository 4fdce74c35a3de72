package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/Fau-Caudullo/happyapp/internal/daystore"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// DayStore is the day-scoped record store.
type DayStore interface {
	Load(ctx context.Context, date string) model.DayBundle
	LoadForUpdate(ctx context.Context, date string) (model.DayBundle, error)
	Save(ctx context.Context, date string, b model.DayBundle) error
	SaveMany(ctx context.Context, bundles map[string]model.DayBundle, last string) error
	MoveEvent(ctx context.Context, fromDate, toDate string, ev model.Event) error
	Range(ctx context.Context, from, to string) ([]model.DayBundle, error)
	Dates(ctx context.Context) ([]string, error)
}

// SaintLookup annotates a day with its saint and proverb.
type SaintLookup interface {
	SaintAndProverb(month, day int) (string, string)
}

// IDSource hands out record ids.
type IDSource interface {
	Next() int64
}

// lockStripes is the number of mutexes dates are hashed onto.
const lockStripes = 64

// DayService implements the read-modify-write use cases on day bundles.
// Mutations of the same date are serialized within the process.
type DayService struct {
	store  DayStore
	saints SaintLookup
	ids    IDSource
	md     goldmark.Markdown

	locks [lockStripes]sync.Mutex
}

// NewDayService wires a DayService. saints may be nil.
func NewDayService(store DayStore, saints SaintLookup, ids IDSource) *DayService {
	return &DayService{
		store:  store,
		saints: saints,
		ids:    ids,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func stripe(date string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(date))
	return int(h.Sum32() % lockStripes)
}

// lock takes the stripes of dates in ascending order and returns the release func.
func (s *DayService) lock(dates ...string) func() {
	idx := make([]int, 0, len(dates))
	for _, d := range dates {
		idx = append(idx, stripe(d))
	}
	sort.Ints(idx)
	var held []*sync.Mutex
	for i, n := range idx {
		if i > 0 && n == idx[i-1] {
			continue
		}
		mu := &s.locks[n]
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// mutate loads date, applies fn and saves the result when fn succeeds.
func (s *DayService) mutate(ctx context.Context, date string, fn func(b *model.DayBundle) error) (model.DayBundle, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return model.DayBundle{}, err
	}
	unlock := s.lock(date)
	defer unlock()

	b, err := s.store.LoadForUpdate(ctx, date)
	if err != nil {
		return model.DayBundle{}, err
	}
	if err := fn(&b); err != nil {
		return model.DayBundle{}, err
	}
	if err := s.store.Save(ctx, date, b); err != nil {
		return model.DayBundle{}, err
	}
	return b, nil
}

func (s *DayService) annotate(b *model.DayBundle) {
	if s.saints == nil {
		return
	}
	t, err := daystore.ParseDate(b.Date)
	if err != nil {
		return
	}
	saint, proverb := s.saints.SaintAndProverb(int(t.Month()), t.Day())
	if b.Status.Saint == "" {
		b.Status.Saint = saint
	}
	if b.Status.Proverb == "" {
		b.Status.Proverb = proverb
	}
}

// GetDay returns the bundle of date with saint and proverb filled in when unset.
func (s *DayService) GetDay(ctx context.Context, date string) (model.DayBundle, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return model.DayBundle{}, err
	}
	b := s.store.Load(ctx, date)
	s.annotate(&b)
	return b, nil
}

// ShiftDay returns the bundle n days away from date.
func (s *DayService) ShiftDay(ctx context.Context, date string, n int) (model.DayBundle, error) {
	target, err := daystore.ShiftDate(date, n)
	if err != nil {
		return model.DayBundle{}, err
	}
	return s.GetDay(ctx, target)
}

// PutDay replaces the bundle of date. Events dated elsewhere are stored on their
// own day instead, and every touched day is written together.
func (s *DayService) PutDay(ctx context.Context, date string, in model.DayBundle) (model.DayBundle, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return model.DayBundle{}, err
	}
	if err := validateBundle(&in); err != nil {
		return model.DayBundle{}, err
	}
	own := make([]model.Event, 0, len(in.Events))
	foreign := map[string][]model.Event{}
	for _, ev := range in.Events {
		if ev.ID == 0 {
			ev.ID = s.ids.Next()
		}
		switch {
		case ev.Date == "" || ev.Date == date:
			ev.Date = date
			own = append(own, ev)
		default:
			if _, err := daystore.ParseDate(ev.Date); err != nil {
				return model.DayBundle{}, model.NewValidationError("events.date", "must be YYYY-MM-DD")
			}
			foreign[ev.Date] = append(foreign[ev.Date], ev)
		}
	}
	in.Events = own
	in.Date = date
	for i := range in.Tasks {
		if in.Tasks[i].ID == 0 {
			in.Tasks[i].ID = s.ids.Next()
		}
	}
	for i := range in.Notes {
		if in.Notes[i].ID == 0 {
			in.Notes[i].ID = s.ids.Next()
		}
	}

	if len(foreign) == 0 {
		return s.mutate(ctx, date, func(b *model.DayBundle) error {
			*b = in
			return nil
		})
	}

	dates := []string{date}
	for d := range foreign {
		dates = append(dates, d)
	}
	unlock := s.lock(dates...)
	defer unlock()

	bundles := map[string]model.DayBundle{date: in}
	for d, evs := range foreign {
		b, err := s.store.LoadForUpdate(ctx, d)
		if err != nil {
			return model.DayBundle{}, err
		}
		for _, ev := range evs {
			daystore.UpsertEvent(&b, ev)
		}
		bundles[d] = b
	}
	if err := s.store.SaveMany(ctx, bundles, date); err != nil {
		return model.DayBundle{}, err
	}
	return in, nil
}

func validateBundle(b *model.DayBundle) error {
	b.Normalize()
	if !model.ValidMood(b.Status.Mood) {
		return model.NewValidationError("status.mood", "unknown mood")
	}
	if !model.ValidWeather(b.Status.Weather) {
		return model.NewValidationError("status.weather", "unknown weather")
	}
	return validateMedia(b.Diary.Media)
}

func validateMedia(items []model.MediaItem) error {
	for i, m := range items {
		if !m.Type.Valid() {
			return model.NewValidationError(fmt.Sprintf("diary.media[%d].type", i), "must be photo, video, audio or link")
		}
		if strings.TrimSpace(m.URL) == "" {
			return model.NewValidationError(fmt.Sprintf("diary.media[%d].url", i), "is required")
		}
	}
	return nil
}

// AddTask appends a new open task to date.
func (s *DayService) AddTask(ctx context.Context, date, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, model.NewValidationError("text", "is required")
	}
	t := model.Task{ID: s.ids.Next(), Text: text}
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		b.Tasks = append(b.Tasks, t)
		return nil
	})
	return t, err
}

// ToggleTask flips the completed flag of task id.
func (s *DayService) ToggleTask(ctx context.Context, date string, id int64) (model.Task, error) {
	var out model.Task
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		for i := range b.Tasks {
			if b.Tasks[i].ID == id {
				b.Tasks[i].Completed = !b.Tasks[i].Completed
				out = b.Tasks[i]
				return nil
			}
		}
		return model.NewNotFoundError("task", strconv.FormatInt(id, 10))
	})
	return out, err
}

// DeleteTask removes task id from date.
func (s *DayService) DeleteTask(ctx context.Context, date string, id int64) error {
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		for i := range b.Tasks {
			if b.Tasks[i].ID == id {
				b.Tasks = append(b.Tasks[:i], b.Tasks[i+1:]...)
				return nil
			}
		}
		return model.NewNotFoundError("task", strconv.FormatInt(id, 10))
	})
	return err
}

// AddNote appends a note to date.
func (s *DayService) AddNote(ctx context.Context, date, title, content string) (model.Note, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return model.Note{}, model.NewValidationError("note", "title or content is required")
	}
	n := model.Note{ID: s.ids.Next(), Title: title, Content: content}
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		b.Notes = append(b.Notes, n)
		return nil
	})
	return n, err
}

// DeleteNote removes note id from date.
func (s *DayService) DeleteNote(ctx context.Context, date string, id int64) error {
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		for i := range b.Notes {
			if b.Notes[i].ID == id {
				b.Notes = append(b.Notes[:i], b.Notes[i+1:]...)
				return nil
			}
		}
		return model.NewNotFoundError("note", strconv.FormatInt(id, 10))
	})
	return err
}

// AddEvent stores ev in the bundle of its own date; an empty date means date.
func (s *DayService) AddEvent(ctx context.Context, date string, ev model.Event) (model.Event, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return model.Event{}, err
	}
	if strings.TrimSpace(ev.Title) == "" {
		return model.Event{}, model.NewValidationError("title", "is required")
	}
	if ev.Date == "" {
		ev.Date = date
	}
	if _, err := daystore.ParseDate(ev.Date); err != nil {
		return model.Event{}, model.NewValidationError("date", "must be YYYY-MM-DD")
	}
	ev.ID = s.ids.Next()
	_, err := s.mutate(ctx, ev.Date, func(b *model.DayBundle) error {
		b.Events = append(b.Events, ev)
		return nil
	})
	return ev, err
}

// DeleteEvent removes event id from date.
func (s *DayService) DeleteEvent(ctx context.Context, date string, id int64) error {
	_, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		i := b.EventIndex(id)
		if i < 0 {
			return model.NewNotFoundError("event", strconv.FormatInt(id, 10))
		}
		b.Events = append(b.Events[:i], b.Events[i+1:]...)
		return nil
	})
	return err
}

// MoveEvent moves event id from date to toDate.
func (s *DayService) MoveEvent(ctx context.Context, date string, id int64, toDate string) (model.Event, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return model.Event{}, err
	}
	if _, err := daystore.ParseDate(toDate); err != nil {
		return model.Event{}, model.NewValidationError("toDate", "must be YYYY-MM-DD")
	}
	unlock := s.lock(date, toDate)
	defer unlock()

	b, err := s.store.LoadForUpdate(ctx, date)
	if err != nil {
		return model.Event{}, err
	}
	i := b.EventIndex(id)
	if i < 0 {
		return model.Event{}, model.NewNotFoundError("event", strconv.FormatInt(id, 10))
	}
	ev := b.Events[i]
	if err := s.store.MoveEvent(ctx, date, toDate, ev); err != nil {
		return model.Event{}, err
	}
	ev.Date = toDate
	return ev, nil
}

// SetDiary replaces the diary of date.
func (s *DayService) SetDiary(ctx context.Context, date string, d model.Diary) (model.Diary, error) {
	if d.Media == nil {
		d.Media = []model.MediaItem{}
	}
	if err := validateMedia(d.Media); err != nil {
		return model.Diary{}, err
	}
	b, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		b.Diary = d
		return nil
	})
	return b.Diary, err
}

// DiaryHTML renders the diary text of date as HTML. Raw HTML in the text is escaped.
func (s *DayService) DiaryHTML(ctx context.Context, date string) (string, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return "", err
	}
	b := s.store.Load(ctx, date)
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(b.Diary.Text), &buf); err != nil {
		return "", fmt.Errorf("render diary: %w", err)
	}
	return buf.String(), nil
}

// SetStatus updates mood and weather of date; empty fields keep their value.
func (s *DayService) SetStatus(ctx context.Context, date string, st model.Status) (model.Status, error) {
	if st.Mood != "" && !model.ValidMood(st.Mood) {
		return model.Status{}, model.NewValidationError("mood", "unknown mood")
	}
	if st.Weather != "" && !model.ValidWeather(st.Weather) {
		return model.Status{}, model.NewValidationError("weather", "unknown weather")
	}
	b, err := s.mutate(ctx, date, func(b *model.DayBundle) error {
		if st.Mood != "" {
			b.Status.Mood = st.Mood
		}
		if st.Weather != "" {
			b.Status.Weather = st.Weather
		}
		if st.Saint != "" {
			b.Status.Saint = st.Saint
		}
		if st.Proverb != "" {
			b.Status.Proverb = st.Proverb
		}
		return nil
	})
	return b.Status, err
}

// Events projects the events of every day in [from, to], ordered by date and start time.
func (s *DayService) Events(ctx context.Context, from, to string) ([]model.Event, error) {
	days, err := s.store.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := []model.Event{}
	for _, d := range days {
		out = append(out, d.Events...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// SearchHit is a task or note matching a search query.
type SearchHit struct {
	Date  string `json:"date"`
	Kind  string `json:"kind"`
	ID    int64  `json:"id"`
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Search fuzzy-matches query against tasks and notes. With empty bounds every
// saved day is searched, otherwise the days in [from, to].
func (s *DayService) Search(ctx context.Context, query, from, to string) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidationError("q", "is required")
	}
	days, err := s.searchDays(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var (
		candidates []SearchHit
		texts      []string
	)
	for _, d := range days {
		for _, t := range d.Tasks {
			candidates = append(candidates, SearchHit{Date: d.Date, Kind: "task", ID: t.ID, Text: t.Text})
			texts = append(texts, t.Text)
		}
		for _, n := range d.Notes {
			text := strings.TrimSpace(n.Title + " " + n.Content)
			candidates = append(candidates, SearchHit{Date: d.Date, Kind: "note", ID: n.ID, Text: text})
			texts = append(texts, text)
		}
	}

	hits := []SearchHit{}
	for _, m := range fuzzy.Find(query, texts) {
		h := candidates[m.Index]
		h.Score = m.Score
		hits = append(hits, h)
	}
	return hits, nil
}

func (s *DayService) searchDays(ctx context.Context, from, to string) ([]model.DayBundle, error) {
	if from != "" || to != "" {
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		return s.store.Range(ctx, from, to)
	}
	dates, err := s.store.Dates(ctx)
	if err != nil {
		return nil, err
	}
	days := make([]model.DayBundle, 0, len(dates))
	for _, d := range dates {
		days = append(days, s.store.Load(ctx, d))
	}
	return days, nil
}

// Dates lists every date with a saved bundle, ascending.
func (s *DayService) Dates(ctx context.Context) ([]string, error) {
	return s.store.Dates(ctx)
}
